package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration (file + env overrides)
type Config struct {
	Server struct {
		Addr      string `mapstructure:"addr"`
		LogLevel  string `mapstructure:"log_level"`
		LogFormat string `mapstructure:"log_format"`
	} `mapstructure:"server"`

	Graph struct {
		BaseURL        string `mapstructure:"base_url"`
		APIVersion     string `mapstructure:"api_version"`
		AccessToken    string `mapstructure:"access_token"`
		TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	} `mapstructure:"graph"`

	Dictionaries struct {
		Dir string `mapstructure:"dir"`
	} `mapstructure:"dictionaries"`

	Launch struct {
		Author           string `mapstructure:"author"`
		LogsFile         string `mapstructure:"logs_file"`
		LaunchesDir      string `mapstructure:"launches_dir"`
		FallbackTemplate string `mapstructure:"fallback_template"`
		EnableFallback   bool   `mapstructure:"enable_fallback"`
		UseTargetingSpec bool   `mapstructure:"use_targeting_spec"`
		ApplyLocales     bool   `mapstructure:"apply_locales"`
	} `mapstructure:"launch"`

	Postgres struct {
		Enabled      bool   `mapstructure:"enabled"`
		Host         string `mapstructure:"host"`
		Port         int    `mapstructure:"port"`
		User         string `mapstructure:"user"`
		Password     string `mapstructure:"password"`
		DBName       string `mapstructure:"db_name"`
		SSLMode      string `mapstructure:"ssl_mode"`
		MaxOpenConns int    `mapstructure:"max_open_conns"`
		// NotifyChannel triggers a dictionary reload in serve mode.
		NotifyChannel    string `mapstructure:"notify_channel"`
		ReconnectSeconds int    `mapstructure:"reconnect_seconds"`
	} `mapstructure:"postgres"`
}

// Load reads launcher.yaml (or file, when given), a .env file if present,
// and LAUNCHER_* environment overrides such as LAUNCHER_GRAPH_ACCESS_TOKEN.
func Load(file string) (Config, error) {
	_ = godotenv.Load() // optional

	v := viper.New()
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("launcher")
		v.SetConfigType("yaml")
		v.AddConfigPath("configs")
		v.AddConfigPath(".")
	}
	setDefaults(v)

	v.SetEnvPrefix("LAUNCHER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unable to decode config: %w", err)
	}
	validate(&cfg)
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override keys absent
// from the file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.log_format", LogConsole)
	v.SetDefault("graph.base_url", "https://graph.facebook.com")
	v.SetDefault("graph.api_version", "v21.0")
	v.SetDefault("graph.access_token", "")
	v.SetDefault("graph.timeout_seconds", 30)
	v.SetDefault("dictionaries.dir", "dictionaries")
	v.SetDefault("launch.author", "KH")
	v.SetDefault("launch.logs_file", "logs.csv")
	v.SetDefault("launch.launches_dir", "launches")
	v.SetDefault("launch.fallback_template", "")
	v.SetDefault("launch.enable_fallback", true)
	v.SetDefault("launch.use_targeting_spec", false)
	v.SetDefault("launch.apply_locales", false)
	v.SetDefault("postgres.enabled", false)
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.db_name", "launcher")
	v.SetDefault("postgres.ssl_mode", "disable")
	v.SetDefault("postgres.max_open_conns", 4)
	v.SetDefault("postgres.notify_channel", "launcher_dictionaries")
	v.SetDefault("postgres.reconnect_seconds", 2)
}

func validate(c *Config) {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Graph.TimeoutSeconds <= 0 {
		c.Graph.TimeoutSeconds = 30
	}
	if c.Postgres.Port == 0 {
		c.Postgres.Port = 5432
	}
	if c.Postgres.SSLMode == "" {
		c.Postgres.SSLMode = "disable"
	}
	if c.Postgres.MaxOpenConns == 0 {
		c.Postgres.MaxOpenConns = 4
	}
	if c.Postgres.ReconnectSeconds <= 0 {
		c.Postgres.ReconnectSeconds = 2
	}
	c.Graph.BaseURL = strings.TrimRight(c.Graph.BaseURL, "/")
}

func (c Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Postgres.User,
		c.Postgres.Password,
		c.Postgres.Host,
		c.Postgres.Port,
		c.Postgres.DBName,
		c.Postgres.SSLMode,
	)
}

func (c Config) GraphTimeout() time.Duration {
	return time.Duration(c.Graph.TimeoutSeconds) * time.Second
}
