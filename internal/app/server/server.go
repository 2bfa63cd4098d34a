package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"campaign-launcher/internal/api"
	"campaign-launcher/internal/cache"
	"campaign-launcher/internal/config"
	"campaign-launcher/internal/dictionary"
	"campaign-launcher/internal/launch"
)

type Server struct {
	cfg     config.Config
	bundles *cache.Snapshot[*dictionary.Bundle]
	load    func(dir string) (*dictionary.Bundle, error)
}

func New(cfg config.Config, bundle *dictionary.Bundle) *Server {
	return &Server{cfg: cfg, bundles: cache.NewSnapshot(bundle), load: dictionary.Load}
}

func (s *Server) Handler() http.Handler {
	behavior := launch.Behavior{
		EnableFallback:   s.cfg.Launch.EnableFallback,
		UseTargetingSpec: s.cfg.Launch.UseTargetingSpec,
		ApplyLocales:     s.cfg.Launch.ApplyLocales,
	}
	return api.Router(api.NewPreviewHandler(s.bundles, behavior, s.cfg.Launch.Author))
}

// Reload swaps in freshly loaded dictionaries; on error the old ones stay.
func (s *Server) Reload() error {
	b, err := s.load(s.cfg.Dictionaries.Dir)
	if err != nil {
		return err
	}
	s.bundles.Store(b)
	return nil
}

// Run serves until SIGINT/SIGTERM. SIGHUP reloads the dictionaries.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Server.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.cfg.Server.Addr).Msg("http server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sig)

loop:
	for {
		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
			break loop
		case v := <-sig:
			if v != syscall.SIGHUP {
				break loop
			}
			if err := s.Reload(); err != nil {
				log.Error().Err(err).Msg("reload dictionaries")
				continue
			}
			log.Info().Str("dir", s.cfg.Dictionaries.Dir).Msg("dictionaries reloaded")
		}
	}
	log.Info().Msg("shutdown...")

	shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shCtx)
}
