package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"campaign-launcher/internal/app/server"
	"campaign-launcher/internal/geo"
	"campaign-launcher/internal/launchlog"
	"campaign-launcher/internal/listener"
	"campaign-launcher/internal/storage"
)

var tiersCmd = &cobra.Command{
	Use:   "tiers",
	Short: "List configured tiers and how each one resolves",
	RunE: func(cmd *cobra.Command, _ []string) error {
		bundle, err := loadBundle()
		if err != nil {
			return err
		}
		r := bundle.Resolver()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%-12s %-10s %9s  %s\n", "TIER", "LABEL", "COUNTRIES", "GEO MODE")
		for _, k := range r.Tiers() {
			res, err := r.Resolve(geo.ByTier{Tier: k})
			if err != nil {
				fmt.Fprintf(out, "%-12s %-10s %9s  %v\n", k, "-", "-", err)
				continue
			}
			fmt.Fprintf(out, "%-12s %-10s %9d  %s\n", k, res.Label, len(res.Countries), res.Mode())
		}
		fmt.Fprintf(out, "%-12s %-10s %9d  %s\n", geo.Worldwide, geo.Worldwide, len(r.WorldwideCountries()), geo.ModeWorldwide)
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the preview API (SIGHUP or a Postgres NOTIFY reloads dictionaries)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		bundle, err := loadBundle()
		if err != nil {
			return err
		}
		srv := server.New(cfg, bundle)
		if cfg.Postgres.Enabled && cfg.Postgres.NotifyChannel != "" {
			store, err := storage.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer store.Close()
			backoff := time.Duration(cfg.Postgres.ReconnectSeconds) * time.Second
			go listener.ListenAndReload(cmd.Context(), store, cfg.Postgres.NotifyChannel, backoff, srv.Reload)
		}
		return srv.Run(cmd.Context())
	},
}

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent successful launches",
	RunE: func(cmd *cobra.Command, _ []string) error {
		entries, err := recentLaunches(cmd, historyLimit)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, e := range entries {
			fmt.Fprintf(out, "%s  %s  campaign=%s adset=%s\n", e.CreatedAt.Format(launchlog.TimeLayout), e.Name, e.CampaignID, e.AdSetID)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of launches to show")
}

// recentLaunches prefers the database mirror and falls back to the CSV log.
func recentLaunches(cmd *cobra.Command, limit int) ([]launchlog.Entry, error) {
	if cfg.Postgres.Enabled {
		store, err := storage.New(cmd.Context(), cfg)
		if err != nil {
			return nil, err
		}
		defer store.Close()
		return store.RecentLaunches(cmd.Context(), limit)
	}

	entries, err := launchlog.NewFile(cfg.Launch.LogsFile).Entries()
	if err != nil {
		return nil, err
	}
	// file order is oldest first
	var out []launchlog.Entry
	for i := len(entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, entries[i])
	}
	return out, nil
}
