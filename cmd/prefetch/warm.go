package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/cobra"

	"github.com/adeilh/go-prefetch/fetcher"
	"github.com/adeilh/go-prefetch/resource"
)

// warmConfig carries environment defaults; flags override them.
type warmConfig struct {
	BaseURL string        `env:"PREFETCH_BASE_URL"`
	Timeout time.Duration `env:"PREFETCH_TIMEOUT" envDefault:"10s"`
}

var (
	warmBaseURL string
	warmTimeout time.Duration
	warmOut     string
	warmVerbose bool
)

var warmCmd = &cobra.Command{
	Use:   "warm [key...]",
	Short: "Preload keys and emit the cache snapshot",
	Long: `Preload every key against the origin, deduplicating concurrent
fetches per key, then write the serialized cache snapshot to the output
file (or stdout). A later "prefetch inspect" or a running instance can
restore the snapshot with zero additional fetches for these keys.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWarm,
}

func init() {
	warmCmd.Flags().StringVar(&warmBaseURL, "base-url", "", "origin base URL (env PREFETCH_BASE_URL)")
	warmCmd.Flags().DurationVar(&warmTimeout, "timeout", 0, "per-fetch timeout (env PREFETCH_TIMEOUT)")
	warmCmd.Flags().StringVarP(&warmOut, "out", "o", "", "snapshot output file (default stdout)")
	warmCmd.Flags().BoolVarP(&warmVerbose, "verbose", "v", false, "log fetch settlements")
}

func runWarm(cmd *cobra.Command, args []string) error {
	var cfg warmConfig
	if err := env.Parse(&cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	if warmBaseURL != "" {
		cfg.BaseURL = warmBaseURL
	}
	if warmTimeout > 0 {
		cfg.Timeout = warmTimeout
	}

	level := slog.LevelInfo
	if warmVerbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	m := resource.New(
		fetcher.NewHTTP(fetcher.WithBaseURL(cfg.BaseURL), fetcher.WithTimeout(cfg.Timeout)),
		resource.WithLogger(log),
	)

	start := time.Now()
	if err := m.PreloadAll(cmd.Context(), args...); err != nil {
		return err
	}
	log.Info("cache warmed", "keys", len(args), "elapsed", time.Since(start))

	snapshot, err := m.Snapshot()
	if err != nil {
		return err
	}
	if warmOut == "" {
		fmt.Fprintln(cmd.OutOrStdout(), snapshot)
		return nil
	}
	if err := os.WriteFile(warmOut, []byte(snapshot+"\n"), 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	log.Info("snapshot written", "path", warmOut, "bytes", len(snapshot))
	return nil
}
