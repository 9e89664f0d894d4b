package main

import (
	"context"
	"fmt"
	"os"

	"github.com/Zuo-Peng/ai-session-stats/internal/config"
	"github.com/Zuo-Peng/ai-session-stats/internal/index"
	"github.com/Zuo-Peng/ai-session-stats/internal/logger"
	"golang.org/x/term"
)

// loadConfig reads the config and sets up logging for the command.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger.Configure(cfg.LogLevel, term.IsTerminal(int(os.Stderr.Fd())))
	return cfg, nil
}

// openIndex opens the cache and brings it up to date with the sessions root.
// Index failures are reported but do not stop read commands.
func openIndex(ctx context.Context, cfg *config.Config) (*index.DB, error) {
	db, err := index.OpenDB(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if _, err := index.IndexAll(ctx, db, cfg.SessionsRoot, cfg.Workers); err != nil {
		logger.Logger.Warn().Err(err).Msg("auto-index failed")
	}
	return db, nil
}

// oneLine flattens text for tab separated output.
func oneLine(s string) string {
	out := []rune(s)
	for i, r := range out {
		if r == '\t' || r == '\n' || r == '\r' {
			out[i] = ' '
		}
	}
	return string(out)
}
