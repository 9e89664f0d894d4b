package main

import (
	"fmt"
	"os"

	"github.com/Zuo-Peng/ai-session-stats/internal/logger"
	"github.com/Zuo-Peng/ai-session-stats/internal/server"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the sessions root over HTTP",
		Long: `Starts an HTTP server over the sessions root:
  GET  /__sessions_index     list session files
  GET  /sessions/<rel>       raw session file
  POST /__sessions_delete    {"paths": [...]}
  POST /__sessions_relocate  {"path": "...", "newWorkdir": "..."}
  GET  /api/sessions         summaries, newest first`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if host != "" {
				cfg.Host = host
			}
			if port != 0 {
				cfg.Port = port
			}

			if _, err := os.Stat(cfg.SessionsRoot); err != nil {
				logger.Logger.Warn().Str("root", cfg.SessionsRoot).Msg("sessions root not found, serving an empty index")
			}

			app := server.New(cfg)
			fmt.Fprintf(os.Stderr, "Serving %s on http://%s\n", cfg.SessionsRoot, cfg.Addr())
			return server.Serve(cmd.Context(), app, cfg.Addr())
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Listen host (default from config)")
	cmd.Flags().IntVar(&port, "port", 0, "Listen port (default from config)")

	return cmd
}
