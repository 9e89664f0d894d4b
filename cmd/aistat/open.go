package main

import (
	"github.com/Zuo-Peng/ai-session-stats/internal/index"
	"github.com/Zuo-Peng/ai-session-stats/internal/open"
	"github.com/spf13/cobra"
)

func openCmd() *cobra.Command {
	var hitSeq int

	cmd := &cobra.Command{
		Use:   "open <sessionKey>",
		Short: "Open the session file in $EDITOR at the hit message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			db, err := index.OpenDB(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			return open.OpenSession(db, args[0], hitSeq)
		},
	}

	cmd.Flags().IntVar(&hitSeq, "hit", -1, "Message index to jump to")

	return cmd
}
