package main

import (
	"fmt"
	"os"

	"github.com/Zuo-Peng/ai-session-stats/internal/index"
	"github.com/Zuo-Peng/ai-session-stats/internal/logger"
	"github.com/Zuo-Peng/ai-session-stats/internal/manage"
	"github.com/spf13/cobra"
)

func deleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <sessionKey>...",
		Short: "Delete session files under the sessions root",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			if !yes {
				fmt.Fprintf(os.Stderr, "Refusing to delete %d session(s) without --yes\n", len(args))
				return nil
			}

			paths := make([]any, len(args))
			for i, a := range args {
				paths[i] = a
			}
			res := manage.Delete(cfg.SessionsRoot, paths)

			for _, rel := range res.Removed {
				fmt.Printf("removed\t%s\n", rel)
			}
			for _, p := range res.Failed {
				fmt.Printf("failed\t%v\n", p)
			}

			// drop removed sessions from the cache if there is one
			if len(res.Removed) > 0 {
				if _, err := os.Stat(cfg.DBPath); err == nil {
					db, err := index.OpenDB(cfg.DBPath)
					if err != nil {
						return err
					}
					defer db.Close()
					for _, rel := range res.Removed {
						if err := db.DeleteSession(rel); err != nil {
							logger.Logger.Warn().Err(err).Str("session", rel).Msg("drop cached session")
						}
					}
				}
			}

			if len(res.Failed) > 0 {
				return fmt.Errorf("%d of %d session(s) could not be deleted", len(res.Failed), len(args))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm deletion")

	return cmd
}
