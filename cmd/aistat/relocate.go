package main

import (
	"fmt"

	"github.com/Zuo-Peng/ai-session-stats/internal/manage"
	"github.com/spf13/cobra"
)

func relocateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "relocate <sessionKey> <newWorkdir>",
		Short: "Point a session at a new working directory",
		Long: `Rewrites every cwd/workdir field in the session file to newWorkdir so
"codex resume" starts in the new location. The file is parsed strictly
first; a malformed file is left untouched.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			updated, err := manage.Relocate(cfg.SessionsRoot, args[0], args[1])
			if err != nil {
				return fmt.Errorf("relocate: %w", err)
			}

			fmt.Printf("Updated %d records in %s\n", updated, args[0])
			return nil
		},
	}
}
