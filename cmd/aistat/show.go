package main

import (
	"fmt"
	"os"

	"github.com/Zuo-Peng/ai-session-stats/internal/index"
	"github.com/Zuo-Peng/ai-session-stats/internal/manage"
	"github.com/Zuo-Peng/ai-session-stats/internal/render"
	"github.com/spf13/cobra"
)

func showCmd() *cobra.Command {
	var hitSeq int
	var context int
	var query string
	var raw bool

	cmd := &cobra.Command{
		Use:     "show <sessionKey>",
		Aliases: []string{"preview"},
		Short:   "Show a conversation with context around a hit",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			if raw {
				path, err := manage.ResolveSession(cfg.SessionsRoot, args[0])
				if err != nil {
					return err
				}
				data, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				_, err = os.Stdout.Write(data)
				return err
			}

			db, err := index.OpenDB(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			out, _, err := render.RenderCached(db, args[0], render.Options{
				HitSeq:  hitSeq,
				Context: context,
				Query:   query,
			})
			if err != nil {
				return err
			}

			fmt.Print(out)
			return nil
		},
	}

	cmd.Flags().IntVar(&hitSeq, "hit", -1, "Message index to highlight")
	cmd.Flags().IntVar(&context, "context", 10, "Messages before/after hit to show")
	cmd.Flags().StringVar(&query, "query", "", "Search query for keyword highlighting")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the session file as stored")

	return cmd
}
