package main

import (
	"fmt"
	"os"
	"time"

	"github.com/Zuo-Peng/ai-session-stats/internal/parse"
	"github.com/Zuo-Peng/ai-session-stats/internal/search"
	"github.com/Zuo-Peng/ai-session-stats/internal/tui"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func listCmd() *cobra.Command {
	var project, since string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Browse all sessions, newest first",
		Long:  `Opens a TUI panel showing all indexed sessions sorted by start time (newest first). Type to search conversation content. When stdout is not a terminal, prints one session per line.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			db, err := openIndex(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			opts := search.Options{
				Project: project,
				Since:   since,
				Limit:   limit,
			}

			if term.IsTerminal(int(os.Stdout.Fd())) {
				return tui.RunList(db, opts)
			}

			results, err := search.ListAll(db, opts)
			if err != nil {
				return err
			}
			for _, r := range results {
				fmt.Printf("%s\t%s\t%s\t%s\t%s\n",
					r.SessionKey,
					relativeTime(r.LastMessageAt),
					r.ActiveDuration,
					r.ProjectName,
					oneLine(r.FirstRequest),
				)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "Filter by project name substring")
	cmd.Flags().StringVar(&since, "since", "", "Filter sessions active since date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Max results (0 = no limit)")

	return cmd
}

// relativeTime renders a record timestamp as "3 hours ago", or "-".
func relativeTime(ts string) string {
	t, ok := parse.ParseTimestamp(ts)
	if !ok {
		return "-"
	}
	if t.After(time.Now()) {
		return "just now"
	}
	return humanize.Time(t)
}
