package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Zuo-Peng/ai-session-stats/internal/scan"
	"github.com/Zuo-Peng/ai-session-stats/internal/session"
	"github.com/spf13/cobra"
)

func summaryCmd() *cobra.Command {
	var root string
	var tsv, messages bool

	cmd := &cobra.Command{
		Use:   "summary [file...]",
		Short: "Summarize session transcripts straight from disk",
		Long: `Reads every session file under the sessions root (or the files given as
arguments) and prints their summaries newest first. The cache is not used.

Output is JSON by default. With --tsv each session is one line:
  id, createdAt, activeDuration, userCommandCount, project, firstRequest`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if root == "" {
				root = cfg.SessionsRoot
			}

			var transcripts []session.Transcript
			if len(args) > 0 {
				files := make([]scan.FileInfo, 0, len(args))
				for _, a := range args {
					files = append(files, scan.FileInfo{Path: a, Rel: a})
				}
				transcripts = scan.Load(cmd.Context(), files, cfg.Workers)
			} else {
				transcripts, err = scan.LoadRoot(cmd.Context(), root, cfg.Workers)
				if err != nil {
					return fmt.Errorf("load sessions: %w", err)
				}
			}

			summaries := session.SummarizeAll(transcripts)
			if !messages {
				for i := range summaries {
					summaries[i].Messages = []session.Message{}
				}
			}

			if tsv {
				for _, s := range summaries {
					fmt.Printf("%s\t%s\t%s\t%d\t%s\t%s\n",
						s.ID,
						session.FormatDate(s.CreatedAt),
						s.ActiveDuration,
						s.UserCommandCount,
						s.ProjectName,
						oneLine(s.FirstRequest),
					)
				}
				return nil
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(summaries)
		},
	}

	cmd.Flags().StringVar(&root, "root", "", "Sessions root (default from config)")
	cmd.Flags().BoolVar(&tsv, "tsv", false, "Tab separated output, one session per line")
	cmd.Flags().BoolVar(&messages, "messages", false, "Include extracted messages in JSON output")

	return cmd
}
