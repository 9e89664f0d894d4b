package main

import (
	"fmt"
	"os"

	"github.com/Zuo-Peng/ai-session-stats/internal/index"
	"github.com/Zuo-Peng/ai-session-stats/internal/parse"
	"github.com/Zuo-Peng/ai-session-stats/internal/scan"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Self-check: verify root, session files, DB and FTS5, and show stats",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			// check root
			fmt.Println("=== Root ===")
			checkDir("Sessions", cfg.SessionsRoot)

			// scan files and check their block structure
			fmt.Println("\n=== File Scan ===")
			files, err := scan.ScanRoot(cfg.SessionsRoot)
			if err != nil {
				fmt.Printf("  scan error: %v\n", err)
			} else {
				var total int64
				for _, f := range files {
					total += f.Size
				}
				fmt.Printf("  Session files: %d (%s)\n", len(files), humanize.Bytes(uint64(total)))

				malformed := 0
				for _, t := range scan.Load(cmd.Context(), files, cfg.Workers) {
					if _, err := parse.RecordsStrict(t.Text); err != nil {
						malformed++
						fmt.Printf("  MALFORMED %s: %v\n", t.Path, err)
					}
				}
				if malformed == 0 {
					fmt.Println("  Structure: OK")
				}
			}

			// check DB
			fmt.Println("\n=== Database ===")
			fmt.Printf("  Path: %s\n", cfg.DBPath)
			if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
				fmt.Println("  Status: NOT FOUND (run 'aistat index' first)")
				return nil
			}

			db, err := index.OpenDB(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer db.Close()

			sessionCount, err := db.SessionCount()
			if err != nil {
				return fmt.Errorf("count sessions: %w", err)
			}

			messageCount, err := db.MessageCount()
			if err != nil {
				return fmt.Errorf("count messages: %w", err)
			}

			fmt.Printf("  Sessions: %d\n", sessionCount)
			fmt.Printf("  Messages: %d\n", messageCount)

			// check FTS5
			fmt.Println("\n=== FTS5 ===")
			var ftsCount int
			err = db.Raw().QueryRow("SELECT COUNT(*) FROM messages_fts").Scan(&ftsCount)
			if err != nil {
				fmt.Printf("  FTS5 error: %v\n", err)
			} else {
				fmt.Printf("  FTS5 entries: %d\n", ftsCount)
				if ftsCount == messageCount {
					fmt.Println("  Status: OK (synced)")
				} else {
					fmt.Printf("  Status: MISMATCH (messages=%d, fts=%d)\n", messageCount, ftsCount)
				}
			}

			// check DB file size
			if info, err := os.Stat(cfg.DBPath); err == nil {
				fmt.Printf("\n=== DB Size: %s ===\n", humanize.Bytes(uint64(info.Size())))
			}

			return nil
		},
	}
}

func checkDir(name, path string) {
	if info, err := os.Stat(path); err != nil {
		fmt.Printf("  %s: %s (NOT FOUND)\n", name, path)
	} else if !info.IsDir() {
		fmt.Printf("  %s: %s (NOT A DIRECTORY)\n", name, path)
	} else {
		fmt.Printf("  %s: %s (OK)\n", name, path)
	}
}
