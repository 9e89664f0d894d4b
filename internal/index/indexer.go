package index

import (
	"context"
	"fmt"

	"github.com/Zuo-Peng/ai-session-stats/internal/logger"
	"github.com/Zuo-Peng/ai-session-stats/internal/scan"
	"github.com/Zuo-Peng/ai-session-stats/internal/session"
)

type Stats struct {
	Scanned int
	Updated int
	Skipped int
	Pruned  int
	Errors  int
}

func (s Stats) String() string {
	return fmt.Sprintf("scanned=%d updated=%d skipped=%d pruned=%d errors=%d",
		s.Scanned, s.Updated, s.Skipped, s.Pruned, s.Errors)
}

// IndexAll brings the cache in line with the session files under root.
// Session keys are paths relative to root.
func IndexAll(ctx context.Context, db *DB, root string, workers int) (Stats, error) {
	var stats Stats
	log := logger.With("index")

	files, err := scan.ScanRoot(root)
	if err != nil {
		return stats, fmt.Errorf("scan: %w", err)
	}
	stats.Scanned = len(files)

	// track which files we see, for pruning
	seenKeys := make(map[string]struct{}, len(files))
	stamps := make(map[string]scan.FileInfo, len(files))

	var changed []scan.FileInfo
	for _, fi := range files {
		seenKeys[fi.Rel] = struct{}{}

		needs, err := needsUpdate(db, fi)
		if err != nil {
			stats.Errors++
			log.Warn().Err(err).Str("path", fi.Path).Msg("read file stamp")
			continue
		}
		if !needs {
			stats.Skipped++
			continue
		}
		changed = append(changed, fi)
		stamps[fi.Rel] = fi
	}

	transcripts := scan.Load(ctx, changed, workers)
	if err := ctx.Err(); err != nil {
		return stats, err
	}
	stats.Errors += len(changed) - len(transcripts)

	for _, s := range session.SummarizeAll(transcripts) {
		fi := stamps[s.ID]
		if err := db.PutSummary(s, fi.Path, FileInfo{Mtime: fi.Mtime, Size: fi.Size}); err != nil {
			stats.Errors++
			log.Warn().Err(err).Str("path", fi.Path).Msg("index session")
			continue
		}
		stats.Updated++
	}

	// prune sessions whose files no longer exist
	pruned, err := pruneSessions(db, seenKeys)
	if err != nil {
		return stats, fmt.Errorf("prune: %w", err)
	}
	stats.Pruned = pruned

	log.Debug().Stringer("stats", stats).Msg("index complete")
	return stats, nil
}

func needsUpdate(db *DB, fi scan.FileInfo) (bool, error) {
	info, err := db.GetFileInfo(fi.Rel)
	if err != nil {
		return false, err
	}
	if info == nil {
		return true, nil // new session
	}
	return info.Mtime != fi.Mtime || info.Size != fi.Size, nil
}

func pruneSessions(db *DB, seenKeys map[string]struct{}) (int, error) {
	allKeys, err := db.AllSessionKeys()
	if err != nil {
		return 0, err
	}

	pruned := 0
	for key := range allKeys {
		if _, ok := seenKeys[key]; !ok {
			if err := db.DeleteSession(key); err != nil {
				return pruned, err
			}
			pruned++
		}
	}
	return pruned, nil
}
