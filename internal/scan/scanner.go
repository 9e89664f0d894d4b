package scan

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/Zuo-Peng/ai-session-stats/internal/logger"
	"github.com/Zuo-Peng/ai-session-stats/internal/session"
	"golang.org/x/sync/errgroup"
)

type FileInfo struct {
	Path  string // absolute or root-joined path
	Rel   string // slash-separated path relative to the root
	Mtime int64
	Size  int64
}

// ScanRoot lists every *.jsonl file under root. A missing root is not an
// error; unreadable directories are skipped.
func ScanRoot(root string) ([]FileInfo, error) {
	if root == "" {
		return nil, nil
	}
	files, err := scanSessions(root)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return files, nil
}

func scanSessions(root string) ([]FileInfo, error) {
	var files []FileInfo
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil // skip unreadable dirs
		}
		if info.IsDir() || !info.Mode().IsRegular() {
			return nil
		}
		if !strings.HasSuffix(info.Name(), ".jsonl") {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		files = append(files, FileInfo{
			Path:  path,
			Rel:   filepath.ToSlash(rel),
			Mtime: info.ModTime().Unix(),
			Size:  info.Size(),
		})
		return nil
	})
	return files, err
}

// Load reads the given files concurrently. Files that fail to read are
// logged and left out; they never block or fail the others. The result
// keeps the order of files that loaded.
func Load(ctx context.Context, files []FileInfo, workers int) []session.Transcript {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	loaded := make([]*session.Transcript, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, fi := range files {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			data, err := os.ReadFile(fi.Path)
			if err != nil {
				logger.Logger.Warn().Err(err).Str("path", fi.Path).Msg("failed to load session")
				return nil
			}
			loaded[i] = &session.Transcript{Path: fi.Rel, Text: string(data)}
			return nil
		})
	}
	_ = g.Wait()

	out := make([]session.Transcript, 0, len(files))
	for _, t := range loaded {
		if t != nil {
			out = append(out, *t)
		}
	}
	return out
}

// LoadRoot scans root and loads every session file under it.
func LoadRoot(ctx context.Context, root string, workers int) ([]session.Transcript, error) {
	files, err := ScanRoot(root)
	if err != nil {
		return nil, err
	}
	return Load(ctx, files, workers), nil
}
