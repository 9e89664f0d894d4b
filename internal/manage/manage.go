// Package manage holds the operations that change session files on disk.
// Both refuse paths that resolve outside the sessions root.
package manage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotSession   = errors.New("not a session file")
	ErrOutsideRoot  = errors.New("path outside sessions root")
	ErrNotFound     = errors.New("session file not found")
)

// ResolveUnder resolves rel against root the way a shell would resolve a
// path argument (absolute rel wins) and checks the result stays inside root.
func ResolveUnder(root, rel string) (string, error) {
	base, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve root: %w", err)
	}

	var target string
	if filepath.IsAbs(rel) {
		target = filepath.Clean(rel)
	} else {
		target = filepath.Join(base, filepath.FromSlash(rel))
	}

	if target != base && !strings.HasPrefix(target, base+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, rel)
	}
	return target, nil
}

// ResolveSession is ResolveUnder restricted to .jsonl session files.
func ResolveSession(root, rel string) (string, error) {
	if !isSessionName(rel) {
		return "", fmt.Errorf("%w: %s", ErrNotSession, rel)
	}
	return ResolveUnder(root, rel)
}

func isSessionName(rel string) bool {
	return strings.HasSuffix(rel, ".jsonl")
}

// DeleteResult lists what was removed and what could not be. Failed holds
// the offending inputs verbatim, including ones that were not strings.
type DeleteResult struct {
	Removed []string `json:"removed"`
	Failed  []any    `json:"failed"`
}

// Delete removes session files under root. Entries that are not strings,
// do not name a .jsonl file, or escape root are reported as failed; files
// that are already gone are skipped silently.
func Delete(root string, paths []any) DeleteResult {
	res := DeleteResult{Removed: []string{}, Failed: []any{}}

	for _, p := range paths {
		rel, ok := p.(string)
		if !ok || !isSessionName(rel) {
			res.Failed = append(res.Failed, p)
			continue
		}

		target, err := ResolveUnder(root, rel)
		if err != nil {
			res.Failed = append(res.Failed, p)
			continue
		}

		if err := os.Remove(target); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			res.Failed = append(res.Failed, p)
			continue
		}
		res.Removed = append(res.Removed, rel)
	}
	return res
}
