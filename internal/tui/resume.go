package tui

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/Zuo-Peng/ai-session-stats/internal/search"
	"github.com/atotto/clipboard"
)

// ResumeCommand builds "cd <cwd> && codex resume <id>". Sessions without a
// recorded id fall back to the UUID in the file name, e.g.
// rollout-2026-01-26T17-30-22-019bf9a3-d433-7fc1-8214-b82613804964.jsonl
func ResumeCommand(cwd, sessionID, key string) string {
	id := sessionID
	if id == "" || id == "unknown-id" {
		id = fileUUID(key)
	}
	resume := "codex resume " + id
	if cwd == "" {
		return resume
	}
	return fmt.Sprintf("cd %s && %s", cwd, resume)
}

var uuidRe = regexp.MustCompile(`[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)

func fileUUID(key string) string {
	name := strings.TrimSuffix(path.Base(key), ".jsonl")
	if m := uuidRe.FindString(name); m != "" {
		return m
	}
	return name
}

// copyResume puts the resume command on the clipboard, printing it either
// way so it survives a headless terminal.
func copyResume(r search.Result) {
	cmd := ResumeCommand(r.Cwd, r.SessionID, r.SessionKey)
	if err := clipboard.WriteAll(cmd); err != nil {
		fmt.Println(cmd)
		return
	}
	fmt.Printf("Copied to clipboard: %s\n", cmd)
}
