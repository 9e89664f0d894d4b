package open

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/Zuo-Peng/ai-session-stats/internal/index"
)

// OpenSession opens the session file in $EDITOR, positioned at the message
// hitSeq when it can be located.
func OpenSession(db *index.DB, sessionKey string, hitSeq int) error {
	row, err := db.GetSummary(sessionKey)
	if err != nil {
		return fmt.Errorf("get session: %w", err)
	}
	if row == nil {
		return fmt.Errorf("session not found: %s", sessionKey)
	}

	filePath := row.FilePath
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("file not found: %s", filePath)
	}

	lineNum := 1
	if hitSeq >= 0 && hitSeq < len(row.Messages) {
		lineNum = locateLine(data, row.Messages[hitSeq].Text)
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "less"
	}

	return openInEditor(editor, filePath, lineNum)
}

// locateLine returns the 1-based line of the first occurrence of text's
// opening words as they appear JSON-encoded in the file, or 1.
func locateLine(data []byte, text string) int {
	needle := encodedPrefix(text)
	if len(needle) == 0 {
		return 1
	}

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for n := 1; sc.Scan(); n++ {
		if bytes.Contains(sc.Bytes(), needle) {
			return n
		}
	}
	return 1
}

func encodedPrefix(text string) []byte {
	first, _, _ := strings.Cut(text, "\n")
	runes := []rune(strings.TrimSpace(first))
	if len(runes) > 40 {
		runes = runes[:40]
	}
	if len(runes) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(string(runes)); err != nil {
		return nil
	}
	// drop the quotes and trailing newline
	out := bytes.TrimSpace(buf.Bytes())
	return out[1 : len(out)-1]
}

func openInEditor(editor, filePath string, lineNum int) error {
	var cmd *exec.Cmd

	switch {
	case strings.Contains(editor, "vim") || strings.Contains(editor, "nvim"):
		cmd = exec.Command(editor, fmt.Sprintf("+%d", lineNum), filePath)
	case strings.Contains(editor, "code"):
		cmd = exec.Command(editor, "--goto", filePath+":"+strconv.Itoa(lineNum))
	case strings.Contains(editor, "less"):
		cmd = exec.Command(editor, "+"+strconv.Itoa(lineNum), filePath)
	default:
		cmd = exec.Command(editor, filePath)
	}

	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
