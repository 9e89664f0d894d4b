package manage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/Zuo-Peng/ai-session-stats/internal/parse"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// workdirFields are the payload fields that carry the session's working
// directory.
var workdirFields = []string{"cwd", "workdir"}

// Relocate points a session at a new working directory: every record whose
// payload has a string cwd or workdir gets it replaced, and the file is
// rewritten. The file is parsed strictly first; if any block is malformed
// nothing is written. Returns the number of records changed.
func Relocate(root, rel, newWorkdir string) (int, error) {
	newWorkdir = strings.TrimSpace(newWorkdir)
	if !isSessionName(rel) || newWorkdir == "" {
		return 0, ErrInvalidInput
	}

	target, err := ResolveUnder(root, rel)
	if err != nil {
		return 0, err
	}

	info, err := os.Stat(target)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("%w: %s", ErrNotFound, rel)
		}
		return 0, err
	}

	data, err := os.ReadFile(target)
	if err != nil {
		return 0, err
	}

	records, err := parse.RecordsStrict(string(data))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", rel, err)
	}

	updated := 0
	rewritten := make([][]byte, len(records))
	for i, r := range records {
		raw, changed, err := RelocateRecord(r.Raw(), newWorkdir)
		if err != nil {
			return 0, fmt.Errorf("rewrite record %d: %w", i, err)
		}
		if changed {
			updated++
		}
		rewritten[i] = raw
	}

	out, err := Serialize(rewritten)
	if err != nil {
		return 0, err
	}
	if err := os.WriteFile(target, out, info.Mode().Perm()); err != nil {
		return 0, fmt.Errorf("write %s: %w", rel, err)
	}
	return updated, nil
}

// RelocateRecord replaces the string workdir fields of one record's
// payload. Other bytes, including key order, are left as they were.
func RelocateRecord(raw []byte, newWorkdir string) ([]byte, bool, error) {
	payload := gjson.GetBytes(raw, "payload")
	if !payload.IsObject() {
		return raw, false, nil
	}

	out := append([]byte(nil), raw...)
	changed := false
	for _, field := range workdirFields {
		if payload.Get(field).Type != gjson.String {
			continue
		}
		var err error
		out, err = sjson.SetBytes(out, "payload."+field, newWorkdir)
		if err != nil {
			return nil, false, err
		}
		changed = true
	}
	return out, changed, nil
}

// Serialize writes records back in the session file format: each record
// indented by two spaces, records separated by a blank line, trailing
// newline.
func Serialize(records [][]byte) ([]byte, error) {
	var buf bytes.Buffer
	for i, raw := range records {
		if i > 0 {
			buf.WriteString("\n\n")
		}
		if err := json.Indent(&buf, raw, "", "  "); err != nil {
			return nil, fmt.Errorf("indent record %d: %w", i, err)
		}
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
