package session

import (
	"strings"

	"github.com/Zuo-Peng/ai-session-stats/internal/parse"
	"github.com/tidwall/gjson"
)

// NoRequestText is returned when no record carries a genuine user request.
const NoRequestText = "No user request found"

const agentsPreamble = "# AGENTS.md instructions for"

// FirstRequest returns the first user-typed input text that is not
// injected instruction text.
func FirstRequest(records []parse.Record) string {
	for _, r := range records {
		content := r.Get("payload.content")
		if !content.IsArray() {
			continue
		}

		var found string
		var ok bool
		content.ForEach(func(_, piece gjson.Result) bool {
			if piece.Get("type").Str != "input_text" {
				return true
			}
			text := piece.Get("text")
			if text.Type != gjson.String {
				return true
			}
			trimmed := strings.TrimSpace(text.Str)
			if isInstructionText(trimmed) || strings.HasPrefix(trimmed, agentsPreamble) {
				return true
			}
			found, ok = trimmed, true
			return false
		})
		if ok {
			return found
		}
	}
	return NoRequestText
}

// isInstructionText reports text wrapped in angle brackets, the shape of
// injected context blocks such as <environment_context>.
func isInstructionText(trimmed string) bool {
	return strings.HasPrefix(trimmed, "<") && strings.HasSuffix(trimmed, ">")
}
