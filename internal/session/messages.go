package session

import (
	"strings"

	"github.com/Zuo-Peng/ai-session-stats/internal/parse"
	"github.com/tidwall/gjson"
)

const noText = "[no text]"

// ExtractMessages keeps records whose payload is a user or assistant
// message, in record order.
func ExtractMessages(records []parse.Record) []Message {
	var messages []Message
	for _, r := range records {
		if r.Str("payload.type") != "message" {
			continue
		}

		role := r.Str("payload.role")
		if role != "user" && role != "assistant" {
			continue
		}

		text := joinPieces(r.Get("payload.content"))
		if text == "" {
			text = noText
		}

		messages = append(messages, Message{
			Role:      role,
			Text:      text,
			Timestamp: r.Timestamp(),
		})
	}
	return messages
}

// joinPieces concatenates the trimmed, non-empty text of every content
// piece, separated by a blank line.
func joinPieces(content gjson.Result) string {
	if !content.IsArray() {
		return ""
	}
	var parts []string
	content.ForEach(func(_, piece gjson.Result) bool {
		text := piece.Get("text")
		if text.Type == gjson.String {
			if s := strings.TrimSpace(text.Str); s != "" {
				parts = append(parts, s)
			}
		}
		return true
	})
	return strings.Join(parts, "\n\n")
}

// CountRole counts messages with the given role.
func CountRole(messages []Message, role string) int {
	n := 0
	for _, m := range messages {
		if m.Role == role {
			n++
		}
	}
	return n
}
