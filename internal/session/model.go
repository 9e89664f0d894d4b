package session

// Transcript is one session file's full text plus its logical identifier,
// usually a path relative to the sessions root.
type Transcript struct {
	Path string
	Text string
}

type Message struct {
	Role      string `json:"role"` // "user" or "assistant"
	Text      string `json:"text"`
	Timestamp string `json:"timestamp,omitempty"`
}

// Summary is the per-transcript digest. Field names in JSON match the
// format existing consumers store and render.
type Summary struct {
	ID               string    `json:"id"`
	FileName         string    `json:"fileName"`
	ProjectName      string    `json:"projectName"`
	CreatedAt        string    `json:"createdAt"`
	LastMessageAt    string    `json:"lastMessageAt"`
	FirstRequest     string    `json:"firstRequest"`
	EntryCount       int       `json:"entryCount"`
	Messages         []Message `json:"messages"`
	UserCommandCount int       `json:"userCommandCount"`
	SessionID        string    `json:"sessionId"`
	Cwd              string    `json:"cwd"`
	RelativePath     string    `json:"relativePath"`
	FullPath         string    `json:"fullPath"`
	ActiveMs         int64     `json:"activeMs"`
	ActiveDuration   string    `json:"activeDuration"`
}
