package model

type SourceType string

const (
	SourceTypeURL  SourceType = "url"
	SourceTypeText SourceType = "text"
)

type SourceStatus string

const (
	SourceStatusPending    SourceStatus = "pending"
	SourceStatusProcessing SourceStatus = "processing"
	SourceStatusCompleted  SourceStatus = "completed"
	SourceStatusFailed     SourceStatus = "failed"
)

// Terminal reports whether no further transition may leave the status.
func (s SourceStatus) Terminal() bool {
	return s == SourceStatusCompleted || s == SourceStatusFailed
}

type Source struct {
	ID           string       `json:"id"`
	EventID      string       `json:"event_id"`
	Title        string       `json:"title"`
	Type         SourceType   `json:"type"`
	Content      string       `json:"content"`
	Status       SourceStatus `json:"status"`
	ErrorMessage *string      `json:"error_message,omitempty"`
	Ctime        int64        `json:"ctime"`
	Mtime        int64        `json:"mtime"`
}
