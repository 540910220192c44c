package models

import "time"

// Real-time event names
const (
	EventCommentReceived = "commentReceived"
	EventReplySent       = "replySent"
)

// Event is fanned out to real-time observers after the comment store changes
type Event struct {
	Type      string        `json:"type"`
	CommentID string        `json:"commentId"`
	PostID    string        `json:"postId,omitempty"`
	Status    CommentStatus `json:"status"`
	Auto      bool          `json:"auto,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// SyncSummary reports one ingestion cycle
type SyncSummary struct {
	PageID      string `json:"pageId"`
	Posts       int    `json:"posts"`
	Fetched     int    `json:"fetched"`
	Ingested    int    `json:"ingested"`
	AutoReplied int    `json:"autoReplied"`
	Failures    int    `json:"failures"`
}
