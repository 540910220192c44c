package models

import "time"

// CommentStatus is the lifecycle state of an ingested comment
type CommentStatus string

const (
	StatusPending CommentStatus = "pending"
	StatusReplied CommentStatus = "replied"
	StatusFlagged CommentStatus = "flagged"
)

// Valid reports whether s is one of the known statuses
func (s CommentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusReplied, StatusFlagged:
		return true
	}
	return false
}

// Author identifies who wrote a comment on the platform
type Author struct {
	Name string `json:"name,omitempty" bson:"name,omitempty"`
	ID   string `json:"id,omitempty" bson:"id,omitempty"`
}

// Note is an internal operator note attached to a comment
type Note struct {
	ID        string    `json:"id" bson:"id"`
	Text      string    `json:"text" bson:"text"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// Reply is a reply issued through this service
type Reply struct {
	ID        string    `json:"id" bson:"id"`
	Message   string    `json:"message" bson:"message"`
	Auto      bool      `json:"auto,omitempty" bson:"auto,omitempty"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// Comment is a page comment together with its local state
type Comment struct {
	ID           string        `json:"id" bson:"_id"`
	Message      string        `json:"message" bson:"message"`
	From         *Author       `json:"from,omitempty" bson:"from,omitempty"`
	CreatedTime  time.Time     `json:"created_time" bson:"created_time"`
	PostID       string        `json:"postId" bson:"post_id"`
	PostMessage  string        `json:"postMessage,omitempty" bson:"post_message,omitempty"`
	Status       CommentStatus `json:"status" bson:"status"`
	Notes        []Note        `json:"notes" bson:"notes"`
	Replies      []Reply       `json:"replies" bson:"replies"`
	AutoReplied  bool          `json:"autoReplied" bson:"auto_replied"`
	CommentCount int           `json:"comment_count" bson:"comment_count"`
	LikeCount    int           `json:"like_count" bson:"like_count"`
	UpdatedAt    time.Time     `json:"updated_at" bson:"updated_at"`
}

// Clone returns a deep copy so callers never share slices with a store
func (c Comment) Clone() Comment {
	out := c
	if c.From != nil {
		from := *c.From
		out.From = &from
	}
	out.Notes = append([]Note{}, c.Notes...)
	out.Replies = append([]Reply{}, c.Replies...)
	return out
}

// CommentFilter narrows a comment listing
type CommentFilter struct {
	Status CommentStatus
}

// Pagination describes one page of a listing
type Pagination struct {
	CurrentPage   int  `json:"currentPage"`
	TotalPages    int  `json:"totalPages"`
	TotalComments int  `json:"totalComments"`
	HasNext       bool `json:"hasNext"`
	HasPrev       bool `json:"hasPrev"`
}

// CommentStats summarises the comment store
type CommentStats struct {
	TotalComments   int     `json:"totalComments"`
	PendingComments int     `json:"pendingComments"`
	RepliedComments int     `json:"repliedComments"`
	FlaggedComments int     `json:"flaggedComments"`
	TotalReplies    int     `json:"totalReplies"`
	TotalLikes      int     `json:"totalLikes"`
	ResponseRate    float64 `json:"responseRate"`
}

// UpdateStatusRequest defines the request body for changing a comment status
type UpdateStatusRequest struct {
	Status CommentStatus `json:"status" validate:"required"`
}

// AddNoteRequest defines the request body for adding an internal note
type AddNoteRequest struct {
	Note string `json:"note"`
}

// ReplyRequest defines the request body for a manual reply
type ReplyRequest struct {
	Message string `json:"message" validate:"max=8000"`
}

// ReplyResult is returned by the reply dispatcher
type ReplyResult struct {
	CommentID string   `json:"commentId"`
	Reply     Reply    `json:"reply"`
	Comment   *Comment `json:"comment,omitempty"`
}
