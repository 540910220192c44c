package models

// WebhookPayload is the body of a page subscription notification
type WebhookPayload struct {
	Object string         `json:"object"`
	Entry  []WebhookEntry `json:"entry"`
}

// WebhookEntry groups the changes for one page
type WebhookEntry struct {
	ID      string          `json:"id"`
	Time    int64           `json:"time"`
	Changes []WebhookChange `json:"changes"`
}

// WebhookChange is one changed field
type WebhookChange struct {
	Field string       `json:"field"`
	Value WebhookValue `json:"value"`
}

// WebhookValue carries a feed change
type WebhookValue struct {
	Item        string  `json:"item"`
	Verb        string  `json:"verb"`
	CommentID   string  `json:"comment_id"`
	PostID      string  `json:"post_id"`
	ParentID    string  `json:"parent_id"`
	Message     string  `json:"message"`
	CreatedTime int64   `json:"created_time"`
	From        *Author `json:"from,omitempty"`
}

// IsNewComment reports whether the change announces a new comment
func (c WebhookChange) IsNewComment() bool {
	return c.Field == "feed" && c.Value.Item == "comment" && c.Value.Verb == "add" && c.Value.CommentID != ""
}

// IsReply reports whether the comment answers another comment rather than
// the post. Top-level comments carry the post id as their parent.
func (v WebhookValue) IsReply() bool {
	return v.ParentID != "" && v.ParentID != v.PostID
}

// AuthoredBy reports whether the comment was written by the given account
func (v WebhookValue) AuthoredBy(id string) bool {
	return id != "" && v.From != nil && v.From.ID == id
}
