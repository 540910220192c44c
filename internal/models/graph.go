package models

import (
	"encoding/json"
	"strings"
	"time"
)

// graphTimeLayout is the timestamp format the Graph API uses ("+0000" offsets)
const graphTimeLayout = "2006-01-02T15:04:05-0700"

// GraphTime decodes Graph API timestamps
type GraphTime struct {
	time.Time
}

// UnmarshalJSON accepts the Graph layout as well as RFC 3339
func (t *GraphTime) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := time.Parse(graphTimeLayout, raw)
	if err != nil {
		parsed, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return err
		}
	}
	t.Time = parsed.UTC()
	return nil
}

// MarshalJSON writes the Graph layout
func (t GraphTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(t.UTC().Format(graphTimeLayout))
}

// Page is a managed social page
type Page struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	FanCount           int             `json:"fan_count,omitempty"`
	VerificationStatus string          `json:"verification_status,omitempty"`
	Picture            json.RawMessage `json:"picture,omitempty"`
}

// Post is a page post
type Post struct {
	ID           string    `json:"id"`
	Message      string    `json:"message,omitempty"`
	CreatedTime  GraphTime `json:"created_time"`
	Type         string    `json:"type,omitempty"`
	PermalinkURL string    `json:"permalink_url,omitempty"`
}

// GraphComment is a comment as returned by the Graph API
type GraphComment struct {
	ID           string    `json:"id"`
	Message      string    `json:"message"`
	CreatedTime  GraphTime `json:"created_time"`
	From         *Author   `json:"from,omitempty"`
	CommentCount int       `json:"comment_count"`
	LikeCount    int       `json:"like_count"`
}

// ToComment converts a platform comment into a store comment
func (g GraphComment) ToComment() Comment {
	return Comment{
		ID:           g.ID,
		Message:      g.Message,
		From:         g.From,
		CreatedTime:  g.CreatedTime.Time,
		CommentCount: g.CommentCount,
		LikeCount:    g.LikeCount,
	}
}

// ManagedPage is an entry of /me/accounts
type ManagedPage struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Category    string   `json:"category,omitempty"`
	AccessToken string   `json:"access_token,omitempty"`
	Tasks       []string `json:"tasks,omitempty"`
}

// TokenExchange is the result of an OAuth code exchange
type TokenExchange struct {
	AccessToken string        `json:"access_token"`
	TokenType   string        `json:"token_type"`
	ExpiresIn   int           `json:"expires_in,omitempty"`
	Pages       []ManagedPage `json:"pages"`
}

// ExchangeRequest defines the request body for the OAuth code exchange
type ExchangeRequest struct {
	Code        string `json:"code"`
	RedirectURI string `json:"redirect_uri,omitempty"`
}
