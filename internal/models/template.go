package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Triggers is a list of trigger keywords. JSON input may be a single string
// or a list of strings.
type Triggers []string

// UnmarshalJSON accepts "word" as well as ["word", ...]
func (t *Triggers) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single == "" {
			*t = Triggers{}
			return nil
		}
		*t = Triggers{single}
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("triggers must be a string or a list of strings")
	}
	if many == nil {
		many = []string{}
	}
	*t = Triggers(many)
	return nil
}

// Normalize trims every trigger and drops blank ones
func (t Triggers) Normalize() Triggers {
	out := make(Triggers, 0, len(t))
	for _, trigger := range t {
		if trimmed := strings.TrimSpace(trigger); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Template is a keyword-triggered reply template
type Template struct {
	ID        string    `json:"id" gorm:"primaryKey;size:64"`
	Name      string    `json:"name" gorm:"size:255;not null"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	Triggers  Triggers  `json:"triggers" gorm:"type:jsonb;serializer:json"`
	IsActive  bool      `json:"isActive" gorm:"not null"`
	Seq       int64     `json:"-" gorm:"autoIncrement;uniqueIndex;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a copy that does not share the trigger slice
func (t Template) Clone() Template {
	out := t
	out.Triggers = append(Triggers{}, t.Triggers...)
	return out
}

// CreateTemplateRequest defines the request body for creating a template
type CreateTemplateRequest struct {
	Name     string   `json:"name" validate:"required,max=255"`
	Content  string   `json:"content" validate:"required"`
	Triggers Triggers `json:"triggers" validate:"required,min=1"`
	IsActive *bool    `json:"isActive"`
}

// TemplatePatch carries the fields of a partial template update. Nil means
// the field was not provided.
type TemplatePatch struct {
	Name     *string   `json:"name" validate:"omitempty,max=255"`
	Content  *string   `json:"content"`
	Triggers *Triggers `json:"triggers"`
	IsActive *bool     `json:"isActive"`
}
