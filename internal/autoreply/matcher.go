// Package autoreply matches incoming comments against reply templates and
// dispatches replies through the Graph client.
package autoreply

import (
	"strings"

	"github.com/anonto42/page-comments/backend/internal/models"
)

// Match returns the first active template with a trigger contained in the
// comment message, ignoring case. Templates are tried in list order.
func Match(comment models.Comment, templates []models.Template) *models.Template {
	message := strings.ToLower(comment.Message)
	if message == "" {
		return nil
	}
	for i := range templates {
		t := &templates[i]
		if !t.IsActive {
			continue
		}
		for _, trigger := range t.Triggers {
			trigger = strings.ToLower(strings.TrimSpace(trigger))
			if trigger != "" && strings.Contains(message, trigger) {
				return t
			}
		}
	}
	return nil
}

// Eligible reports whether a comment may still receive an automatic reply
func Eligible(c models.Comment) bool {
	return !c.AutoReplied && c.Status != models.StatusReplied
}
