// Package realtime fans comment events out to live observers.
package realtime

import (
	"context"
	"errors"

	"github.com/anonto42/page-comments/backend/internal/models"
)

// Publisher delivers an event to observers. Delivery is best effort: a
// failed publish never undoes the store change that produced the event.
type Publisher interface {
	Publish(ctx context.Context, event models.Event) error
}

// Fanout publishes every event to each of its publishers
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, event models.Event) error {
	var errs []error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops every event
type Discard struct{}

func (Discard) Publish(context.Context, models.Event) error { return nil }
