package autoreply

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anonto42/page-comments/backend/internal/apperrors"
	"github.com/anonto42/page-comments/backend/internal/graph"
	"github.com/anonto42/page-comments/backend/internal/metrics"
	"github.com/anonto42/page-comments/backend/internal/models"
	"github.com/anonto42/page-comments/backend/internal/realtime"
	"github.com/anonto42/page-comments/backend/internal/repositories"
	"github.com/anonto42/page-comments/backend/pkg/logging"
)

// ErrNotEligible is returned by SendAutoReply for a comment that was already answered
var ErrNotEligible = errors.New("comment already replied")

// Dispatcher sends replies and records them. All work on one comment id is
// serialized, so two concurrent ingestions of a comment send at most one
// automatic reply.
type Dispatcher struct {
	comments  repositories.CommentRepository
	templates repositories.TemplateRepository
	client    graph.Client
	publisher realtime.Publisher
	locks     *KeyedLocker
	metrics   *metrics.Metrics
	logger    logging.Logger
	now       func() time.Time
}

// NewDispatcher wires a dispatcher; a nil publisher discards events
func NewDispatcher(
	comments repositories.CommentRepository,
	templates repositories.TemplateRepository,
	client graph.Client,
	publisher realtime.Publisher,
	logger logging.Logger,
) *Dispatcher {
	if publisher == nil {
		publisher = realtime.Discard{}
	}
	return &Dispatcher{
		comments:  comments,
		templates: templates,
		client:    client,
		publisher: publisher,
		locks:     NewKeyedLocker(),
		logger:    logger,
		now:       time.Now,
	}
}

// WithMetrics records reply outcomes in m
func (d *Dispatcher) WithMetrics(m *metrics.Metrics) *Dispatcher {
	d.metrics = m
	return d
}

// SendManualReply posts an operator reply to a stored comment
func (d *Dispatcher) SendManualReply(ctx context.Context, commentID, message string) (*models.ReplyResult, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, apperrors.Validation("Message is required")
	}

	unlock, err := d.locks.Lock(ctx, commentID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if _, err := d.comments.GetByID(ctx, commentID); err != nil {
		return nil, err
	}
	return d.send(ctx, commentID, message, false)
}

// SendAutoReply posts tmpl's content verbatim to comment. A comment that was
// answered in the meantime yields ErrNotEligible.
func (d *Dispatcher) SendAutoReply(ctx context.Context, comment models.Comment, tmpl models.Template) (*models.ReplyResult, error) {
	unlock, err := d.locks.Lock(ctx, comment.ID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	current, err := d.comments.GetByID(ctx, comment.ID)
	if err != nil {
		return nil, err
	}
	if !Eligible(*current) {
		return nil, ErrNotEligible
	}
	return d.sendAuto(ctx, current, tmpl)
}

// Process runs match and dispatch for one stored comment. It returns a nil
// result when the comment is not eligible or no template matches.
func (d *Dispatcher) Process(ctx context.Context, commentID string) (*models.ReplyResult, error) {
	unlock, err := d.locks.Lock(ctx, commentID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	comment, err := d.comments.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if !Eligible(*comment) {
		return nil, nil
	}

	templates, err := d.templates.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	tmpl := Match(*comment, templates)
	if tmpl == nil {
		return nil, nil
	}
	return d.sendAuto(ctx, comment, *tmpl)
}

func (d *Dispatcher) sendAuto(ctx context.Context, comment *models.Comment, tmpl models.Template) (*models.ReplyResult, error) {
	d.logger.WithFields(logging.Fields{
		"comment_id":  comment.ID,
		"template_id": tmpl.ID,
	}).Info("Auto-reply template matched")
	return d.send(ctx, comment.ID, tmpl.Content, true)
}

// send must be called with the comment lock held. The reply is recorded only
// after the platform confirmed it.
func (d *Dispatcher) send(ctx context.Context, commentID, message string, auto bool) (*models.ReplyResult, error) {
	externalID, err := d.client.PostReply(ctx, commentID, message)
	d.metrics.ObserveReply(auto, err)
	if err != nil {
		d.logger.WithFields(logging.Fields{
			"comment_id": commentID,
			"auto":       auto,
		}).WithError(err).Warn("Failed to send reply")
		return nil, err
	}

	// the reply exists on the platform now; record it even if the caller gave up
	ctx = context.WithoutCancel(ctx)
	reply := models.Reply{ID: externalID, Message: message, Auto: auto, CreatedAt: d.now().UTC()}
	updated, err := d.comments.RecordReply(ctx, commentID, reply)
	if errors.Is(err, repositories.ErrAlreadyAutoReplied) {
		d.logger.WithFields(logging.Fields{
			"comment_id": commentID,
			"reply_id":   externalID,
		}).Error("Comment was auto-replied concurrently by another instance")
	}
	if err != nil {
		return nil, fmt.Errorf("record reply %s: %w", externalID, err)
	}

	d.emit(ctx, models.Event{
		Type:      models.EventReplySent,
		CommentID: commentID,
		PostID:    updated.PostID,
		Status:    updated.Status,
		Auto:      auto,
		Timestamp: reply.CreatedAt,
	})
	return &models.ReplyResult{CommentID: commentID, Reply: reply, Comment: updated}, nil
}

// Like likes a comment as the page
func (d *Dispatcher) Like(ctx context.Context, commentID string) error {
	if strings.TrimSpace(commentID) == "" {
		return apperrors.Validation("comment id is required")
	}
	return d.client.PostLike(ctx, commentID)
}

func (d *Dispatcher) emit(ctx context.Context, event models.Event) {
	if err := d.publisher.Publish(ctx, event); err != nil {
		d.logger.WithField("event", event.Type).WithError(err).Warn("Failed to publish event")
	}
}
