package autoreply

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/anonto42/page-comments/backend/internal/graph"
	"github.com/anonto42/page-comments/backend/internal/metrics"
	"github.com/anonto42/page-comments/backend/internal/models"
	"github.com/anonto42/page-comments/backend/internal/realtime"
	"github.com/anonto42/page-comments/backend/internal/repositories"
	"github.com/anonto42/page-comments/backend/pkg/logging"
	"golang.org/x/sync/errgroup"
)

// Sync limits, matching what the dashboard requested per refresh
const (
	DefaultPostLimit    = 10
	DefaultCommentLimit = 20
	DefaultConcurrency  = 4
)

// Ingestion sources reported in metrics
const (
	SourceSync    = "sync"
	SourceWebhook = "webhook"
)

// Syncer pulls comments from a page into the comment store and runs
// auto-reply on everything that has not been answered yet.
type Syncer struct {
	client     graph.Client
	comments   repositories.CommentRepository
	dispatcher *Dispatcher
	publisher  realtime.Publisher
	metrics    *metrics.Metrics
	logger     logging.Logger

	PostLimit    int
	CommentLimit int
	Concurrency  int
}

func NewSyncer(client graph.Client, comments repositories.CommentRepository, dispatcher *Dispatcher, publisher realtime.Publisher, logger logging.Logger) *Syncer {
	if publisher == nil {
		publisher = realtime.Discard{}
	}
	return &Syncer{
		client:       client,
		comments:     comments,
		dispatcher:   dispatcher,
		publisher:    publisher,
		logger:       logger,
		PostLimit:    DefaultPostLimit,
		CommentLimit: DefaultCommentLimit,
		Concurrency:  DefaultConcurrency,
	}
}

// WithMetrics records ingestion and sync cycles in m
func (s *Syncer) WithMetrics(m *metrics.Metrics) *Syncer {
	s.metrics = m
	return s
}

// IngestResult describes one ingested comment
type IngestResult struct {
	Comment     *models.Comment
	Created     bool
	AutoReplied bool
}

// IngestOne stores a comment, announces it when new and tries an automatic
// reply. Auto-reply failures are logged; they never fail the ingestion.
func (s *Syncer) IngestOne(ctx context.Context, source string, incoming models.Comment, post models.Post) (*IngestResult, error) {
	stored, created, err := s.comments.Ingest(ctx, incoming, post)
	if err != nil {
		return nil, fmt.Errorf("ingest comment %s: %w", incoming.ID, err)
	}
	s.metrics.ObserveIngest(source, created)

	result := &IngestResult{Comment: stored, Created: created}
	if created {
		event := models.Event{
			Type:      models.EventCommentReceived,
			CommentID: stored.ID,
			PostID:    stored.PostID,
			Status:    stored.Status,
			Timestamp: time.Now().UTC(),
		}
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.WithField("comment_id", stored.ID).WithError(err).Warn("Failed to publish event")
		}
	}

	if !Eligible(*stored) {
		return result, nil
	}
	reply, err := s.dispatcher.Process(ctx, stored.ID)
	if err != nil {
		s.logger.WithFields(logging.Fields{
			"comment_id": stored.ID,
			"source":     source,
		}).WithError(err).Warn("Auto-reply failed; will retry on next ingestion")
		return result, nil
	}
	if reply != nil {
		result.AutoReplied = true
		result.Comment = reply.Comment
	}
	return result, nil
}

// Sync ingests the latest comments of pageID, skipping those the page wrote
// itself. Only a failure to list the
// page's posts fails the call; per-post and per-comment failures are counted
// in the summary.
func (s *Syncer) Sync(ctx context.Context, pageID string) (summary *models.SyncSummary, err error) {
	start := time.Now()
	summary = &models.SyncSummary{PageID: pageID}
	defer func() {
		s.metrics.ObserveSync(time.Since(start), err, summary.Failures > 0)
	}()

	posts, err := s.client.FetchPosts(ctx, pageID, s.PostLimit)
	if err != nil {
		return summary, fmt.Errorf("fetch posts of %s: %w", pageID, err)
	}
	summary.Posts = len(posts)

	var mu sync.Mutex
	record := func(fn func(*models.SyncSummary)) {
		mu.Lock()
		fn(summary)
		mu.Unlock()
	}

	var g errgroup.Group
	g.SetLimit(s.concurrency())
	for _, post := range posts {
		post := post
		g.Go(func() error {
			comments, err := s.client.FetchComments(ctx, post.ID, s.CommentLimit)
			if err != nil {
				s.logger.WithField("post_id", post.ID).WithError(err).Warn("Failed to fetch comments")
				record(func(sum *models.SyncSummary) { sum.Failures++ })
				return nil
			}
			record(func(sum *models.SyncSummary) { sum.Fetched += len(comments) })

			for _, gc := range comments {
				if gc.From != nil && gc.From.ID == pageID {
					continue
				}
				res, err := s.IngestOne(ctx, SourceSync, gc.ToComment(), post)
				if err != nil {
					s.logger.WithField("comment_id", gc.ID).WithError(err).Warn("Failed to ingest comment")
					record(func(sum *models.SyncSummary) { sum.Failures++ })
					continue
				}
				record(func(sum *models.SyncSummary) {
					if res.Created {
						sum.Ingested++
					}
					if res.AutoReplied {
						sum.AutoReplied++
					}
				})
			}
			return nil
		})
	}
	_ = g.Wait()

	s.logger.WithFields(logging.Fields{
		"page_id":      pageID,
		"posts":        summary.Posts,
		"fetched":      summary.Fetched,
		"ingested":     summary.Ingested,
		"auto_replied": summary.AutoReplied,
		"failures":     summary.Failures,
	}).Info("Page sync completed")
	return summary, nil
}

func (s *Syncer) concurrency() int {
	if s.Concurrency < 1 {
		return 1
	}
	return s.Concurrency
}
