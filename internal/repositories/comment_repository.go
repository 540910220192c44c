package repositories

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/anonto42/page-comments/backend/internal/apperrors"
	"github.com/anonto42/page-comments/backend/internal/models"
	"github.com/google/uuid"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ErrAlreadyAutoReplied is returned by RecordReply for a second automatic
// reply on the same comment
var ErrAlreadyAutoReplied = errors.New("comment already auto-replied")

// CommentRepository defines the comment store contract
type CommentRepository interface {
	// Ingest stores a comment fetched from the platform. Known ids are left
	// untouched apart from platform counters; created reports a new record.
	Ingest(ctx context.Context, incoming models.Comment, post models.Post) (comment *models.Comment, created bool, err error)
	GetByID(ctx context.Context, id string) (*models.Comment, error)
	SetStatus(ctx context.Context, id string, status models.CommentStatus) (*models.Comment, error)
	AddNote(ctx context.Context, id, text string) (*models.Comment, error)
	// RecordReply appends a confirmed reply and marks the comment replied.
	// An automatic reply also sets autoReplied in the same write and fails
	// with ErrAlreadyAutoReplied when the flag is already set.
	RecordReply(ctx context.Context, id string, reply models.Reply) (*models.Comment, error)
	List(ctx context.Context, filter models.CommentFilter, page, pageSize int) ([]models.Comment, models.Pagination, error)
	Stats(ctx context.Context) (*models.CommentStats, error)
}

// checkTransition enforces the status state machine: replied is terminal
func checkTransition(from, to models.CommentStatus) error {
	if !to.Valid() {
		return apperrors.Validation("invalid status %q: must be one of pending, replied, flagged", to)
	}
	if from == models.StatusReplied && to != models.StatusReplied {
		return apperrors.Validation("comment already replied; status cannot change to %s", to)
	}
	return nil
}

func newNote(text string, now time.Time) (models.Note, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return models.Note{}, apperrors.Validation("Note is required")
	}
	return models.Note{ID: uuid.NewString(), Text: trimmed, CreatedAt: now}, nil
}

func validateFilter(filter models.CommentFilter) error {
	if filter.Status != "" && !filter.Status.Valid() {
		return apperrors.Validation("invalid status filter %q", filter.Status)
	}
	return nil
}

// Paginate normalises page and pageSize and computes the slice bounds for total items
func Paginate(total, page, pageSize int) (start, end int, p models.Pagination) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	start = (page - 1) * pageSize
	if start > total {
		start = total
	}
	end = start + pageSize
	if end > total {
		end = total
	}

	p = models.Pagination{
		CurrentPage:   page,
		TotalPages:    int(math.Ceil(float64(total) / float64(pageSize))),
		TotalComments: total,
		HasNext:       page*pageSize < total,
		HasPrev:       page > 1,
	}
	return start, end, p
}

// responseRate is the replied share in percent, rounded to one decimal
func responseRate(replied, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(replied)/float64(total)*1000) / 10
}

type commentRecord struct {
	mu      sync.Mutex
	comment models.Comment
}

// MemoryCommentRepository keeps comments in process memory. Every record has
// its own lock so mutations of different comments never contend.
type MemoryCommentRepository struct {
	mu      sync.RWMutex
	records map[string]*commentRecord
	now     func() time.Time
}

// NewMemoryCommentRepository creates an empty in-memory comment store
func NewMemoryCommentRepository() *MemoryCommentRepository {
	return &MemoryCommentRepository{
		records: make(map[string]*commentRecord),
		now:     time.Now,
	}
}

func (r *MemoryCommentRepository) record(id string) (*commentRecord, error) {
	r.mu.RLock()
	rec, ok := r.records[id]
	r.mu.RUnlock()
	if !ok {
		return nil, apperrors.NotFound("comment", id)
	}
	return rec, nil
}

// mutate runs fn on the record under its lock and returns a copy of the result
func (r *MemoryCommentRepository) mutate(id string, fn func(c *models.Comment) error) (*models.Comment, error) {
	rec, err := r.record(id)
	if err != nil {
		return nil, err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	working := rec.comment.Clone()
	if err := fn(&working); err != nil {
		return nil, err
	}
	working.UpdatedAt = r.now().UTC()
	rec.comment = working

	out := working.Clone()
	return &out, nil
}

// Ingest stores a new comment or refreshes the platform counters of a known one
func (r *MemoryCommentRepository) Ingest(_ context.Context, incoming models.Comment, post models.Post) (*models.Comment, bool, error) {
	if strings.TrimSpace(incoming.ID) == "" {
		return nil, false, apperrors.Validation("comment id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if rec, ok := r.records[incoming.ID]; ok {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		rec.comment.LikeCount = incoming.LikeCount
		rec.comment.CommentCount = incoming.CommentCount
		out := rec.comment.Clone()
		return &out, false, nil
	}

	now := r.now().UTC()
	c := incoming.Clone()
	if c.CreatedTime.IsZero() {
		c.CreatedTime = now
	}
	c.PostID = post.ID
	c.PostMessage = post.Message
	c.Status = models.StatusPending
	c.Notes = []models.Note{}
	c.Replies = []models.Reply{}
	c.AutoReplied = false
	c.UpdatedAt = now

	r.records[c.ID] = &commentRecord{comment: c}
	out := c.Clone()
	return &out, true, nil
}

// GetByID returns a comment by id
func (r *MemoryCommentRepository) GetByID(_ context.Context, id string) (*models.Comment, error) {
	rec, err := r.record(id)
	if err != nil {
		return nil, err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	out := rec.comment.Clone()
	return &out, nil
}

// SetStatus moves a comment to a new status
func (r *MemoryCommentRepository) SetStatus(_ context.Context, id string, status models.CommentStatus) (*models.Comment, error) {
	if !status.Valid() {
		return nil, checkTransition("", status)
	}
	return r.mutate(id, func(c *models.Comment) error {
		if err := checkTransition(c.Status, status); err != nil {
			return err
		}
		c.Status = status
		return nil
	})
}

// AddNote appends an internal note
func (r *MemoryCommentRepository) AddNote(_ context.Context, id, text string) (*models.Comment, error) {
	note, err := newNote(text, r.now().UTC())
	if err != nil {
		return nil, err
	}
	return r.mutate(id, func(c *models.Comment) error {
		c.Notes = append(c.Notes, note)
		return nil
	})
}

// RecordReply appends a reply and marks the comment replied
func (r *MemoryCommentRepository) RecordReply(_ context.Context, id string, reply models.Reply) (*models.Comment, error) {
	if reply.CreatedAt.IsZero() {
		reply.CreatedAt = r.now().UTC()
	}
	return r.mutate(id, func(c *models.Comment) error {
		if reply.Auto && c.AutoReplied {
			return ErrAlreadyAutoReplied
		}
		c.Replies = append(c.Replies, reply)
		c.Status = models.StatusReplied
		if reply.Auto {
			c.AutoReplied = true
		}
		return nil
	})
}

func (r *MemoryCommentRepository) snapshot() []models.Comment {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Comment, 0, len(r.records))
	for _, rec := range r.records {
		rec.mu.Lock()
		out = append(out, rec.comment.Clone())
		rec.mu.Unlock()
	}
	return out
}

// List filters by status, sorts newest first and paginates
func (r *MemoryCommentRepository) List(_ context.Context, filter models.CommentFilter, page, pageSize int) ([]models.Comment, models.Pagination, error) {
	if err := validateFilter(filter); err != nil {
		return nil, models.Pagination{}, err
	}

	all := r.snapshot()
	filtered := all[:0]
	for _, c := range all {
		if filter.Status == "" || c.Status == filter.Status {
			filtered = append(filtered, c)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		if filtered[i].CreatedTime.Equal(filtered[j].CreatedTime) {
			return filtered[i].ID < filtered[j].ID
		}
		return filtered[i].CreatedTime.After(filtered[j].CreatedTime)
	})

	start, end, pagination := Paginate(len(filtered), page, pageSize)
	items := make([]models.Comment, end-start)
	copy(items, filtered[start:end])
	return items, pagination, nil
}

// Stats counts comments by status
func (r *MemoryCommentRepository) Stats(_ context.Context) (*models.CommentStats, error) {
	stats := &models.CommentStats{}
	for _, c := range r.snapshot() {
		stats.TotalComments++
		stats.TotalReplies += len(c.Replies)
		stats.TotalLikes += c.LikeCount
		switch c.Status {
		case models.StatusPending:
			stats.PendingComments++
		case models.StatusReplied:
			stats.RepliedComments++
		case models.StatusFlagged:
			stats.FlaggedComments++
		}
	}
	stats.ResponseRate = responseRate(stats.RepliedComments, stats.TotalComments)
	return stats, nil
}
