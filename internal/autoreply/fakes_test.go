package autoreply

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/anonto42/page-comments/backend/internal/models"
)

// fakeGraph is an in-process graph.Client
type fakeGraph struct {
	mu         sync.Mutex
	posts      []models.Post
	comments   map[string][]models.GraphComment
	postErrs   map[string]error
	replyErr   error
	replyDelay time.Duration
	onReply    func(commentID string)
	replies    []string
	likes      []string
}

func newFakeGraph() *fakeGraph {
	return &fakeGraph{comments: map[string][]models.GraphComment{}, postErrs: map[string]error{}}
}

func (f *fakeGraph) FetchPage(_ context.Context, pageID string) (*models.Page, error) {
	return &models.Page{ID: pageID}, nil
}

func (f *fakeGraph) FetchPosts(_ context.Context, _ string, _ int) ([]models.Post, error) {
	return f.posts, nil
}

func (f *fakeGraph) FetchComments(_ context.Context, postID string, _ int) ([]models.GraphComment, error) {
	if err := f.postErrs[postID]; err != nil {
		return nil, err
	}
	return f.comments[postID], nil
}

func (f *fakeGraph) FetchReplies(context.Context, string, int) ([]models.GraphComment, error) {
	return nil, nil
}

func (f *fakeGraph) PostReply(ctx context.Context, commentID, message string) (string, error) {
	if f.replyDelay > 0 {
		select {
		case <-time.After(f.replyDelay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.replyErr != nil {
		return "", f.replyErr
	}
	f.replies = append(f.replies, commentID+":"+message)
	if f.onReply != nil {
		f.onReply(commentID)
	}
	return fmt.Sprintf("reply_%d", len(f.replies)), nil
}

func (f *fakeGraph) PostLike(_ context.Context, commentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.likes = append(f.likes, commentID)
	return nil
}

func (f *fakeGraph) setReplyErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replyErr = err
}

func (f *fakeGraph) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.replies...)
}

// recorder captures published events
type recorder struct {
	mu     sync.Mutex
	events []models.Event
}

func (r *recorder) Publish(_ context.Context, e models.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) ofType(kind string) []models.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Event
	for _, e := range r.events {
		if e.Type == kind {
			out = append(out, e)
		}
	}
	return out
}
