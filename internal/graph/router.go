package graph

import (
	"context"

	"github.com/anonto42/page-comments/backend/internal/apperrors"
	"github.com/anonto42/page-comments/backend/internal/models"
	"github.com/anonto42/page-comments/backend/pkg/logging"
)

// Router sends synthetic ids to the stub and everything else to the live
// client. With demo fallback enabled, a degradable live failure (rejected
// token or an id the token cannot see) is answered by the stub instead.
type Router struct {
	live         Client
	stub         *StubClient
	demoFallback bool
	logger       logging.Logger
}

// NewRouter builds a Router. A nil live client routes every call to the stub.
func NewRouter(live Client, stub *StubClient, demoFallback bool, logger logging.Logger) *Router {
	if stub == nil {
		stub = NewStubClient()
	}
	if logger == nil {
		logger = logging.NewLogger("info")
	}
	return &Router{live: live, stub: stub, demoFallback: demoFallback, logger: logger}
}

// Live reports whether a live client is configured
func (r *Router) Live() bool {
	return r.live != nil
}

func (r *Router) pick(id string) Client {
	if r.live == nil || IsSynthetic(id) {
		return r.stub
	}
	return r.live
}

// degrade reports whether a failed live call may be answered by the stub
func (r *Router) degrade(op, id string, err error) bool {
	if !r.demoFallback {
		return false
	}
	ext, ok := apperrors.AsExternal(err)
	if !ok || !ext.Degradable() {
		return false
	}
	r.logger.WithFields(logging.Fields{
		"operation": op,
		"target_id": id,
		"code":      ext.Code,
	}).Warn("graph call degraded to demo mode")
	return true
}

func (r *Router) FetchPage(ctx context.Context, pageID string) (*models.Page, error) {
	page, err := r.pick(pageID).FetchPage(ctx, pageID)
	if err != nil && r.degrade("fetch page", pageID, err) {
		return r.stub.FetchPage(ctx, pageID)
	}
	return page, err
}

func (r *Router) FetchPosts(ctx context.Context, pageID string, limit int) ([]models.Post, error) {
	posts, err := r.pick(pageID).FetchPosts(ctx, pageID, limit)
	if err != nil && r.degrade("fetch posts", pageID, err) {
		return r.stub.FetchPosts(ctx, pageID, limit)
	}
	return posts, err
}

func (r *Router) FetchComments(ctx context.Context, postID string, limit int) ([]models.GraphComment, error) {
	comments, err := r.pick(postID).FetchComments(ctx, postID, limit)
	if err != nil && r.degrade("fetch comments", postID, err) {
		return r.stub.FetchComments(ctx, postID, limit)
	}
	return comments, err
}

func (r *Router) FetchReplies(ctx context.Context, commentID string, limit int) ([]models.GraphComment, error) {
	replies, err := r.pick(commentID).FetchReplies(ctx, commentID, limit)
	if err != nil && r.degrade("fetch replies", commentID, err) {
		return r.stub.FetchReplies(ctx, commentID, limit)
	}
	return replies, err
}

func (r *Router) PostReply(ctx context.Context, commentID, message string) (string, error) {
	id, err := r.pick(commentID).PostReply(ctx, commentID, message)
	if err != nil && r.degrade("post reply", commentID, err) {
		return r.stub.PostReply(ctx, commentID, message)
	}
	return id, err
}

func (r *Router) PostLike(ctx context.Context, commentID string) error {
	err := r.pick(commentID).PostLike(ctx, commentID)
	if err != nil && r.degrade("like comment", commentID, err) {
		return r.stub.PostLike(ctx, commentID)
	}
	return err
}
