package graph

import (
	"context"
	"strings"
	"time"

	"github.com/anonto42/page-comments/backend/internal/models"
	"github.com/google/uuid"
)

// SyntheticPrefix marks comment ids that only exist locally
const SyntheticPrefix = "comment_"

// StubReplyPrefix starts every reply id issued by the stub
const StubReplyPrefix = "reply_"

// IsSynthetic reports whether id belongs to the local demo data set
func IsSynthetic(id string) bool {
	return strings.HasPrefix(id, SyntheticPrefix)
}

// StubClient answers Graph calls with demo data and never touches the network
type StubClient struct {
	now func() time.Time
}

func NewStubClient() *StubClient {
	return &StubClient{now: time.Now}
}

func (s *StubClient) FetchPage(_ context.Context, pageID string) (*models.Page, error) {
	return &models.Page{ID: pageID, Name: "صفحة تجريبية", FanCount: 1250, VerificationStatus: "not_verified"}, nil
}

func (s *StubClient) FetchPosts(_ context.Context, _ string, limit int) ([]models.Post, error) {
	now := s.now().UTC()
	posts := []models.Post{
		{ID: "post_1", Message: "مرحباً بكم في صفحتنا التجريبية! 🎉", CreatedTime: models.GraphTime{Time: now.Add(-24 * time.Hour)}, Type: "status"},
		{ID: "post_2", Message: "نحن سعداء بلقائكم هنا 👋", CreatedTime: models.GraphTime{Time: now.Add(-48 * time.Hour)}, Type: "status"},
		{ID: "post_3", Message: "شكراً لكم على دعمكم المستمر ❤️", CreatedTime: models.GraphTime{Time: now.Add(-72 * time.Hour)}, Type: "status"},
	}
	limit = clampLimit(limit, 25)
	if limit < len(posts) {
		posts = posts[:limit]
	}
	return posts, nil
}

// FetchComments returns nothing: demo comments are seeded into the store directly
func (s *StubClient) FetchComments(_ context.Context, _ string, _ int) ([]models.GraphComment, error) {
	return []models.GraphComment{}, nil
}

func (s *StubClient) FetchReplies(_ context.Context, _ string, limit int) ([]models.GraphComment, error) {
	now := s.now().UTC()
	page := &models.Author{Name: "صفحة تجريبية", ID: "page_123"}
	replies := []models.GraphComment{
		{ID: "reply_1", Message: "شكراً لك على التعليق الجميل! 😊", CreatedTime: models.GraphTime{Time: now.Add(-30 * time.Minute)}, From: page, LikeCount: 2},
		{ID: "reply_2", Message: "نحن سعداء أن المحتوى أعجبك 🌟", CreatedTime: models.GraphTime{Time: now.Add(-time.Hour)}, From: page, LikeCount: 1},
	}
	limit = clampLimit(limit, 25)
	if limit < len(replies) {
		replies = replies[:limit]
	}
	return replies, nil
}

func (s *StubClient) PostReply(_ context.Context, _ string, _ string) (string, error) {
	return StubReplyPrefix + uuid.NewString(), nil
}

func (s *StubClient) PostLike(_ context.Context, _ string) error {
	return nil
}
