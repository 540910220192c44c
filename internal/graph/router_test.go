package graph

import (
	"context"
	"strings"
	"testing"

	"github.com/anonto42/page-comments/backend/internal/apperrors"
	"github.com/anonto42/page-comments/backend/internal/models"
	"github.com/anonto42/page-comments/backend/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	err     error
	replies []string
	likes   []string
}

func (f *fakeClient) FetchPage(context.Context, string) (*models.Page, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Page{ID: "live"}, nil
}

func (f *fakeClient) FetchPosts(context.Context, string, int) ([]models.Post, error) {
	return nil, f.err
}

func (f *fakeClient) FetchComments(context.Context, string, int) ([]models.GraphComment, error) {
	return nil, f.err
}

func (f *fakeClient) FetchReplies(context.Context, string, int) ([]models.GraphComment, error) {
	return nil, f.err
}

func (f *fakeClient) PostReply(_ context.Context, id, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.replies = append(f.replies, id)
	return "live_reply", nil
}

func (f *fakeClient) PostLike(_ context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	f.likes = append(f.likes, id)
	return nil
}

func TestIsSynthetic(t *testing.T) {
	assert.True(t, IsSynthetic("comment_1"))
	assert.False(t, IsSynthetic("123_456"))
	assert.False(t, IsSynthetic("xcomment_1"))
}

func TestRouter_SyntheticIDsNeverReachLiveClient(t *testing.T) {
	live := &fakeClient{}
	r := NewRouter(live, NewStubClient(), false, logging.NewLogger("error"))

	id, err := r.PostReply(context.Background(), "comment_3", "hi")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "reply_"))
	require.NoError(t, r.PostLike(context.Background(), "comment_3"))
	assert.Empty(t, live.replies)
	assert.Empty(t, live.likes)

	id, err = r.PostReply(context.Background(), "123_456", "hi")
	require.NoError(t, err)
	assert.Equal(t, "live_reply", id)
	assert.Equal(t, []string{"123_456"}, live.replies)
}

func TestRouter_NilLiveUsesStub(t *testing.T) {
	r := NewRouter(nil, nil, false, nil)
	assert.False(t, r.Live())

	posts, err := r.FetchPosts(context.Background(), "page", 2)
	require.NoError(t, err)
	assert.Len(t, posts, 2)
}

func TestRouter_DemoFallbackOnDegradableErrors(t *testing.T) {
	tokenErr := &apperrors.ExternalAPIError{Operation: "post reply", Code: apperrors.CodeAccessToken}
	live := &fakeClient{err: tokenErr}

	strict := NewRouter(live, NewStubClient(), false, logging.NewLogger("error"))
	_, err := strict.PostReply(context.Background(), "123_456", "hi")
	assert.True(t, apperrors.IsCredential(err))

	lenient := NewRouter(live, NewStubClient(), true, logging.NewLogger("error"))
	id, err := lenient.PostReply(context.Background(), "123_456", "hi")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "reply_"))

	page, err := lenient.FetchPage(context.Background(), "123")
	require.NoError(t, err)
	assert.Equal(t, "123", page.ID)
}

func TestRouter_NoFallbackForServerErrors(t *testing.T) {
	live := &fakeClient{err: &apperrors.ExternalAPIError{Operation: "like comment", StatusCode: 500}}
	r := NewRouter(live, NewStubClient(), true, logging.NewLogger("error"))

	assert.Error(t, r.PostLike(context.Background(), "123_456"))
}

func TestStubReplies(t *testing.T) {
	replies, err := NewStubClient().FetchReplies(context.Background(), "comment_1", 1)
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Equal(t, "reply_1", replies[0].ID)
}
