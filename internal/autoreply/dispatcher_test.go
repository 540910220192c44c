package autoreply

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/anonto42/page-comments/backend/internal/apperrors"
	"github.com/anonto42/page-comments/backend/internal/models"
	"github.com/anonto42/page-comments/backend/internal/repositories"
	"github.com/anonto42/page-comments/backend/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	comments   *repositories.MemoryCommentRepository
	templates  *repositories.MemoryTemplateRepository
	graph      *fakeGraph
	events     *recorder
	dispatcher *Dispatcher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		comments:  repositories.NewMemoryCommentRepository(),
		templates: repositories.NewMemoryTemplateRepository(),
		graph:     newFakeGraph(),
		events:    &recorder{},
	}
	f.dispatcher = NewDispatcher(f.comments, f.templates, f.graph, f.events, logging.NewLogger("error"))
	return f
}

func (f *fixture) ingest(t *testing.T, id, message string) *models.Comment {
	t.Helper()
	c, _, err := f.comments.Ingest(context.Background(), models.Comment{ID: id, Message: message, CreatedTime: time.Now()}, models.Post{ID: "p1"})
	require.NoError(t, err)
	return c
}

func (f *fixture) template(t *testing.T, name, content string, active bool, triggers ...string) *models.Template {
	t.Helper()
	tp, err := f.templates.Create(context.Background(), models.CreateTemplateRequest{
		Name:     name,
		Content:  content,
		Triggers: triggers,
		IsActive: &active,
	})
	require.NoError(t, err)
	return tp
}

func TestSendManualReply(t *testing.T) {
	f := newFixture(t)
	f.ingest(t, "c1", "hello")
	ctx := context.Background()

	res, err := f.dispatcher.SendManualReply(ctx, "c1", "  thanks for writing  ")
	require.NoError(t, err)

	assert.Equal(t, "c1", res.CommentID)
	assert.Equal(t, "thanks for writing", res.Reply.Message)
	assert.False(t, res.Reply.Auto)
	assert.Equal(t, models.StatusReplied, res.Comment.Status)
	assert.False(t, res.Comment.AutoReplied)
	assert.Equal(t, []string{"c1:thanks for writing"}, f.graph.sent())

	events := f.events.ofType(models.EventReplySent)
	require.Len(t, events, 1)
	assert.Equal(t, "c1", events[0].CommentID)
	assert.Equal(t, models.StatusReplied, events[0].Status)
}

func TestSendManualReply_Errors(t *testing.T) {
	f := newFixture(t)
	f.ingest(t, "c1", "hello")
	ctx := context.Background()

	_, err := f.dispatcher.SendManualReply(ctx, "c1", "   ")
	assert.True(t, apperrors.IsValidation(err))

	_, err = f.dispatcher.SendManualReply(ctx, "missing", "hi")
	assert.True(t, apperrors.IsNotFound(err))

	f.graph.setReplyErr(&apperrors.ExternalAPIError{Operation: "post reply", StatusCode: 500})
	_, err = f.dispatcher.SendManualReply(ctx, "c1", "hi")
	_, ok := apperrors.AsExternal(err)
	assert.True(t, ok)

	c, err := f.comments.GetByID(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, c.Status, "a failed send changes nothing")
	assert.Empty(t, c.Replies)
	assert.Empty(t, f.events.ofType(models.EventReplySent))
}

func TestProcess_SendsTemplateContentVerbatim(t *testing.T) {
	f := newFixture(t)
	f.template(t, "Thanks", "شكراً لك على التعليق الجميل! 😊", true, "شكراً", "ممتاز")
	f.ingest(t, "c1", "شكراً لكم على هذا العمل الرائع")

	res, err := f.dispatcher.Process(context.Background(), "c1")
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.True(t, res.Reply.Auto)
	assert.True(t, res.Comment.AutoReplied)
	assert.Equal(t, models.StatusReplied, res.Comment.Status)
	assert.Equal(t, []string{"c1:شكراً لك على التعليق الجميل! 😊"}, f.graph.sent())

	again, err := f.dispatcher.Process(context.Background(), "c1")
	require.NoError(t, err)
	assert.Nil(t, again, "an auto-replied comment is never answered twice")
	assert.Len(t, f.graph.sent(), 1)
}

func TestProcess_NoMatchOrInactive(t *testing.T) {
	f := newFixture(t)
	f.template(t, "Hello", "hi!", false, "hello")
	f.ingest(t, "c1", "hello world")

	res, err := f.dispatcher.Process(context.Background(), "c1")
	require.NoError(t, err)
	assert.Nil(t, res)
	assert.Empty(t, f.graph.sent())

	c, err := f.comments.GetByID(context.Background(), "c1")
	require.NoError(t, err)
	assert.False(t, c.AutoReplied)
	assert.Equal(t, models.StatusPending, c.Status)
}

func TestProcess_SkipsTemplateDeactivatedByUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tpl := f.template(t, "Thanks", "you're welcome", true, "thanks")

	f.ingest(t, "c1", "thanks!")
	res, err := f.dispatcher.Process(ctx, "c1")
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Len(t, f.graph.sent(), 1)

	inactive := false
	updated, err := f.templates.Update(ctx, tpl.ID, models.TemplatePatch{IsActive: &inactive})
	require.NoError(t, err)
	require.False(t, updated.IsActive)

	f.ingest(t, "c2", "thanks again")
	res, err = f.dispatcher.Process(ctx, "c2")
	require.NoError(t, err)
	assert.Nil(t, res, "a deactivated template no longer matches")
	assert.Len(t, f.graph.sent(), 1)

	c2, err := f.comments.GetByID(ctx, "c2")
	require.NoError(t, err)
	assert.False(t, c2.AutoReplied)
	assert.Equal(t, models.StatusPending, c2.Status)
}

func TestProcess_StoreRefusesSecondAutoReply(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.template(t, "Thanks", "you're welcome", true, "thanks")
	f.ingest(t, "c1", "thanks!")

	// another instance records its auto reply while ours is in flight
	f.graph.onReply = func(commentID string) {
		_, err := f.comments.RecordReply(ctx, commentID, models.Reply{ID: "other", Message: "you're welcome", Auto: true})
		require.NoError(t, err)
	}

	res, err := f.dispatcher.Process(ctx, "c1")
	assert.ErrorIs(t, err, repositories.ErrAlreadyAutoReplied)
	assert.Nil(t, res)

	c, err := f.comments.GetByID(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, c.Replies, 1)
	assert.Equal(t, "other", c.Replies[0].ID)
	assert.Empty(t, f.events.ofType(models.EventReplySent))
}

func TestProcess_AtMostOnceUnderConcurrency(t *testing.T) {
	f := newFixture(t)
	f.graph.replyDelay = 5 * time.Millisecond
	f.template(t, "Thanks", "thank you", true, "thanks")
	f.ingest(t, "c1", "thanks a lot")

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.dispatcher.Process(context.Background(), "c1")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Len(t, f.graph.sent(), 1)
	c, err := f.comments.GetByID(context.Background(), "c1")
	require.NoError(t, err)
	assert.Len(t, c.Replies, 1)
	assert.True(t, c.AutoReplied)
}

func TestProcess_FailureLeavesCommentRetryable(t *testing.T) {
	f := newFixture(t)
	f.template(t, "Thanks", "thank you", true, "thanks")
	f.ingest(t, "c1", "thanks!")
	ctx := context.Background()

	f.graph.setReplyErr(&apperrors.ExternalAPIError{Operation: "post reply", Code: apperrors.CodeAccessToken})
	_, err := f.dispatcher.Process(ctx, "c1")
	assert.True(t, apperrors.IsCredential(err))

	c, err := f.comments.GetByID(ctx, "c1")
	require.NoError(t, err)
	assert.False(t, c.AutoReplied)
	assert.Equal(t, models.StatusPending, c.Status)

	f.graph.setReplyErr(nil)
	res, err := f.dispatcher.Process(ctx, "c1")
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.True(t, res.Comment.AutoReplied)
}

func TestSendAutoReply(t *testing.T) {
	f := newFixture(t)
	tp := f.template(t, "Welcome", "welcome!", true, "hi")
	c := f.ingest(t, "c1", "hi")
	ctx := context.Background()

	res, err := f.dispatcher.SendAutoReply(ctx, *c, *tp)
	require.NoError(t, err)
	assert.Equal(t, "welcome!", res.Reply.Message)

	_, err = f.dispatcher.SendAutoReply(ctx, *c, *tp)
	assert.ErrorIs(t, err, ErrNotEligible)

	// manually replied comments are not auto-replied either
	f.ingest(t, "c2", "hi")
	_, err = f.dispatcher.SendManualReply(ctx, "c2", "hello")
	require.NoError(t, err)
	_, err = f.dispatcher.SendAutoReply(ctx, models.Comment{ID: "c2"}, *tp)
	assert.ErrorIs(t, err, ErrNotEligible)
}

func TestProcess_FlaggedCommentsStillAutoReplied(t *testing.T) {
	f := newFixture(t)
	f.template(t, "Thanks", "thank you", true, "thanks")
	f.ingest(t, "c1", "thanks")
	_, err := f.comments.SetStatus(context.Background(), "c1", models.StatusFlagged)
	require.NoError(t, err)

	res, err := f.dispatcher.Process(context.Background(), "c1")
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, models.StatusReplied, res.Comment.Status)
}

func TestLike(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.dispatcher.Like(context.Background(), "c1"))
	assert.Equal(t, []string{"c1"}, f.graph.likes)

	assert.True(t, apperrors.IsValidation(f.dispatcher.Like(context.Background(), " ")))
}
