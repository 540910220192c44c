package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/anonto42/page-comments/backend/internal/models"
	"github.com/anonto42/page-comments/backend/pkg/logging"
	"github.com/gorilla/websocket"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, string) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(logging.NewLogger("error"))
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestHub_BroadcastsToEveryClient(t *testing.T) {
	hub, url := startHub(t)
	first := dial(t, url)
	second := dial(t, url)

	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 5*time.Millisecond)

	err := hub.Publish(context.Background(), models.Event{
		Type:      models.EventReplySent,
		CommentID: "c1",
		Status:    models.StatusReplied,
		Auto:      true,
	})
	require.NoError(t, err)

	for _, conn := range []*websocket.Conn{first, second} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err)

		var got models.Event
		require.NoError(t, json.Unmarshal(raw, &got))
		assert.Equal(t, models.EventReplySent, got.Type)
		assert.Equal(t, "c1", got.CommentID)
		assert.Equal(t, models.StatusReplied, got.Status)
		assert.True(t, got.Auto)
		assert.False(t, got.Timestamp.IsZero())
	}
}

func TestHub_UnregistersClosedClients(t *testing.T) {
	hub, url := startHub(t)
	conn := dial(t, url)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestHub_PublishWithoutClients(t *testing.T) {
	hub := NewHub(logging.NewLogger("error"))
	// nothing drains the queue, so it eventually fills up
	var err error
	for i := 0; i < 300 && err == nil; i++ {
		err = hub.Publish(context.Background(), models.Event{Type: models.EventCommentReceived})
	}
	assert.ErrorIs(t, err, ErrBroadcastFull)
}

type recordingPublisher struct {
	events []models.Event
	err    error
}

func (r *recordingPublisher) Publish(_ context.Context, e models.Event) error {
	r.events = append(r.events, e)
	return r.err
}

func TestFanout(t *testing.T) {
	ok := &recordingPublisher{}
	failing := &recordingPublisher{err: errors.New("broker down")}
	fan := Fanout{ok, nil, failing, Discard{}}

	err := fan.Publish(context.Background(), models.Event{Type: models.EventCommentReceived, CommentID: "c9"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
	assert.Len(t, ok.events, 1)
	assert.Len(t, failing.events, 1, "a failing publisher does not stop the others")

	assert.NoError(t, Fanout{ok}.Publish(context.Background(), models.Event{}))
}

func TestNewPublishing(t *testing.T) {
	msg, err := newPublishing(models.Event{Type: models.EventCommentReceived, CommentID: "c1", Status: models.StatusPending})
	require.NoError(t, err)

	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, models.EventCommentReceived, msg.Type)
	assert.False(t, msg.Timestamp.IsZero())

	var got models.Event
	require.NoError(t, json.Unmarshal(msg.Body, &got))
	assert.Equal(t, "c1", got.CommentID)
}
