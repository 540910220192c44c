package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/anonto42/page-comments/backend/internal/autoreply"
	"github.com/anonto42/page-comments/backend/internal/models"
	"github.com/anonto42/page-comments/backend/pkg/logging"
	"github.com/labstack/echo/v4"
)

const signatureHeader = "X-Hub-Signature-256"

// WebhookHandler receives page feed notifications
type WebhookHandler struct {
	verifyToken string
	appSecret   string
	syncer      *autoreply.Syncer
	logger      logging.Logger
}

// NewWebhookHandler creates a WebhookHandler. Signatures are only checked
// when appSecret is set.
func NewWebhookHandler(verifyToken, appSecret string, syncer *autoreply.Syncer, logger logging.Logger) *WebhookHandler {
	return &WebhookHandler{verifyToken: verifyToken, appSecret: appSecret, syncer: syncer, logger: logger}
}

// RegisterWebhookRoutes registers routes on the /api/webhook group
func (h *WebhookHandler) RegisterWebhookRoutes(g *echo.Group) {
	g.GET("", h.Verify)
	g.POST("", h.Receive)
}

// Verify answers the subscription handshake
func (h *WebhookHandler) Verify(c echo.Context) error {
	mode := c.QueryParam("hub.mode")
	token := c.QueryParam("hub.verify_token")
	if mode != "subscribe" || h.verifyToken == "" || !hmac.Equal([]byte(token), []byte(h.verifyToken)) {
		return echo.NewHTTPError(http.StatusForbidden, "Webhook verification failed")
	}
	return c.String(http.StatusOK, c.QueryParam("hub.challenge"))
}

// VerifySignature checks an X-Hub-Signature-256 value against payload
func VerifySignature(payload []byte, signature, secret string) bool {
	if !strings.HasPrefix(signature, "sha256=") {
		return false
	}
	received := strings.TrimPrefix(signature, "sha256=")

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(received), []byte(expected))
}

// Receive ingests new top-level comments from a feed notification. Replies
// and comments written by the page itself are ignored.
func (h *WebhookHandler) Receive(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if h.appSecret != "" && !VerifySignature(body, c.Request().Header.Get(signatureHeader), h.appSecret) {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid webhook signature")
	}

	var payload models.WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	ctx := c.Request().Context()
	received, autoReplied := 0, 0
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			if !change.IsNewComment() {
				continue
			}
			v := change.Value
			// only top-level comments from other accounts; the page's replies come back here too
			if v.AuthoredBy(entry.ID) || v.IsReply() {
				h.logger.WithFields(logging.Fields{
					"comment_id": v.CommentID,
					"parent_id":  v.ParentID,
				}).Debug("Skipping page-authored or nested comment")
				continue
			}
			incoming := models.Comment{
				ID:      v.CommentID,
				Message: v.Message,
				From:    v.From,
			}
			if v.CreatedTime > 0 {
				incoming.CreatedTime = time.Unix(v.CreatedTime, 0).UTC()
			}

			res, err := h.syncer.IngestOne(ctx, autoreply.SourceWebhook, incoming, models.Post{ID: v.PostID})
			if err != nil {
				h.logger.WithField("comment_id", v.CommentID).WithError(err).Warn("Failed to ingest webhook comment")
				continue
			}
			received++
			if res.AutoReplied {
				autoReplied++
			}
		}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":     true,
		"received":    received,
		"autoReplied": autoReplied,
	})
}
