package handlers

import (
	"net/http"
	"strings"

	"github.com/anonto42/page-comments/backend/internal/apperrors"
	"github.com/anonto42/page-comments/backend/internal/autoreply"
	"github.com/anonto42/page-comments/backend/internal/graph"
	"github.com/anonto42/page-comments/backend/internal/models"
	"github.com/labstack/echo/v4"
)

// FacebookHandler exposes the Graph API operations the dashboard calls directly
type FacebookHandler struct {
	client     graph.Client
	dispatcher *autoreply.Dispatcher
	syncer     *autoreply.Syncer
}

func NewFacebookHandler(client graph.Client, dispatcher *autoreply.Dispatcher, syncer *autoreply.Syncer) *FacebookHandler {
	return &FacebookHandler{client: client, dispatcher: dispatcher, syncer: syncer}
}

// RegisterFacebookRoutes registers routes on the /api/facebook group
func (h *FacebookHandler) RegisterFacebookRoutes(g *echo.Group) {
	g.GET("/page/:pageId", h.GetPage)
	g.GET("/page/:pageId/posts", h.GetPosts)
	g.POST("/page/:pageId/sync", h.SyncPage)
	g.GET("/post/:postId/comments", h.GetComments)
	g.GET("/comment/:commentId/replies", h.GetReplies)
	g.POST("/comment/:commentId/reply", h.Reply)
	g.POST("/comment/:commentId/like", h.Like)
}

func (h *FacebookHandler) GetPage(c echo.Context) error {
	page, err := h.client.FetchPage(c.Request().Context(), c.Param("pageId"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, page)
}

func (h *FacebookHandler) GetPosts(c echo.Context) error {
	limit, err := queryInt(c, "limit", 25)
	if err != nil {
		return err
	}
	posts, err := h.client.FetchPosts(c.Request().Context(), c.Param("pageId"), limit)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"data": posts})
}

func (h *FacebookHandler) GetComments(c echo.Context) error {
	limit, err := queryInt(c, "limit", 50)
	if err != nil {
		return err
	}
	comments, err := h.client.FetchComments(c.Request().Context(), c.Param("postId"), limit)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"data": comments})
}

func (h *FacebookHandler) GetReplies(c echo.Context) error {
	limit, err := queryInt(c, "limit", 25)
	if err != nil {
		return err
	}
	replies, err := h.client.FetchReplies(c.Request().Context(), c.Param("commentId"), limit)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"data": replies})
}

// Reply records the reply when the comment is known locally; unknown ids
// are answered on the platform only.
func (h *FacebookHandler) Reply(c echo.Context) error {
	var req models.ReplyRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()
	commentID := c.Param("commentId")

	result, err := h.dispatcher.SendManualReply(ctx, commentID, req.Message)
	if err == nil {
		return h.replied(c, commentID, result.Reply.ID)
	}
	if !apperrors.IsNotFound(err) {
		return toHTTPError(err)
	}

	replyID, err := h.client.PostReply(ctx, commentID, strings.TrimSpace(req.Message))
	if err != nil {
		return toHTTPError(err)
	}
	return h.replied(c, commentID, replyID)
}

func (h *FacebookHandler) replied(c echo.Context, commentID, replyID string) error {
	message := "Reply posted successfully"
	if graph.IsSynthetic(commentID) || strings.HasPrefix(replyID, graph.StubReplyPrefix) {
		message = "Reply posted successfully (Demo Mode)"
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"replyId": replyID,
		"message": message,
	})
}

func (h *FacebookHandler) Like(c echo.Context) error {
	if err := h.dispatcher.Like(c.Request().Context(), c.Param("commentId")); err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Comment liked successfully",
	})
}

// SyncPage ingests the latest comments of a page and runs auto-reply
func (h *FacebookHandler) SyncPage(c echo.Context) error {
	summary, err := h.syncer.Sync(c.Request().Context(), c.Param("pageId"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, summary)
}
