package handlers

import (
	"net/http"

	"github.com/anonto42/page-comments/backend/internal/autoreply"
	"github.com/anonto42/page-comments/backend/internal/models"
	"github.com/anonto42/page-comments/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// CommentHandler handles HTTP requests related to stored comments
type CommentHandler struct {
	commentRepository repositories.CommentRepository
	dispatcher        *autoreply.Dispatcher
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(commentRepo repositories.CommentRepository, dispatcher *autoreply.Dispatcher) *CommentHandler {
	return &CommentHandler{
		commentRepository: commentRepo,
		dispatcher:        dispatcher,
	}
}

// RegisterCommentRoutes registers comment routes on the /api/comments group
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.GET("", h.ListComments)
	g.GET("/stats/overview", h.GetStats)
	g.GET("/:id", h.GetComment)
	g.PATCH("/:id/status", h.UpdateStatus)
	g.POST("/:id/note", h.AddNote)
	g.POST("/:id/reply", h.Reply)
	g.POST("/:id/like", h.Like)
}

// ListComments returns one page of comments, newest first
func (h *CommentHandler) ListComments(c echo.Context) error {
	page, err := queryInt(c, "page", 1)
	if err != nil {
		return err
	}
	limit, err := queryInt(c, "limit", repositories.DefaultPageSize)
	if err != nil {
		return err
	}
	filter := models.CommentFilter{Status: models.CommentStatus(c.QueryParam("status"))}

	comments, pagination, err := h.commentRepository.List(c.Request().Context(), filter, page, limit)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"comments":   comments,
		"pagination": pagination,
	})
}

// GetComment returns a single comment
func (h *CommentHandler) GetComment(c echo.Context) error {
	comment, err := h.commentRepository.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, comment)
}

// UpdateStatus moves a comment to pending, replied or flagged
func (h *CommentHandler) UpdateStatus(c echo.Context) error {
	var req models.UpdateStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	comment, err := h.commentRepository.SetStatus(c.Request().Context(), c.Param("id"), req.Status)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"comment": comment,
		"message": "Comment status updated successfully",
	})
}

// AddNote attaches an internal note
func (h *CommentHandler) AddNote(c echo.Context) error {
	var req models.AddNoteRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	comment, err := h.commentRepository.AddNote(c.Request().Context(), c.Param("id"), req.Note)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Note added successfully",
		"notes":   comment.Notes,
	})
}

// Reply sends a manual reply to a stored comment
func (h *CommentHandler) Reply(c echo.Context) error {
	var req models.ReplyRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.dispatcher.SendManualReply(c.Request().Context(), c.Param("id"), req.Message)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"replyId": result.Reply.ID,
		"comment": result.Comment,
		"message": "Reply posted successfully",
	})
}

// Like likes a stored comment as the page
func (h *CommentHandler) Like(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")
	if _, err := h.commentRepository.GetByID(ctx, id); err != nil {
		return toHTTPError(err)
	}
	if err := h.dispatcher.Like(ctx, id); err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Comment liked successfully",
	})
}

// GetStats returns counts by status and the response rate
func (h *CommentHandler) GetStats(c echo.Context) error {
	stats, err := h.commentRepository.Stats(c.Request().Context())
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, stats)
}
