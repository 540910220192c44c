package handlers

import (
	"net/http"

	"github.com/anonto42/page-comments/backend/internal/models"
	"github.com/anonto42/page-comments/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// TemplateHandler manages auto-reply templates
type TemplateHandler struct {
	templateRepository repositories.TemplateRepository
}

func NewTemplateHandler(templateRepo repositories.TemplateRepository) *TemplateHandler {
	return &TemplateHandler{templateRepository: templateRepo}
}

// RegisterTemplateRoutes registers template routes on the templates group
func (h *TemplateHandler) RegisterTemplateRoutes(g *echo.Group) {
	g.GET("", h.ListTemplates)
	g.POST("", h.CreateTemplate)
	g.GET("/:id", h.GetTemplate)
	g.PUT("/:id", h.UpdateTemplate)
	g.DELETE("/:id", h.DeleteTemplate)
}

func (h *TemplateHandler) ListTemplates(c echo.Context) error {
	templates, err := h.templateRepository.List(c.Request().Context())
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"templates": templates,
		"total":     len(templates),
	})
}

// CreateTemplate validates through the store so the error text matches
// regardless of which field is missing
func (h *TemplateHandler) CreateTemplate(c echo.Context) error {
	var req models.CreateTemplateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	template, err := h.templateRepository.Create(c.Request().Context(), req)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"success":  true,
		"template": template,
		"message":  "Auto-reply template created successfully",
	})
}

func (h *TemplateHandler) GetTemplate(c echo.Context) error {
	template, err := h.templateRepository.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, template)
}

// UpdateTemplate applies only the fields present in the body
func (h *TemplateHandler) UpdateTemplate(c echo.Context) error {
	var patch models.TemplatePatch
	if err := c.Bind(&patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	template, err := h.templateRepository.Update(c.Request().Context(), c.Param("id"), patch)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":  true,
		"template": template,
		"message":  "Template updated successfully",
	})
}

func (h *TemplateHandler) DeleteTemplate(c echo.Context) error {
	if err := h.templateRepository.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Template deleted successfully",
	})
}
