package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/anonto42/page-comments/backend/internal/middleware"
	"github.com/anonto42/page-comments/backend/internal/models"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// OAuthService is the login flow against the social network
type OAuthService interface {
	AuthCodeURL(state, redirectURI string) string
	Exchange(ctx context.Context, code, redirectURI string) (*models.TokenExchange, error)
	Pages(ctx context.Context, userToken string) ([]models.ManagedPage, error)
	PageToken(ctx context.Context, pageID, userToken string) (*models.ManagedPage, error)
}

// AuthHandler handles the page login flow
type AuthHandler struct {
	oauth         OAuthService
	sessionSecret string
	sessionTTL    time.Duration
}

// NewAuthHandler creates a new AuthHandler. With an empty session secret no
// session token is issued after the exchange.
func NewAuthHandler(oauth OAuthService, sessionSecret string, sessionTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		oauth:         oauth,
		sessionSecret: sessionSecret,
		sessionTTL:    sessionTTL,
	}
}

// RegisterAuthRoutes registers authentication-related routes
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group) {
	g.GET("/login-url", h.LoginURL)
	g.POST("/exchange", h.Exchange)
	g.GET("/pages", h.Pages)
	g.GET("/page-token/:pageId", h.PageToken)
}

// defaultRedirect is the callback the dashboard serves on this host
func defaultRedirect(c echo.Context) string {
	return c.Scheme() + "://" + c.Request().Host + "/auth/callback"
}

// LoginURL returns the login dialog URL
func (h *AuthHandler) LoginURL(c echo.Context) error {
	redirect := c.QueryParam("redirect_uri")
	if redirect == "" {
		redirect = defaultRedirect(c)
	}
	state := uuid.NewString()
	return c.JSON(http.StatusOK, map[string]string{
		"url":   h.oauth.AuthCodeURL(state, redirect),
		"state": state,
	})
}

// Exchange trades an authorization code for a user token and its pages
func (h *AuthHandler) Exchange(c echo.Context) error {
	var req models.ExchangeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if req.RedirectURI == "" {
		req.RedirectURI = defaultRedirect(c)
	}

	result, err := h.oauth.Exchange(c.Request().Context(), req.Code, req.RedirectURI)
	if err != nil {
		return toHTTPError(err)
	}

	body := map[string]interface{}{
		"success":      true,
		"access_token": result.AccessToken,
		"token_type":   result.TokenType,
		"expires_in":   result.ExpiresIn,
		"pages":        result.Pages,
	}
	if h.sessionSecret != "" {
		pageID := ""
		if len(result.Pages) > 0 {
			pageID = result.Pages[0].ID
		}
		token, err := middleware.IssueSessionToken(h.sessionSecret, "page-operator", pageID, h.sessionTTL, time.Now())
		if err != nil {
			return toHTTPError(err)
		}
		body["session_token"] = token
	}
	return c.JSON(http.StatusOK, body)
}

// Pages lists the pages managed by the given user token
func (h *AuthHandler) Pages(c echo.Context) error {
	pages, err := h.oauth.Pages(c.Request().Context(), c.QueryParam("access_token"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"data": pages})
}

// PageToken returns the access token of one managed page
func (h *AuthHandler) PageToken(c echo.Context) error {
	page, err := h.oauth.PageToken(c.Request().Context(), c.Param("pageId"), c.QueryParam("access_token"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, page)
}
