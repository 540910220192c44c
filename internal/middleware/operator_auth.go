package middleware

import (
	"net/http"

	"github.com/anonto42/page-comments/backend/pkg/logging"
	"github.com/labstack/echo/v4"
)

// Context keys set by OperatorAuth
const (
	OperatorKey = "operator"
	SessionKey  = "session"
)

// AuthConfig configures OperatorAuth
type AuthConfig struct {
	// Required turns the check on; when false every request passes
	Required      bool
	SessionSecret string
	Firebase      IDTokenVerifier
	Logger        logging.Logger
}

// OperatorAuth accepts either a session token issued after the page login
// flow or a Firebase ID token.
func OperatorAuth(cfg AuthConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cfg.Required {
				return next(c)
			}

			token, err := bearerToken(c)
			if err != nil {
				return err
			}

			if cfg.SessionSecret != "" {
				if claims, err := ParseSessionToken(cfg.SessionSecret, token); err == nil {
					c.Set(OperatorKey, claims.Subject)
					c.Set(SessionKey, claims)
					return next(c)
				}
			}

			if uid, ok := verifyFirebase(c.Request().Context(), cfg.Firebase, token); ok {
				c.Set(OperatorKey, uid)
				return next(c)
			}

			if cfg.Logger != nil {
				cfg.Logger.WithField("path", c.Path()).Debug("rejected operator token")
			}
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
		}
	}
}
