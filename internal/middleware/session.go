package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/noah-isme/student-console/pkg/config"
)

// ContextSessionKey is the gin context key storing the console session id.
const ContextSessionKey = "consoleSession"

// Session makes sure every request carries a console session id, issuing a
// fresh cookie when the browser has none or sends something that is not a UUID.
func Session(cfg config.SessionConfig) gin.HandlerFunc {
	name := cfg.CookieName
	if name == "" {
		name = "console_session"
	}
	maxAge := int(cfg.TTL.Seconds())
	return func(c *gin.Context) {
		id, err := c.Cookie(name)
		if err != nil || uuid.Validate(id) != nil {
			id = uuid.NewString()
		}
		// refresh on every request so the cookie outlives activity, not creation
		http.SetCookie(c.Writer, &http.Cookie{
			Name:     name,
			Value:    id,
			Path:     "/",
			MaxAge:   maxAge,
			HttpOnly: true,
			Secure:   cfg.Secure,
			SameSite: http.SameSiteLaxMode,
		})
		c.Set(ContextSessionKey, id)
		c.Next()
	}
}

// SessionID returns the session id stored by Session.
func SessionID(c *gin.Context) string {
	if v, ok := c.Get(ContextSessionKey); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
