package http

import (
	"net/http"
	"strings"
	"time"

	"flashbattle-quiz-service/internal/app"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const contextKeyClaims = "claims"

// requireBearer rejects requests without a valid bearer token.
func requireBearer(auth *app.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := ""
		if header := c.GetHeader("Authorization"); header != "" {
			parts := strings.SplitN(header, " ", 2)
			if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
				raw = strings.TrimSpace(parts[1])
			}
		}
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "no_token"})
			return
		}
		claims, err := auth.ParseToken(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "invalid_token"})
			return
		}
		c.Set(contextKeyClaims, claims)
		c.Next()
	}
}

func claimsFrom(c *gin.Context) *app.Claims {
	v, ok := c.Get(contextKeyClaims)
	if !ok {
		return nil
	}
	claims, _ := v.(*app.Claims)
	return claims
}

// requestLogger writes one structured line per request.
func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		evt := log.Info()
		if status >= http.StatusInternalServerError {
			evt = log.Error()
		}
		evt.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("http request")
	}
}
