package server

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"ctchen222/tictactoe/internal/api/response"

	"github.com/gin-gonic/gin"
)

const bearerPrefix = "Bearer "

// requireSessionToken aborts with 401 unless the request carries a token
// issued for the :id session, either as a bearer header or a token query parameter.
func (s *Server) requireSessionToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if header := c.GetHeader("Authorization"); strings.HasPrefix(header, bearerPrefix) {
			token = strings.TrimPrefix(header, bearerPrefix)
		}
		if token == "" {
			response.AbortWithError(c, http.StatusUnauthorized, "missing session token")
			return
		}

		if err := s.tokens.Verify(token, c.Param("id")); err != nil {
			slog.WarnContext(c.Request.Context(), "rejected session token", "session.id", c.Param("id"), "error", err)
			response.AbortWithError(c, http.StatusUnauthorized, "invalid session token")
			return
		}
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.InfoContext(c.Request.Context(), "http request",
			"http.method", c.Request.Method,
			"http.route", c.FullPath(),
			"http.status_code", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
