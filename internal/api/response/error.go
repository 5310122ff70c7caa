package response

import (
	"errors"
	"net/http"

	"ctchen222/tictactoe/internal/auth"
	"ctchen222/tictactoe/internal/game"
	"ctchen222/tictactoe/internal/session"

	"github.com/gin-gonic/gin"
)

// StatusForError maps domain errors onto HTTP status codes. Unknown errors are
// infrastructure failures.
func StatusForError(err error) int {
	switch {
	case errors.Is(err, game.ErrInvalidMode):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, session.ErrSessionNotFound), errors.Is(err, session.ErrSessionClosed):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error answers with the status StatusForError picks for err.
func Error(c *gin.Context, err error) {
	ErrorResponse(c, StatusForError(err), err.Error())
}

// AbortWithError answers like ErrorResponse and stops the handler chain.
func AbortWithError(c *gin.Context, code int, message string) {
	ErrorResponse(c, code, message)
	c.Abort()
}
