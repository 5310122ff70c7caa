package controller

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"ctchen222/tictactoe/internal/api/models"
	"ctchen222/tictactoe/internal/api/response"
	"ctchen222/tictactoe/internal/auth"
	"ctchen222/tictactoe/internal/game"
	"ctchen222/tictactoe/internal/repository"
	"ctchen222/tictactoe/internal/session"

	"github.com/gin-gonic/gin"
)

const defaultResultsLimit = 20

// SessionController handles session-related HTTP requests.
type SessionController struct {
	manager *session.Manager
	tokens  *auth.TokenIssuer
	results repository.ResultRepository
}

// NewSessionController creates a new SessionController. A nil results
// repository makes the results endpoint return an empty list.
func NewSessionController(manager *session.Manager, tokens *auth.TokenIssuer, results repository.ResultRepository) *SessionController {
	return &SessionController{
		manager: manager,
		tokens:  tokens,
		results: results,
	}
}

// Create starts a session and returns the token that grants access to it.
func (sc *SessionController) Create(c *gin.Context) {
	var req models.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	mode, err := game.ParseMode(req.Mode)
	if err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx := c.Request.Context()
	s, err := sc.manager.Create(ctx, mode)
	if err != nil {
		response.Error(c, err)
		return
	}

	token, err := sc.tokens.Issue(s.ID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to issue session token", "session.id", s.ID, "error", err)
		_ = sc.manager.Close(ctx, s.ID, session.CloseReasonClient)
		response.ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	response.SuccessResponse(c, models.CreateSessionResponse{
		SessionID: s.ID,
		Token:     token,
		View:      s.View(),
	})
}

// Get returns the current view of a session.
func (sc *SessionController) Get(c *gin.Context) {
	s, ok := sc.lookup(c)
	if !ok {
		return
	}
	response.SuccessResponse(c, s.View())
}

// Move places the human mark. A rejected move is not an HTTP error.
func (sc *SessionController) Move(c *gin.Context) {
	s, ok := sc.lookup(c)
	if !ok {
		return
	}

	var req models.MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	view, err := s.PlaceMark(c.Request.Context(), *req.Index)
	switch {
	case err == nil:
		response.SuccessResponse(c, models.MoveResponse{Applied: true, View: view})
	case errors.Is(err, game.ErrRejected):
		response.SuccessResponse(c, models.MoveResponse{Applied: false, Reason: err.Error(), View: view})
	default:
		response.Error(c, err)
	}
}

// Reset starts a new game in the same session.
func (sc *SessionController) Reset(c *gin.Context) {
	s, ok := sc.lookup(c)
	if !ok {
		return
	}

	view, err := s.Reset(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessResponse(c, view)
}

// Delete closes a session.
func (sc *SessionController) Delete(c *gin.Context) {
	if err := sc.manager.Close(c.Request.Context(), c.Param("id"), session.CloseReasonClient); err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessResponse(c, gin.H{"message": "Session closed"})
}

// Results lists recently finished sessions.
func (sc *SessionController) Results(c *gin.Context) {
	limit := defaultResultsLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			response.ErrorResponse(c, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	if sc.results == nil {
		response.SuccessResponse(c, models.ResultsResponse{Results: []repository.Result{}})
		return
	}

	results, err := sc.results.Recent(c.Request.Context(), limit)
	if err != nil {
		response.ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.SuccessResponse(c, models.ResultsResponse{Results: results})
}

func (sc *SessionController) lookup(c *gin.Context) (*session.Session, bool) {
	s, err := sc.manager.Get(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	return s, true
}
