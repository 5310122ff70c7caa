package server

import (
	"net/http"
	"time"

	"ctchen222/tictactoe/internal/api/controller"
	"ctchen222/tictactoe/internal/api/response"
	"ctchen222/tictactoe/internal/auth"
	"ctchen222/tictactoe/internal/player"
	"ctchen222/tictactoe/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("server")

// Server wires the HTTP routes and the websocket endpoint to the session manager.
type Server struct {
	engine   *gin.Engine
	manager  *session.Manager
	tokens   *auth.TokenIssuer
	upgrader websocket.Upgrader
	pongWait time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithPongWait sets how long a websocket client may go without answering a ping.
func WithPongWait(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.pongWait = d
		}
	}
}

// NewServer creates a Server with every route registered.
func NewServer(manager *session.Manager, tokens *auth.TokenIssuer, sessionController *controller.SessionController, opts ...Option) *Server {
	s := &Server{
		engine:   gin.New(),
		manager:  manager,
		tokens:   tokens,
		pongWait: player.DefaultPongWait,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerRoutes(sessionController)
	return s
}

// Engine returns the HTTP handler.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerRoutes(sc *controller.SessionController) {
	s.engine.Use(gin.Recovery(), requestLogger())

	s.engine.GET("/healthz", func(c *gin.Context) {
		response.SuccessResponse(c, gin.H{"status": "ok", "sessions": s.manager.Len()})
	})

	api := s.engine.Group("/api")
	api.POST("/sessions", sc.Create)
	api.GET("/results", sc.Results)

	sessions := api.Group("/sessions/:id", s.requireSessionToken())
	sessions.GET("", sc.Get)
	sessions.POST("/moves", sc.Move)
	sessions.POST("/reset", sc.Reset)
	sessions.DELETE("", sc.Delete)

	s.engine.GET("/ws/sessions/:id", s.requireSessionToken(), s.handleWebSocket)
}
