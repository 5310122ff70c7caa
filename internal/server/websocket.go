package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"ctchen222/tictactoe/internal/api/response"
	"ctchen222/tictactoe/internal/game"
	"ctchen222/tictactoe/internal/player"
	"ctchen222/tictactoe/internal/session"
	"ctchen222/tictactoe/internal/validator"
	"ctchen222/tictactoe/pkg/proto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// handleWebSocket upgrades the connection, attaches it to the session as a
// renderer and hands it to the read pump.
func (s *Server) handleWebSocket(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "server.handleWebSocket", trace.WithAttributes(
		attribute.String("http.url", c.Request.URL.Path),
		attribute.String("session.id", c.Param("id")),
	))
	defer span.End()

	sess, err := s.manager.Get(c.Param("id"))
	if err != nil {
		span.SetStatus(codes.Error, "Session not found")
		response.Error(c, err)
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to upgrade connection", "session.id", sess.ID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to upgrade connection")
		return
	}

	p := player.NewPlayer(uuid.New().String(), sess.ID, conn, player.WithPongWait(s.pongWait))
	span.SetAttributes(attribute.String("player.id", p.ID))
	go p.WritePump()
	unsubscribe := sess.Subscribe(p)
	slog.InfoContext(ctx, "Player connected", "player.id", p.ID, "session.id", sess.ID)

	go s.readPump(sess, p, unsubscribe)
}

// readPump applies client messages to the session until the connection
// fails, the client stops answering pings or the session is closed.
func (s *Server) readPump(sess *session.Session, p *player.Player, unsubscribe func()) {
	ctx, span := tracer.Start(context.Background(), "server.readPump", trace.WithAttributes(
		attribute.String("player.id", p.ID),
		attribute.String("session.id", sess.ID),
	))
	defer span.End()

	defer func() {
		unsubscribe()
		p.Close()
		slog.InfoContext(ctx, "Player disconnected", "player.id", p.ID, "session.id", sess.ID)
	}()

	p.PrepareRead()
	for {
		_, data, err := p.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.WarnContext(ctx, "Player connection error", "player.id", p.ID, "session.id", sess.ID, "error", err)
				span.RecordError(err)
				span.SetStatus(codes.Error, "Player connection error")
			}
			return
		}
		if !s.handleClientMessage(ctx, sess, p, data) {
			return
		}
	}
}

// handleClientMessage applies one client message. It reports whether the
// connection should stay open.
func (s *Server) handleClientMessage(ctx context.Context, sess *session.Session, p *player.Player, data []byte) bool {
	reply := func(msg *proto.ServerToClientMessage) {
		if err := p.Send(ctx, msg); err != nil {
			slog.WarnContext(ctx, "error writing message to player", "player.id", p.ID, "error", err)
		}
	}

	var msg proto.ClientToServerMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		reply(player.RejectedMessage("malformed message"))
		return true
	}
	if err := validator.GetValidator().Struct(&msg); err != nil {
		reply(player.RejectedMessage(err.Error()))
		return true
	}

	var err error
	switch msg.Type {
	case proto.TypeMove:
		if msg.Index == nil {
			reply(player.RejectedMessage("index is required for a move"))
			return true
		}
		_, err = sess.PlaceMark(ctx, *msg.Index)
	case proto.TypeReset:
		_, err = sess.Reset(ctx)
	}

	switch {
	case err == nil:
		return true
	case errors.Is(err, game.ErrRejected):
		reply(player.RejectedMessage(err.Error()))
		return true
	case errors.Is(err, session.ErrSessionClosed):
		reply(player.ErrorMessage(err.Error()))
		return false
	default:
		slog.ErrorContext(ctx, "failed to apply client message", "session.id", sess.ID, "message.type", msg.Type, "error", err)
		reply(player.ErrorMessage(err.Error()))
		return true
	}
}
