package player

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"ctchen222/tictactoe/internal/session"
	"ctchen222/tictactoe/pkg/proto"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("player")

const (
	// DefaultPongWait is how long a player may stay silent before the read side gives up.
	DefaultPongWait = 60 * time.Second
	writeWait       = 10 * time.Second
	maxMessageSize  = 512
	sendBufferSize  = 16
)

var (
	ErrPlayerClosed = errors.New("player connection closed")
	ErrSlowConsumer = errors.New("player send buffer full")
)

// Connection is an interface that abstracts the websocket connection.
type Connection interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (int, []byte, error)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetReadLimit(limit int64)
	SetPongHandler(h func(appData string) error)
	Close() error
}

// Option configures a Player.
type Option func(*Player)

// WithPongWait sets the read deadline refreshed by every pong. Pings go out at
// nine tenths of it.
func WithPongWait(d time.Duration) Option {
	return func(p *Player) {
		if d > 0 {
			p.pongWait = d
		}
	}
}

// Player is one websocket client attached to a session. Messages are queued
// and written by WritePump, which also keeps the connection alive with pings.
type Player struct {
	ID        string
	SessionID string
	Conn      Connection

	pongWait time.Duration
	send     chan []byte
	done     chan struct{}

	mu     sync.Mutex
	closed bool
}

// NewPlayer creates a Player for conn.
func NewPlayer(id, sessionID string, conn Connection, opts ...Option) *Player {
	p := &Player{
		ID:        id,
		SessionID: sessionID,
		Conn:      conn,
		pongWait:  DefaultPongWait,
		send:      make(chan []byte, sendBufferSize),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Send queues message for the write pump. It never blocks.
func (p *Player) Send(ctx context.Context, message *proto.ServerToClientMessage) error {
	_, span := tracer.Start(ctx, "player.Send", trace.WithAttributes(
		attribute.String("player.id", p.ID),
		attribute.String("message.type", message.Type),
	))
	defer span.End()

	data, err := json.Marshal(message)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Error marshalling message")
		return fmt.Errorf("failed to marshal %s message: %w", message.Type, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPlayerClosed
	}
	select {
	case p.send <- data:
		return nil
	default:
		span.SetStatus(codes.Error, "Send buffer full")
		return ErrSlowConsumer
	}
}

// Render queues v as an update message. A player that cannot keep up is closed.
func (p *Player) Render(v session.View) {
	ctx := context.Background()
	err := p.Send(ctx, UpdateMessage(v))
	if err == nil || errors.Is(err, ErrPlayerClosed) {
		return
	}
	slog.WarnContext(ctx, "dropping player", "player.id", p.ID, "session.id", p.SessionID, "error", err)
	p.Close()
}

// SessionClosed tells the client why its session ended and closes the connection.
func (p *Player) SessionClosed(reason string) {
	_ = p.Send(context.Background(), ErrorMessage("session closed: "+reason))
	p.Close()
}

// Close stops accepting messages. WritePump flushes what is queued, sends a
// close frame and closes the connection.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.done)
}

// Done is closed once the player stops accepting messages.
func (p *Player) Done() <-chan struct{} {
	return p.done
}

// PrepareRead limits incoming messages and arms the read deadline that every
// pong extends.
func (p *Player) PrepareRead() {
	p.Conn.SetReadLimit(maxMessageSize)
	_ = p.Conn.SetReadDeadline(time.Now().Add(p.pongWait))
	p.Conn.SetPongHandler(func(string) error {
		return p.Conn.SetReadDeadline(time.Now().Add(p.pongWait))
	})
}

// WritePump writes queued messages and pings until the player is closed or a
// write fails. It closes the connection on return.
func (p *Player) WritePump() {
	ctx := context.Background()
	ticker := time.NewTicker(p.pongWait * 9 / 10)
	defer func() {
		ticker.Stop()
		p.Close()
		_ = p.Conn.Close()
	}()

	for {
		select {
		case data := <-p.send:
			if err := p.write(websocket.TextMessage, data); err != nil {
				slog.WarnContext(ctx, "error writing message to player", "player.id", p.ID, "error", err)
				return
			}
		case <-ticker.C:
			if err := p.write(websocket.PingMessage, nil); err != nil {
				slog.WarnContext(ctx, "Failed to send ping to player, assuming disconnect", "player.id", p.ID, "error", err)
				return
			}
		case <-p.done:
			p.flush()
			_ = p.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (p *Player) flush() {
	for {
		select {
		case data := <-p.send:
			if err := p.write(websocket.TextMessage, data); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (p *Player) write(messageType int, data []byte) error {
	if err := p.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return p.Conn.WriteMessage(messageType, data)
}

// UpdateMessage converts a session view into its wire form.
func UpdateMessage(v session.View) *proto.ServerToClientMessage {
	return &proto.ServerToClientMessage{
		Type:            proto.TypeUpdate,
		SessionID:       v.SessionID,
		Board:           v.Board[:],
		Next:            v.ActivePlayer,
		Status:          v.Status.Outcome,
		Winner:          v.Status.Winner,
		Prompt:          v.Prompt,
		OpponentPending: v.OpponentPending,
	}
}

// RejectedMessage reports input that was not applied.
func RejectedMessage(reason string) *proto.ServerToClientMessage {
	return &proto.ServerToClientMessage{Type: proto.TypeRejected, Reason: reason}
}

// ErrorMessage reports a failure that ends or invalidates the conversation.
func ErrorMessage(reason string) *proto.ServerToClientMessage {
	return &proto.ServerToClientMessage{Type: proto.TypeError, Reason: reason}
}
