package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"ctchen222/tictactoe/internal/bot"
	"ctchen222/tictactoe/internal/game"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("session")

var (
	// ErrOpponentPending rejects human input while the random opponent is about to move.
	ErrOpponentPending = fmt.Errorf("%w: waiting for the opponent", game.ErrRejected)
	ErrSessionClosed   = errors.New("session closed")
)

// placement describes one applied move, captured under the session lock.
type placement struct {
	move      game.Move
	automatic bool
	status    game.Status
	moves     int
}

// listener is told about every applied move and reset, outside the session lock.
type listener interface {
	markPlaced(ctx context.Context, s *Session, p placement)
	sessionReset(ctx context.Context, s *Session)
}

// Session binds one game engine to its renderers and to the delayed random
// opponent. Input events and opponent moves are serialized by the session lock.
type Session struct {
	ID        string
	CreatedAt time.Time

	engine   *game.Engine
	opponent *bot.Opponent
	listener listener
	now      func() time.Time

	// notifyMu is taken before mu is released, so listener calls for one
	// session run in the order their transitions were applied.
	notifyMu sync.Mutex

	mu               sync.Mutex
	renderers        map[uint64]Renderer
	nextRendererID   uint64
	awaitingOpponent bool
	epoch            uint64
	lastActive       time.Time
	closed           bool
}

func newSession(id string, engine *game.Engine, opponent *bot.Opponent, l listener, now func() time.Time) *Session {
	created := now()
	return &Session{
		ID:         id,
		CreatedAt:  created,
		engine:     engine,
		opponent:   opponent,
		listener:   l,
		now:        now,
		renderers:  make(map[uint64]Renderer),
		lastActive: created,
	}
}

// Mode returns the mode chosen when the session was created.
func (s *Session) Mode() game.Mode {
	return s.engine.Mode()
}

// View returns the current snapshot.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// Moves returns the moves applied since the last reset.
func (s *Session) Moves() []game.Move {
	return s.engine.Moves()
}

// LastActive returns when the session last received input.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Subscribe registers r and immediately renders the current view to it. The
// returned function removes the renderer. A closed session only tells r that
// it is closed.
func (s *Session) Subscribe(r Renderer) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		if c, ok := r.(Closer); ok {
			c.SessionClosed(CloseReasonClient)
		}
		return func() {}
	}

	id := s.nextRendererID
	s.nextRendererID++
	s.renderers[id] = r
	r.Render(s.viewLocked())

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.renderers, id)
	}
}

// PlaceMark applies a human move on index. Rejected moves return the current
// view with an error wrapping game.ErrRejected. In vs_random mode a move that
// keeps the game going schedules the opponent.
func (s *Session) PlaceMark(ctx context.Context, index int) (View, error) {
	ctx, span := tracer.Start(ctx, "session.PlaceMark", trace.WithAttributes(
		attribute.String("session.id", s.ID),
		attribute.Int("cell.index", index),
	))
	defer span.End()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		span.SetStatus(codes.Error, "Session closed")
		return View{}, ErrSessionClosed
	}
	s.lastActive = s.now()

	if s.awaitingOpponent {
		v := s.viewLocked()
		s.mu.Unlock()
		span.SetAttributes(attribute.Bool("move.valid", false))
		return v, ErrOpponentPending
	}

	mark := s.engine.ActivePlayer()
	status, err := s.engine.PlaceMark(index)
	if err != nil {
		v := s.viewLocked()
		s.mu.Unlock()
		span.SetAttributes(attribute.Bool("move.valid", false))
		slog.DebugContext(ctx, "move rejected", "session.id", s.ID, "cell.index", index, "reason", err)
		return v, err
	}
	span.SetAttributes(attribute.Bool("move.valid", true), attribute.String("game.status", status.String()))

	if s.engine.Mode() == game.ModeVsRandomOpponent && !status.IsTerminal() {
		s.awaitingOpponent = true
		epoch := s.epoch
		s.opponent.Schedule(func() { s.opponentMove(epoch) })
	}

	v := s.viewLocked()
	s.renderLocked(v)
	s.unlockAndNotify(func() {
		s.listener.markPlaced(ctx, s, placement{
			move:   game.Move{Index: index, Mark: mark},
			status: status,
			moves:  v.Moves,
		})
	})
	return v, nil
}

// opponentMove runs as the scheduled opponent task. epoch ties the task to the
// game it was scheduled for; a reset in between makes it a no-op.
func (s *Session) opponentMove(epoch uint64) {
	ctx, span := tracer.Start(context.Background(), "session.opponentMove", trace.WithAttributes(
		attribute.String("session.id", s.ID),
	))
	defer span.End()

	s.mu.Lock()
	if s.closed || epoch != s.epoch || !s.awaitingOpponent {
		s.mu.Unlock()
		return
	}
	s.awaitingOpponent = false

	index, status, err := s.engine.ChooseRandomMove()
	if err != nil {
		v := s.viewLocked()
		s.renderLocked(v)
		s.mu.Unlock()
		slog.ErrorContext(ctx, "opponent could not move", "session.id", s.ID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Opponent could not move")
		return
	}
	span.SetAttributes(attribute.Int("cell.index", index), attribute.String("game.status", status.String()))

	v := s.viewLocked()
	s.renderLocked(v)
	s.unlockAndNotify(func() {
		s.listener.markPlaced(ctx, s, placement{
			move:      game.Move{Index: index, Mark: game.PlayerO},
			automatic: true,
			status:    status,
			moves:     v.Moves,
		})
	})
}

// Reset cancels any pending opponent move and starts a new game in the same mode.
func (s *Session) Reset(ctx context.Context) (View, error) {
	ctx, span := tracer.Start(ctx, "session.Reset", trace.WithAttributes(
		attribute.String("session.id", s.ID),
	))
	defer span.End()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		span.SetStatus(codes.Error, "Session closed")
		return View{}, ErrSessionClosed
	}
	s.lastActive = s.now()
	s.resetLocked()

	v := s.viewLocked()
	s.renderLocked(v)
	s.unlockAndNotify(func() {
		s.listener.sessionReset(ctx, s)
	})
	return v, nil
}

// close stops the opponent, tells renderers that implement Closer and drops
// every renderer. onClosed runs after the session's earlier notifications. It
// reports whether the session was still open.
func (s *Session) close(reason string, onClosed func()) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	s.closed = true
	s.opponent.Cancel()
	s.awaitingOpponent = false
	for _, r := range s.renderers {
		if c, ok := r.(Closer); ok {
			c.SessionClosed(reason)
		}
	}
	s.renderers = make(map[uint64]Renderer)
	s.unlockAndNotify(onClosed)
	return true
}

// resetLocked cancels the pending opponent and starts a new game. Bumping the
// epoch turns an opponent task that already fired into a no-op.
func (s *Session) resetLocked() {
	s.opponent.Cancel()
	s.awaitingOpponent = false
	s.epoch++
	s.engine.Reset()
}

// unlockAndNotify releases mu and runs fn while holding notifyMu. The caller
// must hold mu.
func (s *Session) unlockAndNotify(fn func()) {
	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()
	fn()
}

func (s *Session) viewLocked() View {
	mode := s.engine.Mode()
	status := s.engine.Status()
	active := s.engine.ActivePlayer()
	return View{
		SessionID:       s.ID,
		Mode:            mode,
		Board:           s.engine.Board(),
		ActivePlayer:    active,
		Status:          status,
		Prompt:          Prompt(mode, status, active),
		OpponentPending: s.awaitingOpponent,
		Moves:           len(s.engine.Moves()),
	}
}

func (s *Session) renderLocked(v View) {
	for _, r := range s.renderers {
		r.Render(v)
	}
}
