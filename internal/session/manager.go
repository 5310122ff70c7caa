package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"ctchen222/tictactoe/internal/bot"
	"ctchen222/tictactoe/internal/events"
	"ctchen222/tictactoe/internal/game"
	"ctchen222/tictactoe/internal/repository"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultIdleTTL = 30 * time.Minute

// Reasons a session is closed.
const (
	CloseReasonClient   = "client"
	CloseReasonIdle     = "idle"
	CloseReasonShutdown = "shutdown"
)

var ErrSessionNotFound = errors.New("session not found")

// Option configures a Manager.
type Option func(*Manager)

// WithOpponentDelay sets how long the random opponent waits before moving.
func WithOpponentDelay(d time.Duration) Option {
	return func(m *Manager) { m.opponentDelay = d }
}

// WithIdleTTL sets how long a session may go without input before the janitor evicts it.
func WithIdleTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.idleTTL = ttl
		}
	}
}

// WithSourceFactory sets the random source given to each new session's engine.
func WithSourceFactory(factory func() game.Source) Option {
	return func(m *Manager) {
		if factory != nil {
			m.sourceFactory = factory
		}
	}
}

// Manager owns every live session.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	publisher     events.Publisher
	results       repository.ResultRepository
	opponentDelay time.Duration
	idleTTL       time.Duration
	sourceFactory func() game.Source
	now           func() time.Time
	metrics       *metrics
}

// NewManager creates a Manager. A nil publisher discards events and a nil
// results repository disables the outcome journal.
func NewManager(publisher events.Publisher, results repository.ResultRepository, opts ...Option) *Manager {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	m := &Manager{
		sessions:      make(map[string]*Session),
		publisher:     publisher,
		results:       results,
		opponentDelay: bot.DefaultDelay,
		idleTTL:       defaultIdleTTL,
		sourceFactory: func() game.Source {
			return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		},
		now:     time.Now,
		metrics: newMetrics(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create starts a new session in mode.
func (m *Manager) Create(ctx context.Context, mode game.Mode) (*Session, error) {
	ctx, span := tracer.Start(ctx, "manager.Create", trace.WithAttributes(
		attribute.String("game.mode", string(mode)),
	))
	defer span.End()

	if !mode.Valid() {
		err := fmt.Errorf("%w: %q", game.ErrInvalidMode, mode)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid mode")
		return nil, err
	}

	engine := game.NewEngine(mode, game.WithSource(m.sourceFactory()))
	s := newSession(uuid.New().String(), engine, bot.NewOpponent(m.opponentDelay), m, m.now)
	span.SetAttributes(attribute.String("session.id", s.ID))

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.metrics.sessionsActive(ctx, 1)
	slog.InfoContext(ctx, "Session created", "session.id", s.ID, "game.mode", mode)
	m.publish(ctx, events.TypeSessionStarted, events.SessionStartedPayload{
		SessionID: s.ID,
		Mode:      string(mode),
	})
	return s, nil
}

// Get returns the live session with id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close removes the session with id and stops its pending opponent move.
func (m *Manager) Close(ctx context.Context, id, reason string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	s.close(reason, func() {
		m.metrics.sessionsActive(ctx, -1)
		slog.InfoContext(ctx, "Session closed", "session.id", id, "reason", reason)
		m.publish(ctx, events.TypeSessionClosed, events.SessionClosedPayload{
			SessionID: id,
			Reason:    reason,
		})
	})
	return nil
}

// CloseAll closes every live session, e.g. on shutdown.
func (m *Manager) CloseAll(ctx context.Context, reason string) {
	m.mu.RLock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	for _, id := range ids {
		_ = m.Close(ctx, id, reason)
	}
}

// RunJanitor evicts idle sessions every interval until ctx is done.
func (m *Manager) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Session janitor stopping.")
			return
		case <-ticker.C:
			m.evictIdle(ctx)
		}
	}
}

func (m *Manager) evictIdle(ctx context.Context) int {
	cutoff := m.now().Add(-m.idleTTL)

	m.mu.RLock()
	var idle []string
	for id, s := range m.sessions {
		if s.LastActive().Before(cutoff) {
			idle = append(idle, id)
		}
	}
	m.mu.RUnlock()

	for _, id := range idle {
		_ = m.Close(ctx, id, CloseReasonIdle)
	}
	return len(idle)
}

func (m *Manager) markPlaced(ctx context.Context, s *Session, p placement) {
	mode := string(s.Mode())
	status := p.status
	m.metrics.movePlaced(ctx, mode, p.automatic)
	m.publish(ctx, events.TypeMarkPlaced, events.MarkPlacedPayload{
		SessionID: s.ID,
		Index:     p.move.Index,
		Mark:      string(p.move.Mark),
		Automatic: p.automatic,
		Outcome:   string(status.Outcome),
	})

	if !status.IsTerminal() {
		return
	}

	result := &repository.Result{
		SessionID:  s.ID,
		Mode:       mode,
		Outcome:    string(status.Outcome),
		Winner:     string(status.Winner),
		Moves:      p.moves,
		FinishedAt: m.now().UTC(),
	}
	m.metrics.sessionFinished(ctx, mode, result.Outcome)
	slog.InfoContext(ctx, "Session finished", "session.id", s.ID, "game.status", status.String(), "moves", result.Moves)

	if m.results != nil {
		if err := m.results.Record(ctx, result); err != nil {
			slog.ErrorContext(ctx, "failed to record session result", "session.id", s.ID, "error", err)
			trace.SpanFromContext(ctx).RecordError(err)
		}
	}

	m.publish(ctx, events.TypeSessionFinished, events.SessionFinishedPayload{
		SessionID:  s.ID,
		Mode:       mode,
		Outcome:    result.Outcome,
		Winner:     result.Winner,
		Moves:      result.Moves,
		FinishedAt: result.FinishedAt,
	})
}

func (m *Manager) sessionReset(ctx context.Context, s *Session) {
	slog.InfoContext(ctx, "Session reset", "session.id", s.ID)
	m.publish(ctx, events.TypeSessionReset, events.SessionResetPayload{SessionID: s.ID})
}

func (m *Manager) publish(ctx context.Context, eventType string, payload any) {
	event, err := events.NewEvent(eventType, payload)
	if err != nil {
		slog.ErrorContext(ctx, "failed to build event", "event.type", eventType, "error", err)
		return
	}
	if err := m.publisher.Publish(ctx, event); err != nil {
		slog.WarnContext(ctx, "failed to publish event", "event.type", eventType, "error", err)
		trace.SpanFromContext(ctx).RecordError(err)
	}
}
