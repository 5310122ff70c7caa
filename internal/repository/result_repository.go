package repository

//go:generate mockgen -source=result_repository.go -destination=mocks/result_repository_mock.go -package=mocks

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("repository.result")

const maxRecentLimit = 100

// Result is one finished session in the outcome journal.
type Result struct {
	ID         string    `db:"id" json:"id"`
	SessionID  string    `db:"session_id" json:"session_id"`
	Mode       string    `db:"mode" json:"mode"`
	Outcome    string    `db:"outcome" json:"outcome"`
	Winner     string    `db:"winner" json:"winner,omitempty"`
	Moves      int       `db:"moves" json:"moves"`
	FinishedAt time.Time `db:"finished_at" json:"finished_at"`
}

// ResultRepository defines the interface for outcome journal operations.
type ResultRepository interface {
	Record(ctx context.Context, result *Result) error
	Recent(ctx context.Context, limit int) ([]Result, error)
}

type sqliteResultRepository struct {
	db *sqlx.DB
}

// NewResultRepository creates a new SQLite-based ResultRepository.
func NewResultRepository(db *sqlx.DB) ResultRepository {
	return &sqliteResultRepository{db: db}
}

// Record inserts a finished session. ID and FinishedAt are filled in when empty.
func (r *sqliteResultRepository) Record(ctx context.Context, result *Result) error {
	ctx, span := tracer.Start(ctx, "ResultRepository.Record", trace.WithAttributes(
		attribute.String("session.id", result.SessionID),
		attribute.String("game.outcome", result.Outcome),
	))
	defer span.End()

	if result.ID == "" {
		result.ID = uuid.New().String()
	}
	if result.FinishedAt.IsZero() {
		result.FinishedAt = time.Now().UTC()
	}

	query := `INSERT INTO results (id, session_id, mode, outcome, winner, moves, finished_at)
		VALUES (:id, :session_id, :mode, :outcome, :winner, :moves, :finished_at)`
	if _, err := r.db.NamedExecContext(ctx, query, result); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to record result")
		return fmt.Errorf("failed to record result for session %s: %w", result.SessionID, err)
	}
	return nil
}

// Recent returns up to limit results, newest first.
func (r *sqliteResultRepository) Recent(ctx context.Context, limit int) ([]Result, error) {
	ctx, span := tracer.Start(ctx, "ResultRepository.Recent")
	defer span.End()

	if limit <= 0 || limit > maxRecentLimit {
		limit = maxRecentLimit
	}

	results := make([]Result, 0, limit)
	query := `SELECT id, session_id, mode, outcome, winner, moves, finished_at
		FROM results ORDER BY finished_at DESC, rowid DESC LIMIT ?`
	if err := r.db.SelectContext(ctx, &results, query, limit); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to list results")
		return nil, fmt.Errorf("failed to list recent results: %w", err)
	}
	return results, nil
}
