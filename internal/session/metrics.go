package session

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("session")

type metrics struct {
	moves    metric.Int64Counter
	finished metric.Int64Counter
	active   metric.Int64UpDownCounter
}

func newMetrics() *metrics {
	m := &metrics{}
	var err error

	if m.moves, err = meter.Int64Counter("tictactoe.moves",
		metric.WithDescription("Marks placed on a board"),
		metric.WithUnit("{move}"),
	); err != nil {
		slog.Warn("failed to create moves counter", "error", err)
	}
	if m.finished, err = meter.Int64Counter("tictactoe.sessions.finished",
		metric.WithDescription("Sessions that reached a win or a draw"),
		metric.WithUnit("{session}"),
	); err != nil {
		slog.Warn("failed to create finished sessions counter", "error", err)
	}
	if m.active, err = meter.Int64UpDownCounter("tictactoe.sessions.active",
		metric.WithDescription("Sessions currently held in memory"),
		metric.WithUnit("{session}"),
	); err != nil {
		slog.Warn("failed to create active sessions counter", "error", err)
	}
	return m
}

func (m *metrics) movePlaced(ctx context.Context, mode string, automatic bool) {
	if m.moves != nil {
		m.moves.Add(ctx, 1, metric.WithAttributes(
			attribute.String("game.mode", mode),
			attribute.Bool("move.automatic", automatic),
		))
	}
}

func (m *metrics) sessionFinished(ctx context.Context, mode, outcome string) {
	if m.finished != nil {
		m.finished.Add(ctx, 1, metric.WithAttributes(
			attribute.String("game.mode", mode),
			attribute.String("game.outcome", outcome),
		))
	}
}

func (m *metrics) sessionsActive(ctx context.Context, delta int64) {
	if m.active != nil {
		m.active.Add(ctx, delta)
	}
}
