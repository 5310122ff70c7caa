package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeSchema_Idempotent(t *testing.T) {
	ctx := context.Background()
	conn, err := Connect(ctx, ":memory:")
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, InitializeSchema(ctx, conn))
	require.NoError(t, InitializeSchema(ctx, conn))

	var count int
	require.NoError(t, conn.GetContext(ctx, &count, `SELECT COUNT(*) FROM results`))
	assert.Zero(t, count)
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	_, err := NewRedisClient(context.Background(), "127.0.0.1:1")
	assert.ErrorContains(t, err, "failed to ping redis")
}
