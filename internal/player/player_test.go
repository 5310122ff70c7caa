package player

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"ctchen222/tictactoe/internal/game"
	"ctchen222/tictactoe/internal/session"
	"ctchen222/tictactoe/pkg/proto"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type frame struct {
	messageType int
	data        []byte
}

type fakeConn struct {
	mu            sync.Mutex
	frames        []frame
	writeErr      error
	closed        bool
	readDeadline  time.Time
	writeDeadline time.Time
	readLimit     int64
	pongHandler   func(string) error
}

func (c *fakeConn) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeErr != nil {
		return c.writeErr
	}
	c.frames = append(c.frames, frame{messageType: messageType, data: data})
	return nil
}

func (c *fakeConn) ReadMessage() (int, []byte, error) { return 0, nil, errors.New("not readable") }

func (c *fakeConn) SetReadDeadline(t time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readDeadline = t
	return nil
}

func (c *fakeConn) SetWriteDeadline(t time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writeDeadline = t
	return nil
}

func (c *fakeConn) SetReadLimit(limit int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readLimit = limit
}

func (c *fakeConn) SetPongHandler(h func(string) error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pongHandler = h
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) framesOfType(messageType int) []frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []frame
	for _, f := range c.frames {
		if f.messageType == messageType {
			out = append(out, f)
		}
	}
	return out
}

func (c *fakeConn) allFrames() []frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]frame, len(c.frames))
	copy(out, c.frames)
	return out
}

func (c *fakeConn) messages(t *testing.T) []proto.ServerToClientMessage {
	t.Helper()
	var out []proto.ServerToClientMessage
	for _, f := range c.framesOfType(websocket.TextMessage) {
		var msg proto.ServerToClientMessage
		require.NoError(t, json.Unmarshal(f.data, &msg))
		out = append(out, msg)
	}
	return out
}

func isDone(p *Player) bool {
	select {
	case <-p.Done():
		return true
	default:
		return false
	}
}

func TestPlayer_RenderWritesUpdate(t *testing.T) {
	conn := &fakeConn{}
	p := NewPlayer("p1", "s1", conn)
	go p.WritePump()
	defer p.Close()

	board := game.Board{}
	board[4] = game.PlayerX
	p.Render(session.View{
		SessionID:       "s1",
		Mode:            game.ModeVsRandomOpponent,
		Board:           board,
		ActivePlayer:    game.PlayerX,
		Status:          game.Status{Outcome: game.InProgress},
		Prompt:          "Player X's turn",
		OpponentPending: true,
		Moves:           1,
	})

	require.Eventually(t, func() bool { return len(conn.messages(t)) == 1 }, time.Second, 5*time.Millisecond)
	msg := conn.messages(t)[0]
	assert.Equal(t, proto.TypeUpdate, msg.Type)
	assert.Equal(t, "s1", msg.SessionID)
	require.Len(t, msg.Board, game.BoardSize)
	assert.Equal(t, game.PlayerX, msg.Board[4])
	assert.Equal(t, game.PlayerX, msg.Next)
	assert.Equal(t, game.InProgress, msg.Status)
	assert.Equal(t, "Player X's turn", msg.Prompt)
	assert.True(t, msg.OpponentPending)
}

func TestPlayer_CloseFlushesAndClosesConnection(t *testing.T) {
	conn := &fakeConn{}
	p := NewPlayer("p1", "s1", conn)

	require.NoError(t, p.Send(context.Background(), RejectedMessage("cell occupied")))
	p.Close()
	assert.ErrorIs(t, p.Send(context.Background(), ErrorMessage("late")), ErrPlayerClosed)

	p.WritePump()

	frames := conn.allFrames()
	require.Len(t, frames, 2)
	assert.Equal(t, websocket.TextMessage, frames[0].messageType)
	assert.Equal(t, websocket.CloseMessage, frames[1].messageType)
	assert.True(t, conn.isClosed())
}

func TestPlayer_SlowConsumerIsDroppedWithoutBlocking(t *testing.T) {
	conn := &fakeConn{}
	p := NewPlayer("p1", "s1", conn)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i <= sendBufferSize; i++ {
			p.Render(session.View{Moves: i})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Render blocked on a player that does not read")
	}
	assert.True(t, isDone(p))
	assert.ErrorIs(t, p.Send(context.Background(), ErrorMessage("x")), ErrPlayerClosed)
}

func TestPlayer_WritePumpPings(t *testing.T) {
	conn := &fakeConn{}
	p := NewPlayer("p1", "s1", conn, WithPongWait(20*time.Millisecond))
	go p.WritePump()
	defer p.Close()

	assert.Eventually(t, func() bool {
		return len(conn.framesOfType(websocket.PingMessage)) >= 2
	}, time.Second, 5*time.Millisecond)
}

func TestPlayer_FailedPingDisconnects(t *testing.T) {
	conn := &fakeConn{writeErr: errors.New("broken pipe")}
	p := NewPlayer("p1", "s1", conn, WithPongWait(10*time.Millisecond))

	finished := make(chan struct{})
	go func() {
		p.WritePump()
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("WritePump kept running after a failed ping")
	}
	assert.True(t, conn.isClosed())
	assert.True(t, isDone(p))
}

func TestPlayer_PongExtendsReadDeadline(t *testing.T) {
	conn := &fakeConn{}
	p := NewPlayer("p1", "s1", conn, WithPongWait(time.Minute))

	p.PrepareRead()
	conn.mu.Lock()
	first := conn.readDeadline
	handler := conn.pongHandler
	limit := conn.readLimit
	conn.mu.Unlock()

	assert.Equal(t, int64(maxMessageSize), limit)
	assert.WithinDuration(t, time.Now().Add(time.Minute), first, time.Second)
	require.NotNil(t, handler)

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, handler(""))
	conn.mu.Lock()
	second := conn.readDeadline
	conn.mu.Unlock()
	assert.True(t, second.After(first))
}

func TestPlayer_SessionClosedSendsErrorAndCloses(t *testing.T) {
	conn := &fakeConn{}
	p := NewPlayer("p1", "s1", conn)
	go p.WritePump()

	p.SessionClosed(session.CloseReasonIdle)

	require.Eventually(t, conn.isClosed, time.Second, 5*time.Millisecond)
	msgs := conn.messages(t)
	require.Len(t, msgs, 1)
	assert.Equal(t, proto.TypeError, msgs[0].Type)
	assert.Equal(t, "session closed: idle", msgs[0].Reason)

	frames := conn.allFrames()
	assert.Equal(t, websocket.CloseMessage, frames[len(frames)-1].messageType)
}
