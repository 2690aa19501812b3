package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"github.com/rocketscienceinc/tictactoe-hotseat/internal/entity"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/metrics"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/usecase"
)

var errStorageIsFull = errors.New("too many sessions")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func dialServer(t *testing.T, server *Server) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(server.Handler())
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, err := websocket.Dial(wsURL, "", srv.URL)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = conn.Close()
	})

	return conn
}

func newGameServer(t *testing.T) *Server {
	t.Helper()

	logger := discardLogger()
	manager := usecase.NewGameManager(logger, metrics.New(prometheus.NewRegistry()), time.Minute)

	return New(logger, "0", manager)
}

func send(t *testing.T, conn *websocket.Conn, action string, payload any) {
	t.Helper()

	msg := Message{Action: action}
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		msg.Payload = raw
	}

	require.NoError(t, websocket.JSON.Send(conn, msg))
}

func receive(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var msg Message
	require.NoError(t, websocket.JSON.Receive(conn, &msg))

	return msg
}

func receiveState(t *testing.T, conn *websocket.Conn) entity.GameView {
	t.Helper()

	msg := receive(t, conn)
	require.Equal(t, actionState, msg.Action, "payload: %s", msg.Payload)

	var view entity.GameView
	require.NoError(t, json.Unmarshal(msg.Payload, &view))

	return view
}

func receiveError(t *testing.T, conn *websocket.Conn) ErrorPayload {
	t.Helper()

	msg := receive(t, conn)
	require.Equal(t, actionError, msg.Action)

	var payload ErrorPayload
	require.NoError(t, json.Unmarshal(msg.Payload, &payload))

	return payload
}

func move(row, col int) MovePayload {
	return MovePayload{Row: &row, Col: &col}
}

func TestServer_InitialState(t *testing.T) {
	// When: a client connects
	conn := dialServer(t, newGameServer(t))

	// Then: it receives an empty board with X to move
	view := receiveState(t, conn)
	assert.NotEmpty(t, view.SessionID)
	assert.Equal(t, entity.Board{}, view.Board)
	assert.Equal(t, entity.MarkX, view.Turn)
	assert.Equal(t, entity.StatusInProgress, view.Status)
	assert.False(t, view.CanRestart)
}

func TestServer_PlayToWin(t *testing.T) {
	// Given: a connected client
	conn := dialServer(t, newGameServer(t))
	initial := receiveState(t, conn)

	// When: the diagonal scenario is played
	var view entity.GameView
	for _, cell := range []entity.Coord{{Row: 0, Col: 0}, {Row: 0, Col: 1}, {Row: 1, Col: 1}, {Row: 1, Col: 0}, {Row: 2, Col: 2}} {
		send(t, conn, actionMove, move(cell.Row, cell.Col))
		view = receiveState(t, conn)
		require.True(t, view.Changed)
	}

	// Then: X wins on the main diagonal in the same session
	assert.Equal(t, initial.SessionID, view.SessionID)
	assert.Equal(t, entity.StatusWin, view.Status)
	assert.Equal(t, entity.MarkX, view.Winner)
	assert.Equal(t, []entity.Coord{{Row: 0, Col: 0}, {Row: 1, Col: 1}, {Row: 2, Col: 2}}, view.Line)
	assert.Equal(t, 5, view.MoveCount)

	// And: a late click leaves the board unchanged
	send(t, conn, actionMove, move(2, 0))
	late := receiveState(t, conn)
	assert.False(t, late.Changed)
	assert.Equal(t, view.Board, late.Board)

	// And: restart brings back the initial board
	send(t, conn, actionRestart, nil)
	restarted := receiveState(t, conn)
	assert.Equal(t, entity.Board{}, restarted.Board)
	assert.Equal(t, entity.MarkX, restarted.Turn)
	assert.Equal(t, 0, restarted.MoveCount)
}

func TestServer_StateAction(t *testing.T) {
	conn := dialServer(t, newGameServer(t))
	receiveState(t, conn)

	send(t, conn, actionMove, move(1, 1))
	receiveState(t, conn)

	send(t, conn, actionState, nil)
	view := receiveState(t, conn)

	assert.Equal(t, entity.MarkX, view.Board[1][1])
	assert.False(t, view.Changed)
}

func TestServer_Errors(t *testing.T) {
	t.Run("Unknown action", func(t *testing.T) {
		conn := dialServer(t, newGameServer(t))
		receiveState(t, conn)

		send(t, conn, "game:undo", nil)

		payload := receiveError(t, conn)
		assert.Equal(t, "game:undo", payload.Action)
		assert.Contains(t, payload.Error, "unknown action")
	})

	t.Run("Out-of-range cell", func(t *testing.T) {
		conn := dialServer(t, newGameServer(t))
		receiveState(t, conn)

		send(t, conn, actionMove, move(3, 0))

		payload := receiveError(t, conn)
		assert.Equal(t, actionMove, payload.Action)
		assert.Contains(t, payload.Error, "invalid cell")
	})

	t.Run("Missing coordinate", func(t *testing.T) {
		conn := dialServer(t, newGameServer(t))
		receiveState(t, conn)

		send(t, conn, actionMove, map[string]int{"row": 1})

		payload := receiveError(t, conn)
		assert.Contains(t, payload.Error, "invalid payload")
	})

	t.Run("Malformed frame keeps the connection open", func(t *testing.T) {
		conn := dialServer(t, newGameServer(t))
		receiveState(t, conn)

		require.NoError(t, websocket.Message.Send(conn, "{not json"))
		payload := receiveError(t, conn)
		assert.Contains(t, payload.Error, "invalid payload")

		send(t, conn, actionMove, move(0, 0))
		view := receiveState(t, conn)
		assert.Equal(t, entity.MarkX, view.Board[0][0])
	})
}

type mockGameUseCase struct {
	mock.Mock
}

func (that *mockGameUseCase) StartSession(ctx context.Context) (*entity.Session, error) {
	args := that.Called(ctx)
	sess, _ := args.Get(0).(*entity.Session)

	return sess, args.Error(1)
}

func (that *mockGameUseCase) EndSession(ctx context.Context, sessionID string) {
	that.Called(ctx, sessionID)
}

func (that *mockGameUseCase) State(ctx context.Context, sessionID string) (*entity.GameView, error) {
	args := that.Called(ctx, sessionID)
	view, _ := args.Get(0).(*entity.GameView)

	return view, args.Error(1)
}

func (that *mockGameUseCase) Move(ctx context.Context, sessionID string, row, col int) (*entity.GameView, error) {
	args := that.Called(ctx, sessionID, row, col)
	view, _ := args.Get(0).(*entity.GameView)

	return view, args.Error(1)
}

func (that *mockGameUseCase) Restart(ctx context.Context, sessionID string) (*entity.GameView, error) {
	args := that.Called(ctx, sessionID)
	view, _ := args.Get(0).(*entity.GameView)

	return view, args.Error(1)
}

func TestServer_WithMockedUseCase(t *testing.T) {
	t.Run("Session start failure is reported", func(t *testing.T) {
		// Given: a use case that cannot start sessions
		uc := &mockGameUseCase{}
		uc.On("StartSession", mock.Anything).Return(nil, errStorageIsFull).Once()

		// When: a client connects
		conn := dialServer(t, New(discardLogger(), "0", uc))

		// Then: it gets an error frame
		payload := receiveError(t, conn)
		assert.Contains(t, payload.Error, errStorageIsFull.Error())
		uc.AssertExpectations(t)
	})

	t.Run("Use case error becomes error frame and session ends on close", func(t *testing.T) {
		// Given: a session whose restart fails
		uc := &mockGameUseCase{}
		ended := make(chan struct{})
		uc.On("StartSession", mock.Anything).Return(&entity.Session{ID: "s1"}, nil).Once()
		uc.On("State", mock.Anything, "s1").Return(&entity.GameView{SessionID: "s1", Turn: entity.MarkX}, nil).Once()
		uc.On("Restart", mock.Anything, "s1").Return(nil, errStorageIsFull).Once()
		uc.On("EndSession", mock.Anything, "s1").Run(func(mock.Arguments) {
			close(ended)
		}).Return().Once()

		conn := dialServer(t, New(discardLogger(), "0", uc))
		view := receiveState(t, conn)
		require.Equal(t, "s1", view.SessionID)

		// When: the client asks for a restart
		send(t, conn, actionRestart, nil)

		// Then: an error frame names the action
		payload := receiveError(t, conn)
		assert.Equal(t, actionRestart, payload.Action)
		assert.Contains(t, payload.Error, "failed to restart")

		// And: closing the connection ends the session
		require.NoError(t, conn.Close())
		select {
		case <-ended:
		case <-time.After(2 * time.Second):
			t.Fatal("session was not ended")
		}
		uc.AssertExpectations(t)
	})

	t.Run("Move is forwarded with coordinates", func(t *testing.T) {
		uc := &mockGameUseCase{}
		uc.On("StartSession", mock.Anything).Return(&entity.Session{ID: "s2"}, nil).Once()
		uc.On("State", mock.Anything, "s2").Return(&entity.GameView{SessionID: "s2"}, nil).Once()
		uc.On("Move", mock.Anything, "s2", 2, 1).Return(&entity.GameView{SessionID: "s2", MoveCount: 1, Changed: true}, nil).Once()
		uc.On("EndSession", mock.Anything, "s2").Return().Maybe()

		conn := dialServer(t, New(discardLogger(), "0", uc))
		receiveState(t, conn)

		send(t, conn, actionMove, move(2, 1))
		view := receiveState(t, conn)

		assert.True(t, view.Changed)
		assert.Equal(t, 1, view.MoveCount)
	})
}

func TestServer_ExpiredSessionClosesConnection(t *testing.T) {
	// Given: a connected client whose board went idle
	logger := discardLogger()
	manager := usecase.NewGameManager(logger, metrics.New(prometheus.NewRegistry()), time.Millisecond)
	server := New(logger, "0", manager)

	conn := dialServer(t, server)
	receiveState(t, conn)
	require.Equal(t, 1, manager.EvictIdle(time.Now().Add(time.Hour)))

	// When: the client keeps playing
	send(t, conn, actionMove, move(0, 0))

	// Then: it is told the session is gone
	payload := receiveError(t, conn)
	assert.Equal(t, actionMove, payload.Action)
	assert.Contains(t, payload.Error, "session not found")

	// And: the server closes the connection
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	err := websocket.JSON.Receive(conn, &msg)
	assert.ErrorIs(t, err, io.EOF)

	// And: reconnecting starts a fresh board
	fresh := dialServer(t, server)
	view := receiveState(t, fresh)
	assert.Equal(t, entity.Board{}, view.Board)
	assert.Equal(t, entity.MarkX, view.Turn)
}
