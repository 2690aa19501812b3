package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/net/websocket"

	"github.com/rocketscienceinc/tictactoe-hotseat/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/entity"
)

type gameUseCase interface {
	StartSession(ctx context.Context) (*entity.Session, error)
	EndSession(ctx context.Context, sessionID string)

	State(ctx context.Context, sessionID string) (*entity.GameView, error)
	Move(ctx context.Context, sessionID string, row, col int) (*entity.GameView, error)
	Restart(ctx context.Context, sessionID string) (*entity.GameView, error)
}

type handlerFunc func(ctx context.Context, sessionID string, msg *Message) (*Message, error)

type Server struct {
	logger      *slog.Logger
	gameUseCase gameUseCase

	handlers map[string]handlerFunc
	srv      *http.Server
}

func New(logger *slog.Logger, port string, gameUseCase gameUseCase) *Server {
	server := &Server{
		logger:      logger.With("component", "websocket"),
		gameUseCase: gameUseCase,

		handlers: make(map[string]handlerFunc),
	}

	server.handlers[actionState] = server.handleState
	server.handlers[actionMove] = server.handleMove
	server.handlers[actionRestart] = server.handleRestart

	server.srv = &http.Server{
		Addr:        ":" + port,
		Handler:     server.Handler(),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 30 * time.Second,
	}

	return server
}

// Handler - routes /ws to the WebSocket endpoint.
func (that *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/ws", websocket.Handler(that.serveConn))

	return mux
}

// Start - starts WebSocket server. Returns nil once Shutdown is called.
func (that *Server) Start() error {
	that.logger.Info("Starting WebSocket server", "addr", that.srv.Addr)

	if err := that.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown - stops accepting connections. Hijacked WebSocket connections
// are not tracked by http.Server and close with the process.
func (that *Server) Shutdown(ctx context.Context) error {
	if err := that.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	return nil
}

// serveConn - one connection is one hot-seat board for its whole lifetime.
func (that *Server) serveConn(conn *websocket.Conn) {
	log := that.logger.With("method", "serveConn")

	defer func() {
		_ = conn.Close()
	}()

	ctx := conn.Request().Context()

	session, err := that.gameUseCase.StartSession(ctx)
	if err != nil {
		log.Error("failed to start session", "error", err)
		_ = that.sendError(conn, "", err)
		return
	}

	defer that.gameUseCase.EndSession(context.WithoutCancel(ctx), session.ID)

	log = log.With("sessionID", session.ID)
	log.Info("WebSocket connection established")

	if err = that.dispatch(ctx, conn, session.ID, &Message{Action: actionState}); err != nil {
		log.Error("failed to send initial state", "error", err)
		return
	}

	err = that.handleMessages(ctx, conn, session.ID)
	switch {
	case errors.Is(err, apperror.ErrSessionNotFound):
		log.Info("session expired, closing connection")
	case err != nil:
		log.Error("error handling messages", "error", err)
	}

	log.Info("WebSocket connection closed")
}

// handleMessages - processes messages from the client until it disconnects.
func (that *Server) handleMessages(ctx context.Context, conn *websocket.Conn, sessionID string) error {
	log := that.logger.With("method", "handleMessages", "sessionID", sessionID)

	for {
		var message Message
		if err := websocket.JSON.Receive(conn, &message); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}

			if isDecodeError(err) {
				log.Warn("failed to unmarshal message", "error", err)
				if err = that.sendError(conn, "", fmt.Errorf("%w: %w", apperror.ErrInvalidPayload, err)); err != nil {
					return err
				}
				continue
			}

			return fmt.Errorf("failed to read message: %w", err)
		}

		if err := that.dispatch(ctx, conn, sessionID, &message); err != nil {
			return err
		}
	}
}

// dispatch - runs the handler for msg and writes its reply. Handler failures
// become error frames. Write failures are returned, and so is a missing
// session after its error frame: the board is gone and the connection must end.
func (that *Server) dispatch(ctx context.Context, conn *websocket.Conn, sessionID string, msg *Message) error {
	log := that.logger.With("method", "dispatch", "action", msg.Action)

	handler, ok := that.handlers[msg.Action]
	if !ok {
		log.Warn("unknown action")
		return that.sendError(conn, msg.Action, fmt.Errorf("%w: %q", apperror.ErrUnknownAction, msg.Action))
	}

	reply, err := handler(ctx, sessionID, msg)
	if err != nil {
		log.Warn("error processing message", "error", err)
		if sendErr := that.sendError(conn, msg.Action, err); sendErr != nil {
			return sendErr
		}

		if errors.Is(err, apperror.ErrSessionNotFound) {
			return err
		}

		return nil
	}

	if err = websocket.JSON.Send(conn, reply); err != nil {
		return fmt.Errorf("failed to send %s: %w", reply.Action, err)
	}

	return nil
}

func (that *Server) sendError(conn *websocket.Conn, action string, cause error) error {
	reply, err := newMessage(actionError, ErrorPayload{
		Action: action,
		Error:  cause.Error(),
	})
	if err != nil {
		return err
	}

	if err = websocket.JSON.Send(conn, reply); err != nil {
		return fmt.Errorf("failed to send error: %w", err)
	}

	return nil
}

func isDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError

	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}
