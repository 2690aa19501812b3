package websocket

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-hotseat/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/entity"
)

func (that *Server) handleState(ctx context.Context, sessionID string, _ *Message) (*Message, error) {
	view, err := that.gameUseCase.State(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get state: %w", err)
	}

	return newMessage(actionState, view)
}

func (that *Server) handleMove(ctx context.Context, sessionID string, msg *Message) (*Message, error) {
	log := that.logger.With("method", "handleMove", "sessionID", sessionID)

	var payload MovePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return nil, fmt.Errorf("%w: %w", apperror.ErrInvalidPayload, err)
	}

	if payload.Row == nil || payload.Col == nil {
		return nil, fmt.Errorf("%w: row and col are required", apperror.ErrInvalidPayload)
	}

	row, col := *payload.Row, *payload.Col
	if !entity.InBounds(row, col) {
		return nil, fmt.Errorf("%w: (%d, %d)", apperror.ErrInvalidCell, row, col)
	}

	view, err := that.gameUseCase.Move(ctx, sessionID, row, col)
	if err != nil {
		return nil, fmt.Errorf("failed to make move: %w", err)
	}

	log.DebugContext(ctx, "move handled", "row", row, "col", col, "changed", view.Changed)

	return newMessage(actionState, view)
}

func (that *Server) handleRestart(ctx context.Context, sessionID string, _ *Message) (*Message, error) {
	view, err := that.gameUseCase.Restart(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to restart: %w", err)
	}

	return newMessage(actionState, view)
}
