package websocket

import (
	"encoding/json"
	"fmt"
)

const (
	actionState   = "game:state"
	actionMove    = "game:move"
	actionRestart = "game:restart"
	actionError   = "error"
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MovePayload - cell requested by a game:move message. Pointers tell a
// missing coordinate apart from zero.
type MovePayload struct {
	Row *int `json:"row"`
	Col *int `json:"col"`
}

type ErrorPayload struct {
	Action string `json:"action,omitempty"`
	Error  string `json:"error"`
}

func newMessage(action string, payload any) (*Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", action, err)
	}

	return &Message{
		Action:  action,
		Payload: raw,
	}, nil
}
