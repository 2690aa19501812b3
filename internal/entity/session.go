package entity

import "time"

// Session is one hot-seat board held in memory for a connected client.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// GameView is what a client needs to draw the board after a state change.
type GameView struct {
	SessionID  string  `json:"session_id"`
	Board      Board   `json:"board"`
	Turn       Cell    `json:"turn"`
	Status     Status  `json:"status"`
	Winner     Cell    `json:"winner,omitempty"`
	Line       []Coord `json:"line,omitempty"`
	MoveCount  int     `json:"move_count"`
	CanRestart bool    `json:"can_restart"`
	Changed    bool    `json:"changed"`
}

