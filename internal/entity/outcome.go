package entity

type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusWin        Status = "win"
	StatusDraw       Status = "draw"
)

// Outcome is the result of evaluating a board. Winner and Line are only set
// for StatusWin.
type Outcome struct {
	Status Status
	Winner Cell
	Line   []Coord
}

func InProgress() Outcome {
	return Outcome{Status: StatusInProgress}
}

func Win(mark Cell, line []Coord) Outcome {
	return Outcome{Status: StatusWin, Winner: mark, Line: line}
}

func Draw() Outcome {
	return Outcome{Status: StatusDraw}
}

func (that Outcome) IsInProgress() bool {
	return that.Status == StatusInProgress
}

func (that Outcome) IsWin() bool {
	return that.Status == StatusWin
}

func (that Outcome) IsDraw() bool {
	return that.Status == StatusDraw
}

// IsFinished reports whether the game reached a terminal state.
func (that Outcome) IsFinished() bool {
	return that.IsWin() || that.IsDraw()
}
