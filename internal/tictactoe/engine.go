package tictactoe

import (
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/entity"
)

// winLines lists every line in evaluation order: rows, columns, main
// diagonal, anti-diagonal.
var winLines = [8][3]entity.Coord{
	{{Row: 0, Col: 0}, {Row: 0, Col: 1}, {Row: 0, Col: 2}},
	{{Row: 1, Col: 0}, {Row: 1, Col: 1}, {Row: 1, Col: 2}},
	{{Row: 2, Col: 0}, {Row: 2, Col: 1}, {Row: 2, Col: 2}},
	{{Row: 0, Col: 0}, {Row: 1, Col: 0}, {Row: 2, Col: 0}},
	{{Row: 0, Col: 1}, {Row: 1, Col: 1}, {Row: 2, Col: 1}},
	{{Row: 0, Col: 2}, {Row: 1, Col: 2}, {Row: 2, Col: 2}},
	{{Row: 0, Col: 0}, {Row: 1, Col: 1}, {Row: 2, Col: 2}},
	{{Row: 0, Col: 2}, {Row: 1, Col: 1}, {Row: 2, Col: 0}},
}

type Option func(*Engine)

// WithChangeListener - registers a callback invoked after every move or
// restart that changed the board. Ignored moves never trigger it.
func WithChangeListener(listener func(*Engine)) Option {
	return func(that *Engine) {
		that.onChange = listener
	}
}

// Engine holds one board. Turn and outcome are always derived from the board,
// so there is no bookkeeping that could drift. Not safe for concurrent use.
type Engine struct {
	board    entity.Board
	onChange func(*Engine)
}

func NewEngine(opts ...Option) *Engine {
	engine := &Engine{}
	for _, opt := range opts {
		opt(engine)
	}

	return engine
}

// CurrentTurn - X moves whenever the marks are level, O when X is ahead.
func (that *Engine) CurrentTurn() entity.Cell {
	if that.board.Count(entity.MarkX) > that.board.Count(entity.MarkO) {
		return entity.MarkO
	}

	return entity.MarkX
}

// Move - places the current turn's mark at (row, col). Out-of-range cells,
// occupied cells and moves after the game is decided are silently ignored.
func (that *Engine) Move(row, col int) *Engine {
	if !entity.InBounds(row, col) {
		return that
	}

	if that.board[row][col] != entity.Empty {
		return that
	}

	if that.Outcome().IsFinished() {
		return that
	}

	next := that.board
	next[row][col] = that.CurrentTurn()
	that.board = next

	that.notify()

	return that
}

// Restart - replaces the board with an empty one.
func (that *Engine) Restart() *Engine {
	that.board = entity.Board{}

	that.notify()

	return that
}

func (that *Engine) Outcome() entity.Outcome {
	return evaluate(that.board)
}

// Board - returns a copy of the current board.
func (that *Engine) Board() entity.Board {
	return that.board
}

func (that *Engine) MoveCount() int {
	return that.board.Filled()
}

func (that *Engine) notify() {
	if that.onChange != nil {
		that.onChange(that)
	}
}

func evaluate(board entity.Board) entity.Outcome {
	for _, line := range winLines {
		a, b, c := board.At(line[0]), board.At(line[1]), board.At(line[2])
		if a != entity.Empty && a == b && b == c {
			return entity.Win(a, line[:])
		}
	}

	// the game goes on until every cell is taken
	if board.IsFull() {
		return entity.Draw()
	}

	return entity.InProgress()
}
