package entity

// BoardSize is the side length of the board.
const BoardSize = 3

// Cell is the content of one board square.
type Cell string

const (
	Empty Cell = ""
	MarkX Cell = "X"
	MarkO Cell = "O"
)

// Coord addresses a cell by row and column.
type Coord struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Board is a row-major 3x3 grid. It is a value type: assigning or returning
// a Board copies it.
type Board [BoardSize][BoardSize]Cell

// InBounds reports whether (row, col) addresses a cell on the board.
func InBounds(row, col int) bool {
	return row >= 0 && row < BoardSize && col >= 0 && col < BoardSize
}

// At returns the cell at coord.
func (that Board) At(coord Coord) Cell {
	return that[coord.Row][coord.Col]
}

// Count returns the number of cells holding mark.
func (that Board) Count(mark Cell) int {
	count := 0
	for _, row := range that {
		for _, cell := range row {
			if cell == mark {
				count++
			}
		}
	}

	return count
}

// Filled returns the number of non-empty cells.
func (that Board) Filled() int {
	return BoardSize*BoardSize - that.Count(Empty)
}

// IsFull reports whether every cell is occupied.
func (that Board) IsFull() bool {
	return that.Count(Empty) == 0
}
