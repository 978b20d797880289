package model

// Position identifies a cell on the board
type Position struct {
	Row int // 0-indexed from top
	Col int // 0-indexed from left
}

// Board is the square grid of a match
type Board struct {
	Size  int     // Grid dimension, participants + 1 at start
	Cells [][]int // Row-major: Cells[row][col], 0 means empty, otherwise a symbol
}

// NewBoard creates an empty board of the given size
func NewBoard(size int) *Board {
	cells := make([][]int, size)
	for i := range cells {
		cells[i] = make([]int, size)
	}
	return &Board{
		Size:  size,
		Cells: cells,
	}
}

// Get returns the symbol at the given position, or 0 if empty or out of range
func (b *Board) Get(pos Position) int {
	if !b.IsValidPosition(pos) {
		return 0
	}
	return b.Cells[pos.Row][pos.Col]
}

// Set places a symbol at the given position
func (b *Board) Set(pos Position, symbol int) {
	if b.IsValidPosition(pos) {
		b.Cells[pos.Row][pos.Col] = symbol
	}
}

// IsEmpty returns true if the cell at the given position is empty
func (b *Board) IsEmpty(pos Position) bool {
	return b.Get(pos) == 0
}

// IsValidPosition returns true if the position is within bounds
func (b *Board) IsValidPosition(pos Position) bool {
	return pos.Row >= 0 && pos.Row < b.Size && pos.Col >= 0 && pos.Col < b.Size
}

// IsFull returns true if all cells are filled
func (b *Board) IsFull() bool {
	return b.EmptyCount() == 0
}

// EmptyCount returns the number of empty cells
func (b *Board) EmptyCount() int {
	count := 0
	for _, row := range b.Cells {
		for _, cell := range row {
			if cell == 0 {
				count++
			}
		}
	}
	return count
}

// Row returns the positions of the given row, left to right
func (b *Board) Row(row int) []Position {
	if row < 0 || row >= b.Size {
		return nil
	}
	result := make([]Position, b.Size)
	for col := range result {
		result[col] = Position{Row: row, Col: col}
	}
	return result
}

// Col returns the positions of the given column, top to bottom
func (b *Board) Col(col int) []Position {
	if col < 0 || col >= b.Size {
		return nil
	}
	result := make([]Position, b.Size)
	for row := range result {
		result[row] = Position{Row: row, Col: col}
	}
	return result
}

// Diagonal returns the main diagonal positions, (0,0) to (n-1,n-1)
func (b *Board) Diagonal() []Position {
	result := make([]Position, b.Size)
	for i := range result {
		result[i] = Position{Row: i, Col: i}
	}
	return result
}

// AntiDiagonal returns the anti-diagonal positions, (0,n-1) to (n-1,0)
func (b *Board) AntiDiagonal() []Position {
	result := make([]Position, b.Size)
	for i := range result {
		result[i] = Position{Row: i, Col: b.Size - 1 - i}
	}
	return result
}

// Grid returns a deep copy of the cells
func (b *Board) Grid() [][]int {
	if b == nil {
		return nil
	}
	cells := make([][]int, len(b.Cells))
	for i, row := range b.Cells {
		cells[i] = append([]int(nil), row...)
	}
	return cells
}
