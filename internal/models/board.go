// internal/models/board.go
package models

import (
	"errors"
	"fmt"
)

// NoOwner marks an unclaimed cell.
const NoOwner = ""

var ErrOutOfBounds = errors.New("cell out of bounds")

// Board is a fixed rows x cols grid addressed by 1-based row-major mapIDs.
// Each cell stores a single owner, so a cell can never have two owners.
type Board struct {
	Rows   int      `json:"rows"`
	Cols   int      `json:"cols"`
	Owners []string `json:"owners"`
}

func NewBoard(rows, cols int) *Board {
	return &Board{
		Rows:   rows,
		Cols:   cols,
		Owners: make([]string, rows*cols),
	}
}

func (b *Board) Size() int {
	return b.Rows * b.Cols
}

func (b *Board) InBounds(row, col int) bool {
	return row >= 0 && row < b.Rows && col >= 0 && col < b.Cols
}

// Valid reports whether mapID addresses a cell on this board.
func (b *Board) Valid(mapID int) bool {
	return mapID >= 1 && mapID <= b.Size()
}

// MapID converts a zero-based (row, col) into a 1-based mapID.
func (b *Board) MapID(row, col int) int {
	return row*b.Cols + col + 1
}

// RowCol converts a 1-based mapID into zero-based (row, col).
func (b *Board) RowCol(mapID int) (int, int) {
	idx := mapID - 1
	return idx / b.Cols, idx % b.Cols
}

// Owner returns the cell owner or NoOwner for unclaimed or invalid cells.
func (b *Board) Owner(mapID int) string {
	if !b.Valid(mapID) {
		return NoOwner
	}
	return b.Owners[mapID-1]
}

// Claim assigns the cell to owner, replacing any previous owner.
func (b *Board) Claim(mapID int, owner string) error {
	if !b.Valid(mapID) {
		return fmt.Errorf("claim %d on %dx%d board: %w", mapID, b.Rows, b.Cols, ErrOutOfBounds)
	}
	b.Owners[mapID-1] = owner
	return nil
}

// Release clears the cell owner.
func (b *Board) Release(mapID int) {
	if b.Valid(mapID) {
		b.Owners[mapID-1] = NoOwner
	}
}

// CellsOwnedBy lists the mapIDs owned by owner in ascending order.
func (b *Board) CellsOwnedBy(owner string) []int {
	var cells []int
	for i, o := range b.Owners {
		if o == owner && owner != NoOwner {
			cells = append(cells, i+1)
		}
	}
	return cells
}

// Clear releases every cell.
func (b *Board) Clear() {
	for i := range b.Owners {
		b.Owners[i] = NoOwner
	}
}

func (b *Board) Clone() *Board {
	if b == nil {
		return nil
	}
	owners := make([]string, len(b.Owners))
	copy(owners, b.Owners)
	return &Board{Rows: b.Rows, Cols: b.Cols, Owners: owners}
}
