package matchdomain

import "github.com/google/uuid"

// CellOwner reports which team, if any, owns the cell at (row, col). A cell
// is owned purely by a solve-log entry referencing its position.
type CellOwner func(row, col int) (uuid.UUID, bool)

// DetectGridWin scans an n×n grid for a fully owned line. Scan order is
// rows, then columns, then the main diagonal, then the anti-diagonal; the
// first complete line found is returned, so ties between lines resolve to
// the earliest line in that order.
func DetectGridWin(size int, owner CellOwner) *WinLine {
	if size <= 0 {
		return nil
	}

	for row := 0; row < size; row++ {
		if team, ok := lineOwner(size, func(i int) (uuid.UUID, bool) { return owner(row, i) }); ok {
			return &WinLine{TeamID: team, Kind: LineRow, Index: row}
		}
	}
	for col := 0; col < size; col++ {
		if team, ok := lineOwner(size, func(i int) (uuid.UUID, bool) { return owner(i, col) }); ok {
			return &WinLine{TeamID: team, Kind: LineColumn, Index: col}
		}
	}
	if team, ok := lineOwner(size, func(i int) (uuid.UUID, bool) { return owner(i, i) }); ok {
		return &WinLine{TeamID: team, Kind: LineDiagonal, Index: 0}
	}
	if team, ok := lineOwner(size, func(i int) (uuid.UUID, bool) { return owner(i, size-1-i) }); ok {
		return &WinLine{TeamID: team, Kind: LineAntiDiag, Index: 0}
	}
	return nil
}

// lineOwner reports the single team owning every cell of a line, if any.
func lineOwner(size int, cell func(i int) (uuid.UUID, bool)) (uuid.UUID, bool) {
	first, ok := cell(0)
	if !ok {
		return uuid.Nil, false
	}
	for i := 1; i < size; i++ {
		team, ok := cell(i)
		if !ok || team != first {
			return uuid.Nil, false
		}
	}
	return first, true
}
