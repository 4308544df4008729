// internal/rules/sequence.go
package rules

import (
	"sort"

	"github.com/JokerTrickster/board-game-app-sub000/internal/models"
)

const (
	// SequenceLength is the number of cells in a run, wild cell included.
	SequenceLength = 5
	// SequencesToWin ends the game for the player who reaches it.
	SequencesToWin = 2

	maxWildInRun = 1
	maxUsedInRun = 2
)

// DefaultWildCells are the four corners of the 10x10 sequence board.
var DefaultWildCells = []int{1, 10, 91, 100}

// Sequence is an accepted run of board cells in scan order.
type Sequence struct {
	Cells []int `json:"cells"`
	Wild  int   `json:"wild"`
}

// Contains reports whether mapID is part of the sequence.
func (s Sequence) Contains(mapID int) bool {
	for _, c := range s.Cells {
		if c == mapID {
			return true
		}
	}
	return false
}

// SequenceDetector finds newly completed sequences for one player.
// It holds no mutable state and is safe for concurrent use.
type SequenceDetector struct {
	geo  *models.Board
	wild map[int]bool
}

func NewSequenceDetector(rows, cols int, wild []int) *SequenceDetector {
	d := &SequenceDetector{geo: models.NewBoard(rows, cols), wild: make(map[int]bool, len(wild))}
	for _, w := range wild {
		if d.geo.Valid(w) {
			d.wild[w] = true
		}
	}
	return d
}

// IsWild reports whether mapID counts as owned by everyone.
func (d *SequenceDetector) IsWild(mapID int) bool {
	return d.wild[mapID]
}

// Detect returns the sequences formed by owned that are not already in prior.
//
// Every owned or wild cell is tried as a run start, in mapID order, along each
// of the 8 directions. A first pass accepts only runs of 5 owned cells; a
// second pass accepts runs holding exactly one wild cell, so a clean run is
// never shadowed by a wild run over the same cells. A run is abandoned once it
// holds 2 cells consumed by earlier sequences. Non-wild cells of an accepted
// run are consumed immediately, so later starts see them as used.
func (d *SequenceDetector) Detect(owned []int, prior []Sequence) []Sequence {
	mine := make(map[int]bool, len(owned))
	for _, id := range owned {
		if d.geo.Valid(id) && !d.wild[id] {
			mine[id] = true
		}
	}

	used := make(map[int]bool)
	for _, s := range prior {
		for _, c := range s.Cells {
			if !d.wild[c] {
				used[c] = true
			}
		}
	}

	starts := make([]int, 0, len(mine)+len(d.wild))
	for id := range mine {
		starts = append(starts, id)
	}
	for id := range d.wild {
		starts = append(starts, id)
	}
	sort.Ints(starts)

	var found []Sequence
	for _, allowWild := range [...]int{0, maxWildInRun} {
		for _, start := range starts {
			for _, dir := range Directions8 {
				run, wild, ok := d.scan(start, dir, mine, used)
				if !ok || wild > allowWild {
					continue
				}
				for _, c := range run {
					if !d.wild[c] {
						used[c] = true
					}
				}
				found = append(found, Sequence{Cells: run, Wild: wild})
			}
		}
	}
	return found
}

func (d *SequenceDetector) scan(start int, dir Direction, mine, used map[int]bool) ([]int, int, bool) {
	row, col := d.geo.RowCol(start)
	run := make([]int, 0, SequenceLength)
	specialCount, usedCount := 0, 0

	for len(run) < SequenceLength {
		if !d.geo.InBounds(row, col) {
			return nil, 0, false
		}
		id := d.geo.MapID(row, col)
		switch {
		case d.wild[id]:
			specialCount++
		case mine[id]:
			if used[id] {
				usedCount++
			}
		default:
			return nil, 0, false
		}
		if usedCount >= maxUsedInRun || specialCount > maxWildInRun {
			return nil, 0, false
		}
		run = append(run, id)
		row += dir.DR
		col += dir.DC
	}
	return run, specialCount, true
}

// Done reports whether a player holding total sequences has won.
func Done(total int) bool {
	return total >= SequencesToWin
}
