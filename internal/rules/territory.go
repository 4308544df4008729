// internal/rules/territory.go
package rules

import "github.com/JokerTrickster/board-game-app-sub000/internal/models"

// TerritoryScore sums size squared over every 4-connected region owned by owner.
// The flood fill uses an explicit stack.
func TerritoryScore(b *models.Board, owner string) int {
	total := 0
	for _, size := range RegionSizes(b, owner) {
		total += size * size
	}
	return total
}

// RegionSizes returns the size of each region owned by owner, ordered by the
// lowest mapID in the region.
func RegionSizes(b *models.Board, owner string) []int {
	if b == nil || owner == models.NoOwner {
		return nil
	}
	visited := make([]bool, b.Size())
	stack := make([]int, 0, b.Size())
	var sizes []int

	for id := 1; id <= b.Size(); id++ {
		if visited[id-1] || b.Owner(id) != owner {
			continue
		}
		size := 0
		visited[id-1] = true
		stack = append(stack[:0], id)
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			size++

			row, col := b.RowCol(cur)
			for _, dir := range Directions4 {
				nr, nc := row+dir.DR, col+dir.DC
				if !b.InBounds(nr, nc) {
					continue
				}
				next := b.MapID(nr, nc)
				if visited[next-1] || b.Owner(next) != owner {
					continue
				}
				visited[next-1] = true
				stack = append(stack, next)
			}
		}
		sizes = append(sizes, size)
	}
	return sizes
}
