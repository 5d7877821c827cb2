/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"math/rand"
)

const (
	gridSize  = 9
	gridCells = gridSize * gridSize
)

// Cells erased per difficulty. Unknown labels fall back to medium.
var difficultyErasures = map[string]int{
	"easy":   30,
	"medium": 45,
	"hard":   55,
}

const defaultDifficulty = "medium"

// Puzzle is one round's board: the erased grid handed to players and the
// solved grid it was erased from. Empty cells hold 0.
type Puzzle struct {
	Initial  [gridCells]int
	Solution [gridCells]int
}

// generatePuzzle fills a complete valid grid by randomized backtracking,
// then erases a difficulty-dependent number of cells.
func generatePuzzle(difficulty string) *Puzzle {
	var grid [gridCells]int
	fillGrid(&grid)

	p := &Puzzle{
		Initial:  grid,
		Solution: grid,
	}

	erase, ok := difficultyErasures[difficulty]
	if !ok {
		erase = difficultyErasures[defaultDifficulty]
	}

	for erase > 0 {
		idx := rand.Intn(gridCells)
		if p.Initial[idx] != 0 {
			p.Initial[idx] = 0
			erase--
		}
	}

	return p
}

func fillGrid(grid *[gridCells]int) bool {
	for i := 0; i < gridCells; i++ {
		if grid[i] != 0 {
			continue
		}

		nums := rand.Perm(gridSize)
		for _, n := range nums {
			num := n + 1
			if validPlacement(grid, i, num) {
				grid[i] = num
				if fillGrid(grid) {
					return true
				}
				grid[i] = 0
			}
		}
		return false
	}
	return true
}

// validPlacement reports whether num can go at index without repeating in
// its row, column, or 3x3 box.
func validPlacement(grid *[gridCells]int, index, num int) bool {
	row := index / gridSize
	col := index % gridSize
	boxRow := row - (row % 3)
	boxCol := col - (col % 3)

	for i := 0; i < gridSize; i++ {
		if grid[row*gridSize+i] == num {
			return false
		}
		if grid[i*gridSize+col] == num {
			return false
		}
		r := boxRow + i/3
		c := boxCol + i%3
		if grid[r*gridSize+c] == num {
			return false
		}
	}
	return true
}

// emptyCells counts the erased cells of a grid.
func emptyCells(grid [gridCells]int) int {
	count := 0
	for _, v := range grid {
		if v == 0 {
			count++
		}
	}
	return count
}
