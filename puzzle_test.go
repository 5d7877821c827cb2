/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"testing"
)

func TestGeneratePuzzleSolutionIsValid(t *testing.T) {
	p := generatePuzzle("medium")

	checkGroup := func(t *testing.T, name string, indices [gridSize]int) {
		t.Helper()
		seen := [gridSize + 1]bool{}
		for _, idx := range indices {
			v := p.Solution[idx]
			if v < 1 || v > 9 {
				t.Fatalf("%s: cell %d holds %d, want 1-9", name, idx, v)
			}
			if seen[v] {
				t.Fatalf("%s: value %d repeated", name, v)
			}
			seen[v] = true
		}
	}

	for i := 0; i < gridSize; i++ {
		var row, col, box [gridSize]int
		for j := 0; j < gridSize; j++ {
			row[j] = i*gridSize + j
			col[j] = j*gridSize + i
			boxRow := (i/3)*3 + j/3
			boxCol := (i%3)*3 + j%3
			box[j] = boxRow*gridSize + boxCol
		}
		checkGroup(t, "row", row)
		checkGroup(t, "column", col)
		checkGroup(t, "box", box)
	}
}

func TestGeneratePuzzleErasureCounts(t *testing.T) {
	for difficulty, want := range difficultyErasures {
		p := generatePuzzle(difficulty)
		if got := emptyCells(p.Initial); got != want {
			t.Errorf("difficulty %q: %d empty cells, want %d", difficulty, got, want)
		}
	}
}

func TestGeneratePuzzleUnknownDifficultyFallsBack(t *testing.T) {
	p := generatePuzzle("bogus")
	if got, want := emptyCells(p.Initial), difficultyErasures[defaultDifficulty]; got != want {
		t.Errorf("unknown difficulty: %d empty cells, want %d", got, want)
	}
}

func TestGeneratePuzzleInitialMatchesSolution(t *testing.T) {
	p := generatePuzzle("easy")
	for i, v := range p.Initial {
		if v != 0 && v != p.Solution[i] {
			t.Fatalf("cell %d: initial %d disagrees with solution %d", i, v, p.Solution[i])
		}
	}
	if emptyCells(p.Solution) != 0 {
		t.Fatal("solution contains empty cells")
	}
}
