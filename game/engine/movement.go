package engine

import (
	"fmt"
	"slices"
)

// Board is a square grid of tile values, 0 meaning empty. Functions in this
// package never modify a Board they receive; they return new ones.
type Board [][]int

// NewBoard returns an all-zero size×size board
func NewBoard(size int) Board {
	b := make(Board, size)
	for i := range b {
		b[i] = make([]int, size)
	}
	return b
}

// Size returns the board dimension
func (b Board) Size() int {
	return len(b)
}

// Get returns the value at row, col
func (b Board) Get(row, col int) int {
	return b[row][col]
}

// Clone returns a deep copy of the board
func (b Board) Clone() Board {
	out := make(Board, len(b))
	for i, row := range b {
		out[i] = append([]int(nil), row...)
	}
	return out
}

// Equal reports whether both boards hold the same values
func (b Board) Equal(other Board) bool {
	if len(b) != len(other) {
		return false
	}
	for i := range b {
		if !slices.Equal(b[i], other[i]) {
			return false
		}
	}
	return true
}

// EmptyCells returns the positions of every 0 cell in row-major order
func (b Board) EmptyCells() []Position {
	var empty []Position
	for r, row := range b {
		for c, v := range row {
			if v == 0 {
				empty = append(empty, Position{Row: r, Col: c})
			}
		}
	}
	return empty
}

// compress left-aligns the non-zero values of a row and pads with zeros
func compress(row []int) []int {
	out := make([]int, len(row))
	i := 0
	for _, v := range row {
		if v != 0 {
			out[i] = v
			i++
		}
	}
	return out
}

// merge doubles each equal adjacent pair in one left-to-right pass. A merged
// cell is not compared again against its new right neighbour.
func merge(row []int) ([]int, int, int) {
	out := append([]int(nil), row...)
	score, merges := 0, 0
	for i := 0; i < len(out)-1; i++ {
		if out[i] != 0 && out[i] == out[i+1] {
			out[i] *= 2
			score += out[i]
			out[i+1] = 0
			merges++
		}
	}
	return out, score, merges
}

// slideRow runs compress, merge, compress on a single row
func slideRow(row []int) ([]int, int, int) {
	merged, score, merges := merge(compress(row))
	return compress(merged), score, merges
}

func moveLeft(b Board) (Board, int, int) {
	out := make(Board, len(b))
	score, merges := 0, 0
	for i, row := range b {
		var s, m int
		out[i], s, m = slideRow(row)
		score += s
		merges += m
	}
	return out, score, merges
}

func reverseRows(b Board) Board {
	out := make(Board, len(b))
	for i, row := range b {
		n := len(row)
		out[i] = make([]int, n)
		for j, v := range row {
			out[i][n-1-j] = v
		}
	}
	return out
}

func transpose(b Board) Board {
	n := len(b)
	out := NewBoard(n)
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			out[c][r] = b[r][c]
		}
	}
	return out
}

func moveRight(b Board) (Board, int, int) {
	moved, score, merges := moveLeft(reverseRows(b))
	return reverseRows(moved), score, merges
}

// Slide applies a move to b and returns the new board together with the
// score gained. Every direction is reduced to a move-left between a pair of
// inverse transforms.
func Slide(b Board, dir Direction) (Board, MoveResult, error) {
	var (
		next          Board
		score, merges int
	)

	switch dir {
	case Left:
		next, score, merges = moveLeft(b)
	case Right:
		next, score, merges = moveRight(b)
	case Up:
		next, score, merges = moveLeft(transpose(b))
		next = transpose(next)
	case Down:
		next, score, merges = moveRight(transpose(b))
		next = transpose(next)
	default:
		return b, MoveResult{}, fmt.Errorf("%w: %q", ErrInvalidDirection, string(dir))
	}

	return next, MoveResult{
		Direction:  dir,
		Changed:    !next.Equal(b),
		ScoreDelta: score,
		Merges:     merges,
	}, nil
}

// IsTerminal reports whether the game on b has ended: the winning value is
// on the board, or the board is full and no adjacent pair can merge.
func IsTerminal(b Board, winningValue int) bool {
	if HasValue(b, winningValue) {
		return true
	}
	for _, row := range b {
		for _, v := range row {
			if v == 0 {
				return false
			}
		}
	}
	n := len(b)
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			if c+1 < n && b[r][c] == b[r][c+1] {
				return false
			}
			if r+1 < n && b[r][c] == b[r+1][c] {
				return false
			}
		}
	}
	return true
}

// SpawnTile places one tile on a uniformly chosen empty cell, its value
// picked uniformly from values. It returns b itself and nil when the board is full.
func SpawnTile(b Board, rng Rand, values []int) (Board, *Spawn) {
	empty := b.EmptyCells()
	if len(empty) == 0 || len(values) == 0 {
		return b, nil
	}

	pos := empty[rng.Intn(len(empty))]
	val := values[rng.Intn(len(values))]

	next := b.Clone()
	next[pos.Row][pos.Col] = val
	return next, &Spawn{Row: pos.Row, Col: pos.Col, Value: val}
}
