package engine

import (
	"fmt"
	"math/bits"
	"math/rand"
	"strings"
	"time"
)

// Rand is the source of randomness consumed by tile spawning.
// *math/rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
}

// NewRand returns a deterministic generator for the given seed
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// TimeSeededRand returns a generator seeded from the wall clock
func TimeSeededRand() *rand.Rand {
	return NewRand(time.Now().UnixNano())
}

// IsPowerOfTwo reports whether v is a positive power of two
func IsPowerOfTwo(v int) bool {
	return v > 0 && bits.OnesCount(uint(v)) == 1
}

// HasValue reports whether any cell of b equals v
func HasValue(b Board, v int) bool {
	for _, row := range b {
		for _, cell := range row {
			if cell == v {
				return true
			}
		}
	}
	return false
}

// MaxTile returns the largest value on the board
func MaxTile(b Board) int {
	highest := 0
	for _, row := range b {
		for _, v := range row {
			if v > highest {
				highest = v
			}
		}
	}
	return highest
}

// CountEmpty returns the number of empty cells
func CountEmpty(b Board) int {
	n := 0
	for _, row := range b {
		for _, v := range row {
			if v == 0 {
				n++
			}
		}
	}
	return n
}

// CountTiles returns the number of non-empty cells
func CountTiles(b Board) int {
	return b.Size()*b.Size() - CountEmpty(b)
}

// ValidateBoard checks that b is square with the expected size and that
// every cell is 0 or a power of two.
func ValidateBoard(b Board, size int) error {
	if len(b) != size {
		return fmt.Errorf("%w: board has %d rows, want %d", ErrInvalidState, len(b), size)
	}
	for r, row := range b {
		if len(row) != size {
			return fmt.Errorf("%w: row %d has %d cells, want %d", ErrInvalidState, r, len(row), size)
		}
		for c, v := range row {
			if v != 0 && !IsPowerOfTwo(v) {
				return fmt.Errorf("%w: cell (%d,%d) holds %d", ErrInvalidState, r, c, v)
			}
		}
	}
	return nil
}

// Render draws the board as an ASCII grid
func Render(b Board) string {
	width := len(fmt.Sprint(MaxTile(b)))
	if width < 4 {
		width = 4
	}

	line := "+" + strings.Repeat(strings.Repeat("-", width+2)+"+", b.Size())
	var sb strings.Builder
	sb.WriteString(line + "\n")
	for _, row := range b {
		sb.WriteString("|")
		for _, v := range row {
			if v == 0 {
				sb.WriteString(strings.Repeat(" ", width+2) + "|")
			} else {
				fmt.Fprintf(&sb, " %*d |", width, v)
			}
		}
		sb.WriteString("\n" + line + "\n")
	}
	return sb.String()
}
