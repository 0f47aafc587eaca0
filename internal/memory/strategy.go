package memory

import (
	"fmt"
	"strings"

	"github.com/prabalesh/osdash/internal/models"
)

// Strategy chooses which free block receives an allocation.
type Strategy int

const (
	FirstFit Strategy = iota
	BestFit
)

func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "first", "first-fit", "firstfit", "first fit":
		return FirstFit, nil
	case "best", "best-fit", "bestfit", "best fit":
		return BestFit, nil
	}
	return FirstFit, fmt.Errorf("%q: %w", name, ErrUnknownStrategy)
}

func (s Strategy) String() string {
	if s == BestFit {
		return "Best Fit"
	}
	return "First Fit"
}

// place returns the index of the block to carve for size, or -1.
func (s Strategy) place(blocks []models.MemoryBlock, size int) int {
	chosen := -1
	for i, b := range blocks {
		if !b.Free() || b.Size < size {
			continue
		}
		if s == FirstFit {
			return i
		}
		if chosen < 0 || b.Size-size < blocks[chosen].Size-size {
			chosen = i
		}
	}
	return chosen
}
