package memory

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/prabalesh/osdash/internal/models"
)

type Option func(*Allocator)

func WithLogger(logger *slog.Logger) Option {
	return func(a *Allocator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// Allocator manages a contiguous range [0, total) as an ordered list of
// blocks that always tiles the whole range. It is not safe for concurrent use.
type Allocator struct {
	total  int
	blocks []models.MemoryBlock
	logger *slog.Logger
}

func New(total int, opts ...Option) (*Allocator, error) {
	a := &Allocator{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(a)
	}
	if err := a.Reset(total); err != nil {
		return nil, err
	}
	return a, nil
}

// Reset replaces the whole range with a single free block of the given size.
func (a *Allocator) Reset(total int) error {
	if total <= 0 {
		return fmt.Errorf("total memory %d: %w", total, ErrInvalidSize)
	}
	a.total = total
	a.blocks = []models.MemoryBlock{{Start: 0, Size: total, Status: models.BlockFree}}
	a.logger.Info("memory reset", slog.Int("total", total))
	return nil
}

func (a *Allocator) Total() int {
	return a.total
}

func (a *Allocator) String() string {
	parts := make([]string, 0, len(a.blocks))
	for _, b := range a.blocks {
		if b.Free() {
			parts = append(parts, fmt.Sprintf("[%d+%d free]", b.Start, b.Size))
		} else {
			parts = append(parts, fmt.Sprintf("[%d+%d %s]", b.Start, b.Size, b.ProcessID))
		}
	}
	return strings.Join(parts, "")
}

// Owns reports whether pid currently holds an allocated block.
func (a *Allocator) Owns(pid string) bool {
	for _, b := range a.blocks {
		if !b.Free() && b.ProcessID == pid {
			return true
		}
	}
	return false
}

// Allocate carves size units for pid out of the block chosen by strategy.
// A process may hold at most one block at a time.
func (a *Allocator) Allocate(pid string, size int, strategy Strategy) error {
	if strings.TrimSpace(pid) == "" {
		return ErrInvalidProcess
	}
	if size <= 0 {
		return fmt.Errorf("allocate %d for %q: %w", size, pid, ErrInvalidSize)
	}
	if a.Owns(pid) {
		return fmt.Errorf("process '%s': %w", pid, ErrProcessAlreadyAllocated)
	}

	i := strategy.place(a.blocks, size)
	if i < 0 {
		a.logger.Debug("allocation failed", slog.String("pid", pid), slog.Int("size", size), slog.String("strategy", strategy.String()))
		return fmt.Errorf("allocate %d for '%s' using %v: %w", size, pid, strategy, ErrNoSuitableBlock)
	}

	block := a.blocks[i]
	leftover := block.Size - size
	a.blocks[i] = models.MemoryBlock{Start: block.Start, Size: size, Status: models.BlockAllocated, ProcessID: pid}
	if leftover > 0 {
		hole := models.MemoryBlock{Start: block.Start + size, Size: leftover, Status: models.BlockFree}
		a.blocks = append(a.blocks[:i+1], append([]models.MemoryBlock{hole}, a.blocks[i+1:]...)...)
	}
	a.logger.Debug("allocated",
		slog.String("pid", pid),
		slog.Int("start", block.Start),
		slog.Int("size", size),
		slog.String("strategy", strategy.String()),
	)
	return nil
}

// Deallocate frees every block owned by pid and merges adjacent holes.
func (a *Allocator) Deallocate(pid string) error {
	found := false
	for i := range a.blocks {
		if !a.blocks[i].Free() && a.blocks[i].ProcessID == pid {
			a.blocks[i].Status = models.BlockFree
			a.blocks[i].ProcessID = ""
			found = true
		}
	}
	if !found {
		return fmt.Errorf("process '%s': %w", pid, ErrProcessNotFound)
	}
	a.coalesce()
	a.logger.Debug("deallocated", slog.String("pid", pid), slog.Int("blocks", len(a.blocks)))
	return nil
}

// coalesce merges every run of adjacent free blocks into one block.
func (a *Allocator) coalesce() {
	sort.Slice(a.blocks, func(i, j int) bool {
		return a.blocks[i].Start < a.blocks[j].Start
	})
	merged := make([]models.MemoryBlock, 0, len(a.blocks))
	for _, b := range a.blocks {
		if n := len(merged); n > 0 {
			last := &merged[n-1]
			if last.Free() && b.Free() && last.End() == b.Start {
				last.Size += b.Size
				continue
			}
		}
		merged = append(merged, b)
	}
	a.blocks = merged
}

// Snapshot returns the blocks in address order.
func (a *Allocator) Snapshot() []models.MemoryBlock {
	out := make([]models.MemoryBlock, len(a.blocks))
	copy(out, a.blocks)
	return out
}

func (a *Allocator) Stats() models.MemoryStats {
	var s models.MemoryStats
	for _, b := range a.blocks {
		if b.Free() {
			s.FreeMemory += b.Size
			s.FreeHoles++
			s.LargestFreeBlock = max(s.LargestFreeBlock, b.Size)
		} else {
			s.AllocatedMemory += b.Size
		}
	}
	return s
}

// Verify checks that the blocks tile [0, total) with no gaps, overlaps,
// empty blocks, or adjacent unmerged holes.
func (a *Allocator) Verify() error {
	next := 0
	for i, b := range a.blocks {
		if b.Size <= 0 {
			return fmt.Errorf("block %d at %d has size %d", i, b.Start, b.Size)
		}
		if b.Start != next {
			return fmt.Errorf("block %d starts at %d, expected %d", i, b.Start, next)
		}
		if b.Free() != (b.ProcessID == "") {
			return fmt.Errorf("block %d at %d has status %s and owner %q", i, b.Start, b.Status, b.ProcessID)
		}
		if i > 0 && b.Free() && a.blocks[i-1].Free() {
			return fmt.Errorf("blocks %d and %d are adjacent holes", i-1, i)
		}
		next = b.End()
	}
	if next != a.total {
		return fmt.Errorf("blocks cover %d of %d", next, a.total)
	}
	return nil
}
