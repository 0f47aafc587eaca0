package memory

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prabalesh/osdash/internal/models"
)

func free(start, size int) models.MemoryBlock {
	return models.MemoryBlock{Start: start, Size: size, Status: models.BlockFree}
}

func used(start, size int, pid string) models.MemoryBlock {
	return models.MemoryBlock{Start: start, Size: size, Status: models.BlockAllocated, ProcessID: pid}
}

// fragmented returns an allocator with holes of 100, 500 and 200 separated by
// small allocated blocks.
func fragmented(t *testing.T) *Allocator {
	t.Helper()
	a, err := New(830)
	require.NoError(t, err)
	for _, req := range []struct {
		pid  string
		size int
	}{{"A", 100}, {"B", 10}, {"C", 500}, {"D", 10}, {"E", 200}, {"F", 10}} {
		require.NoError(t, a.Allocate(req.pid, req.size, FirstFit))
	}
	for _, pid := range []string{"A", "C", "E"} {
		require.NoError(t, a.Deallocate(pid))
	}
	require.Equal(t, []models.MemoryBlock{
		free(0, 100), used(100, 10, "B"), free(110, 500), used(610, 10, "D"), free(620, 200), used(820, 10, "F"),
	}, a.Snapshot())
	return a
}

func TestNew_RejectsNonPositiveTotal(t *testing.T) {
	_, err := New(0)
	assert.ErrorIs(t, err, ErrInvalidSize)
}

func TestAllocator_Placement(t *testing.T) {
	tests := []struct {
		name     string
		strategy Strategy
		start    int
	}{
		{"first fit takes the first block large enough", FirstFit, 110},
		{"best fit takes the tightest block", BestFit, 620},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := fragmented(t)
			require.NoError(t, a.Allocate("P", 150, tt.strategy))

			var got models.MemoryBlock
			for _, b := range a.Snapshot() {
				if b.ProcessID == "P" {
					got = b
				}
			}
			assert.Equal(t, used(tt.start, 150, "P"), got)
			assert.NoError(t, a.Verify())
		})
	}
}

func TestAllocator_BestFitTieKeepsAddressOrder(t *testing.T) {
	a, err := New(30)
	require.NoError(t, err)
	for _, pid := range []string{"A", "B", "C"} {
		require.NoError(t, a.Allocate(pid, 10, FirstFit))
	}
	require.NoError(t, a.Deallocate("A"))
	require.NoError(t, a.Deallocate("C"))

	require.NoError(t, a.Allocate("P", 10, BestFit))
	assert.Equal(t, used(0, 10, "P"), a.Snapshot()[0])
}

func TestAllocator_SplitLeavesTrailingHole(t *testing.T) {
	a, err := New(1000)
	require.NoError(t, err)
	require.NoError(t, a.Allocate("P1", 300, FirstFit))

	assert.Equal(t, []models.MemoryBlock{used(0, 300, "P1"), free(300, 700)}, a.Snapshot())
}

func TestAllocator_ExactFitLeavesNoEmptyBlock(t *testing.T) {
	a := fragmented(t)
	require.NoError(t, a.Allocate("P", 100, FirstFit))

	snap := a.Snapshot()
	assert.Len(t, snap, 6)
	assert.Equal(t, used(0, 100, "P"), snap[0])
	assert.NoError(t, a.Verify())
}

func TestAllocator_AllocateErrors(t *testing.T) {
	a, err := New(100)
	require.NoError(t, err)
	require.NoError(t, a.Allocate("P1", 60, FirstFit))
	before := a.Snapshot()

	tests := []struct {
		name string
		pid  string
		size int
		err  error
	}{
		{"zero size", "P2", 0, ErrInvalidSize},
		{"negative size", "P2", -5, ErrInvalidSize},
		{"empty pid", "", 10, ErrInvalidProcess},
		{"already allocated", "P1", 10, ErrProcessAlreadyAllocated},
		{"too large", "P2", 41, ErrNoSuitableBlock},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, a.Allocate(tt.pid, tt.size, BestFit), tt.err)
			assert.Equal(t, before, a.Snapshot())
		})
	}
}

func TestAllocator_DeallocateCoalesces(t *testing.T) {
	a, err := New(100)
	require.NoError(t, err)
	for _, pid := range []string{"A", "B", "C", "D"} {
		require.NoError(t, a.Allocate(pid, 25, FirstFit))
	}

	require.NoError(t, a.Deallocate("A"))
	require.NoError(t, a.Deallocate("C"))
	assert.Equal(t, 2, a.Stats().FreeHoles)

	// freeing B joins A, B and C into one hole
	require.NoError(t, a.Deallocate("B"))
	assert.Equal(t, []models.MemoryBlock{free(0, 75), used(75, 25, "D")}, a.Snapshot())

	require.NoError(t, a.Deallocate("D"))
	assert.Equal(t, []models.MemoryBlock{free(0, 100)}, a.Snapshot())
}

func TestAllocator_DeallocateUnknown(t *testing.T) {
	a, err := New(100)
	require.NoError(t, err)
	assert.ErrorIs(t, a.Deallocate("ghost"), ErrProcessNotFound)
	assert.Equal(t, []models.MemoryBlock{free(0, 100)}, a.Snapshot())
}

func TestAllocator_Stats(t *testing.T) {
	a := fragmented(t)
	want := models.MemoryStats{FreeMemory: 800, AllocatedMemory: 30, FreeHoles: 3, LargestFreeBlock: 500}

	assert.Equal(t, want, a.Stats())
	assert.Equal(t, want, a.Stats())
	assert.Equal(t, a.Snapshot(), a.Snapshot())
	assert.InDelta(t, 30.0/830*100, a.Stats().UsagePercent(), 1e-9)
}

func TestAllocator_Reset(t *testing.T) {
	a := fragmented(t)
	require.NoError(t, a.Reset(50))
	assert.Equal(t, 50, a.Total())
	assert.Equal(t, []models.MemoryBlock{free(0, 50)}, a.Snapshot())
	assert.False(t, a.Owns("B"))

	assert.ErrorIs(t, a.Reset(-1), ErrInvalidSize)
	assert.Equal(t, 50, a.Total())
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("Best Fit")
	require.NoError(t, err)
	assert.Equal(t, BestFit, s)

	s, err = ParseStrategy("first")
	require.NoError(t, err)
	assert.Equal(t, FirstFit, s)

	_, err = ParseStrategy("worst")
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestAllocator_RandomOperationsKeepTiling(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	a, err := New(1024)
	require.NoError(t, err)

	owners := map[string]bool{}
	for i := 0; i < 2000; i++ {
		pid := fmt.Sprintf("P%d", r.Intn(20))
		if owners[pid] && r.Intn(2) == 0 {
			require.NoError(t, a.Deallocate(pid))
			delete(owners, pid)
		} else {
			strategy := Strategy(r.Intn(2))
			err := a.Allocate(pid, 1+r.Intn(200), strategy)
			switch {
			case err == nil:
				owners[pid] = true
			case owners[pid]:
				assert.ErrorIs(t, err, ErrProcessAlreadyAllocated)
			default:
				assert.ErrorIs(t, err, ErrNoSuitableBlock)
			}
		}
		require.NoError(t, a.Verify(), "after op %d: %v", i, a)

		stats := a.Stats()
		require.Equal(t, a.Total(), stats.FreeMemory+stats.AllocatedMemory)
	}
}
