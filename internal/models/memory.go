package models

type BlockStatus string

const (
	BlockFree      BlockStatus = "free"
	BlockAllocated BlockStatus = "allocated"
)

type MemoryBlock struct {
	Start     int         `json:"start"`
	Size      int         `json:"size"`
	Status    BlockStatus `json:"status"`
	ProcessID string      `json:"process_id,omitempty"`
}

// End is the first address past the block.
func (b MemoryBlock) End() int {
	return b.Start + b.Size
}

func (b MemoryBlock) Free() bool {
	return b.Status == BlockFree
}

type MemoryStats struct {
	FreeMemory       int `json:"free_memory"`
	AllocatedMemory  int `json:"allocated_memory"`
	FreeHoles        int `json:"free_holes"`
	LargestFreeBlock int `json:"largest_free_block"`
}

// UsagePercent is the allocated share of the whole range.
func (s MemoryStats) UsagePercent() float64 {
	total := s.FreeMemory + s.AllocatedMemory
	if total == 0 {
		return 0
	}
	return float64(s.AllocatedMemory) / float64(total) * 100
}
