package collector

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/prabalesh/osdash/internal/models"
)

// Sampler reads a procfs tree and turns the busiest host processes into
// simulation templates. It never signals or executes anything.
type Sampler struct {
	procRoot string
	max      int
}

func NewSampler(procRoot string, max int) *Sampler {
	if procRoot == "" {
		procRoot = "/proc"
	}
	if max <= 0 {
		max = 8
	}
	return &Sampler{procRoot: procRoot, max: max}
}

func (s *Sampler) path(parts ...string) string {
	return filepath.Join(append([]string{s.procRoot}, parts...)...)
}

// Sample returns up to max processes ordered by CPU time, busiest first.
func (s *Sampler) Sample() (models.Workload, error) {
	entries, err := os.ReadDir(s.procRoot)
	if err != nil {
		return models.Workload{}, fmt.Errorf("read %s: %w", s.procRoot, err)
	}

	var processes []models.HostProcess
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		// Check if directory name is a PID (numeric)
		pid, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}

		if proc, ok := s.getProcessInfo(pid); ok {
			processes = append(processes, proc)
		}
	}

	sort.SliceStable(processes, func(i, j int) bool {
		if processes[i].CPUTicks != processes[j].CPUTicks {
			return processes[i].CPUTicks > processes[j].CPUTicks
		}
		return processes[i].PID < processes[j].PID
	})
	if len(processes) > s.max {
		processes = processes[:s.max]
	}

	return models.Workload{
		Processes: processes,
		MemTotal:  s.getMemTotal(),
	}, nil
}
