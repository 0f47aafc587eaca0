package collector

import (
	"fmt"
	"sort"

	"github.com/prabalesh/osdash/internal/models"
)

const maxBurst = 10

func processID(p models.HostProcess) string {
	return fmt.Sprintf("%s-%d", p.Name, p.PID)
}

// Templates converts a sampled workload into scheduler processes. Arrival
// order follows host start time; burst is CPU time scaled into 1..10.
func Templates(w models.Workload) []models.Process {
	procs := append([]models.HostProcess(nil), w.Processes...)
	sort.SliceStable(procs, func(i, j int) bool {
		return procs[i].StartTicks < procs[j].StartTicks
	})

	var busiest uint64
	for _, p := range procs {
		busiest = max(busiest, p.CPUTicks)
	}

	out := make([]models.Process, 0, len(procs))
	for i, p := range procs {
		burst := 1
		if busiest > 0 {
			burst = 1 + int(p.CPUTicks*(maxBurst-1)/busiest)
		}
		out = append(out, models.NewProcess(processID(p), i, burst))
	}
	return out
}

// MemoryRequests sizes each process's share of a simulated range of total
// units by its share of host memory. Processes without resident memory are skipped.
func MemoryRequests(w models.Workload, total int) []models.MemoryRequest {
	if w.MemTotal == 0 || total <= 0 {
		return nil
	}
	var out []models.MemoryRequest
	for _, p := range w.Processes {
		if p.MemRSS == 0 {
			continue
		}
		size := int(p.MemRSS * uint64(total) / w.MemTotal)
		out = append(out, models.MemoryRequest{
			ProcessID: processID(p),
			Size:      max(1, size),
		})
	}
	return out
}
