package scheduler

import (
	"gonum.org/v1/gonum/stat"

	"github.com/prabalesh/osdash/internal/models"
)

// averages returns mean waiting and turnaround time over completed processes.
func averages(completed []*models.Process) (float64, float64) {
	if len(completed) == 0 {
		return 0, 0
	}
	waiting := make([]float64, 0, len(completed))
	turnaround := make([]float64, 0, len(completed))
	for _, p := range completed {
		waiting = append(waiting, float64(p.WaitingTime))
		turnaround = append(turnaround, float64(p.TurnaroundTime))
	}
	return stat.Mean(waiting, nil), stat.Mean(turnaround, nil)
}

func utilization(elapsed, idle int) float64 {
	if elapsed <= 0 {
		return 0
	}
	return float64(elapsed-idle) / float64(elapsed) * 100
}
