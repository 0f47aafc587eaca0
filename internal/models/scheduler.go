package models

import "github.com/markphelps/optional"

// IdleID is reported for ticks where no process occupies the CPU.
const IdleID = "idle"

type Process struct {
	ID             string       `json:"id"`
	ArrivalTime    int          `json:"arrival_time"`
	BurstTime      int          `json:"burst_time"`
	RemainingTime  int          `json:"remaining_time"`
	StartTime      optional.Int `json:"start_time"`
	CompletionTime optional.Int `json:"completion_time"`
	WaitingTime    int          `json:"waiting_time"`
	TurnaroundTime int          `json:"turnaround_time"`
}

// NewProcess builds a fresh template with RemainingTime equal to the burst.
func NewProcess(id string, arrival, burst int) Process {
	return Process{
		ID:            id,
		ArrivalTime:   arrival,
		BurstTime:     burst,
		RemainingTime: burst,
	}
}

// Finished reports whether a completion time has been recorded.
func (p Process) Finished() bool {
	return p.CompletionTime.Present()
}

type GanttEntry struct {
	PID  string `json:"pid"`
	Tick int    `json:"tick"`
}

type StepResult struct {
	Tick              int     `json:"tick"`
	Running           string  `json:"running"`
	AvgWaitingTime    float64 `json:"avg_waiting_time"`
	AvgTurnaroundTime float64 `json:"avg_turnaround_time"`
	CPUUtilization    float64 `json:"cpu_utilization"`
	ContextSwitches   int     `json:"context_switches"`
}
