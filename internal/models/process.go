package models

// HostProcess is a process observed on the host, used only to seed simulations.
type HostProcess struct {
	PID        int    `json:"pid"`
	Name       string `json:"name"`
	Status     string `json:"status"`
	CPUTicks   uint64 `json:"cpu_ticks"`
	StartTicks uint64 `json:"start_ticks"`
	MemRSS     uint64 `json:"mem_rss"`
}

type Workload struct {
	Processes []HostProcess `json:"processes"`
	MemTotal  uint64        `json:"mem_total"`
}

// MemoryRequest is a single allocation derived from a host process.
type MemoryRequest struct {
	ProcessID string `json:"process_id"`
	Size      int    `json:"size"`
}
