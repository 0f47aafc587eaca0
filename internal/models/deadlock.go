package models

import (
	"fmt"
	"strings"
)

type ResourceUsage struct {
	ID        string `json:"id"`
	Total     int    `json:"total"`
	Available int    `json:"available"`
	Allocated int    `json:"allocated"`
	Requested int    `json:"requested"`
}

type ProcessResources struct {
	ID        string         `json:"id"`
	Allocated map[string]int `json:"allocated"`
	Requested map[string]int `json:"requested"`
}

type SystemState struct {
	Resources []ResourceUsage    `json:"resources"`
	Processes []ProcessResources `json:"processes"`
}

type DetectionStatus string

const (
	NoProcesses DetectionStatus = "no-processes"
	NoResources DetectionStatus = "no-resources"
	Safe        DetectionStatus = "safe"
	Deadlocked  DetectionStatus = "deadlock"
)

// Detection is the outcome of one safety-algorithm pass.
type Detection struct {
	Status       DetectionStatus `json:"status"`
	SafeSequence []string        `json:"safe_sequence,omitempty"`
	Deadlocked   []string        `json:"deadlocked,omitempty"`
}

func (d Detection) String() string {
	switch d.Status {
	case NoProcesses:
		return "No processes to check."
	case NoResources:
		return "No resources defined."
	case Safe:
		return fmt.Sprintf("System is in a SAFE state. Safe sequence: <%s>", strings.Join(d.SafeSequence, ", "))
	default:
		return fmt.Sprintf("DEADLOCK DETECTED! Involved processes: %s", strings.Join(d.Deadlocked, ", "))
	}
}
