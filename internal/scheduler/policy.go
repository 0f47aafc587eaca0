package scheduler

import (
	"fmt"
	"strings"
)

type kind int

const (
	kindFCFS kind = iota
	kindSJF
	kindRoundRobin
)

// Policy selects the next process to dispatch. The zero value is FCFS.
type Policy struct {
	kind    kind
	quantum int
}

var (
	FCFS = Policy{kind: kindFCFS}
	SJF  = Policy{kind: kindSJF}
)

// RoundRobin returns a preemptive policy with the given quantum.
func RoundRobin(quantum int) (Policy, error) {
	if quantum <= 0 {
		return Policy{}, fmt.Errorf("round robin quantum %d: %w", quantum, ErrInvalidQuantum)
	}
	return Policy{kind: kindRoundRobin, quantum: quantum}, nil
}

// ParsePolicy accepts fcfs, sjf, rr (or round-robin). quantum is only read for round robin.
func ParsePolicy(name string, quantum int) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "fcfs":
		return FCFS, nil
	case "sjf":
		return SJF, nil
	case "rr", "round-robin", "roundrobin":
		return RoundRobin(quantum)
	}
	return Policy{}, fmt.Errorf("%q: %w", name, ErrUnknownPolicy)
}

func (p Policy) String() string {
	switch p.kind {
	case kindSJF:
		return "SJF"
	case kindRoundRobin:
		return fmt.Sprintf("Round Robin (q=%d)", p.quantum)
	default:
		return "FCFS"
	}
}

// Quantum is zero for the non-preemptive policies.
func (p Policy) Quantum() int {
	return p.quantum
}

func (p Policy) Preemptive() bool {
	return p.kind == kindRoundRobin
}

// expired reports whether a process that has run used consecutive ticks must yield.
func (p Policy) expired(used int) bool {
	return p.kind == kindRoundRobin && used >= p.quantum
}

// pick returns the queue index of the process to dispatch at tick, or -1.
// Only processes that have arrived by tick are eligible; ties keep queue order.
func (p Policy) pick(ready []entry, tick int) int {
	chosen := -1
	for i, e := range ready {
		if e.proc.ArrivalTime > tick {
			continue
		}
		if chosen < 0 || p.better(e, ready[chosen]) {
			chosen = i
		}
	}
	return chosen
}

// better reports whether a strictly precedes b under the policy.
func (p Policy) better(a, b entry) bool {
	switch p.kind {
	case kindSJF:
		if a.proc.RemainingTime != b.proc.RemainingTime {
			return a.proc.RemainingTime < b.proc.RemainingTime
		}
		return a.proc.ArrivalTime < b.proc.ArrivalTime
	case kindRoundRobin:
		return a.since < b.since
	default:
		return a.proc.ArrivalTime < b.proc.ArrivalTime
	}
}
