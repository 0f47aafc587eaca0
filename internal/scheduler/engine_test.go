package scheduler

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prabalesh/osdash/internal/models"
)

func newEngine(t *testing.T, policy Policy, procs ...models.Process) *Engine {
	t.Helper()
	e := New(policy)
	for _, p := range procs {
		require.NoError(t, e.Submit(p))
	}
	return e
}

// runToEnd steps until Done, failing the test if it takes more than limit ticks.
func runToEnd(t *testing.T, e *Engine, limit int) []models.StepResult {
	t.Helper()
	var results []models.StepResult
	for !e.Done() {
		require.Less(t, e.Time(), limit, "simulation did not finish: %v", e)
		res, err := e.Step(e.Time())
		require.NoError(t, err)
		results = append(results, res)
	}
	return results
}

func ganttIDs(entries []models.GanttEntry) []string {
	ids := make([]string, 0, len(entries))
	for _, g := range entries {
		ids = append(ids, g.PID)
	}
	return ids
}

func completedIDs(procs []models.Process) []string {
	ids := make([]string, 0, len(procs))
	for _, p := range procs {
		ids = append(ids, p.ID)
	}
	return ids
}

func sample() []models.Process {
	return []models.Process{
		models.NewProcess("P1", 0, 5),
		models.NewProcess("P2", 1, 3),
		models.NewProcess("P3", 2, 1),
	}
}

func TestEngine_Policies(t *testing.T) {
	rr2, err := RoundRobin(2)
	require.NoError(t, err)

	tests := []struct {
		name          string
		policy        Policy
		gantt         []string
		order         []string
		avgWait       float64
		avgTurnaround float64
		switches      int
	}{
		{
			name:          "FCFS runs in arrival order",
			policy:        FCFS,
			gantt:         []string{"P1", "P1", "P1", "P1", "P1", "P2", "P2", "P2", "P3"},
			order:         []string{"P1", "P2", "P3"},
			avgWait:       10.0 / 3,
			avgTurnaround: 19.0 / 3,
			switches:      3,
		},
		{
			name:          "SJF picks the shortest remaining job",
			policy:        SJF,
			gantt:         []string{"P1", "P1", "P1", "P1", "P1", "P3", "P2", "P2", "P2"},
			order:         []string{"P1", "P3", "P2"},
			avgWait:       8.0 / 3,
			avgTurnaround: 17.0 / 3,
			switches:      3,
		},
		{
			name:          "Round robin preempts after the quantum",
			policy:        rr2,
			gantt:         []string{"P1", "P1", "P2", "P2", "P3", "P1", "P1", "P2", "P1"},
			order:         []string{"P3", "P2", "P1"},
			avgWait:       10.0 / 3,
			avgTurnaround: 19.0 / 3,
			switches:      6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine(t, tt.policy, sample()...)
			results := runToEnd(t, e, 100)

			assert.Equal(t, tt.gantt, ganttIDs(e.Gantt()))
			assert.Equal(t, tt.order, completedIDs(e.Completed()))

			last := results[len(results)-1]
			assert.InDelta(t, tt.avgWait, last.AvgWaitingTime, 1e-9)
			assert.InDelta(t, tt.avgTurnaround, last.AvgTurnaroundTime, 1e-9)
			assert.InDelta(t, 100.0, last.CPUUtilization, 1e-9)
			assert.Equal(t, tt.switches, last.ContextSwitches)
			assert.Equal(t, 9, e.Time())
		})
	}
}

func TestEngine_CompletedRecord(t *testing.T) {
	e := newEngine(t, FCFS, sample()...)
	runToEnd(t, e, 100)

	p2 := e.Completed()[1]
	assert.Equal(t, "P2", p2.ID)
	assert.Equal(t, 5, p2.StartTime.OrElse(-1))
	assert.Equal(t, 8, p2.CompletionTime.OrElse(-1))
	assert.Equal(t, 7, p2.TurnaroundTime)
	assert.Equal(t, 4, p2.WaitingTime)
	assert.Equal(t, 0, p2.RemainingTime)
	assert.True(t, p2.Finished())
}

func TestEngine_IdleTicks(t *testing.T) {
	e := newEngine(t, FCFS, models.NewProcess("P1", 2, 2))

	res, err := e.Step(0)
	require.NoError(t, err)
	assert.Equal(t, models.IdleID, res.Running)
	assert.Equal(t, 0.0, res.CPUUtilization)
	assert.Equal(t, 0, res.ContextSwitches)

	results := runToEnd(t, e, 10)
	last := results[len(results)-1]
	assert.Equal(t, []string{"idle", "idle", "P1", "P1"}, ganttIDs(e.Gantt()))
	assert.InDelta(t, 50.0, last.CPUUtilization, 1e-9)
	assert.Equal(t, 1, last.ContextSwitches)
	assert.Equal(t, 2, e.IdleTicks())
	assert.InDelta(t, 0.0, last.AvgWaitingTime, 1e-9)
	assert.InDelta(t, 2.0, last.AvgTurnaroundTime, 1e-9)
}

func TestEngine_SJFIsNonPreemptive(t *testing.T) {
	e := newEngine(t, SJF,
		models.NewProcess("long", 0, 4),
		models.NewProcess("short", 1, 1),
	)
	runToEnd(t, e, 20)
	assert.Equal(t, []string{"long", "long", "long", "long", "short"}, ganttIDs(e.Gantt()))
}

func TestEngine_SJFTieBreaksOnArrival(t *testing.T) {
	e := newEngine(t, SJF,
		models.NewProcess("A", 0, 3),
		models.NewProcess("C", 2, 2),
		models.NewProcess("B", 1, 2),
	)
	runToEnd(t, e, 20)
	assert.Equal(t, []string{"A", "B", "C"}, completedIDs(e.Completed()))
}

func TestEngine_RoundRobinLoneProcessKeepsCPU(t *testing.T) {
	rr1, err := RoundRobin(1)
	require.NoError(t, err)
	e := newEngine(t, rr1, models.NewProcess("P1", 0, 3))

	results := runToEnd(t, e, 10)
	assert.Equal(t, []string{"P1", "P1", "P1"}, ganttIDs(e.Gantt()))
	assert.Equal(t, 1, results[len(results)-1].ContextSwitches)
}

func TestEngine_RoundRobinLateArrivalQueuesBehindPreempted(t *testing.T) {
	rr2, err := RoundRobin(2)
	require.NoError(t, err)
	e := newEngine(t, rr2,
		models.NewProcess("A", 0, 4),
		models.NewProcess("B", 0, 2),
		models.NewProcess("C", 3, 1),
	)
	runToEnd(t, e, 20)
	// A is requeued at tick 2, before C arrives at tick 3.
	assert.Equal(t, []string{"A", "A", "B", "B", "A", "A", "C"}, ganttIDs(e.Gantt()))
}

func TestEngine_SubmitValidation(t *testing.T) {
	e := New(FCFS)
	require.NoError(t, e.Submit(models.NewProcess("P1", 0, 1)))

	tests := []struct {
		name string
		proc models.Process
		err  error
	}{
		{"duplicate id", models.NewProcess("P1", 3, 2), ErrDuplicateProcess},
		{"empty id", models.NewProcess(" ", 0, 2), ErrInvalidProcess},
		{"negative arrival", models.NewProcess("P2", -1, 2), ErrInvalidProcess},
		{"zero burst", models.NewProcess("P3", 0, 0), ErrInvalidProcess},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, e.Submit(tt.proc), tt.err)
			assert.Len(t, e.Processes(), 1)
		})
	}
}

func TestEngine_StepRejectsOutOfOrderTick(t *testing.T) {
	e := newEngine(t, FCFS, models.NewProcess("P1", 0, 2))

	_, err := e.Step(1)
	assert.ErrorIs(t, err, ErrNonMonotonicTick)

	_, err = e.Step(0)
	require.NoError(t, err)
	_, err = e.Step(0)
	assert.ErrorIs(t, err, ErrNonMonotonicTick)
	assert.Len(t, e.Gantt(), 1)
}

func TestEngine_SubmitResetsRun(t *testing.T) {
	e := newEngine(t, FCFS, models.NewProcess("P1", 0, 3))
	_, err := e.Step(0)
	require.NoError(t, err)
	run := e.RunID()

	require.NoError(t, e.Submit(models.NewProcess("P2", 0, 1)))
	assert.Equal(t, 0, e.Time())
	assert.Empty(t, e.Gantt())
	assert.NotEqual(t, run, e.RunID())
	assert.Equal(t, []string{"P1", "P2"}, completedIDs(e.ReadyQueue()))
	for _, p := range e.ReadyQueue() {
		assert.Equal(t, p.BurstTime, p.RemainingTime)
		assert.False(t, p.StartTime.Present())
	}
}

func TestEngine_ResetDoesNotTouchTemplates(t *testing.T) {
	e := newEngine(t, FCFS, sample()...)
	runToEnd(t, e, 100)

	for _, p := range e.Processes() {
		assert.Equal(t, p.BurstTime, p.RemainingTime)
		assert.False(t, p.Finished())
	}

	e.Reset()
	assert.False(t, e.Done())
	assert.Len(t, e.ReadyQueue(), 3)
	_, running := e.Current()
	assert.False(t, running)
}

func TestEngine_SnapshotsAreCopies(t *testing.T) {
	e := newEngine(t, FCFS, models.NewProcess("P1", 0, 3))
	_, err := e.Step(0)
	require.NoError(t, err)

	cur, ok := e.Current()
	require.True(t, ok)
	cur.RemainingTime = 99

	again, _ := e.Current()
	assert.Equal(t, 2, again.RemainingTime)
}

func TestEngine_SetPolicy(t *testing.T) {
	e := newEngine(t, FCFS, sample()...)
	_, err := e.Step(0)
	require.NoError(t, err)

	e.SetPolicy(SJF)
	assert.Equal(t, "SJF", e.Policy().String())
	assert.Equal(t, 0, e.Time())
	runToEnd(t, e, 100)
	assert.Equal(t, []string{"P1", "P3", "P2"}, completedIDs(e.Completed()))
}

func TestEngine_EmptyEngineIsDone(t *testing.T) {
	e := New(FCFS)
	assert.True(t, e.Done())
}

func randomProcesses(r *rand.Rand, n int) []models.Process {
	procs := make([]models.Process, 0, n)
	for i := 0; i < n; i++ {
		procs = append(procs, models.NewProcess(
			string(rune('A'+i)),
			r.Intn(15),
			1+r.Intn(8),
		))
	}
	return procs
}

func TestEngine_Invariants(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	rr3, err := RoundRobin(3)
	require.NoError(t, err)

	for round := 0; round < 50; round++ {
		procs := randomProcesses(r, 1+r.Intn(8))
		for _, policy := range []Policy{FCFS, SJF, rr3} {
			e := newEngine(t, policy, procs...)
			results := runToEnd(t, e, 500)
			completed := e.Completed()
			require.Len(t, completed, len(procs))

			sumWait, sumTurnaround := 0, 0
			for _, p := range completed {
				assert.Equal(t, p.CompletionTime.OrElse(-1)-p.ArrivalTime, p.TurnaroundTime)
				assert.Equal(t, p.TurnaroundTime, p.WaitingTime+p.BurstTime)
				assert.GreaterOrEqual(t, p.StartTime.OrElse(-1), p.ArrivalTime)
				sumWait += p.WaitingTime
				sumTurnaround += p.TurnaroundTime
			}
			last := results[len(results)-1]
			n := float64(len(completed))
			assert.InDelta(t, float64(sumWait)/n, last.AvgWaitingTime, 1e-9)
			assert.InDelta(t, float64(sumTurnaround)/n, last.AvgTurnaroundTime, 1e-9)

			if !policy.Preemptive() {
				for _, p := range completed {
					assert.Equal(t, p.BurstTime, p.CompletionTime.OrElse(-1)-p.StartTime.OrElse(-1), "%s preempted under %v", p.ID, policy)
				}
			} else {
				assertQuantumRespected(t, e.Gantt(), completed, policy.Quantum())
			}
		}
	}
}

// assertQuantumRespected checks that a run longer than the quantum only
// happens when no other process was able to take the CPU at the boundary.
func assertQuantumRespected(t *testing.T, gantt []models.GanttEntry, completed []models.Process, q int) {
	t.Helper()
	for i := 0; i < len(gantt); {
		j := i
		for j < len(gantt) && gantt[j].PID == gantt[i].PID {
			j++
		}
		if gantt[i].PID != models.IdleID {
			for b := gantt[i].Tick + q; b < gantt[i].Tick+(j-i); b += q {
				for _, p := range completed {
					if p.ID == gantt[i].PID {
						continue
					}
					ready := p.ArrivalTime <= b && p.CompletionTime.OrElse(-1) > b
					assert.False(t, ready, "%s kept the CPU past tick %d while %s was ready", gantt[i].PID, b, p.ID)
				}
			}
		}
		i = j
	}
}

func TestEngine_FCFSCompletesInArrivalOrder(t *testing.T) {
	e := newEngine(t, FCFS,
		models.NewProcess("C", 6, 1),
		models.NewProcess("A", 0, 4),
		models.NewProcess("B", 3, 2),
	)
	runToEnd(t, e, 50)
	completed := e.Completed()
	for i := 1; i < len(completed); i++ {
		assert.LessOrEqual(t, completed[i-1].ArrivalTime, completed[i].ArrivalTime)
	}
}
