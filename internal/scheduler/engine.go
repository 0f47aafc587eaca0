package scheduler

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/prabalesh/osdash/internal/models"
)

type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// Engine simulates one CPU under a single dispatch policy, one tick per Step call.
// It is not safe for concurrent use.
type Engine struct {
	policy    Policy
	templates []models.Process

	ready     *Queue
	current   *models.Process
	completed []*models.Process
	gantt     []models.GanttEntry

	idleTicks       int
	contextSwitches int
	quantumUsed     int
	lastRan         string
	nextTick        int

	runID  string
	logger *slog.Logger
}

func New(policy Policy, opts ...Option) *Engine {
	e := &Engine{
		policy: policy,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.Reset()
	return e
}

func (e *Engine) String() string {
	cur := models.IdleID
	if e.current != nil {
		cur = e.current.ID
	}
	return fmt.Sprintf("t=%d policy=%v current=%s ready=%v completed=%d/%d",
		e.nextTick, e.policy, cur, e.ready, len(e.completed), len(e.templates))
}

// Submit registers a process template and resets the run.
func (e *Engine) Submit(p models.Process) error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("empty process id: %w", ErrInvalidProcess)
	}
	if p.ArrivalTime < 0 || p.BurstTime <= 0 {
		return fmt.Errorf("process %q arrival %d burst %d: %w", p.ID, p.ArrivalTime, p.BurstTime, ErrInvalidProcess)
	}
	for _, t := range e.templates {
		if t.ID == p.ID {
			return fmt.Errorf("process with PID '%s' already exists: %w", p.ID, ErrDuplicateProcess)
		}
	}
	e.templates = append(e.templates, models.NewProcess(p.ID, p.ArrivalTime, p.BurstTime))
	e.Reset()
	return nil
}

// SetPolicy switches the dispatch policy and restarts the run.
func (e *Engine) SetPolicy(p Policy) {
	e.policy = p
	e.Reset()
}

// Reset reloads fresh copies of every submitted process, ordered by arrival
// time with ties kept in submission order.
func (e *Engine) Reset() {
	e.ready = newQueue()
	e.current = nil
	e.completed = nil
	e.gantt = nil
	e.idleTicks = 0
	e.contextSwitches = 0
	e.quantumUsed = 0
	e.lastRan = ""
	e.nextTick = 0
	e.runID = uuid.NewString()

	for _, t := range e.arrivalOrder() {
		e.ready.enq(e.fresh(t), t.ArrivalTime)
	}
	e.logger.Info("scheduler reset",
		slog.String("run", e.runID),
		slog.String("policy", e.policy.String()),
		slog.Int("processes", len(e.templates)),
	)
}

func (e *Engine) arrivalOrder() []models.Process {
	ordered := make([]models.Process, len(e.templates))
	copy(ordered, e.templates)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ArrivalTime < ordered[j].ArrivalTime
	})
	return ordered
}

func (e *Engine) fresh(t models.Process) *models.Process {
	p := models.NewProcess(t.ID, t.ArrivalTime, t.BurstTime)
	return &p
}

// Step advances the simulation by the single time unit tick, which must be
// the next tick after the previous call (0 after a reset).
func (e *Engine) Step(tick int) (models.StepResult, error) {
	if tick != e.nextTick {
		return models.StepResult{}, fmt.Errorf("got tick %d, expected %d: %w", tick, e.nextTick, ErrNonMonotonicTick)
	}

	e.admit(tick)
	e.dispatch(tick)

	ran := models.IdleID
	if e.current != nil {
		ran = e.run(tick)
	} else {
		e.idleTicks++
	}
	e.accrueWaiting(tick)

	e.lastRan = ran
	e.gantt = append(e.gantt, models.GanttEntry{PID: ran, Tick: tick})
	e.nextTick = tick + 1

	avgWait, avgTurnaround := averages(e.completed)
	return models.StepResult{
		Tick:              tick,
		Running:           ran,
		AvgWaitingTime:    avgWait,
		AvgTurnaroundTime: avgTurnaround,
		CPUUtilization:    utilization(e.nextTick, e.idleTicks),
		ContextSwitches:   e.contextSwitches,
	}, nil
}

// admit enqueues submitted processes arriving at tick that are not already tracked.
func (e *Engine) admit(tick int) {
	for _, t := range e.arrivalOrder() {
		if t.ArrivalTime != tick || e.tracked(t.ID) {
			continue
		}
		e.ready.enq(e.fresh(t), tick)
		e.logger.Debug("process admitted", slog.String("run", e.runID), slog.String("pid", t.ID), slog.Int("tick", tick))
	}
}

func (e *Engine) tracked(id string) bool {
	if e.current != nil && e.current.ID == id {
		return true
	}
	if e.ready.contains(id) {
		return true
	}
	for _, p := range e.completed {
		if p.ID == id {
			return true
		}
	}
	return false
}

func (e *Engine) dispatch(tick int) {
	if e.current != nil && e.policy.expired(e.quantumUsed) {
		e.logger.Debug("quantum expired", slog.String("run", e.runID), slog.String("pid", e.current.ID), slog.Int("tick", tick))
		e.ready.enq(e.current, tick)
		e.current = nil
		e.quantumUsed = 0
	}
	if e.current != nil {
		return
	}
	if i := e.policy.pick(e.ready.getQ(), tick); i >= 0 {
		e.current = e.ready.remove(i)
		e.quantumUsed = 0
		e.logger.Debug("dispatched", slog.String("run", e.runID), slog.String("pid", e.current.ID), slog.Int("tick", tick))
	}
}

// run executes the current process for one tick and returns its id.
func (e *Engine) run(tick int) string {
	p := e.current
	if p.ID != e.lastRan {
		e.contextSwitches++
	}
	if !p.StartTime.Present() {
		p.StartTime.Set(tick)
	}
	p.RemainingTime--
	e.quantumUsed++

	if p.RemainingTime == 0 {
		p.CompletionTime.Set(tick + 1)
		p.TurnaroundTime = tick + 1 - p.ArrivalTime
		p.WaitingTime = max(0, p.TurnaroundTime-p.BurstTime)
		e.completed = append(e.completed, p)
		e.current = nil
		e.quantumUsed = 0
		e.logger.Debug("completed", slog.String("run", e.runID), slog.String("pid", p.ID), slog.Int("tick", tick))
	}
	return p.ID
}

func (e *Engine) accrueWaiting(tick int) {
	for _, q := range e.ready.getQ() {
		if q.proc.ArrivalTime <= tick {
			q.proc.WaitingTime++
		}
	}
}

// Done reports whether every submitted process has completed.
func (e *Engine) Done() bool {
	return e.current == nil && e.ready.qlen() == 0 && len(e.completed) == len(e.templates)
}

// Time is the tick the next Step call must use.
func (e *Engine) Time() int {
	return e.nextTick
}

func (e *Engine) Policy() Policy {
	return e.policy
}

func (e *Engine) RunID() string {
	return e.runID
}

func (e *Engine) IdleTicks() int {
	return e.idleTicks
}

func (e *Engine) ContextSwitches() int {
	return e.contextSwitches
}

// Processes lists the submitted templates in arrival order.
func (e *Engine) Processes() []models.Process {
	return e.arrivalOrder()
}

func (e *Engine) ReadyQueue() []models.Process {
	return e.ready.snapshot()
}

func (e *Engine) Current() (models.Process, bool) {
	if e.current == nil {
		return models.Process{}, false
	}
	return *e.current, true
}

func (e *Engine) Completed() []models.Process {
	out := make([]models.Process, 0, len(e.completed))
	for _, p := range e.completed {
		out = append(out, *p)
	}
	return out
}

func (e *Engine) Gantt() []models.GanttEntry {
	out := make([]models.GanttEntry, len(e.gantt))
	copy(out, e.gantt)
	return out
}
