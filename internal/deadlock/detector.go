package deadlock

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/prabalesh/osdash/internal/models"
)

type processState struct {
	allocated map[string]int
	requested map[string]int
}

func newProcessState() *processState {
	return &processState{
		allocated: map[string]int{},
		requested: map[string]int{},
	}
}

func (p *processState) idle() bool {
	return len(p.allocated) == 0 && len(p.requested) == 0
}

type Option func(*Detector)

func WithLogger(logger *slog.Logger) Option {
	return func(d *Detector) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// Detector tracks resource inventories and per-process holdings and runs a
// request-only safety check over them. It is not safe for concurrent use.
type Detector struct {
	resources     map[string]int
	resourceOrder []string
	processes     map[string]*processState
	processOrder  []string
	logger        *slog.Logger
}

func New(opts ...Option) *Detector {
	d := &Detector{
		resources: map[string]int{},
		processes: map[string]*processState{},
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// AddResource registers rid, or grows its total if it already exists.
func (d *Detector) AddResource(rid string, instances int) error {
	if strings.TrimSpace(rid) == "" {
		return fmt.Errorf("resource: %w", ErrEmptyID)
	}
	if instances <= 0 {
		return fmt.Errorf("resource '%s' instances %d: %w", rid, instances, ErrInvalidQuantity)
	}
	if _, ok := d.resources[rid]; !ok {
		d.resourceOrder = append(d.resourceOrder, rid)
	}
	d.resources[rid] += instances
	d.logger.Debug("resource added", slog.String("rid", rid), slog.Int("total", d.resources[rid]))
	return nil
}

func (d *Detector) RemoveResource(rid string) error {
	if _, ok := d.resources[rid]; !ok {
		return fmt.Errorf("resource '%s': %w", rid, ErrUnknownResource)
	}
	for _, pid := range d.processOrder {
		p := d.processes[pid]
		if p.allocated[rid] > 0 || p.requested[rid] > 0 {
			return fmt.Errorf("cannot remove resource '%s', used by process '%s': %w", rid, pid, ErrStillReferenced)
		}
	}
	delete(d.resources, rid)
	d.resourceOrder = without(d.resourceOrder, rid)
	return nil
}

func (d *Detector) AddProcess(pid string) error {
	if strings.TrimSpace(pid) == "" {
		return fmt.Errorf("process: %w", ErrEmptyID)
	}
	if _, ok := d.processes[pid]; ok {
		return fmt.Errorf("process '%s': %w", pid, ErrDuplicateProcess)
	}
	d.processes[pid] = newProcessState()
	d.processOrder = append(d.processOrder, pid)
	return nil
}

func (d *Detector) RemoveProcess(pid string) error {
	p, ok := d.processes[pid]
	if !ok {
		return fmt.Errorf("process '%s': %w", pid, ErrUnknownProcess)
	}
	if !p.idle() {
		return fmt.Errorf("cannot remove process '%s', release its resources first: %w", pid, ErrStillReferenced)
	}
	delete(d.processes, pid)
	d.processOrder = without(d.processOrder, pid)
	return nil
}

func (d *Detector) lookup(pid, rid string, qty int) (*processState, error) {
	p, ok := d.processes[pid]
	if !ok {
		return nil, fmt.Errorf("process '%s': %w", pid, ErrUnknownProcess)
	}
	if _, ok := d.resources[rid]; !ok {
		return nil, fmt.Errorf("resource '%s': %w", rid, ErrUnknownResource)
	}
	if qty <= 0 {
		return nil, fmt.Errorf("quantity %d: %w", qty, ErrInvalidQuantity)
	}
	return p, nil
}

// RequestResource records that pid wants qty more instances of rid. No
// availability check is made; the request stays outstanding until allocated.
func (d *Detector) RequestResource(pid, rid string, qty int) error {
	p, err := d.lookup(pid, rid, qty)
	if err != nil {
		return err
	}
	p.requested[rid] += qty
	d.logger.Debug("resource requested", slog.String("pid", pid), slog.String("rid", rid), slog.Int("qty", qty))
	return nil
}

// AllocateResource grants qty instances of rid to pid when available,
// consuming a matching outstanding request.
func (d *Detector) AllocateResource(pid, rid string, qty int) error {
	p, err := d.lookup(pid, rid, qty)
	if err != nil {
		return err
	}
	if avail := d.available(rid); qty > avail {
		return fmt.Errorf("'%s' has only %d left: %w", rid, avail, ErrInsufficientInstances)
	}
	if p.requested[rid] >= qty {
		decrement(p.requested, rid, qty)
	}
	p.allocated[rid] += qty
	d.logger.Debug("resource allocated", slog.String("pid", pid), slog.String("rid", rid), slog.Int("qty", qty))
	return nil
}

func (d *Detector) ReleaseResource(pid, rid string, qty int) error {
	p, err := d.lookup(pid, rid, qty)
	if err != nil {
		return err
	}
	if held := p.allocated[rid]; qty > held {
		return fmt.Errorf("process '%s' only holds %d instances of '%s': %w", pid, held, rid, ErrExceedsHeld)
	}
	decrement(p.allocated, rid, qty)
	d.logger.Debug("resource released", slog.String("pid", pid), slog.String("rid", rid), slog.Int("qty", qty))
	return nil
}

func decrement(m map[string]int, key string, qty int) {
	m[key] -= qty
	if m[key] == 0 {
		delete(m, key)
	}
}

func (d *Detector) allocatedTotal(rid string) int {
	held := make([]int, 0, len(d.processes))
	for _, p := range d.processes {
		held = append(held, p.allocated[rid])
	}
	return sum(held)
}

func (d *Detector) requestedTotal(rid string) int {
	wanted := make([]int, 0, len(d.processes))
	for _, p := range d.processes {
		wanted = append(wanted, p.requested[rid])
	}
	return sum(wanted)
}

func (d *Detector) available(rid string) int {
	return d.resources[rid] - d.allocatedTotal(rid)
}

// Detect runs the work/finish safety pass: a process can finish when every
// outstanding request fits in work, after which its holdings return to work.
// Processes that never finish are reported as deadlocked. Maximum future
// claims are not modelled.
func (d *Detector) Detect() models.Detection {
	if len(d.processes) == 0 {
		return models.Detection{Status: models.NoProcesses}
	}
	if len(d.resources) == 0 {
		return models.Detection{Status: models.NoResources}
	}

	work := make(map[string]int, len(d.resources))
	for _, rid := range d.resourceOrder {
		work[rid] = d.available(rid)
	}
	finish := make(map[string]bool, len(d.processes))
	var sequence []string

	for progress := true; progress; {
		progress = false
		for _, pid := range d.processOrder {
			if finish[pid] {
				continue
			}
			p := d.processes[pid]
			if !satisfiable(p.requested, work) {
				continue
			}
			for rid, qty := range p.allocated {
				work[rid] += qty
			}
			finish[pid] = true
			sequence = append(sequence, pid)
			progress = true
		}
	}

	var stuck []string
	for _, pid := range d.processOrder {
		if !finish[pid] {
			stuck = append(stuck, pid)
		}
	}
	if len(stuck) > 0 {
		d.logger.Info("deadlock detected", slog.Any("processes", stuck))
		return models.Detection{Status: models.Deadlocked, Deadlocked: stuck}
	}
	d.logger.Debug("safe state", slog.Any("sequence", sequence))
	return models.Detection{Status: models.Safe, SafeSequence: sequence}
}

func satisfiable(requested, work map[string]int) bool {
	for rid, qty := range requested {
		if qty > work[rid] {
			return false
		}
	}
	return true
}

// State returns a read-only snapshot of every resource and process.
func (d *Detector) State() models.SystemState {
	state := models.SystemState{
		Resources: make([]models.ResourceUsage, 0, len(d.resourceOrder)),
		Processes: make([]models.ProcessResources, 0, len(d.processOrder)),
	}
	for _, rid := range d.resourceOrder {
		allocated := d.allocatedTotal(rid)
		state.Resources = append(state.Resources, models.ResourceUsage{
			ID:        rid,
			Total:     d.resources[rid],
			Available: d.resources[rid] - allocated,
			Allocated: allocated,
			Requested: d.requestedTotal(rid),
		})
	}
	for _, pid := range d.processOrder {
		p := d.processes[pid]
		state.Processes = append(state.Processes, models.ProcessResources{
			ID:        pid,
			Allocated: cloneCounts(p.allocated),
			Requested: cloneCounts(p.requested),
		})
	}
	return state
}

// Resources lists resource ids in registration order.
func (d *Detector) Resources() []string {
	return append([]string(nil), d.resourceOrder...)
}

// Processes lists process ids in registration order.
func (d *Detector) Processes() []string {
	return append([]string(nil), d.processOrder...)
}

// FormatCounts renders a resource count map as "R1:2, R2:1" in id order.
func FormatCounts(m map[string]int) string {
	if len(m) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(m))
	for _, rid := range sortedKeys(m) {
		parts = append(parts, fmt.Sprintf("%s:%d", rid, m[rid]))
	}
	return strings.Join(parts, ", ")
}

func without(list []string, id string) []string {
	out := list[:0]
	for _, v := range list {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
