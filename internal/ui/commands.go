package ui

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/prabalesh/osdash/internal/collector"
	"github.com/prabalesh/osdash/internal/logging"
	"github.com/prabalesh/osdash/internal/memory"
	"github.com/prabalesh/osdash/internal/models"
	"github.com/prabalesh/osdash/internal/scheduler"
)

var errUsage = errors.New("usage")

type command struct {
	verb string
	args []string
}

func parseCommand(line string) (command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return command{}, fmt.Errorf("empty command: %w", errUsage)
	}
	return command{verb: strings.ToLower(fields[0]), args: fields[1:]}, nil
}

// want checks the argument count, reporting the expected form on mismatch.
func (c command) want(min, max int, form string) error {
	if len(c.args) < min || len(c.args) > max {
		return fmt.Errorf("%s %s: %w", c.verb, form, errUsage)
	}
	return nil
}

func (c command) intArg(i int, name string) (int, error) {
	v, err := strconv.Atoi(c.args[i])
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q: %w", name, c.args[i], errUsage)
	}
	return v, nil
}

// execute runs one command line against the engine behind the active tab.
func (a *App) execute(line string) tea.Cmd {
	cmd, err := parseCommand(line)
	if err == nil {
		var msg string
		var next tea.Cmd
		switch a.activeTab {
		case cpuTab:
			msg, next, err = a.runCPU(cmd)
		case memoryTab:
			msg, err = a.runMemory(cmd)
		case deadlockTab:
			msg, err = a.runDeadlock(cmd)
		}
		if err == nil {
			a.setStatus(msg, false)
			return next
		}
	}
	a.logger.Debug("command failed", slog.String("line", line), logging.ErrAttr(err))
	a.setStatus(err.Error(), true)
	return nil
}

func (a *App) setStatus(msg string, isErr bool) {
	a.status = msg
	a.statusErr = isErr
}

func (a *App) runCPU(c command) (string, tea.Cmd, error) {
	switch c.verb {
	case "add":
		if err := c.want(3, 3, "<pid> <arrival> <burst>"); err != nil {
			return "", nil, err
		}
		arrival, err := c.intArg(1, "arrival")
		if err != nil {
			return "", nil, err
		}
		burst, err := c.intArg(2, "burst")
		if err != nil {
			return "", nil, err
		}
		if err := a.sched.Submit(models.NewProcess(c.args[0], arrival, burst)); err != nil {
			return "", nil, err
		}
		a.pause()
		a.last = models.StepResult{}
		return fmt.Sprintf("Added %s (arrival %d, burst %d).", c.args[0], arrival, burst), nil, nil

	case "policy":
		if err := c.want(1, 2, "fcfs|sjf|rr [quantum]"); err != nil {
			return "", nil, err
		}
		quantum := a.quantum
		if len(c.args) == 2 {
			q, err := c.intArg(1, "quantum")
			if err != nil {
				return "", nil, err
			}
			quantum = q
		}
		policy, err := scheduler.ParsePolicy(c.args[0], quantum)
		if err != nil {
			return "", nil, err
		}
		if policy.Preemptive() {
			a.quantum = quantum
		}
		a.pause()
		a.sched.SetPolicy(policy)
		a.last = models.StepResult{}
		return "Policy set to " + policy.String() + ".", nil, nil

	case "start":
		if len(a.sched.Processes()) == 0 {
			return "", nil, errors.New("please add processes before starting the simulation")
		}
		if a.sched.Done() {
			a.sched.Reset()
			a.last = models.StepResult{}
		}
		return "Simulation running.", a.start(), nil

	case "pause":
		a.pause()
		return "Simulation paused.", nil, nil

	case "step":
		a.pause()
		if err := a.advance(); err != nil {
			return "", nil, err
		}
		return a.status, nil, nil

	case "reset":
		a.pause()
		a.sched.Reset()
		a.last = models.StepResult{}
		return "Simulation reset.", nil, nil

	case "seed":
		w, err := a.sampler.Sample()
		if err != nil {
			return "", nil, err
		}
		added := 0
		for _, p := range collector.Templates(w) {
			if err := a.sched.Submit(p); err != nil {
				a.logger.Debug("seed process skipped", slog.String("pid", p.ID), logging.ErrAttr(err))
				continue
			}
			added++
		}
		a.pause()
		a.last = models.StepResult{}
		return fmt.Sprintf("Seeded %d host processes.", added), nil, nil
	}
	return "", nil, fmt.Errorf("unknown command %q: %w", c.verb, errUsage)
}

func (a *App) runMemory(c command) (string, error) {
	switch c.verb {
	case "alloc":
		if err := c.want(2, 3, "<pid> <size> [first|best]"); err != nil {
			return "", err
		}
		size, err := c.intArg(1, "size")
		if err != nil {
			return "", err
		}
		strategy := a.strategy
		if len(c.args) == 3 {
			if strategy, err = memory.ParseStrategy(c.args[2]); err != nil {
				return "", err
			}
		}
		if err := a.mem.Allocate(c.args[0], size, strategy); err != nil {
			return "", err
		}
		a.strategy = strategy
		return fmt.Sprintf("Allocated %d to '%s' using %v.", size, c.args[0], strategy), nil

	case "free":
		if err := c.want(1, 1, "<pid>"); err != nil {
			return "", err
		}
		if err := a.mem.Deallocate(c.args[0]); err != nil {
			return "", err
		}
		return fmt.Sprintf("Memory deallocated for process '%s'.", c.args[0]), nil

	case "total":
		if err := c.want(1, 1, "<size>"); err != nil {
			return "", err
		}
		total, err := c.intArg(0, "size")
		if err != nil {
			return "", err
		}
		if err := a.mem.Reset(total); err != nil {
			return "", err
		}
		return fmt.Sprintf("Memory reset to %d units.", total), nil

	case "seed":
		w, err := a.sampler.Sample()
		if err != nil {
			return "", err
		}
		placed, failed := 0, 0
		for _, req := range collector.MemoryRequests(w, a.mem.Total()) {
			if err := a.mem.Allocate(req.ProcessID, req.Size, a.strategy); err != nil {
				a.logger.Debug("seed allocation failed", slog.String("pid", req.ProcessID), logging.ErrAttr(err))
				failed++
				continue
			}
			placed++
		}
		return fmt.Sprintf("Seeded %d allocations (%d did not fit).", placed, failed), nil
	}
	return "", fmt.Errorf("unknown command %q: %w", c.verb, errUsage)
}

func (a *App) runDeadlock(c command) (string, error) {
	switch c.verb {
	case "res":
		if err := c.want(2, 2, "<rid> <instances>"); err != nil {
			return "", err
		}
		n, err := c.intArg(1, "instances")
		if err != nil {
			return "", err
		}
		if err := a.dl.AddResource(c.args[0], n); err != nil {
			return "", err
		}
		return fmt.Sprintf("Resource '%s' added with %d instances.", c.args[0], n), nil

	case "rmres":
		if err := c.want(1, 1, "<rid>"); err != nil {
			return "", err
		}
		if err := a.dl.RemoveResource(c.args[0]); err != nil {
			return "", err
		}
		return fmt.Sprintf("Resource '%s' removed successfully.", c.args[0]), nil

	case "proc":
		if err := c.want(1, 1, "<pid>"); err != nil {
			return "", err
		}
		if err := a.dl.AddProcess(c.args[0]); err != nil {
			return "", err
		}
		return fmt.Sprintf("Process '%s' added.", c.args[0]), nil

	case "rmproc":
		if err := c.want(1, 1, "<pid>"); err != nil {
			return "", err
		}
		if err := a.dl.RemoveProcess(c.args[0]); err != nil {
			return "", err
		}
		return fmt.Sprintf("Process '%s' removed successfully.", c.args[0]), nil

	case "req", "alloc", "release":
		if err := c.want(3, 3, "<pid> <rid> <qty>"); err != nil {
			return "", err
		}
		qty, err := c.intArg(2, "qty")
		if err != nil {
			return "", err
		}
		return a.resourceOp(c.verb, c.args[0], c.args[1], qty)

	case "detect":
		d := a.dl.Detect()
		a.detection = &d
		return d.String(), nil
	}
	return "", fmt.Errorf("unknown command %q: %w", c.verb, errUsage)
}

func (a *App) resourceOp(op, pid, rid string, qty int) (string, error) {
	var err error
	var done string
	switch op {
	case "req", "request":
		err, done = a.dl.RequestResource(pid, rid, qty), "requested"
	case "alloc", "allocate":
		err, done = a.dl.AllocateResource(pid, rid, qty), "allocated"
	case "release":
		err, done = a.dl.ReleaseResource(pid, rid, qty), "released"
	default:
		return "", fmt.Errorf("unknown operation %q: %w", op, errUsage)
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Process '%s' %s %d of '%s'.", pid, done, qty, rid), nil
}
