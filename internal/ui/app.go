package ui

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/prabalesh/osdash/internal/collector"
	"github.com/prabalesh/osdash/internal/config"
	"github.com/prabalesh/osdash/internal/deadlock"
	"github.com/prabalesh/osdash/internal/logging"
	"github.com/prabalesh/osdash/internal/memory"
	"github.com/prabalesh/osdash/internal/models"
	"github.com/prabalesh/osdash/internal/scheduler"
)

const finishedMessage = "All processes have finished execution!"

const (
	cpuTab = iota
	memoryTab
	deadlockTab
)

// tickMsg carries the run generation that scheduled it so stale ticks from
// a paused or restarted run are dropped.
type tickMsg struct {
	seq int
}

type App struct {
	sched    *scheduler.Engine
	mem      *memory.Allocator
	dl       *deadlock.Detector
	sampler  *collector.Sampler
	logger   *slog.Logger
	interval time.Duration

	quantum  int
	strategy memory.Strategy

	last      models.StepResult
	running   bool
	seq       int
	detection *models.Detection
	status    string
	statusErr bool

	activeTab int
	tabs      []string
	width     int
	height    int
	input     textinput.Model
	// Vertical scrolling state
	verticalScrollOffset int
	contentHeight        int
	// Progress bars for CPU utilization and memory usage
	cpuProgress    progress.Model
	memoryProgress progress.Model
}

// NewApp builds the three engines from cfg and applies its scenario.
func NewApp(cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	policy, err := cfg.Policy()
	if err != nil {
		return nil, err
	}
	strategy, err := cfg.Strategy()
	if err != nil {
		return nil, err
	}
	mem, err := memory.New(cfg.Memory.Total, memory.WithLogger(logger.With("engine", "memory")))
	if err != nil {
		return nil, err
	}

	input := textinput.New()
	input.Placeholder = "type a command, enter to run"
	input.Prompt = "> "
	input.CharLimit = 120
	input.Focus()

	a := &App{
		sched:          scheduler.New(policy, scheduler.WithLogger(logger.With("engine", "scheduler"))),
		mem:            mem,
		dl:             deadlock.New(deadlock.WithLogger(logger.With("engine", "deadlock"))),
		sampler:        collector.NewSampler(cfg.Collector.ProcRoot, cfg.Collector.MaxProcesses),
		logger:         logger,
		interval:       cfg.TickInterval,
		quantum:        cfg.Scheduler.Quantum,
		strategy:       strategy,
		tabs:           []string{"CPU Scheduling", "Memory Management", "Deadlock Handling"},
		input:          input,
		cpuProgress:    progress.New(progress.WithDefaultGradient()),
		memoryProgress: progress.New(progress.WithDefaultGradient()),
	}
	if err := a.applyScenario(cfg.Scenario); err != nil {
		return nil, fmt.Errorf("scenario: %w", err)
	}
	a.setStatus(a.help(), false)
	return a, nil
}

func (a *App) applyScenario(s config.Scenario) error {
	var errs []error
	for _, p := range s.Processes {
		errs = append(errs, a.sched.Submit(models.NewProcess(p.ID, p.Arrival, p.Burst)))
	}
	for _, al := range s.Allocations {
		strategy := a.strategy
		if al.Strategy != "" {
			var err error
			if strategy, err = memory.ParseStrategy(al.Strategy); err != nil {
				errs = append(errs, err)
				continue
			}
		}
		errs = append(errs, a.mem.Allocate(al.PID, al.Size, strategy))
	}
	for _, r := range s.Resources {
		errs = append(errs, a.dl.AddResource(r.ID, r.Instances))
	}
	for _, pid := range s.Holders {
		errs = append(errs, a.dl.AddProcess(pid))
	}
	for _, op := range s.Operations {
		_, err := a.resourceOp(op.Op, op.PID, op.RID, op.Quantity)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (a *App) Init() tea.Cmd {
	return textinput.Blink
}

func (a *App) tick() tea.Cmd {
	seq := a.seq
	return tea.Tick(a.interval, func(time.Time) tea.Msg {
		return tickMsg{seq: seq}
	})
}

func (a *App) start() tea.Cmd {
	a.running = true
	a.seq++
	return a.tick()
}

func (a *App) pause() {
	if a.running {
		a.running = false
		a.seq++
	}
}

// advance runs one scheduler tick and reports it in the status line. Once
// every process has completed the run stops with the completion message.
func (a *App) advance() error {
	if a.sched.Done() {
		a.running = false
		a.setStatus(finishedMessage, false)
		return nil
	}
	res, err := a.sched.Step(a.sched.Time())
	if err != nil {
		a.running = false
		return err
	}
	a.last = res
	if a.sched.Done() {
		a.running = false
		a.setStatus(finishedMessage, false)
		return nil
	}
	a.setStatus(fmt.Sprintf("Tick %d: %s.", res.Tick, res.Running), false)
	return nil
}

func (a *App) help() string {
	switch a.activeTab {
	case memoryTab:
		return "alloc <pid> <size> [first|best] • free <pid> • total <size> • seed"
	case deadlockTab:
		return "res <rid> <n> • rmres <rid> • proc <pid> • rmproc <pid> • req|alloc|release <pid> <rid> <qty> • detect"
	default:
		return "add <pid> <arrival> <burst> • policy fcfs|sjf|rr [q] • start • pause • step • reset • seed"
	}
}

// Get the height available for content (excluding sticky header elements)
func (a *App) getContentAreaHeight() int {
	// title, tabs, status, input, help and the blank lines between them
	reservedHeight := 11
	return max(1, a.height-reservedHeight)
}

func (a *App) getMaxScrollOffset() int {
	availableHeight := a.getContentAreaHeight()
	if a.contentHeight <= availableHeight {
		return 0
	}
	return a.contentHeight - availableHeight
}

func (a *App) clampVerticalScroll() {
	a.verticalScrollOffset = max(0, min(a.verticalScrollOffset, a.getMaxScrollOffset()))
}

// Apply vertical scrolling to content by truncating lines
func (a *App) applyVerticalScroll(content string) string {
	lines := strings.Split(content, "\n")
	a.contentHeight = len(lines)
	a.clampVerticalScroll()

	availableHeight := a.getContentAreaHeight()
	if len(lines) <= availableHeight {
		return content
	}

	startLine := a.verticalScrollOffset
	endLine := min(startLine+availableHeight, len(lines))
	result := strings.Join(lines[startLine:endLine], "\n")

	if a.verticalScrollOffset > 0 {
		result = ScrollHintStyle.Render("▲ More content above") + "\n" + result
	}
	if a.verticalScrollOffset < a.getMaxScrollOffset() {
		result = result + "\n" + ScrollHintStyle.Render("▼ More content below")
	}
	return result
}

func (a *App) switchTab(delta int) {
	a.activeTab = (a.activeTab + delta + len(a.tabs)) % len(a.tabs)
	a.verticalScrollOffset = 0
	a.input.Reset()
	a.setStatus(a.help(), false)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height

		progressWidth := max(10, min(50, a.width-20))
		a.cpuProgress.Width = progressWidth
		a.memoryProgress.Width = progressWidth
		a.input.Width = max(10, a.width-6)
		return a, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return a, tea.Quit
		case "tab":
			a.switchTab(1)
			return a, nil
		case "shift+tab":
			a.switchTab(-1)
			return a, nil
		case "enter":
			line := a.input.Value()
			a.input.Reset()
			if strings.TrimSpace(line) == "" {
				return a, nil
			}
			return a, a.execute(line)
		case "pgup", "ctrl+u":
			scrollAmount := max(1, a.getContentAreaHeight()/2)
			a.verticalScrollOffset = max(0, a.verticalScrollOffset-scrollAmount)
			return a, nil
		case "pgdown", "ctrl+d":
			scrollAmount := max(1, a.getContentAreaHeight()/2)
			a.verticalScrollOffset += scrollAmount
			a.clampVerticalScroll()
			return a, nil
		}

	case tickMsg:
		if msg.seq != a.seq || !a.running {
			return a, nil
		}
		if err := a.advance(); err != nil {
			a.logger.Error("tick failed", logging.ErrAttr(err))
			a.setStatus(err.Error(), true)
			return a, nil
		}
		if a.running {
			return a, a.tick()
		}
		return a, nil
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	// Title (sticky)
	title := TitleStyle.Width(a.width).Render("OS Resource Simulator")

	// Tabs (sticky)
	tabs := a.renderTabs()

	var content string
	switch a.activeTab {
	case cpuTab:
		content = a.renderCPU()
	case memoryTab:
		content = a.renderMemory()
	case deadlockTab:
		content = a.renderDeadlock()
	}
	scrollableContent := a.applyVerticalScroll(content)

	statusStyle := StatusStyle
	if a.statusErr {
		statusStyle = ErrorStyle
	}

	help := HelpStyle.Render("tab/shift+tab: switch tabs • enter: run command • PgUp/PgDn: scroll • esc: quit")

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		tabs,
		"",
		scrollableContent,
		"",
		statusStyle.Render(a.status),
		a.input.View(),
		"",
		help,
	)
}

func (a *App) renderTabs() string {
	tabElements := make([]string, 0, len(a.tabs))
	for i, tab := range a.tabs {
		if i == a.activeTab {
			tabElements = append(tabElements, ActiveTabStyle.Render(tab))
		} else {
			tabElements = append(tabElements, InactiveTabStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Left, tabElements...)
}
