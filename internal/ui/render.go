package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/prabalesh/osdash/internal/deadlock"
	"github.com/prabalesh/osdash/internal/models"
)

// cellWidth is how many columns one tick or one memory cell occupies.
const cellWidth = 3

func (a *App) renderCPU() string {
	procs := a.sched.Processes()
	colors := colorIndex(procs)

	state := "Paused"
	switch {
	case a.running:
		state = "Running"
	case a.sched.Done() && len(procs) > 0:
		state = "Complete"
	}
	running := models.IdleID
	if cur, ok := a.sched.Current(); ok {
		running = cur.ID
	}

	content := []string{
		HeaderStyle.Render("CPU Scheduling"),
		"",
		fmt.Sprintf("%s %s   %s %s",
			LabelStyle.Render("Policy:"), ValueStyle.Render(a.sched.Policy().String()),
			LabelStyle.Render("Run:"), MutedStyle.Render(shortID(a.sched.RunID()))),
		fmt.Sprintf("%s %s", LabelStyle.Render("Processes:"), ValueStyle.Render(templateList(procs))),
		fmt.Sprintf("%s %d   %s %s   %s %s",
			LabelStyle.Render("Time:"), a.sched.Time(),
			LabelStyle.Render("Running:"), ValueStyle.Render(running),
			LabelStyle.Render("State:"), ValueStyle.Render(state)),
		"",
		HeaderStyle.Render("Gantt Chart"),
		a.renderGantt(colors),
		"",
		HeaderStyle.Render("Metrics"),
		fmt.Sprintf("%s %.2f   %s %.2f   %s %d",
			LabelStyle.Render("Avg waiting:"), a.last.AvgWaitingTime,
			LabelStyle.Render("Avg turnaround:"), a.last.AvgTurnaroundTime,
			LabelStyle.Render("Context switches:"), a.sched.ContextSwitches()),
		fmt.Sprintf("%s %.1f%%", LabelStyle.Render("CPU utilization:"), a.last.CPUUtilization),
		a.cpuProgress.ViewAs(a.last.CPUUtilization / 100.0),
		"",
		HeaderStyle.Render("Ready Queue"),
		renderTable(
			[]table.Column{{Title: "PID", Width: 12}, {Title: "Arrival", Width: 8}, {Title: "Burst", Width: 6}, {Title: "Remaining", Width: 10}, {Title: "Waiting", Width: 8}},
			readyRows(a.sched.ReadyQueue()),
		),
		"",
		HeaderStyle.Render("Completed"),
		renderTable(
			[]table.Column{{Title: "PID", Width: 12}, {Title: "Arrival", Width: 8}, {Title: "Burst", Width: 6}, {Title: "Start", Width: 6}, {Title: "Completion", Width: 10}, {Title: "Turnaround", Width: 10}, {Title: "Waiting", Width: 8}},
			completedRows(a.sched.Completed()),
		),
	}

	return BaseStyle.Width(max(20, a.width-4)).Render(
		lipgloss.JoinVertical(lipgloss.Left, content...),
	)
}

func templateList(procs []models.Process) string {
	if len(procs) == 0 {
		return "none"
	}
	parts := make([]string, 0, len(procs))
	for _, p := range procs {
		parts = append(parts, fmt.Sprintf("%s(%d,%d)", p.ID, p.ArrivalTime, p.BurstTime))
	}
	return strings.Join(parts, ", ")
}

// renderGantt draws the most recent ticks that fit the width, one colored
// cell per tick, with the first tick number underneath.
func (a *App) renderGantt(colors map[string]int) string {
	gantt := a.sched.Gantt()
	if len(gantt) == 0 {
		return MutedStyle.Render("no ticks yet")
	}
	fit := max(1, (a.width-12)/cellWidth)
	if len(gantt) > fit {
		gantt = gantt[len(gantt)-fit:]
	}

	cells := make([]string, 0, len(gantt))
	for _, g := range gantt {
		cells = append(cells, blockStyle(g.PID, colors).Render(label(g.PID, cellWidth)))
	}
	axis := fmt.Sprintf("t=%d .. t=%d", gantt[0].Tick, gantt[len(gantt)-1].Tick)
	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, cells...),
		MutedStyle.Render(axis),
	)
}

func readyRows(ready []models.Process) []table.Row {
	rows := make([]table.Row, 0, len(ready))
	for _, p := range ready {
		rows = append(rows, table.Row{
			p.ID, strconv.Itoa(p.ArrivalTime), strconv.Itoa(p.BurstTime),
			strconv.Itoa(p.RemainingTime), strconv.Itoa(p.WaitingTime),
		})
	}
	return rows
}

func completedRows(done []models.Process) []table.Row {
	rows := make([]table.Row, 0, len(done))
	for _, p := range done {
		rows = append(rows, table.Row{
			p.ID, strconv.Itoa(p.ArrivalTime), strconv.Itoa(p.BurstTime),
			optionalInt(p.StartTime.Present(), p.StartTime.OrElse(0)),
			optionalInt(p.CompletionTime.Present(), p.CompletionTime.OrElse(0)),
			strconv.Itoa(p.TurnaroundTime), strconv.Itoa(p.WaitingTime),
		})
	}
	return rows
}

func optionalInt(present bool, v int) string {
	if !present {
		return "-"
	}
	return strconv.Itoa(v)
}

func (a *App) renderMemory() string {
	stats := a.mem.Stats()
	usage := stats.UsagePercent()

	content := []string{
		HeaderStyle.Render("Memory Management"),
		"",
		fmt.Sprintf("%s %d   %s %s",
			LabelStyle.Render("Total:"), a.mem.Total(),
			LabelStyle.Render("Strategy:"), ValueStyle.Render(a.strategy.String())),
		fmt.Sprintf("%s %d   %s %d   %s %d   %s %d",
			LabelStyle.Render("Free:"), stats.FreeMemory,
			LabelStyle.Render("Allocated:"), stats.AllocatedMemory,
			LabelStyle.Render("Holes:"), stats.FreeHoles,
			LabelStyle.Render("Largest hole:"), stats.LargestFreeBlock),
		"",
		fmt.Sprintf("%s %.1f%%", LabelStyle.Render("Usage:"), usage),
		a.memoryProgress.ViewAs(usage / 100.0),
		"",
		HeaderStyle.Render("Memory Map"),
		a.renderMemoryMap(),
		"",
		HeaderStyle.Render("Blocks"),
		renderTable(
			[]table.Column{{Title: "Start", Width: 8}, {Title: "End", Width: 8}, {Title: "Size", Width: 8}, {Title: "Status", Width: 10}, {Title: "PID", Width: 14}},
			blockRows(a.mem.Snapshot()),
		),
	}

	return BaseStyle.Width(max(20, a.width-4)).Render(
		lipgloss.JoinVertical(lipgloss.Left, content...),
	)
}

// renderMemoryMap draws every block scaled to the available width. Each
// block gets at least one cell so small blocks stay visible.
func (a *App) renderMemoryMap() string {
	blocks := a.mem.Snapshot()
	width := max(len(blocks), a.width-12)
	total := a.mem.Total()

	colors := map[string]int{}
	for _, b := range blocks {
		if !b.Free() {
			if _, ok := colors[b.ProcessID]; !ok {
				colors[b.ProcessID] = len(colors)
			}
		}
	}

	cells := make([]string, 0, len(blocks))
	for _, b := range blocks {
		w := max(1, b.Size*width/total)
		if b.Free() {
			cells = append(cells, FreeBlockStyle.Render(label("free", w)))
			continue
		}
		cells = append(cells, blockStyle(b.ProcessID, colors).Render(label(b.ProcessID, w)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cells...)
}

func blockRows(blocks []models.MemoryBlock) []table.Row {
	rows := make([]table.Row, 0, len(blocks))
	for _, b := range blocks {
		pid := b.ProcessID
		if pid == "" {
			pid = "-"
		}
		rows = append(rows, table.Row{
			strconv.Itoa(b.Start), strconv.Itoa(b.End()), strconv.Itoa(b.Size), string(b.Status), pid,
		})
	}
	return rows
}

func (a *App) renderDeadlock() string {
	state := a.dl.State()

	resourceRows := make([]table.Row, 0, len(state.Resources))
	for _, r := range state.Resources {
		resourceRows = append(resourceRows, table.Row{
			r.ID, strconv.Itoa(r.Total), strconv.Itoa(r.Available), strconv.Itoa(r.Allocated), strconv.Itoa(r.Requested),
		})
	}
	processRows := make([]table.Row, 0, len(state.Processes))
	for _, p := range state.Processes {
		processRows = append(processRows, table.Row{
			p.ID, deadlock.FormatCounts(p.Allocated), deadlock.FormatCounts(p.Requested),
		})
	}

	detection := MutedStyle.Render("run detect to check the current state")
	if a.detection != nil {
		detection = DetectionStyle(a.detection.Status).Render(a.detection.String())
	}

	content := []string{
		HeaderStyle.Render("Deadlock Handling"),
		"",
		HeaderStyle.Render("Resources"),
		renderTable(
			[]table.Column{{Title: "RID", Width: 10}, {Title: "Total", Width: 7}, {Title: "Available", Width: 10}, {Title: "Allocated", Width: 10}, {Title: "Requested", Width: 10}},
			resourceRows,
		),
		"",
		HeaderStyle.Render("Processes"),
		renderTable(
			[]table.Column{{Title: "PID", Width: 10}, {Title: "Allocated", Width: 24}, {Title: "Requested", Width: 24}},
			processRows,
		),
		"",
		HeaderStyle.Render("Detection"),
		detection,
	}

	return BaseStyle.Width(max(20, a.width-4)).Render(
		lipgloss.JoinVertical(lipgloss.Left, content...),
	)
}

// renderTable renders a static, unfocused table sized to its rows.
func renderTable(cols []table.Column, rows []table.Row) string {
	if len(rows) == 0 {
		return MutedStyle.Render("empty")
	}
	t := table.New(
		table.WithColumns(cols),
		table.WithRows(rows),
		table.WithHeight(len(rows)+1),
		table.WithFocused(false),
		table.WithStyles(TableStyles()),
	)
	return t.View()
}

// colorIndex assigns palette slots to process ids in arrival order.
func colorIndex(procs []models.Process) map[string]int {
	colors := make(map[string]int, len(procs))
	for i, p := range procs {
		colors[p.ID] = i
	}
	return colors
}

func shortID(id string) string {
	return ansi.Truncate(id, 8, "")
}

// label fits s into exactly w terminal cells without splitting a rune.
func label(s string, w int) string {
	if w <= 0 {
		return ""
	}
	s = ansi.Truncate(s, w, "")
	return s + strings.Repeat(" ", w-ansi.StringWidth(s))
}
