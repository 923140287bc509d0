package main

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/NimbleMarkets/ntcharts/canvas/runes"
	"github.com/NimbleMarkets/ntcharts/linechart/streamlinechart"

	"github.com/gwillem/hexapod/pkg/command"
	"github.com/gwillem/hexapod/pkg/control"
	"github.com/gwillem/hexapod/pkg/kinematics"
	"github.com/gwillem/hexapod/pkg/logging"
	"github.com/gwillem/hexapod/pkg/motion"
	"github.com/gwillem/hexapod/pkg/robot"
)

const (
	headerHeight = 2 // title + blank line
	legendHeight = 2 // legend row + blank
	footerHeight = 7 // log box height
	maxLogs      = 5 // number of log messages to show
	borderSize   = 2 // chart border
)

// Leg colors - distinct colors for each leg
var legColors = map[robot.LegName]string{
	robot.FrontRight:  "196", // red
	robot.CenterRight: "208", // orange
	robot.RearRight:   "226", // yellow
	robot.RearLeft:    "46",  // green
	robot.CenterLeft:  "51",  // cyan
	robot.FrontLeft:   "201", // magenta
}

// Keys that push a command, like the buttons of a remote.
var monitorKeys = map[string]string{
	"w":     motion.CmdWalk0,
	"s":     motion.CmdWalk180,
	"a":     motion.CmdWalkL90,
	"d":     motion.CmdWalkR90,
	"left":  motion.CmdTurnLeft,
	"right": motion.CmdTurnRight,
	"up":    motion.CmdFastForward,
	"down":  motion.CmdFastBackward,
	"x":     motion.CmdRotateX,
	"y":     motion.CmdRotateY,
	"z":     motion.CmdRotateZ,
	"t":     motion.CmdTwist,
	"l":     motion.CmdLaydown,
	" ":     motion.CmdStandby,
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	chartStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type monitorModel struct {
	ctx        context.Context
	ctrl       *control.Controller
	queue      *command.Queue
	logs       *logging.ChannelWriter
	chart      *streamlinechart.Model
	width      int      // terminal width
	height     int      // terminal height
	logLines   []string // last N log messages
	quitting   bool
	state      control.State
	lastAngles kinematics.JointAngles // track previous angles to detect movement
	seen       bool
}

func (m *monitorModel) addLog(msg string) {
	m.logLines = append(m.logLines, msg)
	if len(m.logLines) > maxLogs {
		m.logLines = m.logLines[len(m.logLines)-maxLogs:]
	}
}

// hasMovement checks if any leg angle has changed from the last state
func (m *monitorModel) hasMovement(angles kinematics.JointAngles) bool {
	if !m.seen {
		return true // first reading, consider it movement
	}
	return angles != m.lastAngles
}

// Messages from the controller
type stateMsg control.State
type logMsg string

// waitForState and waitForLog return nil once ctx is done, so no reader is
// left behind after the controller stops.
func waitForState(ctx context.Context, states <-chan control.State) tea.Cmd {
	return func() tea.Msg {
		select {
		case s := <-states:
			return stateMsg(s)
		case <-ctx.Done():
			return nil
		}
	}
}

func waitForLog(ctx context.Context, lines <-chan string) tea.Cmd {
	return func() tea.Msg {
		select {
		case l := <-lines:
			return logMsg(l)
		case <-ctx.Done():
			return nil
		}
	}
}

// chartSize calculates the size of the chart based on terminal dimensions
func (m *monitorModel) chartSize() (width, height int) {
	if m.width == 0 || m.height == 0 {
		return 80, 20 // default size before we know terminal size
	}
	width = m.width - borderSize - 2
	if width < 40 {
		width = 40
	}
	height = m.height - headerHeight - legendHeight - footerHeight - borderSize
	if height < 10 {
		height = 10
	}
	return width, height
}

func (m *monitorModel) resizeChart() {
	w, h := m.chartSize()
	m.chart.Resize(w, h)
}

func initialMonitorModel(ctx context.Context, ctrl *control.Controller, queue *command.Queue, logs *logging.ChannelWriter) monitorModel {
	// Knee angles stay within the solver's output range.
	chart := streamlinechart.New(80, 20,
		streamlinechart.WithYRange(-90, 90),
	)

	// Set up data set styles for each leg
	for _, name := range robot.AllLegs() {
		color := legColors[name]
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(color))
		chart.SetDataSetStyles(string(name), runes.ThinLineStyle, style)
	}

	return monitorModel{
		ctx:   ctx,
		ctrl:  ctrl,
		queue: queue,
		logs:  logs,
		chart: &chart,
	}
}

func (m monitorModel) Init() tea.Cmd {
	// Start listening for state and log updates
	return tea.Batch(
		waitForState(m.ctx, m.ctrl.States()),
		waitForLog(m.ctx, m.logs.Lines()),
	)
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeChart()
		return m, nil

	case tea.KeyMsg:
		key := msg.String()
		switch key {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}
		if token, ok := monitorKeys[key]; ok {
			m.queue.Push(token)
		}

	case stateMsg:
		m.state = control.State(msg)
		// Only update chart if there's movement (freeze when idle)
		if m.hasMovement(m.state.Angles) {
			names := robot.AllLegs()
			for leg, a := range m.state.Angles {
				m.chart.PushDataSet(string(names[leg]), a.Knee)
			}
			m.chart.DrawAll()
			m.lastAngles = m.state.Angles
			m.seen = true
		}
		return m, waitForState(m.ctx, m.ctrl.States())

	case logMsg:
		m.addLog(string(msg))
		return m, waitForLog(m.ctx, m.logs.Lines())
	}

	return m, nil
}

func (m monitorModel) View() string {
	if m.quitting {
		return "Monitor stopped.\n"
	}

	var sb strings.Builder

	// Header
	sb.WriteString(titleStyle.Render("Hexapod Monitor"))
	sb.WriteString(fmt.Sprintf(" - %s", m.ctrl.Tick()))
	if m.state.Token != "" {
		sb.WriteString(fmt.Sprintf("  %s (%s) frame %d", m.state.Token, m.state.Kind, m.state.Frame))
	}
	if m.width > 0 {
		sb.WriteString(statusStyle.Render(fmt.Sprintf("  [%dx%d]", m.width, m.height)))
	}
	sb.WriteString("\n\n")

	// Chart
	sb.WriteString(chartStyle.Render(m.chart.View()))
	sb.WriteString("\n")

	// Legend
	sb.WriteString(renderLegend(m.state.Held))
	sb.WriteString("\n")

	// Log box
	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Width(m.width - 4)

	var logLines string
	if len(m.logLines) == 0 {
		logLines = statusStyle.Render("wasd/arrows move, x/y/z/t sway, space standby, l lay down, q quit")
	} else {
		logLines = strings.Join(m.logLines, "\n")
	}
	sb.WriteString(logStyle.Render(logLines))
	sb.WriteString("\n")

	return sb.String()
}

// renderLegend lists the legs; held legs are marked.
func renderLegend(held [kinematics.NumLegs]bool) string {
	var items []string
	for leg, name := range robot.AllLegs() {
		color := legColors[name]
		colorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Bold(true)
		item := colorStyle.Render("━━") + " " + string(name)
		if held[leg] {
			item += statusStyle.Render(" (held)")
		}
		items = append(items, item)
	}
	return strings.Join(items, "  ")
}

func runMonitor(ctx context.Context, ctrl *control.Controller, queue *command.Queue, logs *logging.ChannelWriter) error {
	p := tea.NewProgram(initialMonitorModel(ctx, ctrl, queue, logs), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("run monitor: %w", err)
	}
	return nil
}
