// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 UnB Embedded Systems Lab

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/UnB-Embedded-Lab/ball-in-the-tube/pkg/tubelink"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Interactive dashboard for the rig",
	Long: `Live terminal dashboard for the ball-in-the-tube rig.

Shows the latest telemetry readouts, fan duty and valve position gauges, a
height trace over the retention window, and link-health statistics.

Keys:
  +/-   grow/shrink the retention window (5-600 s)
  r     send the reset command
  q     quit

Supports both serial and WebSocket connections.`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

// Styles
var (
	tuiTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)
	tuiLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
	tuiValueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("252"))
	tuiErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))
	tuiEventStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))
	tuiPanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)
)

const maxTuiEvents = 6

// Messages
type tuiTickMsg time.Time
type tuiSamplesMsg []*tubelink.Sample
type tuiLinkLostMsg struct{ err error }

type tuiModel struct {
	link     Link
	linkInfo string
	window   *tubelink.SampleWindow
	reader   *tubelink.LinkReader

	last     *tubelink.Sample
	dutyBar  progress.Model
	valveBar progress.Model
	events   []string
	linkDown bool
	linkErr  error
	width    int
	height   int
	quitting bool
}

func newTuiModel(link Link, linkInfo string, reader *tubelink.LinkReader) tuiModel {
	return tuiModel{
		link:     link,
		linkInfo: linkInfo,
		window:   reader.Window(),
		reader:   reader,
		dutyBar:  progress.New(progress.WithDefaultGradient()),
		valveBar: progress.New(progress.WithDefaultGradient()),
	}
}

func tuiTick() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return tuiTickMsg(t)
	})
}

func (m tuiModel) Init() tea.Cmd {
	return tuiTick()
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "+", "=":
			m.adjustRetention(5 * time.Second)
		case "-", "_":
			m.adjustRetention(-5 * time.Second)
		case "r":
			m.sendReset()
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		barWidth := msg.Width/2 - 14
		if barWidth < 10 {
			barWidth = 10
		}
		m.dutyBar.Width = barWidth
		m.valveBar.Width = barWidth
		return m, nil

	case tuiSamplesMsg:
		if len(msg) > 0 {
			m.last = msg[len(msg)-1]
		}
		return m, nil

	case tuiLinkLostMsg:
		m.linkDown = true
		m.linkErr = msg.err
		m.logEvent(fmt.Sprintf("link lost: %v", msg.err))
		return m, nil

	case tuiTickMsg:
		return m, tuiTick()
	}

	return m, nil
}

func (m *tuiModel) adjustRetention(delta time.Duration) {
	next := m.window.Retention() + delta
	if next < tubelink.MinRetention {
		next = tubelink.MinRetention
	}
	if next > tubelink.MaxRetention {
		next = tubelink.MaxRetention
	}
	if err := m.window.SetRetention(next); err == nil {
		m.logEvent(fmt.Sprintf("retention window set to %v", next))
	}
}

func (m *tuiModel) sendReset() {
	if m.linkDown {
		m.logEvent("reset not sent: link is down")
		return
	}
	frame, err := tubelink.EncodeCommand(tubelink.NewResetCommand())
	if err != nil {
		m.logEvent(fmt.Sprintf("reset encode failed: %v", err))
		return
	}
	if _, err := m.link.Write(frame); err != nil {
		m.logEvent(fmt.Sprintf("reset write failed: %v", err))
		return
	}
	m.logEvent("reset command sent")
}

func (m *tuiModel) logEvent(text string) {
	entry := fmt.Sprintf("%s  %s", time.Now().Format("15:04:05"), text)
	m.events = append(m.events, entry)
	if len(m.events) > maxTuiEvents {
		m.events = m.events[len(m.events)-maxTuiEvents:]
	}
}

func (m tuiModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	title := "Ball in the Tube"
	if m.linkDown {
		title += "  " + tuiErrorStyle.Render("LINK DOWN")
	}
	b.WriteString(tuiTitleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(tuiLabelStyle.Render(m.linkInfo))
	b.WriteString("\n\n")

	b.WriteString(m.readoutsView())
	b.WriteString("\n")
	b.WriteString(m.gaugesView())
	b.WriteString("\n")
	b.WriteString(m.traceView())
	b.WriteString("\n")
	b.WriteString(m.statsView())

	if len(m.events) > 0 {
		b.WriteString("\n")
		for _, e := range m.events {
			b.WriteString(tuiEventStyle.Render(e))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(tuiLabelStyle.Render("+/- retention  r reset  q quit"))
	return b.String()
}

func (m tuiModel) readoutsView() string {
	if m.last == nil {
		return tuiPanelStyle.Render("waiting for telemetry...")
	}
	s := m.last

	row := func(label, value string) string {
		return tuiLabelStyle.Render(fmt.Sprintf("%-14s", label)) + tuiValueStyle.Render(value)
	}

	left := strings.Join([]string{
		row("Mode", s.Mode.String()),
		row("Height", fmt.Sprintf("%d mm", s.HeightMeasuredMm)),
		row("Height SP", fmt.Sprintf("%d mm", s.HeightSetpointMm)),
		row("Temperature", s.TemperatureString()+" °C"),
	}, "\n")
	right := strings.Join([]string{
		row("ToF avg", fmt.Sprintf("%d", s.TofAverageRaw)),
		row("Valve", fmt.Sprintf("%d/%d steps", s.ValvePositionRaw, tubelink.MaxValveSteps)),
		row("Valve SP", fmt.Sprintf("%d steps", s.ValveSetpointRaw)),
		row("Duty", fmt.Sprintf("%d (%.1f%%)", s.DutyRaw, s.DutyPercent())),
	}, "\n")

	return lipgloss.JoinHorizontal(lipgloss.Top,
		tuiPanelStyle.Render(left), " ", tuiPanelStyle.Render(right))
}

func (m tuiModel) gaugesView() string {
	dutyPct, valvePct := 0.0, 0.0
	if m.last != nil {
		dutyPct = m.last.DutyPercent() / 100.0
		valvePct = m.last.ValvePercent() / 100.0
	}
	duty := tuiLabelStyle.Render("Fan duty    ") + m.dutyBar.ViewAs(dutyPct)
	valve := tuiLabelStyle.Render("Valve       ") + m.valveBar.ViewAs(valvePct)
	return duty + "\n" + valve + "\n"
}

// traceView renders the measured height over the retention window as a
// one-line sparkline, newest on the right.
func (m tuiModel) traceView() string {
	snap := m.window.Snapshot()
	if len(snap) == 0 {
		return ""
	}

	width := m.width - 16
	if width < 10 {
		width = 10
	}
	if len(snap) > width {
		snap = snap[len(snap)-width:]
	}

	ramp := []rune("▁▂▃▄▅▆▇█")
	var trace strings.Builder
	for _, s := range snap {
		h := int(s.HeightMeasuredMm)
		if h > tubelink.HeightMaxMm {
			h = tubelink.HeightMaxMm
		}
		idx := h * (len(ramp) - 1) / tubelink.HeightMaxMm
		trace.WriteRune(ramp[idx])
	}

	label := fmt.Sprintf("Height (%ds) ", int(m.window.Retention().Seconds()))
	return tuiLabelStyle.Render(label) + trace.String() + "\n"
}

func (m tuiModel) statsView() string {
	snap := m.reader.Stats().Snapshot()
	line := fmt.Sprintf("frames %d  rate %.1f/s  dropped %d  discarded %d",
		snap.Frames, snap.FrameRate, snap.DroppedBytes, snap.DiscardedBytes)
	return tuiLabelStyle.Render(line)
}

func runTUI(cmd *cobra.Command, args []string) error {
	span, err := retention()
	if err != nil {
		return err
	}

	link, linkInfo, err := OpenLink()
	if err != nil {
		return err
	}

	window, err := tubelink.NewSampleWindow(span)
	if err != nil {
		link.Close()
		return err
	}
	reader := tubelink.NewLinkReader(link, window)

	p := tea.NewProgram(newTuiModel(link, linkInfo, reader), tea.WithAltScreen())

	// Reader goroutine: poll until the link dies, batching samples into
	// program messages. Closing the link on quit unblocks the final read.
	go func() {
		for {
			samples, err := reader.Poll()
			if len(samples) > 0 {
				p.Send(tuiSamplesMsg(samples))
			}
			if err != nil {
				p.Send(tuiLinkLostMsg{err: err})
				return
			}
		}
	}()

	_, runErr := p.Run()
	link.Close()
	window.Clear()
	return runErr
}
