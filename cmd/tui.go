// SPDX-License-Identifier: MIT

package cmd

import (
	"context"
	"fmt"

	"github.com/battlab/zketool/pkg/zke"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Interactive dashboard for a running test",
	Long: `Watch and control the device through an interactive terminal UI.

Shows live voltage, current and capacity, the session state, frame
statistics and safety watcher alerts.

Key bindings:
  d       start the device (PC mode)
  s       stop the running test
  q       quit

Supports both serial and WebSocket connections.`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

// ============================================================
// Messages
// ============================================================

type telemetryMsg struct {
	resp    *zke.Response
	state   zke.SessionState
	anomaly bool
}

type readErrorMsg struct {
	err   error
	state zke.SessionState
}

type commandDoneMsg struct {
	what string
	err  error
}

type pollerStoppedMsg struct{ err error }

// sessionCommand is a request from the UI to the polling goroutine, which
// owns the session.
type sessionCommand int

const (
	cmdStopTest sessionCommand = iota
	cmdStartDevice
)

// ============================================================
// Model
// ============================================================

var (
	tuiTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	tuiLabelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	tuiValueStyle  = lipgloss.NewStyle().Bold(true)
	tuiAlertStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	tuiStatusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	tuiBoxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

type tuiModel struct {
	connInfo string
	spin     spinner.Model

	state   zke.SessionState
	resp    *zke.Response
	anomaly bool
	stats   *zke.Statistics

	events   []string
	quitting bool

	commands chan<- sessionCommand
}

func newTUIModel(connInfo string, commands chan<- sessionCommand) tuiModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return tuiModel{
		connInfo: connInfo,
		spin:     sp,
		state:    zke.StateIdle,
		stats:    zke.NewStatistics(),
		commands: commands,
	}
}

func (m tuiModel) Init() tea.Cmd {
	return m.spin.Tick
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "s":
			m.pushEvent("stop test requested")
			m.sendCommand(cmdStopTest)
		case "d":
			m.pushEvent("start device requested")
			m.sendCommand(cmdStartDevice)
		}

	case telemetryMsg:
		m.resp = msg.resp
		m.state = msg.state
		m.anomaly = msg.anomaly
		m.stats.Update(msg.resp, nil, msg.anomaly)
		if msg.anomaly {
			m.pushEvent(tuiAlertStyle.Render("ANOMALY: current rise during test"))
		}

	case readErrorMsg:
		m.state = msg.state
		m.stats.Update(nil, msg.err, false)
		if _, ok := msg.err.(*zke.DecodeError); ok {
			m.pushEvent(fmt.Sprintf("corrupt frame: %v", msg.err))
		}

	case commandDoneMsg:
		if msg.err != nil {
			m.pushEvent(fmt.Sprintf("%s failed: %v", msg.what, msg.err))
		} else {
			m.pushEvent(fmt.Sprintf("%s sent", msg.what))
		}

	case pollerStoppedMsg:
		if msg.err != nil {
			m.pushEvent(fmt.Sprintf("connection lost: %v", msg.err))
		}
		m.state = zke.StateDisconnected

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *tuiModel) sendCommand(c sessionCommand) {
	select {
	case m.commands <- c:
	default:
		m.pushEvent("device busy, command dropped")
	}
}

func (m *tuiModel) pushEvent(s string) {
	m.events = append(m.events, s)
	if len(m.events) > 6 {
		m.events = m.events[len(m.events)-6:]
	}
}

func (m tuiModel) View() string {
	if m.quitting {
		return ""
	}

	header := tuiTitleStyle.Render("zketool") + "  " + tuiLabelStyle.Render(m.connInfo)

	var metrics string
	if m.resp == nil {
		metrics = m.spin.View() + " waiting for telemetry"
	} else {
		metrics = fmt.Sprintf("%s %s\n%s %s\n%s %s\n%s %s",
			tuiLabelStyle.Render("Voltage: "), tuiValueStyle.Render(fmt.Sprintf("%6.3f V", m.resp.Voltage)),
			tuiLabelStyle.Render("Current: "), tuiValueStyle.Render(fmt.Sprintf("%6.3f A", m.resp.Current)),
			tuiLabelStyle.Render("Capacity:"), tuiValueStyle.Render(fmt.Sprintf("%4.0f mAh", m.resp.Capacity)),
			tuiLabelStyle.Render("Program: "), tuiValueStyle.Render(m.resp.Program.String()),
		)
		if m.anomaly {
			metrics += "\n" + tuiAlertStyle.Render("!! current anomaly")
		}
	}

	status := fmt.Sprintf("%s %s",
		tuiLabelStyle.Render("Session:"),
		tuiStatusStyle.Render(m.state.String()))
	if m.resp != nil {
		status += fmt.Sprintf("  %s %s",
			tuiLabelStyle.Render("Device:"),
			tuiStatusStyle.Render(m.resp.Model.String()))
	}

	statLine := fmt.Sprintf("frames %d  errors %d  anomalies %d",
		m.stats.ValidFrames,
		m.stats.ChecksumErrors+m.stats.FramingErrors+m.stats.FieldErrors,
		m.stats.Anomalies)

	events := ""
	for _, e := range m.events {
		events += e + "\n"
	}

	help := tuiLabelStyle.Render("d: start device  s: stop test  q: quit")

	return header + "\n" +
		tuiBoxStyle.Render(metrics) + "\n" +
		status + "\n" +
		tuiLabelStyle.Render(statLine) + "\n" +
		events +
		help + "\n"
}

// ============================================================
// Poller
// ============================================================

// programSender is the subset of *tea.Program the poller needs, split out
// so the poller can be exercised without a terminal.
type programSender interface {
	Send(tea.Msg)
}

// pollSession owns the session and its safety watcher exclusively: it
// alternates between reading telemetry and serving UI commands, pushing
// results to the program. Nothing else may touch the session while it
// runs; shutdown is a context cancellation observed at the poll boundary,
// after which the caller closes the session. Returns when the context is
// cancelled or the transport fails.
func pollSession(ctx context.Context, session *zke.Session, p programSender, commands <-chan sessionCommand) error {
	watcher := zke.NewSafetyWatcher()

	for {
		select {
		case <-ctx.Done():
			return nil
		case c := <-commands:
			switch c {
			case cmdStopTest:
				p.Send(commandDoneMsg{what: "stop test", err: session.StopTest()})
			case cmdStartDevice:
				p.Send(commandDoneMsg{what: "start device", err: session.StartDevice()})
			}
			continue
		default:
		}

		resp, err := session.ReadResponse()
		if err != nil {
			if err == zke.ErrNotConnected {
				p.Send(pollerStoppedMsg{err: err})
				return err
			}
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			p.Send(readErrorMsg{err: err, state: session.State()})
			continue
		}

		watcher.Update(resp)
		p.Send(telemetryMsg{resp: resp, state: session.State(), anomaly: watcher.Check()})
	}
}

func runTUI(cmd *cobra.Command, args []string) error {
	session, connInfo, err := openSession()
	if err != nil {
		return err
	}
	defer session.Close()

	commands := make(chan sessionCommand, 1)
	m := newTUIModel(connInfo, commands)
	p := tea.NewProgram(m, tea.WithAltScreen())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return pollSession(ctx, session, p, commands)
	})
	g.Go(func() error {
		_, err := p.Run()
		// The poller notices the cancellation at its next poll boundary,
		// at most one read timeout later. The deferred Close runs only
		// after g.Wait, once the poller has released the session.
		cancel()
		return err
	})

	if err := g.Wait(); err != nil && err != zke.ErrNotConnected {
		return fmt.Errorf("TUI error: %v", err)
	}
	return nil
}
