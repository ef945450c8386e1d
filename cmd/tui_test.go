// SPDX-License-Identifier: MIT

package cmd

import (
	"context"
	"testing"
	"time"

	"github.com/battlab/zketool/pkg/zke"
	tea "github.com/charmbracelet/bubbletea"
)

// loopTransport hands out the same telemetry frame on every read, like a
// device free-running in PC mode.
type loopTransport struct {
	frame []byte
	open  bool
}

func (f *loopTransport) IsOpen() bool { return f.open }

func (f *loopTransport) Read(p []byte) (int, error) {
	if !f.open {
		return 0, nil
	}
	return copy(p, f.frame), nil
}

func (f *loopTransport) Write(p []byte) (int, error) { return len(p), nil }

func (f *loopTransport) BytesWaiting() (int, error) { return 0, nil }

func (f *loopTransport) DiscardInput() error { return nil }

func (f *loopTransport) Close() error {
	f.open = false
	return nil
}

// recordingSender receives poller messages in place of a running program.
// Sends never block; the poller free-runs faster than the test consumes.
type recordingSender struct {
	seen chan tea.Msg
}

func newRecordingSender() *recordingSender {
	return &recordingSender{seen: make(chan tea.Msg, 256)}
}

func (r *recordingSender) Send(msg tea.Msg) {
	select {
	case r.seen <- msg:
	default:
	}
}

func (r *recordingSender) waitFor(t *testing.T, what string, match func(tea.Msg) bool) tea.Msg {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case msg := <-r.seen:
			if match(msg) {
				return msg
			}
		case <-deadline:
			t.Fatalf("Timed out waiting for %s", what)
		}
	}
}

func testingTelemetryFrame() []byte {
	buf := make([]byte, zke.ResponseFrameSize)
	buf[0] = zke.BeginMarker
	buf[1] = byte(zke.StatusTesting)*10 + byte(zke.ProgramDischargeCC)
	buf[2], buf[3] = 4, 40   // 1.000 A
	buf[4], buf[5] = 15, 100 // 3.700 V
	buf[16] = byte(zke.ModelEBCA05)
	buf[17] = zke.Checksum(buf[1:17])
	buf[18] = zke.EndMarker
	return buf
}

// The poller owns the session exclusively: commands are served through its
// loop, cancellation is observed at the poll boundary, and the session is
// closed only after the poller has returned. Run under the race detector
// this also proves the shutdown path never touches the session
// concurrently.
func TestPollSession_SerializesSessionAccess(t *testing.T) {
	ft := &loopTransport{frame: testingTelemetryFrame(), open: true}
	session := zke.NewSession(ft)
	sender := newRecordingSender()
	commands := make(chan sessionCommand, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pollerDone := make(chan error, 1)
	go func() {
		pollerDone <- pollSession(ctx, session, sender, commands)
	}()

	// Telemetry flows before any command.
	msg := sender.waitFor(t, "telemetry", func(m tea.Msg) bool {
		_, ok := m.(telemetryMsg)
		return ok
	})
	if tm := msg.(telemetryMsg); tm.state != zke.StateTesting {
		t.Errorf("Expected testing state, got %v", tm.state)
	}

	// Commands go through the poller, never straight to the session.
	commands <- cmdStopTest
	msg = sender.waitFor(t, "command result", func(m tea.Msg) bool {
		_, ok := m.(commandDoneMsg)
		return ok
	})
	if cd := msg.(commandDoneMsg); cd.err != nil {
		t.Errorf("Stop test through the poller failed: %v", cd.err)
	}

	// Shutdown: cancel, wait for the poller to hit its poll boundary,
	// and only then close the session.
	cancel()
	select {
	case err := <-pollerDone:
		if err != nil {
			t.Fatalf("Poller returned error on cancellation: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Poller did not stop at the poll boundary")
	}

	if err := session.Close(); err != nil {
		t.Fatalf("Close after poller exit: %v", err)
	}
}
