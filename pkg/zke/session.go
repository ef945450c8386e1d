// SPDX-License-Identifier: MIT

package zke

import (
	"log"
	"time"

	"github.com/pkg/errors"
)

// ReadTimeout bounds a single response read. The device emits a frame
// roughly every two seconds while in PC mode, so three seconds of silence
// means it is not talking.
const ReadTimeout = 3 * time.Second

// Sentinel errors returned by session operations.
var (
	// ErrNotConnected is returned when the transport is not open.
	ErrNotConnected = errors.New("device not connected")

	// ErrNoData is returned when the device sent nothing within the read
	// timeout. Expected when the device is idle, not an I/O failure.
	ErrNoData = errors.New("no data from device")

	// ErrNoResponse is returned when an operation that expects a telemetry
	// frame back got none.
	ErrNoResponse = errors.New("no response from device")

	// ErrNotSupported marks operations the protocol defines but this
	// implementation refuses to send.
	ErrNotSupported = errors.New("operation not supported")
)

// SessionState describes what the session knows about the device.
type SessionState int

const (
	// StateDisconnected means the transport is not open.
	StateDisconnected SessionState = iota

	// StateIdle means the transport is open but no telemetry has been
	// seen; the device is silent until started into PC mode.
	StateIdle

	// StateMonitoring means telemetry is flowing and no test is running.
	StateMonitoring

	// StateTesting means telemetry is flowing and a test is in progress.
	StateTesting

	// StateEnding means the device reported the test winding down.
	StateEnding
)

// String returns a human-readable state name.
func (s SessionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateIdle:
		return "idle"
	case StateMonitoring:
		return "monitoring"
	case StateTesting:
		return "testing"
	case StateEnding:
		return "ending"
	}
	return "unknown"
}

// Session drives one device over a transport. It tracks the device's
// reported state across reads and enforces per-command preconditions, so
// out-of-order commands fail locally instead of being silently ignored on
// the wire. Not safe for concurrent use; callers serialize access.
type Session struct {
	transport Transport

	state SessionState

	program    Program
	hasProgram bool
	model      Model
	hasModel   bool
}

// NewSession wraps an open transport. The session starts idle; the first
// successful read moves it to a monitoring state.
func NewSession(t Transport) *Session {
	s := &Session{transport: t, state: StateDisconnected}
	if t != nil && t.IsOpen() {
		s.state = StateIdle
	}
	return s
}

// State returns the session's view of the device.
func (s *Session) State() SessionState {
	return s.state
}

// Program returns the last program the device reported and whether one has
// been seen at all.
func (s *Session) Program() (Program, bool) {
	return s.program, s.hasProgram
}

// Model returns the last model the device reported and whether one has
// been seen at all.
func (s *Session) Model() (Model, bool) {
	return s.model, s.hasModel
}

// Close shuts the transport down and marks the session disconnected.
func (s *Session) Close() error {
	s.state = StateDisconnected
	if s.transport == nil {
		return nil
	}
	return errors.Wrap(s.transport.Close(), "closing transport")
}

// send encodes and writes one request frame.
func (s *Session) send(r *Request) error {
	if s.transport == nil || !s.transport.IsOpen() {
		s.state = StateDisconnected
		return ErrNotConnected
	}
	frame, err := Encode(r)
	if err != nil {
		return err
	}
	if _, err := s.transport.Write(frame); err != nil {
		return errors.Wrapf(err, "sending request 0x%02X", byte(r.Code))
	}
	return nil
}

// ReadResponse reads and decodes the next telemetry frame, updating the
// session state from it. ErrNoData and *DecodeError returns are non-fatal;
// a polling loop keeps calling through them.
func (s *Session) ReadResponse() (*Response, error) {
	if s.transport == nil || !s.transport.IsOpen() {
		s.state = StateDisconnected
		return nil, ErrNotConnected
	}

	// More than one frame buffered means we fell behind the ~2 s cadence;
	// drop the backlog so the decoded frame is current.
	if waiting, err := s.transport.BytesWaiting(); err == nil && waiting > ResponseFrameSize {
		if err := s.transport.DiscardInput(); err != nil {
			return nil, errors.Wrap(err, "discarding stale input")
		}
	}

	buf := make([]byte, ResponseFrameSize)
	read := 0
	for read < ResponseFrameSize {
		n, err := s.transport.Read(buf[read:])
		if err != nil {
			return nil, errors.Wrap(err, "reading response")
		}
		if n == 0 {
			if read > 0 {
				// Bytes arrived but the frame never completed: line
				// noise or a torn frame, not device silence.
				err := decodeErrorf(ReasonLength, "timed out after %d of %d frame bytes", read, ResponseFrameSize)
				log.Printf("discarding frame: %v", err)
				return nil, err
			}
			// Read timeout with nothing buffered: the device is silent.
			s.state = StateIdle
			return nil, ErrNoData
		}
		read += n
	}

	resp, err := DecodeResponse(buf)
	if err != nil {
		// Corrupt frame. The device keeps its cadence, so leave the state
		// alone and let the caller read again.
		log.Printf("discarding frame: %v", err)
		return nil, err
	}

	s.program = resp.Program
	s.hasProgram = true
	s.model = resp.Model
	s.hasModel = true

	switch resp.Status {
	case StatusTesting:
		s.state = StateTesting
	case StatusEnding:
		s.state = StateEnding
	default:
		s.state = StateMonitoring
	}
	return resp, nil
}

// require checks that the session is in the state an operation needs.
func (s *Session) require(op string, states ...SessionState) error {
	for _, st := range states {
		if s.state == st {
			return nil
		}
	}
	required := ""
	for i, st := range states {
		if i > 0 {
			required += " or "
		}
		required += st.String()
	}
	return &PreconditionError{Op: op, Required: required, Actual: s.state}
}

// StartDevice puts the device in PC mode so it starts streaming telemetry.
func (s *Session) StartDevice() error {
	if err := s.require("start device", StateIdle); err != nil {
		return err
	}
	return s.send(NewStartDevice())
}

// StopDevice takes the device out of PC mode. The device only honors this
// while no test is running. The session stays in monitoring until a
// subsequent read observes the device gone silent.
func (s *Session) StopDevice() error {
	if err := s.require("stop device", StateMonitoring); err != nil {
		return err
	}
	return s.send(NewStopDevice())
}

// StopTest aborts the running test. The device keeps streaming telemetry
// afterwards.
func (s *Session) StopTest() error {
	if err := s.require("stop test", StateTesting); err != nil {
		return err
	}
	return s.send(NewStopTest())
}

// DischargeCC starts a constant-current discharge. Current is in A, cutoff
// voltage in V, duration in minutes (0 = no limit).
func (s *Session) DischargeCC(current, cutoffVoltage float64, duration int) error {
	req, err := NewDischargeCC(current, cutoffVoltage, duration)
	if err != nil {
		return err
	}
	if err := s.require("start discharge", StateMonitoring); err != nil {
		return err
	}
	return s.send(req)
}

// DischargeCP starts a constant-power discharge. Power is in W, cutoff
// voltage in V, duration in minutes (0 = no limit).
func (s *Session) DischargeCP(power, cutoffVoltage float64, duration int) error {
	req, err := NewDischargeCP(power, cutoffVoltage, duration)
	if err != nil {
		return err
	}
	if err := s.require("start discharge", StateMonitoring); err != nil {
		return err
	}
	return s.send(req)
}

// Charge starts a charge with the given program. Current is in A, cells is
// the pack cell count, duration in minutes (0 = no limit).
func (s *Session) Charge(program Program, current float64, cells, duration int) error {
	req, err := NewCharge(program, current, cells, duration)
	if err != nil {
		return err
	}
	if err := s.require("start charge", StateMonitoring); err != nil {
		return err
	}
	return s.send(req)
}

// MeasureResistance measures the battery's internal resistance at the given
// test current in mA and returns it in mOhm. The device answers with one
// telemetry frame whose capacity field carries the raw measurement, scaled
// here by the test current.
func (s *Session) MeasureResistance(currentMA int) (float64, error) {
	req, err := NewMeasureResistance(currentMA)
	if err != nil {
		return 0, err
	}
	if err := s.require("measure resistance", StateMonitoring); err != nil {
		return 0, err
	}
	if err := s.send(req); err != nil {
		return 0, err
	}
	if err := s.transport.DiscardInput(); err != nil {
		return 0, errors.Wrap(err, "discarding stale input")
	}
	resp, err := s.ReadResponse()
	if err != nil {
		return 0, errors.Wrap(ErrNoResponse, err.Error())
	}
	return resp.Capacity / (float64(currentMA) / 1000), nil
}

// CalibrateVoltage writes one voltage calibration point. Value is the true
// voltage in V as measured by a reference meter. Input is flushed after the
// write, matching the vendor software's sequence.
func (s *Session) CalibrateVoltage(level CalLevel, value float64) error {
	req, err := NewCalibration(CalVoltage, level, value)
	if err != nil {
		return err
	}
	if err := s.require("calibrate voltage", StateMonitoring); err != nil {
		return err
	}
	if err := s.send(req); err != nil {
		return err
	}
	return errors.Wrap(s.transport.DiscardInput(), "discarding stale input")
}

// CalibrateCurrent writes one current calibration point. Value is the true
// current in A as measured by a reference meter. The device only applies it
// during a running constant-current discharge.
func (s *Session) CalibrateCurrent(level CalLevel, value float64) error {
	req, err := NewCalibration(CalCurrent, level, value)
	if err != nil {
		return err
	}
	if err := s.require("calibrate current", StateTesting); err != nil {
		return err
	}
	if s.program != ProgramDischargeCC {
		return &PreconditionError{
			Op:       "calibrate current",
			Required: "a running constant-current discharge",
			Actual:   s.state,
		}
	}
	if err := s.send(req); err != nil {
		return err
	}
	return errors.Wrap(s.transport.DiscardInput(), "discarding stale input")
}

// ContinueTest would resume an interrupted test. The vendor software
// misbehaves with resumed tests, so sending these codes is refused.
func (s *Session) ContinueTest() error {
	return ErrNotSupported
}

// UpdateTest would change the parameters of a running test. The effect on a
// live test has not been characterized, so sending it is refused.
func (s *Session) UpdateTest() error {
	return ErrNotSupported
}
