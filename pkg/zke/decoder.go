// SPDX-License-Identifier: MIT

package zke

import "time"

// Response holds the metrics and echoed parameters of one 19-byte
// telemetry frame. Current and voltage are fixed-point values carried as
// hi/lo pairs scaled by 1/1000; capacity and the unknown field use the same
// hi/lo combination unscaled. The unknown field is preserved verbatim, its
// meaning has not been reverse-engineered.
type Response struct {
	Status   Status
	Program  Program
	Current  float64 // A
	Voltage  float64 // V
	Capacity float64 // mAh
	Unknown  int
	P1       int
	P2       int
	P3       int
	Model    Model
	Checksum byte

	Timestamp time.Time
}

// ValidateFrame checks a buffer against the frame definition shared by
// requests (10 bytes) and responses (19 bytes): markers, checksum, and
// membership of every enumerated field in its closed set. Violations are
// reported as *DecodeError carrying the specific reason.
func ValidateFrame(buf []byte) error {
	if len(buf) != RequestFrameSize && len(buf) != ResponseFrameSize {
		return decodeErrorf(ReasonLength, "frame length %d is neither a request (%d) nor a response (%d)",
			len(buf), RequestFrameSize, ResponseFrameSize)
	}
	if buf[0] != BeginMarker {
		return decodeErrorf(ReasonBeginMarker, "first byte %d is not the begin marker %d", buf[0], BeginMarker)
	}
	if buf[len(buf)-1] != EndMarker {
		return decodeErrorf(ReasonEndMarker, "last byte %d is not the end marker %d", buf[len(buf)-1], EndMarker)
	}
	if got, want := buf[len(buf)-2], Checksum(buf[1:len(buf)-2]); got != want {
		return decodeErrorf(ReasonChecksum, "checksum field %d does not match computed checksum %d", got, want)
	}

	if len(buf) == RequestFrameSize {
		if code := ReqCode(buf[1]); !code.IsValid() {
			return decodeErrorf(ReasonRequestCode, "unknown request code 0x%02X", byte(code))
		}
		return nil
	}

	// Response code byte packs status*10 + program.
	if status := Status(buf[1] / 10); !status.IsValid() {
		return decodeErrorf(ReasonStatus, "unknown status code %d", byte(status))
	}
	if program := Program(buf[1] % 10); !program.IsValid() {
		return decodeErrorf(ReasonProgram, "unknown program code %d", byte(program))
	}
	if model := Model(buf[len(buf)-3]); !model.IsValid() {
		return decodeErrorf(ReasonModel, "unknown device model %d", byte(model))
	}
	return nil
}

// DecodeResponse validates a 19-byte response frame and unpacks its fields.
// Malformed input yields a *DecodeError, never a panic; a valid 10-byte
// request echo is reported as a length mismatch since it carries no
// telemetry.
func DecodeResponse(buf []byte) (*Response, error) {
	if len(buf) != ResponseFrameSize {
		return nil, decodeErrorf(ReasonLength, "response length %d, want %d", len(buf), ResponseFrameSize)
	}
	if err := ValidateFrame(buf); err != nil {
		return nil, err
	}

	return &Response{
		Status:    Status(buf[1] / 10),
		Program:   Program(buf[1] % 10),
		Current:   float64(combine(buf[2], buf[3])) / 1000,
		Voltage:   float64(combine(buf[4], buf[5])) / 1000,
		Capacity:  float64(combine(buf[6], buf[7])),
		Unknown:   combine(buf[8], buf[9]),
		P1:        combine(buf[10], buf[11]),
		P2:        combine(buf[12], buf[13]),
		P3:        combine(buf[14], buf[15]),
		Model:     Model(buf[16]),
		Checksum:  buf[17],
		Timestamp: time.Now(),
	}, nil
}

// combine joins a hi/lo wire pair back into its value (base 240).
func combine(hi, lo byte) int {
	return int(hi)*240 + int(lo)
}
