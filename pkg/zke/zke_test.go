// SPDX-License-Identifier: MIT

package zke

import (
	"testing"
)

// ============================================================
// Frame Test Helpers
// ============================================================

// buildResponseFrame creates a valid 19-byte response frame. Current and
// voltage are given in their wire scale (mA / mV).
func buildResponseFrame(status Status, program Program, currentMilli, voltageMilli, capacity, unknown, p1, p2, p3 int, model Model) []byte {
	buf := make([]byte, ResponseFrameSize)
	buf[0] = BeginMarker
	buf[1] = byte(status)*10 + byte(program)
	pairs := []int{currentMilli, voltageMilli, capacity, unknown, p1, p2, p3}
	for i, v := range pairs {
		buf[2+2*i] = byte(v / 240)
		buf[3+2*i] = byte(v % 240)
	}
	buf[16] = byte(model)
	buf[17] = Checksum(buf[1:17])
	buf[18] = EndMarker
	return buf
}

// ============================================================
// Checksum Tests
// ============================================================

func TestChecksum_KnownValues(t *testing.T) {
	tests := []struct {
		name     string
		payload  []byte
		expected byte
	}{
		{
			name:     "start device payload",
			payload:  []byte{0x05, 0, 0, 0, 0, 0, 0},
			expected: 5,
		},
		{
			name:     "stop test payload",
			payload:  []byte{0x02, 0, 0, 0, 0, 0, 0},
			expected: 2,
		},
		{
			name:     "discharge cc 0.5A 3.0V payload",
			payload:  []byte{0x01, 2, 20, 1, 60, 0, 0},
			expected: 42,
		},
		{
			name:     "xor above 240 wraps",
			payload:  []byte{0xFF, 0, 0, 0, 0, 0, 0},
			expected: 15, // 255 % 240
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Checksum(tt.payload)
			if got != tt.expected {
				t.Errorf("Checksum mismatch: expected %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestChecksum_Empty(t *testing.T) {
	if got := Checksum(nil); got != 0 {
		t.Errorf("Checksum of empty payload should be 0, got %d", got)
	}
}

// ============================================================
// Frame Validation Tests
// ============================================================

func TestValidateFrame_ValidResponse(t *testing.T) {
	frame := buildResponseFrame(StatusTesting, ProgramDischargeCC, 1000, 3700, 250, 0, 1000, 300, 0, ModelEBCA05)
	if err := ValidateFrame(frame); err != nil {
		t.Fatalf("Valid frame rejected: %v", err)
	}
}

func TestValidateFrame_Rejections(t *testing.T) {
	valid := buildResponseFrame(StatusTesting, ProgramDischargeCC, 1000, 3700, 250, 0, 1000, 300, 0, ModelEBCA05)

	corrupt := func(index int, value byte) []byte {
		frame := make([]byte, len(valid))
		copy(frame, valid)
		frame[index] = value
		return frame
	}

	tests := []struct {
		name   string
		frame  []byte
		reason DecodeReason
	}{
		{"empty", []byte{}, ReasonLength},
		{"short", valid[:18], ReasonLength},
		{"long", append(append([]byte{}, valid...), 0), ReasonLength},
		{"bad begin marker", corrupt(0, 0), ReasonBeginMarker},
		{"bad end marker", corrupt(18, 0), ReasonEndMarker},
		{"bad checksum", corrupt(17, valid[17]+1), ReasonChecksum},
		{"corrupted data byte", corrupt(4, valid[4]+1), ReasonChecksum},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFrame(tt.frame)
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			decErr, ok := err.(*DecodeError)
			if !ok {
				t.Fatalf("Expected *DecodeError, got %T", err)
			}
			if decErr.Reason != tt.reason {
				t.Errorf("Expected reason %d, got %d (%v)", tt.reason, decErr.Reason, err)
			}
		})
	}
}

func TestValidateFrame_UnknownFields(t *testing.T) {
	// Field errors need the checksum recomputed, so they cannot reuse the
	// single-byte corruption helper.
	build := func(codeByte, modelByte byte) []byte {
		frame := buildResponseFrame(StatusTesting, ProgramDischargeCC, 0, 0, 0, 0, 0, 0, 0, Model(modelByte))
		frame[1] = codeByte
		frame[17] = Checksum(frame[1:17])
		return frame
	}

	tests := []struct {
		name   string
		frame  []byte
		reason DecodeReason
	}{
		{"unknown status", build(90, byte(ModelEBCA05)), ReasonStatus},
		{"unknown program", build(19, byte(ModelEBCA05)), ReasonProgram},
		{"unknown model zero", build(10, 0), ReasonModel},
		{"unknown model high", build(10, 20), ReasonModel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFrame(tt.frame)
			decErr, ok := err.(*DecodeError)
			if !ok {
				t.Fatalf("Expected *DecodeError, got %T (%v)", err, err)
			}
			if decErr.Reason != tt.reason {
				t.Errorf("Expected reason %d, got %d (%v)", tt.reason, decErr.Reason, err)
			}
		})
	}
}

func TestValidateFrame_ValidRequest(t *testing.T) {
	req, err := NewDischargeCC(0.5, 3.0, 0)
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	frame, err := Encode(req)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	if err := ValidateFrame(frame); err != nil {
		t.Errorf("Valid request frame rejected: %v", err)
	}
}

func TestValidateFrame_UnknownRequestCode(t *testing.T) {
	frame := []byte{BeginMarker, 0x03, 0, 0, 0, 0, 0, 0, 0, EndMarker}
	frame[8] = Checksum(frame[1:8])
	err := ValidateFrame(frame)
	decErr, ok := err.(*DecodeError)
	if !ok {
		t.Fatalf("Expected *DecodeError, got %T (%v)", err, err)
	}
	if decErr.Reason != ReasonRequestCode {
		t.Errorf("Expected request code rejection, got %v", err)
	}
}

// ============================================================
// Response Decoding Tests
// ============================================================

func TestDecodeResponse_Fields(t *testing.T) {
	frame := buildResponseFrame(StatusTesting, ProgramDischargeCC, 1000, 3700, 250, 7, 500, 300, 120, ModelEBCA05)
	resp, err := DecodeResponse(frame)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}

	if resp.Status != StatusTesting {
		t.Errorf("Expected status testing, got %v", resp.Status)
	}
	if resp.Program != ProgramDischargeCC {
		t.Errorf("Expected program discharge-cc, got %v", resp.Program)
	}
	if !almostEqual(resp.Current, 1.0) {
		t.Errorf("Expected current 1.0 A, got %g", resp.Current)
	}
	if !almostEqual(resp.Voltage, 3.7) {
		t.Errorf("Expected voltage 3.7 V, got %g", resp.Voltage)
	}
	if resp.Capacity != 250 {
		t.Errorf("Expected capacity 250 mAh, got %g", resp.Capacity)
	}
	if resp.Unknown != 7 {
		t.Errorf("Expected unknown field 7, got %d", resp.Unknown)
	}
	if resp.P1 != 500 || resp.P2 != 300 || resp.P3 != 120 {
		t.Errorf("Echoed params mismatch: got %d/%d/%d", resp.P1, resp.P2, resp.P3)
	}
	if resp.Model != ModelEBCA05 {
		t.Errorf("Expected model EBC-A05, got %v", resp.Model)
	}
	if resp.Timestamp.IsZero() {
		t.Error("Expected a decode timestamp")
	}
}

func TestDecodeResponse_StatusProgramPacking(t *testing.T) {
	tests := []struct {
		name    string
		status  Status
		program Program
	}{
		{"init on liion", StatusInit, ProgramChargeLiIon},
		{"ended on cc", StatusEnded, ProgramDischargeCC},
		{"ending on cv", StatusEnding, ProgramChargeCV},
		{"testing on cp", StatusTesting, ProgramDischargeCP},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := buildResponseFrame(tt.status, tt.program, 0, 0, 0, 0, 0, 0, 0, ModelEBDA20H)
			resp, err := DecodeResponse(frame)
			if err != nil {
				t.Fatalf("Decode error: %v", err)
			}
			if resp.Status != tt.status || resp.Program != tt.program {
				t.Errorf("Expected %v/%v, got %v/%v", tt.status, tt.program, resp.Status, resp.Program)
			}
		})
	}
}

func TestDecodeResponse_RequestEcho(t *testing.T) {
	frame, err := Encode(NewStartDevice())
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	if _, err := DecodeResponse(frame); err == nil {
		t.Error("Expected a 10-byte request echo to be rejected")
	}
}

func almostEqual(a, b float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < 0.0005 // half the wire resolution
}
