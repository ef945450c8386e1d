// SPDX-License-Identifier: MIT

// Package zke provides a Go implementation of the serial protocol spoken by
// ZKETech EBC/EBD single-channel battery testers.
//
// The protocol is a fixed-length binary framing: 10-byte requests from the
// host, 19-byte telemetry responses from the device, both delimited by the
// same begin/end markers and protected by an XOR-mod-240 checksum. The
// package provides frame encoding/decoding, the device session state
// machine, the high-level command set and a safety watcher for running
// tests.
package zke

// Protocol framing bytes
const (
	BeginMarker = 250
	EndMarker   = 248
)

// Frame sizes and parameter limits
const (
	RequestFrameSize  = 10
	ResponseFrameSize = 19
	MaxParam          = 57600 // largest value a hi/lo parameter pair can carry
)

// ReqCode is the request-code byte of a request frame. The low nibble
// selects an action, bits 6..4 select a program for the start-test action.
type ReqCode byte

// Action codes
const (
	ReqStartTest         ReqCode = 0x01
	ReqStopTest          ReqCode = 0x02
	ReqCalibrate         ReqCode = 0x04
	ReqStartDevice       ReqCode = 0x05
	ReqStopDevice        ReqCode = 0x06
	ReqUpdateTest        ReqCode = 0x07
	ReqContinueTest      ReqCode = 0x08
	ReqMeasureResistance ReqCode = 0x09
)

// Start-test codes, one per program
const (
	ReqStartDischargeCC ReqCode = 0x01
	ReqStartDischargeCP ReqCode = 0x11
	ReqStartChargeNiMH  ReqCode = 0x21
	ReqStartChargeNiCd  ReqCode = 0x31
	ReqStartChargeLiIon ReqCode = 0x41
	ReqStartChargeLiFe  ReqCode = 0x51
	ReqStartChargeVRLA  ReqCode = 0x61
	// The vendor software sends 0x78 for constant-voltage start, not the
	// 0x71 the nibble layout implies.
	ReqStartChargeCV ReqCode = 0x78
)

// Continue-test codes. Recognized on the wire but never sent: the vendor
// software misbehaves with resumed tests, so ContinueTest is unsupported.
const (
	ReqContinueDischargeCC ReqCode = 0x08
	ReqContinueDischargeCP ReqCode = 0x18
	ReqContinueChargeNiMH  ReqCode = 0x28
	ReqContinueChargeNiCd  ReqCode = 0x38
	ReqContinueChargeLiIon ReqCode = 0x48
	ReqContinueChargeLiFe  ReqCode = 0x58
	ReqContinueChargeVRLA  ReqCode = 0x68
)

// IsValid reports whether the code is a member of the closed request set.
func (c ReqCode) IsValid() bool {
	switch c {
	case ReqStopTest, ReqCalibrate, ReqStartDevice, ReqStopDevice,
		ReqUpdateTest, ReqMeasureResistance,
		ReqStartDischargeCC, ReqStartDischargeCP,
		ReqStartChargeNiMH, ReqStartChargeNiCd, ReqStartChargeLiIon,
		ReqStartChargeLiFe, ReqStartChargeVRLA, ReqStartChargeCV,
		ReqContinueDischargeCC, ReqContinueDischargeCP,
		ReqContinueChargeNiMH, ReqContinueChargeNiCd,
		ReqContinueChargeLiIon, ReqContinueChargeLiFe,
		ReqContinueChargeVRLA:
		return true
	}
	return false
}

// Status is the device-reported phase carried in a response frame.
// The response code byte packs it as status*10 + program.
type Status byte

// Status values
const (
	StatusEnded   Status = 0
	StatusTesting Status = 1
	StatusEnding  Status = 2
	StatusInit    Status = 10
)

// IsValid reports whether the status is a member of the closed status set.
func (s Status) IsValid() bool {
	switch s {
	case StatusEnded, StatusTesting, StatusEnding, StatusInit:
		return true
	}
	return false
}

// Program is the test/charge profile the device is set to. The device is
// always set on exactly one program, whether or not a test is running.
type Program byte

// Program values
const (
	ProgramDischargeCC Program = 0
	ProgramDischargeCP Program = 1
	ProgramChargeNiMH  Program = 2
	ProgramChargeNiCd  Program = 3
	ProgramChargeLiIon Program = 4
	ProgramChargeLiFe  Program = 5
	ProgramChargeVRLA  Program = 6
	ProgramChargeCV    Program = 7
)

// IsValid reports whether the program is a member of the closed program set.
func (p Program) IsValid() bool {
	return p <= ProgramChargeCV
}

// IsCharge reports whether the program charges rather than discharges.
func (p Program) IsCharge() bool {
	return p >= ProgramChargeNiMH && p <= ProgramChargeCV
}

// Model is the device part-number byte of a response frame.
type Model byte

// Known part numbers
const (
	ModelEBCA    Model = 1
	ModelEBCAH   Model = 2
	ModelEBCB    Model = 3
	ModelEBCBH   Model = 4
	ModelEBCA05  Model = 5
	ModelEBCA10H Model = 6
	ModelEBCA10  Model = 7
	ModelEBCB10  Model = 8
	ModelEBCA20  Model = 9
	ModelEBCA40L Model = 10
	ModelEBDA    Model = 11
	ModelEBDAH   Model = 12
	ModelEBDB    Model = 13
	ModelEBDBH   Model = 14
	ModelEBDA10  Model = 15
	ModelEBDA15  Model = 16
	ModelEBDA2S  Model = 17
	ModelEBDA5S  Model = 18
	ModelEBDA20H Model = 19
)

// IsValid reports whether the model is a member of the closed model set.
func (m Model) IsValid() bool {
	return m >= ModelEBCA && m <= ModelEBDA20H
}

// CalChannel selects which measurement a calibration request adjusts.
type CalChannel int

// Calibration channels
const (
	CalVoltage CalChannel = iota
	CalCurrent
)

// CalLevel selects the lower or upper calibration point.
type CalLevel int

// Calibration levels
const (
	LevelLower CalLevel = iota
	LevelUpper
)
