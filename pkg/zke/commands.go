// SPDX-License-Identifier: MIT

package zke

import "math"

// Request builder functions create Request structs ready for encoding.
// They apply the per-operation parameter scaling and range checks; the
// session layer adds the device-state preconditions on top.

// MaxResistanceCurrent is the largest resistance-measurement setpoint in mA.
// Observed on the EBC-A05+; it is unclear whether larger units accept more.
const MaxResistanceCurrent = 30000

// MaxDuration is the largest test duration in minutes. Zero means no limit.
const MaxDuration = 999

// NewStartDevice creates the request that puts the device in PC mode,
// making it send telemetry frames continuously.
func NewStartDevice() *Request {
	return &Request{Code: ReqStartDevice}
}

// NewStopDevice creates the request that takes the device out of PC mode.
func NewStopDevice() *Request {
	return &Request{Code: ReqStopDevice}
}

// NewStopTest creates the request that aborts the running test.
func NewStopTest() *Request {
	return &Request{Code: ReqStopTest}
}

// NewDischargeCC creates a constant-current discharge request.
// Current is in A, cutoff voltage in V, duration in minutes (0 = no limit).
func NewDischargeCC(current, cutoffVoltage float64, duration int) (*Request, error) {
	if current < 0 {
		return nil, parameterErrorf("current", "must not be negative, got %g", current)
	}
	if cutoffVoltage < 0 {
		return nil, parameterErrorf("cutoff voltage", "must not be negative, got %g", cutoffVoltage)
	}
	if err := checkDuration(duration); err != nil {
		return nil, err
	}
	return NewRequest(ReqStartDischargeCC, int(current*1000), int(cutoffVoltage*100), duration)
}

// NewDischargeCP creates a constant-power discharge request.
// Power is in W, cutoff voltage in V, duration in minutes (0 = no limit).
func NewDischargeCP(power, cutoffVoltage float64, duration int) (*Request, error) {
	if power < 0 {
		return nil, parameterErrorf("power", "must not be negative, got %g", power)
	}
	if cutoffVoltage < 0 {
		return nil, parameterErrorf("cutoff voltage", "must not be negative, got %g", cutoffVoltage)
	}
	if err := checkDuration(duration); err != nil {
		return nil, err
	}
	return NewRequest(ReqStartDischargeCP, int(power*10), int(cutoffVoltage*100), duration)
}

// NewCharge creates a charge request for the given charge program.
// Current is in A, cells is the pack cell count, duration in minutes
// (0 = no limit).
func NewCharge(program Program, current float64, cells, duration int) (*Request, error) {
	if !program.IsCharge() {
		return nil, parameterErrorf("program", "%s is not a charge program", program)
	}
	if current < 0 {
		return nil, parameterErrorf("current", "must not be negative, got %g", current)
	}
	if cells < 1 {
		return nil, parameterErrorf("cells", "must be 1 or more, got %d", cells)
	}
	if err := checkDuration(duration); err != nil {
		return nil, err
	}
	return NewRequest(startCode(program), int(current*1000), cells, duration)
}

// NewMeasureResistance creates an internal-resistance measurement request.
// Current is in mA.
func NewMeasureResistance(currentMA int) (*Request, error) {
	if currentMA < 0 {
		return nil, parameterErrorf("current", "must not be negative, got %d", currentMA)
	}
	if currentMA > MaxResistanceCurrent {
		return nil, parameterErrorf("current", "must not exceed %d mA, got %d", MaxResistanceCurrent, currentMA)
	}
	return NewRequest(ReqMeasureResistance, currentMA, 0, 0)
}

// NewCalibration creates a calibration request for the given channel and
// level. Value is in V for CalVoltage, A for CalCurrent.
//
// Calibration does not follow the normal per-parameter hi/lo split: the
// device repurposes p1/p2 as one combined field, with the channel/level
// selector added to p1 as a multiple of 240. This layout was
// reverse-engineered from the vendor software and must be kept bit-exact.
func NewCalibration(channel CalChannel, level CalLevel, value float64) (*Request, error) {
	if value < 0 {
		return nil, parameterErrorf("value", "must not be negative, got %g", value)
	}
	if level != LevelLower && level != LevelUpper {
		return nil, parameterErrorf("level", "must be lower or upper")
	}
	if channel != CalVoltage && channel != CalCurrent {
		return nil, parameterErrorf("channel", "must be voltage or current")
	}

	offset := 2*int(channel) + int(level)
	raw := int(math.Round(value * 1000))
	p1 := raw/240 + 240*offset
	p2 := (raw % 240) * 240

	// Whether the device accepts p1 beyond one hi/lo pair is unresolved;
	// reject rather than wrap silently.
	if p1 > MaxParam {
		return nil, parameterErrorf("value", "%g is too large to calibrate against", value)
	}
	return NewRequest(ReqCalibrate, p1, p2, 0)
}

// startCode returns the start-test request code for a program.
func startCode(p Program) ReqCode {
	switch p {
	case ProgramDischargeCC:
		return ReqStartDischargeCC
	case ProgramDischargeCP:
		return ReqStartDischargeCP
	case ProgramChargeNiMH:
		return ReqStartChargeNiMH
	case ProgramChargeNiCd:
		return ReqStartChargeNiCd
	case ProgramChargeLiIon:
		return ReqStartChargeLiIon
	case ProgramChargeLiFe:
		return ReqStartChargeLiFe
	case ProgramChargeVRLA:
		return ReqStartChargeVRLA
	case ProgramChargeCV:
		return ReqStartChargeCV
	}
	return 0
}

func checkDuration(duration int) error {
	if duration < 0 {
		return parameterErrorf("duration", "must not be negative, got %d", duration)
	}
	if duration > MaxDuration {
		return parameterErrorf("duration", "must not exceed %d minutes, got %d", MaxDuration, duration)
	}
	return nil
}
