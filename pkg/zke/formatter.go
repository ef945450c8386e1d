// SPDX-License-Identifier: MIT

package zke

import "fmt"

// String returns a human-readable status name.
func (s Status) String() string {
	switch s {
	case StatusEnded:
		return "ended"
	case StatusTesting:
		return "testing"
	case StatusEnding:
		return "ending"
	case StatusInit:
		return "init"
	}
	return fmt.Sprintf("status(%d)", byte(s))
}

// String returns a human-readable program name.
func (p Program) String() string {
	switch p {
	case ProgramDischargeCC:
		return "discharge-cc"
	case ProgramDischargeCP:
		return "discharge-cp"
	case ProgramChargeNiMH:
		return "charge-nimh"
	case ProgramChargeNiCd:
		return "charge-nicd"
	case ProgramChargeLiIon:
		return "charge-liion"
	case ProgramChargeLiFe:
		return "charge-life"
	case ProgramChargeVRLA:
		return "charge-vrla"
	case ProgramChargeCV:
		return "charge-cv"
	}
	return fmt.Sprintf("program(%d)", byte(p))
}

// String returns the vendor part number for the model byte.
func (m Model) String() string {
	names := map[Model]string{
		ModelEBCA:    "EBC-A",
		ModelEBCAH:   "EBC-AH",
		ModelEBCB:    "EBC-B",
		ModelEBCBH:   "EBC-BH",
		ModelEBCA05:  "EBC-A05",
		ModelEBCA10H: "EBC-A10H",
		ModelEBCA10:  "EBC-A10",
		ModelEBCB10:  "EBC-B10",
		ModelEBCA20:  "EBC-A20",
		ModelEBCA40L: "EBC-A40L",
		ModelEBDA:    "EBD-A",
		ModelEBDAH:   "EBD-AH",
		ModelEBDB:    "EBD-B",
		ModelEBDBH:   "EBD-BH",
		ModelEBDA10:  "EBD-A10",
		ModelEBDA15:  "EBD-A15",
		ModelEBDA2S:  "EBD-A2S",
		ModelEBDA5S:  "EBD-A5S",
		ModelEBDA20H: "EBD-A20H",
	}
	if name, ok := names[m]; ok {
		return name
	}
	return fmt.Sprintf("model(%d)", byte(m))
}

// String returns a human-readable channel name.
func (c CalChannel) String() string {
	switch c {
	case CalVoltage:
		return "voltage"
	case CalCurrent:
		return "current"
	}
	return fmt.Sprintf("channel(%d)", int(c))
}

// String returns a human-readable level name.
func (l CalLevel) String() string {
	switch l {
	case LevelLower:
		return "lower"
	case LevelUpper:
		return "upper"
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// FormatResponse formats the live metrics of a response as a single
// fixed-width log line.
func FormatResponse(r *Response) string {
	return fmt.Sprintf("Voltage: %6.3f V, Current: %6.3f A, Capacity: %4.0f mAh",
		r.Voltage, r.Current, r.Capacity)
}

// FormatResponseDetail formats a response including status, program and the
// echoed parameters, one line per field.
func FormatResponseDetail(r *Response) string {
	result := fmt.Sprintf("Status:   %s\n", r.Status)
	result += fmt.Sprintf("Program:  %s\n", r.Program)
	result += fmt.Sprintf("Voltage:  %.3f V\n", r.Voltage)
	result += fmt.Sprintf("Current:  %.3f A\n", r.Current)
	result += fmt.Sprintf("Capacity: %.0f mAh\n", r.Capacity)
	result += fmt.Sprintf("Params:   p1=%d p2=%d p3=%d\n", r.P1, r.P2, r.P3)
	result += fmt.Sprintf("Model:    %s\n", r.Model)
	return result
}
