// SPDX-License-Identifier: MIT

package zke

import "testing"

func TestNewCharge_StartCodes(t *testing.T) {
	tests := []struct {
		program Program
		code    ReqCode
	}{
		{ProgramChargeNiMH, ReqStartChargeNiMH},
		{ProgramChargeNiCd, ReqStartChargeNiCd},
		{ProgramChargeLiIon, ReqStartChargeLiIon},
		{ProgramChargeLiFe, ReqStartChargeLiFe},
		{ProgramChargeVRLA, ReqStartChargeVRLA},
		{ProgramChargeCV, ReqStartChargeCV},
	}

	for _, tt := range tests {
		t.Run(tt.program.String(), func(t *testing.T) {
			req, err := NewCharge(tt.program, 1.0, 1, 0)
			if err != nil {
				t.Fatalf("Build error: %v", err)
			}
			if req.Code != tt.code {
				t.Errorf("Expected code 0x%02X, got 0x%02X", byte(tt.code), byte(req.Code))
			}
		})
	}
}

func TestNewCharge_CVQuirk(t *testing.T) {
	// The nibble layout would give 0x71, the vendor software sends 0x78.
	req, err := NewCharge(ProgramChargeCV, 0.5, 1, 0)
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if req.Code != 0x78 {
		t.Errorf("Expected CV start code 0x78, got 0x%02X", byte(req.Code))
	}
}

func TestNewCharge_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		program  Program
		current  float64
		cells    int
		duration int
	}{
		{"discharge program", ProgramDischargeCC, 1.0, 1, 0},
		{"negative current", ProgramChargeLiIon, -0.1, 1, 0},
		{"zero cells", ProgramChargeLiIon, 1.0, 0, 0},
		{"duration too long", ProgramChargeLiIon, 1.0, 1, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCharge(tt.program, tt.current, tt.cells, tt.duration)
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if _, ok := err.(*ParameterError); !ok {
				t.Errorf("Expected *ParameterError, got %T", err)
			}
		})
	}
}

func TestNewDischargeCC_Scaling(t *testing.T) {
	req, err := NewDischargeCC(2.5, 3.3, 120)
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if req.P1 != 2500 {
		t.Errorf("Expected p1 2500 (mA), got %d", req.P1)
	}
	if req.P2 != 330 {
		t.Errorf("Expected p2 330 (10 mV), got %d", req.P2)
	}
	if req.P3 != 120 {
		t.Errorf("Expected p3 120 (min), got %d", req.P3)
	}
}

func TestNewDischargeCP_Scaling(t *testing.T) {
	req, err := NewDischargeCP(15.5, 9.0, 0)
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if req.Code != ReqStartDischargeCP {
		t.Errorf("Expected code 0x%02X, got 0x%02X", byte(ReqStartDischargeCP), byte(req.Code))
	}
	if req.P1 != 155 {
		t.Errorf("Expected p1 155 (100 mW), got %d", req.P1)
	}
	if req.P2 != 900 {
		t.Errorf("Expected p2 900 (10 mV), got %d", req.P2)
	}
}

func TestNewMeasureResistance_Range(t *testing.T) {
	req, err := NewMeasureResistance(1000)
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if req.Code != ReqMeasureResistance || req.P1 != 1000 {
		t.Errorf("Unexpected request: code 0x%02X p1 %d", byte(req.Code), req.P1)
	}

	for _, bad := range []int{-1, MaxResistanceCurrent + 1} {
		if _, err := NewMeasureResistance(bad); err == nil {
			t.Errorf("Expected %d mA to be rejected", bad)
		}
	}
}

func TestNewCalibration_ParamLayout(t *testing.T) {
	tests := []struct {
		name    string
		channel CalChannel
		level   CalLevel
		value   float64
		p1, p2  uint16
	}{
		{"voltage lower 1.0", CalVoltage, LevelLower, 1.0, 4, 9600},
		{"voltage upper 4.0", CalVoltage, LevelUpper, 4.0, 256, 38400},
		{"current lower 0.3", CalCurrent, LevelLower, 0.3, 481, 14400},
		{"current upper 2.5", CalCurrent, LevelUpper, 2.5, 730, 24000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := NewCalibration(tt.channel, tt.level, tt.value)
			if err != nil {
				t.Fatalf("Build error: %v", err)
			}
			if req.Code != ReqCalibrate {
				t.Errorf("Expected code 0x%02X, got 0x%02X", byte(ReqCalibrate), byte(req.Code))
			}
			if req.P1 != tt.p1 || req.P2 != tt.p2 {
				t.Errorf("Expected p1/p2 %d/%d, got %d/%d", tt.p1, tt.p2, req.P1, req.P2)
			}
			if req.P3 != 0 {
				t.Errorf("Expected p3 0, got %d", req.P3)
			}
		})
	}
}

func TestNewCalibration_Rejections(t *testing.T) {
	if _, err := NewCalibration(CalVoltage, LevelLower, -1.0); err == nil {
		t.Error("Expected negative value to be rejected")
	}
	// Large enough that the combined p1 field would overflow the wire.
	if _, err := NewCalibration(CalCurrent, LevelUpper, 20000.0); err == nil {
		t.Error("Expected oversized value to be rejected")
	}
}
