// SPDX-License-Identifier: MIT
//
// zketool - ZKETech EBC/EBD battery tester control
//
// A CLI tool for driving ZKETech single-channel battery testers over
// their serial protocol: charge/discharge tests, live telemetry,
// resistance measurement and calibration.

package main

import (
	"os"

	"github.com/battlab/zketool/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
