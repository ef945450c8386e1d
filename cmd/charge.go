// SPDX-License-Identifier: MIT

package cmd

import (
	"fmt"

	"github.com/battlab/zketool/pkg/zke"
	"github.com/spf13/cobra"
)

var (
	chargeCurrent float64
	chargeCells   int
	chargeTime    int
)

var chargeCmd = &cobra.Command{
	Use:   "charge",
	Short: "Start a charge test",
	Long: `Start a charge test on the connected battery.

The device must be in PC mode with no test running. The chemistry
subcommand selects the charge profile; cutoff behavior follows the
device's firmware for that chemistry.`,
}

// chargePrograms maps subcommand names to the device's charge programs.
var chargePrograms = []struct {
	use     string
	short   string
	program zke.Program
}{
	{"nimh", "Charge a NiMH pack", zke.ProgramChargeNiMH},
	{"nicd", "Charge a NiCd pack", zke.ProgramChargeNiCd},
	{"liion", "Charge a Li-ion pack", zke.ProgramChargeLiIon},
	{"life", "Charge a LiFePO4 pack", zke.ProgramChargeLiFe},
	{"vrla", "Charge a VRLA (lead-acid) pack", zke.ProgramChargeVRLA},
	{"cv", "Constant-voltage charge", zke.ProgramChargeCV},
}

func init() {
	for _, cp := range chargePrograms {
		program := cp.program
		sub := &cobra.Command{
			Use:   cp.use,
			Short: cp.short,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runCharge(program)
			},
		}
		chargeCmd.AddCommand(sub)
	}

	chargeCmd.PersistentFlags().Float64Var(&chargeCurrent, "current", 0, "Charge current in A (required)")
	chargeCmd.PersistentFlags().IntVar(&chargeCells, "cells", 1, "Number of cells in the pack")
	chargeCmd.PersistentFlags().IntVar(&chargeTime, "time", 0, "Time limit in minutes (0 = none)")

	rootCmd.AddCommand(chargeCmd)
}

func runCharge(program zke.Program) error {
	session, connInfo, err := openSession()
	if err != nil {
		return err
	}
	defer session.Close()

	fmt.Printf("Connection: %s\n", connInfo)

	if err := syncSession(session); err != nil {
		return err
	}
	if err := session.Charge(program, chargeCurrent, chargeCells, chargeTime); err != nil {
		return err
	}

	fmt.Printf("Charge started: %s at %.3f A, %d cell(s)", program, chargeCurrent, chargeCells)
	printTimeLimit(chargeTime)
	return nil
}
