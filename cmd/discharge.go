// SPDX-License-Identifier: MIT

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	dischargeCurrent float64
	dischargePower   float64
	dischargeCutoff  float64
	dischargeTime    int
)

var dischargeCmd = &cobra.Command{
	Use:   "discharge",
	Short: "Start a discharge test",
	Long: `Start a discharge test on the connected battery.

The device must be in PC mode with no test running. Telemetry keeps
streaming during the test; watch it with the monitor command.`,
}

var dischargeCCCmd = &cobra.Command{
	Use:   "cc",
	Short: "Constant-current discharge",
	Long: `Discharge at a constant current until the cutoff voltage is reached
or the time limit expires.`,
	RunE: runDischargeCC,
}

var dischargeCPCmd = &cobra.Command{
	Use:   "cp",
	Short: "Constant-power discharge",
	Long: `Discharge at a constant power until the cutoff voltage is reached
or the time limit expires.`,
	RunE: runDischargeCP,
}

func init() {
	dischargeCCCmd.Flags().Float64Var(&dischargeCurrent, "current", 0, "Discharge current in A (required)")
	dischargeCCCmd.Flags().Float64Var(&dischargeCutoff, "cutoff", 0, "Cutoff voltage in V (required)")
	dischargeCCCmd.Flags().IntVar(&dischargeTime, "time", 0, "Time limit in minutes (0 = none)")
	dischargeCCCmd.MarkFlagRequired("current")
	dischargeCCCmd.MarkFlagRequired("cutoff")

	dischargeCPCmd.Flags().Float64Var(&dischargePower, "power", 0, "Discharge power in W (required)")
	dischargeCPCmd.Flags().Float64Var(&dischargeCutoff, "cutoff", 0, "Cutoff voltage in V (required)")
	dischargeCPCmd.Flags().IntVar(&dischargeTime, "time", 0, "Time limit in minutes (0 = none)")
	dischargeCPCmd.MarkFlagRequired("power")
	dischargeCPCmd.MarkFlagRequired("cutoff")

	dischargeCmd.AddCommand(dischargeCCCmd)
	dischargeCmd.AddCommand(dischargeCPCmd)
	rootCmd.AddCommand(dischargeCmd)
}

func runDischargeCC(cmd *cobra.Command, args []string) error {
	session, connInfo, err := openSession()
	if err != nil {
		return err
	}
	defer session.Close()

	fmt.Printf("Connection: %s\n", connInfo)

	if err := syncSession(session); err != nil {
		return err
	}
	if err := session.DischargeCC(dischargeCurrent, dischargeCutoff, dischargeTime); err != nil {
		return err
	}

	fmt.Printf("Discharge started: %.3f A to %.2f V", dischargeCurrent, dischargeCutoff)
	printTimeLimit(dischargeTime)
	return nil
}

func runDischargeCP(cmd *cobra.Command, args []string) error {
	session, connInfo, err := openSession()
	if err != nil {
		return err
	}
	defer session.Close()

	fmt.Printf("Connection: %s\n", connInfo)

	if err := syncSession(session); err != nil {
		return err
	}
	if err := session.DischargeCP(dischargePower, dischargeCutoff, dischargeTime); err != nil {
		return err
	}

	fmt.Printf("Discharge started: %.1f W to %.2f V", dischargePower, dischargeCutoff)
	printTimeLimit(dischargeTime)
	return nil
}

func printTimeLimit(minutes int) {
	if minutes > 0 {
		fmt.Printf(", limit %d min\n", minutes)
	} else {
		fmt.Println()
	}
}
