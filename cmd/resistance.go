// SPDX-License-Identifier: MIT

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resistanceCurrent int

var resistanceCmd = &cobra.Command{
	Use:   "resistance",
	Short: "Measure the battery's internal resistance",
	Long: `Measure the battery's internal resistance by pulsing a test current.

The device must be in PC mode with no test running. Higher test currents
give more repeatable readings on low-impedance packs.`,
	RunE: runResistance,
}

func init() {
	resistanceCmd.Flags().IntVar(&resistanceCurrent, "current", 1000, "Test current in mA")
	rootCmd.AddCommand(resistanceCmd)
}

func runResistance(cmd *cobra.Command, args []string) error {
	session, connInfo, err := openSession()
	if err != nil {
		return err
	}
	defer session.Close()

	fmt.Printf("Connection: %s\n", connInfo)

	if err := syncSession(session); err != nil {
		return err
	}

	r, err := session.MeasureResistance(resistanceCurrent)
	if err != nil {
		return err
	}

	fmt.Printf("Internal resistance: %.1f mOhm (at %d mA)\n", r, resistanceCurrent)
	return nil
}
