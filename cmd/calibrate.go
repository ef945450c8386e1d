// SPDX-License-Identifier: MIT

package cmd

import (
	"fmt"

	"github.com/battlab/zketool/pkg/zke"
	"github.com/spf13/cobra"
)

var (
	calLevel string
	calValue float64
)

var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Calibrate the device's readings against a reference meter",
	Long: `Write a calibration point to the device.

Each channel takes two points, a lower and an upper, measured with a
trusted reference meter. Voltage calibration happens with no test running;
current calibration needs a constant-current discharge running so there is
a current to measure.

Calibration changes the device's permanent readings. Double-check the
reference value before writing.`,
}

var calibrateVoltageCmd = &cobra.Command{
	Use:   "voltage",
	Short: "Write a voltage calibration point",
	RunE:  runCalibrateVoltage,
}

var calibrateCurrentCmd = &cobra.Command{
	Use:   "current",
	Short: "Write a current calibration point",
	RunE:  runCalibrateCurrent,
}

func init() {
	calibrateCmd.PersistentFlags().StringVar(&calLevel, "level", "", "Calibration point: lower or upper (required)")
	calibrateCmd.PersistentFlags().Float64Var(&calValue, "value", 0, "Reference meter reading in V or A (required)")

	calibrateCmd.AddCommand(calibrateVoltageCmd)
	calibrateCmd.AddCommand(calibrateCurrentCmd)
	rootCmd.AddCommand(calibrateCmd)
}

func parseCalLevel(s string) (zke.CalLevel, error) {
	switch s {
	case "lower":
		return zke.LevelLower, nil
	case "upper":
		return zke.LevelUpper, nil
	}
	return 0, fmt.Errorf("invalid --level %q (use lower or upper)", s)
}

func runCalibrateVoltage(cmd *cobra.Command, args []string) error {
	level, err := parseCalLevel(calLevel)
	if err != nil {
		return err
	}

	session, connInfo, err := openSession()
	if err != nil {
		return err
	}
	defer session.Close()

	fmt.Printf("Connection: %s\n", connInfo)

	if err := syncSession(session); err != nil {
		return err
	}
	if err := session.CalibrateVoltage(level, calValue); err != nil {
		return err
	}

	fmt.Printf("Voltage calibration written: %s point = %.3f V\n", level, calValue)
	return nil
}

func runCalibrateCurrent(cmd *cobra.Command, args []string) error {
	level, err := parseCalLevel(calLevel)
	if err != nil {
		return err
	}

	session, connInfo, err := openSession()
	if err != nil {
		return err
	}
	defer session.Close()

	fmt.Printf("Connection: %s\n", connInfo)

	if err := syncSession(session); err != nil {
		return err
	}
	if err := session.CalibrateCurrent(level, calValue); err != nil {
		return err
	}

	fmt.Printf("Current calibration written: %s point = %.3f A\n", level, calValue)
	return nil
}
