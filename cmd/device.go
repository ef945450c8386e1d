// SPDX-License-Identifier: MIT

package cmd

import (
	"fmt"

	"github.com/battlab/zketool/pkg/zke"
	"github.com/spf13/cobra"
)

var startDeviceCmd = &cobra.Command{
	Use:   "start-device",
	Short: "Put the device in PC mode",
	Long: `Put the device in PC mode so it starts streaming telemetry.

The device sends a telemetry frame roughly every two seconds once started.
All other commands need the device in PC mode first.`,
	RunE: runStartDevice,
}

var stopDeviceCmd = &cobra.Command{
	Use:   "stop-device",
	Short: "Take the device out of PC mode",
	Long: `Take the device out of PC mode, returning it to front-panel control.

The device ignores this while a test is running; stop the test first.`,
	RunE: runStopDevice,
}

var stopTestCmd = &cobra.Command{
	Use:   "stop-test",
	Short: "Abort the running test",
	Long: `Abort the running charge or discharge test.

The device stays in PC mode and keeps streaming telemetry afterwards.`,
	RunE: runStopTest,
}

func init() {
	rootCmd.AddCommand(startDeviceCmd)
	rootCmd.AddCommand(stopDeviceCmd)
	rootCmd.AddCommand(stopTestCmd)
}

func runStartDevice(cmd *cobra.Command, args []string) error {
	session, connInfo, err := openSession()
	if err != nil {
		return err
	}
	defer session.Close()

	fmt.Printf("Connection: %s\n", connInfo)

	if err := session.StartDevice(); err != nil {
		return err
	}

	// The first frame confirms the device took the command.
	resp, err := session.ReadResponse()
	if err != nil {
		return fmt.Errorf("device did not start streaming: %v", err)
	}

	fmt.Printf("Device started: %s, program %s\n", resp.Model, resp.Program)
	fmt.Println(zke.FormatResponse(resp))
	return nil
}

func runStopDevice(cmd *cobra.Command, args []string) error {
	session, connInfo, err := openSession()
	if err != nil {
		return err
	}
	defer session.Close()

	fmt.Printf("Connection: %s\n", connInfo)

	if err := syncSession(session); err != nil {
		return err
	}
	if err := session.StopDevice(); err != nil {
		return err
	}

	fmt.Println("Device stopped")
	return nil
}

func runStopTest(cmd *cobra.Command, args []string) error {
	session, connInfo, err := openSession()
	if err != nil {
		return err
	}
	defer session.Close()

	fmt.Printf("Connection: %s\n", connInfo)

	if err := syncSession(session); err != nil {
		return err
	}
	if err := session.StopTest(); err != nil {
		return err
	}

	fmt.Println("Test stopped")
	return nil
}
