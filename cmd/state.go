// SPDX-License-Identifier: MIT

package cmd

import (
	"fmt"

	"github.com/battlab/zketool/pkg/zke"
	"github.com/spf13/cobra"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Show the device's current state",
	Long: `Read one telemetry frame and show the device's state.

A silent device is reported as idle (not in PC mode); start it with
start-device to get telemetry.`,
	RunE: runState,
}

func init() {
	rootCmd.AddCommand(stateCmd)
}

func runState(cmd *cobra.Command, args []string) error {
	session, connInfo, err := openSession()
	if err != nil {
		return err
	}
	defer session.Close()

	fmt.Printf("Connection: %s\n", connInfo)

	if err := syncSession(session); err != nil {
		return err
	}

	fmt.Printf("Session:  %s\n", session.State())
	if session.State() == zke.StateIdle {
		fmt.Println("Device is silent; run start-device to begin streaming")
		return nil
	}

	resp, err := session.ReadResponse()
	if err != nil {
		return err
	}
	fmt.Print(zke.FormatResponseDetail(resp))
	return nil
}
