// SPDX-License-Identifier: MIT

package cmd

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/battlab/zketool/pkg/zke"
	"github.com/spf13/cobra"
)

var (
	monitorStopOnAnomaly bool
	monitorUntilTestEnd  bool
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Display live telemetry from the device",
	Long: `Continuously read and display telemetry frames as they arrive.

Each frame shows voltage, current and accumulated capacity. While a test
is running, a safety watcher tracks the discharge current and flags
anomalous rises above the minimum seen, which on a constant-current
discharge usually means a failing cell or a loose connection.

With --stop-on-anomaly, a flagged frame aborts the running test.
With --until-test-end, monitoring exits once the device reports the test
finished.

Supports both serial and WebSocket connections.`,
	RunE: runMonitor,
}

func init() {
	monitorCmd.Flags().BoolVar(&monitorStopOnAnomaly, "stop-on-anomaly", false, "Abort the test when the safety watcher flags a frame")
	monitorCmd.Flags().BoolVar(&monitorUntilTestEnd, "until-test-end", false, "Exit when the running test ends")
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	session, connInfo, err := openSession()
	if err != nil {
		return err
	}
	defer session.Close()

	fmt.Printf("zketool - Telemetry Monitor\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	watcher := zke.NewSafetyWatcher()
	stats := zke.NewStatistics()
	sawTest := false

	for {
		select {
		case <-interrupt:
			fmt.Printf("\n%s", stats)
			return nil
		default:
		}

		resp, err := session.ReadResponse()
		if err != nil {
			stats.Update(nil, err, false)
			switch {
			case err == zke.ErrNoData:
				log.Printf("Device silent; run start-device to begin streaming")
				continue
			case err == zke.ErrNotConnected:
				fmt.Printf("\n%s", stats)
				return err
			default:
				// Corrupt frame, already logged by the session.
				continue
			}
		}

		watcher.Update(resp)
		anomaly := watcher.Check()
		stats.Update(resp, nil, anomaly)

		line := zke.FormatResponse(resp)
		if anomaly {
			line += "  [ANOMALY: current rise]"
		}
		fmt.Printf("[%s] %s %s\n", resp.Timestamp.Format("15:04:05"), resp.Status, line)

		if anomaly && monitorStopOnAnomaly {
			log.Printf("Anomaly detected, stopping test")
			if err := session.StopTest(); err != nil {
				log.Printf("Stop test failed: %v", err)
			}
			fmt.Printf("\n%s", stats)
			return fmt.Errorf("test aborted after current anomaly")
		}

		if resp.Status == zke.StatusTesting {
			sawTest = true
		}
		if monitorUntilTestEnd && sawTest && resp.Status == zke.StatusEnded {
			fmt.Printf("\nTest finished: %4.0f mAh\n\n", resp.Capacity)
			fmt.Print(stats)
			return nil
		}
	}
}
