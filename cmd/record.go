// SPDX-License-Identifier: MIT

package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/battlab/zketool/pkg/zke"
	"github.com/fxamacker/cbor/v2"
	"github.com/spf13/cobra"
)

var (
	recordOutput string
	recordDump   string
)

// telemetryRecord is one recorded frame. Encoded as a CBOR stream, one
// record per frame, so a crash mid-recording loses at most one frame.
type telemetryRecord struct {
	Timestamp time.Time `cbor:"1,keyasint"`
	Status    uint8     `cbor:"2,keyasint"`
	Program   uint8     `cbor:"3,keyasint"`
	Voltage   float64   `cbor:"4,keyasint"`
	Current   float64   `cbor:"5,keyasint"`
	Capacity  float64   `cbor:"6,keyasint"`
	Model     uint8     `cbor:"7,keyasint"`
}

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record telemetry to a CBOR file",
	Long: `Record telemetry frames to a compact CBOR stream file for later
analysis, or dump a previously recorded file as text.

Recording runs until interrupted. Each frame becomes one CBOR record with
timestamp, status, program and the live metrics.`,
	RunE: runRecord,
}

func init() {
	recordCmd.Flags().StringVarP(&recordOutput, "output", "o", "", "File to record telemetry into")
	recordCmd.Flags().StringVar(&recordDump, "dump", "", "Recorded file to dump as text (no device needed)")
	rootCmd.AddCommand(recordCmd)
}

func runRecord(cmd *cobra.Command, args []string) error {
	if recordDump != "" {
		return dumpRecording(recordDump)
	}
	if recordOutput == "" {
		return fmt.Errorf("either --output or --dump must be specified")
	}

	session, connInfo, err := openSession()
	if err != nil {
		return err
	}
	defer session.Close()

	out, err := os.Create(recordOutput)
	if err != nil {
		return fmt.Errorf("failed to create %s: %v", recordOutput, err)
	}
	defer out.Close()

	fmt.Printf("zketool - Telemetry Recorder\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Recording to %s, press Ctrl+C to stop\n\n", recordOutput)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	encoder := cbor.NewEncoder(out)
	recorded := 0

	for {
		select {
		case <-interrupt:
			fmt.Printf("\nRecorded %d frames\n", recorded)
			return nil
		default:
		}

		resp, err := session.ReadResponse()
		if err != nil {
			if err == zke.ErrNotConnected {
				fmt.Printf("\nRecorded %d frames\n", recorded)
				return err
			}
			// Silence and corrupt frames are skipped, not recorded.
			continue
		}

		rec := telemetryRecord{
			Timestamp: resp.Timestamp,
			Status:    uint8(resp.Status),
			Program:   uint8(resp.Program),
			Voltage:   resp.Voltage,
			Current:   resp.Current,
			Capacity:  resp.Capacity,
			Model:     uint8(resp.Model),
		}
		if err := encoder.Encode(rec); err != nil {
			return fmt.Errorf("failed to write record: %v", err)
		}
		recorded++

		if recorded%30 == 0 {
			log.Printf("%d frames recorded", recorded)
		}
	}
}

func dumpRecording(path string) error {
	in, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %v", path, err)
	}
	defer in.Close()

	decoder := cbor.NewDecoder(in)
	count := 0

	for {
		var rec telemetryRecord
		if err := decoder.Decode(&rec); err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("record %d is corrupt: %v", count+1, err)
		}
		fmt.Printf("[%s] %-7s Voltage: %6.3f V, Current: %6.3f A, Capacity: %4.0f mAh\n",
			rec.Timestamp.Format("15:04:05"), zke.Status(rec.Status), rec.Voltage, rec.Current, rec.Capacity)
		count++
	}

	fmt.Printf("%d frames\n", count)
	return nil
}
