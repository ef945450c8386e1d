// SPDX-License-Identifier: MIT

package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/battlab/zketool/pkg/zke"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/spf13/cobra"
)

var (
	mqttBroker   string
	mqttClientID string
	mqttTopic    string
	mqttUsername string
)

// mqttTelemetry is the JSON payload published per frame.
type mqttTelemetry struct {
	Timestamp time.Time `json:"timestamp"`
	Status    string    `json:"status"`
	Program   string    `json:"program"`
	Voltage   float64   `json:"voltage"`
	Current   float64   `json:"current"`
	Capacity  float64   `json:"capacity"`
	Model     string    `json:"model"`
	Anomaly   bool      `json:"anomaly"`
}

var mqttCmd = &cobra.Command{
	Use:   "mqtt",
	Short: "Publish telemetry to an MQTT broker",
	Long: `Bridge device telemetry onto an MQTT broker.

Each frame is published as a JSON message on <topic>/telemetry. Safety
watcher anomalies are additionally published on <topic>/anomaly, retained,
so dashboards see the last incident.

The broker password is read from the MQTT_PASSWORD environment variable.`,
	RunE: runMQTT,
}

func init() {
	mqttCmd.Flags().StringVar(&mqttBroker, "broker", "", "Broker URL, e.g. tcp://host:1883 (required)")
	mqttCmd.Flags().StringVar(&mqttClientID, "client-id", "zketool", "MQTT client id")
	mqttCmd.Flags().StringVar(&mqttTopic, "topic", "zketool", "Topic prefix")
	mqttCmd.Flags().StringVar(&mqttUsername, "mqtt-username", "", "Broker username")
	mqttCmd.MarkFlagRequired("broker")
	rootCmd.AddCommand(mqttCmd)
}

func runMQTT(cmd *cobra.Command, args []string) error {
	session, connInfo, err := openSession()
	if err != nil {
		return err
	}
	defer session.Close()

	options := mqtt.NewClientOptions().
		AddBroker(mqttBroker).
		SetClientID(mqttClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second).
		SetOnConnectHandler(func(c mqtt.Client) {
			log.Printf("Connected to broker %s", mqttBroker)
		}).
		SetConnectionLostHandler(func(c mqtt.Client, err error) {
			log.Printf("Broker connection lost: %v", err)
		})

	if mqttUsername != "" {
		options.SetUsername(mqttUsername)
		options.SetPassword(os.Getenv("MQTT_PASSWORD"))
	}

	client := mqtt.NewClient(options)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("broker connection failed: %v", token.Error())
	}
	defer client.Disconnect(250)

	fmt.Printf("zketool - MQTT Bridge\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Publishing to %s/telemetry, press Ctrl+C to stop\n\n", mqttTopic)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	watcher := zke.NewSafetyWatcher()

	for {
		select {
		case <-interrupt:
			return nil
		default:
		}

		resp, err := session.ReadResponse()
		if err != nil {
			if err == zke.ErrNotConnected {
				return err
			}
			continue
		}

		watcher.Update(resp)
		anomaly := watcher.Check()

		payload, err := json.Marshal(mqttTelemetry{
			Timestamp: resp.Timestamp,
			Status:    resp.Status.String(),
			Program:   resp.Program.String(),
			Voltage:   resp.Voltage,
			Current:   resp.Current,
			Capacity:  resp.Capacity,
			Model:     resp.Model.String(),
			Anomaly:   anomaly,
		})
		if err != nil {
			return fmt.Errorf("failed to marshal telemetry: %v", err)
		}

		client.Publish(mqttTopic+"/telemetry", 0, false, payload)
		if anomaly {
			client.Publish(mqttTopic+"/anomaly", 1, true, payload)
		}
	}
}
