// Package mirror republishes the probe's indicator state to an MQTT broker
// so a bench dashboard can follow the LEDs without looking at the board.
package mirror

import (
	"encoding/json"
	"time"

	"launchprobe/core"
)

// DefaultTopic is the topic prefix used when none is configured.
const DefaultTopic = "launchprobe"

// Publisher publishes raw payloads to MQTT.
type Publisher interface {
	// Publish sends payload to topic. Errors must not crash the caller.
	Publish(topic string, payload []byte, retained bool) error

	// Close disconnects from the broker.
	Close() error
}

// Change is one indicator level change.
type Change struct {
	Timestamp time.Time
	Name      string
	Pin       core.GPIOPin
	Level     bool
}

// Payload is the JSON body published for a Change.
type Payload struct {
	Indicator IndicatorPayload `json:"indicator"`
}

// IndicatorPayload contains the indicator details.
type IndicatorPayload struct {
	Timestamp string `json:"timestamp"`
	Name      string `json:"name"`
	Pin       uint32 `json:"pin"`
	State     string `json:"state"`
}

// FormatPayload creates the JSON payload for a change.
func FormatPayload(c Change) ([]byte, error) {
	state := "OFF"
	if c.Level {
		state = "ON"
	}
	return json.Marshal(Payload{
		Indicator: IndicatorPayload{
			Timestamp: c.Timestamp.UTC().Format(time.RFC3339Nano),
			Name:      c.Name,
			Pin:       uint32(c.Pin),
			State:     state,
		},
	})
}

// CommandPayload is the JSON body published when a console command changes
// what the probe is signalling.
type CommandPayload struct {
	Command CommandInner `json:"command"`
}

// CommandInner contains the command details.
type CommandInner struct {
	Timestamp string `json:"timestamp"`
	Name      string `json:"name"`
	Arg       string `json:"arg,omitempty"`
}

// FormatCommandPayload creates the JSON payload for a command.
func FormatCommandPayload(at time.Time, name, arg string) ([]byte, error) {
	return json.Marshal(CommandPayload{
		Command: CommandInner{
			Timestamp: at.UTC().Format(time.RFC3339Nano),
			Name:      name,
			Arg:       arg,
		},
	})
}

// IndicatorTopic returns the topic for an indicator under prefix.
func IndicatorTopic(prefix, name string) string {
	return prefix + "/indicator/" + name
}

// CommandTopic returns the topic for console commands under prefix.
func CommandTopic(prefix string) string {
	return prefix + "/command"
}

// StatusTopic returns the retained online/offline topic under prefix.
func StatusTopic(prefix string) string {
	return prefix + "/status"
}
