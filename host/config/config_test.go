package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv(EnvConfig, "")
	t.Setenv("HOME", t.TempDir())

	c, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "/dev/ttyACM0", c.Serial.Device)
	require.Equal(t, 115200, c.Serial.Baud)
	require.Equal(t, 100, c.Serial.ReadTimeoutMS)
	require.False(t, c.GPIO.Enabled)
	require.Equal(t, uint32(17), c.GPIO.RunPin)
	require.Equal(t, uint32(27), c.GPIO.ErrorPin)
	require.False(t, c.MQTT.Enabled)
	require.Equal(t, uint32(500), c.Console.IdleTimeoutMS)
}

func TestLoadTOMLFile(t *testing.T) {
	path := writeConfig(t, "probed.toml", `
[serial]
device = "/dev/ttyUSB3"
baud = 57600

[gpio]
enabled = true
run_pin = 5
error_pin = 6

[mqtt]
enabled = true
broker = "tcp://bench:1883"
topic = "bench/probe1"

[console]
banner = ""
echo = true
`)

	c, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/dev/ttyUSB3", c.Serial.Device)
	require.Equal(t, 57600, c.Serial.Baud)
	require.Equal(t, 100, c.Serial.ReadTimeoutMS)
	require.True(t, c.GPIO.Enabled)
	require.Equal(t, uint32(5), c.GPIO.RunPin)
	require.Equal(t, "bench/probe1", c.MQTT.Topic)
	require.Equal(t, "", c.Console.Banner)
	require.True(t, c.Console.Echo)
}

func TestLoadYAMLFromEnvPath(t *testing.T) {
	path := writeConfig(t, "probed.yaml", "serial:\n  device: /dev/ttyS1\n")
	t.Setenv(EnvConfig, path)

	c, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "/dev/ttyS1", c.Serial.Device)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "probed.toml", "[serial]\ndevice = \"/dev/ttyUSB0\"\n")
	t.Setenv("PROBED_SERIAL_DEVICE", "/dev/ttyAMA0")
	t.Setenv("PROBED_GPIO_RUN_PIN", "22")

	c, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/dev/ttyAMA0", c.Serial.Device)
	require.Equal(t, uint32(22), c.GPIO.RunPin)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}

func TestLoadRejectsSharedPins(t *testing.T) {
	path := writeConfig(t, "probed.toml", "[gpio]\nrun_pin = 4\nerror_pin = 4\n")
	_, err := Load(path)
	require.ErrorContains(t, err, "gpio.run_pin")
}

func TestValidate(t *testing.T) {
	good := Config{
		Serial: SerialConfig{Device: "/dev/ttyACM0", Baud: 115200},
		GPIO:   GPIOConfig{RunPin: 1, ErrorPin: 2},
	}
	require.NoError(t, good.Validate())

	bad := good
	bad.Serial.Device = ""
	require.Error(t, bad.Validate())

	bad = good
	bad.Serial.Baud = 0
	require.Error(t, bad.Validate())

	bad = good
	bad.MQTT = MQTTConfig{Enabled: true}
	require.Error(t, bad.Validate())
}
