// Package config loads the probe daemon configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds daemon configuration.
type Config struct {
	Serial  SerialConfig  `mapstructure:"serial"`
	GPIO    GPIOConfig    `mapstructure:"gpio"`
	MQTT    MQTTConfig    `mapstructure:"mqtt"`
	Console ConsoleConfig `mapstructure:"console"`
}

// SerialConfig holds host UART settings.
type SerialConfig struct {
	Device        string `mapstructure:"device"`
	Baud          int    `mapstructure:"baud"`
	ReadTimeoutMS int    `mapstructure:"read_timeout_ms"`
}

// GPIOConfig holds indicator LED settings. With Enabled false the
// indicators are only logged.
type GPIOConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Chip     string `mapstructure:"chip"`
	RunPin   uint32 `mapstructure:"run_pin"`
	ErrorPin uint32 `mapstructure:"error_pin"`
}

// MQTTConfig holds indicator mirror settings.
type MQTTConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Broker  string `mapstructure:"broker"`
	Topic   string `mapstructure:"topic"`
}

// ConsoleConfig holds line console settings.
type ConsoleConfig struct {
	IdleTimeoutMS uint32 `mapstructure:"idle_timeout_ms"`
	Banner        string `mapstructure:"banner"`
	Echo          bool   `mapstructure:"echo"`
}

// EnvConfig names the environment variable holding a config file path.
const EnvConfig = "PROBED_CONFIG"

func setDefaults(v *viper.Viper) {
	v.SetDefault("serial.device", "/dev/ttyACM0")
	v.SetDefault("serial.baud", 115200)
	v.SetDefault("serial.read_timeout_ms", 100)
	v.SetDefault("gpio.enabled", false)
	v.SetDefault("gpio.chip", "gpiochip0")
	v.SetDefault("gpio.run_pin", 17)
	v.SetDefault("gpio.error_pin", 27)
	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.topic", "launchprobe")
	v.SetDefault("console.idle_timeout_ms", 500)
	v.SetDefault("console.banner", "launchprobe ready")
	v.SetDefault("console.echo", false)
}

// Load reads configuration from file and env. Env var overrides use prefix
// PROBED_. path, or PROBED_CONFIG when path is empty, names an explicit
// file that must exist; otherwise config.{toml,yaml,json} is searched for in
// /etc/probed and ~/.config/probed and skipped if absent.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("/etc/probed")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "probed"))
		}
	}

	v.SetEnvPrefix("PROBED")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks settings that would otherwise fail late.
func (c Config) Validate() error {
	if c.Serial.Device == "" {
		return errors.New("config: serial.device is empty")
	}
	if c.Serial.Baud <= 0 {
		return fmt.Errorf("config: serial.baud %d is not positive", c.Serial.Baud)
	}
	if c.Serial.ReadTimeoutMS < 0 {
		return fmt.Errorf("config: serial.read_timeout_ms %d is negative", c.Serial.ReadTimeoutMS)
	}
	if c.GPIO.RunPin == c.GPIO.ErrorPin {
		return fmt.Errorf("config: gpio.run_pin and gpio.error_pin are both %d", c.GPIO.RunPin)
	}
	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		return errors.New("config: mqtt.enabled without mqtt.broker")
	}
	return nil
}
