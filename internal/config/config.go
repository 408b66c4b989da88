// Package config loads daemon settings from defaults, an optional YAML file,
// ACREMOTE_* environment variables and command-line flags, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sweeney/acremote/internal/decoder"
	"github.com/sweeney/acremote/internal/gpio"
	"github.com/sweeney/acremote/internal/mqtt"
)

// EnvPrefix is prepended to every environment override, e.g. ACREMOTE_MQTT_BROKER.
const EnvPrefix = "ACREMOTE"

// DefaultHeartbeat is how often the receiver publishes a status snapshot.
const DefaultHeartbeat = 15 * time.Minute

type GPIO struct {
	Chip   string `mapstructure:"chip"`
	RxLine int    `mapstructure:"rx_line"`
	TxPin  int    `mapstructure:"tx_pin"`
}

type Transmit struct {
	Python  string        `mapstructure:"python"`
	Script  string        `mapstructure:"script"`
	File    string        `mapstructure:"file"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type Receive struct {
	Tick      time.Duration `mapstructure:"tick"`
	Idle      time.Duration `mapstructure:"idle"`
	Heartbeat time.Duration `mapstructure:"heartbeat"`
}

type MQTT struct {
	Broker      string `mapstructure:"broker"`
	Topic       string `mapstructure:"topic"`
	SystemTopic string `mapstructure:"system_topic"`
}

type HTTP struct {
	Addr string `mapstructure:"addr"`
}

type Statsd struct {
	Addr      string   `mapstructure:"addr"`
	Namespace string   `mapstructure:"namespace"`
	Tags      []string `mapstructure:"tags"`
}

type Log struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// Config is the full daemon configuration.
type Config struct {
	GPIO     GPIO     `mapstructure:"gpio"`
	Transmit Transmit `mapstructure:"transmit"`
	Receive  Receive  `mapstructure:"receive"`
	MQTT     MQTT     `mapstructure:"mqtt"`
	HTTP     HTTP     `mapstructure:"http"`
	Statsd   Statsd   `mapstructure:"statsd"`
	Log      Log      `mapstructure:"log"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("gpio.chip", gpio.DefaultChip)
	v.SetDefault("gpio.rx_line", gpio.DefaultRxLine)
	v.SetDefault("gpio.tx_pin", gpio.DefaultTxPin)

	v.SetDefault("transmit.python", "/usr/bin/python3")
	v.SetDefault("transmit.script", "./irrp.py")
	v.SetDefault("transmit.file", "/tmp/irrp.rec")
	v.SetDefault("transmit.timeout", time.Duration(0))

	v.SetDefault("receive.tick", decoder.DefaultTick)
	v.SetDefault("receive.idle", decoder.DefaultIdle)
	v.SetDefault("receive.heartbeat", DefaultHeartbeat)

	v.SetDefault("mqtt.broker", "")
	v.SetDefault("mqtt.topic", mqtt.DefaultTopic)
	v.SetDefault("mqtt.system_topic", mqtt.DefaultSystemTopic)

	v.SetDefault("http.addr", "")

	v.SetDefault("statsd.addr", "")
	v.SetDefault("statsd.namespace", "acremote.")
	v.SetDefault("statsd.tags", []string{})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
}

// Load reads the configuration. path may be empty. Flags in fs whose names
// appear in bindings are bound to the given keys and win over everything
// else when set on the command line.
func Load(path string, fs *pflag.FlagSet, bindings map[string]string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	if fs != nil {
		for key, name := range bindings {
			f := fs.Lookup(name)
			if f == nil {
				return nil, fmt.Errorf("bind %s: no flag --%s", key, name)
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind %s: %w", key, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the daemon cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.GPIO.RxLine < 0 {
		errs = append(errs, fmt.Errorf("gpio.rx_line must not be negative, got %d", c.GPIO.RxLine))
	}
	if c.GPIO.TxPin < 0 {
		errs = append(errs, fmt.Errorf("gpio.tx_pin must not be negative, got %d", c.GPIO.TxPin))
	}
	if c.Receive.Tick <= 0 {
		errs = append(errs, fmt.Errorf("receive.tick must be positive, got %v", c.Receive.Tick))
	}
	if c.Receive.Idle <= 0 {
		errs = append(errs, fmt.Errorf("receive.idle must be positive, got %v", c.Receive.Idle))
	}
	if c.Receive.Heartbeat < 0 {
		errs = append(errs, fmt.Errorf("receive.heartbeat must not be negative, got %v", c.Receive.Heartbeat))
	}
	if c.Transmit.Timeout < 0 {
		errs = append(errs, fmt.Errorf("transmit.timeout must not be negative, got %v", c.Transmit.Timeout))
	}
	if c.Transmit.Script == "" {
		errs = append(errs, errors.New("transmit.script must be set"))
	}
	return errors.Join(errs...)
}
