// Package config は、suyuan-vm の設定ファイルを読み込みます。
package config

import (
	"os"
	"strings"
	"time"

	"github.com/c0deeast/suyuan-vm/board"
	"github.com/c0deeast/suyuan-vm/log"
	"github.com/c0deeast/suyuan-vm/serial"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v2"
)

// EnvPrefix は、設定を上書きする環境変数の接頭辞です。
const EnvPrefix = "SUYUAN_"

type Config struct {
	Device    DeviceConfig    `yaml:"device"`
	Log       LogConfig       `yaml:"log"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	Interrupt InterruptConfig `yaml:"interrupt"`
	Robot     RobotConfig     `yaml:"robot"`
}

// DeviceConfig は、ボードとその接続方法の設定です。
type DeviceConfig struct {
	Port          string `yaml:"port"`
	BaudRate      int    `yaml:"baudRate"`
	Driver        string `yaml:"driver"`
	Variant       string `yaml:"variant"`
	Handshake     bool   `yaml:"handshake"`
	ReadTimeoutMs int    `yaml:"readTimeoutMs"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"maxSizeMB"`
	MaxBackups int    `yaml:"maxBackups"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
}

type MQTTConfig struct {
	Broker            string `yaml:"broker"`
	ClientID          string `yaml:"clientID"`
	Username          string `yaml:"username"`
	Password          string `yaml:"password"`
	TopicPrefix       string `yaml:"topicPrefix"`
	QoS               int    `yaml:"qos"`
	ConnectTimeoutSec int    `yaml:"connectTimeoutSec"`
}

type InterruptConfig struct {
	QueueSize int `yaml:"queueSize"`
}

type RobotConfig struct {
	GripperDefaultSpeed float64 `yaml:"gripperDefaultSpeed"`
}

// Default は、既定の設定を返します。
func Default() *Config {
	return &Config{
		Device: DeviceConfig{
			Port:          "/dev/null",
			BaudRate:      board.ESP32.Identity.Link.BaudRate,
			Driver:        "jacobsa",
			Variant:       board.ESP32ID,
			Handshake:     false,
			ReadTimeoutMs: 100,
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		MQTT: MQTTConfig{
			Broker:            "tcp://127.0.0.1:1883",
			TopicPrefix:       "suyuan",
			QoS:               1,
			ConnectTimeoutSec: 10,
		},
		Interrupt: InterruptConfig{
			QueueSize: 64,
		},
		Robot: RobotConfig{
			GripperDefaultSpeed: 50,
		},
	}
}

// Load は、既定の設定にファイルの内容と環境変数を重ねて、検査した結果を返します。
// path が空の場合、ファイルは読み込みません。
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "reading config")
		}
		if err := yaml.UnmarshalStrict(b, cfg); err != nil {
			return nil, errors.Wrapf(err, "parsing %s", path)
		}
	}
	if err := applyEnv(cfg, os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	str := map[string]*string{
		"DEVICE_PORT":       &cfg.Device.Port,
		"DEVICE_DRIVER":     &cfg.Device.Driver,
		"DEVICE_VARIANT":    &cfg.Device.Variant,
		"LOG_LEVEL":         &cfg.Log.Level,
		"LOG_FILE":          &cfg.Log.File,
		"MQTT_BROKER":       &cfg.MQTT.Broker,
		"MQTT_CLIENT_ID":    &cfg.MQTT.ClientID,
		"MQTT_USERNAME":     &cfg.MQTT.Username,
		"MQTT_PASSWORD":     &cfg.MQTT.Password,
		"MQTT_TOPIC_PREFIX": &cfg.MQTT.TopicPrefix,
	}
	for k, p := range str {
		if v := getenv(EnvPrefix + k); v != "" {
			*p = v
		}
	}
	ints := map[string]*int{
		"DEVICE_BAUD_RATE":     &cfg.Device.BaudRate,
		"MQTT_QOS":             &cfg.MQTT.QoS,
		"INTERRUPT_QUEUE_SIZE": &cfg.Interrupt.QueueSize,
	}
	for k, p := range ints {
		if v := getenv(EnvPrefix + k); v != "" {
			n, err := cast.ToIntE(v)
			if err != nil {
				return errors.Errorf("%s%s: %q is not an integer", EnvPrefix, k, v)
			}
			*p = n
		}
	}
	if v := getenv(EnvPrefix + "DEVICE_HANDSHAKE"); v != "" {
		b, err := cast.ToBoolE(v)
		if err != nil {
			return errors.Errorf("%sDEVICE_HANDSHAKE: %q is not a boolean", EnvPrefix, v)
		}
		cfg.Device.Handshake = b
	}
	return nil
}

// Validate は、すべての設定を検査し、最初に見つかった問題を返します。
func (cfg *Config) Validate() error {
	if strings.TrimSpace(cfg.Device.Port) == "" {
		return errors.New("device.port is empty")
	}
	if _, err := board.Lookup(cfg.Device.Variant); err != nil {
		return errors.Wrap(err, "device.variant")
	}
	if !serial.IsNullDevice(cfg.Device.Port) && !serial.IsValidBaudRate(cfg.Device.BaudRate) {
		return errors.Errorf("device.baudRate %d is not one of %s", cfg.Device.BaudRate, serial.BaudRateList())
	}
	switch cfg.Device.Driver {
	case "jacobsa", "tarm":
	default:
		return errors.Errorf("device.driver %q must be jacobsa or tarm", cfg.Device.Driver)
	}
	if cfg.Device.ReadTimeoutMs < 0 {
		return errors.New("device.readTimeoutMs is negative")
	}
	if _, ok := log.ParseLevel(cfg.Log.Level); !ok {
		return errors.Errorf("log.level %q is not one of none, warn, info, debug", cfg.Log.Level)
	}
	if cfg.MQTT.QoS < 0 || 2 < cfg.MQTT.QoS {
		return errors.Errorf("mqtt.qos %d must be 0, 1 or 2", cfg.MQTT.QoS)
	}
	if strings.Trim(cfg.MQTT.TopicPrefix, "/") == "" {
		return errors.New("mqtt.topicPrefix is empty")
	}
	if strings.ContainsAny(cfg.MQTT.TopicPrefix, "+#") {
		return errors.Errorf("mqtt.topicPrefix %q contains a wildcard", cfg.MQTT.TopicPrefix)
	}
	if cfg.Interrupt.QueueSize <= 0 {
		return errors.Errorf("interrupt.queueSize %d must be positive", cfg.Interrupt.QueueSize)
	}
	if cfg.Robot.GripperDefaultSpeed < 0 || 100 < cfg.Robot.GripperDefaultSpeed {
		return errors.Errorf("robot.gripperDefaultSpeed %g is out of range [0, 100]", cfg.Robot.GripperDefaultSpeed)
	}
	return nil
}

// ReadTimeout は、シリアルの受信タイムアウトを返します。
func (d DeviceConfig) ReadTimeout() time.Duration {
	return time.Duration(d.ReadTimeoutMs) * time.Millisecond
}

// ConnectTimeout は、ブローカーへの接続のタイムアウトを返します。
func (m MQTTConfig) ConnectTimeout() time.Duration {
	return time.Duration(m.ConnectTimeoutSec) * time.Second
}

// LogLevel は、設定されたログレベルを返します。
func (l LogConfig) LogLevel() log.LogLevel {
	lv, _ := log.ParseLevel(l.Level)
	return lv
}

// FileOptions は、log.SetFile に渡すログファイルの設定を返します。
func (l LogConfig) FileOptions() log.FileOptions {
	return log.FileOptions{
		Path:       l.File,
		MaxSizeMB:  l.MaxSizeMB,
		MaxBackups: l.MaxBackups,
		MaxAgeDays: l.MaxAgeDays,
	}
}
