package server

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/obdmon/obd-bridge/internal/logger"
)

// Config holds all bridge configuration.
type Config struct {
	Serial  SerialConfig  `yaml:"serial" json:"serial"`
	Bridge  BridgeConfig  `yaml:"bridge" json:"bridge"`
	Journal logger.Config `yaml:"journal" json:"journal"`
	Monitor MonitorConfig `yaml:"monitor" json:"monitor"`
}

// SerialConfig holds serial link settings. Port is a symbolic name
// (e.g. ttyUSB0) resolved against the ports present at startup.
type SerialConfig struct {
	Port     string `yaml:"port" json:"port"`
	BaudRate int    `yaml:"baud_rate" json:"baudRate"`
}

// BridgeConfig holds gateway and dispatch settings. SelfTest runs the
// scripted interface check once after the port opens.
type BridgeConfig struct {
	UDPPort        int  `yaml:"udp_port" json:"udpPort"`
	ReplyTimeoutMs int  `yaml:"reply_timeout_ms" json:"replyTimeoutMs"`
	SelfTest       bool `yaml:"self_test" json:"selfTest"`
}

// MonitorConfig holds settings for the observation surface.
type MonitorConfig struct {
	Enabled    bool   `yaml:"enabled" json:"enabled"`
	ListenAddr string `yaml:"listen_addr" json:"listenAddr"`
}

// DefaultConfig returns a config with sensible defaults. The serial port
// default matches the common FTDI USB-RS232 adapter used with ELM327
// interfaces.
func DefaultConfig() *Config {
	return &Config{
		Serial: SerialConfig{
			Port:     "ttyUSB0",
			BaudRate: 9600,
		},
		Bridge: BridgeConfig{
			UDPPort:        8989,
			ReplyTimeoutMs: 5000,
			SelfTest:       false,
		},
		Journal: logger.Config{
			Dir:  ".",
			File: "obd_bridge_log.txt",
		},
		Monitor: MonitorConfig{
			Enabled:    false,
			ListenAddr: ":8080",
		},
	}
}

// LoadConfig reads config from a YAML file, then applies .env and
// environment variable overrides. Falls back to defaults if the YAML file
// is not found.
func LoadConfig(path string) *Config {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("[config] no config at %s, using defaults", path)
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		log.Printf("[config] error parsing %s: %v, using defaults", path, err)
		cfg = DefaultConfig()
	} else {
		log.Printf("[config] loaded from %s", path)
	}

	// Load .env from the config directory, then CWD
	envPaths := []string{
		filepath.Join(filepath.Dir(path), ".env"),
		".env",
	}
	for _, ep := range envPaths {
		loadEnvFile(ep)
	}

	cfg.applyEnvOverrides()
	return cfg
}

// loadEnvFile reads a simple KEY=VALUE .env file and sets os env vars.
func loadEnvFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	log.Printf("[config] loading .env from %s", path)
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		val := strings.TrimSpace(parts[1])
		val = strings.Trim(val, `"'`)
		// Real env takes precedence
		if os.Getenv(key) == "" {
			os.Setenv(key, val)
		}
	}
}

// applyEnvOverrides reads environment variables and overrides config
// values. Supported: OBD_SERIAL_PORT, OBD_BAUD, OBD_UDP_PORT,
// OBD_REPLY_TIMEOUT_MS, OBD_SELF_TEST, OBD_LOG_DIR, OBD_LOG_FILE,
// OBD_MONITOR_ADDR.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("OBD_SERIAL_PORT"); v != "" {
		c.Serial.Port = v
	}
	if v := os.Getenv("OBD_BAUD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Serial.BaudRate = n
		}
	}
	if v := os.Getenv("OBD_UDP_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Bridge.UDPPort = n
		}
	}
	if v := os.Getenv("OBD_REPLY_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Bridge.ReplyTimeoutMs = n
		}
	}
	if v := os.Getenv("OBD_SELF_TEST"); v != "" {
		c.Bridge.SelfTest = v == "1" || v == "true" || v == "yes"
	}
	if v := os.Getenv("OBD_LOG_DIR"); v != "" {
		c.Journal.Dir = v
	}
	if v := os.Getenv("OBD_LOG_FILE"); v != "" {
		c.Journal.File = v
	}
	if v := os.Getenv("OBD_MONITOR_ADDR"); v != "" {
		c.Monitor.Enabled = true
		c.Monitor.ListenAddr = v
	}
}
