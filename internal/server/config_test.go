package server

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Serial.Port != "ttyUSB0" {
		t.Fatalf("default serial port = %q, want ttyUSB0", cfg.Serial.Port)
	}
	if cfg.Serial.BaudRate != 9600 {
		t.Fatalf("default baud = %d, want 9600", cfg.Serial.BaudRate)
	}
	if cfg.Bridge.ReplyTimeoutMs != 5000 {
		t.Fatalf("default reply timeout = %d, want 5000", cfg.Bridge.ReplyTimeoutMs)
	}
	if cfg.Bridge.SelfTest {
		t.Fatal("self-test should default to off")
	}
	if cfg.Monitor.Enabled {
		t.Fatal("monitor should default to off")
	}
}

func TestLoadConfig_YAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
serial:
  port: ttyACM3
  baud_rate: 38400
bridge:
  reply_timeout_ms: 1500
  self_test: true
journal:
  dir: /tmp/obd
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg := LoadConfig(path)
	if cfg.Serial.Port != "ttyACM3" {
		t.Fatalf("serial port = %q, want ttyACM3", cfg.Serial.Port)
	}
	if cfg.Serial.BaudRate != 38400 {
		t.Fatalf("baud = %d, want 38400", cfg.Serial.BaudRate)
	}
	if cfg.Bridge.ReplyTimeoutMs != 1500 {
		t.Fatalf("reply timeout = %d, want 1500", cfg.Bridge.ReplyTimeoutMs)
	}
	if !cfg.Bridge.SelfTest {
		t.Fatal("self_test should be on")
	}
	if cfg.Journal.Dir != "/tmp/obd" {
		t.Fatalf("journal dir = %q, want /tmp/obd", cfg.Journal.Dir)
	}
	// Unset keys keep defaults
	if cfg.Journal.File != "obd_bridge_log.txt" {
		t.Fatalf("journal file = %q, want default", cfg.Journal.File)
	}
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if cfg.Serial.Port != "ttyUSB0" || cfg.Bridge.UDPPort != 8989 {
		t.Fatalf("missing config should fall back to defaults, got %+v", cfg)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("OBD_SERIAL_PORT", "ttyUSB7")
	t.Setenv("OBD_BAUD", "115200")
	t.Setenv("OBD_SELF_TEST", "true")
	t.Setenv("OBD_MONITOR_ADDR", ":9090")

	cfg := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if cfg.Serial.Port != "ttyUSB7" {
		t.Fatalf("serial port = %q, want env override ttyUSB7", cfg.Serial.Port)
	}
	if cfg.Serial.BaudRate != 115200 {
		t.Fatalf("baud = %d, want 115200", cfg.Serial.BaudRate)
	}
	if !cfg.Bridge.SelfTest {
		t.Fatal("OBD_SELF_TEST=true should enable the self-test")
	}
	if !cfg.Monitor.Enabled || cfg.Monitor.ListenAddr != ":9090" {
		t.Fatalf("OBD_MONITOR_ADDR should enable the monitor on :9090, got %+v", cfg.Monitor)
	}
}
