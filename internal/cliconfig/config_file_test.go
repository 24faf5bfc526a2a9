package cliconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestApplyFileConfig(t *testing.T) {
	trueVal := true

	tests := []struct {
		name       string
		fileConfig func() FileConfig
		changed    map[string]bool
		initial    Config
		expected   Config
		wantErr    bool
	}{
		{
			name: "applies all valid config values",
			fileConfig: func() FileConfig {
				fc := FileConfig{
					Gateway:     "10.0.0.7:8888",
					IdleTimeout: "30s",
					BufferSize:  2048,
					Incremental: &trueVal,
				}
				fc.Influx.URL = "http://troi:8086"
				fc.Influx.Batch = 100
				fc.Serial.Port = "/dev/ttyUSB0"
				return fc
			},
			changed: map[string]bool{},
			initial: Config{},
			expected: Config{
				Gateway:     "10.0.0.7:8888",
				IdleTimeout: 30 * time.Second,
				BufferSize:  2048,
				Incremental: true,
				InfluxURL:   "http://troi:8086",
				InfluxBatch: 100,
				SerialPort:  "/dev/ttyUSB0",
			},
		},
		{
			name: "respects changed flags",
			fileConfig: func() FileConfig {
				return FileConfig{Gateway: "file:8888", Trigger: "go"}
			},
			changed: map[string]bool{"gateway": true},
			initial: Config{Gateway: "flag:8888"},
			expected: Config{
				Gateway: "flag:8888", // unchanged because flag was set
				Trigger: "go",
			},
		},
		{
			name: "returns error for invalid duration",
			fileConfig: func() FileConfig {
				return FileConfig{IdleTimeout: "soon"}
			},
			changed: map[string]bool{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.initial
			err := ApplyFileConfig(&cfg, tt.fileConfig(), tt.changed)
			if tt.wantErr {
				if err == nil {
					t.Error("ApplyFileConfig() expected error but got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("ApplyFileConfig() unexpected error: %v", err)
			}
			if cfg != tt.expected {
				t.Errorf("ApplyFileConfig() = %+v, want %+v", cfg, tt.expected)
			}
		})
	}
}

func TestLoadFileConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	tomlContent := `
gateway = "192.168.1.50:8888"
idle_timeout = "15s"
csv = "readings.csv"
incremental = true

[influx]
url = "http://troi:8086"
database = "power"
user = "influxdb"

[serial]
port = "/dev/ttyACM0"
baud = 115200
`
	if err := os.WriteFile(configPath, []byte(tomlContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	fc, err := LoadFileConfig(configPath)
	if err != nil {
		t.Fatalf("LoadFileConfig() error = %v", err)
	}

	if fc.Gateway != "192.168.1.50:8888" {
		t.Errorf("Gateway = %v, want 192.168.1.50:8888", fc.Gateway)
	}
	if fc.IdleTimeout != "15s" {
		t.Errorf("IdleTimeout = %v, want 15s", fc.IdleTimeout)
	}
	if fc.Incremental == nil || !*fc.Incremental {
		t.Error("Incremental should be true")
	}
	if fc.Influx.URL != "http://troi:8086" || fc.Influx.User != "influxdb" {
		t.Errorf("Influx = %+v", fc.Influx)
	}
	if fc.Serial.Port != "/dev/ttyACM0" || fc.Serial.Baud != 115200 {
		t.Errorf("Serial = %+v", fc.Serial)
	}
}

func TestLoadFileConfig_InvalidFile(t *testing.T) {
	_, err := LoadFileConfig("/nonexistent/path/config.toml")
	if err == nil {
		t.Error("LoadFileConfig() expected error for nonexistent file")
	}
}

func TestLoadFileConfig_InvalidTOML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(configPath, []byte("gateway = [unterminated"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	_, err := LoadFileConfig(configPath)
	if err == nil {
		t.Error("LoadFileConfig() expected error for invalid TOML")
	}
}

func TestDefaultConfigPath(t *testing.T) {
	p := DefaultConfigPath()
	if p != "" && !strings.HasSuffix(p, filepath.Join(".smlship", "config.toml")) {
		t.Errorf("DefaultConfigPath() = %v", p)
	}
}

func TestFileExists(t *testing.T) {
	existingFile := filepath.Join(t.TempDir(), "exists.txt")
	if err := os.WriteFile(existingFile, []byte("test"), 0644); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}

	if !FileExists(existingFile) {
		t.Error("FileExists() = false for existing file")
	}
	if FileExists(existingFile + ".missing") {
		t.Error("FileExists() = true for missing file")
	}
}
