package cliconfig

import (
	"testing"
	"time"
)

func TestApplyEnvConfig(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		changed  map[string]bool
		initial  Config
		expected Config
		wantErr  bool
	}{
		{
			name: "applies all valid env vars",
			envVars: map[string]string{
				"SMLSHIP_GATEWAY":      "10.1.1.1:8888",
				"SMLSHIP_IDLE_TIMEOUT": "5s",
				"SMLSHIP_BUFFER_SIZE":  "512",
				"SMLSHIP_INFLUX_URL":   "http://troi:8086",
				"SMLSHIP_INCREMENTAL":  "true",
				"SMLSHIP_SERIAL_BAUD":  "115200",
			},
			changed: map[string]bool{},
			initial: Config{},
			expected: Config{
				Gateway:     "10.1.1.1:8888",
				IdleTimeout: 5 * time.Second,
				BufferSize:  512,
				InfluxURL:   "http://troi:8086",
				Incremental: true,
				SerialBaud:  115200,
			},
		},
		{
			name: "respects changed flags",
			envVars: map[string]string{
				"SMLSHIP_GATEWAY": "env:8888",
				"SMLSHIP_TRIGGER": "wake",
			},
			changed: map[string]bool{"gateway": true},
			initial: Config{Gateway: "flag:8888"},
			expected: Config{
				Gateway: "flag:8888",
				Trigger: "wake",
			},
		},
		{
			name:    "returns error for invalid duration",
			envVars: map[string]string{"SMLSHIP_IDLE_TIMEOUT": "not-a-duration"},
			changed: map[string]bool{},
			wantErr: true,
		},
		{
			name:    "returns error for invalid int",
			envVars: map[string]string{"SMLSHIP_BUFFER_SIZE": "not-a-number"},
			changed: map[string]bool{},
			wantErr: true,
		},
		{
			name:     "handles bool '1' as true",
			envVars:  map[string]string{"SMLSHIP_REQUIRE_DATA": "1"},
			changed:  map[string]bool{},
			expected: Config{RequireData: true},
		},
		{
			name:     "handles bool 'false' as false",
			envVars:  map[string]string{"SMLSHIP_CSV_HEADER": "false"},
			changed:  map[string]bool{},
			initial:  Config{CSVHeader: true},
			expected: Config{CSVHeader: false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg := tt.initial
			err := ApplyEnvConfig(&cfg, tt.changed)

			if tt.wantErr {
				if err == nil {
					t.Error("ApplyEnvConfig() expected error but got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("ApplyEnvConfig() unexpected error: %v", err)
			}
			if cfg != tt.expected {
				t.Errorf("ApplyEnvConfig() = %+v, want %+v", cfg, tt.expected)
			}
		})
	}
}
