package config

import (
	"io"
	"os"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestConfigLoad(t *testing.T) {
	// To prevent log output during tests
	log.SetOutput(io.Discard)

	cfg := `host: "127.0.0.1"
port: "8090"
log_level: "DEBUG"

store:
  host: "localhost"
  port: "5432"
  user: "postgres"
  password: "postgres"
  database: "fleettrack"
  sslmode: "disable"

publishers:
  rabbitmq:
    host: "localhost"
    port: "5672"
    user: "guest"
    password: "guest"
    exchange: "fleet_events"
  redis:
    host: "localhost"
    port: "6379"
    channel: "fleet_events"
`

	file, err := os.CreateTemp("/tmp", "config.yaml")
	if !assert.NoError(t, err) {
		return
	}
	defer os.Remove(file.Name())

	if _, err = file.WriteString(cfg); !assert.NoError(t, err) {
		return
	}

	conf, err := New(file.Name())
	if assert.NoError(t, err) {
		assert.Equal(t, Settings{
			Host:     "127.0.0.1",
			Port:     "8090",
			LogLevel: "DEBUG",
			Store: map[string]string{
				"host":     "localhost",
				"port":     "5432",
				"user":     "postgres",
				"password": "postgres",
				"database": "fleettrack",
				"sslmode":  "disable",
			},
			Publishers: map[string]map[string]string{
				"rabbitmq": {
					"exchange": "fleet_events",
					"host":     "localhost",
					"password": "guest",
					"port":     "5672",
					"user":     "guest",
				},
				"redis": {
					"channel": "fleet_events",
					"host":    "localhost",
					"port":    "6379",
				},
			},
			// Engine tunables fall back to defaults when absent.
			OfflineAfterMinutes: 5,
			DeviationThresholdM: 500,
			DueSoonKm:           500,
			DueSoonDays:         7,
			SpeedMovingKmh:      5,
			MaintenanceCron:     "0 3 * * *",
		},
			conf,
		)
	}
}

func TestEngineTunables(t *testing.T) {
	log.SetOutput(io.Discard)

	tests := []struct {
		name              string
		yamlContent       string
		expectedOffline   int
		expectedThreshold float64
		expectError       bool
	}{
		{
			name: "Fields provided in YAML",
			yamlContent: `
offline_after_minutes: 10
deviation_threshold_m: 750
`,
			expectedOffline:   10,
			expectedThreshold: 750,
		},
		{
			name:              "Fields not provided (defaults)",
			yamlContent:       "# empty config\n",
			expectedOffline:   5,
			expectedThreshold: 500,
		},
		{
			name: "Negative values reset to defaults",
			yamlContent: `
offline_after_minutes: -3
deviation_threshold_m: -100
`,
			expectedOffline:   5,
			expectedThreshold: 500,
		},
		{
			name:        "Non-existent config file",
			yamlContent: "",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			confPath := "/tmp/non_existent_config_for_test.yaml"

			if tt.yamlContent != "" {
				file, err := os.CreateTemp("", "test_config_*.yaml")
				if !assert.NoError(t, err) {
					return
				}
				confPath = file.Name()
				defer os.Remove(confPath)

				_, err = file.WriteString(tt.yamlContent)
				if !assert.NoError(t, err) {
					file.Close()
					return
				}
				file.Close()
			}

			cfg, err := New(confPath)

			if tt.expectError {
				assert.Error(t, err)
				return
			}

			if !assert.NoError(t, err) {
				return
			}
			assert.Equal(t, tt.expectedOffline, cfg.OfflineAfterMinutes)
			assert.Equal(t, tt.expectedThreshold, cfg.DeviationThresholdM)
		})
	}
}
