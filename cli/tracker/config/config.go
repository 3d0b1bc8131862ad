package config

import (
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"gopkg.in/yaml.v2"
)

const (
	defaultOfflineAfterMinutes = 5
	defaultDeviationThresholdM = 500
	defaultDueSoonKm           = 500
	defaultDueSoonDays         = 7
	defaultMaintenanceCron     = "0 3 * * *"
	defaultSpeedMovingKmh      = 5
)

type Settings struct {
	Host          string `yaml:"host"`
	Port          string `yaml:"port"`
	LogLevel      string `yaml:"log_level"`
	LogFilePath   string `yaml:"log_file_path"`
	LogMaxAgeDays int    `yaml:"log_max_age_days"`

	MigrationsPath string            `yaml:"migrations_path"`
	Store          map[string]string `yaml:"store"`

	// Publishers receiving change events, keyed by plugin name.
	Publishers map[string]map[string]string `yaml:"publishers"`

	OfflineAfterMinutes int     `yaml:"offline_after_minutes"`
	DeviationThresholdM float64 `yaml:"deviation_threshold_m"`
	DueSoonKm           float64 `yaml:"due_soon_km"`
	DueSoonDays         int     `yaml:"due_soon_days"`
	SpeedMovingKmh      float64 `yaml:"speed_moving_kmh"`
	MaintenanceCron     string  `yaml:"maintenance_cron"`
}

func (s *Settings) GetListenAddress() string {
	return s.Host + ":" + s.Port
}

func (s *Settings) GetLogLevel() log.Level {
	var lvl log.Level

	switch s.LogLevel {
	case "DEBUG":
		lvl = log.DebugLevel
	case "INFO":
		lvl = log.InfoLevel
	case "WARN":
		lvl = log.WarnLevel
	case "ERROR":
		lvl = log.ErrorLevel
	default:
		lvl = log.InfoLevel
	}
	return lvl
}

// GetOfflineAfter is the freshness window after which a truck with no new
// report counts as offline.
func (s *Settings) GetOfflineAfter() time.Duration {
	return time.Duration(s.OfflineAfterMinutes) * time.Minute
}

func New(confPath string) (Settings, error) {
	c := Settings{}
	data, err := os.ReadFile(confPath)
	if err != nil {
		return c, err
	}
	err = yaml.Unmarshal(data, &c)
	if err != nil {
		return c, err
	}

	if c.OfflineAfterMinutes == 0 {
		c.OfflineAfterMinutes = defaultOfflineAfterMinutes
	}
	if c.DeviationThresholdM == 0 {
		c.DeviationThresholdM = defaultDeviationThresholdM
	}
	if c.DueSoonKm == 0 {
		c.DueSoonKm = defaultDueSoonKm
	}
	if c.DueSoonDays == 0 {
		c.DueSoonDays = defaultDueSoonDays
	}
	if c.SpeedMovingKmh == 0 {
		c.SpeedMovingKmh = defaultSpeedMovingKmh
	}
	if c.MaintenanceCron == "" {
		c.MaintenanceCron = defaultMaintenanceCron
	}

	if c.OfflineAfterMinutes < 0 {
		log.Errorf("Invalid offline_after_minutes (%d). Value must be positive. Defaulting to %d.", c.OfflineAfterMinutes, defaultOfflineAfterMinutes)
		c.OfflineAfterMinutes = defaultOfflineAfterMinutes
	}
	if c.DeviationThresholdM < 0 {
		log.Errorf("Invalid deviation_threshold_m (%f). Value must be positive. Defaulting to %d.", c.DeviationThresholdM, defaultDeviationThresholdM)
		c.DeviationThresholdM = defaultDeviationThresholdM
	}
	if c.DueSoonKm < 0 || c.DueSoonDays < 0 {
		log.Errorf("Invalid due_soon_km (%f) or due_soon_days (%d). Values must be positive. Defaulting to %d and %d.", c.DueSoonKm, c.DueSoonDays, defaultDueSoonKm, defaultDueSoonDays)
		c.DueSoonKm = defaultDueSoonKm
		c.DueSoonDays = defaultDueSoonDays
	}

	return c, err
}
