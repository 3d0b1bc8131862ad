package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

type AlertSeverity string

const (
	SeverityDueSoon AlertSeverity = "due_soon"
	SeverityOverdue AlertSeverity = "overdue"
)

var alertSeveritySet = map[AlertSeverity]struct{}{
	SeverityDueSoon: {},
	SeverityOverdue: {},
}

func (s AlertSeverity) IsValid() bool {
	_, ok := alertSeveritySet[s]
	return ok
}

func ParseAlertSeverity(v string) (AlertSeverity, error) {
	s := AlertSeverity(v)
	if !s.IsValid() {
		return "", fmt.Errorf("invalid alert severity: %q", v)
	}
	return s, nil
}

func (s AlertSeverity) MarshalJSON() ([]byte, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("invalid alert severity: %q", string(s))
	}
	return json.Marshal(string(s))
}

func (s *AlertSeverity) UnmarshalJSON(b []byte) error {
	var v string
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	parsed, err := ParseAlertSeverity(v)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s *AlertSeverity) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		*s = AlertSeverity(string(v))
	case string:
		*s = AlertSeverity(v)
	default:
		return fmt.Errorf("cannot scan AlertSeverity from %T", value)
	}
	if !s.IsValid() {
		return fmt.Errorf("invalid AlertSeverity: %q", string(*s))
	}
	return nil
}

func (s AlertSeverity) Value() (driver.Value, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("invalid AlertSeverity: %q", string(s))
	}
	return string(s), nil
}
