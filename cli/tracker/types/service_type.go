package types

import (
	"database/sql/driver"
	"fmt"
)

type ServiceType string

const (
	ServiceOil          ServiceType = "oil"
	ServiceTires        ServiceType = "tires"
	ServiceInspection   ServiceType = "inspection"
	ServiceBrakes       ServiceType = "brakes"
	ServiceFilters      ServiceType = "filters"
	ServiceTransmission ServiceType = "transmission"
)

var serviceTypeSet = map[ServiceType]struct{}{
	ServiceOil:          {},
	ServiceTires:        {},
	ServiceInspection:   {},
	ServiceBrakes:       {},
	ServiceFilters:      {},
	ServiceTransmission: {},
}

func (st ServiceType) IsValid() bool {
	_, ok := serviceTypeSet[st]
	return ok
}

// Label returns the human wording used in alert messages.
func (st ServiceType) Label() string {
	switch st {
	case ServiceOil:
		return "oil change"
	case ServiceTires:
		return "tire service"
	case ServiceInspection:
		return "inspection"
	case ServiceBrakes:
		return "brake service"
	case ServiceFilters:
		return "filter replacement"
	case ServiceTransmission:
		return "transmission service"
	default:
		return string(st)
	}
}

func ParseServiceType(v string) (ServiceType, error) {
	st := ServiceType(v)
	if !st.IsValid() {
		return "", fmt.Errorf("invalid service type: %q", v)
	}
	return st, nil
}

func (st *ServiceType) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		*st = ServiceType(string(v))
	case string:
		*st = ServiceType(v)
	default:
		return fmt.Errorf("cannot scan ServiceType from %T", value)
	}
	if !st.IsValid() {
		return fmt.Errorf("invalid ServiceType: %q", string(*st))
	}
	return nil
}

func (st ServiceType) Value() (driver.Value, error) {
	if !st.IsValid() {
		return nil, fmt.Errorf("invalid ServiceType: %q", string(st))
	}
	return string(st), nil
}
