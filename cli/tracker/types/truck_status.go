package types

import (
	"encoding/json"
	"fmt"
)

// TruckStatus is a computed projection of the latest telemetry, never
// persisted.
type TruckStatus string

const (
	StatusEnRoute    TruckStatus = "en_route"
	StatusStopped    TruckStatus = "stopped"
	StatusAtCustomer TruckStatus = "at_customer"
	StatusOffline    TruckStatus = "offline"
)

var truckStatusSet = map[TruckStatus]struct{}{
	StatusEnRoute:    {},
	StatusStopped:    {},
	StatusAtCustomer: {},
	StatusOffline:    {},
}

func (ts TruckStatus) IsValid() bool {
	_, ok := truckStatusSet[ts]
	return ok
}

func (ts TruckStatus) MarshalJSON() ([]byte, error) {
	if !ts.IsValid() {
		return nil, fmt.Errorf("invalid truck status: %q", string(ts))
	}
	return json.Marshal(string(ts))
}

func (ts *TruckStatus) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v := TruckStatus(s)
	if !v.IsValid() {
		return fmt.Errorf("invalid truck status: %q", s)
	}
	*ts = v
	return nil
}
