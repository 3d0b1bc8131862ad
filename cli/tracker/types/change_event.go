package types

import (
	"encoding/json"
	"time"
)

// EntityKind keys change notifications so dependent views know what to
// refresh.
type EntityKind string

const (
	EntityTruck    EntityKind = "truck"
	EntityGPSEvent EntityKind = "gps_event"
	EntityEpisode  EntityKind = "route_deviation_event"
	EntityAlert    EntityKind = "maintenance_alert"
	EntityDelivery EntityKind = "delivery"
)

type ChangeAction string

const (
	ActionCreated ChangeAction = "created"
	ActionUpdated ChangeAction = "updated"
)

// ChangeEvent is published to every configured storage plugin after a write.
// Delivery beyond the plugins is the collaborator layer's problem.
type ChangeEvent struct {
	Entity    EntityKind   `json:"entity"`
	Action    ChangeAction `json:"action"`
	TruckID   int64        `json:"truck_id,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
	Payload   interface{}  `json:"payload,omitempty"`
}

func (e *ChangeEvent) ToBytes() ([]byte, error) {
	return json.Marshal(e)
}
