package api

import "github.com/daniil11ru/fleettrack/cli/tracker/types"

// TruckView is a truck with its status computed at request time. The status
// is derived on every read and never stored.
type TruckView struct {
	ID           int64                 `json:"id"`
	Name         string                `json:"name"`
	LicensePlate string                `json:"license_plate"`
	Status       types.TruckStatus     `json:"status"`
	LastPosition *types.PositionSample `json:"last_position,omitempty"`
	OdometerKm   float64               `json:"odometer_km"`
	FuelUsedL    float64               `json:"fuel_used_l"`
}

type ingestResponse struct {
	Status types.TruckStatus `json:"status"`
}

type completeDeliveryRequest struct {
	TruckID      int64  `json:"truck_id"`
	SignatureURL string `json:"signature_url"`
}

type failDeliveryRequest struct {
	TruckID  int64               `json:"truck_id"`
	Category types.IssueCategory `json:"category"`
	Notes    string              `json:"notes"`
}
