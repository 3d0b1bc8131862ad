package types

// MaintenanceStatus is the evaluator output tier. It is not persisted; only
// alerts derived from it are.
type MaintenanceStatus string

const (
	MaintenanceOK      MaintenanceStatus = "ok"
	MaintenanceDueSoon MaintenanceStatus = "due_soon"
	MaintenanceOverdue MaintenanceStatus = "overdue"
)
