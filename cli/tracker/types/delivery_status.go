package types

import (
	"database/sql/driver"
	"fmt"
)

type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "pending"
	DeliveryCompleted DeliveryStatus = "completed"
	DeliveryFailed    DeliveryStatus = "failed"
)

var deliveryStatusSet = map[DeliveryStatus]struct{}{
	DeliveryPending:   {},
	DeliveryCompleted: {},
	DeliveryFailed:    {},
}

func (ds DeliveryStatus) IsValid() bool {
	_, ok := deliveryStatusSet[ds]
	return ok
}

func (ds *DeliveryStatus) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		*ds = DeliveryStatus(string(v))
	case string:
		*ds = DeliveryStatus(v)
	default:
		return fmt.Errorf("cannot scan DeliveryStatus from %T", value)
	}
	if !ds.IsValid() {
		return fmt.Errorf("invalid DeliveryStatus: %q", string(*ds))
	}
	return nil
}

func (ds DeliveryStatus) Value() (driver.Value, error) {
	if !ds.IsValid() {
		return nil, fmt.Errorf("invalid DeliveryStatus: %q", string(ds))
	}
	return string(ds), nil
}

type IssueCategory string

const (
	IssueDamage       IssueCategory = "damage"
	IssueRefused      IssueCategory = "refused"
	IssueMissingItems IssueCategory = "missing_items"
	IssueOther        IssueCategory = "other"
)

var issueCategorySet = map[IssueCategory]struct{}{
	IssueDamage:       {},
	IssueRefused:      {},
	IssueMissingItems: {},
	IssueOther:        {},
}

func (ic IssueCategory) IsValid() bool {
	_, ok := issueCategorySet[ic]
	return ok
}
