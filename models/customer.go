package models

import (
	"strings"
	"time"
)

// CustomerStatus is the normalized lifecycle state of a customer account.
type CustomerStatus string

const (
	CustomerStatusUnknown  CustomerStatus = ""
	CustomerStatusActive   CustomerStatus = "active"
	CustomerStatusNew      CustomerStatus = "new"
	CustomerStatusBlocked  CustomerStatus = "blocked"
	CustomerStatusInactive CustomerStatus = "inactive"
)

// CustomerStatuses is the fixed category set charts and trends render, in display order.
var CustomerStatuses = []CustomerStatus{
	CustomerStatusActive,
	CustomerStatusNew,
	CustomerStatusBlocked,
	CustomerStatusInactive,
}

// Customer is the canonical customer record after the billing merge.
type Customer struct {
	ID        int64          `json:"id"`
	Name      string         `json:"name"`
	Email     string         `json:"email"`
	Phone     string         `json:"phone,omitempty"`
	Login     string         `json:"login,omitempty"`
	Status    CustomerStatus `json:"status"`
	RawStatus string         `json:"raw_status,omitempty"`
	TariffID  *int64         `json:"tariff_id,omitempty"`
	Balance   *float64       `json:"balance,omitempty"`
	Street1   string         `json:"street_1,omitempty"`
	City      string         `json:"city,omitempty"`
	GPS       string         `json:"gps,omitempty"`
	PartnerID *int64         `json:"partner_id,omitempty"`
	AddedBy   string         `json:"added_by,omitempty"`
	AddedByID *int64         `json:"added_by_id,omitempty"`
	DateAdded *time.Time     `json:"date_add,omitempty"`
	CreatedAt *time.Time     `json:"created_at,omitempty"`
}

// RecordDate prefers the CRM "date added" field and falls back to created_at.
func (c Customer) RecordDate() (time.Time, bool) {
	return recordDate(c.DateAdded, c.CreatedAt)
}

// IsNew reports whether the customer account is still in the "new" state.
func (c Customer) IsNew() bool {
	return strings.EqualFold(string(c.Status), string(CustomerStatusNew))
}

// EntityID is the id read marks are keyed by.
func (c Customer) EntityID() int64 { return c.ID }

func recordDate(added, created *time.Time) (time.Time, bool) {
	if added != nil && !added.IsZero() {
		return *added, true
	}
	if created != nil && !created.IsZero() {
		return *created, true
	}
	return time.Time{}, false
}
