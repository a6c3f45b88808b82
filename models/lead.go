package models

import (
	"strings"
	"time"
)

// LeadStatus is the sales pipeline bucket of a lead.
type LeadStatus string

const (
	LeadStatusNew        LeadStatus = "New"
	LeadStatusInProgress LeadStatus = "In Progress"
	LeadStatusWon        LeadStatus = "Won"
	LeadStatusLost       LeadStatus = "Lost"
)

// LeadStatuses is the fixed category set for lead charts, in pipeline order.
var LeadStatuses = []LeadStatus{
	LeadStatusNew,
	LeadStatusInProgress,
	LeadStatusWon,
	LeadStatusLost,
}

// Lead represents a CRM sales lead scoped to the reseller.
type Lead struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone"`
	Address   string     `json:"address,omitempty"`
	Street1   string     `json:"street_1,omitempty"`
	Type      string     `json:"type"`
	Status    LeadStatus `json:"status"`
	GPS       string     `json:"gps,omitempty"`
	PartnerID *int64     `json:"partner_id,omitempty"`
	AddedBy   string     `json:"added_by,omitempty"`
	AddedByID *int64     `json:"added_by_id,omitempty"`
	DateAdded *time.Time `json:"date_add,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// RecordDate prefers the CRM "date added" field and falls back to created_at.
func (l Lead) RecordDate() (time.Time, bool) {
	return recordDate(l.DateAdded, l.CreatedAt)
}

// IsNew reports whether the lead is still in the first pipeline bucket.
func (l Lead) IsNew() bool {
	return strings.EqualFold(string(l.Status), string(LeadStatusNew))
}

// EntityID is the id read marks are keyed by.
func (l Lead) EntityID() int64 { return l.ID }
