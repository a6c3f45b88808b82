package reconciler

import (
	"time"

	"resellerdash/models"
)

// Snapshot is one fully merged view of every upstream source. It is built
// once per refresh and never modified afterwards; readers must not mutate
// the slices or maps it holds.
type Snapshot struct {
	ID          string
	TakenAt     time.Time
	PartnerID   int64
	Customers   []models.Customer
	Leads       []models.Lead
	Inventory   []models.InventoryItem
	Comments    []models.Comment
	Templates   []models.Template
	ReadIDs     map[models.EntityKind]map[int64]struct{}
	ReadFetched map[models.EntityKind]bool
	IsSynthetic bool
}

// LeadIDs returns the set of lead ids in the snapshot.
func (s *Snapshot) LeadIDs() map[int64]struct{} {
	ids := make(map[int64]struct{}, len(s.Leads))
	for _, l := range s.Leads {
		ids[l.ID] = struct{}{}
	}
	return ids
}

// Customer looks up a customer by id.
func (s *Snapshot) Customer(id int64) (models.Customer, bool) {
	for _, c := range s.Customers {
		if c.ID == id {
			return c, true
		}
	}
	return models.Customer{}, false
}

// Lead looks up a lead by id.
func (s *Snapshot) Lead(id int64) (models.Lead, bool) {
	for _, l := range s.Leads {
		if l.ID == id {
			return l, true
		}
	}
	return models.Lead{}, false
}

// DevicesFor lists inventory items installed at a customer.
func (s *Snapshot) DevicesFor(customerID int64) []models.InventoryItem {
	devices := make([]models.InventoryItem, 0)
	for _, item := range s.Inventory {
		if item.AssignedTo(customerID) {
			devices = append(devices, item)
		}
	}
	return devices
}
