package reconciler

import (
	"sort"

	"resellerdash/models"
)

// MergeBilling copies balance and tariff from the first billing row of each
// customer. Customers without a billing row keep their own values. The
// input slice is not modified.
func MergeBilling(customers []models.Customer, billing []models.Billing) []models.Customer {
	byCustomer := make(map[int64]models.Billing, len(billing))
	for _, b := range billing {
		if _, ok := byCustomer[b.CustomerID]; !ok {
			byCustomer[b.CustomerID] = b
		}
	}
	merged := make([]models.Customer, len(customers))
	for i, c := range customers {
		if b, ok := byCustomer[c.ID]; ok {
			c.Balance = b.Balance
			c.TariffID = b.TariffID
		}
		merged[i] = c
	}
	return merged
}

// DedupeCustomers keeps the first customer per id.
func DedupeCustomers(customers []models.Customer) []models.Customer {
	seen := make(map[int64]struct{}, len(customers))
	out := make([]models.Customer, 0, len(customers))
	for _, c := range customers {
		if _, ok := seen[c.ID]; ok {
			continue
		}
		seen[c.ID] = struct{}{}
		out = append(out, c)
	}
	return out
}

// DedupeLeads keeps the first lead per id.
func DedupeLeads(leads []models.Lead) []models.Lead {
	seen := make(map[int64]struct{}, len(leads))
	out := make([]models.Lead, 0, len(leads))
	for _, l := range leads {
		if _, ok := seen[l.ID]; ok {
			continue
		}
		seen[l.ID] = struct{}{}
		out = append(out, l)
	}
	return out
}

// FilterCustomersByPartner drops customers of other partners and customers
// with no partner at all.
func FilterCustomersByPartner(customers []models.Customer, partnerID int64) []models.Customer {
	out := make([]models.Customer, 0, len(customers))
	for _, c := range customers {
		if c.PartnerID != nil && *c.PartnerID == partnerID {
			out = append(out, c)
		}
	}
	return out
}

// FilterLeadsByPartner drops leads of other partners and leads with no
// partner at all.
func FilterLeadsByPartner(leads []models.Lead, partnerID int64) []models.Lead {
	out := make([]models.Lead, 0, len(leads))
	for _, l := range leads {
		if l.PartnerID != nil && *l.PartnerID == partnerID {
			out = append(out, l)
		}
	}
	return out
}

// SortCustomersByIDDesc orders newest customers first, in place.
func SortCustomersByIDDesc(customers []models.Customer) {
	sort.SliceStable(customers, func(i, j int) bool { return customers[i].ID > customers[j].ID })
}

// SortLeadsByIDDesc orders newest leads first, in place.
func SortLeadsByIDDesc(leads []models.Lead) {
	sort.SliceStable(leads, func(i, j int) bool { return leads[i].ID > leads[j].ID })
}

// ValidComments keeps comments whose lead is in leadIDs.
func ValidComments(comments []models.Comment, leadIDs map[int64]struct{}) []models.Comment {
	out := make([]models.Comment, 0, len(comments))
	for _, c := range comments {
		if _, ok := leadIDs[c.LeadID]; ok {
			out = append(out, c)
		}
	}
	return out
}
