package analytics

import (
	"fmt"
	"strings"

	"resellerdash/models"
	"resellerdash/normalize"
)

// Stats backs the counter cards.
type Stats struct {
	TotalCustomers       int    `json:"totalCustomers"`
	ActiveCustomers      int    `json:"activeCustomers"`
	TotalLeads           int    `json:"totalLeads"`
	NewLeads             int    `json:"newLeads"`
	LostLeads            int    `json:"lostLeads"`
	PendingInstallations int    `json:"pendingInstallations"`
	CollectionsCount     int    `json:"collectionsCount"`
	ConversionRate       string `json:"conversionRate"`
}

// DashboardStats computes the counter cards. A customer with no assigned
// inventory is a pending installation while active and a collection while
// inactive.
func DashboardStats(customers []models.Customer, leads []models.Lead, inventory []models.InventoryItem) Stats {
	assigned := make(map[int64]int, len(inventory))
	for _, item := range inventory {
		if item.CustomerID != nil {
			assigned[*item.CustomerID]++
		}
	}

	stats := Stats{
		TotalCustomers: len(customers),
		TotalLeads:     len(leads),
		ConversionRate: "0",
	}
	for _, c := range customers {
		switch normalize.CustomerStatus(string(c.Status)) {
		case models.CustomerStatusActive:
			stats.ActiveCustomers++
			if assigned[c.ID] == 0 {
				stats.PendingInstallations++
			}
		case models.CustomerStatusInactive:
			if assigned[c.ID] == 0 {
				stats.CollectionsCount++
			}
		}
	}
	for _, l := range leads {
		switch {
		case l.IsNew():
			stats.NewLeads++
		case strings.EqualFold(string(l.Status), string(models.LeadStatusLost)):
			stats.LostLeads++
		}
	}
	if total := stats.TotalCustomers + stats.TotalLeads; total > 0 {
		stats.ConversionRate = fmt.Sprintf("%.1f", float64(stats.TotalCustomers)/float64(total)*100)
	}
	return stats
}
