package sources

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"resellerdash/models"
)

// Well-known id ranges for generated records. They never overlap so joins
// between generated datasets behave like joins between live ones.
const (
	SyntheticLeadBase      = 1000
	SyntheticCustomerBase  = 5000
	SyntheticBillingBase   = 100
	SyntheticInventoryBase = 9000
	SyntheticNoteBase      = 10000
)

// DefaultPartnerID is the tenant generated records belong to when none is given.
const DefaultPartnerID = 4

type syntheticCity struct {
	name string
	gps  string
}

var syntheticCities = []syntheticCity{
	{"Johannesburg", "-26.2041, 28.0473"},
	{"Pretoria", "-25.7479, 28.2293"},
	{"Sandton", "-26.1076, 28.0567"},
	{"Centurion", "-25.8603, 28.1894"},
	{"Midrand", "-25.9964, 28.1274"},
	{"Polokwane", "-23.8962, 29.4486"},
	{"Tzaneen", "-23.8332, 30.1635"},
	{"Mokopane", "-24.1944, 29.0097"},
	{"Bela-Bela", "-24.8850, 28.2917"},
	{"Cape Town", "-33.9249, 18.4241"},
	{"Durban", "-29.8587, 31.0218"},
}

// Synthetic generates stand-in records. Values are random but the shape,
// id ranges and cross references are fixed.
type Synthetic struct {
	mu     sync.Mutex
	rng    *rand.Rand
	now    func() time.Time
	tenant int64
	other  int64
}

// NewSynthetic returns a generator whose leads and customers mostly belong
// to partnerID, with the rest assigned to a different partner.
func NewSynthetic(seed, partnerID int64) *Synthetic {
	if partnerID <= 0 {
		partnerID = DefaultPartnerID
	}
	other := int64(1)
	if partnerID == other {
		other = 2
	}
	return &Synthetic{
		rng:    rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15)),
		now:    time.Now,
		tenant: partnerID,
		other:  other,
	}
}

// PartnerID is the tenant the generator produces records for.
func (s *Synthetic) PartnerID() int64 { return s.tenant }

// SyntheticCustomerIDs lists the ids Customers(n) produces.
func SyntheticCustomerIDs(n int) []int64 {
	ids := make([]int64, n)
	for i := range ids {
		ids[i] = int64(SyntheticCustomerBase + i)
	}
	return ids
}

func (s *Synthetic) Leads(n int) []models.Lead {
	s.mu.Lock()
	defer s.mu.Unlock()
	leads := make([]models.Lead, n)
	for i := range leads {
		added := s.pastDate()
		street := fmt.Sprintf("%d Market St, Business City", i*12)
		leads[i] = models.Lead{
			ID:        int64(SyntheticLeadBase + i),
			Name:      fmt.Sprintf("Lead Prospect %d", i+1),
			Email:     fmt.Sprintf("prospect%d@example.com", i+1),
			Phone:     fmt.Sprintf("+27-555-01%02d", i),
			Address:   street,
			Street1:   street,
			Type:      "residential",
			Status:    models.LeadStatuses[s.rng.IntN(len(models.LeadStatuses))],
			PartnerID: s.partner(),
			AddedBy:   "api",
			AddedByID: s.addedBy(),
			DateAdded: &added,
			CreatedAt: &added,
		}
	}
	return leads
}

func (s *Synthetic) Customers(n int) []models.Customer {
	s.mu.Lock()
	defer s.mu.Unlock()
	customers := make([]models.Customer, n)
	for i := range customers {
		city := syntheticCities[s.rng.IntN(len(syntheticCities))]
		status := models.CustomerStatuses[s.rng.IntN(len(models.CustomerStatuses))]
		added := s.pastDate()
		tariff := int64(1)
		balance := 0.0
		customers[i] = models.Customer{
			ID:        int64(SyntheticCustomerBase + i),
			Name:      fmt.Sprintf("Customer Entity %d", i+1),
			Email:     fmt.Sprintf("customer%d@client.net", i+1),
			Phone:     fmt.Sprintf("+27-555-99%02d", i),
			Login:     fmt.Sprintf("cust_%d", i+1),
			Status:    status,
			RawStatus: string(status),
			TariffID:  &tariff,
			Balance:   &balance,
			Street1:   fmt.Sprintf("%d Park Avenue", i*45),
			City:      city.name,
			GPS:       city.gps,
			PartnerID: s.partner(),
			AddedBy:   "api",
			AddedByID: s.addedBy(),
			DateAdded: &added,
			CreatedAt: &added,
		}
	}
	return customers
}

// Billing generates one row per synthetic customer, in customer id order.
func (s *Synthetic) Billing(n int) []models.Billing {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := make([]models.Billing, n)
	for i := range rows {
		balance := math.Round((s.rng.Float64()*200-50)*100) / 100
		tariff := int64(s.rng.IntN(5) + 1)
		rows[i] = models.Billing{
			ID:         int64(SyntheticBillingBase + i),
			CustomerID: int64(SyntheticCustomerBase + i),
			Balance:    &balance,
			TariffID:   &tariff,
		}
	}
	return rows
}

// Inventory assigns roughly 70% of the items to one of customerIDs and
// leaves the rest in stock.
func (s *Synthetic) Inventory(n int, customerIDs []int64) []models.InventoryItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]models.InventoryItem, n)
	stamp := s.now().Unix()
	for i := range items {
		price := 150.0
		item := models.InventoryItem{
			ID:           int64(SyntheticInventoryBase + i),
			Description:  fmt.Sprintf("Router Model X-%d", i),
			MACAddress:   fmt.Sprintf("00:1A:2B:3C:4D:%02X", i%256),
			SerialNumber: fmt.Sprintf("SN%d%d", stamp, i),
			Status:       "in_stock",
			Price:        &price,
		}
		if len(customerIDs) > 0 && s.rng.Float64() > 0.3 {
			id := customerIDs[s.rng.IntN(len(customerIDs))]
			item.CustomerID = &id
			item.Status = "used"
		}
		items[i] = item
	}
	return items
}

// Notes generates zero to five notes for one customer.
func (s *Synthetic) Notes(customerID int64) []models.CustomerNote {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	notes := make([]models.CustomerNote, s.rng.IntN(6))
	for i := range notes {
		created := now.Add(-time.Duration(i) * 100000 * time.Second)
		notes[i] = models.CustomerNote{
			ID:          SyntheticNoteBase + customerID + int64(i),
			CustomerID:  customerID,
			AdminID:     1,
			AdminName:   "Super Admin",
			Note:        fmt.Sprintf("Automated system note: Check connection status on %s", now.AddDate(0, 0, -i).Format("2006-01-02")),
			DateCreated: &created,
		}
	}
	return notes
}

// pastDate spreads generated records over the last six months so trends
// have something to show.
func (s *Synthetic) pastDate() time.Time {
	return s.now().Add(-time.Duration(s.rng.IntN(180*24)) * time.Hour).UTC()
}

func (s *Synthetic) partner() *int64 {
	id := s.tenant
	if s.rng.Float64() > 0.7 {
		id = s.other
	}
	return &id
}

func (s *Synthetic) addedBy() *int64 {
	id := int64(10)
	if s.rng.Float64() > 0.8 {
		id = 5
	}
	return &id
}

// Fixed spreadsheet stand-ins, keyed by sheet name.

func syntheticComments(now time.Time) []models.Comment {
	day := func(n int) *time.Time {
		t := now.AddDate(0, 0, -n).UTC()
		return &t
	}
	tpl := func(id int64) *int64 { return &id }
	return []models.Comment{
		{ID: 1, AdminID: 1, AdminName: "Super Admin", LeadID: SyntheticLeadBase, Text: "Called, awaiting site survey", Date: day(1), TemplateID: tpl(1)},
		{ID: 2, AdminID: 1, AdminName: "Super Admin", LeadID: SyntheticLeadBase + 1, Text: "Quote sent", Date: day(2), TemplateID: tpl(2)},
		{ID: 3, AdminID: 2, AdminName: "Sales Agent", LeadID: SyntheticLeadBase + 2, Text: "No answer", Date: day(3), TemplateID: tpl(3)},
		{ID: 4, AdminID: 2, AdminName: "Sales Agent", LeadID: SyntheticLeadBase + 3, Text: "Wants fibre instead", Date: day(4)},
		{ID: 5, AdminID: 1, AdminName: "Super Admin", LeadID: SyntheticLeadBase, Text: "Survey booked", Date: day(5), TemplateID: tpl(1)},
	}
}

func syntheticTemplates() []models.Template {
	return []models.Template{
		{ID: 1, Text: "Site survey scheduled"},
		{ID: 2, Text: "Quotation sent to client"},
		{ID: 3, Text: "Client unreachable, retry later"},
	}
}

func syntheticAdmins() []models.AdminUser {
	return []models.AdminUser{
		{ID: 1, AdminID: 1, Name: "Super Admin", Username: "admin", Role: models.RoleAdmin},
		{ID: 2, AdminID: 2, Name: "Sales Agent", Username: "sales", Role: models.RoleViewer},
	}
}

func syntheticDeliveries() []models.Delivery {
	return []models.Delivery{
		{Time: "08:30", CustomerID: "5001", Name: "Customer Entity 2", RouterBarcode: "RB-0001", SIMBarcode: "SIM-0001", Agent: "Field Agent 1"},
		{Time: "10:15", CustomerID: "5004", Name: "Customer Entity 5", RouterBarcode: "RB-0002", SIMBarcode: "SIM-0002", Agent: "Field Agent 2"},
		{Time: "13:45", CustomerID: "5010", Name: "Customer Entity 11", RouterBarcode: "RB-0003", SIMBarcode: "", Agent: "Field Agent 1"},
	}
}
