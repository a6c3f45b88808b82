package reconciler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resellerdash/models"
	"resellerdash/sources"
)

func i64(v int64) *int64     { return &v }
func f64(v float64) *float64 { return &v }
func partner(id int64) *int64 { return &id }

type fakeCRM struct {
	leads       sources.Result[models.Lead]
	customers   sources.Result[models.Customer]
	billing     sources.Result[models.Billing]
	inventory   sources.Result[models.InventoryItem]
	inFlight    int32
	maxInFlight int32
	delay       time.Duration
}

func (f *fakeCRM) track() func() {
	n := atomic.AddInt32(&f.inFlight, 1)
	for {
		peak := atomic.LoadInt32(&f.maxInFlight)
		if n <= peak || atomic.CompareAndSwapInt32(&f.maxInFlight, peak, n) {
			break
		}
	}
	time.Sleep(f.delay)
	return func() { atomic.AddInt32(&f.inFlight, -1) }
}

func (f *fakeCRM) FetchLeads(context.Context) sources.Result[models.Lead] {
	defer f.track()()
	return f.leads
}

func (f *fakeCRM) FetchCustomers(context.Context) sources.Result[models.Customer] {
	defer f.track()()
	return f.customers
}

func (f *fakeCRM) FetchBilling(context.Context) sources.Result[models.Billing] {
	defer f.track()()
	return f.billing
}

func (f *fakeCRM) FetchInventory(context.Context) sources.Result[models.InventoryItem] {
	defer f.track()()
	return f.inventory
}

type fakeSheets struct {
	comments  sources.Result[models.Comment]
	templates sources.Result[models.Template]
}

func (f *fakeSheets) FetchComments(context.Context) sources.Result[models.Comment] { return f.comments }

func (f *fakeSheets) FetchTemplates(context.Context) sources.Result[models.Template] {
	return f.templates
}

type fakeReads map[models.EntityKind][]int64

func (f fakeReads) ReadIDs(_ context.Context, kind models.EntityKind) ([]int64, error) {
	ids, ok := f[kind]
	if !ok {
		return nil, errors.New("read store down")
	}
	return ids, nil
}

func TestMergeBillingFirstMatchWins(t *testing.T) {
	customers := []models.Customer{
		{ID: 1, Balance: f64(5), TariffID: i64(9)},
		{ID: 2, Balance: f64(7), TariffID: i64(8)},
	}
	billing := []models.Billing{
		{ID: 10, CustomerID: 1, Balance: f64(-20), TariffID: i64(3)},
		{ID: 11, CustomerID: 1, Balance: f64(99), TariffID: i64(4)},
	}

	merged := MergeBilling(customers, billing)
	require.Len(t, merged, 2)
	assert.Equal(t, -20.0, *merged[0].Balance)
	assert.Equal(t, int64(3), *merged[0].TariffID)
	assert.Equal(t, customers[1], merged[1], "customer without billing is unchanged")
	assert.Equal(t, 5.0, *customers[0].Balance, "input is not modified")
}

func TestRefreshScopesSortsAndCrossReferences(t *testing.T) {
	crm := &fakeCRM{
		leads: sources.Result[models.Lead]{Data: []models.Lead{
			{ID: 1001, PartnerID: partner(4), Status: models.LeadStatusNew},
			{ID: 1003, PartnerID: partner(4), Status: models.LeadStatusWon},
			{ID: 1002, PartnerID: partner(1)},
			{ID: 1004},
		}},
		customers: sources.Result[models.Customer]{Data: []models.Customer{
			{ID: 5000, PartnerID: partner(4), Status: models.CustomerStatusActive},
			{ID: 5002, PartnerID: partner(4), Status: models.CustomerStatusNew},
			{ID: 5002, PartnerID: partner(4), Name: "duplicate"},
			{ID: 5001, PartnerID: partner(1)},
		}},
		billing: sources.Result[models.Billing]{Data: []models.Billing{
			{ID: 100, CustomerID: 5000, Balance: f64(12.5)},
		}},
		inventory: sources.Result[models.InventoryItem]{Data: []models.InventoryItem{{ID: 9000, CustomerID: i64(5000)}}},
	}
	sheets := &fakeSheets{
		comments: sources.Result[models.Comment]{Data: []models.Comment{
			{ID: 1, LeadID: 1001},
			{ID: 2, LeadID: 1002},
			{ID: 3, LeadID: 7777},
		}},
		templates: sources.Result[models.Template]{Data: []models.Template{{ID: 1, Text: "t"}}},
	}
	reads := fakeReads{models.KindCustomer: {5000}}

	snap := New(crm, sheets, reads, 4, nil).Refresh(context.Background())

	require.Len(t, snap.Customers, 2)
	assert.Equal(t, int64(5002), snap.Customers[0].ID)
	assert.Empty(t, snap.Customers[0].Name, "first occurrence wins")
	assert.Equal(t, int64(5000), snap.Customers[1].ID)
	assert.Equal(t, 12.5, *snap.Customers[1].Balance)

	require.Len(t, snap.Leads, 2)
	assert.Equal(t, []int64{1003, 1001}, []int64{snap.Leads[0].ID, snap.Leads[1].ID})
	for _, l := range snap.Leads {
		assert.Equal(t, int64(4), *l.PartnerID)
	}

	require.Len(t, snap.Comments, 1)
	assert.Equal(t, int64(1001), snap.Comments[0].LeadID)

	assert.Contains(t, snap.ReadIDs[models.KindCustomer], int64(5000))
	assert.True(t, snap.ReadFetched[models.KindCustomer])
	assert.False(t, snap.ReadFetched[models.KindLead])
	assert.Empty(t, snap.ReadIDs[models.KindLead])
	assert.False(t, snap.IsSynthetic)
	assert.NotEmpty(t, snap.ID)
}

func TestRefreshOrsSyntheticFlags(t *testing.T) {
	crm := &fakeCRM{}
	sheets := &fakeSheets{templates: sources.Result[models.Template]{IsSynthetic: true}}

	snap := New(crm, sheets, nil, 4, nil).Refresh(context.Background())
	assert.True(t, snap.IsSynthetic)
	assert.NotNil(t, snap.ReadIDs[models.KindLead])
}

func TestRefreshFetchesCRMConcurrently(t *testing.T) {
	crm := &fakeCRM{delay: 50 * time.Millisecond}
	New(crm, &fakeSheets{}, fakeReads{}, 4, nil).Refresh(context.Background())
	assert.Equal(t, int32(4), atomic.LoadInt32(&crm.maxInFlight))
}

func TestSyntheticCRMDataJoins(t *testing.T) {
	gen := sources.NewSynthetic(11, sources.DefaultPartnerID)
	customers := gen.Customers(25)
	for i := range customers {
		customers[i].PartnerID = partner(4)
	}
	billing := gen.Billing(25)
	byCustomer := map[int64]models.Billing{}
	for _, b := range billing {
		byCustomer[b.CustomerID] = b
	}
	crm := &fakeCRM{
		customers: sources.Result[models.Customer]{Data: customers, IsSynthetic: true},
		billing:   sources.Result[models.Billing]{Data: billing, IsSynthetic: true},
	}

	snap := New(crm, &fakeSheets{}, nil, 4, nil).Refresh(context.Background())
	require.Len(t, snap.Customers, 25)
	for _, c := range snap.Customers {
		b, ok := byCustomer[c.ID]
		require.True(t, ok, "customer %d has no billing row", c.ID)
		assert.Equal(t, *b.Balance, *c.Balance)
		assert.Equal(t, *b.TariffID, *c.TariffID)
	}
	assert.True(t, snap.IsSynthetic)
}

func TestRefreshDuringOutageKeepsConfiguredTenant(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	for _, partnerID := range []int64{4, 7} {
		crm := sources.NewCRMClient(sources.CRMOptions{
			BaseURL:           server.URL,
			HTTPClient:        server.Client(),
			RequestsPerSecond: 1000,
			MaxRetries:        0,
			Synthetic:         sources.NewSynthetic(21, partnerID),
		})

		snap := New(crm, &fakeSheets{}, nil, partnerID, nil).Refresh(context.Background())
		assert.True(t, snap.IsSynthetic)
		assert.NotEmpty(t, snap.Customers, "partner %d", partnerID)
		assert.NotEmpty(t, snap.Leads, "partner %d", partnerID)
		for _, c := range snap.Customers {
			assert.Equal(t, partnerID, *c.PartnerID)
		}
	}
}
