// Package reconciler assembles a Snapshot from the CRM, the spreadsheet and
// the read store.
package reconciler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"resellerdash/models"
	"resellerdash/sources"
)

type CRMSource interface {
	FetchLeads(ctx context.Context) sources.Result[models.Lead]
	FetchCustomers(ctx context.Context) sources.Result[models.Customer]
	FetchBilling(ctx context.Context) sources.Result[models.Billing]
	FetchInventory(ctx context.Context) sources.Result[models.InventoryItem]
}

type SheetSource interface {
	FetchComments(ctx context.Context) sources.Result[models.Comment]
	FetchTemplates(ctx context.Context) sources.Result[models.Template]
}

type ReadSource interface {
	ReadIDs(ctx context.Context, kind models.EntityKind) ([]int64, error)
}

type Reconciler struct {
	crm       CRMSource
	sheets    SheetSource
	reads     ReadSource
	partnerID int64
	log       *logrus.Entry
	now       func() time.Time
}

func New(crm CRMSource, sheets SheetSource, reads ReadSource, partnerID int64, logger *logrus.Entry) *Reconciler {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger()).WithField("component", "reconciler")
	}
	return &Reconciler{
		crm:       crm,
		sheets:    sheets,
		reads:     reads,
		partnerID: partnerID,
		log:       logger,
		now:       time.Now,
	}
}

// PartnerID is the tenant every snapshot is scoped to.
func (r *Reconciler) PartnerID() int64 {
	return r.partnerID
}

// Refresh fetches every source and builds a new snapshot. It always
// returns a snapshot: failed reads have already been replaced by synthetic
// data inside the adapters, and failed read-id lookups leave the set empty.
func (r *Reconciler) Refresh(ctx context.Context) *Snapshot {
	started := r.now()

	var (
		leads     sources.Result[models.Lead]
		customers sources.Result[models.Customer]
		billing   sources.Result[models.Billing]
		inventory sources.Result[models.InventoryItem]

		comments  sources.Result[models.Comment]
		templates sources.Result[models.Template]
		readIDs   [2][]int64
		fetched   [2]bool
	)

	var crmGroup errgroup.Group
	crmGroup.Go(func() error { leads = r.crm.FetchLeads(ctx); return nil })
	crmGroup.Go(func() error { customers = r.crm.FetchCustomers(ctx); return nil })
	crmGroup.Go(func() error { billing = r.crm.FetchBilling(ctx); return nil })
	crmGroup.Go(func() error { inventory = r.crm.FetchInventory(ctx); return nil })

	var auxGroup errgroup.Group
	for i, kind := range models.EntityKinds {
		auxGroup.Go(func() error {
			if r.reads == nil {
				return nil
			}
			ids, err := r.reads.ReadIDs(ctx, kind)
			if err != nil {
				r.log.WithError(err).WithField("kind", kind).Warn("loading read marks failed")
				return nil
			}
			readIDs[i] = ids
			fetched[i] = true
			return nil
		})
	}
	auxGroup.Go(func() error { comments = r.sheets.FetchComments(ctx); return nil })
	auxGroup.Go(func() error { templates = r.sheets.FetchTemplates(ctx); return nil })

	_ = crmGroup.Wait()

	merged := MergeBilling(DedupeCustomers(customers.Data), billing.Data)
	scopedCustomers := FilterCustomersByPartner(merged, r.partnerID)
	scopedLeads := FilterLeadsByPartner(DedupeLeads(leads.Data), r.partnerID)
	SortCustomersByIDDesc(scopedCustomers)
	SortLeadsByIDDesc(scopedLeads)

	_ = auxGroup.Wait()

	snap := &Snapshot{
		ID:          uuid.NewString(),
		TakenAt:     r.now(),
		PartnerID:   r.partnerID,
		Customers:   scopedCustomers,
		Leads:       scopedLeads,
		Inventory:   inventory.Data,
		Templates:   templates.Data,
		ReadIDs:     make(map[models.EntityKind]map[int64]struct{}, len(models.EntityKinds)),
		ReadFetched: make(map[models.EntityKind]bool, len(models.EntityKinds)),
		IsSynthetic: leads.IsSynthetic || customers.IsSynthetic || billing.IsSynthetic ||
			inventory.IsSynthetic || comments.IsSynthetic || templates.IsSynthetic,
	}
	snap.Comments = ValidComments(comments.Data, snap.LeadIDs())
	for i, kind := range models.EntityKinds {
		set := make(map[int64]struct{}, len(readIDs[i]))
		for _, id := range readIDs[i] {
			set[id] = struct{}{}
		}
		snap.ReadIDs[kind] = set
		snap.ReadFetched[kind] = fetched[i]
	}

	r.log.WithFields(logrus.Fields{
		"snapshot_id": snap.ID,
		"customers":   len(snap.Customers),
		"leads":       len(snap.Leads),
		"inventory":   len(snap.Inventory),
		"comments":    len(snap.Comments),
		"synthetic":   snap.IsSynthetic,
		"duration":    r.now().Sub(started).String(),
	}).Info("snapshot refreshed")
	return snap
}
