// Package dashboard is the single entry point the HTTP layer talks to. It
// owns the published snapshot and the views derived from it, and routes
// every state change through the notification store.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"resellerdash/analytics"
	"resellerdash/models"
	"resellerdash/notifications"
	"resellerdash/reconciler"
	"resellerdash/sources"
	"resellerdash/worker"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrInvalidKind = errors.New("unknown entity kind")
)

// Notices returned by a manual refresh.
const (
	NoticeSynthetic = "Using simulation data"
	NoticeRefreshed = "Data refreshed successfully"
)

type Refresher interface {
	Refresh(ctx context.Context) *reconciler.Snapshot
}

type NotesSource interface {
	FetchNotes(ctx context.Context, customerID int64) sources.Result[models.CustomerNote]
	SubmitNote(ctx context.Context, note sources.NoteInput) error
}

type SheetStore interface {
	FetchAdmins(ctx context.Context) sources.Result[models.AdminUser]
	FetchDeliveries(ctx context.Context) sources.Result[models.Delivery]
	FetchComments(ctx context.Context) sources.Result[models.Comment]
	AppendComment(ctx context.Context, in sources.CommentInput) error
	UpdateAdminCredentials(ctx context.Context, adminID int64, username, password string) error
}

type AdminStore interface {
	Authenticate(ctx context.Context, username, password string) (models.AdminUser, error)
	UpdateAdmin(ctx context.Context, adminID int64, update sources.AdminUpdate) (models.Admin, error)
	LeadComments(ctx context.Context, leadID int64) ([]models.Comment, error)
	AddLeadComment(ctx context.Context, comment models.Comment) (models.Comment, error)
}

type Options struct {
	Reconciler      Refresher
	Notifications   *notifications.Store
	Notes           NotesSource
	Sheets          SheetStore
	Admins          AdminStore
	RefreshInterval time.Duration
	Logger          *logrus.Entry
}

// Charts are the pie chart series of the overview page.
type Charts struct {
	CustomerStatus map[models.CustomerStatus]int `json:"customerStatus"`
	LeadStatus     map[models.LeadStatus]int     `json:"leadStatus"`
	Location       map[models.Location]int       `json:"location"`
	Templates      []analytics.TemplateCount     `json:"templates"`
}

// RefreshResult describes the snapshot a manual refresh produced.
type RefreshResult struct {
	SnapshotID  string    `json:"snapshotId"`
	TakenAt     time.Time `json:"lastRefreshed"`
	IsSynthetic bool      `json:"isSynthetic"`
	Notice      string    `json:"notice"`
}

// view is a snapshot plus everything derived from it, published as a unit.
type view struct {
	snapshot *reconciler.Snapshot
	stats    analytics.Stats
	charts   Charts
}

type Service struct {
	reconciler Refresher
	store      *notifications.Store
	notes      NotesSource
	sheets     SheetStore
	admins     AdminStore
	scheduler  *worker.RefreshWorker
	log        *logrus.Entry

	current atomic.Pointer[view]
}

func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger()).WithField("component", "dashboard")
	}
	store := opts.Notifications
	if store == nil {
		store = notifications.NewStore(nil, logger, 0)
	}
	s := &Service{
		reconciler: opts.Reconciler,
		store:      store,
		notes:      opts.Notes,
		sheets:     opts.Sheets,
		admins:     opts.Admins,
		log:        logger,
	}
	s.scheduler = worker.NewRefreshWorker(func(ctx context.Context) { s.refreshOnce(ctx) }, opts.RefreshInterval, logger.WithField("component", "refresh_worker"))
	s.current.Store(buildView(&reconciler.Snapshot{
		ReadIDs:     map[models.EntityKind]map[int64]struct{}{},
		ReadFetched: map[models.EntityKind]bool{},
	}))
	return s
}

// Start runs the persistence loop and the periodic refresh until ctx ends.
func (s *Service) Start(ctx context.Context) {
	go s.store.Run(ctx)
	s.scheduler.Start(ctx)
}

// Refresh rebuilds the snapshot on demand. It waits for an in-flight
// background refresh to finish first. The notice tells the operator
// whether any source fell back to synthetic data.
func (s *Service) Refresh(ctx context.Context) (RefreshResult, error) {
	var v *view
	if err := s.scheduler.Do(ctx, func(ctx context.Context) { v = s.refreshOnce(ctx) }); err != nil {
		return RefreshResult{}, fmt.Errorf("refresh: %w", err)
	}
	notice := NoticeRefreshed
	if v.snapshot.IsSynthetic {
		notice = NoticeSynthetic
	}
	return RefreshResult{
		SnapshotID:  v.snapshot.ID,
		TakenAt:     v.snapshot.TakenAt,
		IsSynthetic: v.snapshot.IsSynthetic,
		Notice:      notice,
	}, nil
}

func (s *Service) refreshOnce(ctx context.Context) *view {
	snap := s.reconciler.Refresh(ctx)
	v := buildView(snap)
	s.current.Store(v)
	s.store.Reconcile(snap)
	return v
}

func buildView(snap *reconciler.Snapshot) *view {
	return &view{
		snapshot: snap,
		stats:    analytics.DashboardStats(snap.Customers, snap.Leads, snap.Inventory),
		charts: Charts{
			CustomerStatus: analytics.StatusCounts(snap.Customers),
			LeadStatus:     analytics.LeadStatusCounts(snap.Leads),
			Location:       analytics.LocationCounts(snap.Customers),
			Templates:      analytics.TemplateCounts(snap.Comments, snap.LeadIDs(), snap.Templates),
		},
	}
}

// Snapshot returns the published snapshot. Callers must treat it as read-only.
func (s *Service) Snapshot() *reconciler.Snapshot {
	return s.current.Load().snapshot
}

// LastRefreshed is when the published snapshot was taken; zero before the
// first refresh.
func (s *Service) LastRefreshed() time.Time {
	return s.current.Load().snapshot.TakenAt
}

func (s *Service) Stats() analytics.Stats {
	return s.current.Load().stats
}

func (s *Service) Charts() Charts {
	return s.current.Load().charts
}

// Trend returns the monthly acquisition grid for customers or leads.
func (s *Service) Trend(kind models.EntityKind, opts analytics.TrendOptions) (analytics.TrendGrid, error) {
	snap := s.Snapshot()
	switch kind {
	case models.KindCustomer:
		return analytics.CustomerTrend(snap.Customers, opts), nil
	case models.KindLead:
		return analytics.LeadTrend(snap.Leads, opts), nil
	}
	return analytics.TrendGrid{}, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
}

func (s *Service) MarkSeen(kind models.EntityKind, id int64) (int, error) {
	if !kind.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}
	return s.store.MarkSeen(kind, id)
}

func (s *Service) MarkAllSeen(kind models.EntityKind) (int, error) {
	if !kind.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}
	return s.store.MarkAllSeen(kind)
}

func (s *Service) UnseenCount(kind models.EntityKind) int {
	return s.store.UnseenCount(kind)
}

// UnseenIDs lists the records behind the badge for kind.
func (s *Service) UnseenIDs(kind models.EntityKind) []int64 {
	return s.store.UnseenIDs(kind)
}

// Subscribe forwards unseen count changes to l until the returned func is called.
func (s *Service) Subscribe(l notifications.Listener) func() {
	return s.store.Subscribe(l)
}
