// Package notifications tracks which "new" customers and leads an operator
// has acknowledged. Marks apply locally at once and are persisted to the
// read store in the background; a failed write is retried on the next
// reconcile and never rolls the local mark back.
package notifications

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"resellerdash/analytics"
	"resellerdash/models"
	"resellerdash/reconciler"
)

const defaultQueueSize = 64

// Persister writes read marks to durable storage.
type Persister interface {
	MarkRead(ctx context.Context, kind models.EntityKind, id int64, displayName string) error
	MarkManyRead(ctx context.Context, kind models.EntityKind, marks []models.ReadMark) error
}

// Listener is called with the new unseen count whenever it may have changed.
type Listener func(kind models.EntityKind, unseen int)

type persistCommand struct {
	kind  models.EntityKind
	marks []models.ReadMark
}

type Store struct {
	persister Persister
	log       *logrus.Entry
	commands  chan persistCommand

	mu        sync.RWMutex
	read      map[models.EntityKind]map[int64]struct{}
	pending   map[models.EntityKind]map[int64]models.ReadMark
	customers []models.Customer
	leads     []models.Lead

	listenerMu sync.RWMutex
	listeners  map[int]Listener
	nextID     int
}

func NewStore(persister Persister, logger *logrus.Entry, queueSize int) *Store {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger()).WithField("component", "notifications")
	}
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	s := &Store{
		persister: persister,
		log:       logger,
		commands:  make(chan persistCommand, queueSize),
		read:      map[models.EntityKind]map[int64]struct{}{},
		pending:   map[models.EntityKind]map[int64]models.ReadMark{},
		listeners: map[int]Listener{},
	}
	for _, kind := range models.EntityKinds {
		s.read[kind] = map[int64]struct{}{}
		s.pending[kind] = map[int64]models.ReadMark{}
	}
	return s
}

// Run persists queued marks until ctx is cancelled.
func (s *Store) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-s.commands:
			s.persist(ctx, cmd)
		}
	}
}

func (s *Store) persist(ctx context.Context, cmd persistCommand) {
	if s.persister == nil || len(cmd.marks) == 0 {
		return
	}
	var err error
	if len(cmd.marks) == 1 {
		m := cmd.marks[0]
		err = s.persister.MarkRead(ctx, cmd.kind, m.ID, m.DisplayName)
	} else {
		err = s.persister.MarkManyRead(ctx, cmd.kind, cmd.marks)
	}
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"kind":  cmd.kind,
			"marks": len(cmd.marks),
		}).Error("persisting read marks failed, will retry on next refresh")
		return
	}

	s.mu.Lock()
	for _, m := range cmd.marks {
		delete(s.pending[cmd.kind], m.ID)
	}
	s.mu.Unlock()
}

// MarkSeen acknowledges one record and returns the new unseen count for
// its kind. Marking a record twice is a no-op.
func (s *Store) MarkSeen(kind models.EntityKind, id int64) (int, error) {
	if !kind.Valid() {
		return 0, fmt.Errorf("unknown entity kind %q", kind)
	}
	s.mu.Lock()
	if _, done := s.read[kind][id]; done {
		count := s.unseenLocked(kind)
		s.mu.Unlock()
		return count, nil
	}
	mark := models.ReadMark{Kind: kind, ID: id, DisplayName: s.displayNameLocked(kind, id)}
	s.read[kind][id] = struct{}{}
	s.pending[kind][id] = mark
	count := s.unseenLocked(kind)
	s.mu.Unlock()

	s.notify(kind, count)
	s.enqueue(persistCommand{kind: kind, marks: []models.ReadMark{mark}})
	return count, nil
}

// MarkAllSeen acknowledges every currently unseen record of kind.
func (s *Store) MarkAllSeen(kind models.EntityKind) (int, error) {
	if !kind.Valid() {
		return 0, fmt.Errorf("unknown entity kind %q", kind)
	}
	s.mu.Lock()
	ids := s.unseenIDsLocked(kind)
	if len(ids) == 0 {
		s.mu.Unlock()
		return 0, nil
	}
	marks := make([]models.ReadMark, 0, len(ids))
	for _, id := range ids {
		mark := models.ReadMark{Kind: kind, ID: id, DisplayName: s.displayNameLocked(kind, id)}
		s.read[kind][id] = struct{}{}
		s.pending[kind][id] = mark
		marks = append(marks, mark)
	}
	count := s.unseenLocked(kind)
	s.mu.Unlock()

	s.notify(kind, count)
	s.enqueue(persistCommand{kind: kind, marks: marks})
	return count, nil
}

// Reconcile adopts a new snapshot: its records become the notification
// candidates, remote read marks are merged into the local set, and marks
// that never reached the store are queued again.
func (s *Store) Reconcile(snap *reconciler.Snapshot) {
	if snap == nil {
		return
	}
	retries := make([]persistCommand, 0, len(models.EntityKinds))
	counts := make(map[models.EntityKind]int, len(models.EntityKinds))

	s.mu.Lock()
	s.customers = snap.Customers
	s.leads = snap.Leads
	for _, kind := range models.EntityKinds {
		remote := snap.ReadIDs[kind]
		if snap.ReadFetched[kind] {
			for id := range remote {
				s.read[kind][id] = struct{}{}
				delete(s.pending[kind], id)
			}
		}
		if len(s.pending[kind]) > 0 {
			marks := make([]models.ReadMark, 0, len(s.pending[kind]))
			for _, m := range s.pending[kind] {
				marks = append(marks, m)
			}
			retries = append(retries, persistCommand{kind: kind, marks: marks})
		}
		counts[kind] = s.unseenLocked(kind)
	}
	s.mu.Unlock()

	for _, kind := range models.EntityKinds {
		s.notify(kind, counts[kind])
	}
	for _, cmd := range retries {
		s.enqueue(cmd)
	}
}

// UnseenCount is the badge number for kind.
func (s *Store) UnseenCount(kind models.EntityKind) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unseenLocked(kind)
}

// UnseenIDs lists the unseen record ids of kind in snapshot order.
func (s *Store) UnseenIDs(kind models.EntityKind) []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unseenIDsLocked(kind)
}

// IsSeen reports whether the record has been acknowledged.
func (s *Store) IsSeen(kind models.EntityKind, id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.read[kind][id]
	return ok
}

// ReadIDs returns a copy of the local read set for kind.
func (s *Store) ReadIDs(kind models.EntityKind) map[int64]struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int64]struct{}, len(s.read[kind]))
	for id := range s.read[kind] {
		out[id] = struct{}{}
	}
	return out
}

// Pending counts marks of kind that are not yet known to be persisted.
func (s *Store) Pending(kind models.EntityKind) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pending[kind])
}

// Subscribe registers l and returns a function that removes it.
func (s *Store) Subscribe(l Listener) func() {
	s.listenerMu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.listenerMu.Unlock()
	return func() {
		s.listenerMu.Lock()
		delete(s.listeners, id)
		s.listenerMu.Unlock()
	}
}

func (s *Store) notify(kind models.EntityKind, count int) {
	s.listenerMu.RLock()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.listenerMu.RUnlock()
	for _, l := range listeners {
		l(kind, count)
	}
}

// enqueue never blocks. A full queue leaves the marks pending for the next
// reconcile.
func (s *Store) enqueue(cmd persistCommand) {
	select {
	case s.commands <- cmd:
	default:
		s.log.WithFields(logrus.Fields{"kind": cmd.kind, "marks": len(cmd.marks)}).
			Warn("persistence queue full, marks stay pending")
	}
}

func (s *Store) unseenLocked(kind models.EntityKind) int {
	switch kind {
	case models.KindCustomer:
		return analytics.UnseenCount(s.customers, s.read[kind])
	case models.KindLead:
		return analytics.UnseenCount(s.leads, s.read[kind])
	}
	return 0
}

func (s *Store) unseenIDsLocked(kind models.EntityKind) []int64 {
	switch kind {
	case models.KindCustomer:
		return analytics.UnseenIDs(s.customers, s.read[kind])
	case models.KindLead:
		return analytics.UnseenIDs(s.leads, s.read[kind])
	}
	return []int64{}
}

func (s *Store) displayNameLocked(kind models.EntityKind, id int64) string {
	switch kind {
	case models.KindCustomer:
		for _, c := range s.customers {
			if c.ID == id {
				return c.Name
			}
		}
	case models.KindLead:
		for _, l := range s.leads {
			if l.ID == id {
				return l.Name
			}
		}
	}
	return ""
}
