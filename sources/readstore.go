package sources

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"resellerdash/models"
)

// ReadStore is the Postgres store behind admin login, lead comments and the
// read-mark logs. A ReadStore without a database is a no-op: reads come back
// empty and marks are dropped.
type ReadStore struct {
	db  *gorm.DB
	log *logrus.Entry
}

// AdminUpdate carries the profile fields an admin may change. Empty fields
// are left as they are.
type AdminUpdate struct {
	Username string
	Password string
}

func NewReadStore(db *gorm.DB, logger *logrus.Entry) *ReadStore {
	return &ReadStore{db: db, log: defaultLogger(logger, "readstore")}
}

// Enabled reports whether a database is attached.
func (s *ReadStore) Enabled() bool {
	return s != nil && s.db != nil
}

// Migrate creates the tables the store reads and writes.
func (s *ReadStore) Migrate() error {
	if !s.Enabled() {
		return nil
	}
	return s.db.AutoMigrate(
		&models.Admin{},
		&models.CustomerReadMark{},
		&models.LeadReadMark{},
		&models.LeadCommentRecord{},
	)
}

// ReadIDs returns the ids marked read for kind.
func (s *ReadStore) ReadIDs(ctx context.Context, kind models.EntityKind) ([]int64, error) {
	if !s.Enabled() {
		return []int64{}, nil
	}
	ids := []int64{}
	var err error
	switch kind {
	case models.KindCustomer:
		err = s.db.WithContext(ctx).Model(&models.CustomerReadMark{}).
			Where(map[string]any{"read": true}).Pluck("customer_id", &ids).Error
	case models.KindLead:
		err = s.db.WithContext(ctx).Model(&models.LeadReadMark{}).
			Where(map[string]any{"read": true}).Pluck("lead_id", &ids).Error
	default:
		return nil, fmt.Errorf("unknown entity kind %q", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("read ids for %s: %w", kind, err)
	}
	return ids, nil
}

// MarkRead upserts one read mark.
func (s *ReadStore) MarkRead(ctx context.Context, kind models.EntityKind, id int64, displayName string) error {
	return s.MarkManyRead(ctx, kind, []models.ReadMark{{Kind: kind, ID: id, DisplayName: displayName}})
}

// MarkManyRead upserts read marks keyed by record id, so repeating a mark
// never creates a second row.
func (s *ReadStore) MarkManyRead(ctx context.Context, kind models.EntityKind, marks []models.ReadMark) error {
	if !s.Enabled() || len(marks) == 0 {
		return nil
	}
	db := s.db.WithContext(ctx)
	switch kind {
	case models.KindCustomer:
		rows := make([]models.CustomerReadMark, 0, len(marks))
		for _, m := range dedupeMarks(marks) {
			rows = append(rows, models.CustomerReadMark{CustomerID: m.ID, CustomerName: displayName(m), Read: true})
		}
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "customer_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"customer_name", "read"}),
		}).Create(&rows).Error
		if err != nil {
			return fmt.Errorf("mark customers read: %w", err)
		}
	case models.KindLead:
		rows := make([]models.LeadReadMark, 0, len(marks))
		for _, m := range dedupeMarks(marks) {
			rows = append(rows, models.LeadReadMark{LeadID: m.ID, LeadName: displayName(m), Read: true})
		}
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "lead_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"lead_name", "read"}),
		}).Create(&rows).Error
		if err != nil {
			return fmt.Errorf("mark leads read: %w", err)
		}
	default:
		return fmt.Errorf("unknown entity kind %q", kind)
	}
	return nil
}

// Authenticate checks a username/password pair against the Admin table.
// Rows written before passwords were hashed still hold plaintext and are
// compared exactly; UpdateAdmin replaces them with a bcrypt hash.
func (s *ReadStore) Authenticate(ctx context.Context, username, password string) (models.AdminUser, error) {
	if !s.Enabled() || username == "" || password == "" {
		return models.AdminUser{}, ErrInvalidCredentials
	}
	var admin models.Admin
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&admin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.AdminUser{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.AdminUser{}, fmt.Errorf("authenticate %q: %w", username, err)
	}
	if !passwordMatches(admin.Password, password) {
		return models.AdminUser{}, ErrInvalidCredentials
	}
	return admin.User(), nil
}

// UpdateAdmin changes the username and/or password of an admin and returns
// the stored row. New passwords are stored as bcrypt hashes.
func (s *ReadStore) UpdateAdmin(ctx context.Context, adminID int64, update AdminUpdate) (models.Admin, error) {
	if !s.Enabled() {
		return models.Admin{}, ErrUnavailable
	}
	db := s.db.WithContext(ctx)
	changes := map[string]any{}
	if username := strings.TrimSpace(update.Username); username != "" {
		var taken int64
		if err := db.Model(&models.Admin{}).
			Where("username = ? AND admin_id <> ?", username, adminID).Count(&taken).Error; err != nil {
			return models.Admin{}, fmt.Errorf("check username: %w", err)
		}
		if taken > 0 {
			return models.Admin{}, ErrUsernameTaken
		}
		changes["username"] = username
	}
	if update.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(update.Password), bcrypt.DefaultCost)
		if err != nil {
			return models.Admin{}, fmt.Errorf("hash password: %w", err)
		}
		changes["Password"] = string(hash)
	}

	var admin models.Admin
	if len(changes) > 0 {
		res := db.Model(&models.Admin{}).Where("admin_id = ?", adminID).Updates(changes)
		if res.Error != nil {
			return models.Admin{}, fmt.Errorf("update admin %d: %w", adminID, res.Error)
		}
		if res.RowsAffected == 0 {
			return models.Admin{}, fmt.Errorf("admin %d: %w", adminID, ErrNotFound)
		}
	}
	err := db.Where("admin_id = ?", adminID).First(&admin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Admin{}, fmt.Errorf("admin %d: %w", adminID, ErrNotFound)
	}
	if err != nil {
		return models.Admin{}, fmt.Errorf("load admin %d: %w", adminID, err)
	}
	return admin, nil
}

// LeadComments lists the comments on a lead, newest first.
func (s *ReadStore) LeadComments(ctx context.Context, leadID int64) ([]models.Comment, error) {
	if !s.Enabled() {
		return nil, ErrUnavailable
	}
	var rows []models.LeadCommentRecord
	if err := s.db.WithContext(ctx).Where("lead_id = ?", leadID).Order("date desc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("lead %d comments: %w", leadID, err)
	}
	comments := make([]models.Comment, 0, len(rows))
	for _, r := range rows {
		comments = append(comments, r.Canonical())
	}
	return comments, nil
}

// AddLeadComment stores a comment and returns it with its assigned id.
func (s *ReadStore) AddLeadComment(ctx context.Context, comment models.Comment) (models.Comment, error) {
	if !s.Enabled() {
		return models.Comment{}, ErrUnavailable
	}
	date := time.Now().UTC()
	if comment.Date != nil && !comment.Date.IsZero() {
		date = comment.Date.UTC()
	}
	row := models.LeadCommentRecord{
		AdminID:    comment.AdminID,
		AdminName:  comment.AdminName,
		LeadID:     comment.LeadID,
		LeadName:   comment.LeadName,
		Comment:    comment.Text,
		Date:       date,
		TemplateID: comment.TemplateID,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return models.Comment{}, fmt.Errorf("add comment on lead %d: %w", comment.LeadID, err)
	}
	return row.Canonical(), nil
}

func passwordMatches(stored, given string) bool {
	if strings.HasPrefix(stored, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(given)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}

func displayName(m models.ReadMark) string {
	if name := strings.TrimSpace(m.DisplayName); name != "" {
		return name
	}
	return "Unknown"
}

// dedupeMarks keeps the first mark per id; Postgres rejects an upsert that
// touches the same row twice.
func dedupeMarks(marks []models.ReadMark) []models.ReadMark {
	seen := make(map[int64]struct{}, len(marks))
	out := make([]models.ReadMark, 0, len(marks))
	for _, m := range marks {
		if _, ok := seen[m.ID]; ok {
			continue
		}
		seen[m.ID] = struct{}{}
		out = append(out, m)
	}
	return out
}
