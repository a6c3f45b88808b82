package sources

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"resellerdash/models"
)

func setupReadStore(t *testing.T) (*ReadStore, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	store := NewReadStore(db, nil)
	require.NoError(t, store.Migrate())
	return store, db
}

func TestReadStoreWithoutDatabaseIsNoop(t *testing.T) {
	store := NewReadStore(nil, nil)
	ctx := context.Background()

	ids, err := store.ReadIDs(ctx, models.KindCustomer)
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.NoError(t, store.MarkRead(ctx, models.KindLead, 1, "x"))

	_, err = store.Authenticate(ctx, "admin", "secret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = store.LeadComments(ctx, 1)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestMarkReadIsIdempotent(t *testing.T) {
	store, db := setupReadStore(t)
	ctx := context.Background()

	require.NoError(t, store.MarkRead(ctx, models.KindCustomer, 42, "Acme"))
	require.NoError(t, store.MarkRead(ctx, models.KindCustomer, 42, "Acme Renamed"))

	var rows []models.CustomerReadMark
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "Acme Renamed", rows[0].CustomerName)
	assert.True(t, rows[0].Read)

	ids, err := store.ReadIDs(ctx, models.KindCustomer)
	require.NoError(t, err)
	assert.Equal(t, []int64{42}, ids)
}

func TestMarkManyReadUpsertsLeads(t *testing.T) {
	store, _ := setupReadStore(t)
	ctx := context.Background()

	require.NoError(t, store.MarkRead(ctx, models.KindLead, 1001, ""))
	require.NoError(t, store.MarkManyRead(ctx, models.KindLead, []models.ReadMark{
		{Kind: models.KindLead, ID: 1001, DisplayName: "Thabo"},
		{Kind: models.KindLead, ID: 1002},
		{Kind: models.KindLead, ID: 1002},
	}))

	ids, err := store.ReadIDs(ctx, models.KindLead)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1001, 1002}, ids)

	customers, err := store.ReadIDs(ctx, models.KindCustomer)
	require.NoError(t, err)
	assert.Empty(t, customers)
}

func TestAuthenticatePlaintextAndHashed(t *testing.T) {
	store, db := setupReadStore(t)
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("hashed-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.Admin{AdminID: 1, Name: "Legacy", Username: "legacy", Password: "plain-pass"}).Error)
	require.NoError(t, db.Create(&models.Admin{AdminID: 2, Name: "Modern", Username: "modern", Password: string(hash)}).Error)

	user, err := store.Authenticate(ctx, "legacy", "plain-pass")
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.AdminID)
	assert.Equal(t, models.RoleAdmin, user.Role)

	_, err = store.Authenticate(ctx, "legacy", "Plain-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	user, err = store.Authenticate(ctx, "modern", "hashed-pass")
	require.NoError(t, err)
	assert.Equal(t, "Modern", user.Name)

	_, err = store.Authenticate(ctx, "ghost", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUpdateAdminHashesPassword(t *testing.T) {
	store, db := setupReadStore(t)
	ctx := context.Background()
	require.NoError(t, db.Create(&models.Admin{AdminID: 1, Name: "Legacy", Username: "legacy", Password: "old"}).Error)
	require.NoError(t, db.Create(&models.Admin{AdminID: 2, Name: "Other", Username: "taken", Password: "x"}).Error)

	admin, err := store.UpdateAdmin(ctx, 1, AdminUpdate{Username: "renamed", Password: "new-secret"})
	require.NoError(t, err)
	assert.Equal(t, "renamed", admin.Username)
	assert.True(t, strings.HasPrefix(admin.Password, "$2"))

	_, err = store.Authenticate(ctx, "renamed", "new-secret")
	assert.NoError(t, err)
	_, err = store.Authenticate(ctx, "renamed", "old")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = store.UpdateAdmin(ctx, 1, AdminUpdate{Username: "taken"})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	_, err = store.UpdateAdmin(ctx, 99, AdminUpdate{Password: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLeadCommentsNewestFirst(t *testing.T) {
	store, _ := setupReadStore(t)
	ctx := context.Background()
	older := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(48 * time.Hour)

	_, err := store.AddLeadComment(ctx, models.Comment{AdminID: 1, AdminName: "A", LeadID: 7, Text: "first", Date: &older})
	require.NoError(t, err)
	saved, err := store.AddLeadComment(ctx, models.Comment{AdminID: 1, AdminName: "A", LeadID: 7, Text: "second", Date: &newer})
	require.NoError(t, err)
	assert.NotZero(t, saved.ID)
	_, err = store.AddLeadComment(ctx, models.Comment{LeadID: 8, Text: "elsewhere"})
	require.NoError(t, err)

	comments, err := store.LeadComments(ctx, 7)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "second", comments[0].Text)
	assert.Equal(t, "first", comments[1].Text)
}
