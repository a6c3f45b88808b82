package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"resellerdash/config"
	"resellerdash/dashboard"
	"resellerdash/models"
	"resellerdash/notifications"
	"resellerdash/reconciler"
	"resellerdash/sources"
)

type staticRefresher struct{ snap *reconciler.Snapshot }

func (s staticRefresher) Refresh(context.Context) *reconciler.Snapshot {
	copied := *s.snap
	copied.TakenAt = time.Now()
	return &copied
}

func ptr[T any](v T) *T { return &v }

func fixtureSnapshot() *reconciler.Snapshot {
	added := time.Now().UTC().AddDate(0, 0, -10)
	return &reconciler.Snapshot{
		ID:        "snap",
		PartnerID: 4,
		Customers: []models.Customer{
			{ID: 3, Name: "Thabo", Status: models.CustomerStatusNew, GPS: "-24.0,28.0", DateAdded: &added},
			{ID: 2, Name: "Lerato", Status: models.CustomerStatusInactive, RawStatus: "disabled", DateAdded: &added},
			{ID: 1, Name: "Sipho", Status: models.CustomerStatusActive, GPS: "-26.2,28.05", DateAdded: &added},
		},
		Leads: []models.Lead{
			{ID: 11, Name: "Lead Two", Status: models.LeadStatusNew, DateAdded: &added},
			{ID: 10, Name: "Lead One", Status: models.LeadStatusWon, DateAdded: &added},
		},
		Inventory: []models.InventoryItem{{ID: 90, CustomerID: ptr(int64(1))}},
		Templates: []models.Template{{ID: 1, Text: "Site survey scheduled"}},
		ReadIDs: map[models.EntityKind]map[int64]struct{}{
			models.KindCustomer: {},
			models.KindLead:     {},
		},
		ReadFetched: map[models.EntityKind]bool{models.KindCustomer: true, models.KindLead: true},
	}
}

func setupApp(t *testing.T) *fiber.App {
	t.Helper()
	config.AppConfig.JWTSecret = "routes-secret"
	config.AppConfig.JWTExpiry = time.Hour
	config.AppConfig.LoginRateLimit = 100
	config.AppConfig.Redis.Enabled = false

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	quiet := logrus.New()
	quiet.SetLevel(logrus.PanicLevel)
	log := logrus.NewEntry(quiet)

	store := sources.NewReadStore(db, log)
	require.NoError(t, store.Migrate())
	require.NoError(t, db.Create(&models.Admin{AdminID: 1, Name: "Super Admin", Username: "admin", Password: "secret"}).Error)

	svc := dashboard.NewService(dashboard.Options{
		Reconciler:    staticRefresher{snap: fixtureSnapshot()},
		Notifications: notifications.NewStore(store, log, 0),
		Admins:        store,
		Logger:        log,
	})
	_, err = svc.Refresh(context.Background())
	require.NoError(t, err)

	app := fiber.New()
	SetupRoutes(app, svc)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, 5000)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out)
	}
	return resp.StatusCode, out
}

func login(t *testing.T, app *fiber.App, username, password string) string {
	t.Helper()
	status, body := doJSON(t, app, http.MethodPost, "/auth/login", "", map[string]string{
		"username": username,
		"password": password,
	})
	require.Equal(t, fiber.StatusOK, status)
	token, _ := body["access_token"].(string)
	require.NotEmpty(t, token)
	return token
}

func data(body map[string]any) map[string]any {
	d, _ := body["data"].(map[string]any)
	return d
}

func TestLogin(t *testing.T) {
	app := setupApp(t)

	status, _ := doJSON(t, app, http.MethodPost, "/auth/login", "", map[string]string{"username": "admin", "password": "nope"})
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = doJSON(t, app, http.MethodPost, "/auth/login", "", map[string]string{"username": "admin"})
	assert.Equal(t, fiber.StatusBadRequest, status)

	token := login(t, app, "admin", "secret")
	status, body := doJSON(t, app, http.MethodGet, "/auth/me", token, nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "admin", data(body)["username"])
}

func TestAPIRequiresToken(t *testing.T) {
	app := setupApp(t)

	status, _ := doJSON(t, app, http.MethodGet, "/api/v1/dashboard/stats", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestDashboardEndpoints(t *testing.T) {
	app := setupApp(t)
	token := login(t, app, "admin", "secret")

	status, body := doJSON(t, app, http.MethodGet, "/api/v1/dashboard/stats", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	stats, _ := data(body)["stats"].(map[string]any)
	assert.Equal(t, float64(3), stats["totalCustomers"])
	assert.Equal(t, false, data(body)["isSynthetic"])

	status, body = doJSON(t, app, http.MethodPost, "/api/v1/dashboard/refresh", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, dashboard.NoticeRefreshed, data(body)["notice"])

	status, _ = doJSON(t, app, http.MethodGet, "/api/v1/dashboard/trend?kind=lead&by_status=true", token, nil)
	assert.Equal(t, fiber.StatusOK, status)
	status, _ = doJSON(t, app, http.MethodGet, "/api/v1/dashboard/trend?kind=invoice", token, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestCustomerEndpoints(t *testing.T) {
	app := setupApp(t)
	token := login(t, app, "admin", "secret")

	status, body := doJSON(t, app, http.MethodGet, "/api/v1/customers?status=disabled", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(1), data(body)["total"])

	status, body = doJSON(t, app, http.MethodGet, "/api/v1/customers?limit=2&page=2", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(3), data(body)["total"])
	assert.Len(t, data(body)["data"], 1)

	status, body = doJSON(t, app, http.MethodGet, "/api/v1/customers?limit=2&page=4611686018427387905", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(3), data(body)["total"])
	assert.Empty(t, data(body)["data"])

	status, body = doJSON(t, app, http.MethodGet, "/api/v1/customers?status=foo", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(0), data(body)["total"])

	status, body = doJSON(t, app, http.MethodGet, "/api/v1/customers/1", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, data(body)["devices"], 1)

	status, _ = doJSON(t, app, http.MethodGet, "/api/v1/customers/999", token, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	status, _ = doJSON(t, app, http.MethodGet, "/api/v1/customers/abc", token, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestLeadComments(t *testing.T) {
	app := setupApp(t)
	token := login(t, app, "admin", "secret")

	status, _ := doJSON(t, app, http.MethodPost, "/api/v1/leads/10/comments", token, map[string]any{"comment": ""})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body := doJSON(t, app, http.MethodPost, "/api/v1/leads/10/comments", token, map[string]any{
		"comment":     "Survey booked",
		"template_id": 1,
	})
	require.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, "Lead One", data(body)["lead_name"])
	assert.Equal(t, "Super Admin", data(body)["admin_name"])

	status, body = doJSON(t, app, http.MethodGet, "/api/v1/leads/10", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, data(body)["comments"], 1)
	assert.Len(t, data(body)["templates"], 1)
}

func TestNotificationEndpoints(t *testing.T) {
	app := setupApp(t)
	token := login(t, app, "admin", "secret")

	status, body := doJSON(t, app, http.MethodGet, "/api/v1/notifications", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	lead, _ := data(body)["lead"].(map[string]any)
	assert.Equal(t, float64(1), lead["unseen"])

	status, body = doJSON(t, app, http.MethodPost, "/api/v1/notifications/lead/11/seen", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(0), data(body)["unseen"])

	status, body = doJSON(t, app, http.MethodPost, "/api/v1/notifications/customer/seen", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(0), data(body)["unseen"])

	status, _ = doJSON(t, app, http.MethodPost, "/api/v1/notifications/invoice/1/seen", token, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestUpdateProfile(t *testing.T) {
	app := setupApp(t)
	token := login(t, app, "admin", "secret")

	status, _ := doJSON(t, app, http.MethodPut, "/auth/profile", token, map[string]string{})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body := doJSON(t, app, http.MethodPut, "/auth/profile", token, map[string]string{"password": "n3w-secret"})
	require.Equal(t, fiber.StatusOK, status)
	assert.NotEmpty(t, body["access_token"])

	status, _ = doJSON(t, app, http.MethodPost, "/auth/login", "", map[string]string{"username": "admin", "password": "secret"})
	assert.Equal(t, fiber.StatusUnauthorized, status)
	login(t, app, "admin", "n3w-secret")
}

func TestUnknownRoute(t *testing.T) {
	app := setupApp(t)

	status, body := doJSON(t, app, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "Not Found", body["error"])
}
