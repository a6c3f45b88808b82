package sources

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resellerdash/models"
)

type staticToken string

func (s staticToken) Token(context.Context) (string, error) { return string(s), nil }

type failingToken struct{}

func (failingToken) Token(context.Context) (string, error) { return "", ErrAuth }

type fakeSheetsAPI struct {
	mu      sync.Mutex
	sheets  map[string][][]any
	writes  []string
	bodies  []map[string]any
	auth    string
	failGet bool
}

func (f *fakeSheetsAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.auth = r.Header.Get("Authorization")
	// /v4/spreadsheets/{id}/values/{range}[:append]
	parts := strings.SplitN(strings.TrimPrefix(r.URL.Path, "/v4/spreadsheets/"), "/values/", 2)
	if len(parts) != 2 {
		http.NotFound(w, r)
		return
	}
	rng := parts[1]
	if r.Method == http.MethodGet {
		if f.failGet {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		values, ok := f.sheets[rng]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"range": rng, "majorDimension": "ROWS", "values": values})
		return
	}
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)
	f.writes = append(f.writes, r.Method+" "+rng)
	f.bodies = append(f.bodies, body)
	_ = json.NewEncoder(w).Encode(map[string]any{"spreadsheetId": parts[0]})
}

func newTestSheets(t *testing.T, api *fakeSheetsAPI, tokens TokenProvider) *SheetsClient {
	t.Helper()
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)
	return NewSheetsClient(SheetsOptions{
		SpreadsheetID:         "ops",
		DeliverySpreadsheetID: "deliveries",
		DeliverySheet:         "Log",
		Endpoint:              server.URL,
		TokenProvider:         tokens,
	})
}

func TestFetchCommentsCoercesCells(t *testing.T) {
	api := &fakeSheetsAPI{sheets: map[string][][]any{
		"Comments": {
			{"id", "admin_id", "admin_Name", "lead_id", "lead_name", "comment", "date", "template_id"},
			{"1", "2", "Sipho", "1001", "", "Called", "2025-06-01T08:00:00Z", "3"},
			{"2", "2", "Sipho", "1002", "", "Short row"},
		},
	}}
	client := newTestSheets(t, api, staticToken("sheet-token"))

	res := client.FetchComments(context.Background())
	require.False(t, res.IsSynthetic)
	require.Len(t, res.Data, 2)
	assert.Equal(t, int64(1001), res.Data[0].LeadID)
	require.NotNil(t, res.Data[0].TemplateID)
	assert.Equal(t, int64(3), *res.Data[0].TemplateID)
	assert.Nil(t, res.Data[1].TemplateID)
	assert.Equal(t, "Bearer sheet-token", api.auth)
}

func TestFetchSheetKeepsLossyCellsAsText(t *testing.T) {
	api := &fakeSheetsAPI{sheets: map[string][][]any{
		"Codes": {
			{" code ", "amount"},
			{"007", "12"},
		},
	}}
	client := newTestSheets(t, api, staticToken("t"))

	res := client.FetchSheet(context.Background(), "Codes")
	require.False(t, res.IsSynthetic)
	require.Len(t, res.Data, 1)
	assert.Equal(t, "007", res.Data[0]["code"])
	assert.Equal(t, int64(12), res.Data[0]["amount"])
}

func TestSheetsFallBackWhenTokenFails(t *testing.T) {
	client := newTestSheets(t, &fakeSheetsAPI{}, failingToken{})
	ctx := context.Background()

	comments := client.FetchComments(ctx)
	assert.True(t, comments.IsSynthetic)
	assert.NotEmpty(t, comments.Data)

	templates := client.FetchTemplates(ctx)
	assert.True(t, templates.IsSynthetic)
	assert.NotEmpty(t, templates.Data)

	admins := client.FetchAdmins(ctx)
	assert.True(t, admins.IsSynthetic)
	assert.NotEmpty(t, admins.Data)

	deliveries := client.FetchDeliveries(ctx)
	assert.True(t, deliveries.IsSynthetic)
	assert.NotEmpty(t, deliveries.Data)

	rows := client.FetchSheet(ctx, "Templates")
	assert.True(t, rows.IsSynthetic)
	assert.Len(t, rows.Data, len(templates.Data))
}

func TestSheetsFallBackWhenFetchFails(t *testing.T) {
	client := newTestSheets(t, &fakeSheetsAPI{failGet: true}, staticToken("t"))

	deliveries := client.FetchDeliveries(context.Background())
	assert.True(t, deliveries.IsSynthetic)
	assert.NotEmpty(t, deliveries.Data)
}

func TestFetchDeliveriesReadsDeliverySpreadsheet(t *testing.T) {
	api := &fakeSheetsAPI{sheets: map[string][][]any{
		"Log": {
			{"Time", "Customer ID", "Name", "Router Barcode", "SIM Barcode", "Agent"},
			{"09:00", "5001", "Acme", "RB-1", "SIM-1", "Nomsa"},
		},
	}}
	client := newTestSheets(t, api, staticToken("t"))

	res := client.FetchDeliveries(context.Background())
	require.False(t, res.IsSynthetic)
	require.Len(t, res.Data, 1)
	assert.Equal(t, models.Delivery{
		Time: "09:00", CustomerID: "5001", Name: "Acme", RouterBarcode: "RB-1", SIMBarcode: "SIM-1", Agent: "Nomsa",
	}, res.Data[0])
}

func TestAppendCommentRequiresToken(t *testing.T) {
	client := newTestSheets(t, &fakeSheetsAPI{}, failingToken{})

	err := client.AppendComment(context.Background(), CommentInput{LeadID: 1001, Comment: "x"})
	assert.True(t, errors.Is(err, ErrAuth))
}

func TestAppendCommentWritesRow(t *testing.T) {
	api := &fakeSheetsAPI{}
	client := newTestSheets(t, api, staticToken("t"))
	tpl := int64(2)

	err := client.AppendComment(context.Background(), CommentInput{
		ID: 77, AdminID: 1, AdminName: "Super Admin", LeadID: 1001, Comment: "Booked", TemplateID: &tpl,
	})
	require.NoError(t, err)
	require.Len(t, api.writes, 1)
	assert.Equal(t, "POST Comments:append", api.writes[0])
	values := api.bodies[0]["values"].([]any)
	row := values[0].([]any)
	assert.Len(t, row, 8)
	assert.Equal(t, float64(77), row[0])
	assert.Equal(t, "Booked", row[5])
	assert.Equal(t, float64(2), row[7])
}

func TestUpdateAdminCredentialsTargetsCells(t *testing.T) {
	header := []any{"admin_id", "name"}
	for i := 0; i < 25; i++ {
		header = append(header, "extra")
	}
	header = append(header, "username", "Password")
	api := &fakeSheetsAPI{sheets: map[string][][]any{
		"Admin": {
			header,
			{"1", "Super Admin"},
			{"2", "Sales Agent"},
		},
	}}
	client := newTestSheets(t, api, staticToken("t"))

	err := client.UpdateAdminCredentials(context.Background(), 2, "sales2", "$2a$10$hash")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"PUT Admin!AB3", "PUT Admin!AC3"}, api.writes)

	err = client.UpdateAdminCredentials(context.Background(), 99, "nobody", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestServiceAccountTokenProviderRequiresConfig(t *testing.T) {
	_, err := NewServiceAccountTokenProvider("", "", "").Token(context.Background())
	assert.ErrorIs(t, err, ErrAuth)

	_, err = NewServiceAccountTokenProvider("svc@example.iam.gserviceaccount.com", "not a key", "http://127.0.0.1:1/token").
		Token(context.Background())
	assert.ErrorIs(t, err, ErrAuth)
}
