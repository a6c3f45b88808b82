package sources

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"resellerdash/models"
	"resellerdash/normalize"
)

// Sheet names in the operations spreadsheet.
const (
	CommentsSheet  = "Comments"
	TemplatesSheet = "Templates"
	AdminSheet     = "Admin"
)

// TokenProvider hands out bearer tokens for the spreadsheet API.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// ServiceAccountTokenProvider exchanges a signed service-account assertion
// for an access token and caches it until it expires.
type ServiceAccountTokenProvider struct {
	cfg *jwt.Config

	mu     sync.Mutex
	cached *oauth2.Token
}

// NewServiceAccountTokenProvider accepts the private key with literal "\n"
// sequences, as it usually arrives from an environment variable.
func NewServiceAccountTokenProvider(clientEmail, privateKey, tokenURL string) *ServiceAccountTokenProvider {
	clientEmail = strings.TrimSpace(clientEmail)
	privateKey = strings.ReplaceAll(strings.TrimSpace(privateKey), `\n`, "\n")
	if clientEmail == "" || privateKey == "" {
		return &ServiceAccountTokenProvider{}
	}
	if tokenURL == "" {
		tokenURL = google.JWTTokenURL
	}
	return &ServiceAccountTokenProvider{cfg: &jwt.Config{
		Email:      clientEmail,
		PrivateKey: []byte(privateKey),
		Scopes:     []string{sheets.SpreadsheetsScope},
		TokenURL:   tokenURL,
	}}
}

func (p *ServiceAccountTokenProvider) Token(ctx context.Context) (string, error) {
	if p == nil || p.cfg == nil {
		return "", fmt.Errorf("%w: spreadsheet service account not configured", ErrAuth)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cached.Valid() {
		return p.cached.AccessToken, nil
	}
	tok, err := p.cfg.TokenSource(ctx).Token()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuth, err)
	}
	p.cached = tok
	return tok.AccessToken, nil
}

type SheetsOptions struct {
	SpreadsheetID         string
	DeliverySpreadsheetID string
	DeliverySheet         string
	// Endpoint overrides the Sheets API base URL.
	Endpoint      string
	TokenProvider TokenProvider
	Logger        *logrus.Entry
}

// SheetsClient reads and writes the operations spreadsheet.
type SheetsClient struct {
	spreadsheetID         string
	deliverySpreadsheetID string
	deliverySheet         string
	endpoint              string
	tokens                TokenProvider
	log                   *logrus.Entry
	now                   func() time.Time
}

// CommentInput is a lead comment to append to the Comments sheet.
type CommentInput struct {
	ID         int64
	AdminID    int64
	AdminName  string
	LeadID     int64
	LeadName   string
	Comment    string
	Date       time.Time
	TemplateID *int64
}

func NewSheetsClient(opts SheetsOptions) *SheetsClient {
	deliverySheet := strings.TrimSpace(opts.DeliverySheet)
	if deliverySheet == "" {
		deliverySheet = "Sheet1"
	}
	tokens := opts.TokenProvider
	if tokens == nil {
		tokens = &ServiceAccountTokenProvider{}
	}
	return &SheetsClient{
		spreadsheetID:         strings.TrimSpace(opts.SpreadsheetID),
		deliverySpreadsheetID: strings.TrimSpace(opts.DeliverySpreadsheetID),
		deliverySheet:         deliverySheet,
		endpoint:              strings.TrimSpace(opts.Endpoint),
		tokens:                tokens,
		log:                   defaultLogger(opts.Logger, "sheets"),
		now:                   time.Now,
	}
}

// FetchSheet returns the rows of one sheet keyed by the header row.
func (c *SheetsClient) FetchSheet(ctx context.Context, name string) Result[normalize.Record] {
	rows, err := c.readRecords(ctx, c.spreadsheetID, name)
	if err != nil {
		c.log.WithError(err).WithField("sheet", name).Warn("fetching sheet failed, using synthetic rows")
		return synthetic(c.syntheticRows(name))
	}
	return live(rows)
}

func (c *SheetsClient) FetchComments(ctx context.Context) Result[models.Comment] {
	rows, err := c.readRecords(ctx, c.spreadsheetID, CommentsSheet)
	if err != nil {
		c.log.WithError(err).Warn("fetching comments failed, using synthetic comments")
		return synthetic(syntheticComments(c.now()))
	}
	return live(mapRecords(rows, normalize.Comment))
}

func (c *SheetsClient) FetchTemplates(ctx context.Context) Result[models.Template] {
	rows, err := c.readRecords(ctx, c.spreadsheetID, TemplatesSheet)
	if err != nil {
		c.log.WithError(err).Warn("fetching templates failed, using synthetic templates")
		return synthetic(syntheticTemplates())
	}
	return live(mapRecords(rows, normalize.Template))
}

func (c *SheetsClient) FetchAdmins(ctx context.Context) Result[models.AdminUser] {
	rows, err := c.readRecords(ctx, c.spreadsheetID, AdminSheet)
	if err != nil {
		c.log.WithError(err).Warn("fetching admins failed, using synthetic admins")
		return synthetic(syntheticAdmins())
	}
	return live(mapRecords(rows, normalize.AdminUser))
}

func (c *SheetsClient) FetchDeliveries(ctx context.Context) Result[models.Delivery] {
	rows, err := c.readRecords(ctx, c.deliverySpreadsheetID, c.deliverySheet)
	if err != nil {
		c.log.WithError(err).Warn("fetching deliveries failed, using synthetic deliveries")
		return synthetic(syntheticDeliveries())
	}
	return live(mapRecords(rows, normalize.Delivery))
}

// AppendComment adds one row to the Comments sheet in its column order:
// id, admin_id, admin_Name, lead_id, lead_name, comment, date, template_id.
func (c *SheetsClient) AppendComment(ctx context.Context, in CommentInput) error {
	svc, err := c.service(ctx)
	if err != nil {
		return err
	}
	id := in.ID
	if id == 0 {
		id = c.now().UnixMilli()
	}
	date := in.Date
	if date.IsZero() {
		date = c.now()
	}
	var templateID any = ""
	if in.TemplateID != nil {
		templateID = *in.TemplateID
	}
	row := []any{id, in.AdminID, in.AdminName, in.LeadID, in.LeadName, in.Comment, date.UTC().Format(time.RFC3339), templateID}
	_, err = svc.Spreadsheets.Values.Append(c.spreadsheetID, CommentsSheet, &sheets.ValueRange{
		Values: [][]any{row},
	}).ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append comment: %w", err)
	}
	return nil
}

// UpdateAdminCredentials rewrites the username and/or password cells of the
// Admin sheet row for adminID. Empty values are left untouched.
func (c *SheetsClient) UpdateAdminCredentials(ctx context.Context, adminID int64, username, password string) error {
	svc, err := c.service(ctx)
	if err != nil {
		return err
	}
	resp, err := svc.Spreadsheets.Values.Get(c.spreadsheetID, AdminSheet).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read admin sheet: %w", err)
	}
	if len(resp.Values) == 0 {
		return fmt.Errorf("admin %d: %w", adminID, ErrNotFound)
	}
	headers := headerRow(resp.Values[0])
	idCol := findColumn(headers, func(h string) bool {
		h = strings.ToLower(h)
		return h == "admin_id" || h == "id"
	})
	if idCol < 0 {
		return fmt.Errorf("admin sheet has no id column: %w", ErrNotFound)
	}
	sheetRow := -1
	for i, row := range resp.Values[1:] {
		if idCol >= len(row) {
			continue
		}
		if id, ok := normalize.Int64(row[idCol]); ok && id == adminID {
			sheetRow = i + 2
			break
		}
	}
	if sheetRow < 0 {
		return fmt.Errorf("admin %d: %w", adminID, ErrNotFound)
	}

	updates := map[int]string{}
	if username != "" {
		if col := findColumn(headers, func(h string) bool { return h == "username" }); col >= 0 {
			updates[col] = username
		}
	}
	if password != "" {
		if col := findColumn(headers, func(h string) bool { return h == "Password" || h == "password" }); col >= 0 {
			updates[col] = password
		}
	}
	for col, value := range updates {
		cell := fmt.Sprintf("%s!%s%d", AdminSheet, ColumnLetter(col), sheetRow)
		_, err := svc.Spreadsheets.Values.Update(c.spreadsheetID, cell, &sheets.ValueRange{
			Values: [][]any{{value}},
		}).ValueInputOption("USER_ENTERED").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("update %s: %w", cell, err)
		}
	}
	return nil
}

func (c *SheetsClient) service(ctx context.Context) (*sheets.Service, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("%w: empty spreadsheet token", ErrAuth)
	}
	opts := []option.ClientOption{
		option.WithHTTPClient(oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))),
	}
	if c.endpoint != "" {
		opts = append(opts, option.WithEndpoint(strings.TrimRight(c.endpoint, "/")+"/"))
	}
	return sheets.NewService(ctx, opts...)
}

func (c *SheetsClient) readRecords(ctx context.Context, spreadsheetID, name string) ([]normalize.Record, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id not configured")
	}
	svc, err := c.service(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := svc.Spreadsheets.Values.Get(spreadsheetID, name).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get sheet %q: %w", name, err)
	}
	return rowsToRecords(resp.Values), nil
}

// rowsToRecords keys each data row by the trimmed header row and coerces
// text cells that are really numbers.
func rowsToRecords(values [][]any) []normalize.Record {
	if len(values) == 0 {
		return []normalize.Record{}
	}
	headers := headerRow(values[0])
	records := make([]normalize.Record, 0, len(values)-1)
	for _, row := range values[1:] {
		record := make(normalize.Record, len(headers))
		for i, header := range headers {
			if header == "" || i >= len(row) {
				continue
			}
			if s, ok := row[i].(string); ok {
				record[header] = normalize.Coerce(s)
				continue
			}
			record[header] = row[i]
		}
		records = append(records, record)
	}
	return records
}

func headerRow(row []any) []string {
	headers := make([]string, len(row))
	for i, cell := range row {
		headers[i] = strings.TrimSpace(normalize.String(cell))
	}
	return headers
}

func findColumn(headers []string, match func(string) bool) int {
	for i, h := range headers {
		if match(h) {
			return i
		}
	}
	return -1
}

// ColumnLetter converts a zero-based column index to A1 notation:
// 0 is A, 25 is Z, 26 is AA.
func ColumnLetter(index int) string {
	if index < 0 {
		return ""
	}
	var b []byte
	for n := index + 1; n > 0; n = (n - 1) / 26 {
		b = append([]byte{byte('A' + (n-1)%26)}, b...)
	}
	return string(b)
}

func (c *SheetsClient) syntheticRows(name string) []normalize.Record {
	var rows []normalize.Record
	switch name {
	case CommentsSheet:
		for _, cm := range syntheticComments(c.now()) {
			var templateID any = ""
			if cm.TemplateID != nil {
				templateID = *cm.TemplateID
			}
			rows = append(rows, normalize.Record{
				"id": cm.ID, "admin_id": cm.AdminID, "admin_Name": cm.AdminName, "lead_id": cm.LeadID,
				"lead_name": cm.LeadName, "comment": cm.Text, "date": cm.Date.Format(time.RFC3339), "template_id": templateID,
			})
		}
	case TemplatesSheet:
		for _, t := range syntheticTemplates() {
			rows = append(rows, normalize.Record{"id": t.ID, "Template": t.Text})
		}
	case AdminSheet:
		for _, a := range syntheticAdmins() {
			rows = append(rows, normalize.Record{"admin_id": a.AdminID, "name": a.Name, "username": a.Username, "role": string(a.Role)})
		}
	case c.deliverySheet:
		for _, d := range syntheticDeliveries() {
			id, _ := strconv.ParseInt(d.CustomerID, 10, 64)
			rows = append(rows, normalize.Record{
				"Time": d.Time, "Customer ID": id, "Name": d.Name,
				"Router Barcode": d.RouterBarcode, "SIM Barcode": d.SIMBarcode, "Agent": d.Agent,
			})
		}
	}
	if rows == nil {
		rows = []normalize.Record{}
	}
	return rows
}
