package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"resellerdash/models"
	"resellerdash/normalize"
)

const (
	leadsPath     = "/api/2.0/admin/crm/leads"
	leadsInfoPath = "/api/2.0/admin/crm/leads-info"
	customersPath = "/api/2.0/admin/customers/customer"
	billingPath   = "/api/2.0/admin/customers/customer-billing"
	notesPath     = "/api/2.0/admin/customers/customer-notes"
	inventoryPath = "/api/2.0/admin/inventory/items"
)

// Synthetic dataset sizes used when the CRM cannot be reached.
const (
	syntheticLeadCount      = 15
	syntheticCustomerCount  = 25
	syntheticBillingCount   = 25
	syntheticInventoryCount = 40
)

type CRMOptions struct {
	BaseURL           string
	AuthHeader        string
	HTTPClient        *http.Client
	RequestsPerSecond float64
	MaxRetries        int
	BaseDelay         time.Duration
	MaxDelay          time.Duration
	Logger            *logrus.Entry
	Synthetic         *Synthetic
}

// CRMClient reads customers, leads, billing, inventory and notes from the
// vendor CRM.
type CRMClient struct {
	baseURL    string
	authHeader string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	log        *logrus.Entry
	synthetic  *Synthetic
}

// NoteInput is a customer note typed by an operator.
type NoteInput struct {
	CustomerID int64
	AdminID    int64
	AdminName  string
	Comment    string
	At         time.Time
}

func NewCRMClient(opts CRMOptions) *CRMClient {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://portal.umoja.network"
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}
	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = 10
	}
	maxRetries := opts.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	baseDelay := opts.BaseDelay
	if baseDelay <= 0 {
		baseDelay = 200 * time.Millisecond
	}
	maxDelay := opts.MaxDelay
	if maxDelay <= 0 {
		maxDelay = 2 * time.Second
	}
	synth := opts.Synthetic
	if synth == nil {
		synth = NewSynthetic(time.Now().UnixNano(), DefaultPartnerID)
	}
	return &CRMClient{
		baseURL:    baseURL,
		authHeader: strings.TrimSpace(opts.AuthHeader),
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(rps), int(rps)+1),
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		maxDelay:   maxDelay,
		log:        defaultLogger(opts.Logger, "crm"),
		synthetic:  synth,
	}
}

// FetchLeads loads leads and the leads-info status table side by side. The
// status table only refines statuses; losing it is not a reason to fall back.
func (c *CRMClient) FetchLeads(ctx context.Context) Result[models.Lead] {
	var (
		rawLeads []normalize.Record
		rawInfo  []normalize.Record
		infoErr  error
	)
	var g errgroup.Group
	g.Go(func() error {
		var err error
		rawLeads, err = c.getList(ctx, leadsPath)
		return err
	})
	g.Go(func() error {
		rawInfo, infoErr = c.getList(ctx, leadsInfoPath)
		return nil
	})
	if err := g.Wait(); err != nil {
		c.log.WithError(err).Warn("fetching leads failed, using synthetic leads")
		return synthetic(c.synthetic.Leads(syntheticLeadCount))
	}
	if infoErr != nil {
		c.log.WithError(infoErr).Warn("fetching leads-info failed, lead statuses may be inaccurate")
	}

	codes := make(map[int64]int64, len(rawInfo))
	for _, info := range rawInfo {
		if id, code, ok := normalize.LeadInfoCode(info); ok {
			codes[id] = code
		}
	}

	leads := make([]models.Lead, 0, len(rawLeads))
	for _, raw := range rawLeads {
		var infoCode *int64
		if id, ok := normalize.Int64(raw["id"]); ok {
			if code, found := codes[id]; found {
				infoCode = &code
			}
		}
		leads = append(leads, normalize.Lead(raw, infoCode))
	}
	return live(leads)
}

func (c *CRMClient) FetchCustomers(ctx context.Context) Result[models.Customer] {
	raw, err := c.getList(ctx, customersPath)
	if err != nil {
		c.log.WithError(err).Warn("fetching customers failed, using synthetic customers")
		return synthetic(c.synthetic.Customers(syntheticCustomerCount))
	}
	return live(mapRecords(raw, normalize.Customer))
}

func (c *CRMClient) FetchBilling(ctx context.Context) Result[models.Billing] {
	raw, err := c.getList(ctx, billingPath)
	if err != nil {
		c.log.WithError(err).Warn("fetching customer billing failed, using synthetic billing")
		return synthetic(c.synthetic.Billing(syntheticBillingCount))
	}
	return live(mapRecords(raw, normalize.Billing))
}

func (c *CRMClient) FetchInventory(ctx context.Context) Result[models.InventoryItem] {
	raw, err := c.getList(ctx, inventoryPath)
	if err != nil {
		c.log.WithError(err).Warn("fetching inventory failed, using synthetic inventory")
		return synthetic(c.synthetic.Inventory(syntheticInventoryCount, SyntheticCustomerIDs(syntheticCustomerCount)))
	}
	return live(mapRecords(raw, normalize.InventoryItem))
}

// FetchNotes returns the notes attached to one customer.
func (c *CRMClient) FetchNotes(ctx context.Context, customerID int64) Result[models.CustomerNote] {
	raw, err := c.getList(ctx, notesPath)
	if err != nil {
		c.log.WithError(err).WithField("customer_id", customerID).Warn("fetching customer notes failed, using synthetic notes")
		return synthetic(c.synthetic.Notes(customerID))
	}
	notes := make([]models.CustomerNote, 0)
	for _, r := range raw {
		note := normalize.CustomerNote(r, customerID)
		if note.CustomerID == customerID {
			notes = append(notes, note)
		}
	}
	return live(notes)
}

// SubmitNote posts a customer comment to the CRM.
func (c *CRMClient) SubmitNote(ctx context.Context, note NoteInput) error {
	at := note.At
	if at.IsZero() {
		at = time.Now()
	}
	payload := map[string]any{
		"customer_id":      note.CustomerID,
		"datetime":         at.Format("2006-01-02 15:04:05"),
		"administrator_id": note.AdminID,
		"name":             note.AdminName,
		"type":             "comment",
		"title":            "Customer Comment",
		"comment":          note.Comment,
		"is_done":          "1",
		"is_send":          "1",
		"is_pinned":        "0",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := c.do(ctx, http.MethodPost, notesPath, body); err != nil {
		return fmt.Errorf("submit customer note: %w", err)
	}
	return nil
}

func (c *CRMClient) getList(ctx context.Context, path string) ([]normalize.Record, error) {
	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return decodeList(body)
}

func (c *CRMClient) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	url := c.baseURL + path
	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		var reqBody io.Reader
		if payload != nil {
			reqBody = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Content-Type", "application/json")
		if c.authHeader != "" {
			req.Header.Set("Authorization", c.authHeader)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if attempt < c.maxRetries {
				if waitErr := sleepContext(ctx, c.retryDelay(attempt+1, "")); waitErr != nil {
					return nil, waitErr
				}
				continue
			}
			return nil, err
		}
		respBody, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return nil, readErr
		}
		if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
			return respBody, nil
		}

		httpErr := &HTTPError{
			Method:     method,
			URL:        url,
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(respBody)),
		}
		if httpErr.Temporary() && attempt < c.maxRetries {
			if waitErr := sleepContext(ctx, c.retryDelay(attempt+1, resp.Header.Get("Retry-After"))); waitErr != nil {
				return nil, waitErr
			}
			continue
		}
		return nil, httpErr
	}
}

func (c *CRMClient) retryDelay(attempt int, retryAfterHeader string) time.Duration {
	if retryAfter := parseRetryAfterSeconds(retryAfterHeader); retryAfter > 0 {
		if retryAfter > c.maxDelay {
			return c.maxDelay
		}
		return retryAfter
	}
	delay := c.baseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= c.maxDelay {
			return c.maxDelay
		}
	}
	return delay
}

// decodeList accepts either a bare JSON array or an object wrapping the
// array under "data".
func decodeList(body []byte) ([]normalize.Record, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return []normalize.Record{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	if trimmed[0] == '[' {
		var list []normalize.Record
		if err := dec.Decode(&list); err != nil {
			return nil, fmt.Errorf("decode list: %w", err)
		}
		return list, nil
	}
	var wrapped struct {
		Data []normalize.Record `json:"data"`
	}
	if err := dec.Decode(&wrapped); err != nil {
		return nil, fmt.Errorf("decode wrapped list: %w", err)
	}
	if wrapped.Data == nil {
		return []normalize.Record{}, nil
	}
	return wrapped.Data, nil
}

func mapRecords[T any](raw []normalize.Record, fn func(normalize.Record) T) []T {
	out := make([]T, 0, len(raw))
	for _, r := range raw {
		out = append(out, fn(r))
	}
	return out
}

func parseRetryAfterSeconds(header string) time.Duration {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func sleepContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
