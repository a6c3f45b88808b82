package dashboard

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"resellerdash/models"
	"resellerdash/normalize"
	"resellerdash/sources"
)

// ListFilter narrows a customer or lead listing. Empty fields match everything.
type ListFilter struct {
	Search   string
	Status   string
	Location models.Location
}

type CustomerDetail struct {
	Customer       models.Customer        `json:"customer"`
	Devices        []models.InventoryItem `json:"devices"`
	Notes          []models.CustomerNote  `json:"notes"`
	NotesSynthetic bool                   `json:"notesSynthetic"`
	Seen           bool                   `json:"seen"`
}

type LeadDetail struct {
	Lead      models.Lead       `json:"lead"`
	Comments  []models.Comment  `json:"comments"`
	Templates []models.Template `json:"templates"`
	Seen      bool              `json:"seen"`
}

// Customers lists the tenant's customers matching f, newest id first.
func (s *Service) Customers(f ListFilter) []models.Customer {
	snap := s.Snapshot()
	search := strings.ToLower(strings.TrimSpace(f.Search))
	var status models.CustomerStatus
	if f.Status != "" {
		status = normalize.CustomerStatus(f.Status)
		if status == models.CustomerStatusUnknown {
			return []models.Customer{}
		}
	}
	out := make([]models.Customer, 0, len(snap.Customers))
	for _, c := range snap.Customers {
		if f.Status != "" && c.Status != status {
			continue
		}
		if f.Location != "" && normalize.ClassifyLocation(c.GPS) != f.Location {
			continue
		}
		if search != "" && !matches(search, c.Name, c.Email) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Leads lists the tenant's leads matching f, newest id first.
func (s *Service) Leads(f ListFilter) []models.Lead {
	snap := s.Snapshot()
	search := strings.ToLower(strings.TrimSpace(f.Search))
	status := strings.TrimSpace(f.Status)
	out := make([]models.Lead, 0, len(snap.Leads))
	for _, l := range snap.Leads {
		if status != "" && !strings.EqualFold(string(l.Status), status) {
			continue
		}
		if f.Location != "" && normalize.ClassifyLocation(l.GPS) != f.Location {
			continue
		}
		if search != "" && !matches(search, l.Name, l.Email) {
			continue
		}
		out = append(out, l)
	}
	return out
}

func matches(search string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), search) {
			return true
		}
	}
	return false
}

// CustomerDetail joins a customer with its assigned devices and CRM notes.
// Notes without an admin name are labelled from the admin sheet.
func (s *Service) CustomerDetail(ctx context.Context, id int64) (CustomerDetail, error) {
	snap := s.Snapshot()
	customer, ok := snap.Customer(id)
	if !ok {
		return CustomerDetail{}, fmt.Errorf("customer %d: %w", id, ErrNotFound)
	}
	detail := CustomerDetail{
		Customer: customer,
		Devices:  snap.DevicesFor(id),
		Notes:    []models.CustomerNote{},
		Seen:     s.store.IsSeen(models.KindCustomer, id),
	}
	if s.notes == nil {
		return detail, nil
	}
	notes := s.notes.FetchNotes(ctx, id)
	detail.Notes = notes.Data
	detail.NotesSynthetic = notes.IsSynthetic
	s.labelNotes(ctx, detail.Notes)
	sort.SliceStable(detail.Notes, func(i, j int) bool {
		return noteTime(detail.Notes[i]).After(noteTime(detail.Notes[j]))
	})
	return detail, nil
}

func (s *Service) labelNotes(ctx context.Context, notes []models.CustomerNote) {
	missing := false
	for _, n := range notes {
		if n.AdminName == "" {
			missing = true
			break
		}
	}
	if !missing || s.sheets == nil {
		return
	}
	names := make(map[int64]string)
	for _, a := range s.sheets.FetchAdmins(ctx).Data {
		names[a.AdminID] = a.Name
	}
	for i := range notes {
		if notes[i].AdminName != "" {
			continue
		}
		if name, ok := names[notes[i].AdminID]; ok {
			notes[i].AdminName = name
		} else {
			notes[i].AdminName = fmt.Sprintf("Admin %d", notes[i].AdminID)
		}
	}
}

func noteTime(n models.CustomerNote) time.Time {
	if n.DateCreated == nil {
		return time.Time{}
	}
	return *n.DateCreated
}

// SubmitNote posts a customer note in the operator's name.
func (s *Service) SubmitNote(ctx context.Context, admin models.AdminUser, customerID int64, text string) error {
	if _, ok := s.Snapshot().Customer(customerID); !ok {
		return fmt.Errorf("customer %d: %w", customerID, ErrNotFound)
	}
	if s.notes == nil {
		return sources.ErrUnavailable
	}
	return s.notes.SubmitNote(ctx, sources.NoteInput{
		CustomerID: customerID,
		AdminID:    admin.AdminID,
		AdminName:  admin.Name,
		Comment:    text,
		At:         time.Now(),
	})
}

// LeadDetail returns a lead with its comment history and the template list.
func (s *Service) LeadDetail(ctx context.Context, id int64) (LeadDetail, error) {
	snap := s.Snapshot()
	lead, ok := snap.Lead(id)
	if !ok {
		return LeadDetail{}, fmt.Errorf("lead %d: %w", id, ErrNotFound)
	}
	return LeadDetail{
		Lead:      lead,
		Comments:  s.LeadComments(ctx, id),
		Templates: s.Templates(),
		Seen:      s.store.IsSeen(models.KindLead, id),
	}, nil
}

// LeadComments reads the comment history from the database and falls back
// to the comments sheet when the database cannot serve it.
func (s *Service) LeadComments(ctx context.Context, leadID int64) []models.Comment {
	if s.admins != nil {
		comments, err := s.admins.LeadComments(ctx, leadID)
		if err == nil {
			return comments
		}
		s.log.WithError(err).WithField("lead_id", leadID).Warn("reading lead comments from the database failed, using the sheet")
	}
	var all []models.Comment
	if s.sheets != nil {
		all = s.sheets.FetchComments(ctx).Data
	} else {
		all = s.Snapshot().Comments
	}
	out := make([]models.Comment, 0)
	for _, c := range all {
		if c.LeadID == leadID {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return commentTime(out[i]).After(commentTime(out[j]))
	})
	return out
}

func commentTime(c models.Comment) time.Time {
	if c.Date == nil {
		return time.Time{}
	}
	return *c.Date
}

// AddLeadComment stores a comment on a lead. The sheet copy is written as a
// mirror when the database accepted the comment and as the only copy when
// the database is not configured.
func (s *Service) AddLeadComment(ctx context.Context, admin models.AdminUser, leadID int64, text string, templateID *int64) (models.Comment, error) {
	lead, ok := s.Snapshot().Lead(leadID)
	if !ok {
		return models.Comment{}, fmt.Errorf("lead %d: %w", leadID, ErrNotFound)
	}
	now := time.Now().UTC()
	comment := models.Comment{
		AdminID:    admin.AdminID,
		AdminName:  admin.Name,
		LeadID:     lead.ID,
		LeadName:   lead.Name,
		Text:       text,
		Date:       &now,
		TemplateID: templateID,
	}

	stored := false
	if s.admins != nil {
		saved, err := s.admins.AddLeadComment(ctx, comment)
		switch {
		case err == nil:
			comment = saved
			stored = true
		case !isUnavailable(err):
			return models.Comment{}, err
		}
	}
	if s.sheets == nil {
		if !stored {
			return models.Comment{}, sources.ErrUnavailable
		}
		return comment, nil
	}

	in := sources.CommentInput{
		ID:         comment.ID,
		AdminID:    comment.AdminID,
		AdminName:  comment.AdminName,
		LeadID:     comment.LeadID,
		LeadName:   comment.LeadName,
		Comment:    comment.Text,
		Date:       *comment.Date,
		TemplateID: comment.TemplateID,
	}
	if in.ID == 0 {
		in.ID = now.UnixMilli()
		comment.ID = in.ID
	}
	if err := s.sheets.AppendComment(ctx, in); err != nil {
		if !stored {
			return models.Comment{}, err
		}
		s.log.WithError(err).WithField("lead_id", leadID).Error("mirroring lead comment to the sheet failed")
	}
	return comment, nil
}

// Templates are the canned comment texts from the last refresh.
func (s *Service) Templates() []models.Template {
	snap := s.Snapshot()
	out := make([]models.Template, len(snap.Templates))
	copy(out, snap.Templates)
	return out
}

// Deliveries reads the field delivery log.
func (s *Service) Deliveries(ctx context.Context) sources.Result[models.Delivery] {
	if s.sheets == nil {
		return sources.Result[models.Delivery]{Data: []models.Delivery{}}
	}
	return s.sheets.FetchDeliveries(ctx)
}
