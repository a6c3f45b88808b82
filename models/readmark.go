package models

import "time"

// ReadMark records that an operator acknowledged a "new" record.
type ReadMark struct {
	Kind        EntityKind `json:"kind"`
	ID          int64      `json:"id"`
	DisplayName string     `json:"display_name,omitempty"`
}

// CustomerReadMark is the "Customers" read log, upserted by customer_id.
type CustomerReadMark struct {
	CustomerID   int64  `gorm:"column:customer_id;primaryKey;autoIncrement:false"`
	CustomerName string `gorm:"column:customer_name"`
	Read         bool   `gorm:"column:read;default:false"`
}

func (CustomerReadMark) TableName() string { return "Customers" }

// LeadReadMark is the "Leads" read log, upserted by lead_id.
type LeadReadMark struct {
	LeadID   int64  `gorm:"column:lead_id;primaryKey;autoIncrement:false"`
	LeadName string `gorm:"column:lead_name"`
	Read     bool   `gorm:"column:read;default:false"`
}

func (LeadReadMark) TableName() string { return "Leads" }

// LeadCommentRecord is the "Comments" table row.
type LeadCommentRecord struct {
	ID         int64     `gorm:"column:id;primaryKey;autoIncrement"`
	AdminID    int64     `gorm:"column:admin_id"`
	AdminName  string    `gorm:"column:admin_name"`
	LeadID     int64     `gorm:"column:lead_id;index"`
	LeadName   string    `gorm:"column:lead_name"`
	Comment    string    `gorm:"column:comment;type:text"`
	Date       time.Time `gorm:"column:date"`
	TemplateID *int64    `gorm:"column:template_id"`
}

func (LeadCommentRecord) TableName() string { return "Comments" }

// Canonical converts the stored row into the shared Comment shape.
func (r LeadCommentRecord) Canonical() Comment {
	date := r.Date
	return Comment{
		ID:         r.ID,
		AdminID:    r.AdminID,
		AdminName:  r.AdminName,
		LeadID:     r.LeadID,
		LeadName:   r.LeadName,
		Text:       r.Comment,
		Date:       &date,
		TemplateID: r.TemplateID,
	}
}
