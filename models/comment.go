package models

import "time"

// Comment is a note an admin left on a lead, optionally tagged with a template.
type Comment struct {
	ID         int64      `json:"id"`
	AdminID    int64      `json:"admin_id"`
	AdminName  string     `json:"admin_name"`
	LeadID     int64      `json:"lead_id"`
	LeadName   string     `json:"lead_name,omitempty"`
	Text       string     `json:"comment"`
	Date       *time.Time `json:"date,omitempty"`
	TemplateID *int64     `json:"template_id,omitempty"`
}

// Template is a canned comment text admins pick from.
type Template struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
}

// CustomerNote is a CRM note attached to a customer account.
type CustomerNote struct {
	ID          int64      `json:"id"`
	CustomerID  int64      `json:"customer_id"`
	AdminID     int64      `json:"admin_id"`
	AdminName   string     `json:"admin_name,omitempty"`
	Note        string     `json:"note"`
	DateCreated *time.Time `json:"date_created,omitempty"`
}

// Delivery is a router/SIM hand-over logged by field agents in the delivery sheet.
type Delivery struct {
	Time          string `json:"time"`
	CustomerID    string `json:"customer_id"`
	Name          string `json:"name"`
	RouterBarcode string `json:"router_barcode"`
	SIMBarcode    string `json:"sim_barcode"`
	Agent         string `json:"agent"`
}
