package normalize

import (
	"resellerdash/models"
)

// Customer maps a CRM customer object.
func Customer(raw Record) models.Customer {
	rawStatus := String(raw["status"])
	return models.Customer{
		ID:        idOf(raw),
		Name:      String(raw["name"]),
		Email:     String(raw["email"]),
		Phone:     String(raw["phone"]),
		Login:     String(raw["login"]),
		Status:    CustomerStatus(rawStatus),
		RawStatus: rawStatus,
		TariffID:  int64Ptr(raw["tariff_id"]),
		Balance:   floatPtr(raw["balance"]),
		Street1:   String(raw["street_1"]),
		City:      String(raw["city"]),
		GPS:       String(raw["gps"]),
		PartnerID: int64Ptr(raw["partner_id"]),
		AddedBy:   String(raw["added_by"]),
		AddedByID: int64Ptr(raw["added_by_id"]),
		DateAdded: Time(raw["date_add"]),
		CreatedAt: Time(raw["created_at"]),
	}
}

// Lead maps a CRM lead object. infoCode is the crm_status published by the
// leads-info resource for this lead, when known; it outranks anything on the
// record itself.
func Lead(raw Record, infoCode *int64) models.Lead {
	code := infoCode
	if code == nil {
		code = int64Ptr(first(raw, "crm_status", "status_id"))
	}
	return models.Lead{
		ID:        idOf(raw),
		Name:      String(raw["name"]),
		Email:     String(raw["email"]),
		Phone:     String(raw["phone"]),
		Address:   String(first(raw, "address", "street_1")),
		Street1:   String(raw["street_1"]),
		Type:      String(raw["type"]),
		Status:    LeadStatus(code, String(raw["status"])),
		GPS:       String(raw["gps"]),
		PartnerID: int64Ptr(raw["partner_id"]),
		AddedBy:   String(raw["added_by"]),
		AddedByID: int64Ptr(raw["added_by_id"]),
		DateAdded: Time(raw["date_add"]),
		CreatedAt: Time(raw["created_at"]),
	}
}

// LeadInfoCode extracts (lead id, crm_status) from a leads-info row. The
// resource keys the lead id as customer_id.
func LeadInfoCode(raw Record) (int64, int64, bool) {
	id, ok := Int64(first(raw, "customer_id", "lead_id", "id"))
	if !ok {
		return 0, 0, false
	}
	code, ok := Int64(raw["crm_status"])
	if !ok {
		return 0, 0, false
	}
	return id, code, true
}

// Billing maps a customer-billing row.
func Billing(raw Record) models.Billing {
	customerID, _ := Int64(raw["customer_id"])
	return models.Billing{
		ID:         idOf(raw),
		CustomerID: customerID,
		Balance:    floatPtr(raw["balance"]),
		TariffID:   int64Ptr(raw["tariff_id"]),
	}
}

// InventoryItem maps an inventory item. A customer_id of 0 means unassigned stock.
func InventoryItem(raw Record) models.InventoryItem {
	customerID := int64Ptr(raw["customer_id"])
	if customerID != nil && *customerID == 0 {
		customerID = nil
	}
	return models.InventoryItem{
		ID:           idOf(raw),
		Description:  String(first(raw, "description", "name")),
		MACAddress:   String(raw["mac_address"]),
		SerialNumber: String(first(raw, "serial_number", "barcode")),
		CustomerID:   customerID,
		Status:       String(raw["status"]),
		Price:        floatPtr(raw["price"]),
	}
}

// CustomerNote maps a customer-notes row. The CRM uses slash-prefixed keys on
// some endpoints and plain keys on others.
func CustomerNote(raw Record, fallbackCustomerID int64) models.CustomerNote {
	customerID, ok := Int64(first(raw, "/customer_id", "customer_id"))
	if !ok {
		customerID = fallbackCustomerID
	}
	adminID, _ := Int64(first(raw, "/administrator_id", "admin_id", "administrator_id"))
	return models.CustomerNote{
		ID:          idOf(raw),
		CustomerID:  customerID,
		AdminID:     adminID,
		AdminName:   String(first(raw, "name", "admin_name")),
		Note:        String(first(raw, "/comment", "comment", "note")),
		DateCreated: Time(first(raw, "/datetime", "datetime", "date_created", "date")),
	}
}

// Comment maps a row of the Comments sheet.
func Comment(row Record) models.Comment {
	adminID, _ := Int64(row["admin_id"])
	leadID, _ := Int64(row["lead_id"])
	return models.Comment{
		ID:         idOf(row),
		AdminID:    adminID,
		AdminName:  String(first(row, "admin_Name", "admin_name")),
		LeadID:     leadID,
		LeadName:   String(row["lead_name"]),
		Text:       String(row["comment"]),
		Date:       Time(row["date"]),
		TemplateID: int64Ptr(row["template_id"]),
	}
}

// Template maps a row of the Templates sheet.
func Template(row Record) models.Template {
	return models.Template{
		ID:   idOf(row),
		Text: String(first(row, "Template", "template", "text")),
	}
}

// AdminUser maps a row of the Admin sheet. Credentials are never carried over.
func AdminUser(row Record) models.AdminUser {
	adminID, _ := Int64(first(row, "admin_id", "id"))
	role := models.RoleAdmin
	if String(row["role"]) == string(models.RoleViewer) {
		role = models.RoleViewer
	}
	return models.AdminUser{
		ID:       adminID,
		AdminID:  adminID,
		Name:     String(row["name"]),
		Username: String(row["username"]),
		Role:     role,
	}
}

// Delivery maps a row of the delivery sheet.
func Delivery(row Record) models.Delivery {
	return models.Delivery{
		Time:          String(row["Time"]),
		CustomerID:    String(row["Customer ID"]),
		Name:          String(row["Name"]),
		RouterBarcode: String(row["Router Barcode"]),
		SIMBarcode:    String(row["SIM Barcode"]),
		Agent:         String(row["Agent"]),
	}
}

func idOf(raw Record) int64 {
	id, _ := Int64(raw["id"])
	return id
}
