package models

// Billing is the CRM billing row for a customer. It only lives long enough
// to be merged into the Customer with the same id.
type Billing struct {
	ID         int64    `json:"id"`
	CustomerID int64    `json:"customer_id"`
	Balance    *float64 `json:"balance,omitempty"`
	TariffID   *int64   `json:"tariff_id,omitempty"`
}

// InventoryItem is a piece of CPE stock, assigned to a customer or still on the shelf.
type InventoryItem struct {
	ID           int64    `json:"id"`
	Description  string   `json:"description"`
	MACAddress   string   `json:"mac_address,omitempty"`
	SerialNumber string   `json:"serial_number,omitempty"`
	CustomerID   *int64   `json:"customer_id,omitempty"`
	Status       string   `json:"status,omitempty"`
	Price        *float64 `json:"price,omitempty"`
}

// AssignedTo reports whether the item is installed at the given customer.
func (i InventoryItem) AssignedTo(customerID int64) bool {
	return i.CustomerID != nil && *i.CustomerID == customerID
}
