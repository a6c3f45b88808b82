package models

// Location is the approximate province bucket derived from GPS coordinates.
type Location string

const (
	LocationGauteng Location = "Gauteng"
	LocationLimpopo Location = "Limpopo"
	LocationOther   Location = "Other"
)

var Locations = []Location{LocationGauteng, LocationLimpopo, LocationOther}

// EntityKind names the record families that carry read marks.
type EntityKind string

const (
	KindCustomer EntityKind = "customer"
	KindLead     EntityKind = "lead"
)

var EntityKinds = []EntityKind{KindCustomer, KindLead}

// Valid reports whether k is one of the known kinds.
func (k EntityKind) Valid() bool {
	return k == KindCustomer || k == KindLead
}
