package domain

// Station is a node in the metro network.
// Stations are immutable once created.
type Station struct {
	ID   string
	Code string
	Name string
}

// MetroLine is a named route grouping connections.
type MetroLine struct {
	ID                  string
	Code                string
	Name                string
	IsActive            bool
	AllowTicketPurchase bool
}

// Purchasable reports whether tickets may be sold while this line is up.
func (l *MetroLine) Purchasable() bool {
	return l.IsActive && l.AllowTicketPurchase
}

// Connection is an edge between two stations belonging to one line.
// Connections are stored directed but traversed in both directions.
type Connection struct {
	ID            string
	LineID        string
	FromStationID string
	ToStationID   string
}
