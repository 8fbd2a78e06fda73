package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TicketStatus represents the lifecycle state of a ticket.
type TicketStatus string

const (
	TicketStatusActive  TicketStatus = "ACTIVE"
	TicketStatusInUse   TicketStatus = "IN_USE"
	TicketStatusUsed    TicketStatus = "USED"
	TicketStatusExpired TicketStatus = "EXPIRED"
)

// ScanDirection is the gate a ticket was scanned at.
type ScanDirection string

const (
	ScanDirectionEntry ScanDirection = "ENTRY"
	ScanDirectionExit  ScanDirection = "EXIT"
)

// Valid reports whether d is a known direction.
func (d ScanDirection) Valid() bool {
	return d == ScanDirectionEntry || d == ScanDirectionExit
}

// Next returns the status a ticket moves to when scanned in direction d.
// ENTRY is legal only from ACTIVE and EXIT only from IN_USE.
func (s TicketStatus) Next(d ScanDirection) (TicketStatus, bool) {
	switch {
	case d == ScanDirectionEntry && s == TicketStatusActive:
		return TicketStatusInUse, true
	case d == ScanDirectionExit && s == TicketStatusInUse:
		return TicketStatusUsed, true
	default:
		return s, false
	}
}

// Terminal reports whether no scan can move a ticket out of s.
func (s TicketStatus) Terminal() bool {
	return s == TicketStatusUsed || s == TicketStatusExpired
}

// Ticket is a purchased or offline-issued right to travel.
// Price, Path and LinesUsed are fixed at creation.
type Ticket struct {
	ID                   string
	PassengerID          string
	SourceStationID      string
	DestinationStationID string
	Price                decimal.Decimal
	Status               TicketStatus
	Path                 []string // station codes, source first
	LinesUsed            []string // line names, in order of first use
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// PathRepr renders the path as "S1-S2-S3".
func (t *Ticket) PathRepr() string {
	return strings.Join(t.Path, "-")
}

// LinesUsedRepr renders the lines as "Red Line, Blue Line".
func (t *Ticket) LinesUsedRepr() string {
	return strings.Join(t.LinesUsed, ", ")
}

// TicketScan is an append-only audit record of a gate scan.
type TicketScan struct {
	ID        string
	TicketID  string
	StationID string
	Direction ScanDirection
	ScannedBy string
	ScannedAt time.Time
}
