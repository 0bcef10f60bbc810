package domain

import (
	"strings"
	"time"
)

// TicketStatus enumerates lifecycle states for work-order tickets.
type TicketStatus string

const (
	TicketStatusOpen    TicketStatus = "Open"
	TicketStatusActive  TicketStatus = "Active"
	TicketStatusPending TicketStatus = "Pending"
	TicketStatusDone    TicketStatus = "Done"
)

// CreatedAtLayout is the timestamp format persisted to the worksheet. Its
// lexicographic order matches chronological order, which the collection
// signature relies on.
const CreatedAtLayout = "2006-01-02 15:04:05"

// MonthLayout buckets tickets for payout reporting.
const MonthLayout = "2006-01"

// MaxPartners caps teammates added at claim time.
const MaxPartners = 3

// Ticket is the aggregate for dispatched work orders.
type Ticket struct {
	ID          string
	Title       string
	QuoteNo     string
	Description string
	Category    string
	Value       int
	Status      TicketStatus
	WorkerID    string
	PartnerIDs  []string
	CreatedAt   time.Time
}

// Team returns the accountable worker followed by partners. Empty entries
// are dropped so a blank worker cell never counts as a member.
func (t *Ticket) Team() []string {
	team := make([]string, 0, 1+len(t.PartnerIDs))
	if t.WorkerID != "" {
		team = append(team, t.WorkerID)
	}
	for _, p := range t.PartnerIDs {
		if p != "" {
			team = append(team, p)
		}
	}
	return team
}

// HasMember reports whether name is the primary worker or a partner.
func (t *Ticket) HasMember(name string) bool {
	if name == "" {
		return false
	}
	if t.WorkerID == name {
		return true
	}
	for _, p := range t.PartnerIDs {
		if p == name {
			return true
		}
	}
	return false
}

// CreatedMonth returns the YYYY-MM reporting bucket.
func (t *Ticket) CreatedMonth() string {
	return t.CreatedAt.Format(MonthLayout)
}

// SplitPartnerIDs parses the comma-joined partner cell value.
func SplitPartnerIDs(cell string) []string {
	if strings.TrimSpace(cell) == "" {
		return nil
	}
	parts := strings.Split(cell, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// JoinPartnerIDs renders partners for the worksheet cell.
func JoinPartnerIDs(partners []string) string {
	out := make([]string, 0, len(partners))
	for _, p := range partners {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ",")
}
