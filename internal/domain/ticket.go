package domain

import (
	"fmt"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in-progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
)

// Valid reports whether the status is part of the closed domain.
// There is no workflow ordering between statuses: any valid value may
// replace any other, including reopening a closed ticket.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// TicketPriority enumerates urgency levels.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
)

// Valid reports whether the priority is part of the closed domain.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh:
		return true
	}
	return false
}

// TicketCategory enumerates the supported request categories.
type TicketCategory string

const (
	CategoryTechnicalIssue TicketCategory = "Technical Issue"
	CategoryBilling        TicketCategory = "Billing"
	CategoryFeatureRequest TicketCategory = "Feature Request"
	CategoryAuthentication TicketCategory = "Authentication"
	CategoryOther          TicketCategory = "Other"
)

// Valid reports whether the category is part of the closed domain.
func (c TicketCategory) Valid() bool {
	switch c {
	case CategoryTechnicalIssue, CategoryBilling, CategoryFeatureRequest, CategoryAuthentication, CategoryOther:
		return true
	}
	return false
}

// FormatTicketCode renders the human-facing ticket code for a sequence
// number: zero-padded to three digits, growing unpadded beyond 999.
func FormatTicketCode(n int64) string {
	return fmt.Sprintf("TKT-%03d", n)
}

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID          string
	Code        string // human-facing code (TKT-001), assigned once, immutable
	Title       string
	Description string
	Category    TicketCategory
	Priority    TicketPriority
	Status      TicketStatus
	CreatedBy   UserRef
	AssignedTo  *UserRef
	Comments    []Comment
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Comment is an append-only entry in a ticket's thread. Comments are
// never edited or removed; a ticket's comments are deleted with it.
type Comment struct {
	ID        string
	TicketID  string
	User      UserRef
	Message   string
	CreatedAt time.Time
}
