package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

// ValidTicketStatus reports whether the value is a known status.
func ValidTicketStatus(s TicketStatus) bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusClosed:
		return true
	}
	return false
}

// TicketPriority enumerates urgency levels.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
)

// ValidTicketPriority reports whether the value is a known priority.
func ValidTicketPriority(p TicketPriority) bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh:
		return true
	}
	return false
}

// Ticket is the aggregate for support requests. The creator owns the ticket;
// the assignee is a secondary relation, not ownership.
type Ticket struct {
	ID          string
	CreatedBy   string
	AssignedTo  *string
	Title       string
	Description string
	Category    string
	Status      TicketStatus
	Priority    TicketPriority
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsOwner reports whether the actor created the ticket.
func (t *Ticket) IsOwner(actorID string) bool {
	return t.CreatedBy == actorID
}

// IsAssignee reports whether the actor is the current assignee.
func (t *Ticket) IsAssignee(actorID string) bool {
	return t.AssignedTo != nil && *t.AssignedTo == actorID
}
