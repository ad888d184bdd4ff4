package domain

import "time"

// Comment belongs to exactly one ticket and one authoring actor. Comments are
// created only, never mutated; deletion cascades with the parent ticket.
type Comment struct {
	ID        string
	TicketID  string
	AuthorID  string
	Content   string
	CreatedAt time.Time
}
