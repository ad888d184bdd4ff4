package domain

import "time"

// Attachment stores file metadata for a ticket upload. The backing blob lives
// in the file store under StoragePath.
type Attachment struct {
	ID           string
	TicketID     string
	UploadedBy   string
	FileName     string
	OriginalName string
	MimeType     string
	SizeBytes    int64
	StoragePath  string
	CreatedAt    time.Time
}
