package domain

import "time"

// TicketMessage is one entry of a ticket's append-only reply thread.
// Internal notes are hidden from client views.
type TicketMessage struct {
	ID           string
	TicketID     string
	AuthorUserID string
	IsInternal   bool
	Body         string
	CreatedAt    time.Time
}

// AttachmentStatus tracks the two-phase attachment flow: a metadata row is
// written as pending before the blob upload and confirmed afterwards.
// Pending rows past their grace period are garbage-collected by a sweep.
type AttachmentStatus string

const (
	AttachmentStatusPending   AttachmentStatus = "pending"
	AttachmentStatusConfirmed AttachmentStatus = "confirmed"
)

// TicketAttachment is a metadata row pointing at an object-storage path.
type TicketAttachment struct {
	ID               string
	TicketID         string
	UploadedByUserID string
	StorageKey       string
	FileName         string
	MimeType         string
	SizeBytes        int64
	Status           AttachmentStatus
	CreatedAt        time.Time
}
