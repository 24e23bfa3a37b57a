package domain

import (
	"io"
	"time"
)

// Note is an append-only entry in a ticket's history.
type Note struct {
	ID        int
	Author    string
	CreatedAt time.Time
	Text      string
}

// Attachment is an evidence file stored by the helpdesk.
type Attachment struct {
	ID   int
	Name string
	URL  string
}

// EvidenceFile is an image selected for upload with a resolution.
type EvidenceFile struct {
	Name        string
	ContentType string
	Content     io.Reader
}
