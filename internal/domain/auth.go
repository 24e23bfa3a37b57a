package domain

import "time"

// SubjectType differentiates console token holders.
type SubjectType string

const (
	// SubjectTypeTechnician is the technician whose helpdesk session backs the console.
	SubjectTypeTechnician SubjectType = "TECHNICIAN"
)

// Token represents an issued console access token.
type Token struct {
	Value     string
	SubjectID string
	Subject   SubjectType
	Role      string
	ExpiresAt time.Time
	IssuedAt  time.Time
}
