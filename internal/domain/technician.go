package domain

// Technician is a candidate for team assignment.
type Technician struct {
	ID       int
	Username string
	Role     string
	Area     string
}

// Assignee is a technician currently attached to a ticket.
type Assignee struct {
	ID       int
	Username string
}

// Identity is the acting technician of the session.
type Identity struct {
	ID       int
	Username string
	Email    string
	Role     string
	AreaID   *int
	AreaName string
}

// DisplayName prefers the username, then the email.
func (i Identity) DisplayName() string {
	if i.Username != "" {
		return i.Username
	}
	if i.Email != "" {
		return i.Email
	}
	return "technician"
}
