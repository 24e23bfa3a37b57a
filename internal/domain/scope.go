package domain

import (
	"fmt"
	"strings"
)

// Scope names the ticket subset a technician view operates on.
type Scope string

const (
	ScopeAvailable Scope = "available"
	ScopeAssigned  Scope = "assigned"
	ScopeHistory   Scope = "history"
)

// Scopes returns every scope in display order.
func Scopes() []Scope {
	return []Scope{ScopeAvailable, ScopeAssigned, ScopeHistory}
}

// Wire returns the helpdesk query value for the scope.
func (s Scope) Wire() string {
	switch s {
	case ScopeAvailable:
		return "disponibles"
	case ScopeAssigned:
		return "asignados"
	case ScopeHistory:
		return "historial"
	}
	return string(s)
}

// ParseScope accepts either the console or the helpdesk spelling.
func ParseScope(raw string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "available", "disponibles":
		return ScopeAvailable, nil
	case "assigned", "asignados":
		return ScopeAssigned, nil
	case "history", "historial":
		return ScopeHistory, nil
	}
	return "", fmt.Errorf("unknown scope %q", raw)
}
