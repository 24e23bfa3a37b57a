package tui

import "github.com/charmbracelet/lipgloss"

// Theme defines the colors of the console. All colors use lipgloss ANSI
// 256-color codes.
type Theme struct {
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color

	StatePending    lipgloss.Color
	StateInProgress lipgloss.Color
	StateResolved   lipgloss.Color
	StateCancelled  lipgloss.Color

	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color
	HelpText         lipgloss.Color

	ToastSuccess lipgloss.Color
	ToastInfo    lipgloss.Color
	ToastError   lipgloss.Color
}

// DefaultTheme is the built-in palette.
var DefaultTheme = Theme{
	NormalText:         lipgloss.Color("252"),
	FaintText:          lipgloss.Color("243"),
	SelectedBackground: lipgloss.Color("237"),
	SelectedForeground: lipgloss.Color("231"),
	StatePending:       lipgloss.Color("214"),
	StateInProgress:    lipgloss.Color("39"),
	StateResolved:      lipgloss.Color("76"),
	StateCancelled:     lipgloss.Color("245"),
	HeaderForeground:   lipgloss.Color("111"),
	BorderColor:        lipgloss.Color("240"),
	HelpText:           lipgloss.Color("241"),
	ToastSuccess:       lipgloss.Color("76"),
	ToastInfo:          lipgloss.Color("39"),
	ToastError:         lipgloss.Color("196"),
}

func (theme Theme) stateColor(state string) lipgloss.Color {
	switch state {
	case "PENDING":
		return theme.StatePending
	case "IN_PROGRESS":
		return theme.StateInProgress
	case "RESOLVED":
		return theme.StateResolved
	case "CANCELLED":
		return theme.StateCancelled
	}
	return theme.NormalText
}
