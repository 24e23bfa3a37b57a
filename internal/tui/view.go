package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/spec-kit/tecnico-console/internal/service"
)

// View implements tea.Model.
func (model Model) View() string {
	var b strings.Builder
	b.WriteString(model.renderHeader())
	b.WriteString("\n")
	if model.focus == focusFilter || model.filter.Value() != "" {
		b.WriteString(model.filter.View())
		b.WriteString("\n")
	}
	b.WriteString(model.renderList())

	switch model.focus {
	case focusDetail:
		b.WriteString(model.renderDetail())
	case focusAssign:
		b.WriteString(model.renderAssignment())
	case focusState:
		b.WriteString(model.renderStateDialog())
	case focusList, focusFilter:
	}

	b.WriteString("\n")
	b.WriteString(model.renderToast())
	b.WriteString(model.renderHelp())
	return b.String()
}

func (model Model) renderHeader() string {
	style := lipgloss.NewStyle().Bold(true).Foreground(model.theme.HeaderForeground)
	name := "technician"
	if identity := model.console.Identity(); identity != nil {
		name = identity.DisplayName()
	}
	parts := make([]string, 0, len(model.counters))
	for _, counter := range model.counters {
		parts = append(parts, formatCounter(counter, counter.Scope == model.console.Scope()))
	}
	header := fmt.Sprintf("%s  %s", name, strings.Join(parts, "  "))
	if model.loading {
		header += "  …"
	}
	return style.Render(header)
}

// formatCounter renders "?" for a scope never counted and marks stale
// values with an asterisk.
func formatCounter(counter service.Counter, active bool) string {
	value := "?"
	if counter.Known {
		value = fmt.Sprintf("%d", counter.Count)
	}
	if counter.Stale {
		value += "*"
	}
	label := fmt.Sprintf("%s %s", counter.Scope, value)
	if active {
		label = "[" + label + "]"
	}
	return label
}

func (model Model) renderList() string {
	if len(model.tickets) == 0 {
		return lipgloss.NewStyle().Foreground(model.theme.FaintText).Render("no tickets") + "\n"
	}
	selected := lipgloss.NewStyle().
		Background(model.theme.SelectedBackground).
		Foreground(model.theme.SelectedForeground)
	var b strings.Builder
	for i, t := range model.tickets {
		state := lipgloss.NewStyle().Foreground(model.theme.stateColor(string(t.State))).Render(fmt.Sprintf("%-11s", t.State))
		row := fmt.Sprintf("#%-5d %s %-32s %-16s %s", t.ID, state, truncate(t.Subject, 32), truncate(t.RequesterName, 16), t.Area)
		if i == model.cursor && model.focus == focusList {
			row = selected.Render(row)
		}
		b.WriteString(row)
		b.WriteString("\n")
	}
	return b.String()
}

func (model Model) dialogStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(model.theme.BorderColor).
		Padding(0, 1)
}

func (model Model) renderDetail() string {
	view := model.detail
	if view == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "#%d %s  [%s]\n", view.ID, view.Subject, view.State)
	fmt.Fprintf(&b, "requester: %s   area: %s   assignees: %s\n", view.Requester, view.Area, view.Assignees)
	if !view.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "created: %s\n", view.CreatedAt.Format("2006-01-02 15:04"))
	}
	if view.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", view.Description)
	}
	if len(view.Notes) > 0 {
		b.WriteString("\nnotes:\n")
		for _, n := range view.Notes {
			fmt.Fprintf(&b, "  %s  %s: %s\n", n.CreatedAt.Format("01-02 15:04"), n.Author, n.Text)
		}
	}
	if len(view.Evidence) > 0 {
		b.WriteString("\nevidence:\n")
		for _, a := range view.Evidence {
			fmt.Fprintf(&b, "  %s  %s\n", a.Name, a.URL)
		}
	}
	var actions []string
	if view.CanClaim {
		actions = append(actions, "a claim")
	}
	if view.CanChangeState {
		actions = append(actions, "e change state")
	}
	actions = append(actions, "esc close")
	b.WriteString("\n" + strings.Join(actions, " · "))
	return model.dialogStyle().Render(b.String()) + "\n"
}

func (model Model) renderAssignment() string {
	state := model.assign
	var b strings.Builder
	fmt.Fprintf(&b, "claim ticket #%d\n", state.TicketID)
	switch state.Phase {
	case service.PhaseConfirming:
		b.WriteString("confirming…\n")
	case service.PhaseChoosingMode, service.PhaseSolo:
		b.WriteString("s solo")
		if state.TeamEnabled {
			b.WriteString(" · t team")
		}
		b.WriteString("\n")
	case service.PhaseTeam:
		chosen := make(map[int]bool, len(state.Selected))
		for _, id := range state.Selected {
			chosen[id] = true
		}
		for i, t := range state.Candidates {
			mark := "[ ]"
			if chosen[t.ID] {
				mark = "[x]"
			}
			cursor := "  "
			if i == model.assignCursor {
				cursor = "> "
			}
			fmt.Fprintf(&b, "%s%s %s\n", cursor, mark, t.Username)
		}
	case service.PhaseClosed:
	}
	if state.Mode != "" {
		fmt.Fprintf(&b, "mode: %s\n", state.Mode)
	}
	b.WriteString("enter confirm · esc cancel")
	return model.dialogStyle().Render(b.String()) + "\n"
}

func (model Model) renderStateDialog() string {
	var b strings.Builder
	fmt.Fprintf(&b, "change state of #%d\n", model.state.ticketID)
	target := string(model.stateTarget())
	if model.state.field == fieldTarget {
		target = "< " + target + " >"
	}
	fmt.Fprintf(&b, "state: %s\n", target)
	b.WriteString(model.state.note.View() + "\n")
	b.WriteString(model.state.evidence.View() + "\n")
	if model.state.submitting {
		b.WriteString("submitting…\n")
	}
	b.WriteString("tab next field · ←/→ state · enter submit · esc cancel")
	return model.dialogStyle().Render(b.String()) + "\n"
}

func (model Model) renderToast() string {
	if model.toast == nil {
		return ""
	}
	color := model.theme.ToastInfo
	switch model.toast.Level {
	case service.LevelSuccess:
		color = model.theme.ToastSuccess
	case service.LevelError:
		color = model.theme.ToastError
	case service.LevelInfo:
	}
	text := model.toast.Message
	if model.toast.Code != "" && model.toast.Level == service.LevelError {
		text = fmt.Sprintf("%s (%s)", text, model.toast.Code)
	}
	return lipgloss.NewStyle().Foreground(color).Render(text) + "\n"
}

func (model Model) renderHelp() string {
	style := lipgloss.NewStyle().Foreground(model.theme.HelpText)
	return style.Render("j/k move · / filter · enter detail · a claim · e state · r reload · q quit")
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
