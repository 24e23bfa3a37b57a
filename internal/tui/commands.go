package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/spec-kit/tecnico-console/internal/domain"
	"github.com/spec-kit/tecnico-console/internal/service"
)

type refreshedMsg struct {
	err error
}

type detailLoadedMsg struct {
	view *service.DetailView
	err  error
}

type assignmentDoneMsg struct {
	result service.AssignmentResult
	err    error
}

type stateChangedMsg struct {
	result service.StateChangeResult
	err    error
}

// refreshCmd reloads the list and the counters in parallel.
func refreshCmd(ctx context.Context, console Console) tea.Cmd {
	return func() tea.Msg {
		var g errgroup.Group
		g.Go(func() error { return console.Reload(ctx) })
		g.Go(func() error {
			_, _ = console.RefreshCounts(ctx)
			return nil
		})
		return refreshedMsg{err: g.Wait()}
	}
}

func openDetailCmd(ctx context.Context, console Console, id int) tea.Cmd {
	return func() tea.Msg {
		view, err := console.OpenDetail(ctx, id)
		return detailLoadedMsg{view: view, err: err}
	}
}

func confirmAssignmentCmd(ctx context.Context, console Console) tea.Cmd {
	return func() tea.Msg {
		result, err := console.ConfirmAssignment(ctx)
		return assignmentDoneMsg{result: result, err: err}
	}
}

// changeStateCmd opens the evidence files only when they will be sent.
func changeStateCmd(ctx context.Context, console Console, req service.StateChange, paths []string) tea.Cmd {
	return func() tea.Msg {
		if req.Target == domain.StateResolved && len(paths) > 0 && service.ValidateStateChange(req) == nil {
			files, closeAll, err := service.OpenEvidenceFiles(paths)
			defer closeAll()
			if err != nil {
				return stateChangedMsg{result: service.StateChangeResult{TicketID: req.TicketID}, err: err}
			}
			req.Evidence = files
		}
		result, err := console.ChangeState(ctx, req)
		return stateChangedMsg{result: result, err: err}
	}
}

// splitPaths parses the comma separated evidence input.
func splitPaths(raw string) []string {
	var paths []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}
