package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/spec-kit/tecnico-console/internal/domain"
	"github.com/spec-kit/tecnico-console/internal/service"
	apperrors "github.com/spec-kit/tecnico-console/pkg/util/errorutil"
)

var (
	listQuery     string
	claimTeam     []int
	stateNote     string
	stateEvidence []string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the tickets of the scope",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context(), "", logToFile)
		if err != nil {
			return err
		}
		defer a.close()
		defer printNotifications(cmd, a.inbox)
		return printJSON(cmd.OutOrStdout(), a.console.SetQuery(listQuery))
	},
}

var showCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show one ticket with its notes and evidence",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseTicketID(args[0])
		if err != nil {
			return err
		}
		a, err := bootstrap(cmd.Context(), "", logToFile)
		if err != nil {
			return err
		}
		defer a.close()
		view, err := a.console.OpenDetail(cmd.Context(), id)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), view)
	},
}

var claimCmd = &cobra.Command{
	Use:   "claim ID",
	Short: "Claim an available ticket, optionally with co-assignees",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseTicketID(args[0])
		if err != nil {
			return err
		}
		a, err := bootstrap(cmd.Context(), domain.ScopeAvailable, logToFile)
		if err != nil {
			return err
		}
		defer a.close()
		defer printNotifications(cmd, a.inbox)

		if _, err := a.console.BeginAssignment(id); err != nil {
			return err
		}
		if len(claimTeam) > 0 {
			if _, err := a.console.ChooseMode(service.ModeTeam); err != nil {
				return err
			}
			if _, err := a.console.SetCoAssignees(claimTeam); err != nil {
				return err
			}
		}
		result, err := a.console.ConfirmAssignment(cmd.Context())
		if result.Claimed {
			if perr := printJSON(cmd.OutOrStdout(), result); perr != nil {
				return perr
			}
		}
		return err
	},
}

var stateCmd = &cobra.Command{
	Use:   "state ID STATE",
	Short: "Change the state of an assigned ticket",
	Long: `Change the state of an assigned ticket. STATE is one of IN_PROGRESS,
RESOLVED or CANCELLED (the helpdesk spellings are accepted too).
Resolving needs --note; up to three --evidence images are uploaded first.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseTicketID(args[0])
		if err != nil {
			return err
		}
		target, err := domain.ParseTicketState(args[1])
		if err != nil {
			return apperrors.NewValidationError(err.Error(), map[string]any{"field": "state"})
		}
		req := service.StateChange{TicketID: id, Target: target, Note: stateNote}
		if err := service.ValidateStateChange(req); err != nil {
			return err
		}

		files, closeAll, err := service.OpenEvidenceFiles(stateEvidence)
		defer closeAll()
		if err != nil {
			return err
		}
		req.Evidence = files

		a, err := bootstrap(cmd.Context(), domain.ScopeAssigned, logToFile)
		if err != nil {
			return err
		}
		defer a.close()
		defer printNotifications(cmd, a.inbox)

		result, err := a.console.ChangeState(cmd.Context(), req)
		if err == nil || result.EvidenceUploaded > 0 {
			if perr := printJSON(cmd.OutOrStdout(), result); perr != nil {
				return perr
			}
		}
		return err
	},
}

var noteCmd = &cobra.Command{
	Use:   "note ID TEXT",
	Short: "Add a note to an assigned ticket",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseTicketID(args[0])
		if err != nil {
			return err
		}
		a, err := bootstrap(cmd.Context(), domain.ScopeAssigned, logToFile)
		if err != nil {
			return err
		}
		defer a.close()
		defer printNotifications(cmd, a.inbox)
		return a.console.AddNote(cmd.Context(), id, args[1])
	},
}

var countsCmd = &cobra.Command{
	Use:   "counts",
	Short: "Show the ticket count of every scope",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context(), "", logToFile)
		if err != nil {
			return err
		}
		defer a.close()
		return printJSON(cmd.OutOrStdout(), a.console.Counters())
	},
}

func init() {
	listCmd.Flags().StringVar(&listQuery, "query", "", "case-insensitive filter on subject, requester and area")
	claimCmd.Flags().IntSliceVar(&claimTeam, "team", nil, "co-assignee technician ids")
	stateCmd.Flags().StringVar(&stateNote, "note", "", "justification note (required for RESOLVED)")
	stateCmd.Flags().StringArrayVar(&stateEvidence, "evidence", nil, "evidence image path (repeatable, at most 3 sent)")
}

func parseTicketID(raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError(fmt.Sprintf("invalid ticket id %q", raw), map[string]any{"field": "id"})
	}
	return id, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printNotifications writes the console's messages to stderr, one per line.
func printNotifications(cmd *cobra.Command, inbox *service.Inbox) {
	for _, n := range inbox.Drain() {
		if n.Level == service.LevelError {
			continue
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "[%s] %s\n", n.Level, n.Message)
	}
}
