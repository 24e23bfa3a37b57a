package main

import (
	"github.com/spf13/cobra"
)

var scopeFlag string

var rootCmd = &cobra.Command{
	Use:   "tecnico",
	Short: "Technician console for the helpdesk",
	Long: `Technician console for the helpdesk ticket lifecycle.

Claim available tickets alone or with co-assignees, move assigned tickets
through their states with a justification note and evidence images, and
keep per-scope ticket counters. The same console is served as a local JSON
API (serve), a terminal UI (tui) and one-shot commands.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&scopeFlag, "scope", "", "ticket scope: available, assigned or history (default CONSOLE_SCOPE)")

	rootCmd.AddCommand(serveCmd, tuiCmd, listCmd, showCmd, claimCmd, stateCmd, noteCmd, countsCmd, hashPasswordCmd)
}
