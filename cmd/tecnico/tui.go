package main

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/spec-kit/tecnico-console/internal/tui"
	"github.com/spec-kit/tecnico-console/internal/worker"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Run the terminal console",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		// The screen belongs to the UI, so logs go to LOG_FILE.
		a, err := bootstrap(ctx, "", logToFile)
		if err != nil {
			return err
		}
		defer a.close()

		go worker.RunCounterRefresh(ctx, a.console, a.cfg.Counters.RefreshInterval(), a.logger)

		program := tea.NewProgram(tui.NewModel(ctx, a.console, a.inbox), tea.WithAltScreen(), tea.WithContext(ctx))
		_, err = program.Run()
		return err
	},
}
