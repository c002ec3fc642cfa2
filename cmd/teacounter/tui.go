package main

import (
	"errors"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"TeaCounter/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Run the counter in the terminal",
	Args:  cobra.NoArgs,
	RunE:  runTUI,
}

func runTUI(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM)
	defer stop()

	r := tui.NewRenderer()
	c, err := openCounter(ctx, cfg, logger, r, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err := c.Close(); err != nil {
			logger.Warn("close storage", zap.Error(err))
		}
	}()

	err = tui.Run(ctx, c.ctl, r, logger)
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}
