package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"TeaCounter/internal/register"
	"TeaCounter/internal/view"
)

var showPlain bool

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored catalog and the current order",
	Args:  cobra.NoArgs,
	RunE:  runShow,
}

func init() {
	showCmd.Flags().BoolVar(&showPlain, "plain", false, "Print markdown without terminal styling")
}

func runShow(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	kv, store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := kv.Close(); err != nil {
			logger.Warn("close storage", zap.Error(err))
		}
	}()

	cat := loadCatalog(ctx, store, logger)
	s := register.Screen{Entries: cat.Entries()}
	out := cmd.OutOrStdout()

	if showPlain {
		_, err = fmt.Fprint(out, view.ReceiptMarkdown(s, cat.Total()))
		return err
	}

	fmt.Fprint(out, view.Text(s, view.DefaultStyles(), -1))
	receipt, err := view.Receipt(s, cat.Total(), 80)
	if err != nil {
		logger.Warn("render receipt failed", zap.Error(err))
	}
	_, err = fmt.Fprint(out, receipt)
	return err
}
