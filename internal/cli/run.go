package cli

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/forPelevin/pdfnarrate/internal/logger"
	"github.com/forPelevin/pdfnarrate/internal/pipeline"
)

func run(cmd *cobra.Command, pdfPath string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	log, err := logger.Init(logger.Config{Level: s.Log.Level, Format: s.Log.Format})
	if err != nil {
		return err
	}

	absPDF, err := filepath.Abs(pdfPath)
	if err != nil {
		return err
	}
	cfg := s.pipelineConfig(absPDF)
	cfg.Logger = log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := pipeline.Run(ctx, cfg)
	if err != nil {
		return err
	}
	printSummary(cmd.OutOrStdout(), res)
	return nil
}
