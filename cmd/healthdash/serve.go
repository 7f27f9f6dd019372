package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/healthdash/internal/config"
	"github.com/verte-zerg/healthdash/internal/health"
	"github.com/verte-zerg/healthdash/internal/insights"
	"github.com/verte-zerg/healthdash/internal/server"
)

var (
	serveAddr        string
	serveUploadDir   string
	serveHistoryDays int
	serveModel       string
	serveMaxTokens   int
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", defaultAddr, "listen address")
	cmd.Flags().StringVar(&serveUploadDir, "upload-dir", "", "directory for uploaded files")
	cmd.Flags().IntVar(&serveHistoryDays, "history-days", health.DefaultHistoryLimit, "days of history to keep per upload")
	cmd.Flags().StringVar(&serveModel, "model", insights.DefaultModel, "Claude model for /api/insights?ai=1")
	cmd.Flags().IntVar(&serveMaxTokens, "max-tokens", insights.DefaultMaxTokens, "max tokens for AI commentary")
	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadSettings()
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "addr", &serveAddr, fileCfg.Server.Addr)
	applyStringConfig(cmd, "upload-dir", &serveUploadDir, fileCfg.Server.UploadDir)
	applyIntConfig(cmd, "history-days", &serveHistoryDays, fileCfg.Ingest.HistoryDays)
	if serveUploadDir == "" {
		serveUploadDir = config.DefaultUploadDir()
	}
	if serveHistoryDays <= 0 {
		return fmt.Errorf("--history-days must be > 0")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cmd, fileCfg)
	if err != nil {
		return err
	}
	defer closeStore(st)

	srvCfg := server.Config{
		UploadDir:   serveUploadDir,
		HistoryDays: serveHistoryDays,
		AccessLog:   os.Stdout,
	}
	commentator, err := newCommentator(cmd, fileCfg, &serveModel, &serveMaxTokens)
	switch {
	case errors.Is(err, insights.ErrMissingAPIKey):
		logger.Info("AI commentary and report analysis disabled; set ANTHROPIC_API_KEY to enable them")
	case err != nil:
		return fmt.Errorf("failed to configure commentary: %w", err)
	default:
		srvCfg.Commentator = commentator
	}

	srv := server.New(st, srvCfg, logger, server.NewMetrics())
	logger.Info("starting server", "addr", serveAddr, "upload_dir", serveUploadDir)
	return srv.ListenAndServe(ctx, serveAddr)
}
