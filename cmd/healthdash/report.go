package main

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/healthdash/internal/dashboard"
	"github.com/verte-zerg/healthdash/internal/model"
	"github.com/verte-zerg/healthdash/internal/stats"
)

var (
	reportSince  string
	reportLast   int
	reportWindow int
	reportMetric string
	reportDaily  bool
)

func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&reportSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&reportLast, "last", 0, "limit to last N days")
	cmd.Flags().IntVar(&reportWindow, "window", defaultWindow, "moving average window (days)")
	cmd.Flags().StringVar(&reportMetric, "metric", "", "metric key for the trend (e.g. stepCount, sleep)")
}

func reportConfig() (model.ReportConfig, error) {
	var sinceTime *time.Time
	if reportSince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", reportSince, time.Local)
		if err != nil {
			return model.ReportConfig{}, fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}
	if reportLast < 0 {
		return model.ReportConfig{}, fmt.Errorf("--last must be >= 0")
	}
	if reportWindow < 1 {
		return model.ReportConfig{}, fmt.Errorf("--window must be >= 1")
	}
	return model.ReportConfig{
		Since:  sinceTime,
		Last:   reportLast,
		Window: reportWindow,
		Metric: reportMetric,
	}, nil
}

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the latest stored export as text",
		Args:  cobra.NoArgs,
		RunE:  runReportCmd,
	}
	addReportFlags(cmd)
	cmd.Flags().BoolVar(&reportDaily, "daily", false, "include the per-day table")
	return cmd
}

func runReportCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := reportConfig()
	if err != nil {
		return err
	}
	fileCfg, err := loadSettings()
	if err != nil {
		return err
	}
	st, err := openStore(cmd.Context(), cmd, fileCfg)
	if err != nil {
		return err
	}
	defer closeStore(st)

	report, err := stats.BuildReport(cmd.Context(), st, cfg)
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}
	w := cmd.OutOrStdout()
	if report.Empty() {
		logErrln("No health data found. Import an export with: healthdash ingest export.xml")
		return nil
	}
	heading := color.New(color.FgCyan, color.Bold).SprintFunc()
	if _, err := fmt.Fprintln(w, heading(fmt.Sprintf("Export #%d (stored %s)", report.ResultID, report.StoredAt.Local().Format("2006-01-02 15:04")))); err != nil {
		return err
	}
	if err := stats.RenderSummary(w, report.Result); err != nil {
		return err
	}
	if reportDaily && len(report.Days) > 0 {
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
		if err := stats.RenderDailyTable(w, report.Days, stats.DefaultDailyColumns); err != nil {
			return err
		}
	}
	metrics := []string{cfg.Metric}
	if cfg.Metric == "" {
		metrics = stats.TopMetrics(report.Days, 2)
	}
	for _, key := range metrics {
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
		if err := stats.RenderTrend(w, report.Days, key, stats.TrendOptions{Window: cfg.Window}); err != nil {
			return err
		}
		lowest := stats.LowestDays(report.Days, key, 3)
		for _, d := range lowest {
			if _, err := fmt.Fprintf(w, "  low: %s  %s\n", d.Date, stats.FormatValue(key, d.Value)); err != nil {
				return err
			}
		}
	}
	return nil
}

func newDashCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dash",
		Short: "Open the interactive dashboard",
		Args:  cobra.NoArgs,
		RunE:  runDashCmd,
	}
	addReportFlags(cmd)
	return cmd
}

func runDashCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := reportConfig()
	if err != nil {
		return err
	}
	fileCfg, err := loadSettings()
	if err != nil {
		return err
	}
	st, err := openStore(cmd.Context(), cmd, fileCfg)
	if err != nil {
		return err
	}
	defer closeStore(st)

	m := dashboard.NewModel(st, cfg)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run dashboard: %w", err)
	}
	return nil
}
