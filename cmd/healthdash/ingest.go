package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/fatih/color"
	"github.com/gen2brain/beeep"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/healthdash/internal/health"
	"github.com/verte-zerg/healthdash/internal/model"
	"github.com/verte-zerg/healthdash/internal/stats"
)

var (
	ingestHistoryDays int
	ingestFormat      string
	ingestNoSave      bool
	ingestNotify      bool
)

type ingestOutcome struct {
	File   string            `json:"file"`
	ID     int64             `json:"id,omitempty"`
	Stats  health.ParseStats `json:"-"`
	Result *health.Result    `json:"result,omitempty"`
	Error  string            `json:"error,omitempty"`
	err    error
}

func newIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest FILE...",
		Short: "Parse Apple Health exports (.xml, .zip, .gz, .zst) and store the daily summary",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runIngestCmd,
	}
	cmd.Flags().IntVar(&ingestHistoryDays, "history-days", health.DefaultHistoryLimit, "days of history to keep")
	cmd.Flags().StringVar(&ingestFormat, "format", defaultFormat, "output format: summary, json, yaml")
	cmd.Flags().BoolVar(&ingestNoSave, "no-save", false, "parse only, do not store results")
	cmd.Flags().BoolVar(&ingestNotify, "notify", false, "send a desktop notification when done")
	return cmd
}

func runIngestCmd(cmd *cobra.Command, args []string) error {
	fileCfg, err := loadSettings()
	if err != nil {
		return err
	}
	applyIntConfig(cmd, "history-days", &ingestHistoryDays, fileCfg.Ingest.HistoryDays)
	applyStringConfig(cmd, "format", &ingestFormat, fileCfg.Ingest.Format)
	applyBoolConfig(cmd, "notify", &ingestNotify, fileCfg.Ingest.Notify)

	cfg := model.IngestConfig{
		HistoryDays: ingestHistoryDays,
		Format:      ingestFormat,
		Save:        !ingestNoSave,
		Notify:      ingestNotify,
	}
	if err := validateIngestConfig(cfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	outcomes := ingestFiles(ctx, args, cfg)

	if cfg.Save {
		st, err := openStore(ctx, cmd, fileCfg)
		if err != nil {
			return err
		}
		defer closeStore(st)
		for i := range outcomes {
			o := &outcomes[i]
			if o.err != nil {
				continue
			}
			id, err := st.SaveResult(ctx, model.KindAppleHealth, o.Result)
			if err != nil {
				o.err = fmt.Errorf("failed to save result: %w", err)
				continue
			}
			o.ID = id
		}
	}

	failed := 0
	for i := range outcomes {
		if outcomes[i].err != nil {
			outcomes[i].Error = outcomes[i].err.Error()
			failed++
		}
	}

	if err := writeIngestOutput(cmd.OutOrStdout(), cfg.Format, outcomes); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if cfg.Notify {
		notifyIngest(outcomes, failed)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(outcomes))
	}
	return nil
}

func validateIngestConfig(cfg model.IngestConfig) error {
	if cfg.HistoryDays <= 0 {
		return fmt.Errorf("--history-days must be > 0")
	}
	switch cfg.Format {
	case "summary", "json", "yaml":
	default:
		return fmt.Errorf("--format must be summary, json or yaml")
	}
	return nil
}

// ingestFiles parses every path concurrently. One failing file does not stop
// the others; its error is kept on the outcome.
func ingestFiles(ctx context.Context, paths []string, cfg model.IngestConfig) []ingestOutcome {
	outcomes := make([]ingestOutcome, len(paths))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range paths {
		g.Go(func() error {
			lg := withFile(logger, path)
			lg.Info("parsing export")
			var ps health.ParseStats
			res, err := health.ParseFile(ctx, path,
				health.WithHistoryLimit(cfg.HistoryDays),
				health.WithLogger(lg),
				health.WithStats(&ps),
			)
			outcomes[i] = ingestOutcome{File: path, Stats: ps, Result: res, err: err}
			if err != nil {
				lg.Error("parse failed", "error", err)
				return nil
			}
			lg.Info("parsed export", "lines", ps.Lines, "records", ps.Records, "days", ps.Days,
				"unrecognized", ps.Unrecognized, "malformed", ps.Malformed)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func writeIngestOutput(w io.Writer, format string, outcomes []ingestOutcome) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(outcomes)
	case "yaml":
		return writeYAML(w, outcomes)
	}
	header := color.New(color.FgCyan, color.Bold).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()
	for i, o := range outcomes {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%s\n", header("==> "+o.File)); err != nil {
			return err
		}
		if o.err != nil {
			if _, err := fmt.Fprintf(w, "%s %v\n", red("error:"), o.err); err != nil {
				return err
			}
			continue
		}
		detail := fmt.Sprintf("%d lines, %d records, %d days", o.Stats.Lines, o.Stats.Records, o.Stats.Days)
		if o.ID > 0 {
			detail += fmt.Sprintf(", stored as #%d", o.ID)
		}
		if _, err := fmt.Fprintln(w, gray(detail)); err != nil {
			return err
		}
		if err := stats.RenderSummary(w, *o.Result); err != nil {
			return err
		}
	}
	return nil
}

// writeYAML renders v through its JSON form so custom marshalers apply.
func writeYAML(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return err
	}
	return enc.Close()
}

func notifyIngest(outcomes []ingestOutcome, failed int) {
	beeep.AppName = "healthdash"
	msg := fmt.Sprintf("Ingested %d of %d exports", len(outcomes)-failed, len(outcomes))
	for _, o := range outcomes {
		if o.err == nil && o.Result != nil && o.Result.Latest.Date != "" {
			msg += fmt.Sprintf(", latest day %s", o.Result.Latest.Date)
			break
		}
	}
	if err := beeep.Notify("healthdash", msg, ""); err != nil {
		logger.Warn("desktop notification failed", "error", err)
	}
}
