package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/healthdash/internal/ecg"
	"github.com/verte-zerg/healthdash/internal/model"
	"github.com/verte-zerg/healthdash/internal/stats"
)

const ecgSparkWidth = 60

var (
	ecgFormat string
	ecgNoSave bool
)

func newECGCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ecg FILE",
		Short: "Parse an Apple Watch ECG CSV export",
		Args:  cobra.ExactArgs(1),
		RunE:  runECGCmd,
	}
	cmd.Flags().StringVar(&ecgFormat, "format", defaultFormat, "output format: summary, json, yaml")
	cmd.Flags().BoolVar(&ecgNoSave, "no-save", false, "parse only, do not store the recording")
	return cmd
}

func runECGCmd(cmd *cobra.Command, args []string) error {
	switch ecgFormat {
	case "summary", "json", "yaml":
	default:
		return fmt.Errorf("--format must be summary, json or yaml")
	}
	rec, err := ecg.ParseFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to parse ECG: %w", err)
	}
	withFile(logger, args[0]).Info("parsed ECG", "samples", len(rec.Samples), "hz", rec.Metadata.SampleRateHz)

	var id int64
	if !ecgNoSave {
		fileCfg, err := loadSettings()
		if err != nil {
			return err
		}
		st, err := openStore(cmd.Context(), cmd, fileCfg)
		if err != nil {
			return err
		}
		defer closeStore(st)
		id, err = st.SaveResult(cmd.Context(), model.KindECG, rec)
		if err != nil {
			return fmt.Errorf("failed to save recording: %w", err)
		}
	}

	w := cmd.OutOrStdout()
	switch ecgFormat {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	case "yaml":
		return writeYAML(w, rec)
	}
	return writeECGSummary(w, rec, id)
}

func writeECGSummary(w io.Writer, rec ecg.Recording, id int64) error {
	label := color.New(color.FgHiBlack).SprintFunc()
	value := color.New(color.Bold).SprintFunc()
	rows := [][2]string{
		{"Lead", rec.LeadName},
		{"Recorded", rec.Metadata.Date},
		{"Classification", rec.Metadata.Classification},
		{"Sample rate", fmt.Sprintf("%d Hz", rec.Metadata.SampleRateHz)},
		{"Samples", fmt.Sprintf("%d", len(rec.Samples))},
	}
	if len(rec.Samples) > 0 {
		rows = append(rows, [2]string{"Range", fmt.Sprintf("%.1f .. %.1f %s", lo.Min(rec.Samples), lo.Max(rec.Samples), rec.Metadata.Unit)})
	}
	if id > 0 {
		rows = append(rows, [2]string{"Stored", fmt.Sprintf("#%d", id)})
	}
	for _, row := range rows {
		if row[1] == "" {
			continue
		}
		if _, err := fmt.Fprintf(w, "%s %s\n", label(fmt.Sprintf("%-15s", row[0])), value(row[1])); err != nil {
			return err
		}
	}
	if len(rec.Samples) == 0 {
		return nil
	}
	_, err := fmt.Fprintf(w, "%s %s\n", label(fmt.Sprintf("%-15s", "Trace")), stats.Sparkline(downsample(rec.Samples, ecgSparkWidth)))
	return err
}

// downsample averages samples into at most n buckets.
func downsample(samples []float64, n int) []float64 {
	if len(samples) <= n {
		return samples
	}
	size := (len(samples) + n - 1) / n
	return lo.Map(lo.Chunk(samples, size), func(chunk []float64, _ int) float64 {
		return lo.Sum(chunk) / float64(len(chunk))
	})
}
