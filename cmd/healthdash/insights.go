package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/healthdash/internal/health"
	"github.com/verte-zerg/healthdash/internal/insights"
	"github.com/verte-zerg/healthdash/internal/model"
	"github.com/verte-zerg/healthdash/internal/store"
)

var (
	insightsAI        bool
	insightsModel     string
	insightsMaxTokens int
)

func newInsightsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "insights",
		Short: "Show insights for the latest stored export",
		Args:  cobra.NoArgs,
		RunE:  runInsightsCmd,
	}
	cmd.Flags().BoolVar(&insightsAI, "ai", false, "ask Claude for a short commentary (needs ANTHROPIC_API_KEY)")
	cmd.Flags().StringVar(&insightsModel, "model", insights.DefaultModel, "Claude model")
	cmd.Flags().IntVar(&insightsMaxTokens, "max-tokens", insights.DefaultMaxTokens, "max tokens for the commentary")
	return cmd
}

func runInsightsCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadSettings()
	if err != nil {
		return err
	}
	var commentator *insights.Commentator
	if insightsAI {
		commentator, err = newCommentator(cmd, fileCfg, &insightsModel, &insightsMaxTokens)
		if err != nil {
			return fmt.Errorf("failed to configure commentary: %w", err)
		}
	}

	st, err := openStore(cmd.Context(), cmd, fileCfg)
	if err != nil {
		return err
	}
	defer closeStore(st)

	stored, err := st.LatestResult(cmd.Context(), model.KindAppleHealth)
	if errors.Is(err, store.ErrNotFound) {
		logErrln("No health data found. Import an export with: healthdash ingest export.xml")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load latest export: %w", err)
	}
	var result health.Result
	if err := json.Unmarshal(stored.Data, &result); err != nil {
		return fmt.Errorf("failed to decode stored result %d: %w", stored.ID, err)
	}

	w := cmd.OutOrStdout()
	if err := writeInsights(w, result.Latest.Date, insights.Evaluate(result.Metrics)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if commentator == nil {
		return nil
	}
	logger.Debug("requesting commentary", "result", stored.ID)
	text, err := commentator.Comment(cmd.Context(), result)
	if err != nil {
		return fmt.Errorf("failed to generate commentary: %w", err)
	}
	heading := color.New(color.FgCyan, color.Bold).SprintFunc()
	_, err = fmt.Fprintf(w, "\n%s\n%s\n", heading("Commentary"), text)
	return err
}

func writeInsights(w io.Writer, day health.DayKey, report insights.Report) error {
	heading := color.New(color.FgCyan, color.Bold).SprintFunc()
	alert := color.New(color.FgYellow, color.Bold).SprintFunc()
	good := color.New(color.FgGreen, color.Bold).SprintFunc()
	title := "Insights"
	if day != "" {
		title += " for " + string(day)
	}
	if _, err := fmt.Fprintln(w, heading(title)); err != nil {
		return err
	}
	for _, in := range report.Insights {
		mark := good("+ " + in.Title)
		if in.Tone == insights.Alert {
			mark = alert("! " + in.Title)
		}
		if _, err := fmt.Fprintf(w, "%s\n    %s\n", mark, in.Description); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "\n%s\n", heading("Suggestions")); err != nil {
		return err
	}
	for _, s := range report.Suggestions {
		if _, err := fmt.Fprintf(w, "  - %s\n", s); err != nil {
			return err
		}
	}
	return nil
}
