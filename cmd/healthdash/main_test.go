package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/healthdash/internal/config"
	"github.com/verte-zerg/healthdash/internal/health"
	"github.com/verte-zerg/healthdash/internal/insights"
	"github.com/verte-zerg/healthdash/internal/model"
)

const sampleExport = `<HealthData>
 <Record type="HKQuantityTypeIdentifierStepCount" sourceName="Watch" startDate="2024-01-01 08:00:00 +0000" value="9000"/>
</HealthData>
`

func TestDefaultConfigTemplateDecodes(t *testing.T) {
	uncommented := strings.NewReplacer("# history-days", "history-days", "# format", "format").Replace(defaultConfigTemplate())
	var cfg config.FileConfig
	md, err := toml.Decode(uncommented, &cfg)
	if err != nil {
		t.Fatalf("decode template: %v", err)
	}
	if len(md.Undecoded()) != 0 {
		t.Fatalf("unexpected keys %v", md.Undecoded())
	}
	if cfg.Ingest.HistoryDays == nil || *cfg.Ingest.HistoryDays != health.DefaultHistoryLimit {
		t.Fatalf("unexpected history-days %v", cfg.Ingest.HistoryDays)
	}
	if cfg.Ingest.Format == nil || *cfg.Ingest.Format != defaultFormat {
		t.Fatalf("unexpected format %v", cfg.Ingest.Format)
	}
}

func TestValidateIngestConfig(t *testing.T) {
	if err := validateIngestConfig(model.IngestConfig{HistoryDays: 30, Format: "yaml"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := validateIngestConfig(model.IngestConfig{HistoryDays: 0, Format: "json"}); err == nil {
		t.Fatalf("expected history error")
	}
	if err := validateIngestConfig(model.IngestConfig{HistoryDays: 1, Format: "xml"}); err == nil {
		t.Fatalf("expected format error")
	}
}

func TestIngestFilesKeepsGoingAfterFailure(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "export.xml")
	if err := os.WriteFile(good, []byte(sampleExport), 0o644); err != nil {
		t.Fatalf("write export: %v", err)
	}
	missing := filepath.Join(dir, "missing.xml")

	outcomes := ingestFiles(context.Background(), []string{missing, good}, model.IngestConfig{HistoryDays: 30})
	if len(outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(outcomes))
	}
	if outcomes[0].err == nil || outcomes[0].File != missing {
		t.Fatalf("expected failure for missing file, got %+v", outcomes[0])
	}
	if outcomes[1].err != nil || outcomes[1].Result.Metrics["stepCount"] != 9000 {
		t.Fatalf("unexpected outcome %+v", outcomes[1])
	}

	var buf bytes.Buffer
	if err := writeIngestOutput(&buf, "summary", outcomes); err != nil {
		t.Fatalf("write summary: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"==> " + missing, "error:", "==> " + good, "9000"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}

	buf.Reset()
	if err := writeIngestOutput(&buf, "yaml", outcomes[1:]); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	if !strings.Contains(buf.String(), "stepCount: 9000") || !strings.Contains(buf.String(), "date: \"2024-01-01\"") {
		t.Fatalf("unexpected yaml:\n%s", buf.String())
	}
}

func TestDownsample(t *testing.T) {
	samples := []float64{1, 3, 5, 7, 9}
	if got := downsample(samples, 10); len(got) != 5 {
		t.Fatalf("expected samples unchanged, got %v", got)
	}
	got := downsample(samples, 2)
	if len(got) != 2 || got[0] != 3 || got[1] != 8 {
		t.Fatalf("unexpected buckets %v", got)
	}
}

func TestWriteInsights(t *testing.T) {
	var buf bytes.Buffer
	report := insights.Evaluate(map[string]float64{"stepCount": 1200})
	if err := writeInsights(&buf, "2024-01-01", report); err != nil {
		t.Fatalf("write insights: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Insights for 2024-01-01") || !strings.Contains(out, "! Low Activity") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestReportConfig(t *testing.T) {
	reportSince, reportLast, reportWindow, reportMetric = "2024-01-05", 3, 7, "sleep"
	t.Cleanup(func() {
		reportSince, reportLast, reportWindow, reportMetric = "", 0, defaultWindow, ""
	})
	cfg, err := reportConfig()
	if err != nil {
		t.Fatalf("report config: %v", err)
	}
	if cfg.Since == nil || cfg.Since.Format("2006-01-02") != "2024-01-05" || cfg.Last != 3 || cfg.Metric != "sleep" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	reportWindow = 0
	if _, err := reportConfig(); err == nil {
		t.Fatalf("expected window error")
	}
}
