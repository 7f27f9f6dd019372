package health

import (
	"archive/zip"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenarioExport = `<?xml version="1.0" encoding="UTF-8"?>
<HealthData locale="en_US">
 <ExportDate value="2024-01-02 09:00:00 +0000"/>
 <Record type="HKQuantityTypeIdentifierStepCount" sourceName="Watch" unit="count" startDate="2024-01-01 08:00:00 +0000" endDate="2024-01-01 08:10:00 +0000" value="500"/>
 <Record type="HKQuantityTypeIdentifierStepCount" sourceName="iPhone" unit="count" startDate="2024-01-01 08:00:00 +0000" endDate="2024-01-01 08:10:00 +0000" value="200"/>
 <Record type="HKQuantityTypeIdentifierHeartRate" sourceName="Watch" unit="count/min" startDate="2024-01-01 09:00:00 +0000" endDate="2024-01-01 09:00:00 +0000" value="72"/>
</HealthData>
`

func TestParseEndToEndScenario(t *testing.T) {
	var stats ParseStats
	result, err := Parse(context.Background(), strings.NewReader(scenarioExport), WithStats(&stats))
	require.NoError(t, err)

	require.Len(t, result.History, 1)
	day := result.History[0]
	assert.Equal(t, DayKey("2024-01-01"), day.Date)
	assert.Equal(t, 0.0, day.Sleep)
	assert.Equal(t, Aggregate{Sum: 500, Count: 1}, day.Metrics[StepCount])
	assert.Equal(t, Aggregate{Sum: 72, Count: 1, Min: 72, Max: 72, HasRange: true}, day.Metrics[HeartRate])
	assert.Equal(t, day, result.Latest)
	assert.Equal(t, map[string]float64{"stepCount": 500, "heartRate": 72, "sleep": 0}, result.Metrics)

	out, err := json.Marshal(result.History)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"date":"2024-01-01","sleep":0,"stepCount":{"sum":500,"count":1},"heartRate":{"sum":72,"count":1,"min":72,"max":72}}]`, string(out))

	assert.Equal(t, ParseStats{Lines: 7, Records: 3, Quantity: 3, Days: 1}, stats)
}

func TestParseSkipsMalformedAndUnknown(t *testing.T) {
	input := strings.Join([]string{
		`<Record type="HKQuantityTypeIdentifierHeartRate" startDate="2024-01-01 09:00:00 +0000" value="NaNish"/>`,
		`<Record type="HKQuantityTypeIdentifierDietaryWater" startDate="2024-01-01 09:00:00 +0000" value="250"/>`,
		`<Record type="HKQuantityTypeIdentifierHeartRate" value="60"/>`,
		`<Record type="HKCategoryTypeIdentifierSleepAnalysis" startDate="2024-01-03 23:00:00 +0000" endDate="2024-01-04 06:00:00 +0000" value="HKCategoryValueSleepAnalysisInBed"/>`,
		`<Record type="HKQuantityTypeIdentifierHeartRate" startDate="2024-01-02 09:00:00 +0000" value="64"/>`,
	}, "\n")
	var stats ParseStats
	result, err := Parse(context.Background(), strings.NewReader(input), WithStats(&stats))
	require.NoError(t, err)
	require.Len(t, result.History, 1)
	assert.Equal(t, DayKey("2024-01-02"), result.History[0].Date)
	assert.Equal(t, 2, stats.Malformed)
	assert.Equal(t, 1, stats.Unrecognized)
	assert.Equal(t, 5, stats.Records)
	assert.Equal(t, 1, stats.Quantity)
}

func TestParseDropsNonFiniteValues(t *testing.T) {
	input := strings.Join([]string{
		`<Record type="HKQuantityTypeIdentifierHeartRate" startDate="2024-01-01 09:00:00 +0000" value="72"/>`,
		`<Record type="HKQuantityTypeIdentifierHeartRate" startDate="2024-01-01 09:05:00 +0000" value="NaN"/>`,
		`<Record type="HKQuantityTypeIdentifierHeartRate" startDate="2024-01-01 09:10:00 +0000" value="Infinity"/>`,
		`<Record type="HKQuantityTypeIdentifierStepCount" sourceName="Watch" startDate="2024-01-01 09:15:00 +0000" value="+Inf"/>`,
	}, "\n")
	var stats ParseStats
	result, err := Parse(context.Background(), strings.NewReader(input), WithStats(&stats))
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Malformed)
	assert.Equal(t, 1, stats.Quantity)
	assert.Equal(t, 72.0, result.Metrics["heartRate"])
	_, hasSteps := result.Metrics["stepCount"]
	assert.False(t, hasSteps)

	_, err = json.Marshal(result)
	require.NoError(t, err)
}

func TestParseSleepAcrossRecords(t *testing.T) {
	input := strings.Join([]string{
		`<Record type="HKCategoryTypeIdentifierSleepAnalysis" sourceName="Watch" startDate="2024-01-05 01:00:00 +0000" endDate="2024-01-05 01:30:00 +0000" value="HKCategoryValueSleepAnalysisAsleepCore"/>`,
		`<Record type="HKCategoryTypeIdentifierSleepAnalysis" sourceName="iPhone" startDate="2024-01-05 01:20:00 +0000" endDate="2024-01-05 02:00:00 +0000" value="HKCategoryValueSleepAnalysisAsleepUnspecified"/>`,
		`<Record type="HKCategoryTypeIdentifierSleepAnalysis" sourceName="Watch" startDate="2024-01-05 03:00:00 +0000" endDate="2024-01-05 03:15:00 +0000" value="4"/>`,
		`<Record type="HKCategoryTypeIdentifierSleepAnalysis" sourceName="Watch" startDate="2024-01-05 03:15:00 +0000" endDate="2024-01-05 03:45:00 +0000" value="HKCategoryValueSleepAnalysisAwake"/>`,
	}, "\n")
	result, err := Parse(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, result.History, 1)
	assert.InDelta(t, 75.0, result.History[0].Sleep, 1e-9)
	assert.InDelta(t, 75.0, result.Metrics["sleep"], 1e-9)
}

func TestParseFileMissing(t *testing.T) {
	_, err := ParseFile(context.Background(), filepath.Join(t.TempDir(), "nope.xml"))
	require.Error(t, err)
	var ioErr *IOError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, "open", ioErr.Op)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestParseCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	input := strings.Repeat("<Filler/>\n", cancelCheckInterval+10)
	result, err := Parse(ctx, strings.NewReader(input))
	assert.Nil(t, result)
	var ioErr *IOError
	require.True(t, errors.As(err, &ioErr))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestParseLineTooLong(t *testing.T) {
	input := `<Record type="x" value="` + strings.Repeat("9", MaxLineSize+1) + `"/>`
	_, err := Parse(context.Background(), strings.NewReader(input))
	var ioErr *IOError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, "read", ioErr.Op)
}

func TestParseFileCompressedInputs(t *testing.T) {
	dir := t.TempDir()

	plain := filepath.Join(dir, "export.xml")
	require.NoError(t, os.WriteFile(plain, []byte(scenarioExport), 0o644))

	gzPath := filepath.Join(dir, "export.xml.gz")
	writeCompressed(t, gzPath, func(f *os.File) {
		zw := gzip.NewWriter(f)
		_, err := zw.Write([]byte(scenarioExport))
		require.NoError(t, err)
		require.NoError(t, zw.Close())
	})

	zstPath := filepath.Join(dir, "export.xml.zst")
	writeCompressed(t, zstPath, func(f *os.File) {
		zw, err := zstd.NewWriter(f)
		require.NoError(t, err)
		_, err = zw.Write([]byte(scenarioExport))
		require.NoError(t, err)
		require.NoError(t, zw.Close())
	})

	zipPath := filepath.Join(dir, "export.zip")
	writeCompressed(t, zipPath, func(f *os.File) {
		zw := zip.NewWriter(f)
		cda, err := zw.Create("apple_health_export/export_cda.xml")
		require.NoError(t, err)
		_, err = cda.Write([]byte("<ClinicalDocument/>"))
		require.NoError(t, err)
		w, err := zw.Create("apple_health_export/export.xml")
		require.NoError(t, err)
		_, err = w.Write([]byte(scenarioExport))
		require.NoError(t, err)
		require.NoError(t, zw.Close())
	})

	for _, p := range []string{plain, gzPath, zstPath, zipPath} {
		t.Run(filepath.Base(p), func(t *testing.T) {
			result, err := ParseFile(context.Background(), p)
			require.NoError(t, err)
			require.Len(t, result.History, 1)
			assert.Equal(t, 500.0, result.Metrics["stepCount"])
			assert.Equal(t, 72.0, result.Metrics["heartRate"])
		})
	}
}

func TestOpenLinesZipWithoutExport(t *testing.T) {
	zipPath := filepath.Join(t.TempDir(), "photos.zip")
	writeCompressed(t, zipPath, func(f *os.File) {
		zw := zip.NewWriter(f)
		w, err := zw.Create("readme.txt")
		require.NoError(t, err)
		_, err = w.Write([]byte("hello"))
		require.NoError(t, err)
		require.NoError(t, zw.Close())
	})
	_, err := OpenLines(zipPath)
	var ioErr *IOError
	require.True(t, errors.As(err, &ioErr))
}

func TestResultJSONRoundTrip(t *testing.T) {
	result, err := Parse(context.Background(), strings.NewReader(scenarioExport))
	require.NoError(t, err)
	out, err := json.Marshal(result)
	require.NoError(t, err)

	var back Result
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Equal(t, *result, back)
}

func writeCompressed(t *testing.T, path string, write func(*os.File)) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	write(f)
	require.NoError(t, f.Close())
}
