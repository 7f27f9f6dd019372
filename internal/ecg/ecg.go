// Package ecg parses the per-recording CSV files in an Apple Health export.
package ecg

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
)

const (
	// Type is the result tag stored alongside a recording.
	Type = "electrocardiogram"
	// DefaultLead is used when the header names no lead.
	DefaultLead = "Lead I"
	// MaxSamples bounds the samples kept per recording.
	MaxSamples = 5000
)

var bareDecimal = regexp.MustCompile(`^-?\d+\.\d+$`)

// Metadata holds the header fields of a recording.
type Metadata struct {
	Date           string `json:"date,omitempty"`
	Classification string `json:"classification,omitempty"`
	SampleRateHz   int    `json:"hz,omitempty"`
	Unit           string `json:"unit,omitempty"`
}

// Recording is one parsed ECG.
type Recording struct {
	Type     string    `json:"type"`
	Metadata Metadata  `json:"metadata"`
	LeadName string    `json:"leadName"`
	Samples  []float64 `json:"samples"`
}

// ParseFile reads the ECG CSV at path.
func ParseFile(path string) (Recording, error) {
	f, err := os.Open(path)
	if err != nil {
		return Recording{}, fmt.Errorf("failed to open ecg: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	return Parse(f)
}

// Parse reads header rows until the data section, then one sample per row.
// Rows that do not parse as a number are skipped.
func Parse(r io.Reader) (Recording, error) {
	rec := Recording{Type: Type, LeadName: DefaultLead, Samples: []float64{}}
	scanner := bufio.NewScanner(r)
	inData := false

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if inData {
			if len(rec.Samples) >= MaxSamples {
				continue
			}
			if v, err := strconv.ParseFloat(line, 64); err == nil {
				rec.Samples = append(rec.Samples, v)
			}
			continue
		}

		if bareDecimal.MatchString(line) {
			inData = true
			v, _ := strconv.ParseFloat(line, 64)
			rec.Samples = append(rec.Samples, v)
			continue
		}
		if key, value, ok := strings.Cut(line, ","); ok {
			applyHeader(&rec, strings.TrimSpace(key), strings.TrimSpace(strings.ReplaceAll(value, `"`, "")))
		}
		if strings.Contains(line, "Lead,") {
			inData = true
		}
	}
	if err := scanner.Err(); err != nil {
		return Recording{}, fmt.Errorf("failed to read ecg: %w", err)
	}
	return rec, nil
}

func applyHeader(rec *Recording, key, value string) {
	switch key {
	case "Recorded Date":
		rec.Metadata.Date = value
	case "Classification":
		rec.Metadata.Classification = value
	case "Sample Rate":
		rec.Metadata.SampleRateHz = leadingInt(value)
	case "Lead":
		if value != "" {
			rec.LeadName = value
		}
	case "Unit":
		rec.Metadata.Unit = value
	}
}

// leadingInt parses the integer prefix of s, e.g. 512 from "512 hertz".
func leadingInt(s string) int {
	end := 0
	for end < len(s) && (s[end] >= '0' && s[end] <= '9' || end == 0 && s[end] == '-') {
		end++
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}
