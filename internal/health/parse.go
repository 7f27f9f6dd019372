package health

import (
	"context"
	"io"
	"log/slog"
)

const cancelCheckInterval = 4096

// ParseStats counts what a parse saw.
type ParseStats struct {
	Lines        int
	Records      int
	Quantity     int
	Sleep        int
	Unrecognized int
	Malformed    int
	Days         int
}

type parseOptions struct {
	historyLimit int
	logger       *slog.Logger
	stats        *ParseStats
}

// Option configures Parse and ParseFile.
type Option func(*parseOptions)

// WithHistoryLimit caps the number of days kept in Result.History.
func WithHistoryLimit(n int) Option {
	return func(o *parseOptions) { o.historyLimit = n }
}

// WithLogger sets the logger used for progress messages.
func WithLogger(l *slog.Logger) Option {
	return func(o *parseOptions) { o.logger = l }
}

// WithStats receives the parse counters once the stream completes.
func WithStats(s *ParseStats) Option {
	return func(o *parseOptions) { o.stats = s }
}

func buildOptions(opts []Option) parseOptions {
	o := parseOptions{historyLimit: DefaultHistoryLimit}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o
}

// ParseFile streams the export at path and returns its daily aggregates.
func ParseFile(ctx context.Context, path string, opts ...Option) (*Result, error) {
	src, err := OpenLines(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = src.Close()
	}()
	o := buildOptions(opts)
	o.logger = o.logger.With(slog.String("path", path))
	return parseLines(ctx, src, o)
}

// Parse streams an export from r.
func Parse(ctx context.Context, r io.Reader, opts ...Option) (*Result, error) {
	return parseLines(ctx, NewLineSource(r), buildOptions(opts))
}

func parseLines(ctx context.Context, src *LineSource, o parseOptions) (*Result, error) {
	classifier := NewClassifier()
	agg := NewAggregator()
	var stats ParseStats

	for src.Scan() {
		stats.Lines++
		if stats.Lines%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, &IOError{Op: "read", Path: src.path, Err: err}
			}
		}
		sample, kind := classifier.ClassifyDetail(src.Text())
		switch kind {
		case Irrelevant:
			continue
		case Unrecognized:
			stats.Records++
			stats.Unrecognized++
			continue
		case Malformed:
			stats.Records++
			stats.Malformed++
			continue
		}
		stats.Records++
		if !agg.Add(sample) {
			continue
		}
		if sample.IsSleep() {
			stats.Sleep++
		} else {
			stats.Quantity++
		}
	}
	if err := src.Err(); err != nil {
		return nil, err
	}

	days := agg.Days()
	processed := make([]ProcessedDay, 0, len(days))
	for _, day := range days {
		processed = append(processed, ProcessDay(day))
	}
	result := Assemble(processed, o.historyLimit)
	stats.Days = len(processed)

	o.logger.Info("stream parsing complete",
		slog.Int("lines", stats.Lines),
		slog.Int("records", stats.Records),
		slog.Int("days", stats.Days),
		slog.Int("malformed", stats.Malformed),
		slog.Int("unrecognized", stats.Unrecognized),
	)
	if o.stats != nil {
		*o.stats = stats
	}
	return &result, nil
}
