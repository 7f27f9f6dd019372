package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/samber/lo"
	"github.com/verte-zerg/healthdash/internal/health"
	"golang.org/x/term"
)

const (
	minBarWidth         = 10
	dateColumnWidth     = 10
	terminalWidthBackup = 80
)

// Eighth-block glyphs, empty to full.
var barGlyphs = []rune{' ', '▏', '▎', '▍', '▌', '▋', '▊', '▉', '█'}

// TrendOptions tunes RenderTrend.
type TrendOptions struct {
	// Window is the moving-average window; 0 or 1 plots raw values.
	Window int
	// Width is the total line width; 0 uses the terminal width.
	Width int
	// ForceColor colors bars even when w is not a terminal.
	ForceColor bool
}

// RenderTrend prints one horizontal bar per day for key, scaled to the largest
// value, followed by a sparkline of the whole range.
func RenderTrend(w io.Writer, days []health.ProcessedDay, key string, opts TrendOptions) error {
	if len(days) == 0 {
		return nil
	}
	values := MovingAverage(Series(days, key), opts.Window)
	title := MetricLabel(key)
	if opts.Window > 1 {
		title = fmt.Sprintf("%s (%d-day average)", title, opts.Window)
	}
	if _, err := fmt.Fprintln(w, title); err != nil {
		return err
	}

	labels := lo.Map(values, func(v float64, _ int) string { return FormatValue(key, v) })
	labelWidth := lo.Max(lo.Map(labels, func(s string, _ int) int { return displayWidth(s) }))
	total := opts.Width
	if total <= 0 {
		total = terminalWidth()
	}
	barWidth := BarWidthFor(total, labelWidth)

	peak := lo.Max(values)
	bar := color.New(color.FgCyan)
	if shouldUseColor(w, opts.ForceColor) {
		bar.EnableColor()
	} else {
		bar.DisableColor()
	}
	for i, d := range days {
		cells := renderBar(values[i], peak, barWidth)
		line := fmt.Sprintf("%-*s %s %s", dateColumnWidth, d.Date, bar.Sprint(cells), padCell(labels[i], labelWidth, true))
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "%-*s %s\n", dateColumnWidth, "", Sparkline(values)); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// BarWidthFor computes the bar width left after the date and value columns.
func BarWidthFor(totalWidth, labelWidth int) int {
	if totalWidth <= 0 {
		return minBarWidth
	}
	return max(minBarWidth, totalWidth-dateColumnWidth-labelWidth-2)
}

// renderBar draws v/peak of width cells with eighth-cell resolution. The result
// is always exactly width runes.
func renderBar(v, peak float64, width int) string {
	if width <= 0 {
		return ""
	}
	eighths := 0
	if peak > 0 && v > 0 {
		eighths = int(math.Round(v / peak * float64(width*8)))
	}
	eighths = max(0, min(eighths, width*8))
	full := eighths / 8
	var b strings.Builder
	b.WriteString(strings.Repeat(string(barGlyphs[8]), full))
	cells := full
	if rem := eighths % 8; rem > 0 {
		b.WriteRune(barGlyphs[rem])
		cells++
	}
	b.WriteString(strings.Repeat(" ", width-cells))
	return b.String()
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func shouldUseColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}
