package report

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/list"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"captionsync/internal/drift"
	"captionsync/internal/history"
	"captionsync/internal/pacing"
	"captionsync/internal/rating"
)

// maxFastChunks caps the chunk rows shown in a rating summary.
const maxFastChunks = 5

// ColorEnabled reports whether output to f should be coloured.
func ColorEnabled(f *os.File) bool {
	if f == nil || os.Getenv("NO_COLOR") != "" {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Renderer formats reports for the console.
type Renderer struct {
	Color bool
}

func (r Renderer) paint(s string, colors ...text.Color) string {
	if !r.Color || len(colors) == 0 {
		return s
	}
	return text.Colors(colors).Sprint(s)
}

func (r Renderer) labelColor(label rating.Label) text.Color {
	switch label {
	case rating.LabelExcellent, rating.LabelGood:
		return text.FgGreen
	case rating.LabelFair:
		return text.FgYellow
	default:
		return text.FgRed
	}
}

// Headline is the one-line verdict for out.
func (r Renderer) Headline(out rating.Output) string {
	verdict := r.paint("PASS", text.FgGreen, text.Bold)
	if !out.Passed {
		verdict = r.paint("FAIL", text.FgRed, text.Bold)
	}
	name := out.Analysis.VideoName
	if name == "" {
		name = "observations"
	}
	score := r.paint(fmt.Sprintf("%.1f (%s)", out.Rating, out.Label), r.labelColor(out.Label), text.Bold)
	return fmt.Sprintf("%s  %s  sync %s  quality %.2f", verdict, name, score, out.CaptionQuality.Overall.Score)
}

// Summary writes the full console report for out.
func (r Renderer) Summary(w io.Writer, out rating.Output) error {
	sections := []string{
		r.Headline(out),
		renderTable("Sync metrics", []string{"Metric", "Value>"}, metricRows(out)),
	}
	if issues := r.issues(out); issues != "" {
		sections = append(sections, "Issues\n"+issues)
	}
	sections = append(sections,
		renderTable("Caption quality", []string{"Factor", "Weight>", "Score>"}, r.qualityRows(out)),
		r.pacingTable(out.Pacing, maxFastChunks),
	)
	_, err := fmt.Fprintln(w, strings.Join(sections, "\n\n"))
	return err
}

// Pacing writes a standalone pacing report listing every fast chunk.
func (r Renderer) Pacing(w io.Writer, rep pacing.Report) error {
	_, err := fmt.Fprintln(w, r.pacingTable(rep, len(rep.Chunks)))
	return err
}

// History writes stored runs, newest first.
func (r Renderer) History(w io.Writer, runs []history.Run) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No rating runs recorded")
		return err
	}
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		passed := r.paint("yes", text.FgGreen)
		if !run.Passed {
			passed = r.paint("no", text.FgRed)
		}
		rows = append(rows, []string{
			run.CreatedAt.Local().Format("2006-01-02 15:04"),
			shortID(run.ID),
			string(run.Source),
			formatFloat(run.Rating, 1),
			r.paint(string(run.Label), r.labelColor(run.Label)),
			passed,
			formatFloat(run.QualityScore, 2),
			formatMs(run.MedianDriftMs),
		})
	}
	table := renderTable("",
		[]string{"When", "Run", "Source", "Rating>", "Label", "Passed", "Quality>", "Median drift>"}, rows)
	_, err := fmt.Fprintln(w, table)
	return err
}

func metricRows(out rating.Output) [][]string {
	m := out.Metrics
	a := out.Analysis
	return [][]string{
		{"Match ratio", formatPercent(out.MatchRatio)},
		{"Matched words", fmt.Sprintf("%d / %d OCR, %d ASR", a.MatchedCount, a.OcrWordCount, a.AsrWordCount)},
		{"Median drift", formatMs(m.MedianDriftMs)},
		{"Robust max drift", formatMs(m.RobustMaxDriftMs)},
		{"P95 drift", formatMs(m.P95DriftMs)},
		{"Mean signed drift", formatMs(m.MeanSignedDriftMs)},
		{"Drift std dev", formatMs(m.DriftStdDev)},
		{"Leading / lagging", formatPercent(m.LeadingRatio) + " / " + formatPercent(m.LaggingRatio)},
		{"Outliers", strconv.Itoa(m.OutlierCount)},
		{"Frames", fmt.Sprintf("%d sampled, %d with text, %d failed", a.FramesSampled, a.FramesWithText, a.FramesFailed)},
		{"Engines", a.OCREngine + " / " + a.ASREngine},
	}
}

func (r Renderer) issues(out rating.Output) string {
	if len(out.Errors) == 0 && len(out.Diagnostics) == 0 {
		return ""
	}
	lw := list.NewWriter()
	lw.SetStyle(list.StyleBulletCircle)
	for _, e := range out.Errors {
		color := text.FgYellow
		if e.Severity == drift.SeverityCritical {
			color = text.FgRed
		}
		lw.AppendItem(r.paint(fmt.Sprintf("[%s] %s: %s", e.Severity, e.Type, e.Message), color))
	}
	for _, note := range out.Diagnostics {
		lw.AppendItem(note)
	}
	return lw.Render()
}

func (r Renderer) qualityRows(out rating.Output) [][]string {
	rows := make([][]string, 0, len(out.CaptionQuality.SubScores)+1)
	for _, s := range out.CaptionQuality.SubScores {
		score := formatFloat(s.Score, 2)
		if s.Score < rating.DefaultConfig().WeakFactorBelow {
			score = r.paint(score, text.FgRed)
		}
		rows = append(rows, []string{s.Name, formatFloat(s.Weight, 2), score})
	}
	overall := r.paint(formatFloat(out.CaptionQuality.Overall.Score, 2), text.Bold)
	rows = append(rows, []string{"overall", "", overall})
	return rows
}

func (r Renderer) pacingTable(rep pacing.Report, limit int) string {
	summary := renderTable("Pacing", []string{"Chunks>", "Too fast>", "Min>", "Avg>", "Max>", "Max CPS>", "Max WPM>"}, [][]string{{
		strconv.Itoa(rep.TotalChunks),
		fmt.Sprintf("%d (%s)", rep.FastChunkCount, formatPercent(rep.FastChunkRatio())),
		formatMs(rep.MinDurationMs),
		formatMs(rep.AvgDurationMs),
		formatMs(rep.MaxDurationMs),
		formatFloat(rep.MaxCPS, 1),
		formatFloat(rep.MaxWPM, 0),
	}})

	rows := make([][]string, 0, limit)
	for _, c := range rep.Chunks {
		if c.MeetsMinDuration {
			continue
		}
		if len(rows) >= limit {
			break
		}
		rows = append(rows, []string{
			strconv.Itoa(c.Index),
			formatMs(c.StartMs),
			r.paint(formatMs(c.DurationMs), text.FgRed),
			formatMs(c.RequiredMinMs),
			truncate(c.Text, 48),
		})
	}
	if len(rows) == 0 {
		return summary
	}
	fast := renderTable("Fast chunks", []string{"#>", "Start>", "Shown>", "Needs>", "Text"}, rows)
	return summary + "\n" + fast
}

func formatFloat(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}

func formatMs(v float64) string {
	return formatFloat(v, 0) + " ms"
}

func formatPercent(v float64) string {
	return formatFloat(v*100, 1) + "%"
}

func truncate(s string, max int) string {
	runes := []rune(strings.Join(strings.Fields(s), " "))
	if len(runes) <= max {
		return string(runes)
	}
	return string(runes[:max-1]) + "…"
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
