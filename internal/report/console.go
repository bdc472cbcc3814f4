package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/text"

	"captionsync/internal/history"
	"captionsync/internal/preflight"
)

// Checks writes preflight results, one row per check.
func (r Renderer) Checks(w io.Writer, results []preflight.Result) error {
	rows := make([][]string, 0, len(results))
	for _, res := range results {
		status := r.paint("ok", text.FgGreen)
		switch {
		case !res.Passed && res.Optional:
			status = r.paint("missing (optional)", text.FgYellow)
		case !res.Passed:
			status = r.paint("FAIL", text.FgRed, text.Bold)
		}
		rows = append(rows, []string{res.Name, status, res.Detail})
	}
	_, err := fmt.Fprintln(w, renderTable("", []string{"Check", "Status", "Detail"}, rows))
	return err
}

// Benchmark writes each repeated rating and the stability verdict.
func (r Renderer) Benchmark(w io.Writer, runs []history.Run, st history.Stability, epsilon float64) error {
	rows := make([][]string, 0, len(runs))
	for i, run := range runs {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			formatFloat(run.Rating, 3),
			string(run.Label),
			formatFloat(run.QualityScore, 4),
			formatFloat(run.MatchRatio, 4),
			formatMs(run.MedianDriftMs),
		})
	}
	table := renderTable("Benchmark",
		[]string{"Run>", "Rating>", "Label", "Quality>", "Match ratio>", "Median drift>"}, rows)

	verdict := r.paint("STABLE", text.FgGreen, text.Bold)
	if !st.Stable(epsilon) {
		verdict = r.paint("UNSTABLE", text.FgRed, text.Bold)
	}
	_, err := fmt.Fprintf(w, "%s\n%s  max rating delta %s (epsilon %s), quality delta %s over %d runs\n",
		table, verdict, formatFloat(st.MaxDelta, 3), formatFloat(epsilon, 3), formatFloat(st.QualityDelta(), 4), st.Runs)
	return err
}
