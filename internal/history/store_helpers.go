package history

import (
	"database/sql"
	"time"

	"captionsync/internal/rating"
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const runColumns = "id, video_path, video_name, source, rating, label, passed, match_ratio, quality_score, median_drift_ms, robust_max_drift_ms, sample_count, fast_chunks, report_path, created_at"

func scanRun(scanner interface{ Scan(dest ...any) error }) (Run, error) {
	var (
		run        Run
		videoName  sql.NullString
		source     string
		label      string
		passed     int64
		reportPath sql.NullString
		createdRaw string
	)
	if err := scanner.Scan(
		&run.ID,
		&run.VideoPath,
		&videoName,
		&source,
		&run.Rating,
		&label,
		&passed,
		&run.MatchRatio,
		&run.QualityScore,
		&run.MedianDriftMs,
		&run.RobustMaxDriftMs,
		&run.SampleCount,
		&run.FastChunks,
		&reportPath,
		&createdRaw,
	); err != nil {
		return Run{}, err
	}
	run.VideoName = videoName.String
	run.Source = Source(source)
	run.Label = rating.Label(label)
	run.Passed = passed != 0
	run.ReportPath = reportPath.String
	if ts, err := time.Parse(timeLayout, createdRaw); err == nil {
		run.CreatedAt = ts
	}
	return run, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
