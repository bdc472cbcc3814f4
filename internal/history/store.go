package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"captionsync/internal/rating"
	"captionsync/internal/services"
)

// Source records how a run obtained its observations.
type Source string

const (
	SourceVideo        Source = "video"
	SourceObservations Source = "observations"
)

// Run is one stored rating.
type Run struct {
	ID               string       `json:"id"`
	VideoPath        string       `json:"videoPath"`
	VideoName        string       `json:"videoName,omitempty"`
	Source           Source       `json:"source"`
	Rating           float64      `json:"rating"`
	Label            rating.Label `json:"label"`
	Passed           bool         `json:"passed"`
	MatchRatio       float64      `json:"matchRatio"`
	QualityScore     float64      `json:"qualityScore"`
	MedianDriftMs    float64      `json:"medianDriftMs"`
	RobustMaxDriftMs float64      `json:"robustMaxDriftMs"`
	SampleCount      int          `json:"sampleCount"`
	FastChunks       int          `json:"fastChunks"`
	ReportPath       string       `json:"reportPath,omitempty"`
	CreatedAt        time.Time    `json:"createdAt"`
}

// NewRun summarizes out for storage. The caller assigns ReportPath when a
// report file was written.
func NewRun(videoPath string, source Source, out rating.Output) Run {
	return Run{
		VideoPath:        videoPath,
		VideoName:        out.Analysis.VideoName,
		Source:           source,
		Rating:           out.Rating,
		Label:            out.Label,
		Passed:           out.Passed,
		MatchRatio:       out.MatchRatio,
		QualityScore:     out.CaptionQuality.Overall.Score,
		MedianDriftMs:    out.Metrics.MedianDriftMs,
		RobustMaxDriftMs: out.Metrics.RobustMaxDriftMs,
		SampleCount:      out.Metrics.SampleCount,
		FastChunks:       out.Pacing.FastChunkCount,
	}
}

// Store manages rating history backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open initializes or connects to the history database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, services.Wrap(services.ErrConfiguration, "history", "open", "history database path is empty", nil)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path, now: time.Now}
	if err := store.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Record stores run, assigning its ID and timestamp.
func (s *Store) Record(ctx context.Context, run Run) (Run, error) {
	if strings.TrimSpace(run.VideoPath) == "" {
		return Run{}, errors.New("run video path is empty")
	}
	if run.Source == "" {
		run.Source = SourceVideo
	}
	run.ID = uuid.NewString()
	run.CreatedAt = s.now().UTC()

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO rating_runs (
            id, video_path, video_name, source, rating, label, passed, match_ratio,
            quality_score, median_drift_ms, robust_max_drift_ms, sample_count,
            fast_chunks, report_path, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.VideoPath,
		nullableString(run.VideoName),
		string(run.Source),
		run.Rating,
		string(run.Label),
		boolToInt(run.Passed),
		run.MatchRatio,
		run.QualityScore,
		run.MedianDriftMs,
		run.RobustMaxDriftMs,
		run.SampleCount,
		run.FastChunks,
		nullableString(run.ReportPath),
		run.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// ListByVideo returns the most recent runs for videoPath, newest first. A
// non-positive limit returns every run.
func (s *Store) ListByVideo(ctx context.Context, videoPath string, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM rating_runs WHERE video_path = ? ORDER BY created_at DESC, rowid DESC`
	args := []any{videoPath}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return s.query(ctx, query, args...)
}

// Recent returns the latest runs across all videos, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.query(ctx, `SELECT `+runColumns+` FROM rating_runs ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
}

// Get fetches a run by ID; a missing run is reported with services.ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM rating_runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, services.Wrap(services.ErrNotFound, "history", "get", "run "+id, nil)
	}
	if err != nil {
		return Run{}, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// Prune deletes runs older than cutoff and returns how many were removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM rating_runs WHERE created_at < ?`, cutoff.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}
