package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/csinsight/ticket-classifier/internal/domain"
)

// ErrNoRuns indicates no classification run has been persisted yet.
var ErrNoRuns = errors.New("no classification runs found")

// RunsRepository persists classification runs and their aggregate rollups.
type RunsRepository struct {
	db *sqlx.DB
}

// NewRunsRepository creates a runs repository.
func NewRunsRepository(db *sqlx.DB) *RunsRepository {
	return &RunsRepository{db: db}
}

// CreateRun inserts a run row and returns its id.
func (r *RunsRepository) CreateRun(ctx context.Context, run *domain.ClassificationRun) (int64, error) {
	query := r.db.Rebind(`
		INSERT INTO classification_runs
			(user_id, file_id, batch_id, engine_name, total_count, period_from, period_to, needs_review, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	args := []any{
		run.UserID, run.FileID, run.BatchID, run.EngineName, run.TotalCount,
		run.PeriodFrom, run.PeriodTo, run.NeedsReview, run.CreatedAt,
	}

	if supportsReturning(r.db) {
		var id int64
		if err := r.db.QueryRowxContext(ctx, query+" RETURNING id", args...).Scan(&id); err != nil {
			return 0, fmt.Errorf("create run: %w", err)
		}
		return id, nil
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("create run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create run: %w", err)
	}
	return id, nil
}

// SaveCategoryStats writes the per-category rollup rows for one run.
func (r *RunsRepository) SaveCategoryStats(ctx context.Context, runID int64, stats []domain.CategoryStat) error {
	query := r.db.Rebind(`
		INSERT INTO run_category_stats (run_id, category_id, count, ratio, keywords)
		VALUES (?, ?, ?, ?, ?)
	`)
	for _, s := range stats {
		_, err := r.db.ExecContext(ctx, query,
			runID, s.CategoryID, s.Count, s.Ratio, strings.Join(s.Keywords, ","),
		)
		if err != nil {
			return fmt.Errorf("save category stats: %w", err)
		}
	}
	return nil
}

// SaveChannelStats writes the per-(channel, category) rollup rows for one run.
func (r *RunsRepository) SaveChannelStats(ctx context.Context, runID int64, stats []domain.ChannelStat) error {
	query := r.db.Rebind(`
		INSERT INTO run_channel_stats (run_id, channel, category_id, count, ratio)
		VALUES (?, ?, ?, ?, ?)
	`)
	for _, s := range stats {
		_, err := r.db.ExecContext(ctx, query, runID, s.Channel, s.CategoryID, s.Count, s.Ratio)
		if err != nil {
			return fmt.Errorf("save channel stats: %w", err)
		}
	}
	return nil
}

// SaveReliability writes the run-level reliability row.
func (r *RunsRepository) SaveReliability(ctx context.Context, runID int64, stat domain.ReliabilityStat) error {
	query := r.db.Rebind(`
		INSERT INTO run_reliability (run_id, split, accuracy, macro_f1, micro_f1, avg_confidence)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	_, err := r.db.ExecContext(ctx, query,
		runID, stat.Split, stat.Accuracy, stat.MacroF1, stat.MicroF1, stat.AvgConfidence,
	)
	if err != nil {
		return fmt.Errorf("save reliability: %w", err)
	}
	return nil
}

// GetLatestRun returns the most recent run for a user, optionally narrowed to
// one uploaded file.
func (r *RunsRepository) GetLatestRun(ctx context.Context, userID int64, fileID *int64) (*domain.ClassificationRun, error) {
	query := `
		SELECT id, user_id, file_id, batch_id, engine_name, total_count,
		       period_from, period_to, needs_review, created_at
		FROM classification_runs
		WHERE user_id = ?`
	args := []any{userID}
	if fileID != nil {
		query += " AND file_id = ?"
		args = append(args, *fileID)
	}
	query += " ORDER BY id DESC LIMIT 1"

	var run domain.ClassificationRun
	if err := r.db.GetContext(ctx, &run, r.db.Rebind(query), args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoRuns
		}
		return nil, fmt.Errorf("get latest run: %w", err)
	}
	return &run, nil
}

// GetCategoryStats loads the persisted per-category rollup for one run,
// sorted by count descending then category id, matching aggregation order.
func (r *RunsRepository) GetCategoryStats(ctx context.Context, runID int64) ([]domain.CategoryStat, error) {
	type row struct {
		CategoryID   int64   `db:"category_id"`
		CategoryName string  `db:"name"`
		Count        int     `db:"count"`
		Ratio        float64 `db:"ratio"`
		Keywords     string  `db:"keywords"`
	}

	var rows []row
	query := r.db.Rebind(`
		SELECT s.category_id, c.name, s.count, s.ratio, s.keywords
		FROM run_category_stats s
		JOIN categories c ON c.id = s.category_id
		WHERE s.run_id = ?
		ORDER BY s.count DESC, s.category_id
	`)
	if err := r.db.SelectContext(ctx, &rows, query, runID); err != nil {
		return nil, fmt.Errorf("get category stats: %w", err)
	}

	stats := make([]domain.CategoryStat, 0, len(rows))
	for _, row := range rows {
		stats = append(stats, domain.CategoryStat{
			RunID:        runID,
			CategoryID:   row.CategoryID,
			CategoryName: row.CategoryName,
			Count:        row.Count,
			Ratio:        row.Ratio,
			Keywords:     splitKeywords(row.Keywords),
		})
	}
	return stats, nil
}

// GetChannelStats loads the persisted per-channel rollup for one run.
func (r *RunsRepository) GetChannelStats(ctx context.Context, runID int64) ([]domain.ChannelStat, error) {
	type row struct {
		Channel      string  `db:"channel"`
		CategoryID   int64   `db:"category_id"`
		CategoryName string  `db:"name"`
		Count        int     `db:"count"`
		Ratio        float64 `db:"ratio"`
	}

	var rows []row
	query := r.db.Rebind(`
		SELECT s.channel, s.category_id, c.name, s.count, s.ratio
		FROM run_channel_stats s
		JOIN categories c ON c.id = s.category_id
		WHERE s.run_id = ?
		ORDER BY s.channel, s.category_id
	`)
	if err := r.db.SelectContext(ctx, &rows, query, runID); err != nil {
		return nil, fmt.Errorf("get channel stats: %w", err)
	}

	stats := make([]domain.ChannelStat, 0, len(rows))
	for _, row := range rows {
		stats = append(stats, domain.ChannelStat{
			RunID:        runID,
			Channel:      row.Channel,
			CategoryID:   row.CategoryID,
			CategoryName: row.CategoryName,
			Count:        row.Count,
			Ratio:        row.Ratio,
		})
	}
	return stats, nil
}

// GetReliability loads the persisted reliability row for one run.
func (r *RunsRepository) GetReliability(ctx context.Context, runID int64) (domain.ReliabilityStat, error) {
	var stat domain.ReliabilityStat
	query := r.db.Rebind(`
		SELECT run_id, split, accuracy, macro_f1, micro_f1, avg_confidence
		FROM run_reliability
		WHERE run_id = ?
	`)
	if err := r.db.GetContext(ctx, &stat, query, runID); err != nil {
		return stat, fmt.Errorf("get reliability: %w", err)
	}
	return stat, nil
}

func splitKeywords(joined string) []string {
	if joined == "" {
		return []string{}
	}
	return strings.Split(joined, ",")
}
