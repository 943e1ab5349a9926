package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cropsure/cropsure-api/internal/core/domain"
)

// HistoryRepository implements ports.HistoryRepository on analysis_history.
type HistoryRepository struct {
	db *sql.DB
}

func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

func (r *HistoryRepository) Insert(ctx context.Context, rec *domain.HistoryRecord) (int64, error) {
	rep := rec.Report
	res, err := r.db.ExecContext(ctx, `
INSERT INTO analysis_history
	(user_id, disease_name, confidence, symptoms, treatment, fertilizer_recommendation, prevention_tips, timestamp)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.UserID,
		rep.DiseaseName,
		rep.Confidence,
		stringList(rep.Symptoms),
		rep.Treatment,
		rep.FertilizerRecommendation,
		stringList(rep.PreventionTips),
		formatTime(rec.Timestamp),
	)
	if err != nil {
		return 0, fmt.Errorf("insert history: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert history id: %w", err)
	}
	rec.ID = id
	return id, nil
}

func (r *HistoryRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]domain.HistoryRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, user_id, disease_name, confidence, symptoms, treatment, fertilizer_recommendation, prevention_tips, timestamp
FROM analysis_history
WHERE user_id = ?
ORDER BY timestamp DESC, id DESC
LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	records := make([]domain.HistoryRecord, 0, limit)
	for rows.Next() {
		var (
			rec      domain.HistoryRecord
			symptoms stringList
			tips     stringList
			ts       string
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.UserID,
			&rec.Report.DiseaseName,
			&rec.Report.Confidence,
			&symptoms,
			&rec.Report.Treatment,
			&rec.Report.FertilizerRecommendation,
			&tips,
			&ts,
		); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		rec.Report.Symptoms = []string(symptoms)
		rec.Report.PreventionTips = []string(tips)
		if rec.Timestamp, err = parseTime(ts); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return records, nil
}

func (r *HistoryRepository) Delete(ctx context.Context, userID, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM analysis_history WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return false, fmt.Errorf("delete history: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete history: %w", err)
	}
	return n > 0, nil
}
