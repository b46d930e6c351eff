package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/oksasatya/smartagricare-api/internal/domain/entity"
	"github.com/oksasatya/smartagricare-api/internal/domain/repository"
)

type ReportRepository struct {
	db dbtx
}

func NewReportRepository(db dbtx) *ReportRepository {
	return &ReportRepository{db: db}
}

func (r *ReportRepository) Save(ctx context.Context, rep *entity.DiseaseReport) (int64, error) {
	treatment, err := encodeList(rep.Treatment)
	if err != nil {
		return 0, fmt.Errorf("encode treatment: %w", err)
	}
	stores, err := encodeList(rep.Stores)
	if err != nil {
		return 0, fmt.Errorf("encode stores: %w", err)
	}
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO disease_reports (user_id, disease, confidence, cause, treatment, stores, image_name, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, rep.UserID, rep.Disease, rep.Confidence, rep.Cause, treatment, stores, rep.ImageName, formatTime(now))
	if err != nil {
		return 0, fmt.Errorf("insert report: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("report id: %w", err)
	}
	rep.ID = id
	rep.CreatedAt = now
	return id, nil
}

func (r *ReportRepository) ListByUser(ctx context.Context, userID int64) ([]entity.DiseaseReport, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, disease, confidence, cause, treatment, stores, image_name, created_at
		FROM disease_reports
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("select reports: %w", err)
	}
	defer rows.Close()

	out := make([]entity.DiseaseReport, 0)
	for rows.Next() {
		var (
			rep                     entity.DiseaseReport
			treatment, stores, when string
		)
		if err := rows.Scan(&rep.ID, &rep.UserID, &rep.Disease, &rep.Confidence, &rep.Cause,
			&treatment, &stores, &rep.ImageName, &when); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		if rep.Treatment, err = decodeList(treatment); err != nil {
			return nil, fmt.Errorf("report %d treatment: %w", rep.ID, err)
		}
		if rep.Stores, err = decodeList(stores); err != nil {
			return nil, fmt.Errorf("report %d stores: %w", rep.ID, err)
		}
		if rep.CreatedAt, err = parseTime(when); err != nil {
			return nil, err
		}
		out = append(out, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// encodeList stores a list as a JSON array; nil becomes "[]".
func encodeList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeList(s string) ([]string, error) {
	out := []string{}
	if s == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

var _ repository.ReportRepository = (*ReportRepository)(nil)
