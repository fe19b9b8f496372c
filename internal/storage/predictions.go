package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Veraticus/paddy/internal/common"
	"github.com/Veraticus/paddy/internal/model"
)

// Append stores a prediction record.
func (s *SQLiteStorage) Append(ctx context.Context, record model.PredictionRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRecord(&record); err != nil {
		return fmt.Errorf("%w: %w", common.ErrPersistence, err)
	}

	var data sql.NullString
	if record.Data != nil {
		encoded, err := json.Marshal(record.Data)
		if err != nil {
			return fmt.Errorf("%w: failed to encode tabular data: %w", common.ErrPersistence, err)
		}
		data = sql.NullString{String: string(encoded), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO predictions (id, type, result, data, timestamp)
		VALUES (?, ?, ?, ?, ?)
	`, record.ID, string(record.Type), record.Result, data, record.Timestamp.UTC())
	if err != nil {
		return fmt.Errorf("%w: failed to insert prediction: %w", common.ErrPersistence, err)
	}

	return nil
}

// FetchAll returns every stored prediction in insertion order.
func (s *SQLiteStorage) FetchAll(ctx context.Context) ([]model.PredictionRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, result, data, timestamp
		FROM predictions
		ORDER BY rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query predictions: %w", common.ErrPersistence, err)
	}
	defer func() { _ = rows.Close() }()

	var records []model.PredictionRecord
	for rows.Next() {
		var (
			record  model.PredictionRecord
			recType string
			data    sql.NullString
		)
		if err := rows.Scan(&record.ID, &recType, &record.Result, &data, &record.Timestamp); err != nil {
			return nil, fmt.Errorf("%w: failed to scan prediction: %w", common.ErrPersistence, err)
		}
		record.Type = model.PredictionType(recType)

		if data.Valid && data.String != "" {
			var sample model.TabularSample
			if err := json.Unmarshal([]byte(data.String), &sample); err != nil {
				return nil, fmt.Errorf("%w: corrupt tabular data for %s: %w", common.ErrPersistence, record.ID, err)
			}
			record.Data = &sample
		}

		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrPersistence, err)
	}
	return records, nil
}

// CountPredictions returns the number of stored predictions.
func (s *SQLiteStorage) CountPredictions(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM predictions`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count predictions: %w", err)
	}
	return count, nil
}
