package store

import (
	"context"
	"fmt"

	"github.com/MKhiriev/triage-queue-sync/internal/logger"
	"github.com/MKhiriev/triage-queue-sync/models"
)

type recordingRepository struct {
	*DB
	logger *logger.Logger
}

func NewRecordingRepository(db *DB, logger *logger.Logger) RecordingRepository {
	return &recordingRepository{DB: db, logger: logger}
}

func (r *recordingRepository) Save(ctx context.Context, rec models.Recording) error {
	_, err := r.DB.ExecContext(ctx, saveRecording,
		rec.ID,
		rec.PatientID,
		rec.Format,
		rec.Data,
		rec.DurationMs,
		rec.CreatedAt,
	)
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "recordingRepository.Save").
			Str("patient_id", rec.PatientID).
			Msg("failed to save recording")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return nil
}

func (r *recordingRepository) ListByPatient(ctx context.Context, patientID string) ([]models.Recording, error) {
	rows, err := r.DB.QueryContext(ctx, listRecordingsByPatient, patientID)
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "recordingRepository.ListByPatient").
			Str("patient_id", patientID).
			Msg("failed to list recordings")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var recs []models.Recording
	for rows.Next() {
		var rec models.Recording
		if err = rows.Scan(&rec.ID, &rec.PatientID, &rec.Format, &rec.Data, &rec.DurationMs, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		recs = append(recs, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}
	return recs, nil
}
