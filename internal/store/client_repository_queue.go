package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MKhiriev/triage-queue-sync/internal/logger"
	"github.com/MKhiriev/triage-queue-sync/models"
)

// queueRepository keeps each entry as a JSON document next to the columns
// used for filtering and ordering.
type queueRepository struct {
	*DB
	logger *logger.Logger
}

func NewQueueRepository(db *DB, logger *logger.Logger) QueueRepository {
	return &queueRepository{DB: db, logger: logger}
}

// ReplaceAll runs in one transaction: entries absent from items are deleted
// (recordings follow through the foreign key), the rest are upserted.
func (q *queueRepository) ReplaceAll(ctx context.Context, items []models.QueueItem) error {
	log := logger.FromContext(ctx)

	keep := make([]string, 0, len(items))
	for _, item := range items {
		keep = append(keep, item.ID)
	}
	deleteQuery, deleteArgs, err := buildDeleteMissingPatientsQuery(keep)
	if err != nil {
		return err
	}

	tx, err := q.DB.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).Str("func", "queueRepository.ReplaceAll").Msg("failed to begin transaction")
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx, deleteQuery, deleteArgs...); err != nil {
		log.Err(err).Str("func", "queueRepository.ReplaceAll").Msg("failed to delete stale patients")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	if len(items) > 0 {
		stmt, err := tx.PrepareContext(ctx, upsertPatient)
		if err != nil {
			log.Err(err).Str("func", "queueRepository.ReplaceAll").Msg("failed to prepare statement")
			return fmt.Errorf("%w: %w", ErrPreparingStatement, err)
		}
		defer stmt.Close()

		for _, item := range items {
			args, err := patientArgs(item)
			if err != nil {
				return err
			}
			if _, err = stmt.ExecContext(ctx, args...); err != nil {
				log.Err(err).
					Str("func", "queueRepository.ReplaceAll").
					Str("patient_id", item.ID).
					Msg("failed to upsert patient")
				return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		log.Err(err).Str("func", "queueRepository.ReplaceAll").Msg("failed to commit transaction")
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}

	log.Debug().Str("func", "queueRepository.ReplaceAll").Int("count", len(items)).Msg("queue replaced")
	return nil
}

func (q *queueRepository) Save(ctx context.Context, item models.QueueItem) error {
	args, err := patientArgs(item)
	if err != nil {
		return err
	}

	if _, err = q.DB.ExecContext(ctx, upsertPatient, args...); err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "queueRepository.Save").
			Str("patient_id", item.ID).
			Msg("failed to save patient")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return nil
}

func (q *queueRepository) Get(ctx context.Context, id string) (models.QueueItem, error) {
	var document []byte
	err := q.DB.QueryRowContext(ctx, getPatientDocument, id).Scan(&document)
	if errors.Is(err, sql.ErrNoRows) {
		return models.QueueItem{}, fmt.Errorf("%w: %s", ErrPatientNotFound, id)
	}
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "queueRepository.Get").
			Str("patient_id", id).
			Msg("failed to get patient")
		return models.QueueItem{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return decodePatient(document)
}

func (q *queueRepository) List(ctx context.Context, status models.QueueStatus) ([]models.QueueItem, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildListPatientsQuery(status)
	if err != nil {
		return nil, err
	}

	rows, err := q.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", "queueRepository.List").Str("status", string(status)).Msg("failed to list patients")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	items := make([]models.QueueItem, 0, 32)
	for rows.Next() {
		var document []byte
		if err = rows.Scan(&document); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		item, err := decodePatient(document)
		if err != nil {
			log.Warn().Err(err).Str("func", "queueRepository.List").Msg("skipping unreadable patient")
			continue
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	models.SortQueue(items)
	return items, nil
}

func (q *queueRepository) Delete(ctx context.Context, id string) error {
	if _, err := q.DB.ExecContext(ctx, deletePatient, id); err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "queueRepository.Delete").
			Str("patient_id", id).
			Msg("failed to delete patient")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return nil
}

// Rename rewrites the stored document under newID. A missing entry is not an
// error: the next pull brings it back under its server id anyway.
func (q *queueRepository) Rename(ctx context.Context, oldID, newID string) error {
	if oldID == newID {
		return nil
	}

	item, err := q.Get(ctx, oldID)
	if errors.Is(err, ErrPatientNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	item.ID = newID
	document, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encode patient: %w", err)
	}

	if _, err = q.DB.ExecContext(ctx, renamePatient, newID, document, oldID); err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "queueRepository.Rename").
			Str("old_id", oldID).
			Str("new_id", newID).
			Msg("failed to rename patient")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return nil
}

func (q *queueRepository) Stats(ctx context.Context) (models.QueueStats, error) {
	stats := models.QueueStats{
		ByLevel:  make(map[models.TriageLevel]int),
		ByStatus: make(map[models.QueueStatus]int),
	}

	query, args, err := buildActiveByLevelQuery()
	if err != nil {
		return stats, err
	}
	err = q.countGroups(ctx, query, args, func(key string, n int) {
		stats.ByLevel[models.TriageLevel(key)] = n
		stats.ActiveCount += n
	})
	if err != nil {
		return stats, err
	}

	query, args, err = buildByStatusQuery()
	if err != nil {
		return stats, err
	}
	err = q.countGroups(ctx, query, args, func(key string, n int) {
		stats.ByStatus[models.QueueStatus(key)] = n
		stats.TotalCount += n
	})
	return stats, err
}

func (q *queueRepository) countGroups(ctx context.Context, query string, args []any, add func(key string, n int)) error {
	return countGroups(ctx, q.DB.DB, query, args, add)
}

// countGroups scans (key, count) rows of a GROUP BY query.
func countGroups(ctx context.Context, db *sql.DB, query string, args []any, add func(key string, n int)) error {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "countGroups").Msg("failed to count")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			key string
			n   int
		)
		if err = rows.Scan(&key, &n); err != nil {
			return fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		add(key, n)
	}
	if err = rows.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrScanningRows, err)
	}
	return nil
}

func patientArgs(item models.QueueItem) ([]any, error) {
	document, err := json.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("encode patient %s: %w", item.ID, err)
	}

	var updatedAt any
	if !item.UpdatedAt.IsZero() {
		updatedAt = item.UpdatedAt
	}
	return []any{
		item.ID,
		string(item.Status),
		item.Priority,
		string(item.TriageLevel),
		item.CreatedAt,
		updatedAt,
		document,
	}, nil
}

func decodePatient(document []byte) (models.QueueItem, error) {
	var item models.QueueItem
	if err := json.Unmarshal(document, &item); err != nil {
		return models.QueueItem{}, fmt.Errorf("%w: %w", ErrCorruptDocument, err)
	}
	return item, nil
}
