package store

import (
	"context"
	"fmt"

	"github.com/MKhiriev/triage-queue-sync/internal/clock"
	"github.com/MKhiriev/triage-queue-sync/internal/logger"
	"github.com/MKhiriev/triage-queue-sync/models"
)

// ledgerRepository is the SQLite-backed pending-mutation ledger. Entries are
// ordered by an autoincrement sequence, so flush order is insertion order
// even when timestamps collide.
type ledgerRepository struct {
	*DB
	clock  clock.Clock
	logger *logger.Logger
}

func NewLedgerRepository(db *DB, clk clock.Clock, logger *logger.Logger) LedgerRepository {
	return &ledgerRepository{DB: db, clock: clk, logger: logger}
}

func (l *ledgerRepository) Enqueue(ctx context.Context, m models.PendingMutation) error {
	now := l.clock.Now()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	if m.Status == "" {
		m.Status = models.MutationPending
	}

	var payload any
	if len(m.Payload) > 0 {
		payload = []byte(m.Payload)
	}

	_, err := l.DB.ExecContext(ctx, insertPendingMutation,
		m.ID,
		m.EntityType,
		m.EntityID,
		string(m.Op),
		payload,
		string(m.Status),
		m.Attempts,
		m.LastError,
		m.CreatedAt,
		now,
	)
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "ledgerRepository.Enqueue").
			Str("entity_id", m.EntityID).
			Str("op", string(m.Op)).
			Msg("failed to enqueue mutation")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return nil
}

func (l *ledgerRepository) ListPending(ctx context.Context, maxAttempts int) ([]models.PendingMutation, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildListPendingMutationsQuery(maxAttempts)
	if err != nil {
		return nil, err
	}

	rows, err := l.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", "ledgerRepository.ListPending").Msg("failed to list pending mutations")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var out []models.PendingMutation
	for rows.Next() {
		var (
			m       models.PendingMutation
			op      string
			status  string
			payload []byte
		)
		err = rows.Scan(
			&m.ID,
			&m.EntityType,
			&m.EntityID,
			&op,
			&payload,
			&status,
			&m.Attempts,
			&m.LastError,
			&m.CreatedAt,
			&m.UpdatedAt,
		)
		if err != nil {
			log.Err(err).Str("func", "ledgerRepository.ListPending").Msg("failed to scan pending mutation")
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		m.Op = models.MutationOp(op)
		m.Status = models.MutationStatus(status)
		m.Payload = payload
		out = append(out, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}
	return out, nil
}

func (l *ledgerRepository) MarkInProgress(ctx context.Context, id string) error {
	return l.mark(ctx, id, models.MutationInProgress, "", 0)
}

func (l *ledgerRepository) MarkCompleted(ctx context.Context, id string) error {
	return l.mark(ctx, id, models.MutationCompleted, "", 0)
}

func (l *ledgerRepository) MarkFailed(ctx context.Context, id string, cause string, setAttempts int) error {
	return l.mark(ctx, id, models.MutationFailed, cause, setAttempts)
}

func (l *ledgerRepository) mark(ctx context.Context, id string, status models.MutationStatus, cause string, setAttempts int) error {
	query, args, err := buildMarkMutationQuery(id, status, cause, setAttempts, l.clock.Now())
	if err != nil {
		return err
	}

	res, err := l.DB.ExecContext(ctx, query, args...)
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "ledgerRepository.mark").
			Str("mutation_id", id).
			Str("status", string(status)).
			Msg("failed to update mutation status")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrMutationNotFound, id)
	}
	return nil
}

func (l *ledgerRepository) RemapEntity(ctx context.Context, entityType, oldID, newID string) error {
	query, args, err := buildRemapEntityQuery(entityType, oldID, newID, l.clock.Now())
	if err != nil {
		return err
	}

	if _, err = l.DB.ExecContext(ctx, query, args...); err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "ledgerRepository.RemapEntity").
			Str("old_id", oldID).
			Str("new_id", newID).
			Msg("failed to remap mutations")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return nil
}

func (l *ledgerRepository) CancelUnsentCreate(ctx context.Context, entityType, entityID string) (bool, error) {
	query, args, err := buildCancelUnsentCreateQuery(entityType, entityID, l.clock.Now())
	if err != nil {
		return false, err
	}

	res, err := l.DB.ExecContext(ctx, query, args...)
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "ledgerRepository.CancelUnsentCreate").
			Str("entity_id", entityID).
			Msg("failed to cancel unsent mutations")
		return false, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return n > 0, nil
}

func (l *ledgerRepository) Counts(ctx context.Context) (map[models.MutationStatus]int, error) {
	query, args, err := buildMutationCountsQuery()
	if err != nil {
		return nil, err
	}

	counts := make(map[models.MutationStatus]int)
	err = countGroups(ctx, l.DB.DB, query, args, func(key string, n int) {
		counts[models.MutationStatus(key)] = n
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}

func (l *ledgerRepository) PurgeCompleted(ctx context.Context) (int64, error) {
	res, err := l.DB.ExecContext(ctx, purgeCompletedMutations)
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "ledgerRepository.PurgeCompleted").Msg("failed to purge ledger")
		return 0, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return res.RowsAffected()
}
