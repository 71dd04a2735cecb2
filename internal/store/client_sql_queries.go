// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/triage-queue-sync/models"
)

const (
	upsertPatient = `
		INSERT INTO patients (
			id,
			status,
			priority,
			triage_level,
			created_at,
			updated_at,
			document
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			status       = excluded.status,
			priority     = excluded.priority,
			triage_level = excluded.triage_level,
			created_at   = excluded.created_at,
			updated_at   = excluded.updated_at,
			document     = excluded.document;`

	getPatientDocument = `SELECT document FROM patients WHERE id = ?;`

	deletePatient = `DELETE FROM patients WHERE id = ?;`

	renamePatient = `UPDATE patients SET id = ?, document = ? WHERE id = ?;`

	saveRecording = `
		INSERT INTO recordings (
			id,
			patient_id,
			format,
			data,
			duration_ms,
			created_at
		) VALUES (?, ?, ?, ?, ?, ?);`

	listRecordingsByPatient = `
		SELECT
			id,
			patient_id,
			format,
			data,
			duration_ms,
			created_at
		FROM recordings
		WHERE patient_id = ?
		ORDER BY created_at;`

	insertPendingMutation = `
		INSERT INTO pending_mutations (
			id,
			entity_type,
			entity_id,
			op,
			payload,
			status,
			attempts,
			last_error,
			created_at,
			updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`

	purgeCompletedMutations = `DELETE FROM pending_mutations WHERE status = 'completed';`
)

var pendingMutationColumns = []string{
	"id", "entity_type", "entity_id", "op", "payload",
	"status", "attempts", "last_error", "created_at", "updated_at",
}

// unfinishedStatuses are the ledger states that still need a flush. An entry
// left in_progress by a crash is picked up again.
var unfinishedStatuses = []string{
	string(models.MutationPending),
	string(models.MutationInProgress),
	string(models.MutationFailed),
}

func buildListPatientsQuery(status models.QueueStatus) (string, []any, error) {
	q := builder.Select("document").From("patients")
	if status != "" {
		q = q.Where(sq.Eq{"status": string(status)})
	}
	return wrapBuild(q.OrderBy("priority", "created_at").ToSql())
}

// buildDeleteMissingPatientsQuery deletes every entry whose id is not in keep.
func buildDeleteMissingPatientsQuery(keep []string) (string, []any, error) {
	q := builder.Delete("patients")
	if len(keep) > 0 {
		q = q.Where(sq.NotEq{"id": keep})
	}
	return wrapBuild(q.ToSql())
}

func buildActiveByLevelQuery() (string, []any, error) {
	return wrapBuild(builder.
		Select("triage_level", "COUNT(*)").
		From("patients").
		Where(sq.Eq{"status": []string{string(models.StatusPending), string(models.StatusReviewing)}}).
		GroupBy("triage_level").
		ToSql())
}

func buildByStatusQuery() (string, []any, error) {
	return wrapBuild(builder.
		Select("status", "COUNT(*)").
		From("patients").
		GroupBy("status").
		ToSql())
}

func buildListPendingMutationsQuery(maxAttempts int) (string, []any, error) {
	q := builder.
		Select(pendingMutationColumns...).
		From("pending_mutations").
		Where(sq.Eq{"status": unfinishedStatuses})
	if maxAttempts > 0 {
		q = q.Where(sq.Lt{"attempts": maxAttempts})
	}
	return wrapBuild(q.OrderBy("seq").ToSql())
}

// waitingStatuses are the unfinished states no flush is working on.
var waitingStatuses = []string{
	string(models.MutationPending),
	string(models.MutationFailed),
}

func buildMarkMutationQuery(id string, status models.MutationStatus, cause string, setAttempts int, at time.Time) (string, []any, error) {
	q := builder.Update("pending_mutations").
		Set("status", string(status)).
		Set("updated_at", at)

	where := sq.Eq{"id": id}
	if status == models.MutationInProgress {
		// a cancelled entry must not be picked up again
		where["status"] = unfinishedStatuses
	}

	if status == models.MutationFailed {
		q = q.Set("last_error", cause)
		if setAttempts > 0 {
			q = q.Set("attempts", setAttempts)
		} else {
			q = q.Set("attempts", sq.Expr("attempts + 1"))
		}
	}
	return wrapBuild(q.Where(where).ToSql())
}

func buildRemapEntityQuery(entityType, oldID, newID string, at time.Time) (string, []any, error) {
	return wrapBuild(builder.Update("pending_mutations").
		Set("entity_id", newID).
		Set("updated_at", at).
		Where(sq.Eq{
			"entity_type": entityType,
			"entity_id":   oldID,
			"status":      unfinishedStatuses,
		}).
		ToSql())
}

func buildCancelUnsentCreateQuery(entityType, entityID string, at time.Time) (string, []any, error) {
	waiting := sq.Eq{"status": waitingStatuses}
	create, createArgs, err := builder.
		Select("1").
		From("pending_mutations").
		Where(sq.Eq{
			"entity_type": entityType,
			"entity_id":   entityID,
			"op":          string(models.OpCreate),
		}).
		Where(waiting).
		ToSql()
	if err != nil {
		return wrapBuild("", nil, err)
	}

	return wrapBuild(builder.Update("pending_mutations").
		Set("status", string(models.MutationCompleted)).
		Set("last_error", "cancelled").
		Set("updated_at", at).
		Where(sq.Eq{
			"entity_type": entityType,
			"entity_id":   entityID,
		}).
		Where(waiting).
		Where(sq.Expr("EXISTS ("+create+")", createArgs...)).
		ToSql())
}

func buildMutationCountsQuery() (string, []any, error) {
	return wrapBuild(builder.
		Select("status", "COUNT(*)").
		From("pending_mutations").
		GroupBy("status").
		ToSql())
}

func wrapBuild(query string, args []any, err error) (string, []any, error) {
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return query, args, nil
}
