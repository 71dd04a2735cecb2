package service

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/MKhiriev/triage-queue-sync/models"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func patient(id string, level models.TriageLevel, status models.QueueStatus) models.QueueItem {
	return models.QueueItem{
		ID:               id,
		CreatedAt:        testNow,
		UpdatedAt:        testNow,
		TriageLevel:      level,
		TriageScore:      50,
		TriageConfidence: 80,
		Status:           status,
		Priority:         models.CalculatePriority(level, 80),
	}
}

func mutation(t *testing.T, id string, op models.MutationOp, entityID string, payload any) models.PendingMutation {
	t.Helper()
	m := models.PendingMutation{
		ID:         id,
		EntityType: models.EntityPatient,
		EntityID:   entityID,
		Op:         op,
		Status:     models.MutationPending,
		CreatedAt:  testNow,
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		m.Payload = raw
	}
	return m
}

func ptr[T any](v T) *T { return &v }

func ids(items []models.QueueItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}
