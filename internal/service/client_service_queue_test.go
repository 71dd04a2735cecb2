package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/MKhiriev/triage-queue-sync/internal/adapter"
	"github.com/MKhiriev/triage-queue-sync/internal/clock"
	"github.com/MKhiriev/triage-queue-sync/internal/logger"
	"github.com/MKhiriev/triage-queue-sync/internal/mock"
	"github.com/MKhiriev/triage-queue-sync/internal/queuestore"
	"github.com/MKhiriev/triage-queue-sync/internal/store"
	"github.com/MKhiriev/triage-queue-sync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type queueFixture struct {
	svc        *queueService
	view       *queuestore.Store
	adapter    *mock.MockServerAdapter
	queue      *mock.MockQueueRepository
	recordings *mock.MockRecordingRepository
	ledger     *mock.MockLedgerRepository
	sync       *mock.MockClientSyncService
	publisher  *mock.MockPublisher
	scheduler  *mock.MockSyncScheduler
}

func newQueueFixture(t *testing.T) *queueFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	clk := clock.NewFake(testNow)

	f := &queueFixture{
		view:       queuestore.New(clk, logger.Nop()),
		adapter:    mock.NewMockServerAdapter(ctrl),
		queue:      mock.NewMockQueueRepository(ctrl),
		recordings: mock.NewMockRecordingRepository(ctrl),
		ledger:     mock.NewMockLedgerRepository(ctrl),
		sync:       mock.NewMockClientSyncService(ctrl),
		publisher:  mock.NewMockPublisher(ctrl),
		scheduler:  mock.NewMockSyncScheduler(ctrl),
	}
	storages := &store.ClientStorages{Queue: f.queue, Recordings: f.recordings, Ledger: f.ledger}
	f.svc = NewQueueService(f.adapter, storages, f.sync, f.view, f.publisher, f.scheduler, clk, logger.Nop()).(*queueService)
	return f
}

// seed puts items into the view without touching any mock.
func (f *queueFixture) seed(items ...models.QueueItem) {
	f.view.SetPatients(items)
}

func expectLedger(t *testing.T, ledger *mock.MockLedgerRepository, op models.MutationOp, entityID string) *gomock.Call {
	return ledger.EXPECT().Enqueue(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, m models.PendingMutation) error {
			assert.Equal(t, op, m.Op)
			assert.Equal(t, entityID, m.EntityID)
			assert.Equal(t, models.EntityPatient, m.EntityType)
			assert.Equal(t, models.MutationPending, m.Status)
			assert.NotEmpty(t, m.ID)
			return nil
		})
}

// expectNoUnsentCreate reports that the server already knows id.
func expectNoUnsentCreate(ledger *mock.MockLedgerRepository, id string) *gomock.Call {
	return ledger.EXPECT().CancelUnsentCreate(gomock.Any(), models.EntityPatient, id).Return(false, nil)
}

// ── Load ─────────────────────────────────────────────────────────────────────

func TestQueueService_Load(t *testing.T) {
	f := newQueueFixture(t)
	items := []models.QueueItem{patient("AAAA0001", models.TriageRed, models.StatusPending)}
	f.queue.EXPECT().List(gomock.Any(), models.QueueStatus("")).Return(items, nil)

	require.NoError(t, f.svc.Load(context.Background()))
	assert.Equal(t, items, f.view.Patients())
}

func TestQueueService_Load_Error(t *testing.T) {
	f := newQueueFixture(t)
	f.queue.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, store.ErrExecutingQuery)

	assert.ErrorIs(t, f.svc.Load(context.Background()), store.ErrExecutingQuery)
	assert.NotEmpty(t, f.view.Snapshot().Error)
}

// ── Add ──────────────────────────────────────────────────────────────────────

func TestQueueService_Add(t *testing.T) {
	f := newQueueFixture(t)
	f.seed(patient("AAAA0001", models.TriageGreen, models.StatusPending))

	var saved models.QueueItem
	f.queue.EXPECT().Save(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, item models.QueueItem) error {
			saved = item
			return nil
		})
	f.ledger.EXPECT().Enqueue(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, m models.PendingMutation) error {
			assert.Equal(t, models.OpCreate, m.Op)
			var payload models.QueueItem
			require.NoError(t, json.Unmarshal(m.Payload, &payload))
			assert.Equal(t, m.EntityID, payload.ID)
			assert.Equal(t, models.TriageRed, payload.TriageLevel)
			return nil
		})
	f.publisher.EXPECT().PatientAdded(gomock.Any(), gomock.Any()).Return(nil)
	f.scheduler.EXPECT().ScheduleSync(gomock.Any())

	item, err := f.svc.Add(context.Background(), models.QueueItem{
		TriageLevel:      models.TriageRed,
		TriageScore:      91,
		TriageConfidence: 100,
		Notes:            "stridor",
		Status:           models.StatusCompleted,
	})
	require.NoError(t, err)

	assert.Regexp(t, `^[0-9A-F]{8}$`, item.ID)
	assert.Equal(t, testNow, item.CreatedAt)
	assert.Equal(t, models.StatusPending, item.Status)
	assert.Equal(t, 1, item.Priority)
	assert.Equal(t, item, saved)

	// новая запись в начале очереди
	patients := f.view.Patients()
	require.Len(t, patients, 2)
	assert.Equal(t, item.ID, patients[0].ID)
}

func TestQueueService_Add_RequiresLevel(t *testing.T) {
	f := newQueueFixture(t)

	_, err := f.svc.Add(context.Background(), models.QueueItem{})
	assert.ErrorIs(t, err, ErrInvalidPatient)
	assert.Empty(t, f.view.Patients())
}

func TestQueueService_Add_StorageFailureUndoesView(t *testing.T) {
	f := newQueueFixture(t)
	f.queue.EXPECT().Save(gomock.Any(), gomock.Any()).Return(store.ErrExecutingStatement)

	_, err := f.svc.Add(context.Background(), models.QueueItem{TriageLevel: models.TriageYellow})
	assert.ErrorIs(t, err, store.ErrExecutingStatement)

	snap := f.view.Snapshot()
	assert.Empty(t, snap.Patients)
	assert.Empty(t, snap.Deleting)
	assert.NotEmpty(t, snap.Error)
}

func TestQueueService_Add_BroadcastFailureIsNotFatal(t *testing.T) {
	f := newQueueFixture(t)
	f.queue.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)
	f.ledger.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(nil)
	f.publisher.EXPECT().PatientAdded(gomock.Any(), gomock.Any()).Return(fmt.Errorf("transport closed"))
	f.scheduler.EXPECT().ScheduleSync(gomock.Any())

	_, err := f.svc.Add(context.Background(), models.QueueItem{TriageLevel: models.TriageGreen})
	require.NoError(t, err)
	assert.Len(t, f.view.Patients(), 1)
}

// ── Remove ───────────────────────────────────────────────────────────────────

func TestQueueService_Remove_Online(t *testing.T) {
	f := newQueueFixture(t)
	f.seed(patient("AAAA0001", models.TriageRed, models.StatusPending))

	gomock.InOrder(
		expectNoUnsentCreate(f.ledger, "AAAA0001"),
		f.scheduler.EXPECT().IsOnline().Return(true),
		f.adapter.EXPECT().DeletePatient(gomock.Any(), "AAAA0001").Return(nil),
		f.queue.EXPECT().Delete(gomock.Any(), "AAAA0001").Return(nil),
		f.publisher.EXPECT().PatientRemoved(gomock.Any(), "AAAA0001").Return(nil),
	)

	require.NoError(t, f.svc.Remove(context.Background(), "AAAA0001"))

	snap := f.view.Snapshot()
	assert.Empty(t, snap.Patients)
	assert.Empty(t, snap.Deleting)
}

func TestQueueService_Remove_NotFoundIsRecorded(t *testing.T) {
	f := newQueueFixture(t)
	f.seed(patient("AAAA0001", models.TriageRed, models.StatusPending))

	// 404 может прийти, пока create этой записи ещё в полёте
	gomock.InOrder(
		expectNoUnsentCreate(f.ledger, "AAAA0001"),
		f.scheduler.EXPECT().IsOnline().Return(true),
		f.adapter.EXPECT().DeletePatient(gomock.Any(), "AAAA0001").Return(fmt.Errorf("%w: Patient not found", adapter.ErrNotFound)),
		expectLedger(t, f.ledger, models.OpDelete, "AAAA0001"),
		f.queue.EXPECT().Delete(gomock.Any(), "AAAA0001").Return(nil),
		f.publisher.EXPECT().PatientRemoved(gomock.Any(), "AAAA0001").Return(nil),
		f.scheduler.EXPECT().ScheduleSync(gomock.Any()),
	)

	require.NoError(t, f.svc.Remove(context.Background(), "AAAA0001"))
	assert.Empty(t, f.view.Patients())
}

func TestQueueService_Remove_UnsentCreateIsCancelled(t *testing.T) {
	f := newQueueFixture(t)
	f.seed(patient("TMP00001", models.TriageYellow, models.StatusPending))

	// ни IsOnline, ни DeletePatient не вызываются: сервер эту запись не видел
	gomock.InOrder(
		f.ledger.EXPECT().CancelUnsentCreate(gomock.Any(), models.EntityPatient, "TMP00001").Return(true, nil),
		f.queue.EXPECT().Delete(gomock.Any(), "TMP00001").Return(nil),
		f.publisher.EXPECT().PatientRemoved(gomock.Any(), "TMP00001").Return(nil),
	)

	require.NoError(t, f.svc.Remove(context.Background(), "TMP00001"))

	snap := f.view.Snapshot()
	assert.Empty(t, snap.Patients)
	assert.Empty(t, snap.Deleting)
}

func TestQueueService_Remove_CancelFailureRecordsDelete(t *testing.T) {
	f := newQueueFixture(t)
	f.seed(patient("TMP00001", models.TriageYellow, models.StatusPending))

	gomock.InOrder(
		f.ledger.EXPECT().CancelUnsentCreate(gomock.Any(), models.EntityPatient, "TMP00001").
			Return(false, store.ErrExecutingStatement),
		expectLedger(t, f.ledger, models.OpDelete, "TMP00001"),
		f.queue.EXPECT().Delete(gomock.Any(), "TMP00001").Return(nil),
		f.publisher.EXPECT().PatientRemoved(gomock.Any(), "TMP00001").Return(nil),
		f.scheduler.EXPECT().ScheduleSync(gomock.Any()),
	)

	require.NoError(t, f.svc.Remove(context.Background(), "TMP00001"))
	assert.Empty(t, f.view.Patients())
}

func TestQueueService_Remove_Offline(t *testing.T) {
	f := newQueueFixture(t)
	f.seed(patient("AAAA0001", models.TriageRed, models.StatusPending))

	gomock.InOrder(
		expectNoUnsentCreate(f.ledger, "AAAA0001"),
		f.scheduler.EXPECT().IsOnline().Return(false),
		expectLedger(t, f.ledger, models.OpDelete, "AAAA0001"),
		f.queue.EXPECT().Delete(gomock.Any(), "AAAA0001").Return(nil),
		f.publisher.EXPECT().PatientRemoved(gomock.Any(), "AAAA0001").Return(nil),
		f.scheduler.EXPECT().ScheduleSync(gomock.Any()),
	)

	require.NoError(t, f.svc.Remove(context.Background(), "AAAA0001"))

	snap := f.view.Snapshot()
	assert.Empty(t, snap.Patients)
	assert.Empty(t, snap.Deleting)
}

func TestQueueService_Remove_TransientFailureDefers(t *testing.T) {
	f := newQueueFixture(t)
	f.seed(patient("AAAA0001", models.TriageRed, models.StatusPending))

	expectNoUnsentCreate(f.ledger, "AAAA0001")
	f.scheduler.EXPECT().IsOnline().Return(true)
	f.adapter.EXPECT().DeletePatient(gomock.Any(), "AAAA0001").Return(fmt.Errorf("%w: http 502", adapter.ErrUnavailable))
	expectLedger(t, f.ledger, models.OpDelete, "AAAA0001")
	f.queue.EXPECT().Delete(gomock.Any(), "AAAA0001").Return(nil)
	f.publisher.EXPECT().PatientRemoved(gomock.Any(), "AAAA0001").Return(nil)
	f.scheduler.EXPECT().ScheduleSync(gomock.Any())

	require.NoError(t, f.svc.Remove(context.Background(), "AAAA0001"))
	assert.Empty(t, f.view.Patients())
}

func TestQueueService_Remove_RejectedRollsBack(t *testing.T) {
	f := newQueueFixture(t)
	a := patient("AAAA0001", models.TriageRed, models.StatusPending)
	b := patient("BBBB0002", models.TriageGreen, models.StatusPending)
	f.seed(a, b)

	expectNoUnsentCreate(f.ledger, "AAAA0001")
	f.scheduler.EXPECT().IsOnline().Return(true)
	f.adapter.EXPECT().DeletePatient(gomock.Any(), "AAAA0001").
		Return(fmt.Errorf("%w: patient is locked", adapter.ErrConflict))

	err := f.svc.Remove(context.Background(), "AAAA0001")
	assert.ErrorIs(t, err, ErrRemoveRejected)
	assert.ErrorIs(t, err, adapter.ErrConflict)

	snap := f.view.Snapshot()
	// откат добавляет запись в конец
	assert.Equal(t, []string{"BBBB0002", "AAAA0001"}, ids(snap.Patients))
	assert.Empty(t, snap.Deleting)
	assert.Equal(t, "Failed to remove patient: conflicting change on server", snap.Error)
}

func TestQueueService_Remove_LedgerFailureRollsBack(t *testing.T) {
	f := newQueueFixture(t)
	f.seed(patient("AAAA0001", models.TriageRed, models.StatusPending))

	expectNoUnsentCreate(f.ledger, "AAAA0001")
	f.scheduler.EXPECT().IsOnline().Return(false)
	f.ledger.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(store.ErrExecutingStatement)

	err := f.svc.Remove(context.Background(), "AAAA0001")
	assert.ErrorIs(t, err, store.ErrExecutingStatement)
	assert.Len(t, f.view.Patients(), 1)
	assert.Empty(t, f.view.Snapshot().Deleting)
}

func TestQueueService_Remove_CancelledRollsBack(t *testing.T) {
	f := newQueueFixture(t)
	f.seed(patient("AAAA0001", models.TriageRed, models.StatusPending))
	ctx, cancel := context.WithCancel(context.Background())

	expectNoUnsentCreate(f.ledger, "AAAA0001")
	f.scheduler.EXPECT().IsOnline().Return(true)
	f.adapter.EXPECT().DeletePatient(gomock.Any(), "AAAA0001").
		DoAndReturn(func(context.Context, string) error {
			cancel()
			return context.Canceled
		})

	assert.ErrorIs(t, f.svc.Remove(ctx, "AAAA0001"), context.Canceled)
	assert.Len(t, f.view.Patients(), 1)
}

func TestQueueService_Remove_NoOps(t *testing.T) {
	t.Run("absent", func(t *testing.T) {
		f := newQueueFixture(t)
		require.NoError(t, f.svc.Remove(context.Background(), "ZZZZ9999"))
	})

	t.Run("already deleting", func(t *testing.T) {
		f := newQueueFixture(t)
		f.seed(patient("AAAA0001", models.TriageRed, models.StatusPending))
		require.True(t, f.view.RemovePatient("AAAA0001"))

		require.NoError(t, f.svc.Remove(context.Background(), "AAAA0001"))
		assert.Equal(t, []string{"AAAA0001"}, f.view.Snapshot().Deleting)
	})
}

// ── Update ───────────────────────────────────────────────────────────────────

func TestQueueService_Update(t *testing.T) {
	f := newQueueFixture(t)
	f.seed(patient("AAAA0001", models.TriageRed, models.StatusPending))
	patch := models.QueueItemPatch{Status: ptr(models.StatusReviewing), ReviewedBy: ptr("dr. Lin")}

	f.queue.EXPECT().Save(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, item models.QueueItem) error {
			assert.Equal(t, models.StatusReviewing, item.Status)
			return nil
		})
	f.ledger.EXPECT().Enqueue(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, m models.PendingMutation) error {
			assert.Equal(t, models.OpUpdate, m.Op)
			var got models.QueueItemPatch
			require.NoError(t, json.Unmarshal(m.Payload, &got))
			assert.Equal(t, patch, got)
			return nil
		})
	f.publisher.EXPECT().QueueRefreshed(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, items []models.QueueItem) error {
			require.Len(t, items, 1)
			assert.Equal(t, "dr. Lin", items[0].ReviewedBy)
			return nil
		})
	f.scheduler.EXPECT().ScheduleSync(gomock.Any())

	updated, err := f.svc.Update(context.Background(), "AAAA0001", patch)
	require.NoError(t, err)
	assert.Equal(t, models.StatusReviewing, updated.Status)
	assert.Equal(t, "dr. Lin", updated.ReviewedBy)
}

func TestQueueService_Update_Errors(t *testing.T) {
	f := newQueueFixture(t)
	f.seed(patient("AAAA0001", models.TriageRed, models.StatusPending))

	_, err := f.svc.Update(context.Background(), "ZZZZ9999", models.QueueItemPatch{Notes: ptr("x")})
	assert.ErrorIs(t, err, ErrPatientNotFound)

	_, err = f.svc.Update(context.Background(), "AAAA0001", models.QueueItemPatch{Status: ptr(models.QueueStatus("archived"))})
	assert.ErrorIs(t, err, ErrInvalidPatient)

	// пустой патч ничего не меняет
	item, err := f.svc.Update(context.Background(), "AAAA0001", models.QueueItemPatch{})
	require.NoError(t, err)
	assert.Equal(t, "AAAA0001", item.ID)
}

// ── Refresh ──────────────────────────────────────────────────────────────────

func TestQueueService_Refresh(t *testing.T) {
	f := newQueueFixture(t)
	f.view.SetError("stale")
	f.sync.EXPECT().Pull(gomock.Any()).Return(nil, nil)

	require.NoError(t, f.svc.Refresh(context.Background()))
	assert.Empty(t, f.view.Snapshot().Error)
}

func TestQueueService_Refresh_Error(t *testing.T) {
	f := newQueueFixture(t)
	f.sync.EXPECT().Pull(gomock.Any()).Return(nil, fmt.Errorf("fetch server queue: %w", adapter.ErrUnavailable))

	assert.ErrorIs(t, f.svc.Refresh(context.Background()), adapter.ErrUnavailable)
	assert.Equal(t, "Failed to refresh queue: server unreachable", f.view.Snapshot().Error)
}

// ── Stats ────────────────────────────────────────────────────────────────────

func TestQueueService_Stats(t *testing.T) {
	f := newQueueFixture(t)
	f.queue.EXPECT().Stats(gomock.Any()).Return(models.QueueStats{TotalCount: 3, ActiveCount: 2}, nil)
	f.ledger.EXPECT().Counts(gomock.Any()).Return(map[models.MutationStatus]int{models.MutationPending: 2}, nil)

	stats, err := f.svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalCount)
	assert.Equal(t, 2, stats.Ledger[models.MutationPending])
}

func TestQueueService_Stats_LedgerError(t *testing.T) {
	f := newQueueFixture(t)
	f.queue.EXPECT().Stats(gomock.Any()).Return(models.QueueStats{}, nil)
	f.ledger.EXPECT().Counts(gomock.Any()).Return(nil, store.ErrScanningRows)

	_, err := f.svc.Stats(context.Background())
	assert.ErrorIs(t, err, store.ErrScanningRows)
}

// ── Recordings ───────────────────────────────────────────────────────────────

func TestQueueService_AttachRecording(t *testing.T) {
	f := newQueueFixture(t)
	f.seed(patient("AAAA0001", models.TriageRed, models.StatusPending))

	f.recordings.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)

	rec, err := f.svc.AttachRecording(context.Background(), models.Recording{
		PatientID:  "AAAA0001",
		Format:     "wav",
		Data:       []byte("RIFF"),
		DurationMs: 1200,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, testNow, rec.CreatedAt)
}

func TestQueueService_AttachRecording_Invalid(t *testing.T) {
	f := newQueueFixture(t)

	_, err := f.svc.AttachRecording(context.Background(), models.Recording{PatientID: "AAAA0001"})
	assert.ErrorIs(t, err, ErrInvalidRecording)

	_, err = f.svc.AttachRecording(context.Background(), models.Recording{PatientID: "ZZZZ9999", Data: []byte{1}})
	assert.ErrorIs(t, err, ErrPatientNotFound)
}

func TestQueueService_Recordings(t *testing.T) {
	f := newQueueFixture(t)
	want := []models.Recording{{ID: "r1", PatientID: "AAAA0001"}}
	f.recordings.EXPECT().ListByPatient(gomock.Any(), "AAAA0001").Return(want, nil)

	got, err := f.svc.Recordings(context.Background(), "AAAA0001")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

// ── ExportCSV ────────────────────────────────────────────────────────────────

func TestQueueService_ExportCSV(t *testing.T) {
	f := newQueueFixture(t)
	item := patient("AAAA0001", models.TriageRed, models.StatusPending)
	item.SNRDB = ptr(18.3)
	item.AgreementPercentage = ptr(92)
	item.Notes = "wheeze, fever"
	f.queue.EXPECT().List(gomock.Any(), models.QueueStatus("")).Return([]models.QueueItem{item}, nil)

	var buf bytes.Buffer
	require.NoError(t, f.svc.ExportCSV(context.Background(), &buf))

	want := "ID,Created,Status,Priority,Triage Level,Score,Confidence,SNR (dB),Speech %,Quality Reliable,WER,WER Severity,Agreement %,Consensus,Notes\n" +
		"AAAA0001,2026-03-14T09:30:00Z,pending,2,RED,50,80,18.3,,false,,,92,,\"wheeze, fever\"\n"
	assert.Equal(t, want, buf.String())
}

func TestQueueService_ExportCSV_ListError(t *testing.T) {
	f := newQueueFixture(t)
	f.queue.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, store.ErrExecutingQuery)

	assert.ErrorIs(t, f.svc.ExportCSV(context.Background(), &bytes.Buffer{}), store.ErrExecutingQuery)
}
