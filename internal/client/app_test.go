package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/MKhiriev/triage-queue-sync/internal/broadcast"
	"github.com/MKhiriev/triage-queue-sync/internal/config"
	"github.com/MKhiriev/triage-queue-sync/internal/logger"
	"github.com/MKhiriev/triage-queue-sync/models"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitFor = 5 * time.Second

// testConfig собирает конфиг с короткими интервалами и базой во временной папке
func testConfig(t *testing.T, serverURL, dbName string) *config.ClientConfig {
	t.Helper()
	cfg := config.DefaultClientConfig()
	cfg.Adapter.HTTPAddress = serverURL
	cfg.Adapter.RequestTimeout = time.Second
	cfg.Storage.DB.DSN = filepath.Join(t.TempDir(), dbName)
	cfg.Connectivity.StartupGrace = 0
	cfg.Connectivity.OnlineSyncDelay = 10 * time.Millisecond
	cfg.Connectivity.RetryBase = 10 * time.Millisecond
	cfg.Connectivity.RetryCap = 50 * time.Millisecond
	cfg.Realtime.ReconnectBase = 10 * time.Millisecond
	cfg.Realtime.ReconnectCap = 50 * time.Millisecond
	cfg.Broadcast.Disabled = true
	require.NoError(t, cfg.Validate())
	return cfg
}

// deadURL возвращает адрес сервера, который уже остановлен
func deadURL(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	return srv.URL
}

type fakeServer struct {
	mu      sync.Mutex
	queue   []models.QueueItem
	created []models.PatientData
	deleted []string

	// rejectCreates answers every POST /queue with 503
	rejectCreates bool
	posts         int
}

func (f *fakeServer) start(t *testing.T, register ...func(r chi.Router)) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, models.HealthResponse{Status: "healthy"})
	})
	r.Get("/queue", func(w http.ResponseWriter, _ *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, models.QueueResponse{Status: "success", Patients: f.queue, Count: len(f.queue)})
	})
	r.Post("/queue", func(w http.ResponseWriter, req *http.Request) {
		var data models.PatientData
		if err := json.NewDecoder(req.Body).Decode(&data); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.posts++
		if f.rejectCreates {
			f.mu.Unlock()
			writeDetail(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		f.created = append(f.created, data)
		id := fmt.Sprintf("SRV%05d", len(f.created))
		f.queue = append(f.queue, models.QueueItem{ID: id, TriageLevel: data.Triage.Level, Status: models.StatusPending})
		f.mu.Unlock()
		writeJSON(w, models.AddPatientResponse{Status: "success", PatientID: id, Priority: 1})
	})
	r.Delete("/queue/{id}", func(w http.ResponseWriter, req *http.Request) {
		id := chi.URLParam(req, "id")
		f.mu.Lock()
		n := len(f.queue)
		f.queue = slices.DeleteFunc(f.queue, func(item models.QueueItem) bool { return item.ID == id })
		found := len(f.queue) < n
		if found {
			f.deleted = append(f.deleted, id)
		}
		f.mu.Unlock()

		if !found {
			writeDetail(w, http.StatusNotFound, "Patient not found")
			return
		}
		writeJSON(w, map[string]string{"status": "success"})
	})
	for _, fn := range register {
		fn(r)
	}

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func (f *fakeServer) createdCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

func (f *fakeServer) setRejectCreates(reject bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rejectCreates = reject
}

func (f *fakeServer) postCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.posts
}

func (f *fakeServer) levels() []models.TriageLevel {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.TriageLevel, 0, len(f.queue))
	for _, item := range f.queue {
		out = append(out, item.TriageLevel)
	}
	return out
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, code int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}

func newTestApp(t *testing.T, cfg *config.ClientConfig, opts ...Option) *App {
	t.Helper()
	app, err := NewApp(cfg, logger.Nop(), opts...)
	require.NoError(t, err)
	t.Cleanup(app.Stop)
	return app
}

func hasPatient(app *App, id string) bool {
	_, ok := app.Store().Patient(id)
	return ok
}

// ── lifecycle ───────────────────────────────────────────────────────────────

func TestNewApp_InvalidAddress(t *testing.T) {
	cfg := config.DefaultClientConfig()
	cfg.Adapter.HTTPAddress = ""

	_, err := NewApp(cfg, logger.Nop())
	require.Error(t, err)
}

func TestApp_ServicesNeedStart(t *testing.T) {
	app := newTestApp(t, testConfig(t, deadURL(t), "queue.db"))

	_, err := app.Queue()
	require.ErrorIs(t, err, ErrNotStarted)
	_, err = app.Monitor()
	require.ErrorIs(t, err, ErrNotStarted)

	// Stop без Start ничего не ломает
	app.Stop()
}

func TestApp_StartStopIsRepeatable(t *testing.T) {
	app := newTestApp(t, testConfig(t, deadURL(t), "queue.db"))
	ctx := context.Background()

	require.NoError(t, app.Start(ctx))
	require.NoError(t, app.Start(ctx))
	app.Stop()
	app.Stop()

	_, err := app.Queue()
	require.ErrorIs(t, err, ErrNotStarted)
}

func TestApp_GoesOnlineAndPullsOnRequest(t *testing.T) {
	server := &fakeServer{queue: []models.QueueItem{{ID: "AAAA0001", TriageLevel: models.TriageRed, Status: models.StatusPending}}}
	srv := server.start(t)

	app := newTestApp(t, testConfig(t, srv.URL, "queue.db"))
	require.NoError(t, app.Start(context.Background()))

	require.Eventually(t, func() bool {
		return app.Store().Snapshot().Connectivity == models.ConnectivityOnline
	}, waitFor, 10*time.Millisecond)

	app.RequestSync()
	require.Eventually(t, func() bool { return hasPatient(app, "AAAA0001") }, waitFor, 10*time.Millisecond)
}

// ── offline work ────────────────────────────────────────────────────────────

func TestApp_OfflineAddSurvivesRestartAndIsFlushed(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, deadURL(t), "queue.db")

	first := newTestApp(t, cfg)
	require.NoError(t, first.Start(ctx))
	queue, err := first.Queue()
	require.NoError(t, err)

	added, err := queue.Add(ctx, models.QueueItem{TriageLevel: models.TriageYellow, TriageConfidence: 80})
	require.NoError(t, err)
	assert.True(t, hasPatient(first, added.ID))
	first.Stop()

	server := &fakeServer{}
	srv := server.start(t)
	cfg.Adapter.HTTPAddress = srv.URL

	second := newTestApp(t, cfg)
	require.NoError(t, second.Start(ctx))
	assert.True(t, hasPatient(second, added.ID), "saved queue is loaded on start")

	require.Eventually(t, func() bool {
		return second.Store().Snapshot().Connectivity == models.ConnectivityOnline
	}, waitFor, 10*time.Millisecond)
	second.RequestSync()

	require.Eventually(t, func() bool { return server.createdCount() == 1 }, waitFor, 10*time.Millisecond)
	require.Eventually(t, func() bool { return hasPatient(second, "SRV00001") }, waitFor, 10*time.Millisecond)
	assert.False(t, hasPatient(second, added.ID), "local id is replaced by the server id")
}

func TestApp_RemovingUnsentPatientDoesNotResurrectIt(t *testing.T) {
	ctx := context.Background()
	server := &fakeServer{rejectCreates: true}
	srv := server.start(t)

	app := newTestApp(t, testConfig(t, srv.URL, "queue.db"))
	require.NoError(t, app.Start(ctx))
	require.Eventually(t, func() bool {
		return app.Store().Snapshot().Connectivity == models.ConnectivityOnline
	}, waitFor, 10*time.Millisecond)

	queue, err := app.Queue()
	require.NoError(t, err)

	removed, err := queue.Add(ctx, models.QueueItem{TriageLevel: models.TriageRed, TriageConfidence: 90})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return server.postCount() > 0 }, waitFor, 10*time.Millisecond)

	require.NoError(t, queue.Remove(ctx, removed.ID))
	assert.False(t, hasPatient(app, removed.ID))

	// сервер снова принимает записи; контрольная запись показывает, что flush прошёл
	server.setRejectCreates(false)
	kept, err := queue.Add(ctx, models.QueueItem{TriageLevel: models.TriageGreen, TriageConfidence: 70})
	require.NoError(t, err)
	app.RequestSync()

	require.Eventually(t, func() bool {
		stats, err := queue.Stats(ctx)
		if err != nil {
			return false
		}
		unsent := stats.Ledger[models.MutationPending] + stats.Ledger[models.MutationInProgress] + stats.Ledger[models.MutationFailed]
		patients := app.Store().Patients()
		return unsent == 0 && len(server.levels()) == 1 && len(patients) == 1 && patients[0].ID != kept.ID
	}, waitFor, 10*time.Millisecond)

	assert.Equal(t, []models.TriageLevel{models.TriageGreen}, server.levels())
	patients := app.Store().Patients()
	require.Len(t, patients, 1)
	assert.Equal(t, models.TriageGreen, patients[0].TriageLevel)
	assert.False(t, hasPatient(app, removed.ID))
}

// ── broadcast ───────────────────────────────────────────────────────────────

func TestApp_SiblingsConvergeWithoutServer(t *testing.T) {
	ctx := context.Background()
	hub := broadcast.NewMemoryHub()
	url := deadURL(t)

	a := newTestApp(t, testConfig(t, url, "a.db"), WithBroadcastOpener(hub.Opener()))
	b := newTestApp(t, testConfig(t, url, "b.db"), WithBroadcastOpener(hub.Opener()))
	require.NoError(t, a.Start(ctx))
	require.NoError(t, b.Start(ctx))
	assert.True(t, a.Broadcaster().Enabled())
	assert.NotEqual(t, a.Broadcaster().Origin(), b.Broadcaster().Origin())

	queue, err := a.Queue()
	require.NoError(t, err)

	added, err := queue.Add(ctx, models.QueueItem{TriageLevel: models.TriageGreen})
	require.NoError(t, err)
	assert.True(t, hasPatient(b, added.ID))

	require.NoError(t, queue.Remove(ctx, added.ID))
	assert.False(t, hasPatient(a, added.ID))
	assert.False(t, hasPatient(b, added.ID))
}

// ── real-time channel ───────────────────────────────────────────────────────

func TestApp_QueueViewStreamsUpdates(t *testing.T) {
	item := models.QueueItem{ID: "BBBB0002", TriageLevel: models.TriageRed, Status: models.StatusPending}
	server := &fakeServer{}
	srv := server.start(t, func(r chi.Router) {
		r.Get("/queue/events", func(w http.ResponseWriter, req *http.Request) {
			data, _ := json.Marshal([]models.QueueItem{item})
			w.Header().Set("Content-Type", "text/event-stream")
			_, _ = fmt.Fprintf(w, "event: queue_update\ndata: %s\n\n", data)
			w.(http.Flusher).Flush()
			<-req.Context().Done()
		})
	})

	app := newTestApp(t, testConfig(t, srv.URL, "queue.db"))
	require.NoError(t, app.Start(context.Background()))

	app.EnterQueueView(context.Background())
	assert.True(t, app.Channel().Active())

	require.Eventually(t, func() bool {
		snap := app.Store().Snapshot()
		return snap.Channel.State == models.ChannelConnected && len(snap.Patients) == 1
	}, waitFor, 10*time.Millisecond)
	assert.True(t, hasPatient(app, item.ID))

	app.LeaveQueueView()
	assert.False(t, app.Channel().Active())
	assert.Equal(t, models.ChannelDisconnected, app.Store().Snapshot().Channel.State)
}

func TestApp_RunStopsWithContext(t *testing.T) {
	app := newTestApp(t, testConfig(t, deadURL(t), "queue.db"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	require.Eventually(t, app.Channel().Active, waitFor, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(waitFor):
		t.Fatal("Run did not return after cancel")
	}
	assert.False(t, app.Channel().Active())
	_, err := app.Queue()
	require.ErrorIs(t, err, ErrNotStarted)
}
