package service

import (
	"context"
	"sync"
	"time"

	"github.com/MKhiriev/triage-queue-sync/internal/clock"
	"github.com/MKhiriev/triage-queue-sync/internal/logger"
)

const defaultSyncInterval = 5 * time.Minute

type clientSyncJob struct {
	syncService ClientSyncService
	online      func() bool
	clock       clock.Clock
	logger      *logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewClientSyncJob creates a job that calls syncService.SyncAll on a ticker,
// skipping ticks while online reports false. A nil online means always. The
// job is idle until Start is called.
func NewClientSyncJob(syncService ClientSyncService, online func() bool, clk clock.Clock, log *logger.Logger) ClientSyncJob {
	if online == nil {
		online = func() bool { return true }
	}
	return &clientSyncJob{
		syncService: syncService,
		online:      online,
		clock:       clk,
		logger:      log.Component("sync_job"),
	}
}

// Start implements ClientSyncJob. A zero or negative interval defaults to
// five minutes. The goroutine exits when ctx is cancelled or Stop is called.
func (j *clientSyncJob) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = defaultSyncInterval
	}

	j.Stop()

	j.mu.Lock()
	jobCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	t := j.clock.NewTicker(interval)
	j.wg.Add(1)
	j.mu.Unlock()

	go func() {
		defer j.wg.Done()
		defer t.Stop()

		for {
			select {
			case <-jobCtx.Done():
				return
			case <-t.C():
				if !j.online() {
					continue
				}
				if err := j.syncService.SyncAll(jobCtx); err != nil && jobCtx.Err() == nil {
					j.logger.Warn().Err(err).Msg("periodic sync failed")
				}
			}
		}
	}()
}

// Stop implements ClientSyncJob. It blocks until the goroutine has exited.
func (j *clientSyncJob) Stop() {
	j.mu.Lock()
	cancel := j.cancel
	j.cancel = nil
	j.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	j.wg.Wait()
}
