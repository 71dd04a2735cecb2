package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/MKhiriev/triage-queue-sync/internal/adapter"
	"github.com/MKhiriev/triage-queue-sync/internal/broadcast"
	"github.com/MKhiriev/triage-queue-sync/internal/clock"
	"github.com/MKhiriev/triage-queue-sync/internal/config"
	"github.com/MKhiriev/triage-queue-sync/internal/connectivity"
	"github.com/MKhiriev/triage-queue-sync/internal/logger"
	"github.com/MKhiriev/triage-queue-sync/internal/platform"
	"github.com/MKhiriev/triage-queue-sync/internal/queuestore"
	"github.com/MKhiriev/triage-queue-sync/internal/realtime"
	"github.com/MKhiriev/triage-queue-sync/internal/service"
	"github.com/MKhiriev/triage-queue-sync/internal/store"
	"github.com/MKhiriev/triage-queue-sync/internal/workers"
	"github.com/MKhiriev/triage-queue-sync/models"
	"golang.org/x/sync/errgroup"
)

// ErrNotStarted is returned by operations that need a started App.
var ErrNotStarted = errors.New("client app is not started")

// Option customises an App built by NewApp.
type Option func(*App)

// WithClock replaces the real clock.
func WithClock(clk clock.Clock) Option {
	return func(a *App) { a.clock = clk }
}

// WithBroadcastOpener replaces the spool directory transport, e.g. with a
// [broadcast.MemoryHub] shared by several apps in one process.
func WithBroadcastOpener(open broadcast.Opener) Option {
	return func(a *App) { a.opener = open }
}

type App struct {
	cfg    *config.ClientConfig
	clock  clock.Clock
	logger *logger.Logger
	opener broadcast.Opener

	adapter     adapter.ServerAdapter
	store       *queuestore.Store
	manual      *platform.Manual
	watcher     *platform.InterfaceWatcher
	broadcaster *broadcast.Broadcaster
	channel     *realtime.Channel

	mu       sync.Mutex
	storages *store.ClientStorages
	monitor  *connectivity.Monitor
	services *service.ClientServices
	workers  *workers.Workers
}

// NewApp builds the in-memory part of the client. Nothing touches the disk
// or the network before Start.
func NewApp(cfg *config.ClientConfig, log *logger.Logger, opts ...Option) (*App, error) {
	serverAdapter, err := adapter.NewHTTPServerAdapter(cfg.Adapter, log)
	if err != nil {
		return nil, fmt.Errorf("create server adapter: %w", err)
	}

	a := &App{
		cfg:     cfg,
		clock:   clock.Real(),
		logger:  log,
		adapter: serverAdapter,
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.opener == nil && !cfg.Broadcast.Disabled {
		a.opener = broadcast.DirOpener(cfg.Broadcast.Dir, cfg.Broadcast.ChannelName, cfg.Broadcast.Retention, a.clock, log.Component("broadcast"))
	}

	a.store = queuestore.New(a.clock, log.Component("queuestore"))
	a.manual = platform.NewManual(log.Component("platform"))
	a.watcher = platform.NewInterfaceWatcher(a.clock, cfg.Connectivity.PlatformPollInterval, log.Component("platform"))
	a.broadcaster = broadcast.New(cfg.App.InstanceName, a.opener, a.store, a.clock, log.Component("broadcast"))
	a.channel = realtime.NewChannel(realtime.NewConfig(cfg.Realtime), a.clock, serverAdapter, a.store, log.Component("realtime"))

	return a, nil
}

// Start opens the durable store, loads the saved queue into the reactive
// store and starts the background workers. Starting a started App does
// nothing.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.workers != nil {
		return nil
	}

	storages, err := store.NewClientStorages(ctx, a.cfg.Storage, a.clock, a.logger)
	if err != nil {
		return fmt.Errorf("open local storage: %w", err)
	}

	var monitor *connectivity.Monitor
	services := service.NewClientServices(service.ClientDeps{
		Adapter:   a.adapter,
		Storages:  storages,
		View:      a.store,
		Publisher: a.broadcaster,
		Clock:     a.clock,
		NewScheduler: func(coordinator service.ClientSyncService) service.SyncScheduler {
			monitor = connectivity.NewMonitor(
				connectivity.NewConfig(a.cfg.Connectivity),
				a.clock,
				coordinator,
				platform.Merge(a.manual, a.watcher),
				a.logger.Component("connectivity"),
			)
			return monitor
		},
		LedgerMaxAttempts: a.cfg.Workers.LedgerMaxAttempts,
		OnPull:            a.onPull,
	}, a.logger)

	monitor.OnChange(func(ev models.ConnectivityEvent) {
		a.store.SetConnectivity(ev.Current)
	})

	if err = services.QueueService.Load(ctx); err != nil {
		monitor.Destroy()
		_ = storages.Close()
		return err
	}

	ws := workers.New(a.logger,
		workers.Hook{Name: "interface-watcher", OnStart: func(ctx context.Context) error {
			a.watcher.Start(ctx)
			return nil
		}, OnStop: a.watcher.Stop},
		a.broadcaster,
		workers.Hook{Name: "connectivity-monitor", OnStart: func(ctx context.Context) error {
			monitor.Start(ctx)
			return nil
		}, OnStop: monitor.Stop},
		workers.Hook{Name: "sync-job", OnStart: func(ctx context.Context) error {
			services.SyncJob.Start(ctx, a.cfg.Workers.SyncInterval)
			return nil
		}, OnStop: services.SyncJob.Stop},
	)
	if err = ws.Start(ctx); err != nil {
		monitor.Destroy()
		_ = storages.Close()
		return err
	}

	a.storages = storages
	a.monitor = monitor
	a.services = services
	a.workers = ws

	a.logger.Info().
		Str("origin", a.broadcaster.Origin()).
		Bool("broadcast", a.broadcaster.Enabled()).
		Int("patients", len(a.store.Patients())).
		Msg("client app started")
	return nil
}

// Stop closes the queue view, stops the workers and closes the durable
// store. It is safe to call more than once.
func (a *App) Stop() {
	a.channel.Deactivate()

	a.mu.Lock()
	ws, monitor, storages := a.workers, a.monitor, a.storages
	a.workers, a.monitor, a.storages, a.services = nil, nil, nil, nil
	a.mu.Unlock()

	if ws == nil {
		return
	}
	ws.Stop()
	monitor.Destroy()
	if err := storages.Close(); err != nil {
		a.logger.Err(err).Msg("failed to close local storage")
	}
	a.logger.Info().Msg("client app stopped")
}

// EnterQueueView opens the real-time channel for as long as the queue is on
// screen.
func (a *App) EnterQueueView(ctx context.Context) {
	a.channel.Activate(ctx)
}

// LeaveQueueView closes the real-time channel.
func (a *App) LeaveQueueView() {
	a.channel.Deactivate()
}

// RequestSync asks the connectivity monitor for a sync the way a host's
// background sync request would.
func (a *App) RequestSync() {
	a.manual.Notify(platform.SignalSyncRequested)
}

// Notify forwards a host platform signal to the connectivity monitor.
func (a *App) Notify(sig platform.Signal) {
	a.manual.Notify(sig)
}

// Store is the reactive store the presentation layer renders.
func (a *App) Store() *queuestore.Store { return a.store }

// Channel is the real-time update channel.
func (a *App) Channel() *realtime.Channel { return a.channel }

// Broadcaster is this instance's cross-instance channel.
func (a *App) Broadcaster() *broadcast.Broadcaster { return a.broadcaster }

// Queue returns the mutation API of a started App.
func (a *App) Queue() (service.ClientQueueService, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.services == nil {
		return nil, ErrNotStarted
	}
	return a.services.QueueService, nil
}

// Monitor returns the connectivity monitor of a started App.
func (a *App) Monitor() (*connectivity.Monitor, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.monitor == nil {
		return nil, ErrNotStarted
	}
	return a.monitor, nil
}

// Run starts the App with the queue view open and blocks until ctx is done.
// Every store change is logged.
func (a *App) Run(ctx context.Context) error {
	if err := a.Start(ctx); err != nil {
		return err
	}
	defer a.Stop()

	a.EnterQueueView(ctx)

	g, gctx := errgroup.WithContext(ctx)
	snapshots := make(chan queuestore.Snapshot, 16)
	unsubscribe := a.store.Subscribe(func(s queuestore.Snapshot) {
		select {
		case snapshots <- s:
		default:
		}
	})
	defer unsubscribe()

	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case s := <-snapshots:
				a.logger.Debug().
					Uint64("version", s.Version).
					Int("patients", len(s.Patients)).
					Int("deleting", len(s.Deleting)).
					Str("connectivity", string(s.Connectivity)).
					Str("channel", string(s.Channel.State)).
					Str("error", s.Error).
					Msg("queue changed")
			}
		}
	})
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info().Msg("shutting down client app")
		return nil
	})

	return g.Wait()
}

// onPull hands every pulled queue to the store and to sibling instances.
func (a *App) onPull(items []models.QueueItem) {
	a.store.SetPatients(items)
	if err := a.broadcaster.QueueRefreshed(context.Background(), items); err != nil {
		a.logger.Warn().Err(err).Msg("failed to broadcast refreshed queue")
	}
}
