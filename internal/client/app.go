package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-social-sync/internal/adapter"
	"github.com/MKhiriev/go-social-sync/internal/config"
	"github.com/MKhiriev/go-social-sync/internal/logger"
	"github.com/MKhiriev/go-social-sync/internal/network"
	"github.com/MKhiriev/go-social-sync/internal/service"
	"github.com/MKhiriev/go-social-sync/internal/session"
	"github.com/MKhiriev/go-social-sync/internal/store"
	"github.com/MKhiriev/go-social-sync/internal/workers"
	"github.com/MKhiriev/go-social-sync/models"
)

// App owns every long-lived client component. Commands borrow its services
// and the daemon runs its workers.
type App struct {
	Services *service.ClientServices
	Session  *session.Session
	Monitor  *network.ProbeMonitor

	storages *store.ClientStorages
	cfg      *config.ClientConfig
	logger   *logger.Logger
}

// NewApp opens the local database, restores nothing yet and wires the
// adapter, reachability monitor and services together. The monitor starts
// offline; call Probe before commands that need the network.
func NewApp(ctx context.Context, cfg *config.ClientConfig, logger *logger.Logger) (*App, error) {
	storages, err := store.NewClientStorages(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("create local storage: %w", err)
	}

	clientID, err := storages.Meta.ClientID(ctx)
	if err != nil {
		_ = storages.Close()
		return nil, fmt.Errorf("read client id: %w", err)
	}

	sess := session.New(storages.Sessions, logger)

	serverAdapter, err := adapter.NewHTTPServerAdapter(cfg.Adapter, cfg.App, sess, clientID, logger)
	if err != nil {
		_ = storages.Close()
		return nil, fmt.Errorf("create server adapter: %w", err)
	}

	monitor := network.NewProbeMonitor(serverAdapter, cfg.Workers.ProbeInterval, logger)
	services := service.NewClientServices(storages, serverAdapter, sess, monitor, cfg.Workers, logger)

	// coming back online flushes pending writes without waiting for the tick
	monitor.OnChange(func(online bool) {
		if online {
			services.SyncJob.TriggerNow()
		}
	})

	logger.Info().Str("client_id", clientID).Str("server", cfg.Adapter.HTTPAddress).Msg("client app created")

	return &App{
		Services: services,
		Session:  sess,
		Monitor:  monitor,
		storages: storages,
		cfg:      cfg,
		logger:   logger,
	}, nil
}

// Probe checks reachability once, bounded by the connect timeout.
func (a *App) Probe(ctx context.Context) bool {
	if a.cfg.Adapter.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Adapter.ConnectTimeout)
		defer cancel()
	}
	return a.Monitor.Probe(ctx)
}

// Restore makes the persisted session current. A missing or expired
// session is reported as service.ErrNotAuthenticated.
func (a *App) Restore(ctx context.Context) (models.User, error) {
	return a.Services.AuthService.RestoreSession(ctx)
}

// Run is the daemon loop: the reachability monitor and the sync job run
// until ctx is done. It requires a restored session.
func (a *App) Run(ctx context.Context) error {
	user, err := a.Restore(ctx)
	if err != nil {
		if errors.Is(err, service.ErrNotAuthenticated) {
			return fmt.Errorf("log in before starting the daemon: %w", err)
		}
		return fmt.Errorf("restore session: %w", err)
	}

	a.logger.Info().Str("user_id", user.ID).Msg("sync daemon started")

	workers.NewWorkers(
		workers.WorkerFunc(a.Monitor.Run),
		a.Services.SyncJob,
	).Run(ctx)

	a.logger.Info().Msg("sync daemon stopped")
	return nil
}

// Close releases the local database.
func (a *App) Close() error {
	a.Services.CommentService.Stop()
	return a.storages.Close()
}
