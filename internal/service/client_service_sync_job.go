package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/MKhiriev/go-social-sync/internal/config"
	"github.com/MKhiriev/go-social-sync/internal/logger"
	"github.com/MKhiriev/go-social-sync/internal/network"
	"github.com/MKhiriev/go-social-sync/models"
)

// errSyncIncomplete marks a pass that left rows for later.
var errSyncIncomplete = errors.New("sync incomplete")

type repeatTryKey struct{}

// asRepeatTry marks ctx as a backoff retry inside one scheduled run.
// Rejections seen under it do not count toward abandonment.
func asRepeatTry(ctx context.Context) context.Context {
	return context.WithValue(ctx, repeatTryKey{}, true)
}

func isRepeatTry(ctx context.Context) bool {
	repeat, _ := ctx.Value(repeatTryKey{}).(bool)
	return repeat
}

type clientSyncJob struct {
	syncService ClientSyncService
	monitor     network.Monitor
	cfg         config.ClientWorkers
	logger      *logger.Logger

	// trigger holds at most one pending on-demand request.
	trigger chan struct{}

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewClientSyncJob creates a job that runs syncService on a ticker and on
// demand. The job is idle until Start is called.
func NewClientSyncJob(syncService ClientSyncService, monitor network.Monitor, cfg config.ClientWorkers, logger *logger.Logger) ClientSyncJob {
	return &clientSyncJob{
		syncService: syncService,
		monitor:     monitor,
		cfg:         cfg,
		logger:      logger,
		trigger:     make(chan struct{}, 1),
	}
}

// Start stops any previously running schedule, then launches a goroutine
// that runs a pass every interval and whenever TriggerNow is called. A
// non-positive interval falls back to the configured one, then to
// config.DefaultSyncInterval.
func (j *clientSyncJob) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = j.cfg.SyncInterval
	}
	if interval <= 0 {
		interval = config.DefaultSyncInterval
	}

	j.Stop()

	j.mu.Lock()
	jobCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	j.wg.Add(1)
	j.mu.Unlock()

	go func() {
		defer j.wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-jobCtx.Done():
				return
			case <-t.C:
				j.pass(jobCtx, interval)
			case <-j.trigger:
				j.pass(jobCtx, interval)
			}
		}
	}()

	j.logger.Info().Dur("interval", interval).Msg("sync job started")
}

// Stop cancels the running goroutine and blocks until it has exited. Safe
// to call when the job is not running.
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

func (j *clientSyncJob) TriggerNow() {
	select {
	case j.trigger <- struct{}{}:
	default:
	}
}

// Run implements workers.Worker.
func (j *clientSyncJob) Run(ctx context.Context) {
	j.Start(ctx, 0)
	<-ctx.Done()
	j.Stop()
}

// pass runs the sync service, re-running it with exponential backoff while
// it reports SyncRetry. Backoff stops when the device goes offline; the next
// tick or reachability transition starts over. Only the first try counts a
// sync attempt against rejected rows.
func (j *clientSyncJob) pass(ctx context.Context, interval time.Duration) {
	if !j.monitor.IsOnline() {
		j.logger.Debug().Msg("offline, skipping sync pass")
		return
	}

	backoff := j.backoff(interval)
	tries := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if tries > 0 {
			ctx = asRepeatTry(ctx)
		}
		tries++

		report, err := j.syncService.Run(ctx)
		if err != nil {
			return retry.RetryableError(err)
		}
		if report.Status != models.SyncRetry {
			return nil
		}
		if !j.monitor.IsOnline() {
			return errSyncIncomplete
		}
		return retry.RetryableError(errSyncIncomplete)
	})
	if err != nil && ctx.Err() == nil {
		j.logger.Warn().Err(err).Msg("sync pass left pending rows")
	}
}

func (j *clientSyncJob) backoff(interval time.Duration) retry.Backoff {
	base := j.cfg.RetryBaseDelay
	if base <= 0 {
		base = config.DefaultRetryBaseDelay
	}
	attempts := j.cfg.MaxSyncAttempts
	if attempts <= 0 {
		attempts = config.DefaultMaxSyncAttempts
	}

	b := retry.NewExponential(base)
	b = retry.WithCappedDuration(interval, b)
	return retry.WithMaxRetries(uint64(attempts), b)
}
