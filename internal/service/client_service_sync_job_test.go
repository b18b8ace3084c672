// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MKhiriev/go-social-sync/internal/config"
	"github.com/MKhiriev/go-social-sync/internal/logger"
	"github.com/MKhiriev/go-social-sync/internal/network"
	"github.com/MKhiriev/go-social-sync/models"
)

// spySyncService считает вызовы Run и возвращает заданный статус.
type spySyncService struct {
	calls  atomic.Int64
	status models.SyncStatus
	err    error
}

func (s *spySyncService) Run(_ context.Context) (models.SyncReport, error) {
	s.calls.Add(1)
	return models.SyncReport{Status: s.status}, s.err
}

func newTestSyncJob(spy ClientSyncService, monitor network.Monitor) *clientSyncJob {
	cfg := config.ClientWorkers{
		SyncInterval:    time.Hour,
		RetryBaseDelay:  time.Millisecond,
		MaxSyncAttempts: 2,
	}
	return NewClientSyncJob(spy, monitor, cfg, logger.Nop()).(*clientSyncJob)
}

// eventually ждёт, пока счётчик дойдёт до want.
func eventually(t *testing.T, counter *atomic.Int64, want int64) {
	t.Helper()
	assert.Eventually(t, func() bool { return counter.Load() >= want }, time.Second, 5*time.Millisecond,
		"ожидалось минимум %d вызовов, вызвано: %d", want, counter.Load())
}

// ── NewClientSyncJob ─────────────────────────────────────────────────────────

func TestNewClientSyncJob_ReturnsInterface(t *testing.T) {
	job := NewClientSyncJob(&spySyncService{}, network.NewStatic(true), config.ClientWorkers{}, logger.Nop())
	require.NotNil(t, job)

	// проверяем что возвращённый объект реализует ClientSyncJob
	var _ ClientSyncJob = job
}

// ── Start / Stop ─────────────────────────────────────────────────────────────

func TestClientSyncJob_Start_CallsRun(t *testing.T) {
	spy := &spySyncService{status: models.SyncSuccess}
	job := newTestSyncJob(spy, network.NewStatic(true))

	// Интервал 10ms, за 55ms должно быть ~5 тиков
	job.Start(context.Background(), 10*time.Millisecond)
	time.Sleep(55 * time.Millisecond)
	job.Stop()

	got := spy.calls.Load()
	assert.GreaterOrEqual(t, got, int64(3), "Run должен быть вызван несколько раз, вызвано: %d", got)
}

func TestClientSyncJob_Stop_StopsGoroutine(t *testing.T) {
	spy := &spySyncService{status: models.SyncSuccess}
	job := newTestSyncJob(spy, network.NewStatic(true))

	job.Start(context.Background(), 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	job.Stop()

	callsAfterStop := spy.calls.Load()
	time.Sleep(30 * time.Millisecond)

	assert.Equal(t, callsAfterStop, spy.calls.Load(), "после Stop новых вызовов быть не должно")
}

func TestClientSyncJob_Stop_BeforeStart_NoPanic(t *testing.T) {
	job := newTestSyncJob(&spySyncService{}, network.NewStatic(true))

	// Stop без Start не должен паниковать
	assert.NotPanics(t, func() { job.Stop() })
	assert.NotPanics(t, func() { job.Stop() })
}

func TestClientSyncJob_Start_DefaultInterval(t *testing.T) {
	spy := &spySyncService{status: models.SyncSuccess}
	job := newTestSyncJob(spy, network.NewStatic(true))

	// interval <= 0 → интервал из конфига (1h), за 20ms вызовов быть не должно
	job.Start(context.Background(), 0)
	time.Sleep(20 * time.Millisecond)
	job.Stop()

	assert.Equal(t, int64(0), spy.calls.Load())
}

func TestClientSyncJob_Restart_ReplacesSchedule(t *testing.T) {
	spy := &spySyncService{status: models.SyncSuccess}
	job := newTestSyncJob(spy, network.NewStatic(true))
	ctx := context.Background()

	job.Start(ctx, 10*time.Millisecond)
	eventually(t, &spy.calls, 1)

	// Start повторно: старое расписание заменяется долгим, тики прекращаются
	job.Start(ctx, time.Hour)
	before := spy.calls.Load()
	time.Sleep(40 * time.Millisecond)
	job.Stop()

	assert.Equal(t, before, spy.calls.Load(), "старый тикер не должен продолжать работу")
}

func TestClientSyncJob_ContextCancel_StopsJob(t *testing.T) {
	job := newTestSyncJob(&spySyncService{status: models.SyncSuccess}, network.NewStatic(true))
	ctx, cancel := context.WithCancel(context.Background())

	job.Start(ctx, 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	cancel()

	// Stop должен вернуться без зависания
	done := make(chan struct{})
	go func() {
		job.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop завис после отмены контекста")
	}
}

// ── TriggerNow ───────────────────────────────────────────────────────────────

func TestClientSyncJob_TriggerNow(t *testing.T) {
	spy := &spySyncService{status: models.SyncSuccess}
	job := newTestSyncJob(spy, network.NewStatic(true))

	job.Start(context.Background(), time.Hour)
	defer job.Stop()

	job.TriggerNow()
	eventually(t, &spy.calls, 1)
}

func TestClientSyncJob_TriggerNow_Coalesces(t *testing.T) {
	job := newTestSyncJob(&spySyncService{}, network.NewStatic(true))

	// без запущенной горутины буфер на один запрос, лишние отбрасываются
	assert.NotPanics(t, func() {
		for range 10 {
			job.TriggerNow()
		}
	})
	assert.Len(t, job.trigger, 1)
}

// ── Retry / offline ──────────────────────────────────────────────────────────

func TestClientSyncJob_RetryStatus_BacksOff(t *testing.T) {
	spy := &spySyncService{status: models.SyncRetry}
	job := newTestSyncJob(spy, network.NewStatic(true))

	job.Start(context.Background(), time.Hour)
	defer job.Stop()

	// одна попытка + MaxSyncAttempts повторов
	job.TriggerNow()
	eventually(t, &spy.calls, 3)

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int64(3), spy.calls.Load(), "после исчерпания повторов вызовы прекращаются")
}

func TestClientSyncJob_Error_DoesNotStopJob(t *testing.T) {
	spy := &spySyncService{err: assert.AnError}
	job := newTestSyncJob(spy, network.NewStatic(true))

	job.Start(context.Background(), 10*time.Millisecond)
	eventually(t, &spy.calls, 4)
	job.Stop()
}

func TestClientSyncJob_Offline_SkipsPass(t *testing.T) {
	spy := &spySyncService{status: models.SyncSuccess}
	monitor := network.NewStatic(false)
	job := newTestSyncJob(spy, monitor)

	job.Start(context.Background(), 5*time.Millisecond)
	defer job.Stop()

	time.Sleep(30 * time.Millisecond)
	assert.Zero(t, spy.calls.Load(), "офлайн проходы пропускаются")

	monitor.Set(true)
	eventually(t, &spy.calls, 1)
}

func TestClientSyncJob_Run_BlocksUntilCancel(t *testing.T) {
	spy := &spySyncService{status: models.SyncSuccess}
	job := newTestSyncJob(spy, network.NewStatic(true))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		job.Run(ctx)
		close(done)
	}()

	job.TriggerNow()
	eventually(t, &spy.calls, 1)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run не вернулся после отмены контекста")
	}
}

func TestClientSyncJob_CountsOneAttemptPerRun(t *testing.T) {
	h := newClientHarness(t, false)
	h.login(t, alice)

	p, err := h.posts.Create(h.ctx, models.PostInput{Title: "unacked"})
	require.NoError(t, err)

	// сервер отвечает на /sync, не подтверждая пост
	var calls atomic.Int64
	h.adapter.EXPECT().Sync(gomock.Any(), gomock.Any()).DoAndReturn(
		func(context.Context, models.SyncRequest) (models.SyncResponse, error) {
			calls.Add(1)
			return models.SyncResponse{}, nil
		}).AnyTimes()

	h.monitor.Set(true)
	job := h.svcs.SyncJob

	job.Start(h.ctx, time.Hour)
	job.TriggerNow()
	// одна попытка + MaxSyncAttempts повторов внутри прохода
	eventually(t, &calls, 1+int64(testWorkers.MaxSyncAttempts))
	job.Stop()

	got, err := h.storages.Posts.GetByID(h.ctx, p.LocalID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.SyncAttempts, "повторы внутри прохода не считаются попытками")
	assert.False(t, got.Abandoned)
	assert.NotEmpty(t, got.LastSyncError)

	pending, err := h.storages.Posts.ListPending(h.ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1, "пост ждёт следующего прохода")

	// следующий проход исчерпывает MaxSyncAttempts
	job.Start(h.ctx, time.Hour)
	defer job.Stop()
	job.TriggerNow()

	require.Eventually(t, func() bool {
		got, err := h.storages.Posts.GetByID(h.ctx, p.LocalID)
		return err == nil && got.Abandoned
	}, time.Second, 5*time.Millisecond)

	got, err = h.storages.Posts.GetByID(h.ctx, p.LocalID)
	require.NoError(t, err)
	assert.Equal(t, testWorkers.MaxSyncAttempts, got.SyncAttempts)
}
