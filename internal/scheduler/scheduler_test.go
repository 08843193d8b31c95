package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AscentXR/AscentXR-Business-sub002/internal/model"
)

type fakeChecker struct {
	calls atomic.Int64
	err   error
}

func (f *fakeChecker) CheckAlerts(ctx context.Context) ([]model.Notification, error) {
	f.calls.Add(1)
	return nil, f.err
}

type fakeMaintenance struct {
	invoiceCalls atomic.Int64
	taxCalls     atomic.Int64
}

func (f *fakeMaintenance) MarkOverdueInvoices(ctx context.Context) (int64, error) {
	f.invoiceCalls.Add(1)
	return 2, nil
}

func (f *fakeMaintenance) MarkOverdueTaxEvents(ctx context.Context) (int64, error) {
	f.taxCalls.Add(1)
	return 0, nil
}

type fakeLocker struct {
	acquired   bool
	acquireErr error
	releases   atomic.Int64
}

func (f *fakeLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return f.acquired, f.acquireErr
}

func (f *fakeLocker) Release(ctx context.Context, key string) error {
	f.releases.Add(1)
	return nil
}

func TestScheduler_TicksAndStops(t *testing.T) {
	checker := &fakeChecker{}
	maintenance := &fakeMaintenance{}
	s := NewScheduler(checker, maintenance, nil, 10*time.Millisecond, 25*time.Millisecond, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	time.Sleep(60 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancellation")
	}

	assert.GreaterOrEqual(t, checker.calls.Load(), int64(2), "alert ticker should have fired")
	assert.GreaterOrEqual(t, maintenance.invoiceCalls.Load(), int64(1), "sweep ticker should have fired")
	assert.Equal(t, maintenance.invoiceCalls.Load(), maintenance.taxCalls.Load())
}

func TestRunAlertCheckNow(t *testing.T) {
	checker := &fakeChecker{}
	s := NewScheduler(checker, &fakeMaintenance{}, nil, time.Hour, time.Hour, zap.NewNop())

	s.RunAlertCheckNow(context.Background())
	assert.Equal(t, int64(1), checker.calls.Load())
}

func TestRunAlertCheck_SkipsWhenLockHeldElsewhere(t *testing.T) {
	checker := &fakeChecker{}
	locker := &fakeLocker{acquired: false}
	s := NewScheduler(checker, &fakeMaintenance{}, locker, time.Hour, time.Hour, zap.NewNop())

	s.RunAlertCheckNow(context.Background())
	assert.Zero(t, checker.calls.Load())
	assert.Zero(t, locker.releases.Load())
}

func TestRunAlertCheck_ReleasesLock(t *testing.T) {
	checker := &fakeChecker{}
	locker := &fakeLocker{acquired: true}
	s := NewScheduler(checker, &fakeMaintenance{}, locker, time.Hour, time.Hour, zap.NewNop())

	s.RunAlertCheckNow(context.Background())
	assert.Equal(t, int64(1), checker.calls.Load())
	assert.Equal(t, int64(1), locker.releases.Load())
}

func TestRunAlertCheck_RunsUnguardedOnLockError(t *testing.T) {
	checker := &fakeChecker{}
	locker := &fakeLocker{acquireErr: errors.New("redis down")}
	s := NewScheduler(checker, &fakeMaintenance{}, locker, time.Hour, time.Hour, zap.NewNop())

	s.RunAlertCheckNow(context.Background())
	require.Equal(t, int64(1), checker.calls.Load(), "lock failure must not stop alerting")
	assert.Zero(t, locker.releases.Load())
}
