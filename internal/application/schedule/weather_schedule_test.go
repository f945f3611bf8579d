package schedule

import (
	"context"
	"errors"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"weather-poller/pkg/redis"

	"github.com/alicebob/miniredis/v2"
	"github.com/jonboulle/clockwork"
)

type fakeUseCase struct {
	mu         sync.Mutex
	requestIDs []string
	started    chan struct{}
	release    chan struct{}
}

func newFakeUseCase() *fakeUseCase {
	return &fakeUseCase{started: make(chan struct{}, 16)}
}

func (f *fakeUseCase) UpdateAllCities(ctx context.Context, requestID string) error {
	f.mu.Lock()
	f.requestIDs = append(f.requestIDs, requestID)
	f.mu.Unlock()
	f.started <- struct{}{}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (f *fakeUseCase) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requestIDs)
}

func waitStarted(t *testing.T, f *fakeUseCase) {
	t.Helper()
	select {
	case <-f.started:
	case <-time.After(5 * time.Second):
		t.Fatal("cycle did not start")
	}
}

func waitTimers(t *testing.T, clock *clockwork.FakeClock, n int) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := clock.BlockUntilContext(ctx, n); err != nil {
		t.Fatalf("waiting for timers: %v", err)
	}
}

func waitRun(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	return nil
}

func newMiniredisClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)
	host, portText, _ := net.SplitHostPort(server.Addr())
	port, _ := strconv.Atoi(portText)

	client, err := redis.NewClient(redis.NewRedisConfig().WithHost(host).WithPort(port))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client, server
}

func TestWeatherSchedulerInterval(t *testing.T) {
	t.Run("Run should wait the interval after each completed cycle", func(t *testing.T) {
		clock := clockwork.NewFakeClock()
		useCase := newFakeUseCase()
		useCase.release = make(chan struct{})
		scheduler := NewWeatherScheduler(useCase, nil, &WeatherSchedulerConfig{Interval: 30 * time.Minute}, clock)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- scheduler.Run(ctx) }()

		waitStarted(t, useCase)
		if status := scheduler.Status(); !status.Running || status.LastRequestID == "" {
			t.Errorf("expected a running cycle, got %+v", status)
		}

		clock.Advance(time.Hour)
		if useCase.calls() != 1 {
			t.Fatalf("expected no new cycle while the first one runs, got %d", useCase.calls())
		}

		useCase.release <- struct{}{}
		waitTimers(t, clock, 1)
		clock.Advance(30*time.Minute - time.Second)
		if useCase.calls() != 1 {
			t.Fatalf("expected the pause to last the full interval, got %d calls", useCase.calls())
		}

		clock.Advance(time.Second)
		waitStarted(t, useCase)

		cancel()
		if err := waitRun(t, done); err != nil {
			t.Errorf("expected a clean stop, got %v", err)
		}

		status := scheduler.Status()
		if status.Running || status.Cycles != 2 {
			t.Errorf("unexpected final status %+v", status)
		}
		if useCase.requestIDs[0] == useCase.requestIDs[1] {
			t.Error("expected a fresh request id per cycle")
		}
	})
}

func TestWeatherSchedulerCron(t *testing.T) {
	t.Run("Run should trigger cycles from a cron expression", func(t *testing.T) {
		useCase := newFakeUseCase()
		scheduler := NewWeatherScheduler(useCase, nil, &WeatherSchedulerConfig{CronExpression: "@every 1s"}, nil)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- scheduler.Run(ctx) }()

		waitStarted(t, useCase)
		cancel()
		if err := waitRun(t, done); err != nil {
			t.Errorf("expected a clean stop, got %v", err)
		}
	})

	t.Run("Run should reject an invalid cron expression", func(t *testing.T) {
		scheduler := NewWeatherScheduler(newFakeUseCase(), nil, &WeatherSchedulerConfig{CronExpression: "every day"}, nil)
		if err := scheduler.Run(context.Background()); err == nil {
			t.Error("expected an error")
		}
	})
}

func TestWeatherSchedulerLock(t *testing.T) {
	t.Run("Run should refuse to start while another instance holds the lock", func(t *testing.T) {
		client, _ := newMiniredisClient(t)
		config := &WeatherSchedulerConfig{Interval: time.Hour, LockKey: "poller", LockTTL: time.Minute, RefreshInterval: time.Second}

		firstUseCase := newFakeUseCase()
		first := NewWeatherScheduler(firstUseCase, client, config, clockwork.NewFakeClock())

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- first.Run(ctx) }()
		waitStarted(t, firstUseCase)

		if status := first.Status(); status.LockKey != "weather_schedules::poller" {
			t.Errorf("unexpected lock key %q", status.LockKey)
		}

		second := NewWeatherScheduler(newFakeUseCase(), client, config, clockwork.NewFakeClock())
		if err := second.Run(context.Background()); !errors.Is(err, redis.ErrLockNotAcquired) {
			t.Errorf("expected ErrLockNotAcquired, got %v", err)
		}

		cancel()
		if err := waitRun(t, done); err != nil {
			t.Errorf("expected a clean stop, got %v", err)
		}
		if held, _ := client.GetClient().Exists(context.Background(), "weather_schedules::poller").Result(); held != 0 {
			t.Error("expected the lock to be released on stop")
		}
	})

	t.Run("Run should stop with an error when the lock is lost", func(t *testing.T) {
		client, server := newMiniredisClient(t)
		config := &WeatherSchedulerConfig{Interval: time.Hour, LockKey: "lost", LockTTL: time.Minute, RefreshInterval: 10 * time.Millisecond}
		useCase := newFakeUseCase()
		scheduler := NewWeatherScheduler(useCase, client, config, clockwork.NewFakeClock())

		done := make(chan error, 1)
		go func() { done <- scheduler.Run(context.Background()) }()
		waitStarted(t, useCase)

		server.Del("weather_schedules::lost")

		if err := waitRun(t, done); !errors.Is(err, redis.ErrLockNotHeld) {
			t.Errorf("expected ErrLockNotHeld, got %v", err)
		}
	})
}
