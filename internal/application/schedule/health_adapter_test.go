package schedule

import (
	"context"
	"testing"
	"time"

	"weather-poller/internal/domain/model"

	"github.com/jonboulle/clockwork"
)

func TestWeatherSchedulerHealth(t *testing.T) {
	t.Run("Health should be UNKNOWN before the first cycle", func(t *testing.T) {
		scheduler := NewWeatherScheduler(newFakeUseCase(), nil, &WeatherSchedulerConfig{Interval: time.Minute}, clockwork.NewFakeClock())

		health := scheduler.Health(context.Background())
		if health.Status != model.StatusUnknown {
			t.Errorf("expected UNKNOWN, got %s", health.Status)
		}
		if health.Details["interval"] != "1m0s" {
			t.Errorf("unexpected details %v", health.Details)
		}
	})

	t.Run("Health should be UP with the last cycle details", func(t *testing.T) {
		clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
		scheduler := NewWeatherScheduler(newFakeUseCase(), nil, &WeatherSchedulerConfig{CronExpression: "@hourly"}, clock)

		scheduler.ExecuteScheduledTask(context.Background())

		health := scheduler.Health(context.Background())
		if health.Status != model.StatusUp {
			t.Errorf("expected UP, got %s", health.Status)
		}
		if health.Details["cycles"] != "1" || health.Details["cron"] != "@hourly" {
			t.Errorf("unexpected details %v", health.Details)
		}
		if health.Details["last_end"] != "2024-03-01T12:00:00Z" {
			t.Errorf("unexpected last_end %q", health.Details["last_end"])
		}
	})

	t.Run("Health should be DOWN when the lock is not held", func(t *testing.T) {
		client, _ := newMiniredisClient(t)
		scheduler := NewWeatherScheduler(newFakeUseCase(), client, &WeatherSchedulerConfig{Interval: time.Minute}, clockwork.NewFakeClock())

		if got := scheduler.Health(context.Background()).Status; got != model.StatusDown {
			t.Errorf("expected DOWN, got %s", got)
		}
	})
}
