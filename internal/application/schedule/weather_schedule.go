package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"weather-poller/internal/domain/usecase/weather"
	"weather-poller/pkg/log"
	"weather-poller/pkg/msg"
	"weather-poller/pkg/redis"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const lockNamespace = "weather_schedules"

// WeatherSchedulerConfig holds configuration for the weather scheduler
type WeatherSchedulerConfig struct {
	// Interval is the pause between the end of one cycle and the start of
	// the next.
	Interval time.Duration
	// CronExpression, when set, triggers cycles on a cron schedule instead.
	CronExpression  string
	LockKey         string
	LockTTL         time.Duration
	RefreshInterval time.Duration
}

// CycleStatus describes the scheduler's most recent update cycle.
type CycleStatus struct {
	Running       bool
	Cycles        int
	LastRequestID string
	LastStart     time.Time
	LastEnd       time.Time
	LastError     string
	LockKey       string
}

// WeatherScheduler runs weather update cycles forever, optionally guarded by
// a Redis lock so that a single instance writes the output files.
type WeatherScheduler struct {
	useCase     weather.UseCase
	redisClient *redis.Client
	config      *WeatherSchedulerConfig
	clock       clockwork.Clock

	mu     sync.RWMutex
	status CycleStatus
}

// NewWeatherScheduler creates a scheduler. A nil redisClient disables the lock.
func NewWeatherScheduler(useCase weather.UseCase, redisClient *redis.Client, config *WeatherSchedulerConfig, clock clockwork.Clock) *WeatherScheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &WeatherScheduler{
		useCase:     useCase,
		redisClient: redisClient,
		config:      config,
		clock:       clock,
	}
}

// Run blocks until ctx is cancelled, which returns nil. It returns an error
// when the lock cannot be acquired, is lost, or the cron expression is invalid.
func (s *WeatherScheduler) Run(ctx context.Context) error {
	if s.redisClient == nil {
		return s.schedule(ctx)
	}

	lock := redis.NewScheduledTaskLock(s.redisClient, s.getLockKey(), s.getLockTTL(), s.getRefreshInterval(), lockNamespace)
	if err := lock.Lock(ctx); err != nil {
		log.Error(msg.GetMessage("weather.schedule.lock-busy", lock.Key()), zap.Error(err))
		return fmt.Errorf("acquire scheduler lock: %w", err)
	}
	log.Info(msg.GetMessage("weather.schedule.lock-acquired", lock.Key()))
	s.setLockKey(lock.Key())

	defer func() {
		unlockCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := lock.Unlock(unlockCtx); err != nil {
			log.Warn("release scheduler lock", zap.Error(err))
		}
		s.setLockKey("")
	}()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	refreshErr := lock.AutoRefresh(runCtx)
	lost := make(chan error, 1)
	go func() {
		err := <-refreshErr
		if runCtx.Err() == nil {
			log.Error(msg.GetMessage("weather.schedule.lock-lost", lock.Key()), zap.Error(err))
			lost <- err
			cancel()
		}
	}()

	if err := s.schedule(runCtx); err != nil {
		return err
	}

	select {
	case err := <-lost:
		return fmt.Errorf("scheduler lock lost: %w", err)
	default:
		return nil
	}
}

func (s *WeatherScheduler) schedule(ctx context.Context) error {
	if s.config.CronExpression != "" {
		return s.runCron(ctx)
	}
	s.runInterval(ctx)
	return nil
}

func (s *WeatherScheduler) runInterval(ctx context.Context) {
	log.Info(msg.GetMessage("weather.schedule.start", s.config.Interval))
	defer log.Info(msg.GetMessage("weather.schedule.stop"))

	for {
		s.ExecuteScheduledTask(ctx)
		if ctx.Err() != nil {
			return
		}

		log.Debug(msg.GetMessage("weather.schedule.sleep", s.config.Interval))
		select {
		case <-ctx.Done():
			return
		case <-s.clock.After(s.config.Interval):
		}
	}
}

func (s *WeatherScheduler) runCron(ctx context.Context) error {
	scheduler := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(cronLogger{}),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger{})),
	)

	if _, err := scheduler.AddFunc(s.config.CronExpression, func() { s.ExecuteScheduledTask(ctx) }); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", s.config.CronExpression, err)
	}

	scheduler.Start()
	log.Info(msg.GetMessage("weather.schedule.start-cron", s.config.CronExpression))

	<-ctx.Done()
	<-scheduler.Stop().Done()
	log.Info(msg.GetMessage("weather.schedule.stop"))
	return nil
}

// ExecuteScheduledTask runs one update cycle under a fresh request id
func (s *WeatherScheduler) ExecuteScheduledTask(ctx context.Context) {
	requestID := uuid.New().String()
	s.markStarted(requestID)

	err := s.useCase.UpdateAllCities(ctx, requestID)
	if err != nil && ctx.Err() == nil {
		log.Error("weather update cycle failed", zap.String("request_id", requestID), zap.Error(err))
	}
	s.markFinished(err)
}

// Status returns a copy of the latest cycle status
func (s *WeatherScheduler) Status() CycleStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *WeatherScheduler) markStarted(requestID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.Running = true
	s.status.LastRequestID = requestID
	s.status.LastStart = s.clock.Now()
}

func (s *WeatherScheduler) markFinished(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.Running = false
	s.status.Cycles++
	s.status.LastEnd = s.clock.Now()
	s.status.LastError = ""
	if err != nil {
		s.status.LastError = err.Error()
	}
}

func (s *WeatherScheduler) setLockKey(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.LockKey = key
}

func (s *WeatherScheduler) getLockKey() string {
	if s.config.LockKey != "" {
		return s.config.LockKey
	}
	return "weather_poller_scheduler"
}

func (s *WeatherScheduler) getLockTTL() time.Duration {
	if s.config.LockTTL > 0 {
		return s.config.LockTTL
	}
	return 10 * time.Minute
}

func (s *WeatherScheduler) getRefreshInterval() time.Duration {
	if s.config.RefreshInterval > 0 {
		return s.config.RefreshInterval
	}
	return time.Minute
}
