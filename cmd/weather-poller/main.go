package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"weather-poller/configs"
	"weather-poller/internal/application/controller"
	"weather-poller/internal/application/middleware"
	"weather-poller/internal/application/schedule"
	"weather-poller/internal/domain/entity"
	"weather-poller/internal/domain/gateway/api"
	healthgateway "weather-poller/internal/domain/gateway/health"
	"weather-poller/internal/domain/gateway/queue"
	"weather-poller/internal/domain/gateway/storage"
	"weather-poller/internal/domain/usecase/health"
	"weather-poller/internal/domain/usecase/weather"
	infraredis "weather-poller/internal/infra/redis"
	httpclient "weather-poller/pkg/http"
	"weather-poller/pkg/log"
	"weather-poller/pkg/msg"
	"weather-poller/pkg/redis"
	"weather-poller/pkg/resource"
	"weather-poller/pkg/throttle"

	"github.com/labstack/echo/v4"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	flags := pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	configPath := flags.String("config", resource.PropertiesPath(), "properties file")
	flags.String("api-token", "", "OpenWeatherMap API key")
	flags.String("api-token-file", "", "file holding the OpenWeatherMap API key")
	flags.String("city-ids", "", "comma separated city ids")
	flags.String("output-directory", "", "base directory of the weather files")
	flags.String("log-level", "", "debug, info, warn or error")
	flags.Duration("redis-dial-timeout", 0, "timeout for establishing Redis connections")
	_ = flags.Parse(os.Args[1:])

	if err := resource.Load(*configPath); err != nil {
		log.Fatal("load properties", zap.Error(err))
	}
	if err := resource.BindFlags(flags, configs.FlagBindings); err != nil {
		log.Fatal("bind flags", zap.Error(err))
	}

	cfg, err := configs.Load()
	if err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}
	if err := log.Configure(cfg.Name, cfg.LogLevel); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}
	defer log.Sync()

	log.Info(msg.GetMessage("app.start", cfg.Name))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Init Gateways
	weatherGateway, err := api.NewWeatherGateway(cfg.Weather.BaseURL, api.WeatherGatewayOptions{
		APIKey:         cfg.Weather.APIToken,
		Units:          cfg.Weather.Units,
		Language:       cfg.Weather.Language,
		CircuitBreaker: cfg.Weather.CircuitBreakerEnabled,
		HTTP:           httpclient.ClientOptions{Logger: httpclient.NewZapHTTPLogger()},
	})
	if err != nil {
		log.Fatal("weather gateway", zap.Error(err))
	}

	recordGateway := storage.NewCSVRecordGateway(storage.Options{
		Directory: cfg.Output.Directory,
		Extension: cfg.Output.Extension,
		Delimiter: cfg.Output.Delimiter,
	})

	// Init Redis
	var (
		redisClient  *redis.Client
		queueSender  queue.Sender
		redisGateway healthgateway.ComponentGateway
	)
	if cfg.Redis.Enabled {
		redisClient, err = redis.NewClient(redis.NewRedisConfig().
			WithHost(cfg.Redis.Host).
			WithPort(cfg.Redis.Port).
			WithPassword(cfg.Redis.Password).
			WithDatabase(cfg.Redis.Database).
			WithDialTimeout(cfg.Redis.DialTimeout))
		if err != nil {
			log.Fatal("redis client", zap.Error(err))
		}
		defer func() { _ = redisClient.Close() }()

		if err := redisClient.Ping(ctx); err != nil {
			log.Fatal("redis ping", zap.Error(err))
		}
		queueSender = infraredis.NewSenderAdapter(redis.NewPublisher(redisClient, redis.NewPubSubConfig().WithChannelNamespace(cfg.Redis.FeedNamespace)))
		redisGateway = infraredis.NewHealthAdapter(redis.NewHealthChecker(redisClient))
	}

	// Init UseCase
	cityIDs := make([]entity.CityID, len(cfg.Weather.CityIDs))
	for i, id := range cfg.Weather.CityIDs {
		cityIDs[i] = entity.CityID(id)
	}
	weatherUseCase := weather.NewWeatherUseCase(weather.Options{
		CityIDs: cityIDs,
		Fetch: throttle.Options{
			Interval: cfg.Fetch.PacingInterval,
			Timeout:  cfg.Fetch.CallTimeout,
		},
		FeedChannel: cfg.Redis.FeedChannel,
	}, weatherGateway, recordGateway, queueSender)

	// Init Schedule
	weatherScheduler := schedule.NewWeatherScheduler(weatherUseCase, redisClient, &schedule.WeatherSchedulerConfig{
		Interval:        cfg.Poll.Interval,
		CronExpression:  cfg.Poll.Cron,
		LockKey:         cfg.Redis.LockKey,
		LockTTL:         cfg.Redis.LockTTL,
		RefreshInterval: cfg.Redis.LockRefreshInterval,
	}, nil)

	if cfg.Server.Enabled {
		e := echo.New()
		e.HideBanner = true
		middleware.SetupRequestLogger(e)
		group := e.Group(cfg.Server.ContextPath)

		healthUseCase := health.NewHealthUseCase(weatherScheduler, redisGateway)
		controller.NewHealthController(group, healthUseCase).InitHealthRoutes()

		go func() {
			if err := e.Start(":" + strconv.Itoa(cfg.Server.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("health server stopped", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = e.Shutdown(shutdownCtx)
		}()
	}

	log.Info(msg.GetMessage("app.started", cfg.Name))

	if err := weatherScheduler.Run(ctx); err != nil {
		log.Fatal("weather scheduler", zap.Error(err))
	}
	log.Info(msg.GetMessage("app.stopping", cfg.Name))
}
