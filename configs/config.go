package configs

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"weather-poller/pkg/msg"
	"weather-poller/pkg/resource"
	"weather-poller/pkg/util/numberutils"
)

type AppConfig struct {
	Name     string
	LogLevel string
	Weather  WeatherConfig
	Fetch    FetchConfig
	Poll     PollConfig
	Output   OutputConfig
	Redis    RedisConfig
	Server   ServerConfig
}

type WeatherConfig struct {
	BaseURL               string
	APIToken              string
	Units                 string
	Language              string
	CityIDs               []uint64
	CircuitBreakerEnabled bool
}

type FetchConfig struct {
	PacingInterval time.Duration
	CallTimeout    time.Duration
}

// PollConfig drives the scheduler. A non-empty Cron replaces the fixed
// interval between cycles.
type PollConfig struct {
	Interval time.Duration
	Cron     string
}

type OutputConfig struct {
	Directory string
	Delimiter rune
	Extension string
}

type RedisConfig struct {
	Enabled             bool
	Host                string
	Port                int
	Password            string
	Database            int
	DialTimeout         time.Duration
	LockKey             string
	LockTTL             time.Duration
	LockRefreshInterval time.Duration
	FeedChannel         string
	// FeedNamespace prefixes the feed channel as namespace::channel.
	FeedNamespace string
}

type ServerConfig struct {
	Enabled     bool
	Port        int
	ContextPath string
}

var ErrMissingAPIKey = errors.New(msg.GetMessage("config.error.no-api-key"))

// FlagBindings maps property keys to the command line flags that override them.
var FlagBindings = map[string]string{
	"app.log.level":              "log-level",
	"app.weather.api-token":      "api-token",
	"app.weather.api-token-file": "api-token-file",
	"app.weather.city-ids":       "city-ids",
	"app.output.directory":       "output-directory",
	"app.redis.dial-timeout":     "redis-dial-timeout",
}

func registerDefaults() {
	resource.SetDefault("app.name", "weather-poller")
	resource.SetDefault("app.log.level", "info")
	resource.SetDefault("app.weather.base-url", "https://api.openweathermap.org")
	resource.SetDefault("app.weather.units", "metric")
	resource.SetDefault("app.weather.language", "en")
	resource.SetDefault("app.fetch.pacing-interval", time.Second)
	resource.SetDefault("app.fetch.call-timeout", 5*time.Second)
	resource.SetDefault("app.poll.interval", 30*time.Minute)
	resource.SetDefault("app.output.directory", "data")
	resource.SetDefault("app.output.delimiter", ",")
	resource.SetDefault("app.output.extension", "csv")
	resource.SetDefault("app.redis.host", "localhost")
	resource.SetDefault("app.redis.port", 6379)
	resource.SetDefault("app.redis.dial-timeout", 5*time.Second)
	resource.SetDefault("app.redis.lock.key", "weather_poller_scheduler")
	resource.SetDefault("app.redis.lock.ttl", 10*time.Minute)
	resource.SetDefault("app.redis.lock.refresh-interval", time.Minute)
	resource.SetDefault("app.server.port", 8080)
	resource.SetDefault("app.server.context-path", "/weather-poller")
}

// Load builds the validated application configuration from the loaded
// properties.
func Load() (*AppConfig, error) {
	registerDefaults()

	token, err := apiToken()
	if err != nil {
		return nil, err
	}

	cityIDs, err := cityIDs()
	if err != nil {
		return nil, err
	}

	delimiter, err := delimiter(resource.GetString("app.output.delimiter"))
	if err != nil {
		return nil, err
	}

	cfg := &AppConfig{
		Name:     resource.GetString("app.name"),
		LogLevel: resource.GetString("app.log.level"),
		Weather: WeatherConfig{
			BaseURL:               resource.GetString("app.weather.base-url"),
			APIToken:              token,
			Units:                 resource.GetString("app.weather.units"),
			Language:              resource.GetString("app.weather.language"),
			CityIDs:               cityIDs,
			CircuitBreakerEnabled: resource.GetBool("app.weather.circuit-breaker.enabled"),
		},
		Fetch: FetchConfig{
			PacingInterval: resource.GetDuration("app.fetch.pacing-interval"),
			CallTimeout:    resource.GetDuration("app.fetch.call-timeout"),
		},
		Poll: PollConfig{
			Interval: resource.GetDuration("app.poll.interval"),
			Cron:     strings.TrimSpace(resource.GetString("app.poll.cron")),
		},
		Output: OutputConfig{
			Directory: resource.GetString("app.output.directory"),
			Delimiter: delimiter,
			Extension: strings.TrimPrefix(resource.GetString("app.output.extension"), "."),
		},
		Redis: RedisConfig{
			Enabled:             resource.GetBool("app.redis.enabled"),
			Host:                resource.GetString("app.redis.host"),
			Port:                resource.GetInt("app.redis.port"),
			Password:            resource.GetString("app.redis.password"),
			Database:            resource.GetInt("app.redis.database"),
			DialTimeout:         resource.GetDuration("app.redis.dial-timeout"),
			LockKey:             resource.GetString("app.redis.lock.key"),
			LockTTL:             resource.GetDuration("app.redis.lock.ttl"),
			LockRefreshInterval: resource.GetDuration("app.redis.lock.refresh-interval"),
			FeedChannel:         resource.GetString("app.redis.feed-channel"),
			FeedNamespace:       resource.GetString("app.redis.feed-namespace"),
		},
		Server: ServerConfig{
			Enabled:     resource.GetBool("app.server.enabled"),
			Port:        resource.GetInt("app.server.port"),
			ContextPath: resource.GetString("app.server.context-path"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) validate() error {
	positive := map[string]time.Duration{
		"app.fetch.call-timeout": c.Fetch.CallTimeout,
	}
	if c.Poll.Cron == "" {
		positive["app.poll.interval"] = c.Poll.Interval
	}
	if c.Redis.Enabled {
		positive["app.redis.dial-timeout"] = c.Redis.DialTimeout
		positive["app.redis.lock.ttl"] = c.Redis.LockTTL
		positive["app.redis.lock.refresh-interval"] = c.Redis.LockRefreshInterval
	}
	for key, value := range positive {
		if value <= 0 {
			return errors.New(msg.GetMessage("config.error.invalid-duration", key))
		}
	}
	if c.Fetch.PacingInterval < 0 {
		return errors.New(msg.GetMessage("config.error.invalid-duration", "app.fetch.pacing-interval"))
	}
	if c.Output.Directory == "" {
		return errors.New("output directory must not be empty")
	}
	if c.Output.Extension == "" {
		return errors.New("output extension must not be empty")
	}
	return nil
}

// apiToken prefers the inline token and falls back to the trimmed content of
// the token file.
func apiToken() (string, error) {
	if token := strings.TrimSpace(resource.GetString("app.weather.api-token")); token != "" {
		return token, nil
	}

	path := resource.GetString("app.weather.api-token-file")
	if path == "" {
		return "", ErrMissingAPIKey
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%s: %w", msg.GetMessage("config.error.api-key-file", path), err)
	}
	token := strings.TrimSpace(string(content))
	if token == "" {
		return "", ErrMissingAPIKey
	}
	return token, nil
}

// cityIDs accepts a YAML list or a comma separated string.
func cityIDs() ([]uint64, error) {
	raw := strings.Join(resource.GetStringSlice("app.weather.city-ids"), ",")
	ids, err := numberutils.SplitUint64(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", msg.GetMessage("config.error.invalid-city", raw), err)
	}
	if len(ids) == 0 {
		return nil, errors.New(msg.GetMessage("config.error.no-cities"))
	}
	return ids, nil
}

func delimiter(value string) (rune, error) {
	r, size := utf8.DecodeRuneInString(value)
	if size == 0 || size != len(value) || r == utf8.RuneError || r == '"' || r == '\r' || r == '\n' {
		return 0, errors.New(msg.GetMessage("config.error.invalid-delimiter", value))
	}
	return r, nil
}
