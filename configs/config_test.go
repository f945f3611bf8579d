package configs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"weather-poller/pkg/resource"
)

func loadProperties(t *testing.T, content string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "application.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write properties: %v", err)
	}
	if err := resource.Load(path); err != nil {
		t.Fatalf("load properties: %v", err)
	}
}

func TestLoad(t *testing.T) {
	t.Run("Load should apply defaults around the required keys", func(t *testing.T) {
		loadProperties(t, `
app:
  weather:
    api-token: 0123456789abcdef0123456789abcdef
    city-ids: [2988507, 2643743]
`)
		cfg, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.Output.Delimiter != ',' || cfg.Output.Extension != "csv" || cfg.Output.Directory != "data" {
			t.Errorf("unexpected output defaults %+v", cfg.Output)
		}
		if cfg.Fetch.PacingInterval != time.Second || cfg.Fetch.CallTimeout != 5*time.Second {
			t.Errorf("unexpected fetch defaults %+v", cfg.Fetch)
		}
		if cfg.Redis.DialTimeout != 5*time.Second {
			t.Errorf("expected 5s dial timeout, got %s", cfg.Redis.DialTimeout)
		}
		if cfg.Poll.Interval != 30*time.Minute {
			t.Errorf("expected 30m interval, got %s", cfg.Poll.Interval)
		}
		if cfg.Weather.Units != "metric" || cfg.Weather.Language != "en" {
			t.Errorf("unexpected weather defaults %+v", cfg.Weather)
		}
		if len(cfg.Weather.CityIDs) != 2 || cfg.Weather.CityIDs[0] != 2988507 || cfg.Weather.CityIDs[1] != 2643743 {
			t.Errorf("unexpected city ids %v", cfg.Weather.CityIDs)
		}
	})

	t.Run("Load should accept a comma separated city list and custom output", func(t *testing.T) {
		loadProperties(t, `
app:
  weather:
    api-token: token
    city-ids: "1, 2,3"
  output:
    delimiter: ";"
    extension: .txt
`)
		cfg, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(cfg.Weather.CityIDs) != 3 {
			t.Errorf("expected 3 city ids, got %v", cfg.Weather.CityIDs)
		}
		if cfg.Output.Delimiter != ';' || cfg.Output.Extension != "txt" {
			t.Errorf("unexpected output %+v", cfg.Output)
		}
	})

	t.Run("Load should read and trim the token file", func(t *testing.T) {
		tokenFile := filepath.Join(t.TempDir(), "token")
		if err := os.WriteFile(tokenFile, []byte("  file-token\n"), 0o600); err != nil {
			t.Fatalf("write token: %v", err)
		}
		t.Setenv("TEST_TOKEN_FILE", tokenFile)
		loadProperties(t, `
app:
  weather:
    api-token-file: ${TEST_TOKEN_FILE}
    city-ids: [1]
`)
		cfg, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Weather.APIToken != "file-token" {
			t.Errorf("expected trimmed file token, got %q", cfg.Weather.APIToken)
		}
	})

	t.Run("Load should fail without any API key", func(t *testing.T) {
		loadProperties(t, `
app:
  weather:
    city-ids: [1]
`)
		if _, err := Load(); !errors.Is(err, ErrMissingAPIKey) {
			t.Errorf("expected ErrMissingAPIKey, got %v", err)
		}
	})

	t.Run("Load should read the Redis connection and feed settings", func(t *testing.T) {
		loadProperties(t, `
app:
  weather:
    api-token: token
    city-ids: [1]
  redis:
    enabled: true
    dial-timeout: 2s
    feed-channel: records
    feed-namespace: weather
`)
		cfg, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Redis.DialTimeout != 2*time.Second {
			t.Errorf("expected 2s dial timeout, got %s", cfg.Redis.DialTimeout)
		}
		if cfg.Redis.FeedChannel != "records" || cfg.Redis.FeedNamespace != "weather" {
			t.Errorf("unexpected feed settings %+v", cfg.Redis)
		}
	})

	t.Run("Load should reject invalid values", func(t *testing.T) {
		cases := map[string]string{
			"no cities": `
app:
  weather:
    api-token: token
`,
			"bad city": `
app:
  weather:
    api-token: token
    city-ids: [1, paris]
`,
			"long delimiter": `
app:
  weather:
    api-token: token
    city-ids: [1]
  output:
    delimiter: ";;"
`,
			"quote delimiter": `
app:
  weather:
    api-token: token
    city-ids: [1]
  output:
    delimiter: '"'
`,
			"zero dial timeout": `
app:
  weather:
    api-token: token
    city-ids: [1]
  redis:
    enabled: true
    dial-timeout: 0s
`,
			"zero timeout": `
app:
  weather:
    api-token: token
    city-ids: [1]
  fetch:
    call-timeout: 0s
`,
		}

		for name, content := range cases {
			t.Run(name, func(t *testing.T) {
				loadProperties(t, content)
				if _, err := Load(); err == nil {
					t.Error("expected a validation error")
				}
			})
		}
	})
}
