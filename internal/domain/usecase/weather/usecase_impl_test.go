package weather

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"weather-poller/internal/domain/entity"
	"weather-poller/internal/domain/gateway/api"
	"weather-poller/internal/domain/gateway/storage"
	"weather-poller/internal/domain/model/external"
	"weather-poller/pkg/throttle"

	"github.com/jonboulle/clockwork"
)

type fakeWeatherGateway struct {
	readings map[entity.CityID]*external.CurrentWeatherResponse
	errs     map[entity.CityID]error
	hang     map[entity.CityID]chan struct{}
}

func (g *fakeWeatherGateway) FetchCurrentWeather(_ context.Context, cityID entity.CityID) (*external.CurrentWeatherResponse, error) {
	if ch, ok := g.hang[cityID]; ok {
		<-ch
	}
	if err, ok := g.errs[cityID]; ok {
		return nil, err
	}
	return g.readings[cityID], nil
}

type fakeRecordGateway struct {
	mu      sync.Mutex
	records []entity.WeatherRecord
	fail    map[string]error
}

func (g *fakeRecordGateway) Append(record entity.WeatherRecord) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err, ok := g.fail[record.City]; ok {
		return "", err
	}
	g.records = append(g.records, record)
	return record.City + ".csv", nil
}

func (g *fakeRecordGateway) PartitionPath(record entity.WeatherRecord) (string, error) {
	return record.City + ".csv", nil
}

func (g *fakeRecordGateway) cities() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	var cities []string
	for _, record := range g.records {
		cities = append(cities, record.City)
	}
	return cities
}

type fakeSender struct {
	mu       sync.Mutex
	channels []string
	bodies   []any
	err      error
}

func (s *fakeSender) SendMessage(_ context.Context, destination string, body any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channels = append(s.channels, destination)
	s.bodies = append(s.bodies, body)
	return s.err
}

func readingFor(name string, id uint64) *external.CurrentWeatherResponse {
	reading := parisReading()
	reading.Name = name
	reading.ID = id
	return reading
}

func equalCities(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestUpdateAllCities(t *testing.T) {
	t.Run("UpdateAllCities should skip an API error and store the rest in order", func(t *testing.T) {
		gateway := &fakeWeatherGateway{
			readings: map[entity.CityID]*external.CurrentWeatherResponse{
				1: readingFor("Paris", 1),
				3: readingFor("Berlin", 3),
			},
			errs: map[entity.CityID]error{
				2: &api.APIError{StatusCode: http.StatusNotFound, Code: "404", Message: "city not found"},
			},
		}
		records := &fakeRecordGateway{}
		useCase := NewWeatherUseCase(Options{CityIDs: []entity.CityID{1, 2, 3}}, gateway, records, nil)

		if err := useCase.UpdateAllCities(context.Background(), "request-1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		equalCities(t, records.cities(), []string{"Paris", "Berlin"})
	})

	t.Run("UpdateAllCities should continue after a write failure", func(t *testing.T) {
		gateway := &fakeWeatherGateway{
			readings: map[entity.CityID]*external.CurrentWeatherResponse{
				1: readingFor("Paris", 1),
				2: readingFor("London", 2),
			},
		}
		records := &fakeRecordGateway{fail: map[string]error{"Paris": errors.New("disk full")}}
		useCase := NewWeatherUseCase(Options{CityIDs: []entity.CityID{1, 2}}, gateway, records, nil)

		if err := useCase.UpdateAllCities(context.Background(), "request-2"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		equalCities(t, records.cities(), []string{"London"})
	})

	t.Run("UpdateAllCities should drop a timed out city and keep going", func(t *testing.T) {
		clock := clockwork.NewFakeClock()
		hang := make(chan struct{})
		defer close(hang)

		gateway := &fakeWeatherGateway{
			readings: map[entity.CityID]*external.CurrentWeatherResponse{
				1: readingFor("Paris", 1),
				3: readingFor("Berlin", 3),
			},
			hang: map[entity.CityID]chan struct{}{2: hang},
		}
		records := &fakeRecordGateway{}
		useCase := NewWeatherUseCase(Options{
			CityIDs: []entity.CityID{1, 2, 3},
			Fetch:   throttle.Options{Interval: 0, Timeout: 5 * time.Second, Clock: clock},
		}, gateway, records, nil)

		done := make(chan error, 1)
		go func() { done <- useCase.UpdateAllCities(context.Background(), "request-3") }()

		deadline := time.Now().Add(5 * time.Second)
		for len(records.cities()) < 1 {
			if time.Now().After(deadline) {
				t.Fatal("first city was not stored")
			}
			time.Sleep(time.Millisecond)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := clock.BlockUntilContext(ctx, 1); err != nil {
			t.Fatalf("waiting for the deadline timer: %v", err)
		}
		clock.Advance(5 * time.Second)

		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("cycle did not finish")
		}
		equalCities(t, records.cities(), []string{"Paris", "Berlin"})
	})

	t.Run("UpdateAllCities should publish stored records to the feed", func(t *testing.T) {
		gateway := &fakeWeatherGateway{
			readings: map[entity.CityID]*external.CurrentWeatherResponse{1: readingFor("Paris", 1)},
		}
		sender := &fakeSender{err: errors.New("redis down")}
		records := &fakeRecordGateway{}
		useCase := NewWeatherUseCase(Options{CityIDs: []entity.CityID{1}, FeedChannel: "weather-records"}, gateway, records, sender)

		if err := useCase.UpdateAllCities(context.Background(), "request-4"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		equalCities(t, records.cities(), []string{"Paris"})
		if len(sender.channels) != 1 || sender.channels[0] != "weather-records" {
			t.Fatalf("expected one publish, got %v", sender.channels)
		}
		if record, ok := sender.bodies[0].(entity.WeatherRecord); !ok || record.City != "Paris" {
			t.Errorf("unexpected published body %+v", sender.bodies[0])
		}
	})

	t.Run("UpdateAllCities should write the Paris reading to its yearly file", func(t *testing.T) {
		dir := t.TempDir()
		gateway := &fakeWeatherGateway{
			readings: map[entity.CityID]*external.CurrentWeatherResponse{2988507: parisReading()},
		}
		records := storage.NewCSVRecordGateway(storage.Options{Directory: dir})
		useCase := NewWeatherUseCase(Options{CityIDs: []entity.CityID{2988507}}, gateway, records, nil)

		if err := useCase.UpdateAllCities(context.Background(), "request-5"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		path, _ := records.PartitionPath(ToWeatherRecord(parisReading()))
		if path != filepath.Join(dir, "Paris", "2023.csv") {
			t.Errorf("unexpected partition %s", path)
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected %s to exist: %v", path, err)
		}
	})

	t.Run("UpdateAllCities should return the context error when cancelled", func(t *testing.T) {
		gateway := &fakeWeatherGateway{}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		useCase := NewWeatherUseCase(Options{CityIDs: []entity.CityID{1, 2}}, gateway, &fakeRecordGateway{}, nil)
		if err := useCase.UpdateAllCities(ctx, "request-6"); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}
