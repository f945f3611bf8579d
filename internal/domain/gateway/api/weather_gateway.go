package api

import (
	"context"
	"errors"
	"fmt"

	"weather-poller/internal/domain/entity"
	"weather-poller/internal/domain/model/external"
)

var (
	// ErrInvalidAPIKey is a construction error for a missing or malformed key.
	ErrInvalidAPIKey = errors.New("invalid API key: expected 32 hexadecimal characters")
	// ErrEmptyConditions rejects a reading without any weather condition.
	ErrEmptyConditions = errors.New("weather response has no conditions")
)

// APIError is an error answer from the weather provider.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("weather api error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("weather api error: status %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// WeatherGateway defines the interface for weather-related external API calls
type WeatherGateway interface {
	// FetchCurrentWeather returns the current reading for a city. The reading
	// always carries at least one weather condition.
	FetchCurrentWeather(ctx context.Context, cityID entity.CityID) (*external.CurrentWeatherResponse, error)
}
