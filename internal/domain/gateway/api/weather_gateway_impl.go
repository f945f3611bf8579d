package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"weather-poller/internal/domain/entity"
	"weather-poller/internal/domain/model/external"
	httpclient "weather-poller/pkg/http"
	"weather-poller/pkg/log"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const currentWeatherPath = "/data/2.5/weather"

var apiKeyPattern = regexp.MustCompile(`^[0-9a-fA-F]{32}$`)

type WeatherGatewayOptions struct {
	APIKey         string
	Units          string
	Language       string
	CircuitBreaker bool
	HTTP           httpclient.ClientOptions
}

// weatherGatewayImpl implements the WeatherGateway interface
type weatherGatewayImpl struct {
	httpClient *httpclient.Client
	apiKey     string
	units      string
	language   string
	circuit    *gobreaker.CircuitBreaker
}

// NewWeatherGateway creates a new instance of WeatherGateway with HTTP client
func NewWeatherGateway(baseURL string, opts WeatherGatewayOptions) (WeatherGateway, error) {
	if !apiKeyPattern.MatchString(opts.APIKey) {
		return nil, ErrInvalidAPIKey
	}

	httpClient, err := httpclient.NewHttpClient(baseURL, opts.HTTP)
	if err != nil {
		return nil, fmt.Errorf("weather client: %w", err)
	}

	gateway := &weatherGatewayImpl{
		httpClient: httpClient,
		apiKey:     opts.APIKey,
		units:      opts.Units,
		language:   opts.Language,
	}

	if opts.CircuitBreaker {
		gateway.circuit = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:         "openweathermap",
			MaxRequests:  1,
			Interval:     time.Hour,
			Timeout:      2 * time.Minute,
			IsSuccessful: countsAsHealthy,
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn("circuit breaker state changed",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()))
			},
		})
	}

	return gateway, nil
}

// FetchCurrentWeather gets the current weather for a city
func (w *weatherGatewayImpl) FetchCurrentWeather(ctx context.Context, cityID entity.CityID) (*external.CurrentWeatherResponse, error) {
	if w.circuit == nil {
		return w.fetch(ctx, cityID)
	}

	result, err := w.circuit.Execute(func() (interface{}, error) {
		return w.fetch(ctx, cityID)
	})
	if err != nil {
		return nil, err
	}
	return result.(*external.CurrentWeatherResponse), nil
}

func (w *weatherGatewayImpl) fetch(ctx context.Context, cityID entity.CityID) (*external.CurrentWeatherResponse, error) {
	params := map[string]string{
		"id":    cityID.String(),
		"appid": w.apiKey,
	}
	if w.units != "" {
		params["units"] = w.units
	}
	if w.language != "" {
		params["lang"] = w.language
	}

	successResp, errResp, status, err := w.httpClient.Request().
		WithContext(ctx).
		WithMethod(httpclient.GET).
		WithPath(currentWeatherPath).
		WithQueryParams(params).
		WithHeaders(map[string]string{"Accept": "application/json"}).
		WithSuccessResp(&external.CurrentWeatherResponse{}).
		WithErrorResp(&external.APIErrorResponse{}).
		Execute()

	if err == nil {
		response := successResp.(*external.CurrentWeatherResponse)
		if len(response.Weather) == 0 {
			return nil, &APIError{StatusCode: status, Message: ErrEmptyConditions.Error(), Err: ErrEmptyConditions}
		}
		return response, nil
	}

	if errResp != nil {
		errorResponse := errResp.(*external.APIErrorResponse)
		return nil, &APIError{
			StatusCode: status,
			Code:       fmt.Sprint(errorResponse.Cod),
			Message:    errorResponse.Message,
		}
	}

	if status != 0 {
		return nil, &APIError{StatusCode: status, Message: err.Error(), Err: err}
	}

	return nil, fmt.Errorf("weather request for city %s: %w", cityID, err)
}

// countsAsHealthy keeps client errors such as an unknown city id from
// tripping the breaker.
func countsAsHealthy(err error) bool {
	if err == nil {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= http.StatusBadRequest && apiErr.StatusCode < http.StatusInternalServerError
	}
	return errors.Is(err, context.Canceled)
}
