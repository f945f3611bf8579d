package weather

import (
	"context"
	"errors"

	"weather-poller/internal/domain/entity"
	"weather-poller/internal/domain/gateway/api"
	"weather-poller/internal/domain/gateway/queue"
	"weather-poller/internal/domain/gateway/storage"
	"weather-poller/internal/domain/model/external"
	"weather-poller/pkg/log"
	"weather-poller/pkg/msg"
	"weather-poller/pkg/throttle"

	"go.uber.org/zap"
)

type Options struct {
	CityIDs []entity.CityID
	Fetch   throttle.Options
	// FeedChannel receives every stored record when a sender is configured.
	FeedChannel string
}

type weatherUseCase struct {
	cityIDs       []entity.CityID
	pipeline      *throttle.Pipeline[entity.CityID, *external.CurrentWeatherResponse]
	recordGateway storage.RecordGateway
	queueSender   queue.Sender
	feedChannel   string
}

// NewWeatherUseCase wires the fetch pipeline to the record store. queueSender
// may be nil.
func NewWeatherUseCase(opts Options, apiGateway api.WeatherGateway, recordGateway storage.RecordGateway, queueSender queue.Sender) UseCase {
	return &weatherUseCase{
		cityIDs:       opts.CityIDs,
		pipeline:      throttle.New(apiGateway.FetchCurrentWeather, opts.Fetch),
		recordGateway: recordGateway,
		queueSender:   queueSender,
		feedChannel:   opts.FeedChannel,
	}
}

func (uc *weatherUseCase) UpdateAllCities(ctx context.Context, requestID string) error {
	log.Info(msg.GetMessage("weather.cycle.start", len(uc.cityIDs)), zap.String("request_id", requestID))

	for outcome := range uc.pipeline.Run(ctx, uc.cityIDs) {
		uc.handleOutcome(ctx, requestID, outcome)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	log.Info(msg.GetMessage("weather.cycle.end", len(uc.cityIDs)), zap.String("request_id", requestID))
	return nil
}

func (uc *weatherUseCase) handleOutcome(ctx context.Context, requestID string, outcome throttle.Outcome[entity.CityID, *external.CurrentWeatherResponse]) {
	fields := []zap.Field{
		zap.String("request_id", requestID),
		zap.Uint64("city_id", uint64(outcome.Key)),
	}

	if outcome.TimedOut() {
		log.Warn(msg.GetMessage("weather.city.timeout", outcome.Key), fields...)
		return
	}
	if outcome.Err != nil {
		var apiErr *api.APIError
		if errors.As(outcome.Err, &apiErr) {
			fields = append(fields, zap.Int("status", apiErr.StatusCode))
		}
		log.Error(msg.GetMessage("weather.city.api-error", outcome.Key), append(fields, zap.Error(outcome.Err))...)
		return
	}

	record := ToWeatherRecord(outcome.Value)
	fields = append(fields, zap.String("city_name", record.City))

	path, err := uc.recordGateway.Append(record)
	if err != nil {
		log.Error(msg.GetMessage("weather.city.write-error", outcome.Key), append(fields, zap.Error(err))...)
		return
	}
	log.Info(msg.GetMessage("weather.city.stored", record.City, path), fields...)

	if uc.queueSender == nil || uc.feedChannel == "" {
		return
	}
	if err := uc.queueSender.SendMessage(ctx, uc.feedChannel, record); err != nil {
		log.Warn(msg.GetMessage("weather.city.publish-error", outcome.Key), append(fields, zap.Error(err))...)
	}
}
