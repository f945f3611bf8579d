package schedule

import (
	"context"
	"strconv"
	"time"

	"weather-poller/internal/domain/model"
)

// Health exposes the latest cycle as a component status. It is UNKNOWN until
// the first cycle starts and DOWN while a configured lock is not held.
func (s *WeatherScheduler) Health(context.Context) model.ComponentHealthStatus {
	status := s.Status()

	details := map[string]string{
		"running": strconv.FormatBool(status.Running),
		"cycles":  strconv.Itoa(status.Cycles),
	}
	if s.config.CronExpression != "" {
		details["cron"] = s.config.CronExpression
	} else {
		details["interval"] = s.config.Interval.String()
	}
	if status.LastRequestID != "" {
		details["last_request_id"] = status.LastRequestID
		details["last_start"] = status.LastStart.UTC().Format(time.RFC3339)
	}
	if !status.LastEnd.IsZero() {
		details["last_end"] = status.LastEnd.UTC().Format(time.RFC3339)
	}
	if status.LastError != "" {
		details["last_error"] = status.LastError
	}
	if status.LockKey != "" {
		details["lock"] = status.LockKey
	}

	switch {
	case s.redisClient != nil && status.LockKey == "":
		return model.ComponentHealthStatus{Status: model.StatusDown, Details: details}
	case status.LastRequestID == "":
		return model.ComponentHealthStatus{Status: model.StatusUnknown, Details: details}
	default:
		return model.ComponentHealthStatus{Status: model.StatusUp, Details: details}
	}
}
