package redis

import (
	"context"
	"strconv"

	"weather-poller/internal/domain/gateway/health"
	"weather-poller/internal/domain/model"
	pkgredis "weather-poller/pkg/redis"
)

type healthAdapter struct {
	checker *pkgredis.HealthChecker
}

// NewHealthAdapter exposes the Redis health check as a component gateway.
// Locks held by this process appear as "lock.<key>" details.
func NewHealthAdapter(checker *pkgredis.HealthChecker) health.ComponentGateway {
	return &healthAdapter{checker: checker}
}

func (a *healthAdapter) Health(ctx context.Context) model.ComponentHealthStatus {
	check := a.checker.HealthCheck(ctx)

	details := make(map[string]string, len(check.Details)+len(check.LockStatus))
	for key, value := range check.Details {
		details[key] = value
	}
	for key, locked := range check.LockStatus {
		details["lock."+key] = strconv.FormatBool(locked)
	}

	return model.ComponentHealthStatus{
		Status:  model.HealthStatus(check.Status),
		Details: details,
	}
}
