package health

import (
	"context"

	"weather-poller/internal/domain/gateway/health"
	"weather-poller/internal/domain/model"
)

type healthUseCase struct {
	pollerGateway health.ComponentGateway
	redisGateway  health.ComponentGateway
}

// NewHealthUseCase combines the poller and Redis health. redisGateway is nil
// when Redis is disabled.
func NewHealthUseCase(pollerGateway, redisGateway health.ComponentGateway) UseCase {
	return &healthUseCase{
		pollerGateway: pollerGateway,
		redisGateway:  redisGateway,
	}
}

func (useCase *healthUseCase) CheckHealth(ctx context.Context) model.HealthResponse {
	pollerHealth := useCase.pollerGateway.Health(ctx)

	redisHealth := model.ComponentHealthStatus{
		Status:  model.StatusUnknown,
		Details: map[string]string{"enabled": "false"},
	}
	if useCase.redisGateway != nil {
		redisHealth = useCase.redisGateway.Health(ctx)
	}

	overallStatus := model.StatusUp
	if pollerHealth.Status == model.StatusDown || redisHealth.Status == model.StatusDown {
		overallStatus = model.StatusDown
	}

	return model.HealthResponse{
		Status: overallStatus,
		Poller: pollerHealth,
		Redis:  redisHealth,
	}
}
