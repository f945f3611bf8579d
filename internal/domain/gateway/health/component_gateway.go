package health

import (
	"context"

	"weather-poller/internal/domain/model"
)

// ComponentGateway reports the health of one part of the poller.
type ComponentGateway interface {
	Health(ctx context.Context) model.ComponentHealthStatus
}
