package redis

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// RedisHealthCheck represents the health check response for Redis
type RedisHealthCheck struct {
	Status     HealthStatus      `json:"status"`
	Details    map[string]string `json:"details"`
	LockStatus map[string]bool   `json:"lock_status,omitempty"`
}

// HealthChecker provides Redis health checking functionality
type HealthChecker struct {
	client    *Client
	timeout   time.Duration
	mu        sync.Mutex
	lastCheck time.Time
	lastError string
}

// NewHealthChecker creates a new Redis health checker
func NewHealthChecker(client *Client) *HealthChecker {
	return &HealthChecker{
		client:  client,
		timeout: 2 * time.Second,
	}
}

// HealthCheck pings the server and reports the scheduled task locks owned by
// this process.
func (h *HealthChecker) HealthCheck(ctx context.Context) RedisHealthCheck {
	h.mu.Lock()
	defer h.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	status := StatusUp
	h.lastError = ""
	if err := h.client.Ping(ctx); err != nil {
		status = StatusDown
		h.lastError = err.Error()
	}
	h.lastCheck = time.Now()

	config := h.client.GetConfig()
	stats := h.client.GetClient().PoolStats()
	details := map[string]string{
		"address":     config.Addr(),
		"database":    strconv.Itoa(config.Database),
		"total_conns": strconv.FormatUint(uint64(stats.TotalConns), 10),
		"idle_conns":  strconv.FormatUint(uint64(stats.IdleConns), 10),
		"last_check":  h.lastCheck.Format(time.RFC3339),
	}
	if h.lastError != "" {
		details["last_error"] = h.lastError
	}

	result := RedisHealthCheck{Status: status, Details: details}
	if status == StatusUp {
		result.LockStatus = GetLockStatus(ctx)
	}
	return result
}
