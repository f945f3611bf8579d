package http

import (
	"weather-poller/pkg/log"

	"go.uber.org/zap"
)

// HTTPLogger interface defines methods for logging HTTP requests and responses
type HTTPLogger interface {
	// LogRequest is called before the request is sent
	LogRequest(method, url string, headers map[string]string)

	// LogResponseSuccess is called after receiving a 2xx response
	LogResponseSuccess(method, url string, httpStatus int, responseBody string, latency int64)

	// LogResponseError is called after a transport failure (status 0) or a non-2xx response
	LogResponseError(method, url string, httpStatus int, responseBody string, latency int64, err error)
}

type zapHTTPLogger struct{}

// NewZapHTTPLogger logs outbound traffic through the process logger. Request
// and success entries are debug level.
func NewZapHTTPLogger() HTTPLogger {
	return zapHTTPLogger{}
}

func (zapHTTPLogger) LogRequest(method, url string, _ map[string]string) {
	log.Debug("http request", zap.String("method", method), zap.String("url", url))
}

func (zapHTTPLogger) LogResponseSuccess(method, url string, httpStatus int, _ string, latency int64) {
	log.Debug("http response",
		zap.String("method", method),
		zap.String("url", url),
		zap.Int("status", httpStatus),
		zap.Int64("latency_ms", latency))
}

func (zapHTTPLogger) LogResponseError(method, url string, httpStatus int, responseBody string, latency int64, err error) {
	log.Warn("http response error",
		zap.String("method", method),
		zap.String("url", url),
		zap.Int("status", httpStatus),
		zap.String("body", responseBody),
		zap.Int64("latency_ms", latency),
		zap.Error(err))
}
