package schedule

import "weather-poller/pkg/log"

// cronLogger routes robfig/cron messages to the process logger.
type cronLogger struct{}

func (cronLogger) Info(message string, keysAndValues ...interface{}) {
	log.Debugw(message, keysAndValues...)
}

func (cronLogger) Error(err error, message string, keysAndValues ...interface{}) {
	log.Errorw(message, append(keysAndValues, "error", err)...)
}
