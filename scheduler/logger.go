package scheduler

import (
	"go.uber.org/zap"
)

// CronLoggerAdapter writes cron's internal logs to the sugared logger
type CronLoggerAdapter struct {
	*zap.SugaredLogger
}

func (c *CronLoggerAdapter) Info(msg string, keysAndValues ...interface{}) {
	c.Debugw(msg, keysAndValues...)
}

func (c *CronLoggerAdapter) Error(err error, msg string, keysAndValues ...interface{}) {
	c.Errorw(msg, append(keysAndValues, zap.Error(err))...)
}
