// Package jobs runs periodic housekeeping.
package jobs

import (
	"context"
	"time"

	"aiinspire/store"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Sweeper is anything that drops idle in-memory state, such as the rate limiter.
type Sweeper interface {
	Sweep() int
}

// MembershipSweep clears the level of users whose membership has expired.
func MembershipSweep(users store.Users, log *zap.Logger, now func() time.Time) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		n, err := users.ClearExpiredMemberships(ctx, now().Unix())
		if err != nil {
			log.Error("membership sweep", zap.Error(err))
			return
		}
		if n > 0 {
			log.Info("membership sweep", zap.Int64("cleared", n))
		}
	}
}

// Start schedules the jobs and returns the running scheduler.
func Start(spec string, users store.Users, limiter Sweeper, log *zap.Logger) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.Recover(cronLogger{log})))

	if _, err := c.AddFunc(spec, MembershipSweep(users, log, time.Now)); err != nil {
		return nil, err
	}
	if limiter != nil {
		if _, err := c.AddFunc("@every 5m", func() { limiter.Sweep() }); err != nil {
			return nil, err
		}
	}
	c.Start()
	return c, nil
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	log *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
