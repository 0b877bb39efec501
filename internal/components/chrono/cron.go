package chrono

import (
	"fmt"
	"time"

	"campusdual-backend/internal/components/telemetry"

	"github.com/robfig/cron/v3"
)

// CronAPI runs callbacks on standard five field cron schedules.
type CronAPI interface {
	Cron(spec string, callback func()) error
	// Next returns the first time after now that spec fires.
	Next(spec string) (time.Time, error)
	Stop()
}

// StandardCron schedules with github.com/robfig/cron/v3. A job that is still running
// when its next tick arrives skips that tick instead of running twice.
type StandardCron struct {
	cron *cron.Cron
	time API
}

func NewStandardCron(time API, tel telemetry.API) StandardCron {
	logger := cronLogger{tel: telemetry.NewScopedAPI("cron", tel)}
	scheduler := cron.New(
		cron.WithLogger(logger),
		cron.WithLocation(time.Location()),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	scheduler.Start()

	return StandardCron{cron: scheduler, time: time}
}

func (s StandardCron) Cron(spec string, callback func()) error {
	_, err := s.cron.AddFunc(spec, callback)
	if err != nil {
		return fmt.Errorf("schedule %q: %w", spec, err)
	}
	return nil
}

func (s StandardCron) Next(spec string) (time.Time, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %q: %w", spec, err)
	}
	return schedule.Next(s.time.Now()), nil
}

// Stop stops the scheduler and waits for running jobs to complete.
func (s StandardCron) Stop() {
	<-s.cron.Stop().Done()
}

// cronLogger adapts telemetry to cron.Logger, key value pairs become "key=value" params.
type cronLogger struct {
	tel telemetry.API
}

func pairs(keysAndValues []any) []any {
	params := make([]any, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		params = append(params, fmt.Sprintf("%v=%v", keysAndValues[i], keysAndValues[i+1]))
	}
	return params
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.tel.ReportDebug(msg, pairs(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.tel.ReportBroken("job", append([]any{fmt.Errorf("%s: %w", msg, err)}, pairs(keysAndValues)...)...)
}
