package gate

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Midnight is the cron spec for the start of each calendar day.
const Midnight = "0 0 * * *"

// Scheduler re-runs the reminder scan for the signed-in user at the start of each day.
type Scheduler struct {
	cron *cron.Cron
	gate *Gate
}

// NewScheduler creates a Scheduler firing in loc.
func NewScheduler(g *Gate, loc *time.Location, logger *slog.Logger) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron: cron.New(cron.WithLocation(loc), cron.WithLogger(cronLogger{logger})),
		gate: g,
	}
}

// Start schedules the scan at spec, typically Midnight, and starts the cron loop.
func (s *Scheduler) Start(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.gate.Rescan); err != nil {
		return fmt.Errorf("failed to schedule reminder scan: %w", err)
	}
	s.cron.Start()
	return nil
}

// Stop halts the cron loop and waits for a running job to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// cronLogger adapts slog to cron's logger interface.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
