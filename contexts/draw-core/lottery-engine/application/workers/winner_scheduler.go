package workers

import (
	"context"
	"log/slog"
	"time"

	application "tombola/contexts/draw-core/lottery-engine/application"
	"tombola/contexts/draw-core/lottery-engine/application/commands"
	"tombola/contexts/draw-core/lottery-engine/ports"
)

// WinnerScheduler triggers winner selection once per civil day at midnight.
// RunOnce never returns an error: selection is best effort and the next
// scheduled run is the retry mechanism.
type WinnerScheduler struct {
	Winners  commands.PickWinnerUseCase
	Clock    ports.Clock
	Location *time.Location
	Logger   *slog.Logger
}

func (s WinnerScheduler) RunOnce(ctx context.Context) {
	logger := application.ResolveLogger(s.Logger)
	now := s.Clock.Now().In(s.Location)
	logger.Info("winner selection triggered",
		"event", "lottery_scheduler_run",
		"module", "draw-core/lottery-engine",
		"layer", "worker",
		"civil_time", now.Format(time.RFC3339),
		"civil_hour", now.Hour(),
	)
	s.Winners.PickWinner(ctx)
}

// NextRun returns the next civil midnight strictly after the given instant.
func (s WinnerScheduler) NextRun(after time.Time) time.Time {
	local := after.In(s.Location)
	next := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.Location).AddDate(0, 0, 1)
	return next
}
