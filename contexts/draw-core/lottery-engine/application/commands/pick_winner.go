package commands

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"

	application "tombola/contexts/draw-core/lottery-engine/application"
	"tombola/contexts/draw-core/lottery-engine/domain/entities"
	domainerrors "tombola/contexts/draw-core/lottery-engine/domain/errors"
	"tombola/contexts/draw-core/lottery-engine/ports"
)

// PickWinnerUseCase selects the single winning ballot for the target draw
// date. It is invoked by the scheduler once per day shortly after midnight
// in the civil timezone and tolerates duplicate or late invocations: at most
// one winner ever exists per lottery.
type PickWinnerUseCase struct {
	UoW      ports.UnitOfWork
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Location *time.Location
	Logger   *slog.Logger

	// PickIndex picks a ballot index in [0, n). Nil means uniform random.
	PickIndex func(n int) int
}

// PickWinner runs one best-effort selection. Storage failures are logged and
// swallowed: the partial work rolls back and the next scheduled run retries
// against the same still-unresolved lottery.
func (uc PickWinnerUseCase) PickWinner(ctx context.Context) {
	logger := application.ResolveLogger(uc.Logger)
	targetDate := uc.targetDrawDate()

	err := uc.UoW.InTx(ctx, func(repos ports.Repositories) error {
		lottery, found, err := repos.GetLotteryByDrawDate(ctx, targetDate)
		if err != nil {
			return err
		}
		if !found {
			// No ballots were ever submitted for that date.
			logger.Info("no lottery for target date",
				"event", "lottery_pick_no_lottery",
				"module", "draw-core/lottery-engine",
				"layer", "application",
				"draw_date", targetDate.Format(time.DateOnly),
			)
			return nil
		}

		hasWinner, err := repos.LotteryHasWinner(ctx, lottery.LotteryID)
		if err != nil {
			return err
		}
		if hasWinner {
			logger.Info("winner already recorded",
				"event", "lottery_pick_already_resolved",
				"module", "draw-core/lottery-engine",
				"layer", "application",
				"lottery_id", lottery.LotteryID,
				"draw_date", targetDate.Format(time.DateOnly),
			)
			return nil
		}

		ballots, err := repos.ListBallotsByLottery(ctx, lottery.LotteryID)
		if err != nil {
			return err
		}
		if len(ballots) == 0 {
			logger.Info("lottery has no ballots",
				"event", "lottery_pick_no_ballots",
				"module", "draw-core/lottery-engine",
				"layer", "application",
				"lottery_id", lottery.LotteryID,
				"draw_date", targetDate.Format(time.DateOnly),
			)
			return nil
		}

		chosen := ballots[uc.pick(len(ballots))]
		winningBallotID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return err
		}
		if err := repos.CreateWinningBallot(ctx, winningBallotID, chosen.BallotID, lottery.LotteryID); err != nil {
			return err
		}
		logger.Info("winning ballot recorded",
			"event", "lottery_winner_recorded",
			"module", "draw-core/lottery-engine",
			"layer", "application",
			"lottery_id", lottery.LotteryID,
			"ballot_id", chosen.BallotID,
			"draw_date", targetDate.Format(time.DateOnly),
			"ballot_count", len(ballots),
		)
		return nil
	})
	if err == nil {
		return
	}

	if errors.Is(err, domainerrors.ErrConflict) {
		// A concurrent run won the race; this invocation is a no-op.
		logger.Info("winner selection lost creation race",
			"event", "lottery_pick_conflict_noop",
			"module", "draw-core/lottery-engine",
			"layer", "application",
			"draw_date", targetDate.Format(time.DateOnly),
		)
		return
	}
	logger.Error("winner selection failed; next scheduled run retries",
		"event", "lottery_pick_failed",
		"module", "draw-core/lottery-engine",
		"layer", "application",
		"draw_date", targetDate.Format(time.DateOnly),
		"error", err.Error(),
	)
}

// targetDrawDate resolves which lottery this run decides. At hour zero the
// trigger belongs to the day that just ended, so the target is yesterday;
// any later hour targets the current date. This keeps a slightly early or
// late midnight trigger pointed at the correct lottery.
func (uc PickWinnerUseCase) targetDrawDate() time.Time {
	now := uc.Clock.Now().In(uc.Location)
	target := entities.CivilDate(now, uc.Location)
	if now.Hour() == 0 {
		target = target.AddDate(0, 0, -1)
	}
	return target
}

func (uc PickWinnerUseCase) pick(n int) int {
	if uc.PickIndex != nil {
		return uc.PickIndex(n)
	}
	return rand.IntN(n)
}
