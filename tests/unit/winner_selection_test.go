package unit

import (
	"context"
	"errors"
	"testing"
	"time"

	"tombola/contexts/draw-core/lottery-engine/application/commands"
	"tombola/contexts/draw-core/lottery-engine/domain/entities"
	domainerrors "tombola/contexts/draw-core/lottery-engine/domain/errors"
	httptransport "tombola/contexts/draw-core/lottery-engine/transport/http"
)

func TestPickWinnerRecordsExactlyOneWinner(t *testing.T) {
	module := newLotteryModule(t)
	module.Store.SetNow(time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC))

	ids := map[string]bool{}
	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		resp := submit(t, module, email, "2026-05-10")
		ids[resp.ID] = true
	}

	module.Store.SetNow(time.Date(2026, 5, 11, 0, 1, 0, 0, time.UTC))
	module.Scheduler.RunOnce(context.Background())
	module.Scheduler.RunOnce(context.Background())

	winners := module.Store.Winners()
	if len(winners) != 1 {
		t.Fatalf("expected exactly one winner after two runs, got %d", len(winners))
	}
	for _, ballotID := range winners {
		if !ids[ballotID] {
			t.Fatalf("winner %s is not one of the submitted ballots", ballotID)
		}
	}
}

func TestPickWinnerTargetsCurrentDayAfterHourZero(t *testing.T) {
	module := newLotteryModule(t)
	module.Store.SetNow(time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC))
	ballot := submit(t, module, "late@example.com", "2026-05-10")

	// A run later the same day targets today, not yesterday.
	module.Store.SetNow(time.Date(2026, 5, 10, 23, 30, 0, 0, time.UTC))
	module.Scheduler.RunOnce(context.Background())

	winners := module.Store.Winners()
	if len(winners) != 1 {
		t.Fatalf("expected one winner, got %d", len(winners))
	}
	for _, ballotID := range winners {
		if ballotID != ballot.ID {
			t.Fatalf("expected winner %s, got %s", ballot.ID, ballotID)
		}
	}
}

func TestPickWinnerEmptyLotteryIsNoop(t *testing.T) {
	module := newLotteryModule(t)
	module.Store.SetNow(time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC))

	// A lottery row with zero ballots, as left behind by a rolled-back or
	// partially completed submission path.
	err := module.Store.CreateLottery(context.Background(), entities.Lottery{
		LotteryID: "lottery-empty",
		DrawDate:  time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC),
		CreatedAt: time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create lottery failed: %v", err)
	}

	module.Store.SetNow(time.Date(2026, 5, 11, 0, 1, 0, 0, time.UTC))
	module.Scheduler.RunOnce(context.Background())

	if winners := module.Store.Winners(); len(winners) != 0 {
		t.Fatalf("expected no winners for an empty lottery, got %d", len(winners))
	}
}

func TestSecondWinnerForSameLotteryConflicts(t *testing.T) {
	module := newLotteryModule(t)
	module.Store.SetNow(time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC))

	first := submit(t, module, "a@example.com", "2026-05-10")
	second := submit(t, module, "b@example.com", "2026-05-10")

	module.Store.SetNow(time.Date(2026, 5, 11, 0, 1, 0, 0, time.UTC))
	pick := commands.PickWinnerUseCase{
		UoW:      module.Store,
		Clock:    module.Store,
		IDGen:    module.Store,
		Location: time.UTC,
		PickIndex: func(int) int {
			return 0
		},
	}
	pick.PickWinner(context.Background())

	winners := module.Store.Winners()
	if len(winners) != 1 {
		t.Fatalf("expected one winner, got %d", len(winners))
	}
	for _, ballotID := range winners {
		if ballotID != first.ID {
			t.Fatalf("expected winner %s, got %s", first.ID, ballotID)
		}
	}

	// A racing run that picked a different ballot hits the lottery constraint.
	lotteries := module.Store.Lotteries()
	if len(lotteries) != 1 {
		t.Fatalf("expected one lottery, got %d", len(lotteries))
	}
	err := module.Store.CreateWinningBallot(context.Background(), "winner-dup", second.ID, lotteries[0].LotteryID)
	if !errors.Is(err, domainerrors.ErrConflict) {
		t.Fatalf("expected ErrConflict for second winner, got %v", err)
	}
}

func TestPickWinnerNoLotteryIsNoop(t *testing.T) {
	module := newLotteryModule(t)
	module.Store.SetNow(time.Date(2026, 5, 11, 0, 1, 0, 0, time.UTC))

	module.Scheduler.RunOnce(context.Background())
	if winners := module.Store.Winners(); len(winners) != 0 {
		t.Fatalf("expected no winners without a lottery, got %d", len(winners))
	}
}

func TestPickWinnerDeterministicIndex(t *testing.T) {
	module := newLotteryModule(t)
	module.Store.SetNow(time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC))

	var last httptransport.SubmitBallotResponse
	for _, email := range []string{"x@example.com", "y@example.com", "z@example.com"} {
		last = submit(t, module, email, "2026-05-10")
	}

	module.Store.SetNow(time.Date(2026, 5, 11, 0, 1, 0, 0, time.UTC))
	pick := commands.PickWinnerUseCase{
		UoW:      module.Store,
		Clock:    module.Store,
		IDGen:    module.Store,
		Location: time.UTC,
		PickIndex: func(n int) int {
			return n - 1
		},
	}
	pick.PickWinner(context.Background())

	winners := module.Store.Winners()
	if len(winners) != 1 {
		t.Fatalf("expected one winner, got %d", len(winners))
	}
	for _, ballotID := range winners {
		if ballotID != last.ID {
			t.Fatalf("expected last submitted ballot %s, got %s", last.ID, ballotID)
		}
	}
}

func TestPickWinnerSwallowsStorageFailure(t *testing.T) {
	module := newLotteryModule(t)
	module.Store.SetNow(time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC))
	submit(t, module, "retry@example.com", "2026-05-10")

	module.Store.SetNow(time.Date(2026, 5, 11, 0, 1, 0, 0, time.UTC))
	module.Store.SetWinnerCreateFailure(errors.New("storage down"))
	module.Scheduler.RunOnce(context.Background())

	if winners := module.Store.Winners(); len(winners) != 0 {
		t.Fatalf("expected rollback on failure, got %d winners", len(winners))
	}

	// The next scheduled run finds the lottery still unresolved and retries.
	module.Store.SetWinnerCreateFailure(nil)
	module.Scheduler.RunOnce(context.Background())

	if winners := module.Store.Winners(); len(winners) != 1 {
		t.Fatalf("expected one winner after retry, got %d", len(winners))
	}
}
