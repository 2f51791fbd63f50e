package unit

import (
	"context"
	"errors"
	"testing"
	"time"

	lotteryengine "tombola/contexts/draw-core/lottery-engine"
	domainerrors "tombola/contexts/draw-core/lottery-engine/domain/errors"
	httptransport "tombola/contexts/draw-core/lottery-engine/transport/http"
	"tombola/internal/platform/secrets"
)

func newLotteryModule(t *testing.T) lotteryengine.Module {
	t.Helper()
	key, err := secrets.GenerateKey()
	if err != nil {
		t.Fatalf("generate key failed: %v", err)
	}
	codec, err := secrets.NewCodec(key, "unit-salt")
	if err != nil {
		t.Fatalf("build codec failed: %v", err)
	}
	return lotteryengine.NewInMemoryModule(codec, time.UTC, 30, nil)
}

func submit(t *testing.T, module lotteryengine.Module, email, drawDate string) httptransport.SubmitBallotResponse {
	t.Helper()
	resp, err := module.Handler.SubmitBallotHandler(context.Background(), httptransport.SubmitBallotRequest{
		Email:    email,
		DrawDate: drawDate,
	})
	if err != nil {
		t.Fatalf("submit ballot failed: %v", err)
	}
	if resp.ID == "" {
		t.Fatalf("expected a ballot id")
	}
	return resp
}

func TestSubmitBallotReusesParticipantAndLottery(t *testing.T) {
	module := newLotteryModule(t)
	module.Store.SetNow(time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC))

	first := submit(t, module, "Alice@Example.com", "2026-05-15")
	second := submit(t, module, "  alice@example.com ", "2026-05-15")
	if first.ID == second.ID {
		t.Fatalf("expected distinct ballot ids, got %s twice", first.ID)
	}

	participants := module.Store.Participants()
	if len(participants) != 1 {
		t.Fatalf("expected one participant, got %d", len(participants))
	}
	participant := participants[0]
	if participant.EncryptedEmail == "alice@example.com" {
		t.Fatalf("email stored in plaintext")
	}
	if len(participant.EmailHash) != 64 {
		t.Fatalf("expected 64-char search hash, got %d chars", len(participant.EmailHash))
	}
	if len(participant.Alias) != 12 {
		t.Fatalf("expected 12-char alias, got %q", participant.Alias)
	}

	if lotteries := module.Store.Lotteries(); len(lotteries) != 1 {
		t.Fatalf("expected one lottery, got %d", len(lotteries))
	}
}

func TestSubmitBallotDrawDateWindow(t *testing.T) {
	module := newLotteryModule(t)
	module.Store.SetNow(time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC))

	submit(t, module, "bob@example.com", "2026-05-10")
	submit(t, module, "bob@example.com", "2026-06-09")

	for _, drawDate := range []string{"2026-05-09", "2026-06-10"} {
		_, err := module.Handler.SubmitBallotHandler(context.Background(), httptransport.SubmitBallotRequest{
			Email:    "bob@example.com",
			DrawDate: drawDate,
		})
		if !errors.Is(err, domainerrors.ErrInvalidDrawDate) {
			t.Fatalf("draw date %s: expected ErrInvalidDrawDate, got %v", drawDate, err)
		}
	}
}

func TestSubmitBallotRejectsBadInput(t *testing.T) {
	module := newLotteryModule(t)
	module.Store.SetNow(time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC))

	_, err := module.Handler.SubmitBallotHandler(context.Background(), httptransport.SubmitBallotRequest{
		Email:    "not-an-email",
		DrawDate: "2026-05-15",
	})
	if !errors.Is(err, domainerrors.ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}

	_, err = module.Handler.SubmitBallotHandler(context.Background(), httptransport.SubmitBallotRequest{
		Email:    "carol@example.com",
		DrawDate: "15-05-2026",
	})
	if !errors.Is(err, domainerrors.ErrInvalidDrawDate) {
		t.Fatalf("expected ErrInvalidDrawDate for malformed date, got %v", err)
	}
}

func TestUpcomingLotteriesOrderedWithCounts(t *testing.T) {
	module := newLotteryModule(t)
	module.Store.SetNow(time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC))

	submit(t, module, "dave@example.com", "2026-05-03")
	module.Store.SetNow(time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC))

	submit(t, module, "dave@example.com", "2026-05-20")
	submit(t, module, "erin@example.com", "2026-05-20")
	submit(t, module, "erin@example.com", "2026-05-12")

	resp, err := module.Handler.UpcomingLotteriesHandler(context.Background())
	if err != nil {
		t.Fatalf("upcoming lotteries failed: %v", err)
	}
	if len(resp.Lotteries) != 2 {
		t.Fatalf("expected 2 upcoming lotteries, got %d", len(resp.Lotteries))
	}
	if resp.Lotteries[0].DrawDate != "2026-05-12" || resp.Lotteries[1].DrawDate != "2026-05-20" {
		t.Fatalf("expected ascending draw dates, got %s then %s",
			resp.Lotteries[0].DrawDate, resp.Lotteries[1].DrawDate)
	}
	if resp.Lotteries[0].BallotCount != 1 || resp.Lotteries[1].BallotCount != 2 {
		t.Fatalf("unexpected ballot counts: %d and %d",
			resp.Lotteries[0].BallotCount, resp.Lotteries[1].BallotCount)
	}
}

func TestWinnerLookupsAfterScheduledRun(t *testing.T) {
	module := newLotteryModule(t)
	module.Store.SetNow(time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC))

	ballot := submit(t, module, "frank@example.com", "2026-05-10")

	// Midnight trigger right after the draw day ends targets that day.
	module.Store.SetNow(time.Date(2026, 5, 11, 0, 5, 0, 0, time.UTC))
	module.Scheduler.RunOnce(context.Background())

	byDate, err := module.Handler.WinnerByDrawDateHandler(context.Background(), "2026-05-10")
	if err != nil {
		t.Fatalf("winner by draw date failed: %v", err)
	}
	if byDate.BallotID != ballot.ID {
		t.Fatalf("expected winning ballot %s, got %s", ballot.ID, byDate.BallotID)
	}
	if len(byDate.ParticipantAlias) != 12 {
		t.Fatalf("expected alias in winner view, got %q", byDate.ParticipantAlias)
	}

	// Empty date defaults to yesterday, which is the resolved draw day.
	byDefault, err := module.Handler.WinnerByDrawDateHandler(context.Background(), "")
	if err != nil {
		t.Fatalf("winner by default date failed: %v", err)
	}
	if byDefault.BallotID != ballot.ID {
		t.Fatalf("expected default lookup to find %s, got %s", ballot.ID, byDefault.BallotID)
	}

	participants := module.Store.Participants()
	if len(participants) != 1 {
		t.Fatalf("expected one participant, got %d", len(participants))
	}
	byID, err := module.Handler.WinnersByParticipantIDHandler(context.Background(), participants[0].ParticipantID)
	if err != nil {
		t.Fatalf("winners by participant id failed: %v", err)
	}
	if len(byID.WinningBallots) != 1 || byID.WinningBallots[0].BallotID != ballot.ID {
		t.Fatalf("unexpected winners by id: %+v", byID.WinningBallots)
	}

	byEmail, err := module.Handler.WinnersByParticipantEmailHandler(context.Background(), "FRANK@example.com")
	if err != nil {
		t.Fatalf("winners by email failed: %v", err)
	}
	if len(byEmail.WinningBallots) != 1 {
		t.Fatalf("expected one winning ballot by email, got %d", len(byEmail.WinningBallots))
	}
}

func TestWinnerLookupEdges(t *testing.T) {
	module := newLotteryModule(t)
	module.Store.SetNow(time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC))

	_, err := module.Handler.WinnerByDrawDateHandler(context.Background(), "2026-05-11")
	if !errors.Is(err, domainerrors.ErrInvalidDrawDate) {
		t.Fatalf("expected ErrInvalidDrawDate for future date, got %v", err)
	}

	_, err = module.Handler.WinnerByDrawDateHandler(context.Background(), "2026-05-09")
	if !errors.Is(err, domainerrors.ErrWinnerNotFound) {
		t.Fatalf("expected ErrWinnerNotFound, got %v", err)
	}

	resp, err := module.Handler.WinnersByParticipantEmailHandler(context.Background(), "nobody@example.com")
	if err != nil {
		t.Fatalf("unknown email lookup failed: %v", err)
	}
	if len(resp.WinningBallots) != 0 {
		t.Fatalf("expected empty list for unknown email, got %d entries", len(resp.WinningBallots))
	}

	_, err = module.Handler.WinnersByParticipantEmailHandler(context.Background(), "not-an-email")
	if !errors.Is(err, domainerrors.ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
}
