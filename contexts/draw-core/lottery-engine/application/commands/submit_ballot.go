package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	application "tombola/contexts/draw-core/lottery-engine/application"
	"tombola/contexts/draw-core/lottery-engine/domain/entities"
	domainerrors "tombola/contexts/draw-core/lottery-engine/domain/errors"
	"tombola/contexts/draw-core/lottery-engine/ports"
)

const (
	// maxAliasAttempts bounds the alias regeneration loop. Exhaustion means
	// the alias space is effectively full, which is a configuration fault.
	maxAliasAttempts = 100

	// maxSubmitAttempts bounds whole-transaction retries after a uniqueness
	// conflict with a concurrent writer. The retry re-queries and finds the
	// row the other writer created.
	maxSubmitAttempts = 3
)

// SubmitBallotCommand is the write-model input for ballot submission.
// DrawDate carries only the calendar date.
type SubmitBallotCommand struct {
	Email    string
	DrawDate time.Time
}

// SubmitBallotUseCase runs the submission path: resolve-or-create the
// participant by email hash, resolve-or-create the lottery by draw date, and
// insert the linking ballot, all inside one unit of work.
type SubmitBallotUseCase struct {
	UoW          ports.UnitOfWork
	Codec        ports.EmailCodec
	Aliases      ports.AliasGenerator
	Clock        ports.Clock
	IDGen        ports.IDGenerator
	Location     *time.Location
	MaxDaysAhead int
	Logger       *slog.Logger
}

// SubmitBallot validates the draw-date window, then performs the atomic
// submission. Storage causes are logged and wrapped into ErrSubmissionFailed,
// never leaked to callers.
func (uc SubmitBallotUseCase) SubmitBallot(ctx context.Context, cmd SubmitBallotCommand) (entities.Ballot, error) {
	logger := application.ResolveLogger(uc.Logger)

	email := strings.TrimSpace(strings.ToLower(cmd.Email))
	if email == "" || !strings.Contains(email, "@") {
		return entities.Ballot{}, domainerrors.ErrInvalidEmail
	}

	drawDate := entities.CivilDate(cmd.DrawDate, time.UTC)
	if err := uc.validateDrawDate(drawDate); err != nil {
		logger.Warn("ballot submission rejected",
			"event", "lottery_submit_validation_failed",
			"module", "draw-core/lottery-engine",
			"layer", "application",
			"draw_date", drawDate.Format(time.DateOnly),
		)
		return entities.Ballot{}, err
	}

	var ballot entities.Ballot
	var err error
	for attempt := 1; attempt <= maxSubmitAttempts; attempt++ {
		ballot, err = uc.submitOnce(ctx, email, drawDate)
		if err == nil {
			logger.Info("ballot submitted",
				"event", "lottery_ballot_submitted",
				"module", "draw-core/lottery-engine",
				"layer", "application",
				"ballot_id", ballot.BallotID,
				"lottery_id", ballot.LotteryID,
				"draw_date", drawDate.Format(time.DateOnly),
				"attempt", attempt,
			)
			return ballot, nil
		}
		if !errors.Is(err, domainerrors.ErrConflict) {
			break
		}
		logger.Info("ballot submission hit concurrent create, retrying",
			"event", "lottery_submit_conflict_retry",
			"module", "draw-core/lottery-engine",
			"layer", "application",
			"draw_date", drawDate.Format(time.DateOnly),
			"attempt", attempt,
		)
	}

	logger.Error("ballot submission failed",
		"event", "lottery_submit_failed",
		"module", "draw-core/lottery-engine",
		"layer", "application",
		"draw_date", drawDate.Format(time.DateOnly),
		"error", err.Error(),
	)
	return entities.Ballot{}, domainerrors.ErrSubmissionFailed
}

func (uc SubmitBallotUseCase) validateDrawDate(drawDate time.Time) error {
	today := entities.CivilDate(uc.Clock.Now(), uc.Location)
	if drawDate.Before(today) {
		return domainerrors.ErrInvalidDrawDate
	}
	if drawDate.After(today.AddDate(0, 0, uc.MaxDaysAhead)) {
		return domainerrors.ErrInvalidDrawDate
	}
	return nil
}

func (uc SubmitBallotUseCase) submitOnce(ctx context.Context, email string, drawDate time.Time) (entities.Ballot, error) {
	var ballot entities.Ballot
	err := uc.UoW.InTx(ctx, func(repos ports.Repositories) error {
		participant, err := uc.getOrCreateParticipant(ctx, repos, email)
		if err != nil {
			return err
		}
		lottery, err := uc.getOrCreateLottery(ctx, repos, drawDate)
		if err != nil {
			return err
		}

		ballotID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return err
		}
		ballot = entities.Ballot{
			BallotID:      ballotID,
			ParticipantID: participant.ParticipantID,
			LotteryID:     lottery.LotteryID,
			CreatedAt:     uc.Clock.Now().In(uc.Location),
		}
		return repos.CreateBallot(ctx, ballot)
	})
	if err != nil {
		return entities.Ballot{}, err
	}
	return ballot, nil
}

func (uc SubmitBallotUseCase) getOrCreateParticipant(
	ctx context.Context,
	repos ports.Repositories,
	email string,
) (entities.Participant, error) {
	emailHash := uc.Codec.HashForSearch(email)
	existing, found, err := repos.GetParticipantByEmailHash(ctx, emailHash)
	if err != nil {
		return entities.Participant{}, err
	}
	if found {
		return existing, nil
	}

	alias, err := uc.freeAlias(ctx, repos)
	if err != nil {
		return entities.Participant{}, err
	}

	ciphertext, _, err := uc.Codec.EncryptAndHash(email)
	if err != nil {
		return entities.Participant{}, err
	}
	participantID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Participant{}, err
	}
	participant := entities.Participant{
		ParticipantID:  participantID,
		EncryptedEmail: ciphertext,
		EmailHash:      emailHash,
		Alias:          alias,
	}
	if err := repos.CreateParticipant(ctx, participant); err != nil {
		return entities.Participant{}, err
	}
	return participant, nil
}

func (uc SubmitBallotUseCase) freeAlias(ctx context.Context, repos ports.Repositories) (string, error) {
	for attempt := 0; attempt < maxAliasAttempts; attempt++ {
		alias := uc.Aliases.NewAlias()
		_, taken, err := repos.GetParticipantByAlias(ctx, alias)
		if err != nil {
			return "", err
		}
		if !taken {
			return alias, nil
		}
	}
	return "", domainerrors.ErrAliasSpaceExhausted
}

func (uc SubmitBallotUseCase) getOrCreateLottery(
	ctx context.Context,
	repos ports.Repositories,
	drawDate time.Time,
) (entities.Lottery, error) {
	existing, found, err := repos.GetLotteryByDrawDate(ctx, drawDate)
	if err != nil {
		return entities.Lottery{}, err
	}
	if found {
		return existing, nil
	}

	lotteryID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Lottery{}, err
	}
	lottery := entities.Lottery{
		LotteryID: lotteryID,
		DrawDate:  drawDate,
		CreatedAt: uc.Clock.Now().In(uc.Location),
	}
	if err := repos.CreateLottery(ctx, lottery); err != nil {
		return entities.Lottery{}, err
	}
	return lottery, nil
}
