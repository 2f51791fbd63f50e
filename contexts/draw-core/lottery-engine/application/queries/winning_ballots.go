package queries

import (
	"context"
	"strings"
	"time"

	"tombola/contexts/draw-core/lottery-engine/domain/entities"
	domainerrors "tombola/contexts/draw-core/lottery-engine/domain/errors"
	"tombola/contexts/draw-core/lottery-engine/ports"
)

// WinnerLookupUseCase reads winning ballots by draw date, participant id, or
// participant email. Absence is a normal outcome, except for the date lookup
// where callers expect a definite winner-or-not answer.
type WinnerLookupUseCase struct {
	Winners      ports.WinnerRepository
	Participants ports.ParticipantRepository
	Codec        ports.EmailCodec
	Clock        ports.Clock
	Location     *time.Location
}

// ByDrawDate returns the single winner for a past-or-today draw date.
// Future dates cannot have a winner yet and are rejected as invalid input.
func (uc WinnerLookupUseCase) ByDrawDate(ctx context.Context, drawDate time.Time) (entities.WinningBallot, error) {
	date := entities.CivilDate(drawDate, time.UTC)
	today := entities.CivilDate(uc.Clock.Now(), uc.Location)
	if date.After(today) {
		return entities.WinningBallot{}, domainerrors.ErrInvalidDrawDate
	}

	winner, found, err := uc.Winners.GetWinningBallotByDrawDate(ctx, date)
	if err != nil {
		return entities.WinningBallot{}, err
	}
	if !found {
		return entities.WinningBallot{}, domainerrors.ErrWinnerNotFound
	}
	return winner, nil
}

// ByParticipantID lists a participant's winning ballots, possibly empty.
func (uc WinnerLookupUseCase) ByParticipantID(ctx context.Context, participantID string) ([]entities.WinningBallot, error) {
	return uc.Winners.ListWinningBallotsByParticipant(ctx, strings.TrimSpace(participantID))
}

// ByParticipantEmail resolves the participant through the search hash first.
// An unknown email yields an empty list, not an error.
func (uc WinnerLookupUseCase) ByParticipantEmail(ctx context.Context, email string) ([]entities.WinningBallot, error) {
	normalized := strings.TrimSpace(strings.ToLower(email))
	if normalized == "" || !strings.Contains(normalized, "@") {
		return nil, domainerrors.ErrInvalidEmail
	}
	participant, found, err := uc.Participants.GetParticipantByEmailHash(ctx, uc.Codec.HashForSearch(normalized))
	if err != nil {
		return nil, err
	}
	if !found {
		return []entities.WinningBallot{}, nil
	}
	return uc.Winners.ListWinningBallotsByParticipant(ctx, participant.ParticipantID)
}

// DefaultDrawDate is yesterday in the civil timezone, the boundary default
// for the date lookup.
func (uc WinnerLookupUseCase) DefaultDrawDate() time.Time {
	return entities.CivilDate(uc.Clock.Now(), uc.Location).AddDate(0, 0, -1)
}
