package ports

import (
	"context"
	"time"

	"tombola/contexts/draw-core/lottery-engine/domain/entities"
)

// ParticipantRepository looks participants up by search hash, alias, or id.
// Creates must surface storage uniqueness violations as domain ErrConflict.
type ParticipantRepository interface {
	GetParticipantByEmailHash(ctx context.Context, emailHash string) (entities.Participant, bool, error)
	GetParticipantByAlias(ctx context.Context, alias string) (entities.Participant, bool, error)
	GetParticipantByID(ctx context.Context, participantID string) (entities.Participant, bool, error)
	CreateParticipant(ctx context.Context, participant entities.Participant) error
}

// UpcomingLottery pairs a lottery with its ballot count for list reads.
type UpcomingLottery struct {
	Lottery     entities.Lottery
	BallotCount int
}

type LotteryRepository interface {
	GetLotteryByDrawDate(ctx context.Context, drawDate time.Time) (entities.Lottery, bool, error)
	CreateLottery(ctx context.Context, lottery entities.Lottery) error
	// ListUpcomingLotteries returns lotteries with drawDate >= from, ascending
	// by draw date, each annotated with its ballot count (zero included).
	ListUpcomingLotteries(ctx context.Context, from time.Time) ([]UpcomingLottery, error)
}

type BallotRepository interface {
	CreateBallot(ctx context.Context, ballot entities.Ballot) error
	ListBallotsByLottery(ctx context.Context, lotteryID string) ([]entities.Ballot, error)
}

// WinnerRepository records and reads winning ballots. Both the ballot and the
// lottery references are unique: a second winner for an already winning ballot
// or for an already resolved lottery must fail with ErrConflict.
type WinnerRepository interface {
	CreateWinningBallot(ctx context.Context, winningBallotID string, ballotID string, lotteryID string) error
	LotteryHasWinner(ctx context.Context, lotteryID string) (bool, error)
	GetWinningBallotByDrawDate(ctx context.Context, drawDate time.Time) (entities.WinningBallot, bool, error)
	ListWinningBallotsByParticipant(ctx context.Context, participantID string) ([]entities.WinningBallot, error)
}

// Repositories is the full storage surface of the lottery engine.
type Repositories interface {
	ParticipantRepository
	LotteryRepository
	BallotRepository
	WinnerRepository
}

// UnitOfWork runs fn atomically: every repository call made through the
// passed Repositories either commits as a whole or leaves no trace.
type UnitOfWork interface {
	InTx(ctx context.Context, fn func(repos Repositories) error) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// AliasGenerator produces random human-readable aliases. Collisions are
// possible; uniqueness is the caller's retry loop plus the storage constraint.
type AliasGenerator interface {
	NewAlias() string
}

// EmailCodec is the privacy capability for participant emails: reversible
// encryption plus a deterministic search hash under one provisioned key.
type EmailCodec interface {
	EncryptAndHash(plaintext string) (ciphertext string, searchHash string, err error)
	Decrypt(ciphertext string) (string, error)
	HashForSearch(plaintext string) string
}
