package entities

import "time"

// Participant is a unique entrant. Email is held only as ciphertext plus a
// deterministic search hash; the alias is the only public identity.
type Participant struct {
	ParticipantID  string
	EncryptedEmail string
	EmailHash      string
	Alias          string
}

// Lottery is a draw keyed by a single calendar date. DrawDate carries only
// year/month/day in the civil timezone; the clock part is always zero.
type Lottery struct {
	LotteryID string
	DrawDate  time.Time
	CreatedAt time.Time
}

// Ballot links one participant to one lottery. A participant may hold any
// number of ballots across lotteries.
type Ballot struct {
	BallotID      string
	ParticipantID string
	LotteryID     string
	CreatedAt     time.Time
}

// WinningBallot marks the single winning ballot of a lottery. Draw date,
// ballot creation time, and alias are derived by following the ballot, never
// stored on the winner row itself.
type WinningBallot struct {
	WinningBallotID  string
	BallotID         string
	LotteryDrawDate  time.Time
	BallotCreatedAt  time.Time
	ParticipantID    string
	ParticipantAlias string
}

// CivilDate truncates an instant to its calendar date in the given zone.
func CivilDate(at time.Time, loc *time.Location) time.Time {
	local := at.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// SameDate compares two date-only values ignoring clock and zone drift.
func SameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
