package memory

import (
	"context"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
	"time"

	"tombola/contexts/draw-core/lottery-engine/domain/entities"
	domainerrors "tombola/contexts/draw-core/lottery-engine/domain/errors"
	"tombola/contexts/draw-core/lottery-engine/ports"

	"github.com/google/uuid"
)

type ballotRecord struct {
	ballot entities.Ballot
	seq    int
}

type winnerRecord struct {
	ballotID  string
	lotteryID string
}

type state struct {
	participants map[string]entities.Participant
	lotteries    map[string]entities.Lottery
	ballots      map[string]ballotRecord
	winners      map[string]winnerRecord // keyed by winning ballot id
	ballotSeq    int
}

func newState() *state {
	return &state{
		participants: make(map[string]entities.Participant),
		lotteries:    make(map[string]entities.Lottery),
		ballots:      make(map[string]ballotRecord),
		winners:      make(map[string]winnerRecord),
	}
}

func (s *state) clone() *state {
	next := &state{
		participants: make(map[string]entities.Participant, len(s.participants)),
		lotteries:    make(map[string]entities.Lottery, len(s.lotteries)),
		ballots:      make(map[string]ballotRecord, len(s.ballots)),
		winners:      make(map[string]winnerRecord, len(s.winners)),
		ballotSeq:    s.ballotSeq,
	}
	for k, v := range s.participants {
		next.participants[k] = v
	}
	for k, v := range s.lotteries {
		next.lotteries[k] = v
	}
	for k, v := range s.ballots {
		next.ballots[k] = v
	}
	for k, v := range s.winners {
		next.winners[k] = v
	}
	return next
}

// Store is the in-memory adapter used by tests and local wiring. It emulates
// the database's unique constraints (email hash, alias, draw date, winner's
// ballot and lottery references) and gives InTx snapshot-rollback semantics:
// fn runs against a clone that only replaces the live state on success.
type Store struct {
	mu    sync.Mutex
	state *state

	// cfgMu guards the test hooks separately: the clock is read inside
	// InTx while mu is held.
	cfgMu           sync.RWMutex
	nowOverride     time.Time
	winnerCreateErr error
}

func NewStore() *Store {
	return &Store{state: newState()}
}

// SetNow pins the store clock for date-window and midnight-boundary tests.
// The zero time restores the real clock.
func (s *Store) SetNow(now time.Time) {
	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()
	s.nowOverride = now
}

// SetWinnerCreateFailure makes winning-ballot creation fail with err until
// cleared with nil, for exercising the swallowed-failure path.
func (s *Store) SetWinnerCreateFailure(err error) {
	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()
	s.winnerCreateErr = err
}

func (s *Store) winnerFailure() error {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.winnerCreateErr
}

func (s *Store) InTx(_ context.Context, fn func(repos ports.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.clone()
	if err := fn(&view{state: work, store: s}); err != nil {
		return err
	}
	s.state = work
	return nil
}

func (s *Store) Now() time.Time {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	if !s.nowOverride.IsZero() {
		return s.nowOverride
	}
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

const aliasAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

func (s *Store) NewAlias() string {
	out := make([]byte, 12)
	for i := range out {
		out[i] = aliasAlphabet[rand.IntN(len(aliasAlphabet))]
	}
	return string(out)
}

// Participants returns a copy of all participant rows, for assertions.
func (s *Store) Participants() []entities.Participant {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]entities.Participant, 0, len(s.state.participants))
	for _, participant := range s.state.participants {
		items = append(items, participant)
	}
	return items
}

// Lotteries returns a copy of all lottery rows, for assertions.
func (s *Store) Lotteries() []entities.Lottery {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]entities.Lottery, 0, len(s.state.lotteries))
	for _, lottery := range s.state.lotteries {
		items = append(items, lottery)
	}
	return items
}

// Winners returns winning ballot ids keyed by winner row id, for assertions.
func (s *Store) Winners() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.state.winners))
	for winnerID, record := range s.state.winners {
		out[winnerID] = record.ballotID
	}
	return out
}

// Direct (non-transactional) repository access locks around a single-call
// view of the live state.

func (s *Store) GetParticipantByEmailHash(ctx context.Context, emailHash string) (entities.Participant, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&view{state: s.state, store: s}).GetParticipantByEmailHash(ctx, emailHash)
}

func (s *Store) GetParticipantByAlias(ctx context.Context, alias string) (entities.Participant, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&view{state: s.state, store: s}).GetParticipantByAlias(ctx, alias)
}

func (s *Store) GetParticipantByID(ctx context.Context, participantID string) (entities.Participant, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&view{state: s.state, store: s}).GetParticipantByID(ctx, participantID)
}

func (s *Store) CreateParticipant(ctx context.Context, participant entities.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&view{state: s.state, store: s}).CreateParticipant(ctx, participant)
}

func (s *Store) GetLotteryByDrawDate(ctx context.Context, drawDate time.Time) (entities.Lottery, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&view{state: s.state, store: s}).GetLotteryByDrawDate(ctx, drawDate)
}

func (s *Store) CreateLottery(ctx context.Context, lottery entities.Lottery) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&view{state: s.state, store: s}).CreateLottery(ctx, lottery)
}

func (s *Store) ListUpcomingLotteries(ctx context.Context, from time.Time) ([]ports.UpcomingLottery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&view{state: s.state, store: s}).ListUpcomingLotteries(ctx, from)
}

func (s *Store) CreateBallot(ctx context.Context, ballot entities.Ballot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&view{state: s.state, store: s}).CreateBallot(ctx, ballot)
}

func (s *Store) ListBallotsByLottery(ctx context.Context, lotteryID string) ([]entities.Ballot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&view{state: s.state, store: s}).ListBallotsByLottery(ctx, lotteryID)
}

func (s *Store) CreateWinningBallot(ctx context.Context, winningBallotID string, ballotID string, lotteryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&view{state: s.state, store: s}).CreateWinningBallot(ctx, winningBallotID, ballotID, lotteryID)
}

func (s *Store) LotteryHasWinner(ctx context.Context, lotteryID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&view{state: s.state, store: s}).LotteryHasWinner(ctx, lotteryID)
}

func (s *Store) GetWinningBallotByDrawDate(ctx context.Context, drawDate time.Time) (entities.WinningBallot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&view{state: s.state, store: s}).GetWinningBallotByDrawDate(ctx, drawDate)
}

func (s *Store) ListWinningBallotsByParticipant(ctx context.Context, participantID string) ([]entities.WinningBallot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&view{state: s.state, store: s}).ListWinningBallotsByParticipant(ctx, participantID)
}

// view runs repository operations against one state without locking; the
// Store methods and InTx own the mutex.
type view struct {
	state *state
	store *Store
}

func (v *view) GetParticipantByEmailHash(_ context.Context, emailHash string) (entities.Participant, bool, error) {
	emailHash = strings.TrimSpace(emailHash)
	for _, participant := range v.state.participants {
		if participant.EmailHash == emailHash {
			return participant, true, nil
		}
	}
	return entities.Participant{}, false, nil
}

func (v *view) GetParticipantByAlias(_ context.Context, alias string) (entities.Participant, bool, error) {
	alias = strings.TrimSpace(alias)
	for _, participant := range v.state.participants {
		if participant.Alias == alias {
			return participant, true, nil
		}
	}
	return entities.Participant{}, false, nil
}

func (v *view) GetParticipantByID(_ context.Context, participantID string) (entities.Participant, bool, error) {
	participant, ok := v.state.participants[strings.TrimSpace(participantID)]
	if !ok {
		return entities.Participant{}, false, nil
	}
	return participant, true, nil
}

func (v *view) CreateParticipant(_ context.Context, participant entities.Participant) error {
	for _, existing := range v.state.participants {
		if existing.EmailHash == participant.EmailHash || existing.Alias == participant.Alias {
			return domainerrors.ErrConflict
		}
	}
	v.state.participants[strings.TrimSpace(participant.ParticipantID)] = participant
	return nil
}

func (v *view) GetLotteryByDrawDate(_ context.Context, drawDate time.Time) (entities.Lottery, bool, error) {
	for _, lottery := range v.state.lotteries {
		if entities.SameDate(lottery.DrawDate, drawDate) {
			return lottery, true, nil
		}
	}
	return entities.Lottery{}, false, nil
}

func (v *view) CreateLottery(_ context.Context, lottery entities.Lottery) error {
	for _, existing := range v.state.lotteries {
		if entities.SameDate(existing.DrawDate, lottery.DrawDate) {
			return domainerrors.ErrConflict
		}
	}
	v.state.lotteries[strings.TrimSpace(lottery.LotteryID)] = lottery
	return nil
}

func (v *view) ListUpcomingLotteries(_ context.Context, from time.Time) ([]ports.UpcomingLottery, error) {
	items := make([]ports.UpcomingLottery, 0)
	for _, lottery := range v.state.lotteries {
		if lottery.DrawDate.Before(from) && !entities.SameDate(lottery.DrawDate, from) {
			continue
		}
		count := 0
		for _, record := range v.state.ballots {
			if record.ballot.LotteryID == lottery.LotteryID {
				count++
			}
		}
		items = append(items, ports.UpcomingLottery{Lottery: lottery, BallotCount: count})
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].Lottery.DrawDate.Before(items[j].Lottery.DrawDate)
	})
	return items, nil
}

func (v *view) CreateBallot(_ context.Context, ballot entities.Ballot) error {
	id := strings.TrimSpace(ballot.BallotID)
	if _, exists := v.state.ballots[id]; exists {
		return domainerrors.ErrConflict
	}
	v.state.ballotSeq++
	v.state.ballots[id] = ballotRecord{ballot: ballot, seq: v.state.ballotSeq}
	return nil
}

func (v *view) ListBallotsByLottery(_ context.Context, lotteryID string) ([]entities.Ballot, error) {
	lotteryID = strings.TrimSpace(lotteryID)
	records := make([]ballotRecord, 0)
	for _, record := range v.state.ballots {
		if record.ballot.LotteryID == lotteryID {
			records = append(records, record)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].seq < records[j].seq
	})
	items := make([]entities.Ballot, 0, len(records))
	for _, record := range records {
		items = append(items, record.ballot)
	}
	return items, nil
}

func (v *view) CreateWinningBallot(_ context.Context, winningBallotID string, ballotID string, lotteryID string) error {
	if v.store != nil {
		if err := v.store.winnerFailure(); err != nil {
			return err
		}
	}
	ballotID = strings.TrimSpace(ballotID)
	lotteryID = strings.TrimSpace(lotteryID)
	for _, existing := range v.state.winners {
		if existing.ballotID == ballotID || existing.lotteryID == lotteryID {
			return domainerrors.ErrConflict
		}
	}
	v.state.winners[strings.TrimSpace(winningBallotID)] = winnerRecord{
		ballotID:  ballotID,
		lotteryID: lotteryID,
	}
	return nil
}

func (v *view) LotteryHasWinner(_ context.Context, lotteryID string) (bool, error) {
	lotteryID = strings.TrimSpace(lotteryID)
	for _, winner := range v.state.winners {
		if winner.lotteryID == lotteryID {
			return true, nil
		}
	}
	return false, nil
}

func (v *view) GetWinningBallotByDrawDate(ctx context.Context, drawDate time.Time) (entities.WinningBallot, bool, error) {
	lottery, found, err := v.GetLotteryByDrawDate(ctx, drawDate)
	if err != nil || !found {
		return entities.WinningBallot{}, false, err
	}
	for winnerID, winner := range v.state.winners {
		if winner.lotteryID != lottery.LotteryID {
			continue
		}
		record := v.state.ballots[winner.ballotID]
		return v.winnerView(winnerID, record.ballot, lottery), true, nil
	}
	return entities.WinningBallot{}, false, nil
}

func (v *view) ListWinningBallotsByParticipant(_ context.Context, participantID string) ([]entities.WinningBallot, error) {
	participantID = strings.TrimSpace(participantID)
	items := make([]entities.WinningBallot, 0)
	for winnerID, winner := range v.state.winners {
		record, ok := v.state.ballots[winner.ballotID]
		if !ok || record.ballot.ParticipantID != participantID {
			continue
		}
		lottery := v.state.lotteries[winner.lotteryID]
		items = append(items, v.winnerView(winnerID, record.ballot, lottery))
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].LotteryDrawDate.Before(items[j].LotteryDrawDate)
	})
	return items, nil
}

func (v *view) winnerView(winnerID string, ballot entities.Ballot, lottery entities.Lottery) entities.WinningBallot {
	participant := v.state.participants[ballot.ParticipantID]
	return entities.WinningBallot{
		WinningBallotID:  winnerID,
		BallotID:         ballot.BallotID,
		LotteryDrawDate:  lottery.DrawDate,
		BallotCreatedAt:  ballot.CreatedAt,
		ParticipantID:    participant.ParticipantID,
		ParticipantAlias: participant.Alias,
	}
}

var _ ports.Repositories = (*Store)(nil)
var _ ports.UnitOfWork = (*Store)(nil)
var _ ports.Repositories = (*view)(nil)
