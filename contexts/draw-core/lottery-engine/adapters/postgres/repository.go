package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"tombola/contexts/draw-core/lottery-engine/domain/entities"
	domainerrors "tombola/contexts/draw-core/lottery-engine/domain/errors"
	"tombola/contexts/draw-core/lottery-engine/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Models returns every gorm model of the lottery engine, in dependency order
// for schema migration.
func Models() []any {
	return []any{
		&participantModel{},
		&lotteryModel{},
		&ballotModel{},
		&winningBallotModel{},
	}
}

// InTx runs fn inside one database transaction. The database's unique
// constraints remain the single source of truth for concurrent writers;
// the application never relies on in-process locking.
func (r *Repository) InTx(ctx context.Context, fn func(repos ports.Repositories) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx, logger: r.logger})
	})
}

func (r *Repository) GetParticipantByEmailHash(ctx context.Context, emailHash string) (entities.Participant, bool, error) {
	var row participantModel
	err := r.db.WithContext(ctx).
		Where("email_hash = ?", strings.TrimSpace(emailHash)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Participant{}, false, nil
		}
		return entities.Participant{}, false, r.logError("lottery_repo_get_participant_by_hash_failed", err)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) GetParticipantByAlias(ctx context.Context, alias string) (entities.Participant, bool, error) {
	var row participantModel
	err := r.db.WithContext(ctx).
		Where("alias = ?", strings.TrimSpace(alias)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Participant{}, false, nil
		}
		return entities.Participant{}, false, r.logError("lottery_repo_get_participant_by_alias_failed", err)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) GetParticipantByID(ctx context.Context, participantID string) (entities.Participant, bool, error) {
	var row participantModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(participantID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Participant{}, false, nil
		}
		return entities.Participant{}, false, r.logError("lottery_repo_get_participant_failed", err,
			"participant_id", strings.TrimSpace(participantID),
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) CreateParticipant(ctx context.Context, participant entities.Participant) error {
	row := participantModelFromEntity(participant)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return r.logError("lottery_repo_create_participant_failed", err,
			"participant_id", row.ID,
		)
	}
	return nil
}

func (r *Repository) GetLotteryByDrawDate(ctx context.Context, drawDate time.Time) (entities.Lottery, bool, error) {
	var row lotteryModel
	err := r.db.WithContext(ctx).
		Where("draw_date = ?", drawDate.Format(time.DateOnly)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Lottery{}, false, nil
		}
		return entities.Lottery{}, false, r.logError("lottery_repo_get_lottery_by_date_failed", err,
			"draw_date", drawDate.Format(time.DateOnly),
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) CreateLottery(ctx context.Context, lottery entities.Lottery) error {
	row := lotteryModelFromEntity(lottery)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return r.logError("lottery_repo_create_lottery_failed", err,
			"lottery_id", row.ID,
			"draw_date", lottery.DrawDate.Format(time.DateOnly),
		)
	}
	return nil
}

func (r *Repository) ListUpcomingLotteries(ctx context.Context, from time.Time) ([]ports.UpcomingLottery, error) {
	var rows []upcomingLotteryRow
	err := r.db.WithContext(ctx).
		Table("lottery AS l").
		Select("l.id, l.draw_date, l.created_at, COUNT(b.id) AS ballot_count").
		Joins("LEFT JOIN ballot AS b ON b.lottery_id = l.id").
		Where("l.draw_date >= ?", from.Format(time.DateOnly)).
		Group("l.id").
		Order("l.draw_date ASC").
		Scan(&rows).
		Error
	if err != nil {
		return nil, r.logError("lottery_repo_list_upcoming_failed", err,
			"from", from.Format(time.DateOnly),
		)
	}
	items := make([]ports.UpcomingLottery, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.UpcomingLottery{
			Lottery: entities.Lottery{
				LotteryID: row.ID,
				DrawDate:  entities.CivilDate(row.DrawDate, time.UTC),
				CreatedAt: row.CreatedAt,
			},
			BallotCount: row.BallotCount,
		})
	}
	return items, nil
}

func (r *Repository) CreateBallot(ctx context.Context, ballot entities.Ballot) error {
	row := ballotModelFromEntity(ballot)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return r.logError("lottery_repo_create_ballot_failed", err,
			"ballot_id", row.ID,
			"lottery_id", row.LotteryID,
		)
	}
	return nil
}

func (r *Repository) ListBallotsByLottery(ctx context.Context, lotteryID string) ([]entities.Ballot, error) {
	var rows []ballotModel
	if err := r.db.WithContext(ctx).
		Where("lottery_id = ?", strings.TrimSpace(lotteryID)).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("lottery_repo_list_ballots_failed", err,
			"lottery_id", strings.TrimSpace(lotteryID),
		)
	}
	items := make([]entities.Ballot, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) CreateWinningBallot(ctx context.Context, winningBallotID string, ballotID string, lotteryID string) error {
	row := winningBallotModel{
		ID:        strings.TrimSpace(winningBallotID),
		BallotID:  strings.TrimSpace(ballotID),
		LotteryID: strings.TrimSpace(lotteryID),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return r.logError("lottery_repo_create_winner_failed", err,
			"winning_ballot_id", row.ID,
			"ballot_id", row.BallotID,
		)
	}
	return nil
}

func (r *Repository) LotteryHasWinner(ctx context.Context, lotteryID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&winningBallotModel{}).
		Where("lottery_id = ?", strings.TrimSpace(lotteryID)).
		Count(&count).
		Error
	if err != nil {
		return false, r.logError("lottery_repo_has_winner_failed", err,
			"lottery_id", strings.TrimSpace(lotteryID),
		)
	}
	return count > 0, nil
}

func (r *Repository) GetWinningBallotByDrawDate(ctx context.Context, drawDate time.Time) (entities.WinningBallot, bool, error) {
	var row winningBallotViewRow
	err := r.db.WithContext(ctx).
		Table("winning_ballot AS w").
		Select(winningBallotView).
		Joins("JOIN ballot AS b ON b.id = w.ballot_id").
		Joins("JOIN lottery AS l ON l.id = b.lottery_id").
		Joins("JOIN participant AS p ON p.id = b.participant_id").
		Where("l.draw_date = ?", drawDate.Format(time.DateOnly)).
		Limit(1).
		Scan(&row).
		Error
	if err != nil {
		return entities.WinningBallot{}, false, r.logError("lottery_repo_get_winner_by_date_failed", err,
			"draw_date", drawDate.Format(time.DateOnly),
		)
	}
	if row.ID == "" {
		return entities.WinningBallot{}, false, nil
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListWinningBallotsByParticipant(ctx context.Context, participantID string) ([]entities.WinningBallot, error) {
	var rows []winningBallotViewRow
	err := r.db.WithContext(ctx).
		Table("winning_ballot AS w").
		Select(winningBallotView).
		Joins("JOIN ballot AS b ON b.id = w.ballot_id").
		Joins("JOIN lottery AS l ON l.id = b.lottery_id").
		Joins("JOIN participant AS p ON p.id = b.participant_id").
		Where("b.participant_id = ?", strings.TrimSpace(participantID)).
		Order("l.draw_date ASC").
		Scan(&rows).
		Error
	if err != nil {
		return nil, r.logError("lottery_repo_list_winners_by_participant_failed", err,
			"participant_id", strings.TrimSpace(participantID),
		)
	}
	items := make([]entities.WinningBallot, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "draw-core/lottery-engine",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("lottery repository operation failed", fields...)
	return err
}

type participantModel struct {
	ID        string `gorm:"column:id;primaryKey"`
	Email     string `gorm:"column:email;size:512;not null"`
	EmailHash string `gorm:"column:email_hash;size:64;not null;uniqueIndex"`
	Alias     string `gorm:"column:alias;size:255;not null;uniqueIndex"`
}

func (participantModel) TableName() string {
	return "participant"
}

func participantModelFromEntity(participant entities.Participant) participantModel {
	return participantModel{
		ID:        strings.TrimSpace(participant.ParticipantID),
		Email:     participant.EncryptedEmail,
		EmailHash: strings.TrimSpace(participant.EmailHash),
		Alias:     strings.TrimSpace(participant.Alias),
	}
}

func (m participantModel) toEntity() entities.Participant {
	return entities.Participant{
		ParticipantID:  m.ID,
		EncryptedEmail: m.Email,
		EmailHash:      m.EmailHash,
		Alias:          m.Alias,
	}
}

type lotteryModel struct {
	ID        string    `gorm:"column:id;primaryKey"`
	DrawDate  time.Time `gorm:"column:draw_date;type:date;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (lotteryModel) TableName() string {
	return "lottery"
}

func lotteryModelFromEntity(lottery entities.Lottery) lotteryModel {
	return lotteryModel{
		ID:        strings.TrimSpace(lottery.LotteryID),
		DrawDate:  lottery.DrawDate,
		CreatedAt: lottery.CreatedAt,
	}
}

func (m lotteryModel) toEntity() entities.Lottery {
	return entities.Lottery{
		LotteryID: m.ID,
		DrawDate:  entities.CivilDate(m.DrawDate, time.UTC),
		CreatedAt: m.CreatedAt,
	}
}

type ballotModel struct {
	ID            string    `gorm:"column:id;primaryKey"`
	ParticipantID string    `gorm:"column:participant_id;not null;index"`
	LotteryID     string    `gorm:"column:lottery_id;not null;index"`
	CreatedAt     time.Time `gorm:"column:created_at;type:timestamptz"`

	Participant participantModel `gorm:"foreignKey:ParticipantID;constraint:OnDelete:CASCADE"`
	Lottery     lotteryModel     `gorm:"foreignKey:LotteryID;constraint:OnDelete:CASCADE"`
}

func (ballotModel) TableName() string {
	return "ballot"
}

func ballotModelFromEntity(ballot entities.Ballot) ballotModel {
	return ballotModel{
		ID:            strings.TrimSpace(ballot.BallotID),
		ParticipantID: strings.TrimSpace(ballot.ParticipantID),
		LotteryID:     strings.TrimSpace(ballot.LotteryID),
		CreatedAt:     ballot.CreatedAt,
	}
}

func (m ballotModel) toEntity() entities.Ballot {
	return entities.Ballot{
		BallotID:      m.ID,
		ParticipantID: m.ParticipantID,
		LotteryID:     m.LotteryID,
		CreatedAt:     m.CreatedAt,
	}
}

// winningBallotModel holds the unique ballot and lottery references. The
// lottery index makes one-winner-per-lottery a database guarantee even when
// concurrent selection runs pick different ballots. Draw date, creation time,
// and alias are always derived through joins.
type winningBallotModel struct {
	ID        string `gorm:"column:id;primaryKey"`
	BallotID  string `gorm:"column:ballot_id;not null;uniqueIndex"`
	LotteryID string `gorm:"column:lottery_id;not null;uniqueIndex"`

	Ballot  ballotModel  `gorm:"foreignKey:BallotID;constraint:OnDelete:CASCADE"`
	Lottery lotteryModel `gorm:"foreignKey:LotteryID;constraint:OnDelete:CASCADE"`
}

func (winningBallotModel) TableName() string {
	return "winning_ballot"
}

const winningBallotView = "w.id, w.ballot_id, l.draw_date, b.created_at AS ballot_created_at, p.id AS participant_id, p.alias AS participant_alias"

type winningBallotViewRow struct {
	ID               string    `gorm:"column:id"`
	BallotID         string    `gorm:"column:ballot_id"`
	DrawDate         time.Time `gorm:"column:draw_date"`
	BallotCreatedAt  time.Time `gorm:"column:ballot_created_at"`
	ParticipantID    string    `gorm:"column:participant_id"`
	ParticipantAlias string    `gorm:"column:participant_alias"`
}

func (m winningBallotViewRow) toEntity() entities.WinningBallot {
	return entities.WinningBallot{
		WinningBallotID:  m.ID,
		BallotID:         m.BallotID,
		LotteryDrawDate:  entities.CivilDate(m.DrawDate, time.UTC),
		BallotCreatedAt:  m.BallotCreatedAt,
		ParticipantID:    m.ParticipantID,
		ParticipantAlias: m.ParticipantAlias,
	}
}

type upcomingLotteryRow struct {
	ID          string    `gorm:"column:id"`
	DrawDate    time.Time `gorm:"column:draw_date"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	BallotCount int       `gorm:"column:ballot_count"`
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.Repositories = (*Repository)(nil)
var _ ports.UnitOfWork = (*Repository)(nil)
