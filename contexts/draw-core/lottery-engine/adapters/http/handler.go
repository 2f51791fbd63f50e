package httpadapter

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"tombola/contexts/draw-core/lottery-engine/application/commands"
	"tombola/contexts/draw-core/lottery-engine/application/queries"
	"tombola/contexts/draw-core/lottery-engine/domain/entities"
	domainerrors "tombola/contexts/draw-core/lottery-engine/domain/errors"
	httptransport "tombola/contexts/draw-core/lottery-engine/transport/http"
)

type Handler struct {
	Submissions commands.SubmitBallotUseCase
	Lotteries   queries.UpcomingLotteriesUseCase
	Winners     queries.WinnerLookupUseCase
	Logger      *slog.Logger
}

func (h Handler) SubmitBallotHandler(
	ctx context.Context,
	req httptransport.SubmitBallotRequest,
) (httptransport.SubmitBallotResponse, error) {
	drawDate, err := parseDate(req.DrawDate)
	if err != nil {
		return httptransport.SubmitBallotResponse{}, err
	}
	ballot, err := h.Submissions.SubmitBallot(ctx, commands.SubmitBallotCommand{
		Email:    req.Email,
		DrawDate: drawDate,
	})
	if err != nil {
		return httptransport.SubmitBallotResponse{}, err
	}
	return httptransport.SubmitBallotResponse{ID: ballot.BallotID}, nil
}

func (h Handler) UpcomingLotteriesHandler(ctx context.Context) (httptransport.UpcomingLotteriesResponse, error) {
	upcoming, err := h.Lotteries.ListUpcoming(ctx)
	if err != nil {
		return httptransport.UpcomingLotteriesResponse{}, err
	}
	items := make([]httptransport.UpcomingLotteryItem, 0, len(upcoming))
	for _, entry := range upcoming {
		items = append(items, httptransport.UpcomingLotteryItem{
			LotteryID:   entry.Lottery.LotteryID,
			DrawDate:    entry.Lottery.DrawDate.Format(time.DateOnly),
			BallotCount: entry.BallotCount,
		})
	}
	return httptransport.UpcomingLotteriesResponse{Lotteries: items}, nil
}

// WinnerByDrawDateHandler looks up the winner for rawDate; an empty rawDate
// defaults to yesterday in the civil timezone.
func (h Handler) WinnerByDrawDateHandler(ctx context.Context, rawDate string) (httptransport.WinningBallotResponse, error) {
	drawDate := h.Winners.DefaultDrawDate()
	if strings.TrimSpace(rawDate) != "" {
		parsed, err := parseDate(rawDate)
		if err != nil {
			return httptransport.WinningBallotResponse{}, err
		}
		drawDate = parsed
	}
	winner, err := h.Winners.ByDrawDate(ctx, drawDate)
	if err != nil {
		return httptransport.WinningBallotResponse{}, err
	}
	return httptransport.WinningBallotResponse{
		BallotID:         winner.BallotID,
		LotteryDrawDate:  winner.LotteryDrawDate.Format(time.DateOnly),
		BallotCreatedAt:  winner.BallotCreatedAt.Format(time.RFC3339),
		ParticipantAlias: winner.ParticipantAlias,
	}, nil
}

func (h Handler) WinnersByParticipantIDHandler(ctx context.Context, participantID string) (httptransport.ParticipantWinningBallotsResponse, error) {
	winners, err := h.Winners.ByParticipantID(ctx, participantID)
	if err != nil {
		return httptransport.ParticipantWinningBallotsResponse{}, err
	}
	return mapParticipantWinners(winners), nil
}

func (h Handler) WinnersByParticipantEmailHandler(ctx context.Context, email string) (httptransport.ParticipantWinningBallotsResponse, error) {
	winners, err := h.Winners.ByParticipantEmail(ctx, email)
	if err != nil {
		return httptransport.ParticipantWinningBallotsResponse{}, err
	}
	return mapParticipantWinners(winners), nil
}

func mapParticipantWinners(winners []entities.WinningBallot) httptransport.ParticipantWinningBallotsResponse {
	items := make([]httptransport.ParticipantWinningBallot, 0, len(winners))
	for _, winner := range winners {
		items = append(items, httptransport.ParticipantWinningBallot{
			BallotID:        winner.BallotID,
			BallotCreatedAt: winner.BallotCreatedAt.Format(time.RFC3339),
			LotteryDrawDate: winner.LotteryDrawDate.Format(time.DateOnly),
		})
	}
	return httptransport.ParticipantWinningBallotsResponse{WinningBallots: items}
}

func parseDate(raw string) (time.Time, error) {
	parsed, err := time.Parse(time.DateOnly, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, domainerrors.ErrInvalidDrawDate
	}
	return parsed, nil
}
