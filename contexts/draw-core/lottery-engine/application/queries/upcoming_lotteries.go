package queries

import (
	"context"
	"time"

	"tombola/contexts/draw-core/lottery-engine/domain/entities"
	"tombola/contexts/draw-core/lottery-engine/ports"
)

// UpcomingLotteriesUseCase lists lotteries whose draw date is today or later
// in the civil timezone, each with its ballot count.
type UpcomingLotteriesUseCase struct {
	Lotteries ports.LotteryRepository
	Clock     ports.Clock
	Location  *time.Location
}

func (uc UpcomingLotteriesUseCase) ListUpcoming(ctx context.Context) ([]ports.UpcomingLottery, error) {
	today := entities.CivilDate(uc.Clock.Now(), uc.Location)
	return uc.Lotteries.ListUpcomingLotteries(ctx, today)
}
