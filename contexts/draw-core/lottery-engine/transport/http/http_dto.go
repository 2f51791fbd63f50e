package httptransport

// Dates travel as "2006-01-02"; timestamps as RFC 3339.

type SubmitBallotRequest struct {
	Email    string `json:"email"`
	DrawDate string `json:"draw_date"`
}

type SubmitBallotResponse struct {
	ID string `json:"id"`
}

type UpcomingLotteryItem struct {
	LotteryID   string `json:"lottery_id"`
	DrawDate    string `json:"draw_date"`
	BallotCount int    `json:"ballot_count"`
}

type UpcomingLotteriesResponse struct {
	Lotteries []UpcomingLotteryItem `json:"lotteries"`
}

type WinningBallotResponse struct {
	BallotID         string `json:"ballot_id"`
	LotteryDrawDate  string `json:"lottery_draw_date"`
	BallotCreatedAt  string `json:"ballot_created_at"`
	ParticipantAlias string `json:"participant_alias"`
}

type ParticipantWinningBallot struct {
	BallotID        string `json:"ballot_id"`
	BallotCreatedAt string `json:"ballot_created_at"`
	LotteryDrawDate string `json:"lottery_draw_date"`
}

type ParticipantWinningBallotsResponse struct {
	WinningBallots []ParticipantWinningBallot `json:"winning_ballots"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
