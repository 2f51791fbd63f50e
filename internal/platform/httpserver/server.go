package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	lotteryengine "tombola/contexts/draw-core/lottery-engine"
	lotteryerrors "tombola/contexts/draw-core/lottery-engine/domain/errors"
	lotteryhttp "tombola/contexts/draw-core/lottery-engine/transport/http"
)

type Server struct {
	mux     *http.ServeMux
	logger  *slog.Logger
	addr    string
	lottery lotteryengine.Module
}

func New(lottery lotteryengine.Module, logger *slog.Logger, addr string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:     http.NewServeMux(),
		logger:  logger,
		addr:    addr,
		lottery: lottery,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("POST /ballot/submit-by-lottery-draw-date", s.handleSubmitBallot)
	s.mux.HandleFunc("GET /lottery/upcoming", s.handleUpcomingLotteries)
	s.mux.HandleFunc("GET /winning-ballot/lottery-draw-date", s.handleWinnerByDrawDate)
	s.mux.HandleFunc("GET /winning-ballot/participant-id", s.handleWinnersByParticipantID)
	s.mux.HandleFunc("GET /winning-ballot/participant-email", s.handleWinnersByParticipantEmail)
}

func (s *Server) handleSubmitBallot(w http.ResponseWriter, r *http.Request) {
	var req lotteryhttp.SubmitBallotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeLotteryError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.lottery.Handler.SubmitBallotHandler(r.Context(), req)
	if err != nil {
		writeLotteryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpcomingLotteries(w http.ResponseWriter, r *http.Request) {
	resp, err := s.lottery.Handler.UpcomingLotteriesHandler(r.Context())
	if err != nil {
		writeLotteryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWinnerByDrawDate(w http.ResponseWriter, r *http.Request) {
	resp, err := s.lottery.Handler.WinnerByDrawDateHandler(r.Context(), r.URL.Query().Get("draw_date"))
	if err != nil {
		writeLotteryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWinnersByParticipantID(w http.ResponseWriter, r *http.Request) {
	participantID := r.URL.Query().Get("participant_id")
	if participantID == "" {
		writeLotteryError(w, http.StatusBadRequest, "missing_participant_id", "participant_id query parameter is required")
		return
	}
	resp, err := s.lottery.Handler.WinnersByParticipantIDHandler(r.Context(), participantID)
	if err != nil {
		writeLotteryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWinnersByParticipantEmail(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		writeLotteryError(w, http.StatusBadRequest, "missing_email", "email query parameter is required")
		return
	}
	resp, err := s.lottery.Handler.WinnersByParticipantEmailHandler(r.Context(), email)
	if err != nil {
		writeLotteryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeLotteryDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, lotteryerrors.ErrInvalidDrawDate):
		writeLotteryError(w, http.StatusUnprocessableEntity, "invalid_draw_date", err.Error())
	case errors.Is(err, lotteryerrors.ErrInvalidEmail):
		writeLotteryError(w, http.StatusUnprocessableEntity, "invalid_email", err.Error())
	case errors.Is(err, lotteryerrors.ErrWinnerNotFound):
		writeLotteryError(w, http.StatusNotFound, "winner_not_found", err.Error())
	case errors.Is(err, lotteryerrors.ErrSubmissionFailed):
		writeLotteryError(w, http.StatusInternalServerError, "submission_failed", err.Error())
	default:
		writeLotteryError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeLotteryError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, lotteryhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
