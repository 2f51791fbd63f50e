package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	lotteryengine "tombola/contexts/draw-core/lottery-engine"
	httptransport "tombola/contexts/draw-core/lottery-engine/transport/http"
	"tombola/internal/platform/secrets"
)

func newTestServer(t *testing.T) (*Server, lotteryengine.Module) {
	t.Helper()
	key, err := secrets.GenerateKey()
	if err != nil {
		t.Fatalf("generate key failed: %v", err)
	}
	codec, err := secrets.NewCodec(key, "server-salt")
	if err != nil {
		t.Fatalf("build codec failed: %v", err)
	}
	module := lotteryengine.NewInMemoryModule(codec, time.UTC, 30, slog.Default())
	module.Store.SetNow(time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC))
	return New(module, slog.Default(), ":0"), module
}

func TestSubmitBallotEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	body := []byte(`{"email":"alice@example.com","draw_date":"2026-05-15"}`)
	req := httptest.NewRequest(http.MethodPost, "/ballot/submit-by-lottery-draw-date", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var resp httptransport.SubmitBallotResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response failed: %v", err)
	}
	if resp.ID == "" {
		t.Fatalf("expected ballot id in response")
	}
}

func TestSubmitBallotRejectsInvalidDate(t *testing.T) {
	server, _ := newTestServer(t)

	body := []byte(`{"email":"alice@example.com","draw_date":"2026-05-09"}`)
	req := httptest.NewRequest(http.MethodPost, "/ballot/submit-by-lottery-draw-date", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestSubmitBallotRejectsBadJSON(t *testing.T) {
	server, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/ballot/submit-by-lottery-draw-date", bytes.NewReader([]byte("{not json")))
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestUpcomingLotteriesEndpoint(t *testing.T) {
	server, module := newTestServer(t)

	_, err := module.Handler.SubmitBallotHandler(context.Background(), httptransport.SubmitBallotRequest{
		Email:    "alice@example.com",
		DrawDate: "2026-05-15",
	})
	if err != nil {
		t.Fatalf("seed submit failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/lottery/upcoming", nil)
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var resp httptransport.UpcomingLotteriesResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response failed: %v", err)
	}
	if len(resp.Lotteries) != 1 || resp.Lotteries[0].BallotCount != 1 {
		t.Fatalf("unexpected upcoming payload: %+v", resp.Lotteries)
	}
}

func TestWinnerByDrawDateNotFound(t *testing.T) {
	server, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/winning-ballot/lottery-draw-date?draw_date=2026-05-01", nil)
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestWinnerByParticipantEmailRequiresParam(t *testing.T) {
	server, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/winning-ballot/participant-email", nil)
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
}
