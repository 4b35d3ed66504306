package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	abci "github.com/cometbft/cometbft/abci/types"
	"github.com/gin-gonic/gin"

	"github.com/decred/slog"
	"github.com/lootopgf/lootery-go/internal/lottery"
)

func testLogger() slog.Logger {
	backend := slog.NewBackend(os.Stdout)
	log := backend.Logger("TEST")
	log.SetLevel(slog.LevelCritical)
	return log
}

// stubServer builds a Server whose query function is fed straight from a
// path->response table, so these tests exercise gin routing and response
// framing without standing up a real ABCI App.
func stubServer(t *testing.T, responses map[string]*abci.QueryResponse) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	query := func(_ context.Context, req *abci.QueryRequest) (*abci.QueryResponse, error) {
		resp, ok := responses[req.Path]
		if !ok {
			return &abci.QueryResponse{Code: 1, Log: "not found"}, nil
		}
		return resp, nil
	}
	return &Server{log: testLogger(), query: query, hub: NewHub(testLogger())}
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func TestHandleQueryConfig(t *testing.T) {
	cfg := map[string]any{"numPicks": 5, "maxBallValue": 69}
	s := stubServer(t, map[string]*abci.QueryResponse{
		"/config": {Code: 0, Value: mustJSON(t, cfg)},
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/config", nil)
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if got["numPicks"] != float64(5) {
		t.Fatalf("unexpected numPicks: %v", got["numPicks"])
	}
}

func TestHandleQueryRoundNotFound(t *testing.T) {
	s := stubServer(t, map[string]*abci.QueryResponse{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/round/7", nil)
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHandleQueryAccount(t *testing.T) {
	s := stubServer(t, map[string]*abci.QueryResponse{
		"/account/alice": {Code: 0, Value: mustJSON(t, map[string]any{"addr": "alice", "balance": 42})},
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/account/alice", nil)
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestBroadcastEventsDoesNotBlock(t *testing.T) {
	hub := NewHub(testLogger())
	events := []lottery.Event{
		{Type: lottery.EventTicketPurchased, Attrs: map[string]string{"recipient": "alice"}},
		{Type: lottery.EventGameFinalised, Attrs: map[string]string{"roundId": "1"}},
	}
	// No subscribers connected; BroadcastEvents must still return promptly
	// rather than blocking on an unread channel.
	BroadcastEvents(hub, events)
}
