package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	abci "github.com/cometbft/cometbft/abci/types"
	"github.com/gin-gonic/gin"

	"github.com/decred/slog"
	"github.com/lootopgf/lootery-go/internal/app"
	"github.com/lootopgf/lootery-go/internal/lottery"
)

// QueryFunc performs one ABCI query against the committed snapshot. *app.App
// satisfies this directly; it is factored out as a func type so tests can
// stub it without standing up a full App.
type QueryFunc func(ctx context.Context, req *abci.QueryRequest) (*abci.QueryResponse, error)

// Server wires the read-only query mirror and the live event hub onto one
// gin.Engine.
type Server struct {
	log   slog.Logger
	query QueryFunc
	hub   *Hub
}

// NewServer builds a Server backed by a's Query method and hub's live feed.
func NewServer(a *app.App, hub *Hub, log slog.Logger) *Server {
	return &Server{log: log, query: a.Query, hub: hub}
}

// Router builds the gin.Engine; callers run it with http.Server or
// gin.Engine.Run directly.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.logRequest)

	r.GET("/healthz", s.handleHealth)
	r.GET("/config", s.handleQuery("/config"))
	r.GET("/game", s.handleQuery("/game"))
	r.GET("/jackpot", s.handleQuery("/jackpot"))
	r.GET("/round/:id", s.handleQueryParam("/round/"))
	r.GET("/ticket/:id", s.handleQueryParam("/ticket/"))
	r.GET("/account/:addr", s.handleQueryAccount)
	r.GET("/stream", s.hub.Subscribe)

	return r
}

func (s *Server) logRequest(c *gin.Context) {
	c.Next()
	s.log.Debugf("httpapi: %s %s -> %d", c.Request.Method, c.Request.URL.Path, c.Writer.Status())
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleQuery proxies a fixed ABCI query path with no parameters.
func (s *Server) handleQuery(path string) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.respondQuery(c, path)
	}
}

// handleQueryParam proxies an ABCI query path built from gin's :id param,
// matching the /round/ and /ticket/ path shapes internal/app.App.Query
// understands.
func (s *Server) handleQueryParam(prefix string) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.respondQuery(c, prefix+c.Param("id"))
	}
}

func (s *Server) handleQueryAccount(c *gin.Context) {
	s.respondQuery(c, "/account/"+c.Param("addr"))
}

func (s *Server) respondQuery(c *gin.Context, path string) {
	resp, err := s.query(c.Request.Context(), &abci.QueryRequest{Path: path})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if resp.Code != 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": resp.Log})
		return
	}
	c.Data(http.StatusOK, "application/json", resp.Value)
}

// BroadcastEvents marshals and pushes every emitted lottery.Event to hub's
// subscribers. cmd/lootd calls this once per block from the App's
// FinalizeBlock sink, after the block's transactions have been applied to
// the in-memory snapshot that Query reads (Commit persists it to disk
// afterwards), so a subscriber's dashboard never observes an event for a
// round the query mirror can't yet answer questions about.
func BroadcastEvents(hub *Hub, events []lottery.Event) {
	for _, ev := range events {
		b, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		hub.Broadcast(b)
	}
}
