// Package server exposes the common operating picture over HTTP and
// WebSocket: report, event and decision lifecycles, geospatial queries,
// fusion control, user administration and the audit trail.
package server

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/ravenfield/copx/access"
	"github.com/ravenfield/copx/audit"
	"github.com/ravenfield/copx/classify"
	"github.com/ravenfield/copx/config"
	"github.com/ravenfield/copx/fusion"
	"github.com/ravenfield/copx/identity"
	"github.com/ravenfield/copx/workflow"
)

// maxClients bounds concurrent WebSocket connections.
const maxClients = 256

// Deps carries everything the server needs. Engine and Users are required;
// the rest defaults to inert implementations.
type Deps struct {
	Engine *workflow.Engine
	Fusion *fusion.Service
	Users  identity.Manager
	Gate   *access.Gate
	Trail  audit.Log
	Config *config.Config
	Logger *zap.SugaredLogger
}

// Server routes authenticated requests into the workflow engine and pushes
// entity changes to connected WebSocket clients.
type Server struct {
	engine *workflow.Engine
	fusion *fusion.Service
	users  identity.Manager
	gate   *access.Gate
	trail  audit.Log
	cfg    *config.Config
	logger *zap.SugaredLogger

	mux *http.ServeMux

	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Notice
	mu         sync.RWMutex

	limiters sync.Map // actor identifier -> *rate.Limiter

	httpServer     *http.Server
	ctx            context.Context
	cancel         context.CancelFunc
	wg             sync.WaitGroup
	broadcastDrops atomic.Int64
	startedAt      time.Time
}

// New assembles a server. Call Start to serve, or Handler to mount it in a
// test harness.
func New(d Deps) *Server {
	if d.Gate == nil {
		d.Gate = access.NewGate()
	}
	if d.Trail == nil {
		d.Trail = audit.Nop{}
	}
	if d.Config == nil {
		c := config.Default()
		d.Config = &c
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop().Sugar()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		engine:     d.Engine,
		fusion:     d.Fusion,
		users:      d.Users,
		gate:       d.Gate,
		trail:      d.Trail,
		cfg:        d.Config,
		logger:     d.Logger,
		mux:        http.NewServeMux(),
		clients:    make(map[*Client]bool),
		register:   make(chan *Client, maxClients),
		unregister: make(chan *Client, maxClients),
		broadcast:  make(chan *Notice, 64),
		ctx:        ctx,
		cancel:     cancel,
		startedAt:  time.Now().UTC(),
	}
	s.setupRoutes()
	return s
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// parseLevel maps a classification string to a Level. Unrecognized input
// falls back to UNCLASSIFIED for compatibility, but never silently: the
// fallback is logged and lands in the audit trail.
func (s *Server) parseLevel(r *http.Request, actor, raw string) classify.Level {
	level, ok := classify.ParseLevel(raw)
	if !ok {
		s.trail.Record(r.Context(), audit.Entry{
			ActorID:    actor,
			Action:     audit.ActionParseFallback,
			EntityKind: "classification",
			Outcome:    audit.OutcomeError,
			Reason:     raw,
		})
		s.logger.Warnw("Unrecognized classification, using UNCLASSIFIED",
			"value", raw, "actor", actor)
	}
	return level
}

// handleClientRegister admits a new WebSocket client, enforcing the
// connection cap.
func (s *Server) handleClientRegister(client *Client) {
	s.mu.Lock()
	if len(s.clients) >= maxClients {
		s.mu.Unlock()
		s.logger.Warnw("Client limit reached, rejecting connection", "limit", maxClients)
		client.close()
		return
	}
	s.clients[client] = true
	count := len(s.clients)
	s.mu.Unlock()

	s.logger.Infow("Client connected", "client_id", shortID(client.id), "total", count)
}

// handleClientUnregister drops a client and closes its send channel.
func (s *Server) handleClientUnregister(client *Client) {
	s.mu.Lock()
	if _, ok := s.clients[client]; ok {
		delete(s.clients, client)
		client.close()
	}
	count := len(s.clients)
	s.mu.Unlock()

	s.logger.Infow("Client disconnected", "client_id", shortID(client.id), "total", count)
}
