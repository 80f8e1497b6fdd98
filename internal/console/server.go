// Package console serves the operator dashboard: server-rendered pages
// backed by the view state and snapshot store, live fragment updates
// over a websocket, and the mutation endpoints the platform supports.
package console

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/nextgen-sip/console/internal/audit"
	"github.com/nextgen-sip/console/internal/carrier"
	"github.com/nextgen-sip/console/internal/render"
	"github.com/nextgen-sip/console/internal/view"
)

// Mutator is the slice of the carrier client the console writes through.
type Mutator interface {
	CreateSubscriber(ctx context.Context, sub carrier.Subscriber) (*carrier.Subscriber, error)
	DeleteSubscriber(ctx context.Context, id string) error
	AdjustBalance(ctx context.Context, id string, amount float64) error
}

// Refresher re-fetches carrier resources into the snapshot store.
// Satisfied by poll.Poller.
type Refresher interface {
	Refresh(ctx context.Context, resources ...view.Resource)
}

// Deps carries everything a console server needs.
type Deps struct {
	Mutator   Mutator
	Refresher Refresher

	Nav       *view.Navigator
	Modals    *view.Modals
	Activity  *view.ActivityLog
	Snapshots *view.Snapshots

	// Trail is optional; nil disables the durable admin-action record.
	Trail *audit.Store

	PollInterval time.Duration
	Traced       bool
	Logger       *slog.Logger
}

// Server is the console HTTP surface.
type Server struct {
	auth      *Auth
	hub       *Hub
	mutator   Mutator
	refresher Refresher

	nav      *view.Navigator
	modals   *view.Modals
	activity *view.ActivityLog
	snaps    *view.Snapshots
	trail    *audit.Store

	pollInterval time.Duration
	traced       bool
	logger       *slog.Logger
	mux          *http.ServeMux
}

// NewServer wires the console routes. The session store defaults to
// in-memory; pass a redis-backed store for multi-replica setups.
func NewServer(d Deps, sessions SessionStore) *Server {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if sessions == nil {
		sessions = NewMemorySessions()
	}
	if d.PollInterval <= 0 {
		d.PollInterval = 4 * time.Second
	}
	s := &Server{
		auth:         NewAuth(sessions),
		hub:          NewHub(d.Logger),
		mutator:      d.Mutator,
		refresher:    d.Refresher,
		nav:          d.Nav,
		modals:       d.Modals,
		activity:     d.Activity,
		snaps:        d.Snapshots,
		trail:        d.Trail,
		pollInterval: d.PollInterval,
		traced:       d.Traced,
		logger:       d.Logger,
		mux:          http.NewServeMux(),
	}
	s.routes()
	return s
}

// AccessCode returns the code printed in the serve banner.
func (s *Server) AccessCode() string {
	return s.auth.AccessCode()
}

// Handler returns the console handler with middleware applied.
func (s *Server) Handler() http.Handler {
	h := s.auth.Middleware(s.mux)
	h = withSecurityHeaders(h)
	h = withRequestID(h)
	if s.traced {
		h = otelhttp.NewHandler(h, "console")
	}
	return h
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /console/login", s.handleLoginPage)
	s.mux.HandleFunc("POST /console/login", s.handleLoginSubmit)
	s.mux.HandleFunc("POST /console/logout", s.handleLogout)

	s.mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/console", http.StatusFound)
	})
	s.mux.HandleFunc("GET /console", s.handleConsolePage)
	s.mux.HandleFunc("GET /console/ws", s.handleWS)

	s.mux.HandleFunc("POST /console/navigate/{page}", s.handleNavigate)
	s.mux.HandleFunc("POST /console/modal/{name}/open", s.handleModalOpen)
	s.mux.HandleFunc("POST /console/modal/{name}/close", s.handleModalClose)

	s.mux.HandleFunc("POST /console/subscribers", s.handleCreateSubscriber)
	s.mux.HandleFunc("DELETE /console/subscribers/{id}", s.handleDeleteSubscriber)
	s.mux.HandleFunc("POST /console/subscribers/{id}/balance", s.handleAdjustBalance)

	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
	s.mux.Handle("GET /metrics", promhttp.Handler())
}

// OnSync renders the fragments affected by a fresh snapshot and pushes
// them to connected browsers. Wired as the poller's sync callback.
func (s *Server) OnSync(r view.Resource) {
	switch r {
	case view.ResourceStats:
		s.hub.Broadcast(render.TargetKPIs, render.KPIGrid(s.snaps.Stats()))
	case view.ResourceSubscribers:
		subs, _ := s.snaps.Subscribers()
		s.hub.Broadcast(render.TargetSubscribers, render.SubscriberRows(subs))
		s.hub.Broadcast(render.TargetSubCount, render.GroupThousands(len(subs)))
	case view.ResourceCalls:
		calls, _ := s.snaps.Calls()
		s.hub.Broadcast(render.TargetCalls, render.CallRows(calls, time.Now()))
		s.hub.Broadcast(render.TargetCallCount, render.GroupThousands(len(calls)))
	case view.ResourceConfig:
		cfg := s.snaps.Platform()
		s.hub.Broadcast(render.TargetConfig, render.ConfigPanel(cfg))
		s.hub.Broadcast(render.TargetNetwork, render.NetworkPanel(cfg))
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	s.hub.serve(w, r)
}

func (s *Server) broadcastActivity() {
	s.hub.Broadcast(render.TargetActivity, render.ActivityItems(s.activity.Entries()))
}

func (s *Server) recordAction(action audit.Action, subscriberID, detail string, outcome audit.Outcome) {
	mutations.WithLabelValues(string(action), string(outcome)).Inc()
	if s.trail != nil {
		s.trail.Log(audit.NewEntry(action, subscriberID, detail, outcome))
	}
}
