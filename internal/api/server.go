// Package api provides the HTTP API for driving a save: GET endpoints
// expose read-only observation of the current state; POST endpoints are
// admin-gated (bearer token) and advance, plan, or mutate the save. See
// design doc Section 6.1.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/talgya/idlecore/internal/catalog"
	"github.com/talgya/idlecore/internal/idleerr"
	"github.com/talgya/idlecore/internal/interaction"
	"github.com/talgya/idlecore/internal/metrics"
	"github.com/talgya/idlecore/internal/persistence"
	"github.com/talgya/idlecore/internal/planner"
	"github.com/talgya/idlecore/internal/state"
	"github.com/talgya/idlecore/internal/tick"
	"github.com/talgya/idlecore/internal/xrand"
)

// Server serves a single save's state over HTTP.
type Server struct {
	Registry *catalog.Registry
	DB       *persistence.DB
	Port     int
	SaveID   string
	Seed     uint64
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.

	mu       sync.Mutex
	state    state.GlobalState
	lastPlan *planner.Plan
	rng      xrand.Source
}

// NewServer loads (or initializes) the named save and wires it to reg.
func NewServer(reg *catalog.Registry, db *persistence.DB, saveID string, seed uint64, port int, adminKey string, maxHP int) (*Server, error) {
	s, ok, err := db.LoadState(saveID)
	if err != nil {
		return nil, fmt.Errorf("load save %q: %w", saveID, err)
	}
	if !ok {
		s = state.New(maxHP)
	}
	return &Server{Registry: reg, DB: db, Port: port, SaveID: saveID, Seed: seed, AdminKey: adminKey, state: s, rng: xrand.NewSource(seed)}, nil
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	advanceLimiter := NewRateLimiter(600, time.Minute)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/api/v1/state", s.handleState)
	mux.HandleFunc("/api/v1/rates", s.handleRates)

	mux.HandleFunc("/api/v1/advance", s.adminOnly(RateLimitMiddleware(advanceLimiter, s.handleAdvance)))
	mux.HandleFunc("/api/v1/interact", s.adminOnly(s.handleInteract))
	mux.HandleFunc("/api/v1/plan", s.adminOnly(s.handlePlan))
	mux.HandleFunc("/api/v1/execute", s.adminOnly(s.handleExecute))

	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	go func() {
		handler := corsMiddleware(mux)
		if err := http.ListenAndServe(addr, handler); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// corsMiddleware adds CORS headers for allowed frontend origins. Set
// CORS_ORIGINS to a comma-separated list of allowed origins; localhost dev
// servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:4173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly requires bearer token auth on POST requests.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if s.AdminKey == "" {
				http.Error(w, "admin endpoints disabled (no IDLECORE_ADMIN_KEY set)", http.StatusForbidden)
				return
			}
			if !s.checkBearerToken(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next(w, r)
	}
}

// AutoAdvanceLoop drives the save forward in real time: every realInterval
// it advances the simulated ticks that elapsed and persists the result,
// until ctx is cancelled. Mirrors the teacher's eng.Run() ticker-callback
// loop in cmd/worldsim, adapted to a single save instead of a world tick.
func (s *Server) AutoAdvanceLoop(ctx context.Context, realInterval time.Duration) {
	ticksPerInterval := tick.TicksFromDuration(realInterval)
	if ticksPerInterval <= 0 {
		ticksPerInterval = 1
	}
	ticker := time.NewTicker(realInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			next, result := tick.Advance(s.Registry, s.state, ticksPerInterval, s.rng)
			s.state = next.WithUpdatedAt(time.Now().UTC())
			out := s.state
			s.mu.Unlock()

			metrics.TicksAdvanced.Add(float64(result.TicksConsumed))
			if err := s.DB.SaveState(s.SaveID, out); err != nil {
				slog.Error("auto-advance: save failed", "error", err)
			}
			if result.Stop != tick.StopNone && result.Stop != tick.StopNoActiveAction {
				slog.Warn("auto-advance: active action stopped", "stop", result.Stop)
			}
		}
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, s.state)
}

func (s *Server) handleRates(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	cur := s.state
	s.mu.Unlock()

	if cur.ActiveAction == nil {
		writeJSON(w, map[string]any{"active": false})
		return
	}
	action, err := s.Registry.Action(cur.ActiveAction.ActionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, map[string]any{"active": true, "actionId": cur.ActiveAction.ActionID, "rates": rateSnapshot(s.Registry, cur, action)})
}

type advanceRequest struct {
	Ticks int `json:"ticks"`
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	var req advanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Ticks <= 0 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("ticks must be positive"))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.state.UpdatedAt
	next, result := tick.Advance(s.Registry, s.state, req.Ticks, s.rng)
	s.state = next.WithUpdatedAt(time.Now().UTC())
	metrics.TicksAdvanced.Add(float64(result.TicksConsumed))

	if err := s.DB.SaveState(s.SaveID, s.state); err != nil {
		slog.Error("advance: save failed", "error", err)
	}
	if err := s.DB.SaveChanges(s.SaveID, 0, int64(result.TicksConsumed), result.Changes); err != nil {
		slog.Error("advance: changes log failed", "error", err)
	}

	writeJSON(w, map[string]any{
		"ticksConsumed": result.TicksConsumed,
		"stop":          result.Stop,
		"state":         s.state,
		"previousUpdatedAt": before,
	})
}

func (s *Server) handleInteract(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	i, err := interaction.UnmarshalJSON(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := interaction.Apply(s.Registry, s.state, i, s.rng.Stream("api-interact"))
	if err != nil {
		status := http.StatusBadRequest
		if idleerr.Is(err, idleerr.KindUnknownId) {
			status = http.StatusInternalServerError
		}
		writeError(w, status, err)
		return
	}
	s.state = next.WithUpdatedAt(time.Now().UTC())
	if err := s.DB.SaveState(s.SaveID, s.state); err != nil {
		slog.Error("interact: save failed", "error", err)
	}
	writeJSON(w, s.state)
}

type planRequest struct {
	Skill       string `json:"skill"`
	TargetLevel int    `json:"targetLevel"`
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	skill, ok := catalog.SkillByName(req.Skill)
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown skill %q", req.Skill))
		return
	}

	s.mu.Lock()
	cur := s.state
	s.mu.Unlock()

	goal := planner.SkillLevelGoal{XP: s.Registry.XP, Skill: skill, TargetLevel: req.TargetLevel}
	ctx := planner.NewSegmentContext(s.Registry, cur, goal, planner.DefaultSegmentConfig())

	start := time.Now()
	plan, boundary := planner.PlanSegment(s.Registry, cur, ctx, s.Seed)
	metrics.PlanDuration.Observe(time.Since(start).Seconds())
	metrics.PlansGenerated.Inc()

	if err := s.DB.SavePlan(s.SaveID, plan, fmt.Sprintf("%s:%d", req.Skill, req.TargetLevel)); err != nil {
		slog.Error("plan: save failed", "error", err)
	}

	s.mu.Lock()
	s.lastPlan = &plan
	s.mu.Unlock()

	writeJSON(w, map[string]any{
		"planId":   plan.ID,
		"steps":    len(plan.Steps),
		"boundary": boundaryJSON(boundary),
	})
}

// handleExecute replays the most recently generated plan (via /api/v1/plan)
// against the live save, reporting a ReplanBoundary when the tick engine
// diverges from the plan's expectations. Plans are not resumed across
// process restarts; generate a fresh plan first in that case.
func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	plan := s.lastPlan
	cur := s.state
	s.mu.Unlock()

	if plan == nil {
		writeError(w, http.StatusConflict, fmt.Errorf("no plan generated yet; call /api/v1/plan first"))
		return
	}

	next, replanBoundary := planner.ExecutePlan(s.Registry, cur, *plan, s.Seed)

	s.mu.Lock()
	s.state = next.WithUpdatedAt(time.Now().UTC())
	s.lastPlan = nil
	out := s.state
	s.mu.Unlock()

	if err := s.DB.SaveState(s.SaveID, out); err != nil {
		slog.Error("execute: save failed", "error", err)
	}

	resp := map[string]any{"state": out}
	if replanBoundary != nil {
		resp["replanBoundary"] = replanBoundary
	}
	writeJSON(w, resp)
}

func boundaryJSON(b planner.Boundary) map[string]any {
	return map[string]any{"kind": b.Kind, "ticks": b.Ticks}
}

func rateSnapshot(reg *catalog.Registry, s state.GlobalState, action catalog.Action) map[string]any {
	return map[string]any{"actionId": action.ID(), "skill": action.Skill().String()}
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	http.Error(w, err.Error(), status)
}
