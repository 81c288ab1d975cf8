package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"holdem-autopilot/server/agent"
	"holdem-autopilot/server/bankroll"
	"holdem-autopilot/server/engine"
	"holdem-autopilot/server/equity"
	"holdem-autopilot/server/judge"
	"holdem-autopilot/server/store"
	"holdem-autopilot/server/strategy"
)

const (
	defaultEquitySamples = 1000
	maxEquitySamples     = 200000
)

// Persister is the slice of the store the API writes through. A nil
// Persister runs the API without a database.
type Persister interface {
	judge.Store
	SaveSnapshot(ctx context.Context, st bankroll.State, ss bankroll.SessionStats) error
	InsertDecision(ctx context.Context, d store.DecisionLog) (uuid.UUID, error)
	InsertMatchResult(ctx context.Context, m store.MatchResult) (uuid.UUID, error)
	DecisionMix(ctx context.Context) (map[engine.Phase]map[engine.ActionKind]int, error)
}

type Server struct {
	Engine   *strategy.Engine
	Calc     *equity.Calculator
	Bankroll *bankroll.Manager
	DB       Persister
	Log      log.FieldLogger
}

func Router(s *Server) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer, s.requestLogger)

	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"ok": true, "db": s.DB != nil})
	})

	r.Post("/api/decide", s.handleDecide)
	r.Post("/api/equity", s.handleEquity)

	r.Route("/api/bankroll", func(r chi.Router) {
		r.Get("/", s.handleBankroll)
		r.Post("/should-play", s.handleShouldPlay)
		r.Post("/optimal-wager", s.handleOptimalWager)
		r.Post("/reserve", s.handleReserve)
		r.Post("/result", s.handleResult)
		r.Post("/balance", s.handleBalance)
		r.Post("/reset-session", s.handleResetSession)
	})

	r.Get("/api/decisions/mix", s.handleDecisionMix)
	r.Post("/api/judge/river", s.handleJudgeRiver)
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.Log.WithFields(log.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"elapsed_ms": time.Since(start).Milliseconds(),
			"request_id": middleware.GetReqID(r.Context()),
		}).Info("request")
	})
}

/* -----------------------------
   Decisions and equity
------------------------------*/

type decideResponse struct {
	DecisionID string `json:"decision_id,omitempty"`
	agent.ActionOut
}

func (s *Server) handleDecide(w http.ResponseWriter, r *http.Request) {
	var obs agent.Observation
	if !readJSON(w, r, &obs) {
		return
	}
	dc, err := obs.Context()
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	d, err := s.Engine.Decide(dc)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	resp := decideResponse{ActionOut: agent.FromDecision(d)}
	if s.DB != nil {
		id, err := s.DB.InsertDecision(r.Context(), store.NewDecisionLog(uuid.NullUUID{}, obs.HandID, dc, d))
		if err != nil {
			s.Log.WithError(err).Warn("decision not logged")
		} else {
			resp.DecisionID = id.String()
		}
	}
	writeJSON(w, resp)
}

type equityRequest struct {
	HoleCards []engine.Card `json:"hole_cards"`
	Board     []engine.Card `json:"board"`
	Samples   int           `json:"samples"`
	Range     string        `json:"range,omitempty"`
	Exact     bool          `json:"exact,omitempty"`
	Pot       int64         `json:"pot"`
	ToCall    int64         `json:"to_call"`
}

type equityResponse struct {
	Equity         float64 `json:"equity"`
	StdErr         float64 `json:"std_err"`
	Samples        int     `json:"samples"`
	Combos         int     `json:"combos,omitempty"`
	Exact          bool    `json:"exact"`
	PotOdds        float64 `json:"pot_odds"`
	CallProfitable bool    `json:"call_profitable"`
	CallEV         float64 `json:"call_ev"`
	Hand           string  `json:"hand,omitempty"`
}

// rangeSamples is the per-combo sample count for a range of the given size.
// Range equity simulates every combo, and a range with no usable combo falls
// back to ten times the per-combo count, so the total stays within
// maxEquitySamples either way.
func rangeSamples(n, combos int) int {
	return max(1, min(n, maxEquitySamples/max(combos, 10)))
}

func (s *Server) handleEquity(w http.ResponseWriter, r *http.Request) {
	var req equityRequest
	if !readJSON(w, r, &req) {
		return
	}
	if len(req.HoleCards) != 2 {
		writeError(w, "exactly two hole cards required", http.StatusBadRequest)
		return
	}
	switch len(req.Board) {
	case 0, 3, 4, 5:
	default:
		writeError(w, "board must have 0, 3, 4 or 5 cards", http.StatusBadRequest)
		return
	}
	all := append(append([]engine.Card{}, req.HoleCards...), req.Board...)
	if err := engine.ValidateCards(all, len(all), len(all)); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Pot < 0 || req.ToCall < 0 {
		writeError(w, "pot and to_call must not be negative", http.StatusBadRequest)
		return
	}
	if req.Samples <= 0 {
		req.Samples = defaultEquitySamples
	}
	if req.Samples > maxEquitySamples {
		req.Samples = maxEquitySamples
	}
	hole := engine.HoleCards{req.HoleCards[0], req.HoleCards[1]}

	resp := equityResponse{Samples: req.Samples}
	switch {
	case req.Range != "":
		rng, err := equity.ParseRange(req.Range)
		if err != nil {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}
		resp.Samples, resp.Combos = rangeSamples(req.Samples, len(rng)), len(rng)
		resp.Equity = s.Calc.CalculateEquityVsRange(hole, req.Board, rng, resp.Samples)
		resp.StdErr = equity.StdErr(resp.Equity, resp.Samples*max(len(rng), 1))
	case req.Exact && len(req.Board) == 5:
		resp.Equity, resp.Exact, resp.Samples = equity.ExactRiverEquity(hole, req.Board), true, 0
	default:
		resp.Equity = s.Calc.CalculateEquity(hole, req.Board, req.Samples)
		resp.StdErr = equity.StdErr(resp.Equity, req.Samples)
	}
	resp.PotOdds = equity.CalculatePotOdds(req.ToCall, req.Pot)
	resp.CallProfitable = equity.IsCallProfitable(resp.Equity, resp.PotOdds)
	resp.CallEV = equity.CalculateCallEV(resp.Equity, req.Pot, req.ToCall)
	if len(req.Board) >= 3 {
		resp.Hand = engine.Describe(all)
	}
	writeJSON(w, resp)
}

/* -----------------------------
   Bankroll
------------------------------*/

type bankrollResponse struct {
	State       bankroll.State        `json:"state"`
	Session     bankroll.SessionStats `json:"session"`
	StopLossHit bool                  `json:"stop_loss_hit"`
}

func (s *Server) bankrollView() bankrollResponse {
	return bankrollResponse{
		State:       s.Bankroll.GetState(),
		Session:     s.Bankroll.GetSessionStats(),
		StopLossHit: s.Bankroll.IsStopLossHit(),
	}
}

// snapshot persists the wallet; failures are logged, not returned.
func (s *Server) snapshot(ctx context.Context) {
	if s.DB == nil {
		return
	}
	if err := s.DB.SaveSnapshot(ctx, s.Bankroll.GetState(), s.Bankroll.GetSessionStats()); err != nil {
		s.Log.WithError(err).Warn("bankroll snapshot failed")
	}
}

func (s *Server) handleBankroll(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.bankrollView())
}

func (s *Server) handleShouldPlay(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Wager           int64   `json:"wager"`
		WinProb         float64 `json:"win_prob"`
		OpponentUnknown bool    `json:"opponent_unknown"`
		IsJoining       bool    `json:"is_joining"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	if req.WinProb < 0 || req.WinProb > 1 {
		writeError(w, "win_prob must be in [0,1]", http.StatusBadRequest)
		return
	}
	writeJSON(w, s.Bankroll.ShouldPlayMatch(req.Wager, req.WinProb, req.OpponentUnknown, req.IsJoining))
}

func (s *Server) handleOptimalWager(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WinProb     float64  `json:"win_prob"`
		PayoutRatio *float64 `json:"payout_ratio,omitempty"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	if req.WinProb < 0 || req.WinProb > 1 {
		writeError(w, "win_prob must be in [0,1]", http.StatusBadRequest)
		return
	}
	b := 1.0
	if req.PayoutRatio != nil {
		b = *req.PayoutRatio
	}
	writeJSON(w, map[string]any{"wager": s.Bankroll.CalculateOptimalWager(req.WinProb, b)})
}

func (s *Server) handleReserve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Wager int64 `json:"wager"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	ok := s.Bankroll.ReserveForMatch(req.Wager)
	if ok {
		s.snapshot(r.Context())
	}
	writeJSON(w, map[string]any{"reserved": ok, "state": s.Bankroll.GetState()})
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Wager int64 `json:"wager"`
		Won   bool  `json:"won"`
		Pot   int64 `json:"pot"`
		Hands int   `json:"hands"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	if err := s.Bankroll.RecordResult(req.Wager, req.Won, req.Pot); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	resp := map[string]any{"state": s.Bankroll.GetState()}
	if s.DB != nil {
		id, err := s.DB.InsertMatchResult(r.Context(), store.MatchResult{Wager: req.Wager, Pot: req.Pot, Won: req.Won, Hands: req.Hands})
		if err != nil {
			s.Log.WithError(err).Warn("match result not stored")
		} else {
			resp["match_id"] = id.String()
		}
	}
	s.snapshot(r.Context())
	writeJSON(w, resp)
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Balance int64 `json:"balance"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	if req.Balance < 0 {
		writeError(w, "balance must not be negative", http.StatusBadRequest)
		return
	}
	s.Bankroll.UpdateBalance(req.Balance)
	s.snapshot(r.Context())
	writeJSON(w, s.bankrollView())
}

func (s *Server) handleResetSession(w http.ResponseWriter, r *http.Request) {
	s.Bankroll.ResetSession()
	s.snapshot(r.Context())
	writeJSON(w, s.bankrollView())
}

/* -----------------------------
   Store-backed views
------------------------------*/

func (s *Server) handleDecisionMix(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		writeError(w, errNoDB.Error(), http.StatusServiceUnavailable)
		return
	}
	mix, err := s.DB.DecisionMix(r.Context())
	if err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"mix": mix})
}

func (s *Server) handleJudgeRiver(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		writeError(w, errNoDB.Error(), http.StatusServiceUnavailable)
		return
	}
	var req struct {
		MatchID string `json:"match_id,omitempty"`
	}
	if r.ContentLength != 0 && !readJSON(w, r, &req) {
		return
	}
	var match uuid.NullUUID
	if req.MatchID != "" {
		id, err := uuid.Parse(req.MatchID)
		if err != nil {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}
		match = uuid.NullUUID{UUID: id, Valid: true}
	}
	sum, err := judge.ReviewRiver(r.Context(), s.DB, match, s.Log)
	if err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, sum)
}

/* -----------------------------
   helpers
------------------------------*/

func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, msg string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": msg})
}

var errNoDB = errors.New("no database configured")
