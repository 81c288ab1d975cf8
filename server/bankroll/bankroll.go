// Package bankroll tracks one agent's wallet and decides whether a match
// is worth entering and how much to stake on it.
package bankroll

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

var ErrNotReserved = errors.New("wager was not reserved")

type Config struct {
	KellyFraction  float64 `yaml:"kelly_fraction"`
	MaxRiskPercent float64 `yaml:"max_risk_percent"`
}

func DefaultConfig() Config {
	return Config{KellyFraction: 0.25, MaxRiskPercent: 0.05}
}

func (c Config) Validate() error {
	if c.KellyFraction <= 0 || c.KellyFraction > 1 {
		return fmt.Errorf("kelly_fraction must be in (0,1], got %v", c.KellyFraction)
	}
	if c.MaxRiskPercent <= 0 || c.MaxRiskPercent > 1 {
		return fmt.Errorf("max_risk_percent must be in (0,1], got %v", c.MaxRiskPercent)
	}
	return nil
}

// State is the wallet. TotalBalance == AvailableBalance + InPlay.
type State struct {
	TotalBalance     int64 `json:"total_balance"`
	AvailableBalance int64 `json:"available_balance"`
	InPlay           int64 `json:"in_play"`
	SessionProfit    int64 `json:"session_profit"`
	AllTimeProfit    int64 `json:"all_time_profit"`
}

type SessionStats struct {
	StartBalance   int64     `json:"start_balance"`
	CurrentBalance int64     `json:"current_balance"`
	GamesPlayed    int       `json:"games_played"`
	Wins           int       `json:"wins"`
	Losses         int       `json:"losses"`
	BiggestWin     int64     `json:"biggest_win"`
	BiggestLoss    int64     `json:"biggest_loss"`
	StartTime      time.Time `json:"start_time"`
}

// Verdict is the answer to ShouldPlayMatch. Reason is always set.
type Verdict struct {
	ShouldPlay bool   `json:"should_play"`
	Reason     string `json:"reason"`
}

// Unknown opponents are capped at TotalBalance/threshold.
const (
	unknownJoinThreshold   = 20
	unknownCreateThreshold = 5
	joinRiskWidening       = 3
)

type Manager struct {
	mu    sync.Mutex
	cfg   Config
	state State
	stats SessionStats
	log   log.FieldLogger
	now   func() time.Time
}

type Option func(*Manager)

func WithLogger(l log.FieldLogger) Option { return func(m *Manager) { m.log = l } }

func WithClock(now func() time.Time) Option { return func(m *Manager) { m.now = now } }

func New(cfg Config, balance int64, opts ...Option) *Manager {
	m := &Manager{cfg: cfg, log: log.StandardLogger(), now: time.Now}
	for _, o := range opts {
		o(m)
	}
	m.state = State{TotalBalance: balance, AvailableBalance: balance}
	m.stats = SessionStats{StartBalance: balance, CurrentBalance: balance, StartTime: m.now()}
	return m
}

// Restore replaces the wallet and session with persisted values.
func (m *Manager) Restore(st State, ss SessionStats) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st.TotalBalance = st.AvailableBalance + st.InPlay
	m.state, m.stats = st, ss
}

func (m *Manager) Config() Config { return m.cfg }

// CalculateOptimalWager sizes a stake with fractional Kelly, capped at
// MaxRiskPercent of the available balance.
func (m *Manager) CalculateOptimalWager(winProb, payoutRatio float64) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.optimalWager(winProb, payoutRatio)
}

func (m *Manager) optimalWager(p, b float64) int64 {
	if b <= 0 || m.state.AvailableBalance <= 0 {
		return 0
	}
	f := (b*p - (1 - p)) / b * m.cfg.KellyFraction
	f = math.Min(math.Max(f, 0), m.cfg.MaxRiskPercent)
	return int64(math.Floor(float64(m.state.AvailableBalance) * f))
}

// ShouldPlayMatch runs every eligibility check and returns the first
// failure, or an accepting verdict.
func (m *Manager) ShouldPlayMatch(wager int64, winProb float64, opponentUnknown, isJoining bool) Verdict {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := m.verdict(wager, winProb, opponentUnknown, isJoining)
	fields := log.Fields{"wager": wager, "win_prob": winProb, "unknown": opponentUnknown, "joining": isJoining}
	if !v.ShouldPlay {
		m.log.WithFields(fields).WithField("reason", v.Reason).Info("match declined")
	} else {
		m.log.WithFields(fields).Debug("match accepted")
	}
	return v
}

func (m *Manager) verdict(wager int64, p float64, unknown, joining bool) Verdict {
	st := m.state
	if wager < 0 {
		return Verdict{Reason: fmt.Sprintf("invalid wager %d", wager)}
	}
	if wager > st.AvailableBalance {
		return Verdict{Reason: fmt.Sprintf("insufficient balance: wager %d exceeds available %d", wager, st.AvailableBalance)}
	}
	maxRisk := m.cfg.MaxRiskPercent
	if joining {
		maxRisk *= joinRiskWidening
	}
	if float64(wager) > maxRisk*float64(st.TotalBalance) {
		return Verdict{Reason: fmt.Sprintf("risk exceeded: wager %d is over %.0f%% of total %d", wager, maxRisk*100, st.TotalBalance)}
	}
	if !unknown {
		if ev := p*float64(wager) - (1-p)*float64(wager); ev < 0 {
			return Verdict{Reason: fmt.Sprintf("negative expected value %.2f at win probability %.2f", ev, p)}
		}
	}
	if !joining && m.stopLossHit() {
		return Verdict{Reason: fmt.Sprintf("stop-loss hit: session profit %d", st.SessionProfit)}
	}
	if unknown {
		threshold := int64(unknownCreateThreshold)
		if joining {
			threshold = unknownJoinThreshold
		}
		if wager*threshold > st.TotalBalance {
			return Verdict{Reason: fmt.Sprintf("unknown opponent: wager %d over 1/%d of total %d", wager, threshold, st.TotalBalance)}
		}
	}
	return Verdict{ShouldPlay: true, Reason: "all checks passed"}
}

// ReserveForMatch moves the wager from available to in play. It reports
// false and changes nothing when the funds are not there.
func (m *Manager) ReserveForMatch(wager int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if wager <= 0 || wager > m.state.AvailableBalance {
		m.log.WithFields(log.Fields{"wager": wager, "available": m.state.AvailableBalance}).Info("reservation refused")
		return false
	}
	m.state.AvailableBalance -= wager
	m.state.InPlay += wager
	m.log.WithFields(log.Fields{"wager": wager, "in_play": m.state.InPlay}).Debug("reserved")
	return true
}

// RecordResult settles a reserved wager. A win credits the whole pot to
// the available balance.
func (m *Manager) RecordResult(wager int64, won bool, pot int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if wager <= 0 || wager > m.state.InPlay {
		return fmt.Errorf("%w: wager %d, in play %d", ErrNotReserved, wager, m.state.InPlay)
	}
	if won && pot < wager {
		return fmt.Errorf("pot %d smaller than wager %d", pot, wager)
	}
	m.state.InPlay -= wager
	var net int64
	if won {
		net = pot - wager
		m.state.AvailableBalance += pot
		m.stats.Wins++
		m.stats.BiggestWin = max(m.stats.BiggestWin, net)
	} else {
		net = -wager
		m.stats.Losses++
		m.stats.BiggestLoss = max(m.stats.BiggestLoss, wager)
	}
	m.state.SessionProfit += net
	m.state.AllTimeProfit += net
	m.state.TotalBalance = m.state.AvailableBalance + m.state.InPlay
	m.stats.GamesPlayed++
	m.stats.CurrentBalance = m.state.TotalBalance
	m.log.WithFields(log.Fields{"wager": wager, "won": won, "net": net, "total": m.state.TotalBalance}).Debug("result recorded")
	return nil
}

// RecordDraw returns a reserved wager untouched. The game counts as played
// but neither Wins nor Losses moves and profit is unchanged.
func (m *Manager) RecordDraw(wager int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if wager <= 0 || wager > m.state.InPlay {
		return fmt.Errorf("%w: wager %d, in play %d", ErrNotReserved, wager, m.state.InPlay)
	}
	m.state.InPlay -= wager
	m.state.AvailableBalance += wager
	m.state.TotalBalance = m.state.AvailableBalance + m.state.InPlay
	m.stats.GamesPlayed++
	m.stats.CurrentBalance = m.state.TotalBalance
	m.log.WithFields(log.Fields{"wager": wager, "total": m.state.TotalBalance}).Debug("draw recorded")
	return nil
}

// UpdateBalance sets the available balance from an authoritative source.
// InPlay is left alone.
func (m *Manager) UpdateBalance(balance int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.AvailableBalance = balance
	m.state.TotalBalance = balance + m.state.InPlay
	m.stats.CurrentBalance = m.state.TotalBalance
	if m.stats.StartBalance == 0 {
		m.stats.StartBalance = m.state.TotalBalance
	}
}

func (m *Manager) IsStopLossHit() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopLossHit()
}

// stopLossHit triggers past a 20% session drawdown.
func (m *Manager) stopLossHit() bool {
	return m.state.SessionProfit*5 < -m.stats.StartBalance
}

func (m *Manager) GetState() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) GetSessionStats() SessionStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

// ResetSession starts a new session from the current total balance.
func (m *Manager) ResetSession() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.SessionProfit = 0
	m.stats = SessionStats{
		StartBalance:   m.state.TotalBalance,
		CurrentBalance: m.state.TotalBalance,
		StartTime:      m.now(),
	}
	m.log.WithField("start_balance", m.state.TotalBalance).Info("session reset")
}
