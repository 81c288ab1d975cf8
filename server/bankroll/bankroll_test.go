package bankroll

import (
	"math/rand"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func newManager(balance int64) *Manager {
	logger, _ := test.NewNullLogger()
	return New(DefaultConfig(), balance, WithLogger(logger))
}

func TestOptimalWagerKelly(t *testing.T) {
	m := newManager(10000)
	assert.Equal(t, int64(0), m.CalculateOptimalWager(0.5, 1), "no edge, no bet")
	assert.Equal(t, int64(0), m.CalculateOptimalWager(0.3, 1), "negative edge floors at zero")
	assert.Equal(t, int64(250), m.CalculateOptimalWager(0.55, 1))
	assert.Equal(t, int64(500), m.CalculateOptimalWager(0.9, 1), "capped at max risk")
	assert.Equal(t, int64(0), m.CalculateOptimalWager(0.9, 0))
}

func TestOptimalWagerMonotone(t *testing.T) {
	m := newManager(12345)
	limit := int64(float64(12345) * DefaultConfig().MaxRiskPercent)
	for _, b := range []float64{0.5, 1, 2, 5} {
		prev := int64(-1)
		for i := 0; i <= 100; i++ {
			w := m.CalculateOptimalWager(float64(i)/100, b)
			assert.GreaterOrEqual(t, w, prev, "p=%d%% b=%v", i, b)
			assert.LessOrEqual(t, w, limit)
			prev = w
		}
	}
}

func TestShouldPlayMatch(t *testing.T) {
	tests := []struct {
		name     string
		balance  int64
		wager    int64
		p        float64
		unknown  bool
		joining  bool
		play     bool
		contains string
	}{
		{"insufficient balance", 100, 150, 0.9, false, false, false, "insufficient balance"},
		{"risk exceeded creating", 1000, 60, 0.9, false, false, false, "risk exceeded"},
		{"risk widened joining", 1000, 120, 0.9, false, true, true, "all checks passed"},
		{"negative ev", 1000, 40, 0.4, false, false, false, "negative expected value"},
		{"unknown skips ev", 1000, 40, 0.4, true, false, true, "all checks passed"},
		{"unknown joining capped at 1/20", 1000, 60, 0.6, true, true, false, "unknown opponent"},
		{"unknown joining within cap", 1000, 50, 0.6, true, true, true, "all checks passed"},
		{"zero wager", 1000, 0, 0.1, false, false, true, "all checks passed"},
		{"negative wager", 1000, -1, 0.9, false, false, false, "invalid wager"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newManager(tt.balance).ShouldPlayMatch(tt.wager, tt.p, tt.unknown, tt.joining)
			assert.Equal(t, tt.play, v.ShouldPlay)
			assert.Contains(t, v.Reason, tt.contains)
		})
	}
}

func TestStopLossBlocksCreationNotJoining(t *testing.T) {
	m := newManager(1000)
	require.True(t, m.ReserveForMatch(250))
	require.NoError(t, m.RecordResult(250, false, 0))
	require.True(t, m.IsStopLossHit())

	v := m.ShouldPlayMatch(20, 0.6, false, false)
	assert.False(t, v.ShouldPlay)
	assert.Contains(t, v.Reason, "stop-loss")

	v = m.ShouldPlayMatch(20, 0.6, false, true)
	assert.True(t, v.ShouldPlay, v.Reason)
}

func TestStopLossBoundary(t *testing.T) {
	m := newManager(1000)
	require.True(t, m.ReserveForMatch(200))
	require.NoError(t, m.RecordResult(200, false, 0))
	assert.False(t, m.IsStopLossHit(), "exactly 20% down is not past the line")
	require.True(t, m.ReserveForMatch(1))
	require.NoError(t, m.RecordResult(1, false, 0))
	assert.True(t, m.IsStopLossHit())
}

func TestDeclineIsLogged(t *testing.T) {
	logger, hook := test.NewNullLogger()
	m := New(DefaultConfig(), 100, WithLogger(logger))
	m.ShouldPlayMatch(150, 0.9, false, false)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, log.InfoLevel, hook.LastEntry().Level)
	assert.Equal(t, "match declined", hook.LastEntry().Message)
}

func TestReserveAndRecord(t *testing.T) {
	m := newManager(1000)
	assert.False(t, m.ReserveForMatch(1001))
	assert.Equal(t, State{TotalBalance: 1000, AvailableBalance: 1000}, m.GetState(), "failed reservation changes nothing")

	require.True(t, m.ReserveForMatch(100))
	assert.Equal(t, State{TotalBalance: 1000, AvailableBalance: 900, InPlay: 100}, m.GetState())

	require.NoError(t, m.RecordResult(100, true, 200))
	assert.Equal(t, State{TotalBalance: 1100, AvailableBalance: 1100, SessionProfit: 100, AllTimeProfit: 100}, m.GetState())

	require.True(t, m.ReserveForMatch(50))
	require.NoError(t, m.RecordResult(50, false, 100))
	assert.Equal(t, State{TotalBalance: 1050, AvailableBalance: 1050, SessionProfit: 50, AllTimeProfit: 50}, m.GetState())

	ss := m.GetSessionStats()
	assert.Equal(t, 2, ss.GamesPlayed)
	assert.Equal(t, 1, ss.Wins)
	assert.Equal(t, 1, ss.Losses)
	assert.Equal(t, int64(100), ss.BiggestWin)
	assert.Equal(t, int64(50), ss.BiggestLoss)
	assert.Equal(t, int64(1050), ss.CurrentBalance)
}

func TestRecordResultRequiresReservation(t *testing.T) {
	m := newManager(1000)
	assert.ErrorIs(t, m.RecordResult(10, false, 0), ErrNotReserved)
	require.True(t, m.ReserveForMatch(10))
	assert.Error(t, m.RecordResult(10, true, 5), "pot below wager")
	assert.Equal(t, int64(10), m.GetState().InPlay)
}

func TestRecordDraw(t *testing.T) {
	m := newManager(1000)
	assert.ErrorIs(t, m.RecordDraw(10), ErrNotReserved)

	require.True(t, m.ReserveForMatch(200))
	require.NoError(t, m.RecordDraw(200))
	assert.Equal(t, State{TotalBalance: 1000, AvailableBalance: 1000}, m.GetState())

	ss := m.GetSessionStats()
	assert.Equal(t, 1, ss.GamesPlayed)
	assert.Zero(t, ss.Wins, "a draw is not a win")
	assert.Zero(t, ss.Losses)
	assert.Zero(t, ss.BiggestWin)
	assert.Equal(t, int64(1000), ss.CurrentBalance)
}

func TestBalanceInvariant(t *testing.T) {
	m := newManager(5000)
	r := rand.New(rand.NewSource(42))
	var open []int64
	for i := 0; i < 2000; i++ {
		if len(open) == 0 || r.Intn(2) == 0 {
			w := r.Int63n(300) + 1
			if m.ReserveForMatch(w) {
				open = append(open, w)
			}
		} else {
			w := open[0]
			open = open[1:]
			require.NoError(t, m.RecordResult(w, r.Intn(2) == 0, w*2))
		}
		st := m.GetState()
		require.Equal(t, st.TotalBalance, st.AvailableBalance+st.InPlay, "step %d", i)
	}
}

func TestConcurrentMatches(t *testing.T) {
	m := newManager(100000)
	var g errgroup.Group
	for i := 0; i < 16; i++ {
		won := i%2 == 0
		g.Go(func() error {
			for j := 0; j < 100; j++ {
				if m.ReserveForMatch(10) {
					if err := m.RecordResult(10, won, 20); err != nil {
						return err
					}
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	st := m.GetState()
	assert.Equal(t, int64(100000), st.TotalBalance, "equal wins and losses at even money")
	assert.Equal(t, st.TotalBalance, st.AvailableBalance+st.InPlay)
	assert.Equal(t, 1600, m.GetSessionStats().GamesPlayed)
}

func TestUpdateBalanceKeepsInPlay(t *testing.T) {
	m := newManager(1000)
	require.True(t, m.ReserveForMatch(100))
	m.UpdateBalance(2000)
	assert.Equal(t, State{TotalBalance: 2100, AvailableBalance: 2000, InPlay: 100}, m.GetState())

	fresh := newManager(0)
	fresh.UpdateBalance(500)
	assert.Equal(t, int64(500), fresh.GetSessionStats().StartBalance)
}

func TestResetSession(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	logger, _ := test.NewNullLogger()
	m := New(DefaultConfig(), 1000, WithLogger(logger), WithClock(func() time.Time { return at }))
	require.True(t, m.ReserveForMatch(300))
	require.NoError(t, m.RecordResult(300, false, 0))
	require.True(t, m.IsStopLossHit())

	m.ResetSession()
	assert.False(t, m.IsStopLossHit())
	ss := m.GetSessionStats()
	assert.Equal(t, int64(700), ss.StartBalance)
	assert.Zero(t, ss.GamesPlayed)
	assert.Equal(t, at, ss.StartTime)
	assert.Equal(t, int64(-300), m.GetState().AllTimeProfit)
}

func TestRestoreRecomputesTotal(t *testing.T) {
	m := newManager(0)
	m.Restore(State{TotalBalance: 1, AvailableBalance: 800, InPlay: 200}, SessionStats{StartBalance: 1000})
	assert.Equal(t, int64(1000), m.GetState().TotalBalance)
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
	assert.Error(t, Config{KellyFraction: 0, MaxRiskPercent: 0.05}.Validate())
	assert.Error(t, Config{KellyFraction: 0.25, MaxRiskPercent: 1.5}.Validate())
}
