package store

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"holdem-autopilot/server/bankroll"
	"holdem-autopilot/server/engine"
	"holdem-autopilot/server/strategy"
)

//go:embed schema.sql
var schema embed.FS

type DB struct{ *pgxpool.Pool }

func Open(dsn string) (*DB, error) {
	p, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		return nil, err
	}
	return &DB{p}, nil
}

func (db *DB) Close(ctx context.Context)      { db.Pool.Close() }
func (db *DB) Ping(ctx context.Context) error { return db.Pool.Ping(ctx) }

func Migrate(ctx context.Context, db *DB) error {
	sqlBytes, err := schema.ReadFile("schema.sql")
	if err != nil {
		return err
	}
	_, err = db.Exec(ctx, string(sqlBytes))
	return err
}

/* -----------------------------
   Bankroll snapshots
------------------------------*/

// SaveSnapshot appends the current wallet and session.
func (db *DB) SaveSnapshot(ctx context.Context, st bankroll.State, ss bankroll.SessionStats) error {
	_, err := db.Exec(ctx, `
        INSERT INTO bankroll_snapshots(
            total_balance, available_balance, in_play, session_profit, all_time_profit,
            start_balance, games_played, wins, losses, biggest_win, biggest_loss,
            session_started_at
        ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
    `, st.TotalBalance, st.AvailableBalance, st.InPlay, st.SessionProfit, st.AllTimeProfit,
		ss.StartBalance, ss.GamesPlayed, ss.Wins, ss.Losses, ss.BiggestWin, ss.BiggestLoss,
		ss.StartTime)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// LatestSnapshot returns the newest snapshot; ok is false when there is none.
func (db *DB) LatestSnapshot(ctx context.Context) (st bankroll.State, ss bankroll.SessionStats, ok bool, err error) {
	err = db.QueryRow(ctx, `
        SELECT total_balance, available_balance, in_play, session_profit, all_time_profit,
               start_balance, games_played, wins, losses, biggest_win, biggest_loss,
               session_started_at
          FROM bankroll_snapshots
         ORDER BY id DESC
         LIMIT 1
    `).Scan(&st.TotalBalance, &st.AvailableBalance, &st.InPlay, &st.SessionProfit, &st.AllTimeProfit,
		&ss.StartBalance, &ss.GamesPlayed, &ss.Wins, &ss.Losses, &ss.BiggestWin, &ss.BiggestLoss,
		&ss.StartTime)
	if errors.Is(err, pgx.ErrNoRows) {
		return st, ss, false, nil
	}
	if err != nil {
		return st, ss, false, fmt.Errorf("latest snapshot: %w", err)
	}
	ss.CurrentBalance = st.TotalBalance
	return st, ss, true, nil
}

/* -----------------------------
   Match results
------------------------------*/

type MatchResult struct {
	ID        uuid.UUID
	Wager     int64
	Pot       int64
	Won       bool
	Hands     int
	CreatedAt time.Time
}

func (m MatchResult) Net() int64 {
	if m.Won {
		return m.Pot - m.Wager
	}
	return -m.Wager
}

func (db *DB) InsertMatchResult(ctx context.Context, m MatchResult) (uuid.UUID, error) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	_, err := db.Exec(ctx, `
        INSERT INTO match_results(id, wager, pot, won, net, hands)
        VALUES ($1,$2,$3,$4,$5,$6)
    `, m.ID, m.Wager, m.Pot, m.Won, m.Net(), m.Hands)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert match result: %w", err)
	}
	return m.ID, nil
}

/* -----------------------------
   Decision log
------------------------------*/

// DecisionLog is one engine decision together with the context it saw.
type DecisionLog struct {
	ID         uuid.UUID
	MatchID    uuid.NullUUID
	HandID     string
	Phase      engine.Phase
	Position   engine.Position
	Hole       engine.HoleCards
	Board      []engine.Card
	Pot        int64
	CurrentBet int64
	ToCall     int64
	MyChips    int64
	BigBlind   int64
	Action     engine.ActionKind
	Amount     int64
	Confidence float64
	Reasoning  string
	CreatedAt  time.Time
}

func NewDecisionLog(matchID uuid.NullUUID, handID string, dc strategy.DecisionContext, d strategy.Decision) DecisionLog {
	return DecisionLog{
		ID:         uuid.New(),
		MatchID:    matchID,
		HandID:     handID,
		Phase:      dc.Phase,
		Position:   dc.Position,
		Hole:       dc.HoleCards,
		Board:      append([]engine.Card{}, dc.CommunityCards...),
		Pot:        dc.PotSize,
		CurrentBet: dc.CurrentBet,
		ToCall:     dc.ToCall,
		MyChips:    dc.MyChips,
		BigBlind:   dc.BigBlind,
		Action:     d.Action,
		Amount:     d.Amount,
		Confidence: d.Confidence,
		Reasoning:  d.Reasoning,
	}
}

func (db *DB) InsertDecision(ctx context.Context, d DecisionLog) (uuid.UUID, error) {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	var amt any
	if d.Amount > 0 {
		amt = d.Amount
	}
	_, err := db.Exec(ctx, `
        INSERT INTO decision_logs(
            id, match_id, hand_id, phase, position,
            hole_cards, board,
            pot, current_bet, to_call, my_chips, big_blind,
            action, amount, confidence, reasoning
        ) VALUES (
            $1,$2,$3,$4,$5,
            $6,$7,
            $8,$9,$10,$11,$12,
            $13,$14,$15,$16
        )
    `,
		d.ID, d.MatchID, d.HandID, string(d.Phase), string(d.Position),
		cardStrings(d.Hole[:]), cardStrings(d.Board),
		d.Pot, d.CurrentBet, d.ToCall, d.MyChips, d.BigBlind,
		string(d.Action), amt, d.Confidence, d.Reasoning,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert decision: %w", err)
	}
	return d.ID, nil
}

// UnreviewedRiverDecisions lists river decisions without a review, for one
// match or, when matchID is not valid, for all of them.
func (db *DB) UnreviewedRiverDecisions(ctx context.Context, matchID uuid.NullUUID) ([]DecisionLog, error) {
	rows, err := db.Query(ctx, `
        SELECT d.id, d.match_id, d.hand_id, d.phase, d.position, d.hole_cards, d.board,
               d.pot, d.current_bet, d.to_call, d.my_chips, d.big_blind,
               d.action, COALESCE(d.amount, 0), d.confidence, d.reasoning, d.created_at
          FROM decision_logs d
          LEFT JOIN decision_reviews r ON r.decision_id = d.id
         WHERE d.phase = 'river' AND r.decision_id IS NULL
           AND ($1::uuid IS NULL OR d.match_id = $1)
         ORDER BY d.created_at, d.id
    `, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DecisionLog
	for rows.Next() {
		var (
			d                  DecisionLog
			phase, pos, action string
			hole, board        []string
		)
		if err := rows.Scan(&d.ID, &d.MatchID, &d.HandID, &phase, &pos, &hole, &board,
			&d.Pot, &d.CurrentBet, &d.ToCall, &d.MyChips, &d.BigBlind,
			&action, &d.Amount, &d.Confidence, &d.Reasoning, &d.CreatedAt); err != nil {
			return nil, err
		}
		hc, err := parseCardStrings(hole)
		if err != nil || len(hc) != 2 {
			continue
		}
		if d.Board, err = parseCardStrings(board); err != nil {
			continue
		}
		d.Hole = engine.HoleCards{hc[0], hc[1]}
		d.Phase, d.Position, d.Action = engine.Phase(phase), engine.Position(pos), engine.ActionKind(action)
		out = append(out, d)
	}
	return out, rows.Err()
}

// DecisionMix counts logged actions per phase.
func (db *DB) DecisionMix(ctx context.Context) (map[engine.Phase]map[engine.ActionKind]int, error) {
	rows, err := db.Query(ctx, `
        SELECT phase, action, COUNT(*)::int
          FROM decision_logs
         GROUP BY phase, action
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[engine.Phase]map[engine.ActionKind]int)
	for rows.Next() {
		var phase, action string
		var n int
		if err := rows.Scan(&phase, &action, &n); err != nil {
			return nil, err
		}
		p := engine.Phase(phase)
		if out[p] == nil {
			out[p] = make(map[engine.ActionKind]int)
		}
		out[p][engine.ActionKind(action)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

/* -----------------------------
   Reviews
------------------------------*/

type Review struct {
	DecisionID   uuid.UUID
	Solver       string
	Equity       float64
	BestAction   engine.ActionKind
	ChosenAction engine.ActionKind
	EVChosen     float64
	EVBest       float64
	EVGapBB      float64
	IsTopAction  bool
	ComputeMS    int
}

// UpsertReview records a solver evaluation for a logged decision.
func (db *DB) UpsertReview(ctx context.Context, r Review) error {
	_, err := db.Exec(ctx, `
        INSERT INTO decision_reviews(
            decision_id, solver, equity,
            best_action, chosen_action,
            ev_chosen, ev_best, ev_gap_bb,
            is_top_action, compute_ms
        ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        ON CONFLICT (decision_id) DO UPDATE SET
            solver = EXCLUDED.solver,
            equity = EXCLUDED.equity,
            best_action = EXCLUDED.best_action,
            chosen_action = EXCLUDED.chosen_action,
            ev_chosen = EXCLUDED.ev_chosen,
            ev_best = EXCLUDED.ev_best,
            ev_gap_bb = EXCLUDED.ev_gap_bb,
            is_top_action = EXCLUDED.is_top_action,
            compute_ms = EXCLUDED.compute_ms,
            reviewed_at = now()
    `, r.DecisionID, r.Solver, r.Equity,
		string(r.BestAction), string(r.ChosenAction),
		r.EVChosen, r.EVBest, r.EVGapBB,
		r.IsTopAction, r.ComputeMS)
	return err
}

type JudgeAccuracy struct {
	Good  int `json:"good"`
	Total int `json:"total"`
}

func (ja JudgeAccuracy) Ratio() float64 {
	if ja.Total <= 0 {
		return 0
	}
	return float64(ja.Good) / float64(ja.Total)
}

// ReviewAccuracy counts reviewed decisions that were the top action.
func (db *DB) ReviewAccuracy(ctx context.Context, solver string) (JudgeAccuracy, error) {
	var ja JudgeAccuracy
	err := db.QueryRow(ctx, `
        SELECT COALESCE(SUM(CASE WHEN is_top_action THEN 1 ELSE 0 END), 0)::int,
               COUNT(*)::int
          FROM decision_reviews
         WHERE solver = $1
    `, solver).Scan(&ja.Good, &ja.Total)
	return ja, err
}

func cardStrings(cs []engine.Card) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.String()
	}
	return out
}

func parseCardStrings(ss []string) ([]engine.Card, error) {
	out := make([]engine.Card, 0, len(ss))
	for _, s := range ss {
		c, err := engine.ParseCard(s)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
