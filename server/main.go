package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"holdem-autopilot/server/bankroll"
	"holdem-autopilot/server/config"
	"holdem-autopilot/server/engine"
	"holdem-autopilot/server/equity"
	"holdem-autopilot/server/judge"
	"holdem-autopilot/server/store"
	"holdem-autopilot/server/strategy"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := cfg.Logger()

	var migrate, selfplay, judgeOnly bool
	for _, a := range os.Args[1:] {
		switch a {
		case "--migrate":
			migrate = true
		case "--selfplay":
			selfplay = true
		case "--judge":
			judgeOnly = true
		default:
			logger.Fatalf("unknown flag %q (use --migrate, --selfplay or --judge)", a)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go watchSignals(cancel, logger)

	var db *store.DB
	if cfg.DatabaseURL != "" {
		if db, err = store.Open(cfg.DatabaseURL); err != nil {
			logger.Fatalf("open database: %v", err)
		}
		defer db.Close(context.Background())
		if err := db.Ping(ctx); err != nil {
			logger.Fatalf("database unreachable: %v", err)
		}
		if cfg.AutoMigrate || migrate {
			if err := store.Migrate(ctx, db); err != nil {
				logger.Fatalf("migrate: %v", err)
			}
			logger.Info("migrated")
		}
	} else if migrate || judgeOnly {
		logger.Fatal("DATABASE_URL is required for --migrate and --judge")
	}
	if migrate {
		return
	}
	if judgeOnly {
		if _, err := judge.ReviewRiver(ctx, db, uuid.NullUUID{}, logger); err != nil {
			logger.Fatalf("judge: %v", err)
		}
		acc, err := db.ReviewAccuracy(ctx, judge.Solver)
		if err != nil {
			logger.Fatalf("judge accuracy: %v", err)
		}
		logger.WithFields(log.Fields{"top": acc.Good, "reviewed": acc.Total, "ratio": acc.Ratio()}).Info("river accuracy")
		return
	}

	rng := engine.NewRand(cfg.RNGSeed)
	calc := equity.NewCalculator(rng, cfg.Profile.Workers)
	hero := strategy.New(cfg.Profile.Strategy, calc, rng, strategy.WithLogger(logger))
	bank := bankroll.New(cfg.Profile.Bankroll, cfg.StartingBalance, bankroll.WithLogger(logger))

	// Persister stays a nil interface when there is no database.
	var persist Persister
	if db != nil {
		persist = db
		st, ss, ok, err := db.LatestSnapshot(ctx)
		switch {
		case err != nil:
			logger.WithError(err).Warn("bankroll snapshot not restored")
		case ok:
			bank.Restore(st, ss)
			logger.WithField("balance", st.TotalBalance).Info("bankroll restored")
		}
	}

	if selfplay {
		challenger := strategy.New(cfg.Opponent.Strategy, equity.NewCalculator(rng, cfg.Opponent.Workers), rng)
		sp := &Selfplay{
			Hero:       hero,
			Challenger: challenger,
			Bankroll:   bank,
			DB:         persist,
			Log:        logger,
			Table:      engine.Config{SB: cfg.SmallBlind(), BB: cfg.BigBlind, StartStack: 100 * cfg.BigBlind},
			Pairs:      (cfg.SelfplayHands + 1) / 2,
			WinProb:    cfg.SelfplayWinProb,
			Seed:       cfg.RNGSeed,
		}
		rep, err := sp.Run(ctx)
		if err != nil {
			logger.Fatalf("self-play: %v", err)
		}
		if err := renderReport(rep, cfg.BigBlind); err != nil {
			logger.WithError(err).Error("report")
		}
		return
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      Router(&Server{Engine: hero, Calc: calc, Bankroll: bank, DB: persist, Log: logger}),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	go func() {
		<-ctx.Done()
		sctx, scancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer scancel()
		_ = srv.Shutdown(sctx)
	}()
	logger.Infof("listening on http://localhost:%s (Ctrl+C to stop)", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal(err)
	}
}

func watchSignals(cancel context.CancelFunc, logger log.FieldLogger) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
	logger.Info("stop requested")
	cancel()
}
