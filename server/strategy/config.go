package strategy

import (
	"errors"
	"fmt"
)

// Config holds the postflop thresholds, bet sizing ratios, bluff
// frequencies and per-street sample counts.
type Config struct {
	PremiumHandEquity float64 `yaml:"premium_hand_equity"`
	StrongHandEquity  float64 `yaml:"strong_hand_equity"`
	MinPlayableEquity float64 `yaml:"min_playable_equity"`
	ValueBetRatio     float64 `yaml:"value_bet_ratio"`
	PotBetRatio       float64 `yaml:"pot_bet_ratio"`
	SemiBluffProb     float64 `yaml:"semi_bluff_prob"`
	BluffProb         float64 `yaml:"bluff_prob"`
	BluffRaiseProb    float64 `yaml:"bluff_raise_prob"`
	FlopSamples       int     `yaml:"flop_samples"`
	TurnSamples       int     `yaml:"turn_samples"`
	RiverSamples      int     `yaml:"river_samples"`
	// ExactRiver enumerates river equity instead of sampling it.
	ExactRiver bool `yaml:"exact_river"`
}

func DefaultConfig() Config {
	return Config{
		PremiumHandEquity: 0.80,
		StrongHandEquity:  0.65,
		MinPlayableEquity: 0.45,
		ValueBetRatio:     0.75,
		PotBetRatio:       0.66,
		SemiBluffProb:     0.15,
		BluffProb:         0.10,
		BluffRaiseProb:    0.05,
		FlopSamples:       500,
		TurnSamples:       750,
		RiverSamples:      1000,
		ExactRiver:        true,
	}
}

func (c Config) Validate() error {
	var errs []error
	if !(0 < c.MinPlayableEquity && c.MinPlayableEquity < c.StrongHandEquity &&
		c.StrongHandEquity < c.PremiumHandEquity && c.PremiumHandEquity <= 1) {
		errs = append(errs, fmt.Errorf("equity thresholds must satisfy 0 < playable < strong < premium <= 1, got %.2f/%.2f/%.2f",
			c.MinPlayableEquity, c.StrongHandEquity, c.PremiumHandEquity))
	}
	for name, p := range map[string]float64{
		"semi_bluff_prob": c.SemiBluffProb, "bluff_prob": c.BluffProb, "bluff_raise_prob": c.BluffRaiseProb,
	} {
		if p < 0 || p > 1 {
			errs = append(errs, fmt.Errorf("%s must be in [0,1], got %v", name, p))
		}
	}
	if c.ValueBetRatio <= 0 || c.PotBetRatio <= 0 {
		errs = append(errs, fmt.Errorf("bet ratios must be positive"))
	}
	if c.FlopSamples <= 0 || c.TurnSamples <= 0 || c.RiverSamples <= 0 {
		errs = append(errs, fmt.Errorf("sample counts must be positive"))
	}
	return errors.Join(errs...)
}
