// Package review schedules flashcard reviews ahead of a course exam and
// tracks per-card study progress.
package review

import (
	"fmt"
	"time"
)

// Strategy selects how a deployment schedules flashcards.
// The strategies are alternatives and never run together on one card.
type Strategy string

const (
	// StrategyRatio spreads up to seven review dates between creation and the
	// exam on a back-loaded curve whose last date is the exam itself.
	StrategyRatio Strategy = "ratio"
	// StrategyFixed uses fixed day offsets from creation.
	StrategyFixed Strategy = "fixed"
	// StrategyDynamic keeps a single next study date that moves on every review.
	StrategyDynamic Strategy = "dynamic"
)

// ParseStrategy maps a configuration value to a Strategy. Empty selects StrategyRatio.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "":
		return StrategyRatio, nil
	case StrategyRatio, StrategyFixed, StrategyDynamic:
		return Strategy(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
	}
}

// UsesReviewDates reports whether the strategy is driven by the precomputed review dates.
func (s Strategy) UsesReviewDates() bool {
	return s != StrategyDynamic
}

// Config contains configuration for the tracker.
type Config struct {
	Strategy Strategy
	// Location is the canonical timezone for every calendar date. Nil means UTC.
	Location *time.Location
	// PageSize bounds each store read of the due-today scan.
	PageSize int
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// DefaultConfig returns the default tracker configuration.
func DefaultConfig() Config {
	return Config{
		Strategy: StrategyRatio,
		Location: time.UTC,
		PageSize: 200,
	}
}

// Stats summarizes a user's study progress for the current day.
type Stats struct {
	TotalCards    int    `json:"total_cards"`
	DueToday      int    `json:"due_today"`
	ReviewedToday int    `json:"reviewed_today"`
	Date          string `json:"date"`
}
