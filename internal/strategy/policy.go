package strategy

import (
	"fmt"
	"time"

	"SignalSentinel/internal/model"
)

// Policy holds the admission thresholds.
type Policy struct {
	MinPrimary int           `yaml:"min_primary"`
	MinTotal   int           `yaml:"min_total"`
	MinScore   int           `yaml:"min_score"`
	Cooldown   time.Duration `yaml:"cooldown"`
	MinHistory int           `yaml:"min_history"`
}

// DefaultPolicy returns the stock thresholds.
func DefaultPolicy() Policy {
	return Policy{
		MinPrimary: 1,
		MinTotal:   4,
		MinScore:   60,
		Cooldown:   5 * time.Minute,
		MinHistory: 25,
	}
}

// Verdict is the outcome of an admission check.
type Verdict struct {
	Admitted bool
	Score    int
	Primary  int
	Total    int
	Reason   string
}

// Validate scores tags and applies the admission floors. Every occurrence
// counts; callers de-duplicate only for display.
func (p Policy) Validate(w Weights, direction model.Direction, tags []model.Tag) Verdict {
	v := Verdict{
		Score:   w.Score(tags),
		Primary: CountPrimary(tags),
		Total:   len(tags),
	}
	switch {
	case direction == model.DirectionNone:
		v.Reason = "no directional break"
	case v.Primary < p.MinPrimary:
		v.Reason = fmt.Sprintf("primary confirmations %d < %d", v.Primary, p.MinPrimary)
	case v.Total < p.MinTotal:
		v.Reason = fmt.Sprintf("total confirmations %d < %d", v.Total, p.MinTotal)
	case v.Score < p.MinScore:
		v.Reason = fmt.Sprintf("confidence %d < %d", v.Score, p.MinScore)
	default:
		v.Admitted = true
	}
	return v
}

// CooledDown reports whether enough time has passed since last. A zero last
// means the symbol never signalled.
func (p Policy) CooledDown(last, now time.Time) bool {
	return last.IsZero() || now.Sub(last) >= p.Cooldown
}
