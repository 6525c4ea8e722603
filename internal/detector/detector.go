// Package detector implements the stateless-per-call pattern analyzers.
package detector

import (
	"errors"
	"fmt"
	"time"

	"SignalSentinel/internal/model"
)

// ErrInsufficientHistory is returned when a detector has fewer bars than it needs.
var ErrInsufficientHistory = errors.New("insufficient history")

// Input is the per-tick view a detector evaluates.
type Input struct {
	Symbol string
	Bars   []model.Bar
	Price  float64
	Now    time.Time

	// Blocks is the symbol's order-block inventory. Only OrderBlocks mutates it.
	Blocks *OrderBlockBook

	// Structure context from the trackers for this tick.
	Direction    model.Direction
	SwingBias    model.Bias
	InternalBias model.Bias
}

// Result carries the tags a detector triggered.
type Result struct {
	Tags []model.Tag
}

func (r *Result) add(t model.Tag) { r.Tags = append(r.Tags, t) }

// Detector evaluates one family of patterns.
type Detector interface {
	Name() string
	Detect(in *Input) (Result, error)
}

// Defaults returns the standard detector set in evaluation order.
func Defaults() []Detector {
	return []Detector{
		OrderBlocks{},
		FairValueGaps{},
		EqualLevels{},
		Zones{},
		Confluence{},
	}
}

func requireBars(name string, in *Input, n int) error {
	if len(in.Bars) < n {
		return fmt.Errorf("%w: %s needs %d bars, have %d", ErrInsufficientHistory, name, n, len(in.Bars))
	}
	return nil
}
