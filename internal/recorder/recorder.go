package recorder

import (
	"time"

	"SignalSentinel/internal/model"
)

// Rejection records a tick that had a direction but did not produce a signal.
type Rejection struct {
	Symbol    string
	Timeframe string
	Direction model.Direction
	Score     int
	Reason    string
	Tags      []model.Tag
	Time      time.Time
}

// Recorder persists emitted signals and rejected candidates.
type Recorder interface {
	RecordSignal(sig *model.Signal) error
	RecordRejection(rej *Rejection) error
	// RecentSignals returns the newest signals first. An empty symbol matches all.
	RecentSignals(symbol string, limit int) ([]model.Signal, error)
	Close() error
}
