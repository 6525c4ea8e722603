package model

import "time"

// BotSettings is the operator-chosen scan configuration.
type BotSettings struct {
	Market          MarketKind `json:"market" yaml:"market" validate:"required,oneof=crypto forex"`
	Symbols         []string   `json:"symbols" yaml:"symbols" validate:"required,min=1,dive,required"`
	Timeframes      []string   `json:"timeframes" yaml:"timeframes" validate:"required,min=1,dive,oneof=1m 3m 5m 15m 30m 1h 4h 1d"`
	RiskRewardRatio float64    `json:"risk_reward_ratio" yaml:"risk_reward_ratio" validate:"gte=1,lte=10"`
}

// BotState tracks whether scanning is active and with which settings.
type BotState struct {
	Running      bool        `json:"running"`
	Settings     BotSettings `json:"settings"`
	TicksRun     int         `json:"ticks_run"`
	SignalsTotal int         `json:"signals_total"`
	LastTickAt   time.Time   `json:"last_tick_at"`
	StartedAt    time.Time   `json:"started_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}
