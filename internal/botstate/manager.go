// Package botstate holds the start/stop/configure control surface of the scanner.
package botstate

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"SignalSentinel/internal/model"
)

var (
	ErrAlreadyRunning  = errors.New("bot is already running")
	ErrNotRunning      = errors.New("bot is not running")
	ErrInvalidSettings = errors.New("invalid bot settings")
)

// Manager tracks whether scanning is enabled and with which settings.
// State is persisted after every change.
type Manager struct {
	mu       sync.Mutex
	state    *model.BotState
	filePath string
	validate *validator.Validate
	now      func() time.Time
}

// NewManager creates a Manager, loading or initializing state from disk.
// Defaults apply only when no settings were persisted.
func NewManager(filePath string, defaults model.BotSettings) (*Manager, error) {
	state, err := LoadState(filePath)
	if err != nil {
		return nil, fmt.Errorf("load bot state: %w", err)
	}
	m := &Manager{state: state, filePath: filePath, validate: validator.New(), now: time.Now}

	if len(state.Settings.Symbols) == 0 {
		if err := m.validate.Struct(defaults); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
		}
		state.Settings = cloneSettings(defaults)
	}
	if err := m.save(); err != nil {
		return nil, err
	}
	return m, nil
}

func cloneSettings(s model.BotSettings) model.BotSettings {
	s.Symbols = append([]string(nil), s.Symbols...)
	s.Timeframes = append([]string(nil), s.Timeframes...)
	return s
}

func cloneState(s *model.BotState) model.BotState {
	out := *s
	out.Settings = cloneSettings(s.Settings)
	return out
}

// GetState returns a copy of the current state.
func (m *Manager) GetState() model.BotState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneState(m.state)
}

// Running reports whether scanning is enabled.
func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Running
}

// Start enables scanning.
func (m *Manager) Start() (model.BotState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Running {
		return cloneState(m.state), ErrAlreadyRunning
	}
	m.state.Running = true
	m.state.StartedAt = m.now().UTC()
	m.persist("start")
	return cloneState(m.state), nil
}

// Stop disables scanning.
func (m *Manager) Stop() (model.BotState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.state.Running {
		return cloneState(m.state), ErrNotRunning
	}
	m.state.Running = false
	m.persist("stop")
	return cloneState(m.state), nil
}

// Configure validates and replaces the scan settings. It takes effect on the next tick.
func (m *Manager) Configure(s model.BotSettings) (model.BotState, error) {
	if err := m.validate.Struct(s); err != nil {
		return m.GetState(), fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Settings = cloneSettings(s)
	m.persist("configure")
	return cloneState(m.state), nil
}

// RecordTick counts a completed scan and the signals it produced.
func (m *Manager) RecordTick(signals int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.TicksRun++
	m.state.SignalsTotal += signals
	m.state.LastTickAt = m.now().UTC()
	m.persist("tick")
}

func (m *Manager) persist(op string) {
	if err := m.save(); err != nil {
		log.Error().Str("component", "botstate").Str("op", op).Err(err).Msg("failed to save bot state")
	}
}

func (m *Manager) save() error {
	return SaveState(m.filePath, m.state)
}
