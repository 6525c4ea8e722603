package botstate

import (
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"

	"SignalSentinel/internal/model"
)

// LoadState reads the bot state from a JSON file. Returns a zero state if the file doesn't exist.
func LoadState(filePath string) (*model.BotState, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &model.BotState{}, nil
		}
		return nil, err
	}
	var state model.BotState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// SaveState writes the bot state to a JSON file, creating its directory.
func SaveState(filePath string, state *model.BotState) error {
	state.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(filePath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(filePath, data, 0644)
}
