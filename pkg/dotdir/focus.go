package dotdir

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	focusFile = "focus.json"
)

// FocusState is the operation the CLI targets by default.
type FocusState struct {
	OperationID string    `json:"operation_id"`
	Name        string    `json:"name,omitempty"`
	FocusedAt   time.Time `json:"focused_at"`
}

// LoadFocus loads the focus state from the target .gauntlet/focus.json.
// Returns nil, nil if no operation is focused.
func (m *Manager) LoadFocus(overrideDir string) (*FocusState, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(dir, focusFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading focus state: %w", err)
	}

	state := &FocusState{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("parsing focus state: %w", err)
	}
	if state.OperationID == "" {
		return nil, nil
	}

	return state, nil
}

// SaveFocus persists the focus state to the target .gauntlet/focus.json.
func (m *Manager) SaveFocus(state *FocusState, overrideDir string) error {
	if state == nil || state.OperationID == "" {
		return errors.New("cannot save focus without an operation id")
	}

	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling focus state: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, focusFile), data, 0o600); err != nil {
		return fmt.Errorf("writing focus state: %w", err)
	}

	return nil
}

// ClearFocus removes the focus state file. Returns nil if nothing was focused.
func (m *Manager) ClearFocus(overrideDir string) error {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}

	if err := os.Remove(filepath.Join(dir, focusFile)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("removing focus state: %w", err)
	}

	return nil
}
