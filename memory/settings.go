package memory

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/petasbytes/go-chat/internal/fsops"
)

// DefaultSettingsFile is the settings path used when none is configured.
const DefaultSettingsFile = "chat_settings.json"

// Settings is the on-disk preference record.
type Settings struct {
	ContextEnabled bool      `json:"context_enabled"`
	LastUpdated    Timestamp `json:"last_updated"`
}

// settingsFile decodes a settings record while telling an absent
// context_enabled key apart from an explicit false. last_updated is
// informational and never parsed on read.
type settingsFile struct {
	ContextEnabled *bool           `json:"context_enabled"`
	LastUpdated    json.RawMessage `json:"last_updated"`
}

// SettingsStore reads and writes the context persistence preference.
type SettingsStore struct {
	path string
	now  func() time.Time
}

// NewSettingsStore returns a store for path. An empty path selects
// DefaultSettingsFile.
func NewSettingsStore(path string) *SettingsStore {
	if path == "" {
		path = DefaultSettingsFile
	}
	return &SettingsStore{path: path, now: time.Now}
}

// Path returns the settings file location.
func (s *SettingsStore) Path() string { return s.path }

// Load reports whether context persistence is enabled. It defaults to true
// when the file is absent (nil error) or unreadable (non-nil error).
func (s *SettingsStore) Load() (bool, error) {
	var f settingsFile
	if err := fsops.ReadJSON(s.path, &f); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return true, nil
		}
		return true, fmt.Errorf("settings: load: %w", err)
	}
	if f.ContextEnabled == nil {
		return true, nil
	}
	return *f.ContextEnabled, nil
}

// Save overwrites the settings file with enabled and the current time.
func (s *SettingsStore) Save(enabled bool) error {
	rec := Settings{ContextEnabled: enabled, LastUpdated: Timestamp{s.now()}}
	if err := fsops.WriteJSON(s.path, rec); err != nil {
		return fmt.Errorf("settings: save: %w", err)
	}
	return nil
}
