package memory

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/petasbytes/go-chat/internal/fsops"
)

const (
	// DefaultContextFile is the context path used when none is configured.
	DefaultContextFile = "chat_context.json"
	// DefaultMaxExchanges is the persisted window size.
	DefaultMaxExchanges = 50
)

// Record is the on-disk context record.
type Record struct {
	History     History   `json:"history"`
	LastUpdated Timestamp `json:"last_updated"`
}

// recordFile is the read side of Record. last_updated is informational and
// never parsed, so an unfamiliar timestamp cannot discard a valid history.
type recordFile struct {
	History     History         `json:"history"`
	LastUpdated json.RawMessage `json:"last_updated"`
}

// ContextStore persists the most recent exchanges, gated by SettingsStore.
type ContextStore struct {
	path     string
	settings *SettingsStore
	max      int
	now      func() time.Time
}

// NewContextStore returns a store writing to path. maxExchanges <= 0 selects
// DefaultMaxExchanges.
func NewContextStore(path string, settings *SettingsStore, maxExchanges int) *ContextStore {
	if path == "" {
		path = DefaultContextFile
	}
	if maxExchanges <= 0 {
		maxExchanges = DefaultMaxExchanges
	}
	return &ContextStore{path: path, settings: settings, max: maxExchanges, now: time.Now}
}

// Path returns the context file location.
func (c *ContextStore) Path() string { return c.path }

// MaxExchanges returns the window size applied on Save.
func (c *ContextStore) MaxExchanges() int { return c.max }

// Load returns the persisted History. When persistence is disabled the file is
// not read. Absent or corrupt files yield an empty History; corruption is
// reported through the error. Loaded history is not re-truncated.
func (c *ContextStore) Load() (History, error) {
	enabled, settingsErr := c.settings.Load()
	if !enabled {
		return History{}, settingsErr
	}

	var rec recordFile
	if err := fsops.ReadJSON(c.path, &rec); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return History{}, settingsErr
		}
		return History{}, errors.Join(settingsErr, fmt.Errorf("context: load: %w", err))
	}
	if rec.History == nil {
		rec.History = History{}
	}
	return rec.History, settingsErr
}

// Save writes the newest MaxExchanges successful exchanges of h, replacing
// the file. Nothing is written while persistence is disabled.
func (c *ContextStore) Save(h History) error {
	enabled, settingsErr := c.settings.Load()
	if !enabled {
		return settingsErr
	}

	rec := Record{History: h.Persistable().Last(c.max), LastUpdated: Timestamp{c.now()}}
	if err := fsops.WriteJSON(c.path, rec); err != nil {
		return errors.Join(settingsErr, fmt.Errorf("context: save: %w", err))
	}
	return settingsErr
}

// Clear deletes the context file if it exists. It does not consult settings;
// callers decide when clearing applies.
func (c *ContextStore) Clear() error {
	if err := fsops.Remove(c.path); err != nil {
		return fmt.Errorf("context: clear: %w", err)
	}
	return nil
}
