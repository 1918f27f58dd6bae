package fsops

import (
	"encoding/json"
	"fmt"
	"os"
)

// ReadJSON decodes the whole file at path into v.
// A missing file returns an error that satisfies errors.Is(err, os.ErrNotExist).
func ReadJSON(path string, v any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
