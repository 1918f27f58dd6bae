package telemetry

import (
	"context"
	"strings"
	"unicode/utf8"
)

// Features holds size measurements of a piece of text.
type Features struct {
	Bytes int
	Runes int
	Words int
	Lines int
}

// CountFeatures measures s. Words split on Unicode whitespace; lines are 0 for
// the empty string, otherwise 1 plus the number of '\n'.
func CountFeatures(s string) Features {
	f := Features{
		Bytes: len(s),
		Runes: utf8.RuneCountInString(s),
		Words: len(strings.Fields(s)),
	}
	if s != "" {
		f.Lines = 1 + strings.Count(s, "\n")
	}
	return f
}

func (f Features) fields() map[string]any {
	return map[string]any{
		"bytes": f.Bytes,
		"runes": f.Runes,
		"words": f.Words,
		"lines": f.Lines,
	}
}

// EmitLocalFeatures records text measurements for a finished turn.
func EmitLocalFeatures(ctx context.Context, user, assistant string, historyLen int) {
	if !ObserveEnabled() {
		return
	}
	turnID, _ := TurnIDFromContext(ctx)
	Emit("local_features", map[string]any{
		"turn_id":          turnID,
		"features_version": "2",
		"history_len":      historyLen,
		"user":             CountFeatures(user).fields(),
		"assistant":        CountFeatures(assistant).fields(),
	})
}
