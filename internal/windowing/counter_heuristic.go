package windowing

import (
	"unicode/utf8"

	"github.com/petasbytes/go-chat/internal/provider"
)

// TokenCounter estimates input-token cost for messages or groups.
type TokenCounter interface {
	CountMessage(m provider.Message) int
	CountGroup(g Group, all []provider.Message) int
}

// HeuristicCounter is a deterministic estimator: rune count of the content
// plus a fixed per-message overhead for role framing.
type HeuristicCounter struct{}

// Fixed per-message overhead; changing this requires updating the guard test.
const messageOverhead = 4

func (HeuristicCounter) CountMessage(m provider.Message) int {
	return utf8.RuneCountInString(m.Content) + messageOverhead
}

func (h HeuristicCounter) CountGroup(g Group, all []provider.Message) int {
	total := 0
	for i := g.Start; i < g.End && i < len(all); i++ {
		total += h.CountMessage(all[i])
	}
	return total
}
