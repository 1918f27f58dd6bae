package windowing

import "github.com/petasbytes/go-chat/internal/provider"

// GroupKind denotes the atomic unit type when preparing a send window.
type GroupKind int

const (
	GroupSingleton GroupKind = iota
	GroupPair
	GroupPinned
)

// Group describes a contiguous span of messages [Start, End) in the original slice.
type Group struct {
	Kind  GroupKind
	Start int // inclusive
	End   int // exclusive
}

// GroupMessages splits msgs into atomic units: one pinned group per leading
// system message, then user→assistant pairs, with anything else a singleton.
func GroupMessages(msgs []provider.Message) []Group {
	groups := make([]Group, 0, len(msgs))
	i := 0
	for ; i < len(msgs) && msgs[i].Role == provider.RoleSystem; i++ {
		groups = append(groups, Group{Kind: GroupPinned, Start: i, End: i + 1})
	}
	for i < len(msgs) {
		if msgs[i].Role == provider.RoleUser && i+1 < len(msgs) && msgs[i+1].Role == provider.RoleAssistant {
			groups = append(groups, Group{Kind: GroupPair, Start: i, End: i + 2})
			i += 2
			continue
		}
		groups = append(groups, Group{Kind: GroupSingleton, Start: i, End: i + 1})
		i++
	}
	return groups
}
