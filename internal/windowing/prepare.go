package windowing

import "github.com/petasbytes/go-chat/internal/provider"

// Stats summarizes the result of window preparation.
//
// Fields:
// - Total: estimated tokens for included groups only.
// - Budget: the input token budget used (≤ 0 means unlimited).
// - IncludedGroups / SkippedGroups: group counts kept and dropped.
// - OverBudgetNewest: pinned groups plus the newest group alone exceed Budget.
type Stats struct {
	Total            int
	Budget           int
	IncludedGroups   int
	SkippedGroups    int
	OverBudgetNewest bool
}

// PrepareSendWindow returns the messages to send, oldest→newest, without
// splitting groups. Pinned system messages and the newest group are always
// included; older groups are added newest→oldest while the total fits budget.
func PrepareSendWindow(msgs []provider.Message, budget int, c TokenCounter) ([]provider.Message, Stats) {
	if len(msgs) == 0 {
		return nil, Stats{Budget: budget}
	}

	groups := GroupMessages(msgs)
	costs := make([]int, len(groups))
	all := 0
	for i, g := range groups {
		costs[i] = c.CountGroup(g, msgs)
		all += costs[i]
	}

	if budget <= 0 {
		return msgs, Stats{Total: all, Budget: budget, IncludedGroups: len(groups)}
	}

	pinned := 0
	total := 0
	for pinned < len(groups) && groups[pinned].Kind == GroupPinned {
		total += costs[pinned]
		pinned++
	}
	if pinned == len(groups) {
		return msgs, Stats{Total: total, Budget: budget, IncludedGroups: len(groups), OverBudgetNewest: total > budget}
	}

	newest := len(groups) - 1
	total += costs[newest]
	included := pinned + 1
	startIdx := newest
	over := total > budget

	if !over {
		for gi := newest - 1; gi >= pinned; gi-- {
			if total+costs[gi] > budget {
				break
			}
			total += costs[gi]
			included++
			startIdx = gi
		}
	}

	window := make([]provider.Message, 0, len(msgs))
	if pinned > 0 {
		window = append(window, msgs[:groups[pinned-1].End]...)
	}
	window = append(window, msgs[groups[startIdx].Start:]...)

	return window, Stats{
		Total:            total,
		Budget:           budget,
		IncludedGroups:   included,
		SkippedGroups:    len(groups) - included,
		OverBudgetNewest: over,
	}
}
