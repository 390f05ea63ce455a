package selector

import "sort"

// selectPriority gives the priority accounts first claim on the block. Their
// runs are removed from the candidate set and merged ahead of every other
// sender, even when the reward is negative.
func (sel *selection) selectPriority(cands candidateSet) {
	if len(sel.policy.PriorityAccounts) == 0 {
		return
	}

	cs := newChains()
	for _, account := range sortedAccounts(sel.policy.PriorityAccounts) {
		run, exists := cands[account]
		if !exists {
			continue
		}
		delete(cands, account)
		cs.add(account, run)
	}

	if len(cs.nodes) == 0 {
		return
	}
	sel.chains += len(cs.nodes)

	order := cs.order()
	sort.Sort(byDensity{cs: cs, order: order})

	sel.mergeAndTrim(cs, order, true, false)
}
