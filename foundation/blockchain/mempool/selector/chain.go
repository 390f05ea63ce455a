package selector

import (
	"math/big"

	"github.com/ardanlabs/msgpool/foundation/blockchain/database"
)

// none marks a missing link between chains.
const none = -1

// chainNode is a segment of a sender's run of messages. The messages of a
// node have consecutive nonces and the density of the nodes of one sender
// strictly decreases from the first node to the last.
type chainNode struct {
	sender       database.AccountID
	nonce        uint64
	msgs         []database.SignedMessage
	rewards      []*big.Int
	gasReward    *big.Int
	gasLimit     uint64
	gasPerf      float64
	effPerf      float64
	bp           float64
	parentOffset float64
	valid        bool
	merged       bool
	prev         int
	next         int
}

// chains holds the nodes of every sender in one arena. Links between the
// nodes of a sender are indexes into the arena.
type chains struct {
	nodes []chainNode
}

func newChains() *chains {
	return &chains{}
}

// add builds the nodes for the sender's run. Each message starts a node of
// its own and a node is folded into the node before it for as long as its
// density is not lower than that node's density.
func (cs *chains) add(sender database.AccountID, run []candidate) []int {
	var stack []chainNode

	for _, cand := range run {
		node := chainNode{
			sender:    sender,
			nonce:     cand.msg.Nonce,
			gasReward: new(big.Int),
			valid:     true,
			prev:      none,
			next:      none,
		}
		node.push(cand.msg, cand.reward)
		stack = append(stack, node)

		for len(stack) > 1 {
			top, below := &stack[len(stack)-1], &stack[len(stack)-2]
			if cmpDensity(top.gasReward, top.gasLimit, below.gasReward, below.gasLimit) < 0 {
				break
			}
			below.absorb(top)
			stack = stack[:len(stack)-1]
		}
	}

	idxs := make([]int, len(stack))
	for i := range stack {
		idx := len(cs.nodes)
		if i > 0 {
			stack[i].prev = idx - 1
			cs.nodes[idx-1].next = idx
		}
		stack[i].gasPerf = density(stack[i].gasReward, stack[i].gasLimit)
		cs.nodes = append(cs.nodes, stack[i])
		idxs[i] = idx
	}

	return idxs
}

// push appends a message to the tail of the node.
func (n *chainNode) push(msg database.SignedMessage, reward *big.Int) {
	n.msgs = append(n.msgs, msg)
	n.rewards = append(n.rewards, reward)
	n.gasReward.Add(n.gasReward, reward)
	n.gasLimit += msg.GasLimit
}

// absorb appends the messages of the node that follows this one.
func (n *chainNode) absorb(other *chainNode) {
	for i, msg := range other.msgs {
		n.push(msg, other.rewards[i])
	}
}

// =============================================================================

// trim removes messages from the tail of the node until it fits the budget
// and, unless negative rewards are allowed, the reward is not negative. A
// node trimmed to nothing is invalid. The nodes that follow are always
// invalidated since they depend on the messages that were removed.
func (cs *chains) trim(idx int, budget uint64, allowNegative bool) {
	node := &cs.nodes[idx]

	i := len(node.msgs) - 1
	for i >= 0 && (node.gasLimit > budget || (!allowNegative && node.gasReward.Sign() < 0)) {
		node.gasReward = new(big.Int).Sub(node.gasReward, node.rewards[i])
		node.gasLimit -= node.msgs[i].GasLimit

		switch {
		case node.gasLimit > 0:
			node.gasPerf = density(node.gasReward, node.gasLimit)
			if node.bp != 0 {
				cs.setEffPerf(idx)
			}
		default:
			node.gasPerf = 0
			node.effPerf = 0
		}

		i--
	}

	if i < 0 {
		node.msgs = nil
		node.rewards = nil
		node.valid = false
	} else {
		node.msgs = node.msgs[:i+1]
		node.rewards = node.rewards[:i+1]
	}

	if node.next != none {
		cs.invalidate(node.next)
		node.next = none
	}
}

// invalidate marks the node and every node that follows it as unusable.
func (cs *chains) invalidate(idx int) {
	for idx != none {
		node := &cs.nodes[idx]
		node.valid = false
		node.msgs = nil
		node.rewards = nil

		next := node.next
		node.next = none
		idx = next
	}
}

// dependencies returns the nodes before this one that have not been merged
// yet, oldest first. The boolean is false when one of them is invalid.
func (cs *chains) dependencies(idx int) ([]int, bool) {
	var deps []int
	for prev := cs.nodes[idx].prev; prev != none && !cs.nodes[prev].merged; prev = cs.nodes[prev].prev {
		if !cs.nodes[prev].valid {
			return nil, false
		}
		deps = append(deps, prev)
	}

	for i, j := 0, len(deps)-1; i < j; i, j = i+1, j-1 {
		deps[i], deps[j] = deps[j], deps[i]
	}

	return deps, true
}

// =============================================================================

// setEffectivePerf scales the node's density by the probability of it being
// included in a block.
func (cs *chains) setEffectivePerf(idx int, bp float64) {
	cs.nodes[idx].bp = bp
	cs.setEffPerf(idx)
}

// setEffPerf computes the effective density. A node that depends on an
// unmerged node is penalized by blending its density with the parent's,
// weighted by gas. The penalty is kept in parentOffset so it can be handed
// back once the parent is merged.
func (cs *chains) setEffPerf(idx int) {
	node := &cs.nodes[idx]

	effPerf := node.gasPerf * node.bp
	node.parentOffset = 0

	if effPerf > 0 && node.prev != none && !cs.nodes[node.prev].merged {
		prev := &cs.nodes[node.prev]
		withParent := (effPerf*float64(node.gasLimit) + prev.effPerf*float64(prev.gasLimit)) / float64(node.gasLimit+prev.gasLimit)
		node.parentOffset = effPerf - withParent
		effPerf = withParent
	}

	node.effPerf = effPerf
}

// setNullEffectivePerf is used for nodes that didn't land in any block of
// the partition.
func (cs *chains) setNullEffectivePerf(idx int) {
	node := &cs.nodes[idx]

	node.bp = 0
	node.parentOffset = 0

	switch {
	case node.gasPerf < 0:
		node.effPerf = node.gasPerf
	default:
		node.effPerf = 0
	}
}

// carry hands the parent penalty back to the node that follows a merged
// node and recomputes the effective density of the nodes after it.
func (cs *chains) carry(idx int) {
	next := cs.nodes[idx].next
	if next == none || cs.nodes[next].effPerf <= 0 {
		return
	}

	node := &cs.nodes[next]
	node.effPerf += node.parentOffset
	node.parentOffset = 0

	for next = node.next; next != none && cs.nodes[next].effPerf > 0; next = cs.nodes[next].next {
		cs.setEffPerf(next)
	}
}
