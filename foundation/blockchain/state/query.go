package state

import (
	"sort"

	"github.com/ardanlabs/msgpool/foundation/blockchain/database"
)

// QueryLatest represents to query the latest block in the chain.
const QueryLatest = ^uint64(0) >> 1

// =============================================================================

// LatestTipset returns the head of the chain.
func (s *State) LatestTipset() database.Tipset {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.latest
}

// QueryAccount returns a copy of the account information.
func (s *State) QueryAccount(accountID database.AccountID) database.Account {
	return s.accounts.Query(accountID)
}

// QueryAccounts returns a copy of all the accounts, sorted by account.
func (s *State) QueryAccounts() []database.Account {
	accts := s.accounts.Copy()

	out := make([]database.Account, 0, len(accts))
	for _, info := range accts {
		out = append(out, info)
	}
	sort.Sort(database.ByAccount(out))

	return out
}

// QueryMempoolLength returns the current length of the mempool.
func (s *State) QueryMempoolLength() int {
	return s.mempool.Count()
}

// QueryMempool returns a copy of the messages in the pool. If the account
// is not empty, only the messages sent by the account are returned.
func (s *State) QueryMempool(accountID database.AccountID) []database.SignedMessage {
	msgs := s.mempool.Copy()
	if accountID == "" {
		return msgs
	}

	accountID = accountID.Canonical()

	var out []database.SignedMessage
	for _, msg := range msgs {
		if msg.Sender() == accountID {
			out = append(out, msg)
		}
	}
	return out
}

// QueryBlocksByHeight returns the set of blocks based on block heights.
func (s *State) QueryBlocksByHeight(from uint64, to uint64) []database.BlockData {
	latest := s.LatestTipset().Height
	if from == QueryLatest {
		from = latest
		to = from
	}
	if to == QueryLatest || to > latest {
		to = latest
	}
	if from == 0 {
		from = 1
	}

	var out []database.BlockData
	for i := from; i <= to; i++ {
		blockData, err := s.storage.GetBlock(i)
		if err != nil {
			s.evHandler("state: QueryBlocksByHeight: ERROR: %s", err)
			return nil
		}
		out = append(out, blockData)
	}

	return out
}
