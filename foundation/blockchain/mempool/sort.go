package mempool

import "github.com/ardanlabs/msgpool/foundation/blockchain/database"

// bySenderNonce provides sorting support by sender and then nonce so the
// pool can be listed in a stable order.
type bySenderNonce []database.SignedMessage

// Len returns the number of messages in the list.
func (bs bySenderNonce) Len() int {
	return len(bs)
}

// Less helps to sort the list by sender and then by nonce in ascending
// order to keep the messages in the right order of processing.
func (bs bySenderNonce) Less(i, j int) bool {
	si, sj := bs[i].Sender(), bs[j].Sender()
	if si != sj {
		return si.Less(sj)
	}
	return bs[i].Nonce < bs[j].Nonce
}

// Swap moves messages in the order of the sender and nonce values.
func (bs bySenderNonce) Swap(i, j int) {
	bs[i], bs[j] = bs[j], bs[i]
}
