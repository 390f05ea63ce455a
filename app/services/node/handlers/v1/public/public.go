// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ardanlabs/msgpool/business/sys/validate"
	"github.com/ardanlabs/msgpool/business/web/errs"
	"github.com/ardanlabs/msgpool/foundation/blockchain/database"
	"github.com/ardanlabs/msgpool/foundation/blockchain/mempool"
	"github.com/ardanlabs/msgpool/foundation/blockchain/state"
	"github.com/ardanlabs/msgpool/foundation/events"
	"github.com/ardanlabs/msgpool/foundation/nameservice"
	"github.com/ardanlabs/msgpool/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of public node endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID, r.URL.Query().Get("prefix"))
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// SubmitMessage adds a signed message from a wallet to the mempool.
func (h Handlers) SubmitMessage(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var nm newMessage
	if err := web.Decode(r, &nm); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := validate.Check(nm); err != nil {
		return err
	}

	signed := toSignedMessage(nm)

	h.Log.Infow("submit message", "traceid", v.TraceID, "from:nonce", signed, "to", signed.To, "gas_limit", signed.GasLimit, "premium", signed.GasPremium)
	if err := h.State.SubmitMessage(signed); err != nil {
		if errors.Is(err, mempool.ErrReplaceByFee) {
			return errs.NewTrusted(err, http.StatusConflict)
		}
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "message added to mempool",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.Genesis(), http.StatusOK)
}

// Mempool returns the set of pending messages.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var accountID database.AccountID
	if acct := web.Param(r, "account"); acct != "" {
		var err error
		if accountID, err = h.NS.AccountID(acct); err != nil {
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
	}

	return web.Respond(ctx, w, toMsgs(h.NS, h.State.QueryMempool(accountID)), http.StatusOK)
}

// Select previews the messages the node would put in the next block.
func (h Handlers) Select(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	ts := h.State.LatestTipset()

	result, err := h.State.SelectMessages(ctx)
	if err != nil {
		return fmt.Errorf("select: %w", err)
	}

	baseFee, err := h.State.BaseFee(ctx, ts)
	if err != nil {
		return fmt.Errorf("base fee: %w", err)
	}

	sel := selection{
		Tipset:       ts.Key(),
		BaseFee:      baseFee,
		Variant:      h.State.Policy(ts).Variant,
		GasUsed:      result.GasUsed,
		GasRemaining: result.GasRemaining,
		Priority:     result.Priority,
		Chains:       result.Chains,
		Messages:     toMsgs(h.NS, result.Messages),
	}

	return web.Respond(ctx, w, sel, http.StatusOK)
}

// Accounts returns the current balances and nonces for the accounts.
func (h Handlers) Accounts(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var blkAccounts []database.Account
	switch acct := web.Param(r, "account"); acct {
	case "":
		blkAccounts = h.State.QueryAccounts()

	default:
		accountID, err := h.NS.AccountID(acct)
		if err != nil {
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
		blkAccounts = append(blkAccounts, h.State.QueryAccount(accountID))
	}

	acts := make([]info, 0, len(blkAccounts))
	for _, blkInfo := range blkAccounts {
		act := info{
			Account: blkInfo.AccountID,
			Name:    h.NS.Lookup(blkInfo.AccountID),
			Balance: blkInfo.Balance,
			Nonce:   blkInfo.Nonce,
		}
		acts = append(acts, act)
	}

	ai := actInfo{
		Tipset:   h.State.LatestTipset().Key(),
		Pending:  h.State.QueryMempoolLength(),
		Accounts: acts,
	}

	return web.Respond(ctx, w, ai, http.StatusOK)
}

// BlocksByHeight returns the blocks based on the specified from/to values.
func (h Handlers) BlocksByHeight(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	from, err := parseHeight(web.Param(r, "from"))
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	to, err := parseHeight(web.Param(r, "to"))
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if from > to {
		return errs.NewTrusted(errors.New("from greater than to"), http.StatusBadRequest)
	}

	blocks := h.State.QueryBlocksByHeight(from, to)
	if len(blocks) == 0 {
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}

	return web.Respond(ctx, w, blocks, http.StatusOK)
}

// parseHeight converts a height parameter, where latest names the head.
func parseHeight(s string) (uint64, error) {
	if s == "latest" || s == "" {
		return state.QueryLatest, nil
	}
	return strconv.ParseUint(s, 10, 64)
}
