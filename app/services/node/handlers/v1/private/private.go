// Package private maintains the group of handlers for operator access.
package private

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/ardanlabs/msgpool/business/web/errs"
	"github.com/ardanlabs/msgpool/foundation/blockchain/database"
	"github.com/ardanlabs/msgpool/foundation/blockchain/mempool/selector"
	"github.com/ardanlabs/msgpool/foundation/blockchain/state"
	"github.com/ardanlabs/msgpool/foundation/web"
	"github.com/holiman/uint256"
	"go.uber.org/zap"
)

// Handlers manages the set of operator endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
}

// Status returns the current status of the node.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	ts := h.State.LatestTipset()

	baseFee, err := h.State.BaseFee(ctx, ts)
	if err != nil {
		return fmt.Errorf("base fee: %w", err)
	}

	status := struct {
		Host    string           `json:"host"`
		Height  uint64           `json:"height"`
		Tipset  string           `json:"tipset"`
		BaseFee *uint256.Int     `json:"base_fee"`
		Pending int              `json:"pending"`
		Variant selector.Variant `json:"variant"`
	}{
		Host:    h.State.Host(),
		Height:  ts.Height,
		Tipset:  ts.Key(),
		BaseFee: baseFee,
		Pending: h.State.QueryMempoolLength(),
		Variant: h.State.Policy(ts).Variant,
	}

	return web.Respond(ctx, w, status, http.StatusOK)
}

// ProduceBlock selects the messages for a block and applies it right away.
func (h Handlers) ProduceBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	block, err := h.State.ProduceBlock(ctx)
	if err != nil {
		if errors.Is(err, state.ErrNoMessages) {
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
		return fmt.Errorf("produce: %w", err)
	}

	h.Log.Infow("produce block", "traceid", v.TraceID, "height", block.Header.Height, "messages", len(block.Values()), "gas_used", block.Header.GasUsed)

	return web.Respond(ctx, w, database.NewBlockData(block), http.StatusOK)
}

// SignalProduce asks the worker to produce a block in the background.
func (h Handlers) SignalProduce(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if h.State.Worker == nil {
		return errs.NewTrusted(errors.New("block production is not running"), http.StatusServiceUnavailable)
	}

	h.State.Worker.SignalStartProducing()

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "production signaled",
	}

	return web.Respond(ctx, w, resp, http.StatusAccepted)
}

// Truncate resets the chain back to the genesis.
func (h Handlers) Truncate(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if err := h.State.Truncate(); err != nil {
		return fmt.Errorf("truncate: %w", err)
	}

	return web.Respond(ctx, w, nil, http.StatusNoContent)
}
