// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/ardanlabs/msgpool/app/services/node/handlers/v1/private"
	"github.com/ardanlabs/msgpool/app/services/node/handlers/v1/public"
	"github.com/ardanlabs/msgpool/foundation/blockchain/state"
	"github.com/ardanlabs/msgpool/foundation/events"
	"github.com/ardanlabs/msgpool/foundation/nameservice"
	"github.com/ardanlabs/msgpool/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
	Evts  *events.Events
}

// PublicRoutes binds all the version 1 public routes.
func PublicRoutes(app *web.App, cfg Config) {
	pbl := public.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		NS:    cfg.NS,
		WS:    websocket.Upgrader{},
		Evts:  cfg.Evts,
	}

	app.Handle(http.MethodGet, version, "/events", pbl.Events)
	app.Handle(http.MethodGet, version, "/genesis/list", pbl.Genesis)
	app.Handle(http.MethodGet, version, "/accounts/list", pbl.Accounts)
	app.Handle(http.MethodGet, version, "/accounts/list/:account", pbl.Accounts)
	app.Handle(http.MethodGet, version, "/blocks/list/:from/:to", pbl.BlocksByHeight)
	app.Handle(http.MethodGet, version, "/msg/pending/list", pbl.Mempool)
	app.Handle(http.MethodGet, version, "/msg/pending/list/:account", pbl.Mempool)
	app.Handle(http.MethodGet, version, "/msg/select", pbl.Select)
	app.Handle(http.MethodPost, version, "/msg/submit", pbl.SubmitMessage)
}

// PrivateRoutes binds all the version 1 private routes.
func PrivateRoutes(app *web.App, cfg Config) {
	prv := private.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
	}

	app.Handle(http.MethodGet, version, "/node/status", prv.Status)
	app.Handle(http.MethodPost, version, "/node/block/produce", prv.ProduceBlock)
	app.Handle(http.MethodPost, version, "/node/block/signal", prv.SignalProduce)
	app.Handle(http.MethodPost, version, "/node/truncate", prv.Truncate)
}
