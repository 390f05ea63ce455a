// Package handlers builds the three muxes a node serves: the public api used
// by wallets, the private api used by the operator and the debug mux.
package handlers

import (
	"context"
	"expvar"
	"net/http"
	"net/http/pprof"
	"os"

	"github.com/ardanlabs/msgpool/app/services/node/handlers/debug/checkgrp"
	v1 "github.com/ardanlabs/msgpool/app/services/node/handlers/v1"
	"github.com/ardanlabs/msgpool/business/web/v1/mid"
	"github.com/ardanlabs/msgpool/foundation/blockchain/state"
	"github.com/ardanlabs/msgpool/foundation/events"
	"github.com/ardanlabs/msgpool/foundation/nameservice"
	"github.com/ardanlabs/msgpool/foundation/web"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// MuxConfig contains the systems the muxes are built from. NS, Evts and
// CorsOrigin are only used by the public mux.
type MuxConfig struct {
	Build      string
	Shutdown   chan os.Signal
	Log        *zap.SugaredLogger
	State      *state.State
	NS         *nameservice.NameService
	Evts       *events.Events
	CorsOrigin string
}

// PublicMux constructs the handler wallets use to submit messages, follow
// the pool and preview a selection. Browsers are allowed in from CorsOrigin.
func PublicMux(cfg MuxConfig) http.Handler {
	origin := cfg.CorsOrigin
	if origin == "" {
		origin = "*"
	}

	app := newApp(cfg, mid.Cors(origin))

	preflight := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return nil
	}
	app.Handle(http.MethodOptions, "", "/*", preflight)

	v1.PublicRoutes(app, v1.Config{
		Log:   cfg.Log,
		State: cfg.State,
		NS:    cfg.NS,
		Evts:  cfg.Evts,
	})

	return app
}

// PrivateMux constructs the handler the operator uses to produce blocks and
// reset the chain. It is never exposed to browsers, so no CORS is applied.
func PrivateMux(cfg MuxConfig) http.Handler {
	app := newApp(cfg)

	v1.PrivateRoutes(app, v1.Config{
		Log:   cfg.Log,
		State: cfg.State,
	})

	return app
}

// DebugMux constructs the handler for profiling, health checks and the
// prometheus collectors of the selector, the chain and the http api. It
// doesn't use the DefaultServeMux so no dependency can register a handler
// on it.
func DebugMux(cfg MuxConfig) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.Handle("/debug/vars", expvar.Handler())

	cgh := checkgrp.Handlers{
		Build: cfg.Build,
		Log:   cfg.Log,
		State: cfg.State,
	}
	mux.HandleFunc("/debug/readiness", cgh.Readiness)
	mux.HandleFunc("/debug/liveness", cgh.Liveness)

	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

// =============================================================================

// newApp constructs a web.App with the middleware every node api shares.
// Panics is last so it wraps the handler closest to the route.
func newApp(cfg MuxConfig, mw ...web.Middleware) *web.App {
	chain := []web.Middleware{
		mid.Logger(cfg.Log),
		mid.Errors(cfg.Log),
		mid.Metrics(),
	}
	chain = append(chain, mw...)
	chain = append(chain, mid.Panics())

	return web.NewApp(cfg.Shutdown, chain...)
}
