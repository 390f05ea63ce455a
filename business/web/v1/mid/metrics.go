package mid

import (
	"context"
	"net/http"
	"time"

	"github.com/ardanlabs/msgpool/business/sys/metrics"
	"github.com/ardanlabs/msgpool/foundation/web"
	"github.com/dimfeld/httptreemux/v5"
)

// Metrics updates program counters.
func Metrics() web.Middleware {

	// This is the actual middleware function to be executed.
	m := func(handler web.Handler) web.Handler {

		// Create the handler that will be attached in the middleware chain.
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			// Call the next handler.
			err := handler(ctx, w, r)

			// Use the route pattern so ids in the path don't explode the labels.
			path := r.URL.Path
			if route := httptreemux.ContextRoute(r.Context()); route != "" {
				path = route
			}

			if v, verr := web.GetValues(ctx); verr == nil {
				metrics.AddRequest(r.Method, path, v.StatusCode, time.Since(v.Now))
			}

			if err != nil {
				metrics.AddError()
			}

			// Return the error so it can be handled further up the chain.
			return err
		}

		return h
	}

	return m
}
