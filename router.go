package main

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-chi/render"

	httpapi "github.com/infa-ajaykumar/RealityBuilder/http"
	"github.com/infa-ajaykumar/RealityBuilder/internal/logger"
	"github.com/infa-ajaykumar/RealityBuilder/internal/ratelimit"
)

func BuildRouter(deps httpapi.PropertiesDeps, points int, window time.Duration, counter *ratelimit.RedisCounter) http.Handler {
	r := chi.NewRouter()
	r.Use(logger.Middleware)
	r.Use(httprate.Limit(points, window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitCounter(counter),
		httprate.WithLimitHandler(rateLimited(window)),
	))
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`{"ok":true}`)) })

	httpapi.RegisterProperties(r, deps)

	return r
}

// rateLimited renders the 429 with a whole-second Retry-After covering the
// remainder of the current window.
func rateLimited(window time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now()
		remaining := now.Truncate(window).Add(window).Sub(now)
		secs := int(math.Ceil(remaining.Seconds()))
		if secs < 1 {
			secs = 1
		}
		if windowSecs := int(window.Seconds()); windowSecs > 0 && secs > windowSecs {
			secs = windowSecs
		}
		w.Header().Set("Retry-After", strconv.Itoa(secs))
		render.Status(r, http.StatusTooManyRequests)
		render.JSON(w, r, map[string]any{"error": "rate limit exceeded"})
	}
}
