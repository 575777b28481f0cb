package httpx

import (
	"net/http"
	"time"

	"github.com/ariefcatur/storefront-orders/internal/auth"
	"github.com/ariefcatur/storefront-orders/internal/events"
	"github.com/ariefcatur/storefront-orders/internal/logx"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

type Deps struct {
	Log         zerolog.Logger
	Verifier    auth.Verifier
	Checkout    Checkout
	Fulfillment Fulfillment
	Products    ProductReader
	Idempotency Idempotency // nil = header Idempotency-Key diabaikan

	RateLimitRPS   float64 // <= 0 mematikan rate limit
	RateLimitBurst int
}

func NewRouter(d Deps) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, logx.AccessLog(d.Log), middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))
	r.Use(traceEvents)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	(&ProductsHandler{Products: d.Products, Log: d.Log}).Register(r)

	oh := &OrdersHandler{
		Checkout:    d.Checkout,
		Fulfillment: d.Fulfillment,
		Idempotency: d.Idempotency,
		Log:         d.Log,
	}
	r.Route("/orders", func(r chi.Router) {
		r.Use(NewRateLimiter(d.RateLimitRPS, d.RateLimitBurst).Middleware)
		r.Use(d.Verifier.Middleware(func(w http.ResponseWriter, r *http.Request, err error) {
			writeError(w, r, d.Log, err)
		}))
		oh.Register(r)
	})
	return r
}

// traceEvents copies the request id into the context used for event
// envelopes.
func traceEvents(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := events.WithTraceID(r.Context(), middleware.GetReqID(r.Context()))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
