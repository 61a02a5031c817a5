package gateway

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"paymint/core"
	"paymint/gateway/middleware"
)

// Config wires the storefront façade to an in-process settlement node.
type Config struct {
	ServiceName string
	LogRequests bool
	CORS        middleware.CORSConfig
}

// Server is the REST storefront façade over the settlement node. It
// exposes checkout intents, purchase receipts, split previews, and
// credential lookups for web clients that do not speak JSON-RPC.
type Server struct {
	node    *core.Node
	logger  *slog.Logger
	obs     *middleware.Observability
	intents *IntentStore
	builder *IntentBuilder
}

func NewServer(node *core.Node, logger *slog.Logger, cfg Config) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	obs := middleware.NewObservability(middleware.ObservabilityConfig{
		ServiceName: cfg.ServiceName,
		LogRequests: cfg.LogRequests,
		Enabled:     true,
	}, logger)
	return &Server{
		node:    node,
		logger:  logger,
		obs:     obs,
		intents: NewIntentStore(),
		builder: NewIntentBuilder(),
	}
}

// Handler assembles the chi router with the full middleware chain.
func (s *Server) Handler(cfg Config) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.RequestID)
	r.Use(s.obs.Middleware("root"))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", s.obs.MetricsHandler())

	r.Route("/v1", func(v1 chi.Router) {
		v1.Route("/intents", func(sr chi.Router) {
			sr.Use(s.obs.Middleware("intents"))
			sr.Post("/", s.handleCreateIntent)
			sr.Get("/{id}", s.handleGetIntent)
		})
		v1.Route("/purchases", func(sr chi.Router) {
			sr.Use(s.obs.Middleware("purchases"))
			sr.Get("/{address}", s.handleGetPurchase)
		})
		v1.Route("/splits", func(sr chi.Router) {
			sr.Use(s.obs.Middleware("splits"))
			sr.Get("/{address}", s.handleGetSplit)
			sr.Get("/{address}/preview", s.handleSplitPreview)
		})
		v1.Route("/credentials", func(sr chi.Router) {
			sr.Use(s.obs.Middleware("credentials"))
			sr.Get("/{asset}/{holder}", s.handleCredentialBalance)
		})
		v1.Route("/balances", func(sr chi.Router) {
			sr.Use(s.obs.Middleware("balances"))
			sr.Get("/{account}", s.handleBalance)
		})
	})

	return r
}

// Start serves the façade until the listener fails.
func (s *Server) Start(addr string, cfg Config) error {
	return http.ListenAndServe(addr, s.Handler(cfg))
}
