package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"learning-entitlement/internal/config"
	red "learning-entitlement/internal/infra/redis"
	"learning-entitlement/internal/usecase"
)

// Server exposes the entitlement engine over HTTP. Identity arrives as a
// bearer token minted by the session service; the payment webhook is
// reached only from the payment collaborator's network.
type Server struct {
	gate       usecase.EntitlementGate
	unlock     usecase.UnlockResolver
	ledger     usecase.UsageLedger
	reconciler usecase.PaymentReconciler
	limiter    *red.RateLimiter
	cfg        *config.Config
	log        *zerolog.Logger

	server *http.Server
}

func NewServer(
	gate usecase.EntitlementGate,
	unlock usecase.UnlockResolver,
	ledger usecase.UsageLedger,
	reconciler usecase.PaymentReconciler,
	limiter *red.RateLimiter,
	cfg *config.Config,
	logger *zerolog.Logger,
) *Server {
	l := logger.With().Str("component", "WebServer").Logger()
	return &Server{
		gate:       gate,
		unlock:     unlock,
		ledger:     ledger,
		reconciler: reconciler,
		limiter:    limiter,
		cfg:        cfg,
		log:        &l,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(TraceID())
	r.Use(Recover(s.log))
	r.Use(RequestLog(s.log))
	r.Use(Timeout(s.cfg.Server.RequestTimeout))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	// Collaborator-facing webhook; no learner identity on this route.
	r.Post("/webhook/payment", s.handlePaymentWebhook)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(Authenticate([]byte(s.cfg.Auth.HMACSecret)))
		r.Use(RateLimit(s.limiter, s.cfg.RateLimit.PerMinute))

		r.Post("/entitlement/authorize", s.handleAuthorize)
		r.Get("/paths/{pathID}/modules/{moduleIndex}/access", s.handleModuleAccess)
		r.Get("/paths/{pathID}/modules/{moduleIndex}/chapters/{chapterIndex}/access", s.handleChapterAccess)
		r.Get("/usage/{chapterID}", s.handleUsage)
	})

	return r
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.log.Info().Int("port", s.cfg.Server.Port).Msg("http server listening")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}
