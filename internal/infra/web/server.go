package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"whatsapp-subscription-billing/internal/config"
	"whatsapp-subscription-billing/internal/gateway"
	"whatsapp-subscription-billing/internal/usecase"
)

type Server struct {
	cfg        *config.Config
	checkoutUC usecase.CheckoutUseCase
	settleUC   usecase.SettlementUseCase
	catalogUC  usecase.CatalogUseCase
	registry   *gateway.Registry
	auth       *AuthManager
	log        *zerolog.Logger
	server     *http.Server
}

func NewServer(
	cfg *config.Config,
	checkoutUC usecase.CheckoutUseCase,
	settleUC usecase.SettlementUseCase,
	catalogUC usecase.CatalogUseCase,
	registry *gateway.Registry,
	auth *AuthManager,
	logger *zerolog.Logger,
) *Server {
	webLog := logger.With().Str("component", "WebServer").Logger()
	return &Server{
		cfg:        cfg,
		checkoutUC: checkoutUC,
		settleUC:   settleUC,
		catalogUC:  catalogUC,
		registry:   registry,
		auth:       auth,
		log:        &webLog,
	}
}

// Router builds the full route tree. Split out of Start so tests can mount it
// on httptest servers.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Provider-facing surface: webhook plus the browser return landing.
	r.Post("/payment/callback", s.handleCallback)
	r.Get("/payment/return", s.handleReturn)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/checkout", s.handleCheckout)
		r.Post("/transactions/{id}/payments", s.handleCreatePayment)
		r.Get("/transactions/{id}", s.handleGetTransaction)
		r.Get("/payment-methods", s.handleListMethods)
		r.Get("/packages", s.handleListPackages)

		r.Group(func(r chi.Router) {
			r.Use(s.adminOnly)
			r.Post("/payments/{id}/approve", s.handleApprovePayment)
			r.Post("/payments/{id}/cancel", s.handleCancelPayment)
			r.Post("/admin/methods/refresh", s.handleRefreshMethods)
			r.Post("/admin/sweep", s.handleSweep)
		})
	})
	return r
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Admin.Port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Info().Int("port", s.cfg.Admin.Port).Msg("HTTP server listening")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// adminOnly guards the admin surface with the JWT session.
func (s *Server) adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.auth.ParseFromRequest(r)
		if err != nil || claims.Role != "admin" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(withAdminID(r.Context(), claims.Subject)))
	})
}

type ctxKey string

const ctxAdminID ctxKey = "admin_id"

func withAdminID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxAdminID, id)
}

func adminIDFrom(ctx context.Context) string {
	if v, ok := ctx.Value(ctxAdminID).(string); ok {
		return v
	}
	return ""
}
