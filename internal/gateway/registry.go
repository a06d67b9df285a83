package gateway

import (
	"context"

	"github.com/rs/zerolog"

	"whatsapp-subscription-billing/internal/domain/ports/adapter"
	"whatsapp-subscription-billing/internal/domain/ports/repository"
)

// Registry resolves which adapter owns a payment-method code. Constructed once
// at process start and passed by reference; there is no package-level instance.
type Registry struct {
	methods  repository.PaymentMethodRepository
	adapters map[string]adapter.PaymentGateway
	manual   adapter.PaymentGateway
	log      *zerolog.Logger
}

func NewRegistry(methods repository.PaymentMethodRepository, manual adapter.PaymentGateway, logger *zerolog.Logger, gateways ...adapter.PaymentGateway) *Registry {
	regLog := logger.With().Str("component", "GatewayRegistry").Logger()
	byName := make(map[string]adapter.PaymentGateway, len(gateways))
	for _, g := range gateways {
		byName[g.Name()] = g
	}
	return &Registry{
		methods:  methods,
		adapters: byName,
		manual:   manual,
		log:      &regLog,
	}
}

// Resolve returns the adapter for a method code. Missing metadata, an unknown
// provider, or an inactive adapter all fall back to manual: payment creation
// must never hard-fail solely because gateway metadata is absent.
func (r *Registry) Resolve(ctx context.Context, methodCode string) adapter.PaymentGateway {
	m, err := r.methods.FindByCode(ctx, repository.NoTX, methodCode)
	if err != nil {
		r.log.Debug().Str("method", methodCode).Err(err).Msg("method lookup failed, using manual adapter")
		return r.manual
	}
	if !m.IsGateway || m.Provider == "" {
		return r.manual
	}
	g, ok := r.adapters[m.Provider]
	if !ok {
		r.log.Warn().Str("method", methodCode).Str("provider", m.Provider).Msg("unknown provider, using manual adapter")
		return r.manual
	}
	if !g.IsActive() {
		r.log.Warn().Str("method", methodCode).Str("provider", m.Provider).Msg("provider inactive, using manual adapter")
		return r.manual
	}
	return g
}

// Adapter returns a gateway by provider name, for callback routing where the
// webhook path already identifies the provider.
func (r *Registry) Adapter(name string) (adapter.PaymentGateway, bool) {
	g, ok := r.adapters[name]
	return g, ok
}

// IsManual reports whether the resolved adapter is the manual fallback.
func (r *Registry) IsManual(g adapter.PaymentGateway) bool {
	return g == r.manual
}
