package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"whatsapp-subscription-billing/internal/domain/model"
	"whatsapp-subscription-billing/internal/domain/ports/adapter"
	"whatsapp-subscription-billing/internal/domain/ports/repository"
)

var _ CatalogUseCase = (*catalogUC)(nil)

type CatalogUseCase interface {
	ListMethods(ctx context.Context) ([]*model.PaymentMethod, error)
	ListPackages(ctx context.Context) ([]*model.WhatsAppPackage, error)
	// RefreshMethods pulls the provider's method list and upserts the catalog.
	// Existing manual methods are left untouched.
	RefreshMethods(ctx context.Context, provider adapter.PaymentGateway, amount int64) (int, error)
}

type catalogUC struct {
	methods  repository.PaymentMethodRepository
	packages repository.PackageRepository
	log      *zerolog.Logger
}

func NewCatalogUseCase(methods repository.PaymentMethodRepository, packages repository.PackageRepository, logger *zerolog.Logger) *catalogUC {
	ucLog := logger.With().Str("component", "CatalogUC").Logger()
	return &catalogUC{methods: methods, packages: packages, log: &ucLog}
}

func (u *catalogUC) ListMethods(ctx context.Context) ([]*model.PaymentMethod, error) {
	return u.methods.ListActive(ctx, repository.NoTX)
}

func (u *catalogUC) ListPackages(ctx context.Context) ([]*model.WhatsAppPackage, error) {
	return u.packages.ListActive(ctx, repository.NoTX)
}

func (u *catalogUC) RefreshMethods(ctx context.Context, provider adapter.PaymentGateway, amount int64) (int, error) {
	infos, err := provider.AvailablePaymentMethods(ctx, amount)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, info := range infos {
		m := &model.PaymentMethod{
			Code:      info.Code,
			Name:      info.Name,
			ImageURL:  info.ImageURL,
			IsGateway: true,
			Provider:  provider.Name(),
			Active:    true,
		}
		if err := u.methods.Upsert(ctx, repository.NoTX, m); err != nil {
			return n, err
		}
		n++
	}
	u.log.Info().Int("count", n).Str("provider", provider.Name()).Msg("payment method catalog refreshed")
	return n, nil
}
