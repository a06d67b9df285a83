package repository

import (
	"context"

	"whatsapp-subscription-billing/internal/domain/model"
)

type SubscriptionRepository interface {
	// Save inserts a subscription. The table carries a unique (user_id,
	// package_id) constraint; a duplicate insert surfaces domain.ErrAlreadyExists
	// so the activator can fall back to the extend path.
	Save(ctx context.Context, tx Tx, s *model.WhatsAppSubscription) error
	Update(ctx context.Context, tx Tx, s *model.WhatsAppSubscription) error
	FindByUserAndPackage(ctx context.Context, tx Tx, userID, packageID string) (*model.WhatsAppSubscription, error)
	FindByID(ctx context.Context, tx Tx, id string) (*model.WhatsAppSubscription, error)
}

type PackageRepository interface {
	FindByID(ctx context.Context, tx Tx, id string) (*model.WhatsAppPackage, error)
	ListActive(ctx context.Context, tx Tx) ([]*model.WhatsAppPackage, error)
}

type PaymentMethodRepository interface {
	FindByCode(ctx context.Context, tx Tx, code string) (*model.PaymentMethod, error)
	ListActive(ctx context.Context, tx Tx) ([]*model.PaymentMethod, error)
	// Upsert refreshes catalog rows from gateway method discovery.
	Upsert(ctx context.Context, tx Tx, m *model.PaymentMethod) error
}
