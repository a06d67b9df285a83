//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"whatsapp-subscription-billing/internal/domain"
	"whatsapp-subscription-billing/internal/domain/model"
	"whatsapp-subscription-billing/internal/domain/ports/adapter"
	"whatsapp-subscription-billing/internal/domain/ports/repository"
	"whatsapp-subscription-billing/internal/usecase"
)

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// ---- Mock TransactionManager ----

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

// WithTx runs the function immediately without a real transaction unless a
// test overrides WithTxFunc.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, repository.NoTX)
}

// ---- Mock Locker ----

type MockLocker struct {
	mu     sync.Mutex
	held   map[string]string
	ErrOn  map[string]error
	Locked []string // keys locked, in order
}

func NewMockLocker() *MockLocker {
	return &MockLocker{held: map[string]string{}, ErrOn: map[string]error{}}
}

var _ usecase.Locker = (*MockLocker)(nil)

func (m *MockLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.ErrOn[key]; ok {
		return "", err
	}
	if _, ok := m.held[key]; ok {
		return "", domain.ErrLockHeld
	}
	token := "tok-" + key
	m.held[key] = token
	m.Locked = append(m.Locked, key)
	return token, nil
}

func (m *MockLocker) Unlock(ctx context.Context, key, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[key] != token {
		return domain.ErrOperationFailed
	}
	delete(m.held, key)
	return nil
}

// ---- Mock TransactionRepository ----

type MockTransactionRepo struct {
	mu    sync.Mutex
	store map[string]*model.Transaction

	SaveFunc           func(ctx context.Context, tx repository.Tx, t *model.Transaction) error
	UpdateStatusIfFunc func(ctx context.Context, tx repository.Tx, id string, to model.TransactionStatus, from ...model.TransactionStatus) (bool, error)
}

func NewMockTransactionRepo() *MockTransactionRepo {
	return &MockTransactionRepo{store: map[string]*model.Transaction{}}
}

var _ repository.TransactionRepository = (*MockTransactionRepo)(nil)

func (m *MockTransactionRepo) Save(ctx context.Context, tx repository.Tx, t *model.Transaction) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, t)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.store[t.ID] = &cp
	return nil
}

func (m *MockTransactionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *MockTransactionRepo) UpdateStatusIf(ctx context.Context, tx repository.Tx, id string, to model.TransactionStatus, from ...model.TransactionStatus) (bool, error) {
	if m.UpdateStatusIfFunc != nil {
		return m.UpdateStatusIfFunc(ctx, tx, id, to, from...)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.store[id]
	if !ok {
		return false, nil
	}
	for _, f := range from {
		if t.Status == f {
			t.Status = to
			if !to.CountsDown() {
				t.ExpiresAt = nil
			}
			return true, nil
		}
	}
	return false, nil
}

func (m *MockTransactionRepo) ExpireOverdue(ctx context.Context, tx repository.Tx, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, t := range m.store {
		if t.Status.CountsDown() && t.ExpiresAt != nil && now.After(*t.ExpiresAt) {
			t.Status = model.TransactionStatusExpired
			t.ExpiresAt = nil
			n++
		}
	}
	return n, nil
}

func (m *MockTransactionRepo) ClearStaleExpiry(ctx context.Context, tx repository.Tx) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, t := range m.store {
		if !t.Status.CountsDown() && t.ExpiresAt != nil {
			t.ExpiresAt = nil
			n++
		}
	}
	return n, nil
}

// ---- Mock PaymentRepository ----

type MockPaymentRepo struct {
	mu    sync.Mutex
	store map[string]*model.Payment

	SaveFunc                  func(ctx context.Context, tx repository.Tx, p *model.Payment) error
	UpdateStatusIfPendingFunc func(ctx context.Context, tx repository.Tx, id string, to model.PaymentStatus, paymentDate *time.Time) (bool, error)
}

func NewMockPaymentRepo() *MockPaymentRepo {
	return &MockPaymentRepo{store: map[string]*model.Payment{}}
}

var _ repository.PaymentRepository = (*MockPaymentRepo)(nil)

func (m *MockPaymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.store[p.ID] = &cp
	return nil
}

func (m *MockPaymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockPaymentRepo) FindByExternalID(ctx context.Context, tx repository.Tx, externalID string) (*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.store {
		if p.ExternalID == externalID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockPaymentRepo) FindPendingByTransaction(ctx context.Context, tx repository.Tx, transactionID string) (*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.store {
		if p.TransactionID == transactionID && p.Status == model.PaymentStatusPending {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockPaymentRepo) FindLatestByTransaction(ctx context.Context, tx repository.Tx, transactionID string) (*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *model.Payment
	for _, p := range m.store {
		if p.TransactionID != transactionID {
			continue
		}
		if latest == nil || p.CreatedAt.After(latest.CreatedAt) {
			latest = p
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (m *MockPaymentRepo) UpdateStatusIfPending(ctx context.Context, tx repository.Tx, id string, to model.PaymentStatus, paymentDate *time.Time) (bool, error) {
	if m.UpdateStatusIfPendingFunc != nil {
		return m.UpdateStatusIfPendingFunc(ctx, tx, id, to, paymentDate)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok || p.Status != model.PaymentStatusPending {
		return false, nil
	}
	p.Status = to
	p.ExpiresAt = nil
	p.PaymentDate = paymentDate
	return true, nil
}

func (m *MockPaymentRepo) SetAudit(ctx context.Context, tx repository.Tx, id, approvedBy, note string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.ApprovedBy = approvedBy
	p.Note = note
	return nil
}

func (m *MockPaymentRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Payment
	for _, p := range m.store {
		if p.Status == model.PaymentStatusPending && p.ExternalID != "" && p.CreatedAt.Before(olderThan) {
			cp := *p
			out = append(out, &cp)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (m *MockPaymentRepo) ExpireOverdue(ctx context.Context, tx repository.Tx, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, p := range m.store {
		if p.Status == model.PaymentStatusPending && p.ExpiresAt != nil && now.After(*p.ExpiresAt) {
			p.Status = model.PaymentStatusExpired
			p.ExpiresAt = nil
			n++
		}
	}
	return n, nil
}

func (m *MockPaymentRepo) ClearStaleExpiry(ctx context.Context, tx repository.Tx) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, p := range m.store {
		if p.Status != model.PaymentStatusPending && p.ExpiresAt != nil {
			p.ExpiresAt = nil
			n++
		}
	}
	return n, nil
}

// ---- Mock PurchaseDetailRepository ----

type MockPurchaseDetailRepo struct {
	mu    sync.Mutex
	store map[string]*model.PurchaseDetail

	ClaimProcessingFunc func(ctx context.Context, tx repository.Tx, id string) (bool, error)
	MarkSuccessFunc     func(ctx context.Context, tx repository.Tx, id string, startsAt, endsAt time.Time) error
}

func NewMockPurchaseDetailRepo() *MockPurchaseDetailRepo {
	return &MockPurchaseDetailRepo{store: map[string]*model.PurchaseDetail{}}
}

var _ repository.PurchaseDetailRepository = (*MockPurchaseDetailRepo)(nil)

func (m *MockPurchaseDetailRepo) Save(ctx context.Context, tx repository.Tx, d *model.PurchaseDetail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *d
	m.store[d.ID] = &cp
	return nil
}

func (m *MockPurchaseDetailRepo) FindByTransaction(ctx context.Context, tx repository.Tx, transactionID string) (*model.PurchaseDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.store {
		if d.TransactionID == transactionID {
			cp := *d
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockPurchaseDetailRepo) ClaimProcessing(ctx context.Context, tx repository.Tx, id string) (bool, error) {
	if m.ClaimProcessingFunc != nil {
		return m.ClaimProcessingFunc(ctx, tx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.store[id]
	if !ok || (d.Status != model.PurchaseDetailStatusPending && d.Status != model.PurchaseDetailStatusProcessing) {
		return false, nil
	}
	d.Status = model.PurchaseDetailStatusProcessing
	return true, nil
}

func (m *MockPurchaseDetailRepo) MarkSuccess(ctx context.Context, tx repository.Tx, id string, startsAt, endsAt time.Time) error {
	if m.MarkSuccessFunc != nil {
		return m.MarkSuccessFunc(ctx, tx, id, startsAt, endsAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	d.Status = model.PurchaseDetailStatusSuccess
	d.StartsAt = &startsAt
	d.EndsAt = &endsAt
	return nil
}

func (m *MockPurchaseDetailRepo) MarkFailed(ctx context.Context, tx repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	d.Status = model.PurchaseDetailStatusFailed
	return nil
}

func (m *MockPurchaseDetailRepo) ReleaseProcessing(ctx context.Context, tx repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	if d.Status == model.PurchaseDetailStatusProcessing {
		d.Status = model.PurchaseDetailStatusPending
	}
	return nil
}

// ---- Mock SubscriptionRepository ----

// MockSubscriptionRepo enforces the unique (user, package) pair the way the
// real table does, so insert races surface as domain.ErrAlreadyExists.
type MockSubscriptionRepo struct {
	mu    sync.Mutex
	store map[string]*model.WhatsAppSubscription // key userID+"/"+packageID

	SaveFunc func(ctx context.Context, tx repository.Tx, s *model.WhatsAppSubscription) error
}

func NewMockSubscriptionRepo() *MockSubscriptionRepo {
	return &MockSubscriptionRepo{store: map[string]*model.WhatsAppSubscription{}}
}

var _ repository.SubscriptionRepository = (*MockSubscriptionRepo)(nil)

func subKey(userID, packageID string) string { return userID + "/" + packageID }

func (m *MockSubscriptionRepo) Save(ctx context.Context, tx repository.Tx, s *model.WhatsAppSubscription) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, s)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	k := subKey(s.UserID, s.PackageID)
	if _, ok := m.store[k]; ok {
		return domain.ErrAlreadyExists
	}
	cp := *s
	m.store[k] = &cp
	return nil
}

func (m *MockSubscriptionRepo) Update(ctx context.Context, tx repository.Tx, s *model.WhatsAppSubscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := subKey(s.UserID, s.PackageID)
	if _, ok := m.store[k]; !ok {
		return domain.ErrNotFound
	}
	cp := *s
	m.store[k] = &cp
	return nil
}

func (m *MockSubscriptionRepo) FindByUserAndPackage(ctx context.Context, tx repository.Tx, userID, packageID string) (*model.WhatsAppSubscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.store[subKey(userID, packageID)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MockSubscriptionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.WhatsAppSubscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.store {
		if s.ID == id {
			cp := *s
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

// ---- Mock PackageRepository ----

type MockPackageRepo struct {
	mu    sync.Mutex
	store map[string]*model.WhatsAppPackage
}

func NewMockPackageRepo() *MockPackageRepo {
	return &MockPackageRepo{store: map[string]*model.WhatsAppPackage{}}
}

var _ repository.PackageRepository = (*MockPackageRepo)(nil)

func (m *MockPackageRepo) Put(p *model.WhatsAppPackage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.store[p.ID] = &cp
}

func (m *MockPackageRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.WhatsAppPackage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockPackageRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.WhatsAppPackage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.WhatsAppPackage
	for _, p := range m.store {
		if p.Active {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ---- Mock PaymentMethodRepository ----

type MockPaymentMethodRepo struct {
	mu    sync.Mutex
	store map[string]*model.PaymentMethod
}

func NewMockPaymentMethodRepo() *MockPaymentMethodRepo {
	return &MockPaymentMethodRepo{store: map[string]*model.PaymentMethod{}}
}

var _ repository.PaymentMethodRepository = (*MockPaymentMethodRepo)(nil)

func (m *MockPaymentMethodRepo) Put(pm *model.PaymentMethod) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *pm
	m.store[pm.Code] = &cp
}

func (m *MockPaymentMethodRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.PaymentMethod, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pm, ok := m.store[code]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *pm
	return &cp, nil
}

func (m *MockPaymentMethodRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.PaymentMethod, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.PaymentMethod
	for _, pm := range m.store {
		if pm.Active {
			cp := *pm
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockPaymentMethodRepo) Upsert(ctx context.Context, tx repository.Tx, pm *model.PaymentMethod) error {
	m.Put(pm)
	return nil
}

// ---- Mock PaymentGateway (adapter) ----

type MockGateway struct {
	NameVal     string
	ActiveVal   bool
	StatusCalls int // CheckPaymentStatus invocations

	CreatePaymentFunc      func(ctx context.Context, req adapter.CreatePaymentRequest) (*adapter.CreatePaymentResult, error)
	CheckPaymentStatusFunc func(ctx context.Context, externalID string) (*adapter.StatusResult, error)
	ProcessCallbackFunc    func(ctx context.Context, payload adapter.CallbackPayload) (*adapter.CallbackResult, error)
	AvailableMethodsFunc   func(ctx context.Context, amount int64) ([]adapter.MethodInfo, error)
}

var _ adapter.PaymentGateway = (*MockGateway)(nil)

func (m *MockGateway) Name() string {
	if m.NameVal == "" {
		return "mockpay"
	}
	return m.NameVal
}

func (m *MockGateway) IsActive() bool { return m.ActiveVal }

func (m *MockGateway) ValidateConfiguration() error { return nil }

func (m *MockGateway) CreatePayment(ctx context.Context, req adapter.CreatePaymentRequest) (*adapter.CreatePaymentResult, error) {
	if m.CreatePaymentFunc != nil {
		return m.CreatePaymentFunc(ctx, req)
	}
	return &adapter.CreatePaymentResult{
		Status:     model.PaymentStatusPending,
		ExternalID: "EXT-" + req.TransactionID,
		PaymentURL: "https://pay.example/" + req.TransactionID,
		ExpiresAt:  time.Now().Add(time.Hour),
	}, nil
}

func (m *MockGateway) CheckPaymentStatus(ctx context.Context, externalID string) (*adapter.StatusResult, error) {
	m.StatusCalls++
	if m.CheckPaymentStatusFunc != nil {
		return m.CheckPaymentStatusFunc(ctx, externalID)
	}
	return &adapter.StatusResult{Status: model.PaymentStatusPending}, nil
}

func (m *MockGateway) ProcessCallback(ctx context.Context, payload adapter.CallbackPayload) (*adapter.CallbackResult, error) {
	if m.ProcessCallbackFunc != nil {
		return m.ProcessCallbackFunc(ctx, payload)
	}
	return nil, domain.ErrSignatureMismatch
}

func (m *MockGateway) AvailablePaymentMethods(ctx context.Context, amount int64) ([]adapter.MethodInfo, error) {
	if m.AvailableMethodsFunc != nil {
		return m.AvailableMethodsFunc(ctx, amount)
	}
	return nil, nil
}

// ---- Mock Activator ----

type MockActivator struct {
	mu           sync.Mutex
	Activated    []string
	ActivateFunc func(ctx context.Context, transactionID string) error
}

var _ usecase.Activator = (*MockActivator)(nil)

func (m *MockActivator) Activate(ctx context.Context, transactionID string) error {
	if m.ActivateFunc != nil {
		return m.ActivateFunc(ctx, transactionID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Activated = append(m.Activated, transactionID)
	return nil
}
