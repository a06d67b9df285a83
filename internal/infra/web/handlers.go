package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"whatsapp-subscription-billing/internal/domain"
	"whatsapp-subscription-billing/internal/domain/model"
	"whatsapp-subscription-billing/internal/domain/ports/adapter"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto HTTP status codes. Limit and transition
// violations carry enough detail to be actionable for the caller.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var le *domain.LimitError
	var te *domain.TransitionError
	switch {
	case errors.As(err, &le):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error": le.Error(), "method": le.MethodCode, "min": le.Min, "max": le.Max, "currency": le.Currency,
		})
	case errors.As(err, &te):
		writeJSON(w, http.StatusConflict, map[string]string{"error": te.Error()})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, domain.ErrPaymentPendingExist):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "a pending payment already exists for this transaction"})
	case errors.Is(err, domain.ErrTransactionExpired):
		writeJSON(w, http.StatusGone, map[string]string{"error": "transaction is no longer payable"})
	case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrSignatureMismatch):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad request"})
	case errors.Is(err, domain.ErrGatewayUnavailable):
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "payment provider unavailable"})
	default:
		s.log.Error().Err(err).Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID    string `json:"user_id"`
		PackageID string `json:"package_id"`
		Duration  string `json:"duration"`
		Currency  string `json:"currency"`
		Discount  int64  `json:"discount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, domain.ErrInvalidArgument)
		return
	}
	if req.Currency == "" {
		req.Currency = "idr"
	}
	duration := model.PackageDuration(req.Duration)
	if duration != model.PackageDurationMonth && duration != model.PackageDurationYear {
		s.writeError(w, domain.ErrInvalidArgument)
		return
	}

	t, err := s.checkoutUC.CreateTransaction(r.Context(), req.UserID, req.PackageID, duration, req.Currency, req.Discount)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":           t.ID,
		"status":       t.Status,
		"final_amount": t.FinalAmount,
		"currency":     t.Currency,
		"expires_at":   t.ExpiresAt,
	})
}

func (s *Server) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	transactionID := chi.URLParam(r, "id")
	var req struct {
		Method   string `json:"method"`
		Customer struct {
			Name  string `json:"name"`
			Email string `json:"email"`
			Phone string `json:"phone"`
		} `json:"customer"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, domain.ErrInvalidArgument)
		return
	}

	p, err := s.checkoutUC.CreatePayment(r.Context(), transactionID, req.Method, adapter.CustomerInfo{
		Name:  req.Customer.Name,
		Email: req.Customer.Email,
		Phone: req.Customer.Phone,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":          p.ID,
		"status":      p.Status,
		"method":      p.Method,
		"amount":      p.Amount,
		"payment_url": p.PaymentURL,
		"expires_at":  p.ExpiresAt,
	})
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	t, p, err := s.settleUC.TransactionStatus(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	resp := map[string]any{
		"id":           t.ID,
		"status":       t.Status,
		"final_amount": t.FinalAmount,
		"currency":     t.Currency,
		"expires_at":   t.ExpiresAt,
	}
	if p != nil {
		resp["payment"] = map[string]any{
			"id":           p.ID,
			"status":       p.Status,
			"method":       p.Method,
			"payment_url":  p.PaymentURL,
			"payment_date": p.PaymentDate,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleCallback takes the provider's form-encoded webhook. The adapter owns
// verification; nothing from the body is trusted before that.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.writeError(w, domain.ErrInvalidArgument)
		return
	}
	payload := adapter.CallbackPayload{
		MerchantCode:    r.PostFormValue("merchantCode"),
		Amount:          r.PostFormValue("amount"),
		MerchantOrderID: r.PostFormValue("merchantOrderId"),
		ResultCode:      r.PostFormValue("resultCode"),
		Reference:       r.PostFormValue("reference"),
		Signature:       r.PostFormValue("signature"),
	}
	if err := s.settleUC.HandleCallback(r.Context(), "duitku", payload); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleReturn is the browser landing after the provider redirect. Settlement
// never happens here; the webhook is authoritative.
func (s *Server) handleReturn(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "received", "order": r.URL.Query().Get("merchantOrderId")})
}

func (s *Server) handleListMethods(w http.ResponseWriter, r *http.Request) {
	methods, err := s.catalogUC.ListMethods(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	type methodOut struct {
		Code     string `json:"code"`
		Name     string `json:"name"`
		ImageURL string `json:"image_url,omitempty"`
	}
	out := make([]methodOut, 0, len(methods))
	for _, m := range methods {
		out = append(out, methodOut{Code: m.Code, Name: m.Name, ImageURL: m.ImageURL})
	}
	writeJSON(w, http.StatusOK, map[string]any{"methods": out})
}

func (s *Server) handleListPackages(w http.ResponseWriter, r *http.Request) {
	pkgs, err := s.catalogUC.ListPackages(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	type pkgOut struct {
		ID           string `json:"id"`
		Name         string `json:"name"`
		MonthlyPrice int64  `json:"monthly_price"`
		YearlyPrice  int64  `json:"yearly_price"`
	}
	out := make([]pkgOut, 0, len(pkgs))
	for _, p := range pkgs {
		out = append(out, pkgOut{ID: p.ID, Name: p.Name, MonthlyPrice: p.MonthlyPrice, YearlyPrice: p.YearlyPrice})
	}
	writeJSON(w, http.StatusOK, map[string]any{"packages": out})
}

func (s *Server) handleApprovePayment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req struct {
		Note string `json:"note"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req) // note is optional

	if err := s.settleUC.ApproveManual(r.Context(), id, adminIDFrom(r.Context()), req.Note); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "approved"})
}

func (s *Server) handleCancelPayment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.settleUC.CancelPayment(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

// handleSweep runs the expiry sweep on demand, ahead of the scheduler.
func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	n, err := s.settleUC.Sweep(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"demoted": n})
}

func (s *Server) handleRefreshMethods(w http.ResponseWriter, r *http.Request) {
	provider, ok := s.registry.Adapter("duitku")
	if !ok {
		s.writeError(w, domain.ErrGatewayUnavailable)
		return
	}
	var req struct {
		Amount int64 `json:"amount"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.Amount <= 0 {
		req.Amount = 10_000
	}

	n, err := s.catalogUC.RefreshMethods(r.Context(), provider, req.Amount)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"refreshed": n})
}
