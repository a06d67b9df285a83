package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"whatsapp-subscription-billing/internal/config"
	"whatsapp-subscription-billing/internal/domain"
	"whatsapp-subscription-billing/internal/domain/model"
	"whatsapp-subscription-billing/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*DuitkuGateway)(nil)

// resultCodeToStatus maps the provider's 3-entry result vocabulary to ours.
var resultCodeToStatus = map[string]model.PaymentStatus{
	"00": model.PaymentStatusPaid,
	"01": model.PaymentStatusPending,
	"02": model.PaymentStatusFailed,
}

// inquiryRequest is the payment-creation wire body.
type inquiryRequest struct {
	MerchantCode    string `json:"merchantCode"`
	PaymentAmount   int64  `json:"paymentAmount"`
	PaymentMethod   string `json:"paymentMethod"`
	MerchantOrderID string `json:"merchantOrderId"`
	ProductDetails  string `json:"productDetails"`
	CustomerName    string `json:"customerVaName"`
	Email           string `json:"email"`
	PhoneNumber     string `json:"phoneNumber,omitempty"`
	CallbackURL     string `json:"callbackUrl"`
	ReturnURL       string `json:"returnUrl"`
	ExpiryPeriod    int    `json:"expiryPeriod"`
	Signature       string `json:"signature"`
}

// methodMutators holds per-method request quirks so the main create flow stays
// branch-free. E-wallet link methods require the customer phone number to bind
// the charge to the wallet account.
var methodMutators = map[string]func(*inquiryRequest, adapter.CreatePaymentRequest){
	"OV": withPhoneNumber,
	"SA": withPhoneNumber,
	"LA": withPhoneNumber,
	"OL": withPhoneNumber,
	"DA": withPhoneNumber,
}

func withPhoneNumber(req *inquiryRequest, in adapter.CreatePaymentRequest) {
	req.PhoneNumber = in.Customer.Phone
}

// DuitkuGateway implements the external gateway variant against the provider's
// signed JSON API.
type DuitkuGateway struct {
	merchantCode string
	apiKey       string
	baseURL      string
	callbackURL  string
	returnURL    string
	orderPrefix  string
	client       *http.Client
}

func NewDuitkuGateway(cfg config.DuitkuConfig) *DuitkuGateway {
	return &DuitkuGateway{
		merchantCode: cfg.MerchantCode,
		apiKey:       cfg.APIKey,
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		callbackURL:  cfg.CallbackURL,
		returnURL:    cfg.ReturnURL,
		orderPrefix:  cfg.OrderPrefix,
		client:       &http.Client{Timeout: 15 * time.Second},
	}
}

func (g *DuitkuGateway) Name() string { return "duitku" }

func (g *DuitkuGateway) IsActive() bool {
	return g.merchantCode != "" && g.apiKey != ""
}

func (g *DuitkuGateway) ValidateConfiguration() error {
	if g.merchantCode == "" {
		return fmt.Errorf("duitku: %w: merchant code missing", domain.ErrGatewayUnavailable)
	}
	if g.apiKey == "" {
		return fmt.Errorf("duitku: %w: api key missing", domain.ErrGatewayUnavailable)
	}
	return nil
}

func (g *DuitkuGateway) endpoint(path string) string { return g.baseURL + path }

// orderRef builds the provider order id: PREFIX-{transactionID}-{epochMillis}.
func (g *DuitkuGateway) orderRef(transactionID string, now time.Time) string {
	return fmt.Sprintf("%s-%s-%d", g.orderPrefix, transactionID, now.UnixMilli())
}

// ParseOrderRef recovers the transaction id from an order reference. The
// transaction id itself contains dashes, so strip the fixed prefix and the
// trailing epoch segment instead of splitting blindly.
func ParseOrderRef(prefix, ref string) (string, bool) {
	rest, ok := strings.CutPrefix(ref, prefix+"-")
	if !ok {
		return "", false
	}
	i := strings.LastIndex(rest, "-")
	if i <= 0 {
		return "", false
	}
	if _, err := strconv.ParseInt(rest[i+1:], 10, 64); err != nil {
		return "", false
	}
	return rest[:i], true
}

func (g *DuitkuGateway) CreatePayment(ctx context.Context, in adapter.CreatePaymentRequest) (*adapter.CreatePaymentResult, error) {
	if err := ValidateGatewayAmount(in.MethodCode, in.Amount, in.Currency); err != nil {
		return nil, err
	}
	if err := g.ValidateConfiguration(); err != nil {
		return nil, err
	}

	now := time.Now()
	orderID := g.orderRef(in.TransactionID, now)
	amount := strconv.FormatInt(in.Amount, 10)

	req := inquiryRequest{
		MerchantCode:    g.merchantCode,
		PaymentAmount:   in.Amount,
		PaymentMethod:   in.MethodCode,
		MerchantOrderID: orderID,
		ProductDetails:  "WhatsApp API subscription",
		CustomerName:    in.Customer.Name,
		Email:           in.Customer.Email,
		CallbackURL:     g.callbackURL,
		ReturnURL:       g.returnURL,
		ExpiryPeriod:    ExpiryMinutes(in.MethodCode),
		Signature:       Sign128(g.apiKey, g.merchantCode, orderID, amount),
	}
	if mutate, ok := methodMutators[in.MethodCode]; ok {
		mutate(&req, in)
	}

	var out struct {
		StatusCode    string `json:"statusCode"`
		StatusMessage string `json:"statusMessage"`
		PaymentURL    string `json:"paymentUrl"`
		VANumber      string `json:"vaNumber"`
		QRString      string `json:"qrString"`
		Reference     string `json:"reference"`
	}
	if err := g.post(ctx, "/api/merchant/v2/inquiry", req, &out); err != nil {
		return nil, err
	}
	if out.StatusCode != "00" {
		return nil, fmt.Errorf("duitku inquiry rejected: %s %s", out.StatusCode, out.StatusMessage)
	}

	payURL := out.PaymentURL
	if payURL == "" && out.VANumber != "" {
		payURL = out.VANumber
	}
	if payURL == "" && out.QRString != "" {
		payURL = out.QRString
	}
	return &adapter.CreatePaymentResult{
		Status:     model.PaymentStatusPending,
		ExternalID: orderID,
		PaymentURL: payURL,
		ExpiresAt:  ComputeExpiresAt(in.MethodCode, false, now),
		Raw: map[string]any{
			"reference":     out.Reference,
			"statusMessage": out.StatusMessage,
		},
	}, nil
}

func (g *DuitkuGateway) CheckPaymentStatus(ctx context.Context, externalID string) (*adapter.StatusResult, error) {
	if err := g.ValidateConfiguration(); err != nil {
		return nil, err
	}
	req := map[string]string{
		"merchantCode":    g.merchantCode,
		"merchantOrderId": externalID,
		"signature":       Sign128(g.apiKey, g.merchantCode, externalID),
	}
	var out struct {
		StatusCode    string `json:"statusCode"`
		StatusMessage string `json:"statusMessage"`
	}
	if err := g.post(ctx, "/api/merchant/transactionStatus", req, &out); err != nil {
		return nil, err
	}
	status, ok := resultCodeToStatus[out.StatusCode]
	if !ok {
		return nil, fmt.Errorf("duitku status: unrecognized code %q (%s)", out.StatusCode, out.StatusMessage)
	}
	return &adapter.StatusResult{Status: status, Message: out.StatusMessage}, nil
}

// ProcessCallback verifies the webhook signature before trusting any field.
// Unverified payloads are rejected outright.
func (g *DuitkuGateway) ProcessCallback(ctx context.Context, payload adapter.CallbackPayload) (*adapter.CallbackResult, error) {
	if !Verify128(g.apiKey, payload.Signature, payload.MerchantCode, payload.Amount, payload.MerchantOrderID) {
		return nil, domain.ErrSignatureMismatch
	}
	status, ok := resultCodeToStatus[payload.ResultCode]
	if !ok {
		return nil, fmt.Errorf("duitku callback: unrecognized result code %q", payload.ResultCode)
	}
	amount, err := strconv.ParseInt(payload.Amount, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("duitku callback: bad amount %q: %w", payload.Amount, err)
	}
	transactionID, ok := ParseOrderRef(g.orderPrefix, payload.MerchantOrderID)
	if !ok {
		return nil, fmt.Errorf("duitku callback: bad order reference %q", payload.MerchantOrderID)
	}
	return &adapter.CallbackResult{
		Provider:      g.Name(),
		ExternalID:    payload.MerchantOrderID,
		TransactionID: transactionID,
		Status:        status,
		Amount:        amount,
		PaymentDate:   time.Now(),
	}, nil
}

func (g *DuitkuGateway) AvailablePaymentMethods(ctx context.Context, amount int64) ([]adapter.MethodInfo, error) {
	if err := g.ValidateConfiguration(); err != nil {
		return nil, err
	}
	datetime := time.Now().Format("2006-01-02 15:04:05")
	amountStr := strconv.FormatInt(amount, 10)
	req := map[string]string{
		"merchantcode": g.merchantCode,
		"amount":       amountStr,
		"datetime":     datetime,
		"signature":    Sign256(g.apiKey, g.merchantCode, amountStr, datetime),
	}
	var out struct {
		PaymentFee []struct {
			PaymentMethod string `json:"paymentMethod"`
			PaymentName   string `json:"paymentName"`
			PaymentImage  string `json:"paymentImage"`
		} `json:"paymentFee"`
		ResponseCode    string `json:"responseCode"`
		ResponseMessage string `json:"responseMessage"`
	}
	if err := g.post(ctx, "/api/merchant/paymentmethod/getpaymentmethod", req, &out); err != nil {
		return nil, err
	}
	if out.ResponseCode != "00" {
		return nil, fmt.Errorf("duitku method discovery rejected: %s %s", out.ResponseCode, out.ResponseMessage)
	}
	methods := make([]adapter.MethodInfo, 0, len(out.PaymentFee))
	for _, m := range out.PaymentFee {
		methods = append(methods, adapter.MethodInfo{
			Code:     m.PaymentMethod,
			Name:     m.PaymentName,
			ImageURL: m.PaymentImage,
		})
	}
	return methods, nil
}

func (g *DuitkuGateway) post(ctx context.Context, path string, body, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint(path), bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: http %d", domain.ErrGatewayUnavailable, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", domain.ErrGatewayUnavailable, err)
	}
	return nil
}
