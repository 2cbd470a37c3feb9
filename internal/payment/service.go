package payment

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/swiftkart/storefront-api/internal/common"
	"github.com/swiftkart/storefront-api/internal/obs"
)

var (
	ErrInvalidAmount   = errors.New("amount must be a positive integer of minor units")
	ErrMissingCustomer = errors.New("customer id is required")
	ErrBadSignature    = errors.New("callback signature mismatch")
)

// MerchantConfig carries the provider credentials and merchant identity used
// to sign and address every gateway call.
type MerchantConfig struct {
	MID          string
	MerchantKey  string
	Website      string
	IndustryType string
	ChannelID    string
	CallbackURL  string
}

// InitiateResult is what the storefront hands back to the client so it can
// open the provider's payment page.
type InitiateResult struct {
	OrderID  string `json:"orderId"`
	TxnToken string `json:"txnToken"`
	Amount   int64  `json:"amount"`
}

// StatusResult is the normalized outcome of a status query.
type StatusResult struct {
	OrderID string `json:"orderId"`
	Status  Status `json:"status"`
	TxnID   string `json:"txnId,omitempty"`
	Message string `json:"message,omitempty"`
}

// Service builds signed gateway requests and tracks order lifecycle.
type Service struct {
	Gateway  Gateway
	Orders   OrderStore
	Merchant MerchantConfig
	Logger   zerolog.Logger
	Now      func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// FormatAmount renders minor units as the 2-decimal string the gateway
// expects, e.g. 29000 -> "290.00".
func FormatAmount(minor int64) string {
	return fmt.Sprintf("%d.%02d", minor/100, minor%100)
}

// NewOrderID composes a collision-resistant order identifier from the wall
// clock and random bytes.
func NewOrderID(now time.Time) string {
	buf := make([]byte, 4)
	_, _ = rand.Read(buf)
	return fmt.Sprintf("ORD%d%s", now.UnixMilli(), hex.EncodeToString(buf))
}

// Initiate signs and sends a transaction-initiation request and records the
// resulting order locally with status "initiated". The returned token is never
// persisted; it is single-use and belongs to the client.
func (s *Service) Initiate(ctx context.Context, amount int64, customerID, mobile, email string) (InitiateResult, error) {
	if amount <= 0 {
		return InitiateResult{}, common.NewAppError("VALIDATION_FAILED", ErrInvalidAmount.Error(), http.StatusBadRequest, ErrInvalidAmount)
	}
	if customerID == "" {
		return InitiateResult{}, common.NewAppError("VALIDATION_FAILED", ErrMissingCustomer.Error(), http.StatusBadRequest, ErrMissingCustomer)
	}

	now := s.now()
	orderID := NewOrderID(now)
	params := map[string]string{
		"MID":              s.Merchant.MID,
		"WEBSITE":          s.Merchant.Website,
		"INDUSTRY_TYPE_ID": s.Merchant.IndustryType,
		"CHANNEL_ID":       s.Merchant.ChannelID,
		"ORDER_ID":         orderID,
		"CUST_ID":          customerID,
		"MOBILE_NO":        mobile,
		"EMAIL":            email,
		"TXN_AMOUNT":       FormatAmount(amount),
		"CALLBACK_URL":     s.Merchant.CallbackURL,
	}
	params["CHECKSUMHASH"] = InitiateChecksum(params, s.Merchant.MerchantKey)

	resp, err := s.Gateway.InitiateTransaction(ctx, params)
	if err != nil {
		s.countInitiate("error")
		return InitiateResult{}, asGatewayAppError(err)
	}

	order := Order{
		OrderID:    orderID,
		Amount:     amount,
		CustomerID: customerID,
		Status:     StatusInitiated,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.Orders.Put(ctx, order); err != nil {
		s.countInitiate("error")
		return InitiateResult{}, fmt.Errorf("persist order: %w", err)
	}

	s.countInitiate("ok")
	s.Logger.Info().Str("order_id", orderID).Int64("amount", amount).Msg("payment initiated")
	return InitiateResult{OrderID: orderID, TxnToken: resp.TxnToken, Amount: amount}, nil
}

// CheckStatus queries the provider for the authoritative transaction state
// and syncs the local record. Safe to call repeatedly; a repeat query for a
// settled order returns the same result without side effects. An order the
// local store has never seen is still queried remotely.
func (s *Service) CheckStatus(ctx context.Context, orderID string) (StatusResult, error) {
	params := map[string]string{
		"MID":     s.Merchant.MID,
		"ORDERID": orderID,
	}
	params["CHECKSUMHASH"] = StatusChecksum(params, s.Merchant.MerchantKey)

	resp, err := s.Gateway.TransactionStatus(ctx, params)
	if err != nil {
		return StatusResult{}, asGatewayAppError(err)
	}

	status := MapProviderStatus(resp.Status)
	if err := s.Orders.SetStatus(ctx, orderID, status, s.now()); err != nil && !errors.Is(err, ErrOrderNotFound) {
		return StatusResult{}, fmt.Errorf("record status: %w", err)
	}

	s.countStatus(status)
	return StatusResult{OrderID: orderID, Status: status, TxnID: resp.TxnID, Message: resp.RespMsg}, nil
}

// ApplyCallback verifies the signature on a provider callback and applies the
// reported status to the local order. Fields arrive as the flat uppercase
// parameter set the provider posts back.
func (s *Service) ApplyCallback(ctx context.Context, fields map[string]string) (StatusResult, error) {
	received := fields["CHECKSUMHASH"]
	expected := CallbackChecksum(fields, s.Merchant.MerchantKey)
	if received == "" || received != expected {
		s.countCallback("bad_signature")
		return StatusResult{}, common.NewAppError("BAD_SIGNATURE", "callback signature mismatch", http.StatusUnauthorized, ErrBadSignature)
	}

	orderID := fields["ORDERID"]
	status := MapProviderStatus(fields["STATUS"])
	if err := s.Orders.SetStatus(ctx, orderID, status, s.now()); err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			s.countCallback("unknown_order")
			return StatusResult{}, common.NewAppError("ORDER_NOT_FOUND", "unknown order", http.StatusNotFound, err)
		}
		s.countCallback("error")
		return StatusResult{}, fmt.Errorf("record callback status: %w", err)
	}

	s.countCallback("ok")
	s.Logger.Info().Str("order_id", orderID).Str("status", string(status)).Msg("payment callback applied")
	return StatusResult{OrderID: orderID, Status: status}, nil
}

// MapProviderStatus normalizes the provider's status vocabulary. Anything
// outside the known success/pending values is treated as failed.
func MapProviderStatus(raw string) Status {
	switch raw {
	case "TXN_SUCCESS":
		return StatusSuccess
	case "PENDING":
		return StatusPending
	default:
		return StatusFailed
	}
}

// asGatewayAppError classifies a gateway failure for the HTTP surface: a
// provider rejection keeps its code in the details, anything else reads as
// the provider being unreachable.
func asGatewayAppError(err error) *common.AppError {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return &common.AppError{
			Code:       "GATEWAY_REJECTED",
			Message:    gwErr.Message,
			HTTPStatus: http.StatusBadGateway,
			Err:        err,
			Details:    map[string]string{"providerCode": gwErr.Code},
		}
	}
	return common.NewAppError("GATEWAY_UNAVAILABLE", "payment provider unavailable", http.StatusBadGateway, err)
}

func (s *Service) countInitiate(result string) {
	if obs.PaymentInitiateTotal != nil {
		obs.PaymentInitiateTotal.WithLabelValues(result).Inc()
	}
}

func (s *Service) countStatus(status Status) {
	if obs.PaymentStatusTotal != nil {
		obs.PaymentStatusTotal.WithLabelValues(string(status)).Inc()
	}
}

func (s *Service) countCallback(result string) {
	if obs.PaymentCallbackTotal != nil {
		obs.PaymentCallbackTotal.WithLabelValues(result).Inc()
	}
}
