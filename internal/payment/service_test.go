package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	initiateResp   InitiateResponse
	initiateErr    error
	initiateParams map[string]string
	statusResp     StatusResponse
	statusErr      error
	statusParams   map[string]string
}

func (g *fakeGateway) InitiateTransaction(_ context.Context, params map[string]string) (InitiateResponse, error) {
	g.initiateParams = params
	return g.initiateResp, g.initiateErr
}

func (g *fakeGateway) TransactionStatus(_ context.Context, params map[string]string) (StatusResponse, error) {
	g.statusParams = params
	return g.statusResp, g.statusErr
}

func testMerchant() MerchantConfig {
	return MerchantConfig{
		MID:          "SWIFT001",
		MerchantKey:  "secret-key",
		Website:      "DEFAULT",
		IndustryType: "Retail",
		ChannelID:    "WEB",
		CallbackURL:  "https://shop.example.com/callback",
	}
}

func newTestPaymentService(gw Gateway) *Service {
	return &Service{
		Gateway:  gw,
		Orders:   NewMemoryOrderStore(),
		Merchant: testMerchant(),
		Logger:   zerolog.Nop(),
		Now:      func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
	}
}

func TestInitiateStoresOrderAndSignsRequest(t *testing.T) {
	gw := &fakeGateway{initiateResp: InitiateResponse{TxnToken: "tok-123"}}
	svc := newTestPaymentService(gw)

	result, err := svc.Initiate(context.Background(), 29000, "cust-42", "9876543210", "shopper@example.com")
	require.NoError(t, err)
	require.Equal(t, "tok-123", result.TxnToken)
	require.NotEmpty(t, result.OrderID)

	require.Equal(t, "290.00", gw.initiateParams["TXN_AMOUNT"])
	require.Equal(t, "SWIFT001", gw.initiateParams["MID"])
	expected := InitiateChecksum(gw.initiateParams, "secret-key")
	require.Equal(t, expected, gw.initiateParams["CHECKSUMHASH"])

	order, err := svc.Orders.Get(context.Background(), result.OrderID)
	require.NoError(t, err)
	require.Equal(t, StatusInitiated, order.Status)
	require.Equal(t, int64(29000), order.Amount)
}

func TestInitiateValidatesInput(t *testing.T) {
	svc := newTestPaymentService(&fakeGateway{})

	_, err := svc.Initiate(context.Background(), 0, "cust-42", "", "")
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = svc.Initiate(context.Background(), 100, "", "", "")
	require.ErrorIs(t, err, ErrMissingCustomer)
}

func TestInitiatePropagatesGatewayRejection(t *testing.T) {
	gw := &fakeGateway{initiateErr: &GatewayError{Code: "INVALID_MID", Message: "merchant unknown"}}
	svc := newTestPaymentService(gw)

	_, err := svc.Initiate(context.Background(), 100, "cust-42", "", "")
	var gwErr *GatewayError
	require.True(t, errors.As(err, &gwErr))
	require.Equal(t, "INVALID_MID", gwErr.Code)
}

func TestCheckStatusSyncsLocalOrder(t *testing.T) {
	gw := &fakeGateway{statusResp: StatusResponse{Status: "TXN_SUCCESS", TxnID: "txn-9"}}
	svc := newTestPaymentService(gw)

	require.NoError(t, svc.Orders.Put(context.Background(), Order{
		OrderID: "ORD1", Amount: 100, CustomerID: "cust-42", Status: StatusInitiated,
	}))

	result, err := svc.CheckStatus(context.Background(), "ORD1")
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, result.Status)

	order, err := svc.Orders.Get(context.Background(), "ORD1")
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, order.Status)

	expected := StatusChecksum(map[string]string{"MID": "SWIFT001", "ORDERID": "ORD1"}, "secret-key")
	require.Equal(t, expected, gw.statusParams["CHECKSUMHASH"])
}

func TestCheckStatusIdempotent(t *testing.T) {
	gw := &fakeGateway{statusResp: StatusResponse{Status: "TXN_SUCCESS"}}
	svc := newTestPaymentService(gw)
	require.NoError(t, svc.Orders.Put(context.Background(), Order{OrderID: "ORD1", Status: StatusInitiated}))

	first, err := svc.CheckStatus(context.Background(), "ORD1")
	require.NoError(t, err)
	second, err := svc.CheckStatus(context.Background(), "ORD1")
	require.NoError(t, err)
	require.Equal(t, first.Status, second.Status)
}

func TestCheckStatusUnknownLocalOrderStillQueries(t *testing.T) {
	gw := &fakeGateway{statusResp: StatusResponse{Status: "PENDING"}}
	svc := newTestPaymentService(gw)

	result, err := svc.CheckStatus(context.Background(), "ORD-unknown")
	require.NoError(t, err)
	require.Equal(t, StatusPending, result.Status)
}

func TestMapProviderStatus(t *testing.T) {
	require.Equal(t, StatusSuccess, MapProviderStatus("TXN_SUCCESS"))
	require.Equal(t, StatusPending, MapProviderStatus("PENDING"))
	require.Equal(t, StatusFailed, MapProviderStatus("TXN_FAILURE"))
	require.Equal(t, StatusFailed, MapProviderStatus("SOMETHING_NEW"))
}

func TestApplyCallbackVerifiesSignature(t *testing.T) {
	svc := newTestPaymentService(&fakeGateway{})
	require.NoError(t, svc.Orders.Put(context.Background(), Order{OrderID: "ORD1", Status: StatusInitiated}))

	fields := map[string]string{
		"MID":       "SWIFT001",
		"ORDERID":   "ORD1",
		"STATUS":    "TXN_SUCCESS",
		"TXNAMOUNT": "290.00",
	}
	fields["CHECKSUMHASH"] = CallbackChecksum(fields, "secret-key")

	result, err := svc.ApplyCallback(context.Background(), fields)
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, result.Status)

	tampered := map[string]string{
		"MID":          "SWIFT001",
		"ORDERID":      "ORD1",
		"STATUS":       "TXN_SUCCESS",
		"TXNAMOUNT":    "9999.00",
		"CHECKSUMHASH": fields["CHECKSUMHASH"],
	}
	_, err = svc.ApplyCallback(context.Background(), tampered)
	require.ErrorIs(t, err, ErrBadSignature)
}

func TestApplyCallbackUnknownOrder(t *testing.T) {
	svc := newTestPaymentService(&fakeGateway{})

	fields := map[string]string{
		"MID":       "SWIFT001",
		"ORDERID":   "ORD-ghost",
		"STATUS":    "TXN_SUCCESS",
		"TXNAMOUNT": "10.00",
	}
	fields["CHECKSUMHASH"] = CallbackChecksum(fields, "secret-key")

	_, err := svc.ApplyCallback(context.Background(), fields)
	require.ErrorIs(t, err, ErrOrderNotFound)
}
