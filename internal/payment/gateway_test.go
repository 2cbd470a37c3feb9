package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/swiftkart/storefront-api/internal/resilience"
)

func newGatewayServer(t *testing.T, handler http.HandlerFunc) *HTTPGateway {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &HTTPGateway{
		BaseURL: srv.URL,
		Client:  &resilience.HTTPClient{Client: srv.Client(), MaxAttempts: 1},
	}
}

func TestInitiateTransactionSuccess(t *testing.T) {
	var received map[string]string
	gw := newGatewayServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/theia/api/v1/initiateTransaction", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		_, _ = w.Write([]byte(`{"HEAD":{"responseCode":"OK"},"BODY":{"txnToken":"tok-77"}}`))
	})

	resp, err := gw.InitiateTransaction(context.Background(), map[string]string{"MID": "SWIFT001", "ORDER_ID": "ORD1"})
	require.NoError(t, err)
	require.Equal(t, "tok-77", resp.TxnToken)
	require.Equal(t, "SWIFT001", received["MID"])
}

func TestInitiateTransactionRejected(t *testing.T) {
	gw := newGatewayServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"HEAD":{"responseCode":"501","responseMessage":"invalid checksum"},"BODY":{}}`))
	})

	_, err := gw.InitiateTransaction(context.Background(), map[string]string{})
	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	require.Equal(t, "501", gwErr.Code)
	require.Equal(t, "invalid checksum", gwErr.Message)
}

func TestInitiateTransactionEmptyToken(t *testing.T) {
	gw := newGatewayServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"HEAD":{"responseCode":"OK"},"BODY":{}}`))
	})

	_, err := gw.InitiateTransaction(context.Background(), map[string]string{})
	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	require.Equal(t, "EMPTY_TOKEN", gwErr.Code)
}

func TestTransactionStatus(t *testing.T) {
	gw := newGatewayServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v3/order/status", r.URL.Path)
		_, _ = w.Write([]byte(`{"BODY":{"STATUS":"TXN_SUCCESS","TXNID":"txn-5","TXNAMOUNT":"290.00"}}`))
	})

	resp, err := gw.TransactionStatus(context.Background(), map[string]string{"MID": "SWIFT001", "ORDERID": "ORD1"})
	require.NoError(t, err)
	require.Equal(t, "TXN_SUCCESS", resp.Status)
	require.Equal(t, "txn-5", resp.TxnID)
	require.Equal(t, "290.00", resp.TxnAmount)
}

func TestTransactionStatusHTTPError(t *testing.T) {
	gw := newGatewayServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	_, err := gw.TransactionStatus(context.Background(), map[string]string{})
	require.Error(t, err)
}
