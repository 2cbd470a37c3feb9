package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/swiftkart/storefront-api/internal/resilience"
)

// GatewayError is a business-level rejection from the payment provider, as
// opposed to a transport failure. Callers match on it to distinguish "the
// gateway said no" from "the gateway was unreachable".
type GatewayError struct {
	Code    string
	Message string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway rejected request: %s (%s)", e.Message, e.Code)
}

// Gateway is the outbound payment-provider contract. Both calls carry fully
// signed parameter sets; the implementation only moves bytes.
type Gateway interface {
	InitiateTransaction(ctx context.Context, params map[string]string) (InitiateResponse, error)
	TransactionStatus(ctx context.Context, params map[string]string) (StatusResponse, error)
}

// InitiateResponse is the transaction-token grant returned by the provider.
type InitiateResponse struct {
	TxnToken string
}

// StatusResponse is the provider's view of a transaction.
type StatusResponse struct {
	Status    string // raw provider status, e.g. TXN_SUCCESS
	TxnID     string
	TxnAmount string
	RespMsg   string
}

type gatewayEnvelope struct {
	Head struct {
		ResponseCode    string `json:"responseCode"`
		ResponseMessage string `json:"responseMessage"`
	} `json:"HEAD"`
	Body json.RawMessage `json:"BODY"`
}

type initiateBody struct {
	TxnToken string `json:"txnToken"`
}

type statusBody struct {
	Status     string `json:"STATUS"`
	TxnID      string `json:"TXNID"`
	TxnAmount  string `json:"TXNAMOUNT"`
	RespMsg    string `json:"RESPMSG"`
	ResultCode string `json:"RESPCODE"`
}

// HTTPGateway talks to a Paytm-style provider over JSON. All requests flow
// through the resilient client so retries and breaker state are shared.
type HTTPGateway struct {
	BaseURL string
	Client  *resilience.HTTPClient
}

func (g *HTTPGateway) InitiateTransaction(ctx context.Context, params map[string]string) (InitiateResponse, error) {
	env, err := g.post(ctx, g.BaseURL+"/theia/api/v1/initiateTransaction", params)
	if err != nil {
		return InitiateResponse{}, err
	}
	if env.Head.ResponseCode != "OK" {
		return InitiateResponse{}, &GatewayError{Code: env.Head.ResponseCode, Message: env.Head.ResponseMessage}
	}
	var body initiateBody
	if err := json.Unmarshal(env.Body, &body); err != nil {
		return InitiateResponse{}, fmt.Errorf("decode initiate body: %w", err)
	}
	if body.TxnToken == "" {
		return InitiateResponse{}, &GatewayError{Code: "EMPTY_TOKEN", Message: "provider returned no transaction token"}
	}
	return InitiateResponse{TxnToken: body.TxnToken}, nil
}

func (g *HTTPGateway) TransactionStatus(ctx context.Context, params map[string]string) (StatusResponse, error) {
	env, err := g.post(ctx, g.BaseURL+"/v3/order/status", params)
	if err != nil {
		return StatusResponse{}, err
	}
	var body statusBody
	if err := json.Unmarshal(env.Body, &body); err != nil {
		return StatusResponse{}, fmt.Errorf("decode status body: %w", err)
	}
	if body.Status == "" {
		return StatusResponse{}, &GatewayError{Code: "EMPTY_STATUS", Message: "provider returned no transaction status"}
	}
	return StatusResponse{
		Status:    body.Status,
		TxnID:     body.TxnID,
		TxnAmount: body.TxnAmount,
		RespMsg:   body.RespMsg,
	}, nil
}

func (g *HTTPGateway) post(ctx context.Context, url string, params map[string]string) (gatewayEnvelope, error) {
	payload, err := json.Marshal(params)
	if err != nil {
		return gatewayEnvelope{}, fmt.Errorf("encode gateway request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return gatewayEnvelope{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.Client.Do(ctx, req)
	if err != nil {
		return gatewayEnvelope{}, fmt.Errorf("gateway call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return gatewayEnvelope{}, fmt.Errorf("gateway returned HTTP %d", resp.StatusCode)
	}
	var env gatewayEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return gatewayEnvelope{}, fmt.Errorf("decode gateway response: %w", err)
	}
	return env, nil
}
