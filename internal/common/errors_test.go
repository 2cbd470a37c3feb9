package common

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderErrorUsesAppErrorFields(t *testing.T) {
	rr := httptest.NewRecorder()
	RenderError(rr, &AppError{
		Code:       "NOT_FOUND",
		Message:    "cart line not found",
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]string{"productId": "sku-apple"},
	})

	require.Equal(t, http.StatusNotFound, rr.Code)
	require.JSONEq(t,
		`{"error":{"code":"NOT_FOUND","message":"cart line not found","details":{"productId":"sku-apple"}}}`,
		rr.Body.String())
}

func TestRenderErrorFindsWrappedAppError(t *testing.T) {
	cause := NewAppError("BAD_SIGNATURE", "callback signature mismatch", http.StatusUnauthorized, nil)
	rr := httptest.NewRecorder()
	RenderError(rr, fmt.Errorf("apply callback: %w", cause))

	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Contains(t, rr.Body.String(), "BAD_SIGNATURE")
}

func TestRenderErrorHidesPlainErrors(t *testing.T) {
	rr := httptest.NewRecorder()
	RenderError(rr, errors.New("dial tcp 10.0.0.9:27017: connection refused"))

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.JSONEq(t, `{"error":{"code":"INTERNAL","message":"internal error"}}`, rr.Body.String())
	require.NotContains(t, rr.Body.String(), "dial tcp")
}

func TestRenderErrorFillsMissingFields(t *testing.T) {
	rr := httptest.NewRecorder()
	RenderError(rr, &AppError{Err: errors.New("boom")})

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.JSONEq(t, `{"error":{"code":"INTERNAL","message":"internal error"}}`, rr.Body.String())
}

func TestAppErrorUnwrap(t *testing.T) {
	sentinel := errors.New("line not found")
	err := NewAppError("NOT_FOUND", "cart line not found", http.StatusNotFound, sentinel)
	require.ErrorIs(t, err, sentinel)
	require.Equal(t, "line not found", err.Error())
}
