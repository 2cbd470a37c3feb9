package payment

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Canonical parameter orderings mandated by the gateway. The digest is
// computed over key=value pairs joined in exactly this order; reordering or
// omitting a field produces a signature the gateway rejects.
var (
	initiateChecksumOrder = []string{
		"MID", "WEBSITE", "INDUSTRY_TYPE_ID", "CHANNEL_ID",
		"ORDER_ID", "CUST_ID", "MOBILE_NO", "EMAIL",
		"TXN_AMOUNT", "CALLBACK_URL",
	}
	statusChecksumOrder   = []string{"MID", "ORDERID"}
	callbackChecksumOrder = []string{"MID", "ORDERID", "STATUS", "TXNAMOUNT"}
)

// Checksum produces the gateway signature: a SHA-256 hex digest over the
// canonical-order key=value concatenation with the merchant secret appended.
// Deterministic for identical inputs; any single-field mutation changes it.
func Checksum(params map[string]string, order []string, secret string) string {
	var b strings.Builder
	for _, key := range order {
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(params[key])
		b.WriteByte('&')
	}
	b.WriteString(secret)
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// InitiateChecksum signs an initiation parameter set.
func InitiateChecksum(params map[string]string, secret string) string {
	return Checksum(params, initiateChecksumOrder, secret)
}

// StatusChecksum signs a status-query parameter set.
func StatusChecksum(params map[string]string, secret string) string {
	return Checksum(params, statusChecksumOrder, secret)
}

// CallbackChecksum signs the fields echoed back by the gateway callback.
func CallbackChecksum(params map[string]string, secret string) string {
	return Checksum(params, callbackChecksumOrder, secret)
}
