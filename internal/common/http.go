package common

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP picks the address rate limiting and logging should key on. The
// service runs behind an ingress that appends to X-Forwarded-For, so the
// first entry is the caller; X-Real-IP covers older proxy configs, and a
// bare RemoteAddr means the request hit the service directly.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if xff := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
		return xff
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
