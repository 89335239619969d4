package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/dmitrymomot/waypoint/core/handler"
)

// clientIPContextKey is used as a key for storing client IP in request context.
type clientIPContextKey struct{}

// ClientIPConfig configures the client IP extraction middleware.
type ClientIPConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(ctx handler.Context) bool
	// TrustProxyHeaders reads X-Forwarded-For and X-Real-Ip (default: true via ClientIP)
	TrustProxyHeaders bool
}

// ClientIP creates a client IP middleware that trusts proxy headers.
func ClientIP[C handler.Context]() handler.Middleware[C] {
	return ClientIPWithConfig[C](ClientIPConfig{TrustProxyHeaders: true})
}

// ClientIPWithConfig creates a client IP middleware with custom configuration.
// The resolved address is stored in the context for GetClientIP.
func ClientIPWithConfig[C handler.Context](cfg ClientIPConfig) handler.Middleware[C] {
	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) (any, error) {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return next(ctx)
			}

			ctx.SetValue(clientIPContextKey{}, resolveIP(ctx.Request(), cfg.TrustProxyHeaders))
			return next(ctx)
		}
	}
}

// GetClientIP returns the client IP stored by the ClientIP middleware,
// falling back to the request's remote address.
func GetClientIP(ctx handler.Context) string {
	if ip, ok := ctx.Value(clientIPContextKey{}).(string); ok && ip != "" {
		return ip
	}
	return remoteIP(ctx.Request())
}

// resolveIP walks X-Forwarded-For and X-Real-Ip from right to left and takes
// the first public address, which is the one right before our proxy.
func resolveIP(r *http.Request, trustHeaders bool) string {
	if trustHeaders {
		for _, h := range []string{"X-Forwarded-For", "X-Real-Ip"} {
			addresses := strings.Split(r.Header.Get(h), ",")
			for i := len(addresses) - 1; i >= 0; i-- {
				ip := net.ParseIP(strings.TrimSpace(addresses[i]))
				if ip == nil || !ip.IsGlobalUnicast() || ip.IsPrivate() {
					continue
				}
				return ip.String()
			}
		}
	}
	return remoteIP(r)
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
