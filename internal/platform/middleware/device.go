package middleware

import (
	"context"
	"net/http"

	"stagepass/internal/device"
)

type deviceKey struct{}

// Device parses the User-Agent header once per request and stores the
// resulting device description in the context for logging and scan history.
func Device(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info := device.Parse(r.UserAgent())
		ctx := context.WithValue(r.Context(), deviceKey{}, info.String())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetDevice retrieves the device description from the context, or "unknown"
// when the Device middleware did not run.
func GetDevice(ctx context.Context) string {
	if d, ok := ctx.Value(deviceKey{}).(string); ok {
		return d
	}
	return "unknown"
}
