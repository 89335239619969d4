package health

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/waypoint/core/handler"
	"github.com/dmitrymomot/waypoint/core/logger"
	"github.com/dmitrymomot/waypoint/core/router"
)

// ErrServiceUnavailable is returned by Readiness when a check fails. The
// failing check's error is logged, not sent to the client.
var ErrServiceUnavailable = &router.Error{
	Status:  http.StatusServiceUnavailable,
	Code:    "SERVICE_UNAVAILABLE",
	Message: "service unavailable",
}

// Readiness verifies all service dependencies are functioning.
// Every check runs; "READY" is returned if all pass and ErrServiceUnavailable
// otherwise.
//
// Example:
//
//	r.Get("/health/ready", health.Readiness[*router.Context](log, srv.Healthcheck))
func Readiness[C handler.Context](log *slog.Logger, checks ...func(context.Context) error) handler.HandlerFunc[C] {
	if log == nil {
		log = logger.Nop()
	}
	return func(ctx C) (any, error) {
		errs := make([]error, len(checks))
		failed := false
		for i, check := range checks {
			if errs[i] = check(ctx); errs[i] != nil {
				failed = true
			}
		}
		if failed {
			log.ErrorContext(ctx, "readiness check failed", logger.Component("health"), logger.Errors(errs...))
			return nil, ErrServiceUnavailable
		}
		return "READY", nil
	}
}
