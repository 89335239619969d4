package response

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/waypoint/core/handler"
	"github.com/dmitrymomot/waypoint/core/router"
)

// ErrorBody is the JSON document written by JSONErrorHandler.
type ErrorBody struct {
	Status  int    `json:"status"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

type statusCode interface {
	StatusCode() int
}

type errorCode interface {
	ErrorCode() string
}

type writtenReporter interface {
	Written() bool
}

// JSONErrorHandler writes errors as JSON. Errors exposing StatusCode() keep
// their status and message; panics and all others become a generic 500 so internal
// details are not sent to clients. Nothing is written if the response has
// already started.
func JSONErrorHandler[C handler.Context](ctx C, err error) {
	w := ctx.ResponseWriter()
	if wr, ok := w.(writtenReporter); ok && wr.Written() {
		return
	}

	body := ErrorBody{
		Status:  http.StatusInternalServerError,
		Message: http.StatusText(http.StatusInternalServerError),
	}

	var pe router.PanicError
	if !errors.As(err, &pe) {
		var sc statusCode
		if errors.As(err, &sc) {
			body.Status = sc.StatusCode()
			body.Message = err.Error()
			var ec errorCode
			if errors.As(err, &ec) {
				body.Code = ec.ErrorCode()
			}
		}
	}

	_ = JSONWithStatus(body, body.Status)(w, ctx.Request())
}
