package response

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dmitrymomot/waypoint/core/handler"
)

// JSON creates an application/json response with 200 OK status.
func JSON(v any) handler.Response {
	return JSONWithStatus(v, http.StatusOK)
}

// JSONWithStatus creates an application/json response with custom status code.
// The value is encoded before the header is written, so an encoding failure
// is returned as an error and can still be reported by the error handler.
// 204 and 304 responses are sent without a body.
func JSONWithStatus(v any, status int) handler.Response {
	return func(w http.ResponseWriter, _ *http.Request) error {
		if status == http.StatusNoContent || status == http.StatusNotModified {
			w.WriteHeader(status)
			return nil
		}

		body, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode json response: %w", err)
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(status)
		_, err = w.Write(append(body, '\n'))
		return err
	}
}
