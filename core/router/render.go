package router

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dmitrymomot/waypoint/core/handler"
)

// statusProvider is implemented by contexts that let handlers choose the
// status of a converted response. Custom contexts get it by embedding *Context.
type statusProvider interface {
	ResponseStatus() int
}

// toResponse converts a chain result into a renderable response.
func toResponse(v any, status int) (handler.Response, error) {
	switch val := v.(type) {
	case nil:
		return nil, ErrNilResponse
	case handler.Response:
		if val == nil {
			return nil, ErrNilResponse
		}
		return val, nil
	case func(http.ResponseWriter, *http.Request) error:
		if val == nil {
			return nil, ErrNilResponse
		}
		return val, nil
	case string:
		return textResponse([]byte(val), status), nil
	case []byte:
		return textResponse(val, status), nil
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, bool:
		return textResponse(fmt.Append(nil, val), status), nil
	default:
		return jsonResponse(val, status), nil
	}
}

func textResponse(content []byte, status int) handler.Response {
	return func(w http.ResponseWriter, r *http.Request) error {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		if len(content) > 0 {
			_, err := w.Write(content)
			return err
		}
		return nil
	}
}

// jsonResponse encodes before writing the header so an encoding failure can
// still be reported through the error handler.
func jsonResponse(v any, status int) handler.Response {
	return func(w http.ResponseWriter, r *http.Request) error {
		body, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode response: %w", err)
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		_, err = w.Write(append(body, '\n'))
		return err
	}
}
