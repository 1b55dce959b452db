package recognize

import (
	"errors"
	"fmt"
)

var (
	ErrNoStrokes   = errors.New("no strokes to recognize")
	ErrUnsupported = errors.New("operation not supported by backend")
	ErrOffline     = errors.New("offline demo backend")
	ErrNotReady    = errors.New("recognizer not ready")
	ErrClosed      = errors.New("recognizer closed")
	ErrBusy        = errors.New("recognition already in progress")
)

// HTTPError is returned when the service answers with a non-success status.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	const limit = 200
	body := e.Body
	if len(body) > limit {
		body = body[:limit] + "..."
	}
	return fmt.Sprintf("recognition service returned %d: %s", e.StatusCode, body)
}
