package recognize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

const StatusNoStrokes = "No strokes to recognize"

// Result is what the result panel shows.
type Result struct {
	Mode   Mode   `json:"mode"`
	Text   string `json:"text"`
	Status string `json:"status"`
	// Demo is set when Text is the canned fallback.
	Demo bool `json:"demo"`
	// Err is the absorbed failure, if any.
	Err error `json:"-"`
}

// Gateway is the boundary to the recognition service.
type Gateway struct {
	mu     sync.RWMutex
	handle *Handle
	log    *slog.Logger
}

func NewGateway(h *Handle, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{handle: h, log: logger}
}

// Swap installs a new handle and closes the previous one.
func (g *Gateway) Swap(h *Handle) {
	g.mu.Lock()
	old := g.handle
	g.handle = h
	g.mu.Unlock()
	if old != nil {
		if err := old.Close(); err != nil {
			g.log.Warn("close previous recognizer", "error", err)
		}
	}
}

func (g *Gateway) Handle() *Handle {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.handle
}

// Recognize returns ErrNoStrokes without any network activity when req has no
// strokes. Every other failure is absorbed into a demo Result.
func (g *Gateway) Recognize(ctx context.Context, req Request) (Result, error) {
	if len(req.Strokes) == 0 {
		return Result{Mode: req.Mode, Status: StatusNoStrokes}, ErrNoStrokes
	}

	backend, err := g.Handle().Backend()
	if err != nil {
		return g.demo(req.Mode, err), nil
	}

	text, err := backend.Recognize(ctx, req)
	if err != nil {
		return g.demo(req.Mode, err), nil
	}
	g.log.Info("recognized", "backend", backend.Name(), "mode", string(req.Mode), "strokes", len(req.Strokes))
	return Result{
		Mode:   req.Mode,
		Text:   text,
		Status: fmt.Sprintf("Recognized %s", req.Mode),
	}, nil
}

func (g *Gateway) demo(mode Mode, err error) Result {
	status := fmt.Sprintf("Recognition failed: %s (showing demo result)", reason(err))
	if errors.Is(err, ErrOffline) {
		status = "Offline demo"
	} else {
		g.log.Warn("recognition failed, using demo result", "mode", string(mode), "error", err)
	}
	return Result{Mode: mode, Text: DemoText(mode), Status: status, Demo: true, Err: err}
}

func reason(err error) string {
	var herr *HTTPError
	switch {
	case errors.As(err, &herr):
		return fmt.Sprintf("service returned %d", herr.StatusCode)
	case errors.Is(err, ErrUnsupported):
		return "mode not supported by backend"
	case errors.Is(err, ErrClosed), errors.Is(err, ErrNotReady):
		return "recognizer not ready"
	case errors.Is(err, context.DeadlineExceeded):
		return "request timed out"
	}
	return err.Error()
}
