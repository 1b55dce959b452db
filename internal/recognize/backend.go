package recognize

import (
	"context"
	"image"

	"InkBoard/internal/state"
)

// Request is everything a backend may need to recognize one page.
type Request struct {
	Mode    Mode
	Strokes []state.Stroke
	Width   int
	Height  int
	// Snapshot is the page rendered from committed strokes only.
	Snapshot image.Image
}

// Backend is the capability set of a recognition service. Backends that lack
// an operation embed Unsupported instead of being probed at runtime.
type Backend interface {
	Name() string
	Init(ctx context.Context) error
	Recognize(ctx context.Context, req Request) (string, error)
	Close() error
}

// Unsupported provides no-op lifecycle methods and a Recognize that always
// reports ErrUnsupported.
type Unsupported struct{}

func (Unsupported) Init(context.Context) error { return nil }

func (Unsupported) Recognize(context.Context, Request) (string, error) {
	return "", ErrUnsupported
}

func (Unsupported) Close() error { return nil }

// Demo never talks to a service.
type Demo struct {
	Unsupported
}

func (Demo) Name() string { return "demo" }

func (Demo) Recognize(context.Context, Request) (string, error) {
	return "", ErrOffline
}
