package recognize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// State is the lifecycle position of a Handle.
type State int

const (
	StateUninitialized State = iota
	StateReady
	StateError
	StateRetrying
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	case StateRetrying:
		return "retrying"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

var ErrInvalidTransition = errors.New("invalid lifecycle transition")

var transitions = map[State][]State{
	StateUninitialized: {StateReady, StateError, StateClosed},
	StateReady:         {StateClosed},
	StateError:         {StateRetrying, StateClosed},
	StateRetrying:      {StateReady, StateError, StateClosed},
}

func canTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// RetryPolicy bounds backend initialization.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: 200 * time.Millisecond, MaxDelay: 2 * time.Second}
}

// Delay is the wait before the given retry; it doubles per attempt.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	d := p.BaseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	return d
}

// Handle owns one backend and its lifecycle:
// Uninitialized -> Ready -> (Error -> Retrying -> Ready | Closed).
type Handle struct {
	mu       sync.Mutex
	backend  Backend
	policy   RetryPolicy
	state    State
	attempts int
	lastErr  error
	sleep    func(context.Context, time.Duration) error
	log      *slog.Logger
}

func NewHandle(b Backend, policy RetryPolicy, logger *slog.Logger) *Handle {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handle{
		backend: b,
		policy:  policy,
		sleep:   sleepCtx,
		log:     logger.With("backend", b.Name()),
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (h *Handle) setState(to State) error {
	if !canTransition(h.state, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, h.state, to)
	}
	h.log.Debug("recognizer state", "from", h.state.String(), "to", to.String())
	h.state = to
	return nil
}

// Open initializes the backend, retrying with increasing delay. After
// MaxAttempts failures the handle gives up and moves to Closed. The lock is
// released during backoff; a Close in that window ends Open with ErrClosed.
func (h *Handle) Open(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch h.state {
	case StateReady:
		return nil
	case StateClosed:
		return ErrClosed
	}

	if h.state == StateError {
		if err := h.setState(StateRetrying); err != nil {
			return err
		}
	}
	for {
		h.attempts++
		err := h.backend.Init(ctx)
		if err == nil {
			return h.setState(StateReady)
		}
		h.lastErr = err
		if terr := h.setState(StateError); terr != nil {
			return terr
		}
		h.log.Warn("recognizer init failed", "attempt", h.attempts, "error", err)

		if h.attempts >= h.policy.MaxAttempts {
			if terr := h.setState(StateClosed); terr != nil {
				return terr
			}
			return fmt.Errorf("giving up after %d attempts: %w", h.attempts, err)
		}
		if terr := h.setState(StateRetrying); terr != nil {
			return terr
		}
		delay := h.policy.Delay(h.attempts)
		h.mu.Unlock()
		serr := h.sleep(ctx, delay)
		h.mu.Lock()
		if h.state == StateClosed {
			return ErrClosed
		}
		if serr != nil {
			_ = h.setState(StateError)
			return fmt.Errorf("init interrupted: %w", serr)
		}
	}
}

// Backend returns the backend if the handle is Ready.
func (h *Handle) Backend() (Backend, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	switch h.state {
	case StateReady:
		return h.backend, nil
	case StateClosed:
		return nil, ErrClosed
	}
	if h.lastErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotReady, h.lastErr)
	}
	return nil, ErrNotReady
}

func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

func (h *Handle) Attempts() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.attempts
}

// Close moves the handle to Closed and releases the backend. It is idempotent.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == StateClosed {
		return nil
	}
	h.state = StateClosed
	return h.backend.Close()
}
