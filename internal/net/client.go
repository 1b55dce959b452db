package net

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gorilla/websocket"

	"InkBoard/internal/state"
)

// IsShareLink reports whether arg is an inkboard:// link.
func IsShareLink(arg string) bool {
	return strings.HasPrefix(arg, ShareScheme)
}

// FeedURL turns a share link into the host's websocket feed URL.
func FeedURL(link string) (string, error) {
	address := strings.TrimSuffix(strings.TrimPrefix(link, ShareScheme), "/")
	if address == "" || address == link {
		return "", fmt.Errorf("invalid share link %q", link)
	}
	return "ws://" + address + "/ws", nil
}

// Follow connects to a share host and hands every op to apply until ctx is
// done or the host goes away.
func Follow(ctx context.Context, link string, apply func(state.Op), logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	url, err := FeedURL(link)
	if err != nil {
		return err
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("connect to host: %w", err)
	}
	defer conn.Close()
	logger.Info("following share host", "url", url)

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		var op state.Op
		if err := conn.ReadJSON(&op); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read from host: %w", err)
		}
		logger.Debug("received op", "type", string(op.Type), "lamport", op.Lamport)
		apply(op)
	}
}
