package push

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-cart/internal/catalog"
	"github.com/angelmondragon/storefront-cart/pkg/logger"
	"github.com/gorilla/websocket"
)

const defaultHandshakeTimeout = 10 * time.Second

// WebSocketTransport reads stock update frames from the backend /ws/stock
// endpoint.
type WebSocketTransport struct {
	url    string
	dialer *websocket.Dialer
	logg   *logger.Logger
}

func NewWebSocketTransport(url string, logg *logger.Logger) (*WebSocketTransport, error) {
	trimmed := strings.TrimSpace(url)
	if trimmed == "" {
		return nil, fmt.Errorf("websocket url required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &WebSocketTransport{
		url: trimmed,
		dialer: &websocket.Dialer{
			HandshakeTimeout: defaultHandshakeTimeout,
		},
		logg: logg,
	}, nil
}

func (t *WebSocketTransport) Name() string {
	return "websocket"
}

func (t *WebSocketTransport) Stream(ctx context.Context, emit func(catalog.Event)) error {
	conn, _, err := t.dialer.DialContext(ctx, t.url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", t.url, err)
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			_ = conn.Close()
		case <-done:
			_ = conn.Close()
		}
	}()

	t.logg.Info(t.logg.WithField(ctx, "url", t.url), "connected to stock updates")
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return errors.New("websocket closed by server")
			}
			return fmt.Errorf("read websocket: %w", err)
		}
		handleRaw(ctx, t.logg, raw, emit)
	}
}

// handleRaw decodes one frame and emits it. Undecodable frames are logged and
// dropped.
func handleRaw(ctx context.Context, logg *logger.Logger, raw []byte, emit func(catalog.Event)) {
	event, ok, err := DecodeFrame(raw)
	if err != nil {
		logg.Warn(logg.WithField(ctx, "error", err.Error()), "dropping push frame")
		return
	}
	if !ok {
		return
	}
	emit(event)
}
