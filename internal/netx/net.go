// Package netx holds small URL helpers shared by the client transports.
package netx

import (
	"fmt"
	"net/url"
	"strings"
)

// WebsocketBase normalizes a realtime base URL: http and https become ws and
// wss, a missing scheme becomes ws, and any trailing slash is dropped.
func WebsocketBase(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty realtime url")
	}
	if !strings.Contains(raw, "://") {
		raw = "ws://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse realtime url: %w", err)
	}

	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported realtime url scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("realtime url %q has no host", raw)
	}

	return strings.TrimRight(u.String(), "/"), nil
}
