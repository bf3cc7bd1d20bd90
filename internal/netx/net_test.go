package netx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebsocketBase(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"ws kept", "ws://localhost:8080", "ws://localhost:8080"},
		{"wss kept", "wss://rt.example.com", "wss://rt.example.com"},
		{"http becomes ws", "http://localhost:8080/", "ws://localhost:8080"},
		{"https becomes wss", "https://rt.example.com/base/", "wss://rt.example.com/base"},
		{"no scheme", "127.0.0.1:8080", "ws://127.0.0.1:8080"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := WebsocketBase(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWebsocketBase_Errors(t *testing.T) {
	for _, in := range []string{"", "   ", "ftp://host", "ws://"} {
		_, err := WebsocketBase(in)
		assert.Error(t, err, in)
	}
}
