package simulate

import (
	"testing"

	r "github.com/stretchr/testify/require"
)

func TestNest(t *testing.T) {
	got := nest(map[string]string{
		"config.exchange": "orders",
		"config.durable":  "true",
		"routing_key":     "created",
		"retries":         "3",
	})
	r.Equal(t, map[string]any{
		"config":      map[string]any{"exchange": "orders", "durable": true},
		"routing_key": "created",
		"retries":     3,
	}, got)
}
