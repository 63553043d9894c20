package nodeclient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/rs/zerolog"
)

// BatchCaller dispatches a batch of JSON-RPC calls in one round trip.
// geth's *rpc.Client satisfies it directly; WSClient implements it over a
// dedicated WebSocket connection.
type BatchCaller interface {
	BatchCallContext(ctx context.Context, b []rpc.BatchElem) error
}

// Dial connects to a node endpoint. WebSocket URLs get the dedicated
// WebSocket client, everything else goes through geth's RPC client.
func Dial(ctx context.Context, rawURL string, messageTimeout, pingInterval time.Duration, logger zerolog.Logger) (BatchCaller, func(), error) {
	if strings.HasPrefix(rawURL, "ws://") || strings.HasPrefix(rawURL, "wss://") {
		client := NewWSClient(rawURL, messageTimeout, pingInterval, logger)
		if err := client.Connect(ctx); err != nil {
			return nil, nil, err
		}
		return client, client.Close, nil
	}

	client, err := rpc.DialContext(ctx, rawURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to node: %w", err)
	}
	return client, client.Close, nil
}
