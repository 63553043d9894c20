package nodeclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"batchcall/internal/jsonrpc"
)

// startWSServer runs a WebSocket JSON-RPC server that answers every request
// in a batch with "0x1", except method "fail" which gets an error response.
func startWSServer(t *testing.T) string {
	t.Helper()
	upgrader := websocket.Upgrader{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}

			var requests []*jsonrpc.Request
			if err := json.Unmarshal(data, &requests); err != nil {
				t.Errorf("server: bad batch: %v", err)
				return
			}

			responses := make([]*jsonrpc.Response, len(requests))
			for i, req := range requests {
				resp := &jsonrpc.Response{JSONRPC: jsonrpc.Version, ID: req.ID}
				if req.Method == "fail" {
					resp.Error = jsonrpc.NewError(jsonrpc.CodeInternalError, "execution reverted")
				} else {
					resp.Result = json.RawMessage(`"0x1"`)
				}
				responses[i] = resp
			}

			out, _ := json.Marshal(responses)
			if err := conn.WriteMessage(websocket.TextMessage, out); err != nil {
				return
			}
		}
	}))
	t.Cleanup(server.Close)

	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestWSClient_BatchCall(t *testing.T) {
	client := NewWSClient(startWSServer(t), time.Minute, 0, zerolog.Nop())
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer client.Close()

	batch := []rpc.BatchElem{
		{Method: "eth_chainId", Result: new(string)},
		{Method: "eth_blockNumber", Result: new(string)},
	}
	if err := client.BatchCallContext(context.Background(), batch); err != nil {
		t.Fatalf("BatchCallContext: %v", err)
	}

	for i := range batch {
		if batch[i].Error != nil {
			t.Errorf("elem %d error: %v", i, batch[i].Error)
		}
		if got := *batch[i].Result.(*string); got != "0x1" {
			t.Errorf("elem %d result = %q, want 0x1", i, got)
		}
	}
}

func TestWSClient_BatchCall_PerElemError(t *testing.T) {
	client := NewWSClient(startWSServer(t), time.Minute, 0, zerolog.Nop())
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer client.Close()

	batch := []rpc.BatchElem{
		{Method: "eth_chainId", Result: new(string)},
		{Method: "fail", Result: new(string)},
	}
	if err := client.BatchCallContext(context.Background(), batch); err != nil {
		t.Fatalf("BatchCallContext: %v", err)
	}

	if batch[0].Error != nil {
		t.Errorf("healthy elem got error: %v", batch[0].Error)
	}
	if batch[1].Error == nil {
		t.Error("failing elem got no error")
	}
}

func TestWSClient_EmptyBatch(t *testing.T) {
	client := NewWSClient(startWSServer(t), time.Minute, 0, zerolog.Nop())
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer client.Close()

	if err := client.BatchCallContext(context.Background(), nil); err != nil {
		t.Errorf("empty batch should be a no-op, got %v", err)
	}
}

func TestWSClient_NotConnected(t *testing.T) {
	client := NewWSClient("ws://127.0.0.1:1", time.Minute, 0, zerolog.Nop())

	batch := []rpc.BatchElem{{Method: "eth_chainId", Result: new(string)}}
	if err := client.BatchCallContext(context.Background(), batch); err == nil {
		t.Error("expected error when not connected")
	}
}
