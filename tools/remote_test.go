package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

// newFakeToolServer fakes an MCP server speaking JSON-RPC 2.0 over HTTP: it
// answers initialize, tools/list (one lookup_order tool) and tools/call
// (echoing the order_id argument back with a status).
func newFakeToolServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		resp := rpcResponse{JSONRPC: "2.0", ID: req.ID}
		switch req.Method {
		case "initialize":
			resp.Result = mustJSON(t, map[string]any{})
		case "tools/list":
			resp.Result = mustJSON(t, toolsListResult{
				Tools: []remoteToolDescriptor{
					{Name: "lookup_order", Description: "looks up an order by id"},
				},
			})
		case "tools/call":
			params := req.Params.(map[string]any)
			args := params["arguments"].(map[string]any)
			text := mustJSONString(t, map[string]any{"order_id": args["order_id"], "status": "shipped"})
			resp.Result = mustJSON(t, toolsCallResult{Content: []contentItem{{Type: "text", Text: &text}}})
		default:
			resp.Error = &rpcError{Code: -32601, Message: "method not found"}
		}
		_ = json.NewEncoder(w).Encode(resp)
	})
	return httptest.NewServer(mux)
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func mustJSONString(t *testing.T, v any) string {
	t.Helper()
	return string(mustJSON(t, v))
}

func TestRemoteProviderDiscoversAndInvokesTools(t *testing.T) {
	srv := newFakeToolServer(t)
	defer srv.Close()

	p := NewRemoteProvider(
		[]RemoteServer{{Name: "order_server", URL: srv.URL}},
		map[string][]string{"ORDER_SPECIALIST": {"order_server"}},
		nil, nil,
	)
	require.NoError(t, p.Connect(context.Background()))

	llmTools := p.ToolsFor("ORDER_SPECIALIST")
	require.Len(t, llmTools, 1)
	require.Equal(t, "lookup_order", llmTools[0].Name)

	result, err := llmTools[0].Invoke(context.Background(), map[string]any{"order_id": "order-1"})
	require.NoError(t, err)
	require.Equal(t, map[string]any{"order_id": "order-1", "status": "shipped"}, result)
}

func TestRemoteProviderCombinesStaticAndRemoteTools(t *testing.T) {
	srv := newFakeToolServer(t)
	defer srv.Close()

	static, err := NewStaticProvider(map[string][]Spec{"ORDER_SPECIALIST": {echoSpec("ask_user_question")}})
	require.NoError(t, err)

	p := NewRemoteProvider(
		[]RemoteServer{{Name: "order_server", URL: srv.URL}},
		map[string][]string{"ORDER_SPECIALIST": {"order_server"}},
		static, nil,
	)
	require.NoError(t, p.Connect(context.Background()))

	names := map[string]bool{}
	for _, tool := range p.ToolsFor("ORDER_SPECIALIST") {
		names[tool.Name] = true
	}
	require.True(t, names["lookup_order"])
	require.True(t, names["ask_user_question"])
}

func TestRemoteProviderSkipsUnreachableServerWithoutFailing(t *testing.T) {
	p := NewRemoteProvider(
		[]RemoteServer{{Name: "down_server", URL: "http://127.0.0.1:1"}},
		map[string][]string{"ORDER_SPECIALIST": {"down_server"}},
		nil, nil,
	)
	require.NoError(t, p.Connect(context.Background()))
	require.Empty(t, p.ToolsFor("ORDER_SPECIALIST"))
}

func TestRemoteProviderHealthCheck(t *testing.T) {
	srv := newFakeToolServer(t)
	defer srv.Close()

	p := NewRemoteProvider([]RemoteServer{{Name: "order_server", URL: srv.URL}}, nil, nil, nil)
	results := p.HealthCheck(context.Background())
	require.Equal(t, map[string]bool{"order_server": true}, results)
}
