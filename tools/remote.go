package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ticketflow/conductor/llm"
	"github.com/ticketflow/conductor/telemetry"
)

// protocolVersion is the MCP protocol version advertised during the
// initialize handshake every remote tool server expects before it will
// answer tools/list or tools/call.
const protocolVersion = "2024-11-05"

type (
	// RemoteServer describes one remote MCP tool server a specialist can
	// draw tools from (spec §1's "remote tool-server discovery" external
	// collaborator).
	RemoteServer struct {
		Name string
		URL  string
	}

	// rpcRequest is a JSON-RPC 2.0 request envelope.
	rpcRequest struct {
		JSONRPC string `json:"jsonrpc"`
		Method  string `json:"method"`
		ID      uint64 `json:"id"`
		Params  any    `json:"params"`
	}

	// rpcResponse is a JSON-RPC 2.0 response envelope.
	rpcResponse struct {
		JSONRPC string          `json:"jsonrpc"`
		Result  json.RawMessage `json:"result"`
		Error   *rpcError       `json:"error"`
		ID      uint64          `json:"id"`
	}

	rpcError struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}

	// toolsListResult is the result of a tools/list call.
	toolsListResult struct {
		Tools []remoteToolDescriptor `json:"tools"`
	}

	remoteToolDescriptor struct {
		Name        string         `json:"name"`
		Description string         `json:"description"`
		InputSchema map[string]any `json:"inputSchema"`
	}

	// toolsCallResult is the result of a tools/call, MCP's tool-content
	// envelope: a list of content blocks plus an error flag.
	toolsCallResult struct {
		Content []contentItem `json:"content"`
		IsError bool          `json:"isError"`
	}

	contentItem struct {
		Type string  `json:"type"`
		Text *string `json:"text"`
	}

	// rpcTransport is the JSON-RPC-over-HTTP plumbing shared by every
	// server connection: one atomic request id counter and HTTP client per
	// server, an initialize handshake performed once at Connect.
	rpcTransport struct {
		endpoint string
		client   *http.Client
		id       uint64
	}

	// RemoteProvider is a Provider that discovers and invokes tools hosted
	// on remote MCP servers reachable over JSON-RPC 2.0 HTTP (tools/list,
	// tools/call), combined per agent type with a fallback Provider's
	// static, in-process tools (e.g. ask_user_question). A server that
	// fails its initialize handshake or tools/list call is skipped rather
	// than failing the whole provider, so one bad server never starves
	// every agent type of tools.
	RemoteProvider struct {
		logger  telemetry.Logger
		byAgent map[string][]string
		static  Provider

		mu    sync.RWMutex
		conns map[string]*rpcTransport        // by server name
		tools map[string][]remoteToolDescriptor // by server name
	}
)

func (e *rpcError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("mcp error %d: %s", e.Code, e.Message)
}

// NewRemoteProvider constructs a RemoteProvider. servers lists every known
// remote tool server; byAgent maps an agent type to the server names it may
// draw tools from; static supplies the tools every agent type keeps
// regardless of remote-server availability (may be nil).
func NewRemoteProvider(servers []RemoteServer, byAgent map[string][]string, static Provider, logger telemetry.Logger) *RemoteProvider {
	if logger == nil {
		logger = telemetry.NewNoopLogger()
	}
	conns := make(map[string]*rpcTransport, len(servers))
	for _, s := range servers {
		conns[s.Name] = &rpcTransport{endpoint: s.URL, client: &http.Client{Timeout: 10 * time.Second}}
	}
	return &RemoteProvider{
		logger:  logger,
		byAgent: byAgent,
		static:  static,
		conns:   conns,
		tools:   map[string][]remoteToolDescriptor{},
	}
}

// Connect performs the MCP initialize handshake against every configured
// server and caches its tools/list result for ToolsFor. Call once at worker
// startup; a server that can't be reached or fails to initialize is logged
// and skipped, not treated as fatal, so the rest of the fleet still starts.
func (p *RemoteProvider) Connect(ctx context.Context) error {
	for name, conn := range p.conns {
		if err := conn.initialize(ctx); err != nil {
			p.logger.Warn(ctx, "remote tool server failed to initialize, skipping", "server", name, "error", err.Error())
			continue
		}
		var list toolsListResult
		if err := conn.call(ctx, "tools/list", map[string]any{}, &list); err != nil {
			p.logger.Warn(ctx, "remote tool server tools/list failed, skipping", "server", name, "error", err.Error())
			continue
		}
		p.mu.Lock()
		p.tools[name] = list.Tools
		p.mu.Unlock()
		p.logger.Info(ctx, "discovered remote tools", "server", name, "tool_count", len(list.Tools))
	}
	return nil
}

// ToolsFor returns the combined remote + static tools available to
// agentType. Connect must be called first for remote tools to appear; an
// agentType with no configured remote servers still gets its static tools.
func (p *RemoteProvider) ToolsFor(agentType string) []llm.Tool {
	var out []llm.Tool
	if p.static != nil {
		out = append(out, p.static.ToolsFor(agentType)...)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, serverName := range p.byAgent[agentType] {
		conn, ok := p.conns[serverName]
		if !ok {
			continue
		}
		for _, d := range p.tools[serverName] {
			d := d
			conn := conn
			out = append(out, llm.Tool{
				Name:        d.Name,
				Description: d.Description,
				InputSchema: d.InputSchema,
				Invoke: func(ctx context.Context, args map[string]any) (any, error) {
					return conn.callTool(ctx, d.Name, args)
				},
			})
		}
	}
	return out
}

// HealthCheck reports, per configured server, whether its initialize
// handshake succeeds, mirroring the health probe a worker's readiness check
// would run against every remote tool server it depends on.
func (p *RemoteProvider) HealthCheck(ctx context.Context) map[string]bool {
	results := make(map[string]bool, len(p.conns))
	for name, conn := range p.conns {
		results[name] = conn.initialize(ctx) == nil
	}
	return results
}

// initialize performs the MCP handshake. It is safe to call more than once;
// servers are expected to treat repeated initialize calls as idempotent.
func (t *rpcTransport) initialize(ctx context.Context) error {
	params := map[string]any{
		"protocolVersion": protocolVersion,
		"clientInfo": map[string]any{
			"name":    "ticket-conductor",
			"version": "dev",
		},
	}
	return t.call(ctx, "initialize", params, nil)
}

// callTool invokes tools/call and normalizes the MCP content-block result
// into a plain value: JSON content decodes to its native Go shape, anything
// else is returned as the raw text block.
func (t *rpcTransport) callTool(ctx context.Context, name string, args map[string]any) (any, error) {
	params := map[string]any{
		"name":      name,
		"arguments": args,
	}
	var result toolsCallResult
	if err := t.call(ctx, "tools/call", params, &result); err != nil {
		return nil, fmt.Errorf("invoke tool %q: %w", name, err)
	}
	if result.IsError {
		return nil, fmt.Errorf("tool %q reported an error", name)
	}
	if len(result.Content) == 0 {
		return nil, errors.New("tool returned no content")
	}
	item := result.Content[0]
	if item.Text == nil {
		return nil, errors.New("tool returned no text content")
	}
	var decoded any
	if err := json.Unmarshal([]byte(*item.Text), &decoded); err == nil {
		return decoded, nil
	}
	return *item.Text, nil
}

func (t *rpcTransport) nextID() uint64 {
	return atomic.AddUint64(&t.id, 1)
}

func (t *rpcTransport) call(ctx context.Context, method string, params any, result any) error {
	reqBody := rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		ID:      t.nextID(),
		Params:  params,
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal rpc request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("rpc call %s: %w", method, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("rpc call %s: unexpected status %d", method, resp.StatusCode)
	}
	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("decode rpc response: %w", err)
	}
	if rpcResp.Error != nil {
		return rpcResp.Error
	}
	if result != nil && rpcResp.Result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("decode rpc result: %w", err)
		}
	}
	return nil
}
