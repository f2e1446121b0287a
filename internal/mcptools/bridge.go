// Package mcptools answers LLM function calls with MCP tool calls.
package mcptools

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"

	"github.com/pipecat-ai/rtvi-client-android/internal/logx"
	"github.com/pipecat-ai/rtvi-client-android/sdk/helper/llm"
	"github.com/pipecat-ai/rtvi-client-android/sdk/value"
)

// DefaultCallTimeout bounds a single tool call.
const DefaultCallTimeout = 30 * time.Second

// Bridge is an llm.Callbacks implementation backed by an MCP server reached
// over streamable HTTP.
type Bridge struct {
	client  *client.Client
	tools   map[string]mcp.Tool
	log     zerolog.Logger
	timeout time.Duration
}

var _ llm.Callbacks = (*Bridge)(nil)

// Dial connects to the MCP endpoint at url and loads its tool list.
func Dial(ctx context.Context, url string) (*Bridge, error) {
	cl, err := client.NewStreamableHttpClient(url)
	if err != nil {
		return nil, err
	}
	if err := cl.Start(ctx); err != nil {
		_ = cl.Close()
		return nil, fmt.Errorf("start: %w", err)
	}
	initRes, err := cl.Initialize(ctx, mcp.InitializeRequest{})
	if err != nil {
		_ = cl.Close()
		return nil, fmt.Errorf("initialize: %w", err)
	}
	list, err := cl.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		_ = cl.Close()
		return nil, fmt.Errorf("tools/list: %w", err)
	}

	b := &Bridge{
		client:  cl,
		tools:   make(map[string]mcp.Tool, len(list.Tools)),
		log:     logx.Component("mcptools"),
		timeout: DefaultCallTimeout,
	}
	for _, t := range list.Tools {
		b.tools[t.Name] = t
	}
	b.log.Info().Str("server", initRes.ServerInfo.Name).Int("tools", len(b.tools)).Msg("mcp server connected")
	return b, nil
}

// Tools returns the tool names, sorted.
func (b *Bridge) Tools() []string {
	names := make([]string, 0, len(b.tools))
	for n := range b.tools {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (b *Bridge) OnJSONCompletion(s string) {
	b.log.Debug().Str("completion", s).Msg("llm json completion")
}

// OnFunctionCall runs the tool named by the call off the client loop.
func (b *Bridge) OnFunctionCall(call llm.FunctionCall, reply func(value.Value)) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
		defer cancel()
		reply(b.Call(ctx, call.FunctionName, call.Args))
	}()
}

// Call invokes tool with args. Failures are reported as {"error": "..."}.
func (b *Bridge) Call(ctx context.Context, tool string, args value.Value) value.Value {
	if _, ok := b.tools[tool]; !ok {
		return errorResult(fmt.Sprintf("unknown tool %s", tool))
	}
	arguments := map[string]any{}
	if m, ok := args.Any().(map[string]any); ok {
		arguments = m
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = tool
	req.Params.Arguments = arguments
	start := time.Now()
	res, err := b.client.CallTool(ctx, req)
	if err != nil {
		b.log.Warn().Err(err).Str("tool", tool).Msg("tool call failed")
		return errorResult(err.Error())
	}

	var parts []string
	for _, c := range res.Content {
		switch tc := c.(type) {
		case mcp.TextContent:
			parts = append(parts, tc.Text)
		case *mcp.TextContent:
			parts = append(parts, tc.Text)
		}
	}
	text := strings.Join(parts, "\n")
	b.log.Debug().Str("tool", tool).Dur("elapsed", time.Since(start)).Bool("is_error", res.IsError).Msg("tool call")
	if res.IsError {
		return errorResult(text)
	}
	return value.String(text)
}

// Close ends the MCP session.
func (b *Bridge) Close() error { return b.client.Close() }

func errorResult(msg string) value.Value {
	return value.ObjectOf(value.Field{Name: "error", Value: value.String(msg)})
}
