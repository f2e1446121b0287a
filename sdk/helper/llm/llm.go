// Package llm is a helper for a bot's LLM service: it answers function calls
// and reads or changes the LLM context.
package llm

import (
	"github.com/pipecat-ai/rtvi-client-android/internal/logx"
	"github.com/pipecat-ai/rtvi-client-android/sdk/async"
	"github.com/pipecat-ai/rtvi-client-android/sdk/rtvi"
	"github.com/pipecat-ai/rtvi-client-android/sdk/value"
)

const (
	MsgFunctionCall       = "llm-function-call"
	MsgJSONCompletion     = "llm-json-completion"
	MsgFunctionCallResult = "llm-function-call-result"
)

// FunctionCall is a request from the LLM to run a client side function.
type FunctionCall struct {
	FunctionName string      `json:"function_name"`
	ToolCallID   string      `json:"tool_call_id"`
	Args         value.Value `json:"args"`
}

// FunctionCallResult is the reply to a FunctionCall.
type FunctionCallResult struct {
	FunctionName string      `json:"function_name"`
	ToolCallID   string      `json:"tool_call_id"`
	Arguments    value.Value `json:"arguments"`
	Result       value.Value `json:"result"`
}

type ContextMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Context is the conversation held by the LLM.
type Context struct {
	Messages []ContextMessage `json:"messages,omitempty"`
}

// Callbacks receives LLM events on the client loop.
type Callbacks interface {
	OnJSONCompletion(jsonString string)
	// OnFunctionCall must eventually call reply exactly once. reply may be
	// called from any goroutine.
	OnFunctionCall(call FunctionCall, reply func(result value.Value))
}

// NoopCallbacks answers every function call with an error object.
type NoopCallbacks struct{}

func (NoopCallbacks) OnJSONCompletion(string) {}

func (NoopCallbacks) OnFunctionCall(_ FunctionCall, reply func(value.Value)) {
	reply(value.ObjectOf(value.Field{Name: "error", Value: value.String("no handler registered")}))
}

// Helper implements rtvi.Helper for the LLM service.
type Helper struct {
	rtvi.HelperBase
	callbacks Callbacks
}

// New returns a helper reporting to cb. A nil cb uses NoopCallbacks.
func New(cb Callbacks) *Helper {
	if cb == nil {
		cb = NoopCallbacks{}
	}
	return &Helper{callbacks: cb}
}

func (h *Helper) MessageTypes() []string {
	return []string{MsgFunctionCall, MsgJSONCompletion}
}

func (h *Helper) HandleMessage(msg rtvi.ServerMessage) {
	switch msg.Type {
	case MsgJSONCompletion:
		s, ok := msg.Data.AsString()
		if !ok {
			s = msg.Data.String()
		}
		h.callbacks.OnJSONCompletion(s)

	case MsgFunctionCall:
		var call FunctionCall
		if err := msg.Data.Decode(&call); err != nil {
			logx.Log.Error().Err(err).Msg("invalid llm function call")
			return
		}
		h.callbacks.OnFunctionCall(call, func(result value.Value) {
			rc := h.Client()
			if rc == nil {
				logx.Log.Warn().Str("function", call.FunctionName).Msg("dropping function call result: helper unregistered")
				return
			}
			reply := rtvi.NewClientMessage(MsgFunctionCallResult, value.MustFrom(FunctionCallResult{
				FunctionName: call.FunctionName,
				ToolCallID:   call.ToolCallID,
				Arguments:    call.Args,
				Result:       result,
			}))
			rc.Client.SendMessage(reply).LogError("function call response")
		})
	}
}

// GetContext returns the bot's LLM context. The bot must be ready.
func (h *Helper) GetContext() *async.Future[Context] {
	return rtvi.WithClient(&h.HelperBase, func(rc *rtvi.RegisteredClient) *async.Future[Context] {
		return rtvi.EnsureReady(rc.Client, func() *async.Future[Context] {
			return decodeResult[Context](rc.Client, rc.Action("get_context", nil))
		})
	})
}

// SetContext replaces the LLM context. With interrupt the bot stops
// speaking first.
func (h *Helper) SetContext(ctx Context, interrupt bool) *async.Future[async.Unit] {
	msgs := ctx.Messages
	if msgs == nil {
		msgs = []ContextMessage{}
	}
	return h.readyAction("set_context", []rtvi.Option{
		rtvi.NewOption("messages", msgs),
		rtvi.NewOption("interrupt", interrupt),
	})
}

// AppendToMessages adds msg to the context. Unless runImmediately is set
// the bot waits until the pipeline is idle.
func (h *Helper) AppendToMessages(msg ContextMessage, runImmediately bool) *async.Future[async.Unit] {
	return h.readyAction("append_to_messages", []rtvi.Option{
		rtvi.NewOption("messages", []ContextMessage{msg}),
		rtvi.NewOption("run_immediately", runImmediately),
	})
}

// Run runs the current context.
func (h *Helper) Run(interrupt bool) *async.Future[async.Unit] {
	return h.readyAction("run", []rtvi.Option{rtvi.NewOption("interrupt", interrupt)})
}

func (h *Helper) readyAction(action string, args []rtvi.Option) *async.Future[async.Unit] {
	return rtvi.WithClient(&h.HelperBase, func(rc *rtvi.RegisteredClient) *async.Future[async.Unit] {
		return rtvi.EnsureReady(rc.Client, func() *async.Future[async.Unit] {
			return async.Discard(rc.Action(action, args))
		})
	})
}

func decodeResult[T any](c *rtvi.Client, f *async.Future[value.Value]) *async.Future[T] {
	return async.Chain(f, func(v value.Value) *async.Future[T] {
		var out T
		if err := v.Decode(&out); err != nil {
			return async.Failed[T](c.Loop(), err)
		}
		return async.Resolved(c.Loop(), out)
	})
}
