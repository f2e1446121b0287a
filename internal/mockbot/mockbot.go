// Package mockbot is an in-process RTVI backend. It issues WebSocket auth
// bundles from the connect endpoint, answers control messages over the
// socket and streams single-turn action replies as server-sent events.
package mockbot

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/pipecat-ai/rtvi-client-android/internal/logx"
	"github.com/pipecat-ai/rtvi-client-android/internal/metrics"
	"github.com/pipecat-ai/rtvi-client-android/sdk/rtvi"
	"github.com/pipecat-ai/rtvi-client-android/sdk/value"
)

// DefaultVersion is reported in bot-ready when Options.Version is empty.
const DefaultVersion = "0.2.0"

// ErrNoSession is returned by Push when no client is connected.
var ErrNoSession = errors.New("no connected session")

// ActionHandler runs an action and returns its result.
type ActionHandler func(ctx context.Context, args []rtvi.Option) (value.Value, error)

// Options configure a Bot.
type Options struct {
	Version      string
	Config       []rtvi.ServiceConfig
	Descriptions []rtvi.ServiceConfigDescription
	Endpoints    rtvi.Endpoints

	// AllowedOrigins enables CORS for browser clients.
	AllowedOrigins []string

	// Registry, when set, is served on /metrics.
	Registry *prometheus.Registry
}

type registeredAction struct {
	desc    rtvi.ActionDescription
	handler ActionHandler
}

// Bot is a mock RTVI backend.
type Bot struct {
	opts Options
	log  zerolog.Logger

	mu       sync.Mutex
	config   []rtvi.ServiceConfig
	actions  []registeredAction
	tokens   map[string]struct{}
	sessions map[*websocket.Conn]struct{}
	received []rtvi.ClientMessage
	auth     []value.Value
}

// New creates a bot with the given options.
func New(opts Options) *Bot {
	if opts.Version == "" {
		opts.Version = DefaultVersion
	}
	def := rtvi.DefaultEndpoints()
	if opts.Endpoints.Connect == "" {
		opts.Endpoints.Connect = def.Connect
	}
	if opts.Endpoints.Action == "" {
		opts.Endpoints.Action = def.Action
	}
	return &Bot{
		opts:     opts,
		log:      logx.Component("mockbot"),
		config:   cloneConfig(opts.Config),
		tokens:   make(map[string]struct{}),
		sessions: make(map[*websocket.Conn]struct{}),
	}
}

// HandleAction registers h for desc.Service and desc.Action, replacing any
// earlier handler.
func (b *Bot) HandleAction(desc rtvi.ActionDescription, h ActionHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, a := range b.actions {
		if a.desc.Service == desc.Service && a.desc.Action == desc.Action {
			b.actions[i] = registeredAction{desc: desc, handler: h}
			return
		}
	}
	b.actions = append(b.actions, registeredAction{desc: desc, handler: h})
}

// Handler returns the HTTP handler serving the bot.
func (b *Bot) Handler() http.Handler {
	r := chi.NewRouter()
	if len(b.opts.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: b.opts.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"*"},
		}))
	}
	r.Post(b.opts.Endpoints.Connect, b.handleConnect)
	r.Post(b.opts.Endpoints.Action, b.handleAction)
	r.Get("/ws", b.handleWS)
	if b.opts.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(b.opts.Registry, promhttp.HandlerOpts{}))
	}
	return r
}

// Config returns the current bot configuration.
func (b *Bot) Config() []rtvi.ServiceConfig {
	b.mu.Lock()
	defer b.mu.Unlock()
	return cloneConfig(b.config)
}

// Received returns every client message seen so far, in arrival order.
func (b *Bot) Received() []rtvi.ClientMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]rtvi.ClientMessage(nil), b.received...)
}

// AuthRequests returns the bodies posted to the connect endpoint.
func (b *Bot) AuthRequests() []value.Value {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]value.Value(nil), b.auth...)
}

// Push sends msg to every connected session.
func (b *Bot) Push(ctx context.Context, msg rtvi.ServerMessage) error {
	b.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(b.sessions))
	for c := range b.sessions {
		conns = append(conns, c)
	}
	b.mu.Unlock()
	if len(conns) == 0 {
		return ErrNoSession
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	for _, c := range conns {
		if err := c.Write(ctx, websocket.MessageText, data); err != nil {
			return err
		}
	}
	return nil
}

// Close ends every open session.
func (b *Bot) Close() {
	b.mu.Lock()
	conns := b.sessions
	b.sessions = make(map[*websocket.Conn]struct{})
	b.mu.Unlock()
	for c := range conns {
		_ = c.Close(websocket.StatusGoingAway, "bot shutting down")
	}
}

func (b *Bot) handleConnect(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "read error", http.StatusBadRequest)
		return
	}
	req, err := value.Parse(body)
	if err != nil || req.Kind() != value.KindObject {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	token := uuid.NewString()
	b.mu.Lock()
	b.auth = append(b.auth, req)
	b.tokens[token] = struct{}{}
	b.mu.Unlock()

	scheme := "ws"
	if r.TLS != nil {
		scheme = "wss"
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"ws_url": fmt.Sprintf("%s://%s/ws", scheme, r.Host),
		"token":  token,
	})
}

func (b *Bot) authorized(r *http.Request) bool {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if token == "" {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.tokens[token]
	return ok
}

func (b *Bot) handleWS(w http.ResponseWriter, r *http.Request) {
	if !b.authorized(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	c, err := websocket.Accept(w, r, nil)
	if err != nil {
		return
	}
	ctx := r.Context()

	b.mu.Lock()
	b.sessions[c] = struct{}{}
	b.mu.Unlock()
	metrics.AddBotSessions(1)
	b.log.Info().Str("remote", r.RemoteAddr).Msg("session opened")
	defer func() {
		b.mu.Lock()
		delete(b.sessions, c)
		b.mu.Unlock()
		metrics.AddBotSessions(-1)
		_ = c.Close(websocket.StatusNormalClosure, "closing")
		b.log.Info().Str("remote", r.RemoteAddr).Msg("session closed")
	}()

	ready := message(rtvi.EndOfStreamID, rtvi.MsgBotReady, rtvi.BotReadyData{
		Version: b.opts.Version,
		Config:  b.Config(),
	})
	if err := write(ctx, c, ready); err != nil {
		return
	}

	for {
		typ, data, err := c.Read(ctx)
		if err != nil {
			return
		}
		if typ != websocket.MessageText {
			continue
		}
		var msg rtvi.ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			b.log.Warn().Err(err).Msg("invalid client message")
			continue
		}
		b.record(msg)
		if resp, ok := b.respond(ctx, msg); ok {
			if err := write(ctx, c, resp); err != nil {
				return
			}
		}
	}
}

func (b *Bot) handleAction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Actions []rtvi.ClientMessage `json:"actions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Actions) == 0 {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for _, msg := range req.Actions {
		b.record(msg)
		resp, ok := b.respond(r.Context(), msg)
		if !ok {
			continue
		}
		data, err := json.Marshal(resp)
		if err != nil {
			b.log.Error().Err(err).Msg("encode reply")
			return
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", base64.StdEncoding.EncodeToString(data)); err != nil {
			return
		}
		flusher.Flush()
	}
}

func (b *Bot) record(msg rtvi.ClientMessage) {
	metrics.RecordBotMessage(msg.Type)
	b.log.Debug().Str("type", msg.Type).Str("id", msg.ID).Msg("client message")
	b.mu.Lock()
	b.received = append(b.received, msg)
	b.mu.Unlock()
}

// respond builds the reply to msg. Messages that expect no reply report false.
func (b *Bot) respond(ctx context.Context, msg rtvi.ClientMessage) (rtvi.ServerMessage, bool) {
	switch msg.Type {
	case rtvi.MsgDescribeConfig:
		return message(msg.ID, rtvi.MsgConfigAvailable, rtvi.ConfigAvailableData{Config: b.opts.Descriptions}), true

	case rtvi.MsgGetConfig:
		return message(msg.ID, rtvi.MsgConfig, rtvi.Config{Config: b.Config()}), true

	case rtvi.MsgUpdateConfig:
		var update []rtvi.ServiceConfig
		if err := decodeData(msg, &update); err != nil {
			return errorResponse(msg.ID, err.Error()), true
		}
		return message(msg.ID, rtvi.MsgConfig, rtvi.Config{Config: b.merge(update)}), true

	case rtvi.MsgDescribeActions:
		b.mu.Lock()
		descs := make([]rtvi.ActionDescription, 0, len(b.actions))
		for _, a := range b.actions {
			descs = append(descs, a.desc)
		}
		b.mu.Unlock()
		return message(msg.ID, rtvi.MsgActionsAvailable, rtvi.ActionsAvailableData{Actions: descs}), true

	case rtvi.MsgAction:
		var data rtvi.ActionData
		if err := decodeData(msg, &data); err != nil {
			return errorResponse(msg.ID, err.Error()), true
		}
		h := b.handler(data.Service, data.Action)
		if h == nil {
			return errorResponse(msg.ID, fmt.Sprintf("unknown action %s:%s", data.Service, data.Action)), true
		}
		result, err := h(ctx, data.Arguments)
		if err != nil {
			return errorResponse(msg.ID, err.Error()), true
		}
		return message(msg.ID, rtvi.MsgActionResponse, rtvi.ActionResponseData{Result: result}), true
	}
	return rtvi.ServerMessage{}, false
}

func (b *Bot) handler(service, action string) ActionHandler {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, a := range b.actions {
		if a.desc.Service == service && a.desc.Action == action {
			return a.handler
		}
	}
	return nil
}

// merge applies update option by option and returns the resulting config.
func (b *Bot) merge(update []rtvi.ServiceConfig) []rtvi.ServiceConfig {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sc := range update {
		i := indexOfService(b.config, sc.Service)
		if i < 0 {
			b.config = append(b.config, rtvi.ServiceConfig{Service: sc.Service})
			i = len(b.config) - 1
		}
		for _, opt := range sc.Options {
			b.config[i].Options = setOption(b.config[i].Options, opt)
		}
	}
	return cloneConfig(b.config)
}

func indexOfService(cfg []rtvi.ServiceConfig, service string) int {
	for i, sc := range cfg {
		if sc.Service == service {
			return i
		}
	}
	return -1
}

func setOption(opts []rtvi.Option, opt rtvi.Option) []rtvi.Option {
	for i, o := range opts {
		if o.Name == opt.Name {
			opts[i] = opt
			return opts
		}
	}
	return append(opts, opt)
}

func cloneConfig(cfg []rtvi.ServiceConfig) []rtvi.ServiceConfig {
	out := make([]rtvi.ServiceConfig, len(cfg))
	for i, sc := range cfg {
		out[i] = rtvi.ServiceConfig{Service: sc.Service, Options: append([]rtvi.Option(nil), sc.Options...)}
	}
	return out
}

func decodeData(msg rtvi.ClientMessage, dst any) error {
	if msg.Data == nil {
		return fmt.Errorf("%s: missing data", msg.Type)
	}
	if err := msg.Data.Decode(dst); err != nil {
		return fmt.Errorf("%s: %w", msg.Type, err)
	}
	return nil
}

func message(id, typ string, data any) rtvi.ServerMessage {
	return rtvi.ServerMessage{ID: id, Label: rtvi.MessageLabel, Type: typ, Data: value.MustFrom(data)}
}

func errorResponse(id, text string) rtvi.ServerMessage {
	return message(id, rtvi.MsgErrorResponse, rtvi.ErrorData{Error: text})
}

func write(ctx context.Context, c *websocket.Conn, msg rtvi.ServerMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return c.Write(ctx, websocket.MessageText, data)
}
