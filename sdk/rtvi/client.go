package rtvi

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/pipecat-ai/rtvi-client-android/internal/logx"
	"github.com/pipecat-ai/rtvi-client-android/sdk/async"
	"github.com/pipecat-ai/rtvi-client-android/sdk/loop"
)

// Client is an RTVI session with a backend.
//
// Every exported method may be called from any goroutine. Futures returned by
// the client deliver their results on the client's loop, as do all callbacks.
type Client struct {
	loop     *loop.Loop
	ownsLoop bool

	options    Options
	callbacks  *Fanout
	transport  Transport
	httpClient *http.Client
	instr      Instrumentation
	log        zerolog.Logger

	// Owned by the loop.
	helpers    []*registeredHelper
	pending    map[string]pendingResponse
	connection *connection
	generation uint64
}

// connection is one connect attempt. Attempts are compared by generation.
type connection struct {
	generation uint64
	ready      *async.Promise[async.Unit]
}

// NewClient creates a client with its own loop.
func NewClient(factory TransportFactory, callbacks Callbacks, opts Options) *Client {
	c := NewClientOnLoop(loop.New(), factory, callbacks, opts)
	c.ownsLoop = true
	return c
}

// NewClientOnLoop creates a client bound to an existing loop.
func NewClientOnLoop(l *loop.Loop, factory TransportFactory, callbacks Callbacks, opts Options) *Client {
	c := &Client{
		loop:       l,
		options:    opts,
		httpClient: opts.HTTPClient,
		instr:      opts.Instrumentation,
		pending:    make(map[string]pendingResponse),
		log:        logx.Component("rtvi"),
	}
	if c.httpClient == nil {
		c.httpClient = newHTTPClient()
	}
	if c.instr == nil {
		c.instr = noopInstrumentation{}
	}
	c.callbacks = NewFanout(&engineListener{c: c}, callbacks)
	c.transport = factory(TransportContext{
		Options:   &c.options,
		Callbacks: c.callbacks,
		Loop:      l,
		OnMessage: c.onMessage,
	})
	return c
}

// engineListener keeps client bookkeeping in step with transport events. It
// runs before any caller supplied listener.
type engineListener struct {
	NoopCallbacks
	c *Client
}

func (e *engineListener) OnDisconnected() {
	e.c.loop.RunOnThread(func() {
		e.c.discardWaitingResponses()
		if conn := e.c.connection; conn != nil {
			conn.ready.ResolveErr(ErrOperationCancelled)
		}
		e.c.connection = nil
	})
}

func (e *engineListener) OnTransportStateChanged(s TransportState) {
	e.c.instr.StateChanged(s)
}

// Loop returns the loop callbacks and futures run on.
func (c *Client) Loop() *loop.Loop { return c.loop }

// AddListener adds another callbacks listener.
func (c *Client) AddListener(l Callbacks) { c.callbacks.Add(l) }

// InitDevices initializes local media devices.
func (c *Client) InitDevices() *async.Future[async.Unit] {
	return async.RunOnLoop(c.loop, c.transport.InitDevices)
}

// Start is the former name of Connect.
//
// Deprecated: use Connect.
func (c *Client) Start() *async.Future[async.Unit] { return c.Connect() }

// Connect authorizes with the backend, connects the transport and waits for
// the bot to report ready. On failure the session is disconnected.
func (c *Client) Connect() *async.Future[async.Unit] {
	return async.RunOnLoop(c.loop, func() *async.Future[async.Unit] {
		if c.connection != nil {
			return async.Failed[async.Unit](c.loop, ErrPreviousConnectionStillActive)
		}

		c.transport.SetState(StateAuthorizing)

		cd := c.options.connectionData()
		body, err := json.Marshal(cd.authBody(c.options.Services))
		if err != nil {
			return async.Failed[async.Unit](c.loop, err)
		}

		c.generation++
		conn := &connection{generation: c.generation, ready: async.NewPromise[async.Unit](c.loop)}
		c.connection = conn

		url := c.options.Params.BaseURL + c.options.endpoints().Connect
		c.log.Debug().Str("url", url).Uint64("attempt", conn.generation).Msg("authorizing")

		auth := post(c.loop, c.httpClient, url, body, cd.headers, nil)
		connected := async.Chain(auth, func(bundle string) *async.Future[async.Unit] {
			if !c.isCurrent(conn) {
				return async.Failed[async.Unit](c.loop, ErrOperationCancelled)
			}
			return c.transport.Connect(AuthBundle{Data: bundle})
		})
		ready := async.Chain(connected, func(async.Unit) *async.Future[async.Unit] {
			return conn.ready.Future()
		})
		return async.WithTimeout(ready, c.options.connectTimeout()).WithCallback(func(r async.Result[async.Unit]) {
			c.instr.ConnectCompleted(r.Err)
			if r.Err == nil {
				return
			}
			c.log.Warn().Err(r.Err).Uint64("attempt", conn.generation).Msg("connect failed")
			if c.isCurrent(conn) {
				c.connection = nil
				c.Disconnect().LogError("disconnect after failed connect")
			}
		})
	})
}

func (c *Client) isCurrent(conn *connection) bool {
	return c.connection != nil && c.connection.generation == conn.generation
}

// Disconnect ends the session.
func (c *Client) Disconnect() *async.Future[async.Unit] {
	return async.RunOnLoop(c.loop, c.transport.Disconnect)
}

// SendMessage sends msg over the transport without waiting for a reply.
func (c *Client) SendMessage(msg ClientMessage) *async.Future[async.Unit] {
	return async.RunOnLoop(c.loop, func() *async.Future[async.Unit] {
		return c.transport.SendMessage(msg)
	})
}

// State returns the transport state.
func (c *Client) State() TransportState { return c.transport.State() }

func (c *Client) AllMics() *async.Future[[]MediaDeviceInfo] {
	return async.RunOnLoop(c.loop, c.transport.AllMics)
}

func (c *Client) AllCams() *async.Future[[]MediaDeviceInfo] {
	return async.RunOnLoop(c.loop, c.transport.AllCams)
}

func (c *Client) UpdateMic(id MediaDeviceID) *async.Future[async.Unit] {
	return async.RunOnLoop(c.loop, func() *async.Future[async.Unit] { return c.transport.UpdateMic(id) })
}

func (c *Client) UpdateCam(id MediaDeviceID) *async.Future[async.Unit] {
	return async.RunOnLoop(c.loop, func() *async.Future[async.Unit] { return c.transport.UpdateCam(id) })
}

func (c *Client) EnableMic(enable bool) *async.Future[async.Unit] {
	return async.RunOnLoop(c.loop, func() *async.Future[async.Unit] { return c.transport.EnableMic(enable) })
}

func (c *Client) EnableCam(enable bool) *async.Future[async.Unit] {
	return async.RunOnLoop(c.loop, func() *async.Future[async.Unit] { return c.transport.EnableCam(enable) })
}

func (c *Client) SelectedMic() *MediaDeviceInfo { return onLoop(c, c.transport.SelectedMic) }
func (c *Client) SelectedCam() *MediaDeviceInfo { return onLoop(c, c.transport.SelectedCam) }
func (c *Client) IsMicEnabled() bool            { return onLoop(c, c.transport.IsMicEnabled) }
func (c *Client) IsCamEnabled() bool            { return onLoop(c, c.transport.IsCamEnabled) }

// Expiry is the session expiry in seconds since the UNIX epoch, if known.
func (c *Client) Expiry() *int64 { return onLoop(c, c.transport.Expiry) }

// Tracks returns the media tracks of the session participants.
func (c *Client) Tracks() Tracks { return onLoop(c, c.transport.Tracks) }

// Release fails every pending request, releases the transport and stops a
// loop created by NewClient.
func (c *Client) Release() {
	err := c.loop.Call(func() {
		c.discardWaitingResponses()
		c.transport.Release()
	})
	if err != nil {
		c.log.Debug().Err(err).Msg("release on closed loop")
	}
	if c.ownsLoop {
		c.loop.Close()
	}
}

// onLoop reads transport state from the loop. A closed loop yields the zero value.
func onLoop[T any](c *Client, fn func() T) T {
	var out T
	_ = c.loop.Call(func() { out = fn() })
	return out
}
