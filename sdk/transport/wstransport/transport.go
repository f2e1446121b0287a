// Package wstransport carries RTVI control messages over a WebSocket.
//
// It has no media: device lists are empty and mic/cam flags are only
// tracked. The auth bundle returned by the connect endpoint must be
// {"ws_url": "...", "token": "..."}; the token is sent as a bearer header.
package wstransport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"github.com/pipecat-ai/rtvi-client-android/internal/logx"
	"github.com/pipecat-ai/rtvi-client-android/sdk/async"
	"github.com/pipecat-ai/rtvi-client-android/sdk/rtvi"
)

const (
	dialTimeout  = 30 * time.Second
	writeTimeout = 10 * time.Second
)

// AuthBundle is the body the connect endpoint returns for this transport.
type AuthBundle struct {
	WSURL  string `json:"ws_url"`
	Token  string `json:"token,omitempty"`
	Expiry *int64 `json:"expiry,omitempty"`
}

// Transport implements rtvi.Transport.
type Transport struct {
	ctx rtvi.TransportContext
	log zerolog.Logger

	mu     sync.Mutex
	state  rtvi.TransportState
	conn   *websocket.Conn
	cancel context.CancelFunc
	// attempt changes whenever a pending dial stops being wanted.
	attempt uint64
	done   chan struct{}
	expiry *int64
	mic    bool
	cam    bool
}

// Factory returns a factory for rtvi.NewClient.
func Factory() rtvi.TransportFactory {
	return func(ctx rtvi.TransportContext) rtvi.Transport { return New(ctx) }
}

// New creates a transport bound to ctx.
func New(ctx rtvi.TransportContext) *Transport {
	t := &Transport{ctx: ctx, log: logx.Component("wstransport")}
	if ctx.Options != nil {
		t.mic = ctx.Options.EnableMic
		t.cam = ctx.Options.EnableCam
	}
	return t
}

func (t *Transport) InitDevices() *async.Future[async.Unit] {
	t.SetState(rtvi.StateInitializing)
	t.SetState(rtvi.StateInitialized)
	t.ctx.Callbacks.OnAvailableMicsUpdated(nil)
	t.ctx.Callbacks.OnAvailableCamsUpdated(nil)
	t.ctx.Callbacks.OnInputsUpdated(t.IsCamEnabled(), t.IsMicEnabled())
	return async.Resolved(t.ctx.Loop, async.Unit{})
}

func (t *Transport) Connect(auth rtvi.AuthBundle) *async.Future[async.Unit] {
	var ab AuthBundle
	if err := json.Unmarshal([]byte(auth.Data), &ab); err != nil {
		return async.Failed[async.Unit](t.ctx.Loop, fmt.Errorf("invalid auth bundle: %w", err))
	}
	if ab.WSURL == "" {
		return async.Failed[async.Unit](t.ctx.Loop, errors.New("invalid auth bundle: missing ws_url"))
	}

	t.SetState(rtvi.StateConnecting)
	runCtx, cancel := context.WithCancel(context.Background())
	t.mu.Lock()
	if t.conn == nil && t.cancel != nil {
		t.cancel()
	}
	t.attempt++
	attempt := t.attempt
	t.cancel = cancel
	t.mu.Unlock()

	dialed := async.Go(t.ctx.Loop, func() (*websocket.Conn, error) {
		dctx, dcancel := context.WithTimeout(runCtx, dialTimeout)
		defer dcancel()
		var opts *websocket.DialOptions
		if ab.Token != "" {
			hdr := make(http.Header)
			hdr.Set("Authorization", "Bearer "+ab.Token)
			opts = &websocket.DialOptions{HTTPHeader: hdr}
		}
		conn, _, err := websocket.Dial(dctx, ab.WSURL, opts)
		return conn, err
	})
	dialed.WithErrorCallback(func(err error) {
		cancel()
		if !t.isAttempt(attempt) {
			t.log.Debug().Err(err).Str("url", ab.WSURL).Msg("abandoned dial ended")
			return
		}
		t.log.Warn().Err(err).Str("url", ab.WSURL).Msg("dial failed")
		t.SetState(rtvi.StateError)
	})
	dialed = async.MapError(dialed, func(err error) error {
		if !t.isAttempt(attempt) {
			return rtvi.ErrOperationCancelled
		}
		return err
	})
	return async.Chain(dialed, func(conn *websocket.Conn) *async.Future[async.Unit] {
		done := make(chan struct{})
		t.mu.Lock()
		if t.attempt != attempt {
			t.mu.Unlock()
			cancel()
			go func() { _ = conn.Close(websocket.StatusNormalClosure, "connect abandoned") }()
			t.log.Debug().Str("url", ab.WSURL).Msg("closing connection dialed after disconnect")
			return async.Failed[async.Unit](t.ctx.Loop, rtvi.ErrOperationCancelled)
		}
		t.conn = conn
		t.done = done
		t.expiry = ab.Expiry
		t.mu.Unlock()

		t.log.Info().Str("url", ab.WSURL).Msg("connected to bot")
		t.SetState(rtvi.StateConnected)
		t.ctx.Callbacks.OnConnected()
		go t.readLoop(runCtx, conn, done)
		return async.Resolved(t.ctx.Loop, async.Unit{})
	})
}

func (t *Transport) isAttempt(attempt uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.attempt == attempt
}

func (t *Transport) readLoop(ctx context.Context, conn *websocket.Conn, done chan struct{}) {
	defer close(done)
	for {
		typ, b, err := conn.Read(ctx)
		if err != nil {
			var ce websocket.CloseError
			switch {
			case errors.As(err, &ce):
				t.log.Debug().Int("status", int(ce.Code)).Str("reason", ce.Reason).Msg("connection closed")
			case ctx.Err() == nil:
				t.log.Warn().Err(err).Msg("read failed")
			}
			break
		}
		if typ != websocket.MessageText {
			continue
		}
		msg, err := rtvi.DecodeServerMessage(b)
		if err != nil {
			t.log.Warn().Err(err).Msg("invalid message")
			continue
		}
		t.ctx.OnMessage(msg)
	}
	t.ctx.Loop.RunOnThread(func() { t.closed(conn) })
}

// closed runs on the loop once the read loop for conn has ended.
func (t *Transport) closed(conn *websocket.Conn) {
	t.mu.Lock()
	if t.conn != conn {
		t.mu.Unlock()
		return
	}
	t.conn = nil
	if t.cancel != nil {
		t.cancel()
	}
	t.mu.Unlock()

	t.SetState(rtvi.StateDisconnected)
	t.ctx.Callbacks.OnDisconnected()
}

func (t *Transport) Disconnect() *async.Future[async.Unit] {
	t.mu.Lock()
	conn, cancel, done := t.conn, t.cancel, t.done
	if conn == nil {
		// abandon any dial still in flight
		t.attempt++
		t.cancel = nil
	}
	t.mu.Unlock()

	if conn == nil {
		if cancel != nil {
			cancel()
		}
		t.SetState(rtvi.StateDisconnected)
		t.ctx.Callbacks.OnDisconnected()
		return async.Resolved(t.ctx.Loop, async.Unit{})
	}
	return async.Go(t.ctx.Loop, func() (async.Unit, error) {
		if err := conn.Close(websocket.StatusNormalClosure, "client disconnect"); err != nil {
			t.log.Debug().Err(err).Msg("close")
		}
		cancel()
		<-done
		return async.Unit{}, nil
	})
}

func (t *Transport) Release() {
	t.mu.Lock()
	conn, cancel := t.conn, t.cancel
	t.conn = nil
	t.cancel = nil
	t.attempt++
	t.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	if conn != nil {
		_ = conn.Close(websocket.StatusGoingAway, "released")
	}
}

func (t *Transport) SendMessage(msg rtvi.ClientMessage) *async.Future[async.Unit] {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return async.Failed[async.Unit](t.ctx.Loop, rtvi.ErrTransportNotInitialized)
	}
	b, err := json.Marshal(msg)
	if err != nil {
		return async.Failed[async.Unit](t.ctx.Loop, err)
	}
	return async.Go(t.ctx.Loop, func() (async.Unit, error) {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		return async.Unit{}, conn.Write(ctx, websocket.MessageText, b)
	})
}

func (t *Transport) AllMics() *async.Future[[]rtvi.MediaDeviceInfo] {
	return async.Resolved(t.ctx.Loop, []rtvi.MediaDeviceInfo{})
}

func (t *Transport) AllCams() *async.Future[[]rtvi.MediaDeviceInfo] {
	return async.Resolved(t.ctx.Loop, []rtvi.MediaDeviceInfo{})
}

func (t *Transport) UpdateMic(id rtvi.MediaDeviceID) *async.Future[async.Unit] {
	return async.Failed[async.Unit](t.ctx.Loop, fmt.Errorf("microphone %q not found", id))
}

func (t *Transport) UpdateCam(id rtvi.MediaDeviceID) *async.Future[async.Unit] {
	return async.Failed[async.Unit](t.ctx.Loop, fmt.Errorf("camera %q not found", id))
}

func (t *Transport) SelectedMic() *rtvi.MediaDeviceInfo { return nil }
func (t *Transport) SelectedCam() *rtvi.MediaDeviceInfo { return nil }

func (t *Transport) EnableMic(enable bool) *async.Future[async.Unit] {
	t.mu.Lock()
	t.mic = enable
	cam := t.cam
	t.mu.Unlock()
	t.ctx.Callbacks.OnInputsUpdated(cam, enable)
	return async.Resolved(t.ctx.Loop, async.Unit{})
}

func (t *Transport) EnableCam(enable bool) *async.Future[async.Unit] {
	t.mu.Lock()
	t.cam = enable
	mic := t.mic
	t.mu.Unlock()
	t.ctx.Callbacks.OnInputsUpdated(enable, mic)
	return async.Resolved(t.ctx.Loop, async.Unit{})
}

func (t *Transport) IsMicEnabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mic
}

func (t *Transport) IsCamEnabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cam
}

func (t *Transport) Expiry() *int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.expiry
}

func (t *Transport) State() rtvi.TransportState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Transport) SetState(s rtvi.TransportState) {
	t.mu.Lock()
	changed := t.state != s
	t.state = s
	t.mu.Unlock()
	if changed {
		t.ctx.Callbacks.OnTransportStateChanged(s)
	}
}

func (t *Transport) Tracks() rtvi.Tracks { return rtvi.Tracks{} }
