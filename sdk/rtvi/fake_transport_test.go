package rtvi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/pipecat-ai/rtvi-client-android/sdk/async"
	"github.com/pipecat-ai/rtvi-client-android/sdk/value"
)

// fakeTransport is an in-memory Transport. replies, when set, is called for
// every sent message and its results are delivered asynchronously.
type fakeTransport struct {
	ctx TransportContext

	mu          sync.Mutex
	state       TransportState
	sent        []ClientMessage
	auth        []AuthBundle
	disconnects int
	released    bool
	mic, cam    bool
	botReady    bool
	hangSend    bool
	replies     func(ClientMessage) []ServerMessage
}

func (f *fakeTransport) factory(ctx TransportContext) Transport {
	f.ctx = ctx
	return f
}

func (f *fakeTransport) InitDevices() *async.Future[async.Unit] {
	f.SetState(StateInitializing)
	f.SetState(StateInitialized)
	return async.Resolved(f.ctx.Loop, async.Unit{})
}

func (f *fakeTransport) Release() {
	f.mu.Lock()
	f.released = true
	f.mu.Unlock()
}

func (f *fakeTransport) Connect(auth AuthBundle) *async.Future[async.Unit] {
	f.mu.Lock()
	f.auth = append(f.auth, auth)
	ready := f.botReady
	f.mu.Unlock()

	f.SetState(StateConnecting)
	f.SetState(StateConnected)
	f.ctx.Callbacks.OnConnected()
	if ready {
		go f.ctx.OnMessage(ServerMessage{
			ID:    EndOfStreamID,
			Label: MessageLabel,
			Type:  MsgBotReady,
			Data:  mustParse(`{"version":"1.0","config":[]}`),
		})
	}
	return async.Resolved(f.ctx.Loop, async.Unit{})
}

func (f *fakeTransport) Disconnect() *async.Future[async.Unit] {
	f.mu.Lock()
	f.disconnects++
	f.mu.Unlock()
	f.SetState(StateDisconnected)
	f.ctx.Callbacks.OnDisconnected()
	return async.Resolved(f.ctx.Loop, async.Unit{})
}

func (f *fakeTransport) AllMics() *async.Future[[]MediaDeviceInfo] {
	return async.Resolved(f.ctx.Loop, []MediaDeviceInfo{{ID: "mic0", Name: "Built-in"}})
}

func (f *fakeTransport) AllCams() *async.Future[[]MediaDeviceInfo] {
	return async.Resolved[[]MediaDeviceInfo](f.ctx.Loop, nil)
}

func (f *fakeTransport) UpdateMic(MediaDeviceID) *async.Future[async.Unit] {
	return async.Resolved(f.ctx.Loop, async.Unit{})
}

func (f *fakeTransport) UpdateCam(MediaDeviceID) *async.Future[async.Unit] {
	return async.Resolved(f.ctx.Loop, async.Unit{})
}

func (f *fakeTransport) SelectedMic() *MediaDeviceInfo { return nil }
func (f *fakeTransport) SelectedCam() *MediaDeviceInfo { return nil }

func (f *fakeTransport) EnableMic(enable bool) *async.Future[async.Unit] {
	f.mu.Lock()
	f.mic = enable
	f.mu.Unlock()
	f.ctx.Callbacks.OnInputsUpdated(f.IsCamEnabled(), enable)
	return async.Resolved(f.ctx.Loop, async.Unit{})
}

func (f *fakeTransport) EnableCam(enable bool) *async.Future[async.Unit] {
	f.mu.Lock()
	f.cam = enable
	f.mu.Unlock()
	return async.Resolved(f.ctx.Loop, async.Unit{})
}

func (f *fakeTransport) IsMicEnabled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mic
}

func (f *fakeTransport) IsCamEnabled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cam
}

func (f *fakeTransport) Expiry() *int64 { return nil }

func (f *fakeTransport) SendMessage(msg ClientMessage) *async.Future[async.Unit] {
	f.mu.Lock()
	if f.state != StateConnected && f.state != StateReady {
		f.mu.Unlock()
		return async.Failed[async.Unit](f.ctx.Loop, ErrTransportNotInitialized)
	}
	f.sent = append(f.sent, msg)
	replies, hang := f.replies, f.hangSend
	f.mu.Unlock()

	if hang {
		return async.NewPromise[async.Unit](f.ctx.Loop).Future()
	}
	if replies != nil {
		out := replies(msg)
		go func() {
			for _, m := range out {
				f.ctx.OnMessage(m)
			}
		}()
	}
	return async.Resolved(f.ctx.Loop, async.Unit{})
}

func (f *fakeTransport) State() TransportState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeTransport) SetState(s TransportState) {
	f.mu.Lock()
	f.state = s
	f.mu.Unlock()
	f.ctx.Callbacks.OnTransportStateChanged(s)
}

func (f *fakeTransport) Tracks() Tracks { return Tracks{} }

func (f *fakeTransport) sentMessages() []ClientMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ClientMessage(nil), f.sent...)
}

// recorder collects callbacks.
type recorder struct {
	NoopCallbacks

	mu            sync.Mutex
	backendErrors []string
	generic       []ServerMessage
	botReady      []string
	transcripts   []Transcript
	botText       []string
	states        []TransportState
}

func (r *recorder) OnBackendError(message string) {
	r.mu.Lock()
	r.backendErrors = append(r.backendErrors, message)
	r.mu.Unlock()
}

func (r *recorder) OnGenericMessage(msg ServerMessage) {
	r.mu.Lock()
	r.generic = append(r.generic, msg)
	r.mu.Unlock()
}

func (r *recorder) OnBotReady(version string, _ []ServiceConfig) {
	r.mu.Lock()
	r.botReady = append(r.botReady, version)
	r.mu.Unlock()
}

func (r *recorder) OnUserTranscript(t Transcript) {
	r.mu.Lock()
	r.transcripts = append(r.transcripts, t)
	r.mu.Unlock()
}

func (r *recorder) OnBotTranscript(text string) {
	r.mu.Lock()
	r.botText = append(r.botText, text)
	r.mu.Unlock()
}

func (r *recorder) OnTransportStateChanged(s TransportState) {
	r.mu.Lock()
	r.states = append(r.states, s)
	r.mu.Unlock()
}

func (r *recorder) errors() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.backendErrors...)
}

func (r *recorder) genericMessages() []ServerMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ServerMessage(nil), r.generic...)
}

func newTestClient(t *testing.T, baseURL string, ft *fakeTransport, cb Callbacks, mutate ...func(*Options)) *Client {
	t.Helper()
	opts := DefaultOptions(baseURL)
	for _, m := range mutate {
		m(&opts)
	}
	c := NewClient(ft.factory, cb, opts)
	t.Cleanup(c.Release)
	return c
}

func await[V any](t *testing.T, f *async.Future[V]) (V, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	v, err := f.Await(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("future did not resolve")
	}
	return v, err
}

// drain waits until every task queued on the client loop so far has run.
func drain(t *testing.T, c *Client) {
	t.Helper()
	if err := c.Loop().Call(func() {}); err != nil {
		t.Fatalf("loop call: %v", err)
	}
}

func pendingCount(t *testing.T, c *Client) int {
	t.Helper()
	var n int
	if err := c.Loop().Call(func() { n = len(c.pending) }); err != nil {
		t.Fatalf("loop call: %v", err)
	}
	return n
}

func mustParse(s string) value.Value {
	v, err := value.Parse([]byte(s))
	if err != nil {
		panic(err)
	}
	return v
}

type recordedRequest struct {
	Path   string
	Header http.Header
	Body   []byte
}

// backend is an httptest server that records requests and answers with handle.
type backend struct {
	*httptest.Server

	mu   sync.Mutex
	reqs []recordedRequest
}

func newBackend(t *testing.T, handle func(w http.ResponseWriter, r *http.Request, body []byte)) *backend {
	t.Helper()
	b := &backend{}
	b.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		b.mu.Lock()
		b.reqs = append(b.reqs, recordedRequest{Path: r.URL.Path, Header: r.Header.Clone(), Body: body})
		b.mu.Unlock()
		handle(w, r, body)
	}))
	t.Cleanup(b.Close)
	return b
}

func (b *backend) requests() []recordedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]recordedRequest(nil), b.reqs...)
}

func respond(status int, body string) func(http.ResponseWriter, *http.Request, []byte) {
	return func(w http.ResponseWriter, _ *http.Request, _ []byte) {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}
