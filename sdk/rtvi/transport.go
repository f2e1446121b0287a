package rtvi

import (
	"github.com/pipecat-ai/rtvi-client-android/sdk/async"
	"github.com/pipecat-ai/rtvi-client-android/sdk/loop"
)

// AuthBundle is the opaque body returned by the connect endpoint.
type AuthBundle struct {
	Data string
}

// Transport carries media and RTVI control messages to the backend.
//
// Methods other than State may be called only from the client's loop.
type Transport interface {
	InitDevices() *async.Future[async.Unit]
	Release()

	Connect(auth AuthBundle) *async.Future[async.Unit]
	Disconnect() *async.Future[async.Unit]

	AllMics() *async.Future[[]MediaDeviceInfo]
	AllCams() *async.Future[[]MediaDeviceInfo]
	UpdateMic(id MediaDeviceID) *async.Future[async.Unit]
	UpdateCam(id MediaDeviceID) *async.Future[async.Unit]
	SelectedMic() *MediaDeviceInfo
	SelectedCam() *MediaDeviceInfo
	EnableMic(enable bool) *async.Future[async.Unit]
	EnableCam(enable bool) *async.Future[async.Unit]
	IsMicEnabled() bool
	IsCamEnabled() bool

	// Expiry is the session expiry in seconds since the UNIX epoch, or nil.
	Expiry() *int64

	SendMessage(msg ClientMessage) *async.Future[async.Unit]

	State() TransportState
	SetState(state TransportState)

	Tracks() Tracks
}

// TransportContext is what a client hands to the transport it creates.
type TransportContext struct {
	Options   *Options
	Callbacks Callbacks
	Loop      *loop.Loop
	// OnMessage delivers a received control message. It may be called from
	// any goroutine.
	OnMessage func(ServerMessage)
}

// TransportFactory builds a transport bound to ctx.
type TransportFactory func(ctx TransportContext) Transport
