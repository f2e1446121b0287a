package rtvi

import "sync"

// Callbacks receives session events. All methods run on the client loop.
//
// Embed NoopCallbacks to implement only the events of interest.
type Callbacks interface {
	OnConnected()
	OnDisconnected()
	OnTransportStateChanged(state TransportState)
	OnBotConnected(p Participant)
	OnBotReady(version string, config []ServiceConfig)
	OnBackendError(message string)
	OnBotDisconnected(p Participant)
	OnParticipantJoined(p Participant)
	OnParticipantLeft(p Participant)
	OnAvailableCamsUpdated(cams []MediaDeviceInfo)
	OnAvailableMicsUpdated(mics []MediaDeviceInfo)
	OnUserAudioLevel(level float32)
	OnRemoteAudioLevel(level float32, p Participant)
	OnBotStartedSpeaking()
	OnBotStoppedSpeaking()
	OnUserStartedSpeaking()
	OnUserStoppedSpeaking()
	OnPipecatMetrics(m PipecatMetrics)
	OnUserTranscript(t Transcript)
	OnBotTranscript(text string)
	OnBotLLMText(d BotLLMText)
	OnBotTTSText(d BotTTSText)
	OnStorageItemStored(d StorageItemStored)
	OnGenericMessage(msg ServerMessage)
	OnInputsUpdated(camera, mic bool)
	OnTracksUpdated(t Tracks)
}

// NoopCallbacks ignores every event.
type NoopCallbacks struct{}

func (NoopCallbacks) OnConnected()                             {}
func (NoopCallbacks) OnDisconnected()                          {}
func (NoopCallbacks) OnTransportStateChanged(TransportState)   {}
func (NoopCallbacks) OnBotConnected(Participant)               {}
func (NoopCallbacks) OnBotReady(string, []ServiceConfig)       {}
func (NoopCallbacks) OnBackendError(string)                    {}
func (NoopCallbacks) OnBotDisconnected(Participant)            {}
func (NoopCallbacks) OnParticipantJoined(Participant)          {}
func (NoopCallbacks) OnParticipantLeft(Participant)            {}
func (NoopCallbacks) OnAvailableCamsUpdated([]MediaDeviceInfo) {}
func (NoopCallbacks) OnAvailableMicsUpdated([]MediaDeviceInfo) {}
func (NoopCallbacks) OnUserAudioLevel(float32)                 {}
func (NoopCallbacks) OnRemoteAudioLevel(float32, Participant)  {}
func (NoopCallbacks) OnBotStartedSpeaking()                    {}
func (NoopCallbacks) OnBotStoppedSpeaking()                    {}
func (NoopCallbacks) OnUserStartedSpeaking()                   {}
func (NoopCallbacks) OnUserStoppedSpeaking()                   {}
func (NoopCallbacks) OnPipecatMetrics(PipecatMetrics)          {}
func (NoopCallbacks) OnUserTranscript(Transcript)              {}
func (NoopCallbacks) OnBotTranscript(string)                   {}
func (NoopCallbacks) OnBotLLMText(BotLLMText)                  {}
func (NoopCallbacks) OnBotTTSText(BotTTSText)                  {}
func (NoopCallbacks) OnStorageItemStored(StorageItemStored)    {}
func (NoopCallbacks) OnGenericMessage(ServerMessage)           {}
func (NoopCallbacks) OnInputsUpdated(bool, bool)               {}
func (NoopCallbacks) OnTracksUpdated(Tracks)                   {}

// Fanout forwards every event to an ordered list of listeners.
type Fanout struct {
	mu        sync.RWMutex
	listeners []Callbacks
}

// NewFanout returns a fan-out over the given listeners, nil entries skipped.
func NewFanout(listeners ...Callbacks) *Fanout {
	f := &Fanout{}
	for _, l := range listeners {
		f.Add(l)
	}
	return f
}

// Add appends a listener. It sees events dispatched after Add returns.
func (f *Fanout) Add(l Callbacks) {
	if l == nil {
		return
	}
	f.mu.Lock()
	f.listeners = append(f.listeners, l)
	f.mu.Unlock()
}

func (f *Fanout) each(fn func(Callbacks)) {
	f.mu.RLock()
	ls := f.listeners
	f.mu.RUnlock()
	for _, l := range ls {
		fn(l)
	}
}

func (f *Fanout) OnConnected()    { f.each(func(l Callbacks) { l.OnConnected() }) }
func (f *Fanout) OnDisconnected() { f.each(func(l Callbacks) { l.OnDisconnected() }) }
func (f *Fanout) OnTransportStateChanged(s TransportState) {
	f.each(func(l Callbacks) { l.OnTransportStateChanged(s) })
}
func (f *Fanout) OnBotConnected(p Participant) { f.each(func(l Callbacks) { l.OnBotConnected(p) }) }
func (f *Fanout) OnBotReady(version string, config []ServiceConfig) {
	f.each(func(l Callbacks) { l.OnBotReady(version, config) })
}
func (f *Fanout) OnBackendError(message string) {
	f.each(func(l Callbacks) { l.OnBackendError(message) })
}
func (f *Fanout) OnBotDisconnected(p Participant) {
	f.each(func(l Callbacks) { l.OnBotDisconnected(p) })
}
func (f *Fanout) OnParticipantJoined(p Participant) {
	f.each(func(l Callbacks) { l.OnParticipantJoined(p) })
}
func (f *Fanout) OnParticipantLeft(p Participant) {
	f.each(func(l Callbacks) { l.OnParticipantLeft(p) })
}
func (f *Fanout) OnAvailableCamsUpdated(cams []MediaDeviceInfo) {
	f.each(func(l Callbacks) { l.OnAvailableCamsUpdated(cams) })
}
func (f *Fanout) OnAvailableMicsUpdated(mics []MediaDeviceInfo) {
	f.each(func(l Callbacks) { l.OnAvailableMicsUpdated(mics) })
}
func (f *Fanout) OnUserAudioLevel(level float32) {
	f.each(func(l Callbacks) { l.OnUserAudioLevel(level) })
}
func (f *Fanout) OnRemoteAudioLevel(level float32, p Participant) {
	f.each(func(l Callbacks) { l.OnRemoteAudioLevel(level, p) })
}
func (f *Fanout) OnBotStartedSpeaking()  { f.each(func(l Callbacks) { l.OnBotStartedSpeaking() }) }
func (f *Fanout) OnBotStoppedSpeaking()  { f.each(func(l Callbacks) { l.OnBotStoppedSpeaking() }) }
func (f *Fanout) OnUserStartedSpeaking() { f.each(func(l Callbacks) { l.OnUserStartedSpeaking() }) }
func (f *Fanout) OnUserStoppedSpeaking() { f.each(func(l Callbacks) { l.OnUserStoppedSpeaking() }) }
func (f *Fanout) OnPipecatMetrics(m PipecatMetrics) {
	f.each(func(l Callbacks) { l.OnPipecatMetrics(m) })
}
func (f *Fanout) OnUserTranscript(t Transcript) { f.each(func(l Callbacks) { l.OnUserTranscript(t) }) }
func (f *Fanout) OnBotTranscript(text string)   { f.each(func(l Callbacks) { l.OnBotTranscript(text) }) }
func (f *Fanout) OnBotLLMText(d BotLLMText)     { f.each(func(l Callbacks) { l.OnBotLLMText(d) }) }
func (f *Fanout) OnBotTTSText(d BotTTSText)     { f.each(func(l Callbacks) { l.OnBotTTSText(d) }) }
func (f *Fanout) OnStorageItemStored(d StorageItemStored) {
	f.each(func(l Callbacks) { l.OnStorageItemStored(d) })
}
func (f *Fanout) OnGenericMessage(msg ServerMessage) {
	f.each(func(l Callbacks) { l.OnGenericMessage(msg) })
}
func (f *Fanout) OnInputsUpdated(camera, mic bool) {
	f.each(func(l Callbacks) { l.OnInputsUpdated(camera, mic) })
}
func (f *Fanout) OnTracksUpdated(t Tracks) { f.each(func(l Callbacks) { l.OnTracksUpdated(t) }) }
