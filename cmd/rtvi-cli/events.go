package main

import (
	"github.com/rs/zerolog"

	"github.com/pipecat-ai/rtvi-client-android/sdk/rtvi"
)

// eventLogger logs every session event.
type eventLogger struct {
	rtvi.NoopCallbacks
	log          zerolog.Logger
	disconnected chan struct{}
}

func newEventLogger(log zerolog.Logger) *eventLogger {
	return &eventLogger{log: log, disconnected: make(chan struct{}, 1)}
}

func (e *eventLogger) OnConnected() { e.log.Info().Msg("connected") }

func (e *eventLogger) OnDisconnected() {
	e.log.Info().Msg("disconnected")
	select {
	case e.disconnected <- struct{}{}:
	default:
	}
}

func (e *eventLogger) OnTransportStateChanged(s rtvi.TransportState) {
	e.log.Debug().Stringer("state", s).Msg("transport state")
}

func (e *eventLogger) OnBotReady(version string, config []rtvi.ServiceConfig) {
	e.log.Info().Str("version", version).Int("services", len(config)).Msg("bot ready")
}

func (e *eventLogger) OnBackendError(message string) {
	e.log.Error().Str("error", message).Msg("backend error")
}

func (e *eventLogger) OnBotConnected(p rtvi.Participant) {
	e.log.Info().Str("participant", p.ID).Msg("bot connected")
}

func (e *eventLogger) OnBotDisconnected(p rtvi.Participant) {
	e.log.Info().Str("participant", p.ID).Msg("bot disconnected")
}

func (e *eventLogger) OnBotStartedSpeaking()  { e.log.Debug().Msg("bot started speaking") }
func (e *eventLogger) OnBotStoppedSpeaking()  { e.log.Debug().Msg("bot stopped speaking") }
func (e *eventLogger) OnUserStartedSpeaking() { e.log.Debug().Msg("user started speaking") }
func (e *eventLogger) OnUserStoppedSpeaking() { e.log.Debug().Msg("user stopped speaking") }

func (e *eventLogger) OnUserTranscript(t rtvi.Transcript) {
	e.log.Info().Str("text", t.Text).Bool("final", t.Final).Str("user_id", t.UserID).Msg("user transcript")
}

func (e *eventLogger) OnBotTranscript(text string) {
	e.log.Info().Str("text", text).Msg("bot transcript")
}

func (e *eventLogger) OnBotLLMText(d rtvi.BotLLMText) { e.log.Debug().Str("text", d.Text).Msg("bot llm text") }
func (e *eventLogger) OnBotTTSText(d rtvi.BotTTSText) { e.log.Debug().Str("text", d.Text).Msg("bot tts text") }

func (e *eventLogger) OnPipecatMetrics(m rtvi.PipecatMetrics) {
	ev := e.log.Debug()
	for _, d := range m.TTFB {
		ev = ev.Float64("ttfb_"+d.Processor, d.Value)
	}
	ev.Int("processing", len(m.Processing)).Msg("pipecat metrics")
}

func (e *eventLogger) OnStorageItemStored(d rtvi.StorageItemStored) {
	e.log.Info().Str("action", d.Action).Str("items", d.Items.String()).Msg("storage item stored")
}

func (e *eventLogger) OnGenericMessage(msg rtvi.ServerMessage) {
	e.log.Info().Str("type", msg.Type).Str("data", msg.Data.String()).Msg("message")
}

func (e *eventLogger) OnInputsUpdated(cam, mic bool) {
	e.log.Debug().Bool("cam", cam).Bool("mic", mic).Msg("inputs updated")
}
