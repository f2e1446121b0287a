package rtvi

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/pipecat-ai/rtvi-client-android/sdk/value"
)

const (
	// ProtocolVersion is sent as rtvi_client_version in every request body.
	ProtocolVersion = "0.2.0"
	// MessageLabel tags every RTVI control message.
	MessageLabel = "rtvi-ai"
	// EndOfStreamID marks messages that do not answer a request.
	EndOfStreamID = "END"
)

// Client to server message types.
const (
	MsgDescribeConfig  = "describe-config"
	MsgGetConfig       = "get-config"
	MsgUpdateConfig    = "update-config"
	MsgDescribeActions = "describe-actions"
	MsgAction          = "action"
)

// Server to client message types.
const (
	MsgBotReady               = "bot-ready"
	MsgError                  = "error"
	MsgErrorResponse          = "error-response"
	MsgConfigAvailable        = "config-available"
	MsgConfig                 = "config"
	MsgActionsAvailable       = "actions-available"
	MsgActionResponse         = "action-response"
	MsgMetrics                = "metrics"
	MsgUserTranscription      = "user-transcription"
	MsgBotTranscription       = "bot-transcription"
	MsgBotTranscriptionLegacy = "tts-text"
	MsgUserStartedSpeaking    = "user-started-speaking"
	MsgUserStoppedSpeaking    = "user-stopped-speaking"
	MsgBotStartedSpeaking     = "bot-started-speaking"
	MsgBotStoppedSpeaking     = "bot-stopped-speaking"
	MsgBotLLMText             = "bot-llm-text"
	MsgBotTTSText             = "bot-tts-text"
	MsgStorageItemStored      = "storage-item-stored"
)

// ClientMessage is a control message sent to the backend.
type ClientMessage struct {
	ID    string       `json:"id"`
	Label string       `json:"label"`
	Type  string       `json:"type"`
	Data  *value.Value `json:"data,omitempty"`
}

// NewClientMessage builds a message with a fresh id. A null data is omitted.
func NewClientMessage(typ string, data value.Value) ClientMessage {
	m := ClientMessage{
		ID:    uuid.NewString(),
		Label: MessageLabel,
		Type:  typ,
	}
	if !data.IsNull() {
		m.Data = &data
	}
	return m
}

func DescribeConfigMessage() ClientMessage { return NewClientMessage(MsgDescribeConfig, value.Null()) }
func GetConfigMessage() ClientMessage      { return NewClientMessage(MsgGetConfig, value.Null()) }
func DescribeActionsMessage() ClientMessage {
	return NewClientMessage(MsgDescribeActions, value.Null())
}

func UpdateConfigMessage(update []ServiceConfig) ClientMessage {
	if update == nil {
		update = []ServiceConfig{}
	}
	return NewClientMessage(MsgUpdateConfig, value.MustFrom(update))
}

// ActionData is the payload of an action message.
type ActionData struct {
	Service   string   `json:"service"`
	Action    string   `json:"action"`
	Arguments []Option `json:"arguments"`
}

func ActionMessage(service, action string, args []Option) ClientMessage {
	if args == nil {
		args = []Option{}
	}
	return NewClientMessage(MsgAction, value.MustFrom(ActionData{
		Service:   service,
		Action:    action,
		Arguments: args,
	}))
}

// ServerMessage is a control message received from the backend.
type ServerMessage struct {
	ID    string      `json:"id,omitempty"`
	Label string      `json:"label"`
	Type  string      `json:"type"`
	Data  value.Value `json:"data"`
}

// DecodeServerMessage parses one JSON frame.
func DecodeServerMessage(b []byte) (ServerMessage, error) {
	var msg ServerMessage
	err := json.Unmarshal(b, &msg)
	return msg, err
}

// Payloads of server messages.

type BotReadyData struct {
	Version string          `json:"version"`
	Config  []ServiceConfig `json:"config"`
}

type ErrorData struct {
	Error string `json:"error"`
}

type ConfigAvailableData struct {
	Config []ServiceConfigDescription `json:"config"`
}

type ActionsAvailableData struct {
	Actions []ActionDescription `json:"actions"`
}

type ActionResponseData struct {
	Result value.Value `json:"result"`
}

type textData struct {
	Text string `json:"text"`
}

// isResponseType reports whether t answers a correlated request.
func isResponseType(t string) bool {
	switch t {
	case MsgErrorResponse, MsgActionResponse, MsgActionsAvailable, MsgConfigAvailable, MsgConfig:
		return true
	}
	return false
}
