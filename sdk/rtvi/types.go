package rtvi

import (
	"github.com/pipecat-ai/rtvi-client-android/sdk/value"
)

// Option is a single named argument or config setting.
type Option struct {
	Name  string      `json:"name"`
	Value value.Value `json:"value"`
}

// NewOption builds an Option from a Go value. It panics if v cannot be
// represented as a value.Value.
func NewOption(name string, v any) Option {
	return Option{Name: name, Value: value.MustFrom(v)}
}

// ServiceConfig is the configuration of one backend service.
type ServiceConfig struct {
	Service string   `json:"service"`
	Options []Option `json:"options"`
}

// ServiceRegistration names the provider used for a service.
type ServiceRegistration struct {
	Service string `json:"service"`
	Value   string `json:"value"`
}

// Config is the backend configuration returned by get-config and update-config.
type Config struct {
	Config []ServiceConfig `json:"config"`
}

// Service returns the configuration of the named service.
func (c Config) Service(name string) (ServiceConfig, bool) {
	for _, sc := range c.Config {
		if sc.Service == name {
			return sc, true
		}
	}
	return ServiceConfig{}, false
}

// Option returns the value of option in service.
func (c Config) Option(service, option string) (value.Value, bool) {
	sc, ok := c.Service(service)
	if !ok {
		return value.Null(), false
	}
	for _, o := range sc.Options {
		if o.Name == option {
			return o.Value, true
		}
	}
	return value.Null(), false
}

// Type is the declared type of an option or action result.
type Type string

const (
	TypeString Type = "string"
	TypeBool   Type = "bool"
	TypeNumber Type = "number"
	TypeArray  Type = "array"
	TypeObject Type = "object"
)

type OptionDescription struct {
	Name string `json:"name"`
	Type Type   `json:"type"`
}

type ServiceConfigDescription struct {
	Name    string              `json:"name"`
	Options []OptionDescription `json:"options"`
}

type ActionDescription struct {
	Service   string              `json:"service"`
	Action    string              `json:"action"`
	Arguments []OptionDescription `json:"arguments"`
	Result    Type                `json:"result"`
}

// Transcript is a written transcript of spoken words.
type Transcript struct {
	Text      string `json:"text"`
	Final     bool   `json:"final"`
	Timestamp string `json:"timestamp"`
	UserID    string `json:"user_id"`
}

type PipecatMetricsData struct {
	Processor string  `json:"processor"`
	Value     float64 `json:"value"`
}

// PipecatMetrics are processing and time-to-first-byte figures reported by the bot.
type PipecatMetrics struct {
	Processing []PipecatMetricsData `json:"processing,omitempty"`
	TTFB       []PipecatMetricsData `json:"ttfb,omitempty"`
}

// BotLLMText is a chunk of text produced by the bot's LLM.
type BotLLMText struct {
	Text string `json:"text"`
}

// BotTTSText is a chunk of text about to be spoken by the bot.
type BotTTSText struct {
	Text string `json:"text"`
}

// StorageItemStored reports items persisted by the backend.
type StorageItemStored struct {
	Action string      `json:"action"`
	Items  value.Value `json:"items"`
}

// Participant is a member of the session.
type Participant struct {
	ID    string
	Name  string
	Local bool
}

type MediaDeviceID string

type MediaDeviceInfo struct {
	ID   MediaDeviceID
	Name string
}

type MediaTrackID string

// ParticipantTracks are the media tracks of one participant. Empty IDs mean no track.
type ParticipantTracks struct {
	Audio MediaTrackID
	Video MediaTrackID
}

// Tracks are the media tracks of the local user and the bot.
type Tracks struct {
	Local ParticipantTracks
	Bot   *ParticipantTracks
}
