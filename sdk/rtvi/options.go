package rtvi

import (
	"net/http"
	"time"

	"github.com/pipecat-ai/rtvi-client-android/sdk/value"
)

const (
	DefaultConnectTimeout = 30 * time.Second
	DefaultSendTimeout    = 10 * time.Second
)

// Header is a single HTTP header. Order is preserved and duplicates are allowed.
type Header struct {
	Name  string `yaml:"name" json:"name"`
	Value string `yaml:"value" json:"value"`
}

// Field is a custom top-level field of a request body.
type Field struct {
	Name  string      `yaml:"name" json:"name"`
	Value value.Value `yaml:"value" json:"value"`
}

// Endpoints are the paths appended to Params.BaseURL.
type Endpoints struct {
	Connect string `yaml:"connect"`
	Action  string `yaml:"action"`
}

// DefaultEndpoints returns /connect and /action.
func DefaultEndpoints() Endpoints {
	return Endpoints{Connect: "/connect", Action: "/action"}
}

// Params are the connection parameters.
type Params struct {
	BaseURL     string
	Headers     []Header
	Endpoints   Endpoints
	RequestData []Field
	Config      []ServiceConfig
}

// Options configure a Client.
type Options struct {
	Params Params

	EnableMic bool
	EnableCam bool
	Services  []ServiceRegistration

	// Deprecated: use Params.Config.
	Config []ServiceConfig
	// Deprecated: use Params.Headers.
	CustomHeaders []Header
	// Deprecated: use Params.RequestData.
	CustomBodyParams []Field

	// HTTPClient performs auth and single-turn requests. Defaults to a client
	// with a 30 second timeout that does not apply to streamed bodies.
	HTTPClient *http.Client
	// ConnectTimeout bounds Connect. Zero means DefaultConnectTimeout.
	ConnectTimeout time.Duration
	// SendTimeout bounds sending a correlated request. Zero means DefaultSendTimeout.
	SendTimeout time.Duration

	Instrumentation Instrumentation
}

// DefaultOptions returns options with the microphone enabled and default endpoints.
func DefaultOptions(baseURL string) Options {
	return Options{
		Params:    Params{BaseURL: baseURL, Endpoints: DefaultEndpoints()},
		EnableMic: true,
	}
}

func (o *Options) connectTimeout() time.Duration {
	if o.ConnectTimeout > 0 {
		return o.ConnectTimeout
	}
	return DefaultConnectTimeout
}

func (o *Options) sendTimeout() time.Duration {
	if o.SendTimeout > 0 {
		return o.SendTimeout
	}
	return DefaultSendTimeout
}

func (o *Options) endpoints() Endpoints {
	ep := o.Params.Endpoints
	def := DefaultEndpoints()
	if ep.Connect == "" {
		ep.Connect = def.Connect
	}
	if ep.Action == "" {
		ep.Action = def.Action
	}
	return ep
}

// connectionData is the merged request context shared by auth and
// single-turn requests.
type connectionData struct {
	headers     []Header
	requestData []Field
	config      []ServiceConfig
}

func (o *Options) connectionData() connectionData {
	cd := connectionData{
		requestData: []Field{{Name: "rtvi_client_version", Value: value.String(ProtocolVersion)}},
	}
	cd.headers = append(append(cd.headers, o.CustomHeaders...), o.Params.Headers...)
	cd.requestData = append(append(cd.requestData, o.CustomBodyParams...), o.Params.RequestData...)
	cd.config = append(append([]ServiceConfig{}, o.Config...), o.Params.Config...)
	return cd
}

// authBody is {services, config, ...requestData}. Later fields override earlier ones.
func (cd connectionData) authBody(services []ServiceRegistration) value.Value {
	fields := map[string]value.Value{
		"services": value.Null(),
		"config":   value.MustFrom(cd.config),
	}
	if services != nil {
		m := make(map[string]value.Value, len(services))
		for _, s := range services {
			m[s.Service] = value.String(s.Value)
		}
		fields["services"] = value.Object(m)
	}
	for _, f := range cd.requestData {
		fields[f.Name] = f.Value
	}
	return value.Object(fields)
}

// actionBody is {...requestData, actions: [msg]}.
func (cd connectionData) actionBody(msg ClientMessage) value.Value {
	fields := make(map[string]value.Value, len(cd.requestData)+1)
	for _, f := range cd.requestData {
		fields[f.Name] = f.Value
	}
	fields["actions"] = value.Array(value.MustFrom(msg))
	return value.Object(fields)
}
