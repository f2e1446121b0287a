package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	commoncfg "github.com/pipecat-ai/rtvi-client-android/core/config"
	"github.com/pipecat-ai/rtvi-client-android/internal/metrics"
	"github.com/pipecat-ai/rtvi-client-android/sdk/rtvi"
)

// ClientConfig holds configuration for rtvi-cli.
type ClientConfig struct {
	BaseURL        string                     `yaml:"base_url"`
	Endpoints      rtvi.Endpoints             `yaml:"endpoints"`
	Headers        []rtvi.Header              `yaml:"headers"`
	RequestData    []rtvi.Field               `yaml:"request_data"`
	Services       []rtvi.ServiceRegistration `yaml:"services"`
	ServiceConfig  []rtvi.ServiceConfig       `yaml:"config"`
	EnableMic      bool                       `yaml:"enable_mic"`
	EnableCam      bool                       `yaml:"enable_cam"`
	ConnectTimeout time.Duration              `yaml:"connect_timeout"`
	SendTimeout    time.Duration              `yaml:"send_timeout"`
	Session        string                     `yaml:"session"`
	LogLevel       string                     `yaml:"log_level"`
	MetricsAddr    string                     `yaml:"metrics_addr"`
	RedisURL       string                     `yaml:"redis_url"`
	MCPURL         string                     `yaml:"mcp_url"`
	Reconnect      bool                       `yaml:"reconnect"`
	ConfigFile     string                     `yaml:"-"`
}

// BindFlags populates the struct with defaults from environment variables and
// binds command line flags so main can call flag.Parse().
func (c *ClientConfig) BindFlags() { c.bind(flag.CommandLine) }

func (c *ClientConfig) bind(fs *flag.FlagSet) {
	c.ConfigFile = commoncfg.GetEnv("CONFIG_FILE", commoncfg.DefaultConfigPath("client.yaml"))
	c.LogLevel = commoncfg.GetEnv("LOG_LEVEL", "info")
	c.BaseURL = commoncfg.GetEnv("BASE_URL", "http://localhost:7860")
	def := rtvi.DefaultEndpoints()
	c.Endpoints.Connect = commoncfg.GetEnv("CONNECT_PATH", def.Connect)
	c.Endpoints.Action = commoncfg.GetEnv("ACTION_PATH", def.Action)
	c.EnableMic = commoncfg.GetEnvBool("ENABLE_MIC", true)
	c.EnableCam = commoncfg.GetEnvBool("ENABLE_CAM", false)
	c.ConnectTimeout = commoncfg.GetEnvDuration("CONNECT_TIMEOUT", rtvi.DefaultConnectTimeout)
	c.SendTimeout = commoncfg.GetEnvDuration("SEND_TIMEOUT", rtvi.DefaultSendTimeout)
	c.Session = commoncfg.GetEnv("SESSION_ID", uuid.NewString())
	c.MetricsAddr = commoncfg.ListenAddr(commoncfg.GetEnv("METRICS_PORT", ""))
	c.RedisURL = commoncfg.GetEnv("REDIS_URL", "")
	c.MCPURL = commoncfg.GetEnv("MCP_URL", "")
	c.Reconnect = commoncfg.GetEnvBool("RECONNECT", false)

	fs.StringVar(&c.ConfigFile, "config", c.ConfigFile, "client config file path")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log verbosity (all, debug, info, warn, error, fatal, none)")
	fs.StringVar(&c.BaseURL, "base-url", c.BaseURL, "bot backend base URL")
	fs.StringVar(&c.Endpoints.Connect, "connect-path", c.Endpoints.Connect, "path of the connect endpoint")
	fs.StringVar(&c.Endpoints.Action, "action-path", c.Endpoints.Action, "path of the single-turn action endpoint")
	fs.BoolVar(&c.EnableMic, "enable-mic", c.EnableMic, "enable the microphone")
	fs.BoolVar(&c.EnableCam, "enable-cam", c.EnableCam, "enable the camera")
	fs.DurationVar(&c.ConnectTimeout, "connect-timeout", c.ConnectTimeout, "maximum time to wait for the bot to be ready")
	fs.DurationVar(&c.SendTimeout, "send-timeout", c.SendTimeout, "maximum time to send a request")
	fs.StringVar(&c.Session, "session", c.Session, "session id used for the transcript archive")
	fs.Func("metrics-port", "Prometheus metrics listen address or port (disabled when empty; e.g. 127.0.0.1:9090 or 9090)", func(v string) error {
		c.MetricsAddr = commoncfg.ListenAddr(v)
		return nil
	})
	fs.StringVar(&c.RedisURL, "redis-url", c.RedisURL, "Redis URL for the transcript archive (disabled when empty)")
	fs.StringVar(&c.MCPURL, "mcp-url", c.MCPURL, "MCP server answering LLM function calls (disabled when empty)")
	fs.BoolVar(&c.Reconnect, "reconnect", c.Reconnect, "reconnect when the bot ends the session")
	fs.BoolVar(&c.Reconnect, "r", c.Reconnect, "short for --reconnect")
	fs.Func("header", "extra request header 'Name: value' (repeatable)", func(v string) error {
		name, val, ok := strings.Cut(v, ":")
		if !ok {
			return fmt.Errorf("invalid header %q", v)
		}
		c.Headers = append(c.Headers, rtvi.Header{Name: strings.TrimSpace(name), Value: strings.TrimSpace(val)})
		return nil
	})
	fs.Func("service", "service provider 'service=provider' (repeatable)", func(v string) error {
		svc, provider, ok := strings.Cut(v, "=")
		if !ok || svc == "" {
			return fmt.Errorf("invalid service %q", v)
		}
		c.Services = append(c.Services, rtvi.ServiceRegistration{Service: svc, Value: provider})
		return nil
	})
}

// LoadFile populates the config from a YAML file. Fields already set remain unless
// overwritten by corresponding entries in the file.
func (c *ClientConfig) LoadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(b, c)
}

// Validate reports settings that cannot work.
func (c *ClientConfig) Validate() error {
	if c.BaseURL == "" {
		return errors.New("base url is required")
	}
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("base url %q must be http or https", c.BaseURL)
	}
	seen := map[string]bool{}
	for _, s := range c.Services {
		if seen[s.Service] {
			return fmt.Errorf("service %q registered twice", s.Service)
		}
		seen[s.Service] = true
	}
	return nil
}

// Options converts the config into client options.
func (c *ClientConfig) Options() rtvi.Options {
	opts := rtvi.DefaultOptions(strings.TrimRight(c.BaseURL, "/"))
	opts.Params.Endpoints = c.Endpoints
	opts.Params.Headers = c.Headers
	opts.Params.RequestData = c.RequestData
	opts.Params.Config = c.ServiceConfig
	opts.EnableMic = c.EnableMic
	opts.EnableCam = c.EnableCam
	opts.ConnectTimeout = c.ConnectTimeout
	opts.SendTimeout = c.SendTimeout
	opts.Instrumentation = metrics.Instrumentation{}

	services := append([]rtvi.ServiceRegistration(nil), c.Services...)
	sort.SliceStable(services, func(i, j int) bool { return services[i].Service < services[j].Service })
	opts.Services = services
	return opts
}
