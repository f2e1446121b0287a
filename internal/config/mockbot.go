package config

import (
	"flag"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	commoncfg "github.com/pipecat-ai/rtvi-client-android/core/config"
	"github.com/pipecat-ai/rtvi-client-android/sdk/rtvi"
)

// MockbotConfig holds configuration for rtvi-mockbot.
type MockbotConfig struct {
	Addr           string                          `yaml:"addr"`
	MetricsAddr    string                          `yaml:"metrics_addr"`
	Version        string                          `yaml:"version"`
	AllowedOrigins []string                        `yaml:"allowed_origins"`
	Config         []rtvi.ServiceConfig            `yaml:"config"`
	Descriptions   []rtvi.ServiceConfigDescription `yaml:"descriptions"`
	LogLevel       string                          `yaml:"log_level"`
	ConfigFile     string                          `yaml:"-"`
}

// BindFlags populates the struct with defaults from environment variables and
// binds command line flags so main can call flag.Parse().
func (c *MockbotConfig) BindFlags() { c.bind(flag.CommandLine) }

func (c *MockbotConfig) bind(fs *flag.FlagSet) {
	c.ConfigFile = commoncfg.GetEnv("CONFIG_FILE", commoncfg.DefaultConfigPath("mockbot.yaml"))
	c.LogLevel = commoncfg.GetEnv("LOG_LEVEL", "info")
	c.Addr = commoncfg.ListenAddr(commoncfg.GetEnv("PORT", "7860"))
	c.MetricsAddr = commoncfg.ListenAddr(commoncfg.GetEnv("METRICS_PORT", ""))
	c.Version = commoncfg.GetEnv("BOT_VERSION", "")
	if v := commoncfg.GetEnv("ALLOWED_ORIGINS", ""); v != "" {
		c.AllowedOrigins = strings.Split(v, ",")
	}

	fs.StringVar(&c.ConfigFile, "config", c.ConfigFile, "mock bot config file path")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log verbosity (all, debug, info, warn, error, fatal, none)")
	fs.Func("port", "HTTP listen address or port", func(v string) error {
		c.Addr = commoncfg.ListenAddr(v)
		return nil
	})
	fs.Func("metrics-port", "Prometheus metrics listen address or port; served on the main listener when empty", func(v string) error {
		c.MetricsAddr = commoncfg.ListenAddr(v)
		return nil
	})
	fs.StringVar(&c.Version, "bot-version", c.Version, "version reported in bot-ready")
	fs.Func("allowed-origins", "comma separated CORS origins", func(v string) error {
		c.AllowedOrigins = strings.Split(v, ",")
		return nil
	})
}

// LoadFile populates the config from a YAML file.
func (c *MockbotConfig) LoadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(b, c)
}
