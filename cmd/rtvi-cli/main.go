package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/pipecat-ai/rtvi-client-android/internal/config"
	"github.com/pipecat-ai/rtvi-client-android/internal/logx"
	"github.com/pipecat-ai/rtvi-client-android/internal/mcptools"
	"github.com/pipecat-ai/rtvi-client-android/internal/metrics"
	"github.com/pipecat-ai/rtvi-client-android/internal/reconnect"
	"github.com/pipecat-ai/rtvi-client-android/internal/transcriptstore"
	"github.com/pipecat-ai/rtvi-client-android/sdk/helper/llm"
	"github.com/pipecat-ai/rtvi-client-android/sdk/rtvi"
	"github.com/pipecat-ai/rtvi-client-android/sdk/transport/wstransport"
	"github.com/pipecat-ai/rtvi-client-android/sdk/value"
)

var (
	version   = "dev"
	buildSHA  = "unknown"
	buildDate = "unknown"
)

// argList collects repeated -arg flags.
type argList []string

func (a *argList) String() string     { return strings.Join(*a, ",") }
func (a *argList) Set(v string) error { *a = append(*a, v); return nil }

type request struct {
	describe bool
	action   string
	args     []string
	stay     bool
}

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	var req request
	var args argList
	flag.BoolVar(&req.describe, "describe", false, "print the bot's config description and actions once ready")
	flag.StringVar(&req.action, "action", "", "run service:action once ready")
	flag.Var(&args, "arg", "action argument name=<json> (repeatable)")
	flag.BoolVar(&req.stay, "stay", false, "keep the session open after -describe or -action")
	var cfg config.ClientConfig
	cfg.BindFlags()
	flag.Parse()
	if *showVersion {
		fmt.Printf("rtvi-cli version=%s sha=%s date=%s\n", version, buildSHA, buildDate)
		return
	}
	if cfg.ConfigFile != "" {
		if err := cfg.LoadFile(cfg.ConfigFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			logx.Log.Fatal().Err(err).Str("path", cfg.ConfigFile).Msg("load config")
		}
	}
	logx.Configure(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		logx.Log.Fatal().Err(err).Msg("invalid config")
	}
	req.args = args

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := run(ctx, cfg, req, os.Stdout); err != nil {
		logx.Log.Fatal().Err(err).Msg("session failed")
	}
}

func run(ctx context.Context, cfg config.ClientConfig, req request, out io.Writer) error {
	log := logx.Component("cli")

	reg := prometheus.NewRegistry()
	metrics.Register(reg)
	metrics.SetBuildInfo("cli", version, buildSHA, buildDate)
	if cfg.MetricsAddr != "" {
		addr, err := metrics.StartServer(ctx, cfg.MetricsAddr, reg)
		if err != nil {
			return fmt.Errorf("metrics server: %w", err)
		}
		log.Info().Str("addr", addr).Msg("metrics server started")
	}

	events := newEventLogger(log)
	client := rtvi.NewClient(wstransport.Factory(), events, cfg.Options())
	defer client.Release()

	if cfg.RedisURL != "" {
		store, err := transcriptstore.New(cfg.RedisURL, cfg.Session)
		if err != nil {
			return fmt.Errorf("transcript store: %w", err)
		}
		defer func() { _ = store.Close() }()
		client.AddListener(store)
		log.Info().Str("key", store.Key()).Msg("archiving transcripts")
	}

	var fc llm.Callbacks = llm.NoopCallbacks{}
	if cfg.MCPURL != "" {
		bridge, err := mcptools.Dial(ctx, cfg.MCPURL)
		if err != nil {
			return fmt.Errorf("mcp: %w", err)
		}
		defer func() { _ = bridge.Close() }()
		fc = bridge
	}
	if err := client.RegisterHelper("llm", llm.New(fc)); err != nil {
		return err
	}

	if _, err := client.InitDevices().Await(ctx); err != nil {
		return fmt.Errorf("init devices: %w", err)
	}
	if _, err := client.Connect().Await(ctx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer disconnect(client)

	if req.describe {
		if err := describe(ctx, client, out); err != nil {
			return err
		}
	}
	if req.action != "" {
		if err := runAction(ctx, client, req.action, req.args, out); err != nil {
			return err
		}
	}
	if (req.describe || req.action != "") && !req.stay {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-events.disconnected:
			log.Info().Msg("session ended by bot")
		}
		if !cfg.Reconnect {
			return nil
		}
		if err := reconnectLoop(ctx, client, log); err != nil {
			return nil
		}
		drain(events.disconnected)
	}
}

// reconnectLoop retries Connect on the reconnect schedule until it succeeds
// or ctx is done.
func reconnectLoop(ctx context.Context, c *rtvi.Client, log zerolog.Logger) error {
	for attempt := 0; ; attempt++ {
		if err := reconnect.Wait(ctx, attempt); err != nil {
			return err
		}
		if _, err := c.Connect().Await(ctx); err != nil {
			log.Warn().Err(err).Int("attempt", attempt+1).Dur("retry_in", reconnect.Delay(attempt+1)).Msg("reconnect failed")
			continue
		}
		log.Info().Int("attempt", attempt+1).Msg("reconnected")
		return nil
	}
}

func drain(ch <-chan struct{}) {
	select {
	case <-ch:
	default:
	}
}

func disconnect(c *rtvi.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := c.Disconnect().Await(ctx); err != nil {
		logx.Log.Warn().Err(err).Msg("disconnect")
	}
}

func describe(ctx context.Context, c *rtvi.Client, out io.Writer) error {
	cfg, err := c.DescribeConfig().Await(ctx)
	if err != nil {
		return fmt.Errorf("describe config: %w", err)
	}
	actions, err := c.DescribeActions().Await(ctx)
	if err != nil {
		return fmt.Errorf("describe actions: %w", err)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{"config": cfg, "actions": actions})
}

func runAction(ctx context.Context, c *rtvi.Client, target string, rawArgs []string, out io.Writer) error {
	service, action, err := parseTarget(target)
	if err != nil {
		return err
	}
	args, err := parseArgs(rawArgs)
	if err != nil {
		return err
	}
	res, err := c.Action(service, action, args).Await(ctx)
	if err != nil {
		return fmt.Errorf("action %s: %w", target, err)
	}
	_, err = fmt.Fprintln(out, res.String())
	return err
}

func parseTarget(s string) (string, string, error) {
	service, action, ok := strings.Cut(s, ":")
	if !ok || service == "" || action == "" {
		return "", "", fmt.Errorf("invalid action %q; expected service:action", s)
	}
	return service, action, nil
}

// parseArgs reads name=<json> pairs. Values that are not valid JSON are
// taken as strings.
func parseArgs(raw []string) ([]rtvi.Option, error) {
	opts := make([]rtvi.Option, 0, len(raw))
	for _, a := range raw {
		name, v, ok := strings.Cut(a, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid argument %q; expected name=value", a)
		}
		val, err := value.Parse([]byte(v))
		if err != nil {
			val = value.String(v)
		}
		opts = append(opts, rtvi.Option{Name: name, Value: val})
	}
	return opts, nil
}
