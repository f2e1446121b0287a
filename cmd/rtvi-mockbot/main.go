package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pipecat-ai/rtvi-client-android/internal/config"
	"github.com/pipecat-ai/rtvi-client-android/internal/logx"
	"github.com/pipecat-ai/rtvi-client-android/internal/metrics"
	"github.com/pipecat-ai/rtvi-client-android/internal/mockbot"
	"github.com/pipecat-ai/rtvi-client-android/sdk/rtvi"
	"github.com/pipecat-ai/rtvi-client-android/sdk/value"
)

var (
	version   = "dev"
	buildSHA  = "unknown"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	var cfg config.MockbotConfig
	cfg.BindFlags()
	flag.Parse()
	if *showVersion {
		fmt.Printf("rtvi-mockbot version=%s sha=%s date=%s\n", version, buildSHA, buildDate)
		return
	}
	if cfg.ConfigFile != "" {
		if err := cfg.LoadFile(cfg.ConfigFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			logx.Log.Fatal().Err(err).Str("path", cfg.ConfigFile).Msg("load config")
		}
	}
	logx.Configure(cfg.LogLevel)

	reg := prometheus.NewRegistry()
	metrics.RegisterBot(reg)
	metrics.Register(reg)
	metrics.SetBuildInfo("mockbot", version, buildSHA, buildDate)

	opts := mockbot.Options{
		Version:        cfg.Version,
		Config:         cfg.Config,
		Descriptions:   cfg.Descriptions,
		AllowedOrigins: cfg.AllowedOrigins,
	}
	if cfg.MetricsAddr == "" || cfg.MetricsAddr == cfg.Addr {
		opts.Registry = reg
	}
	bot := newBot(opts)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if opts.Registry == nil {
		addr, err := metrics.StartServer(ctx, cfg.MetricsAddr, reg)
		if err != nil {
			logx.Log.Fatal().Err(err).Msg("metrics server")
		}
		logx.Log.Info().Str("addr", addr).Msg("metrics server started")
	}

	srv := &http.Server{Addr: cfg.Addr, Handler: bot.Handler(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		bot.Close()
		c, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		if err := srv.Shutdown(c); err != nil {
			logx.Log.Error().Err(err).Msg("server shutdown")
		}
	}()
	logx.Log.Info().Str("addr", cfg.Addr).Msg("mock bot starting")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logx.Log.Fatal().Err(err).Msg("server error")
	}
}

// newBot creates a bot with the built-in demo actions.
func newBot(opts mockbot.Options) *mockbot.Bot {
	bot := mockbot.New(opts)
	bot.HandleAction(rtvi.ActionDescription{
		Service:   "llm",
		Action:    "echo",
		Arguments: []rtvi.OptionDescription{{Name: "text", Type: rtvi.TypeString}},
		Result:    rtvi.TypeString,
	}, func(_ context.Context, args []rtvi.Option) (value.Value, error) {
		for _, a := range args {
			if a.Name == "text" {
				return a.Value, nil
			}
		}
		return value.Null(), errors.New("missing argument text")
	})
	bot.HandleAction(rtvi.ActionDescription{
		Service: "llm",
		Action:  "get_context",
		Result:  rtvi.TypeObject,
	}, func(context.Context, []rtvi.Option) (value.Value, error) {
		return value.ObjectOf(value.Field{Name: "messages", Value: value.Array()}), nil
	})
	bot.HandleAction(rtvi.ActionDescription{
		Service: "bot",
		Action:  "time",
		Result:  rtvi.TypeString,
	}, func(context.Context, []rtvi.Option) (value.Value, error) {
		return value.String(time.Now().UTC().Format(time.RFC3339)), nil
	})
	return bot
}
