package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/pipecat-ai/rtvi-client-android/internal/config"
	"github.com/pipecat-ai/rtvi-client-android/internal/mockbot"
	"github.com/pipecat-ai/rtvi-client-android/sdk/rtvi"
	"github.com/pipecat-ai/rtvi-client-android/sdk/value"
)

func TestParseArgs(t *testing.T) {
	opts, err := parseArgs([]string{"n=42", "text=hello", `obj={"a":[1,2]}`, "empty="})
	if err != nil {
		t.Fatalf("parseArgs: %v", err)
	}
	if len(opts) != 4 {
		t.Fatalf("got %d options", len(opts))
	}
	if !opts[0].Value.Equal(value.Number(42)) || !opts[1].Value.Equal(value.String("hello")) {
		t.Fatalf("unexpected values %+v", opts)
	}
	if opts[2].Value.Kind() != value.KindObject || !opts[3].Value.Equal(value.String("")) {
		t.Fatalf("unexpected values %+v", opts)
	}
	if _, err := parseArgs([]string{"novalue"}); err == nil {
		t.Fatalf("expected error for missing '='")
	}
}

func TestParseTarget(t *testing.T) {
	if s, a, err := parseTarget("llm:run"); err != nil || s != "llm" || a != "run" {
		t.Fatalf("parseTarget = %q %q %v", s, a, err)
	}
	for _, bad := range []string{"llm", ":run", "llm:"} {
		if _, _, err := parseTarget(bad); err == nil {
			t.Fatalf("parseTarget(%q): expected error", bad)
		}
	}
}

func TestRunAgainstMockBot(t *testing.T) {
	bot := mockbot.New(mockbot.Options{
		Descriptions: []rtvi.ServiceConfigDescription{{Name: "llm", Options: []rtvi.OptionDescription{{Name: "model", Type: rtvi.TypeString}}}},
	})
	bot.HandleAction(rtvi.ActionDescription{Service: "tts", Action: "say", Result: rtvi.TypeString},
		func(_ context.Context, args []rtvi.Option) (value.Value, error) {
			s, _ := args[0].Value.AsString()
			return value.String("said " + s), nil
		})
	srv := httptest.NewServer(bot.Handler())
	defer srv.Close()
	defer bot.Close()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()

	cfg := config.ClientConfig{
		BaseURL:  srv.URL,
		Session:  "test",
		RedisURL: mr.Addr(),
		Services: []rtvi.ServiceRegistration{{Service: "tts", Value: "cartesia"}},
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var out bytes.Buffer
	req := request{describe: true, action: "tts:say", args: []string{"text=hi"}}
	if err := run(ctx, cfg, req, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	s := out.String()
	if !strings.Contains(s, `"say"`) || !strings.Contains(s, `"model"`) {
		t.Fatalf("describe output missing entries:\n%s", s)
	}
	if !strings.Contains(s, `"said hi"`) {
		t.Fatalf("action result missing:\n%s", s)
	}

	var types []string
	for _, m := range bot.Received() {
		types = append(types, m.Type)
	}
	if got := strings.Join(types, ","); got != "describe-config,describe-actions,action" {
		t.Fatalf("bot received %s", got)
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestRunReconnectsAfterBotLeaves(t *testing.T) {
	bot := mockbot.New(mockbot.Options{})
	srv := httptest.NewServer(bot.Handler())
	defer srv.Close()
	defer bot.Close()

	cfg := config.ClientConfig{BaseURL: srv.URL, Reconnect: true}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- run(ctx, cfg, request{}, &bytes.Buffer{}) }()

	speaking := rtvi.ServerMessage{ID: "1", Label: rtvi.MessageLabel, Type: rtvi.MsgBotStartedSpeaking}
	live := func() bool { return bot.Push(ctx, speaking) == nil }
	waitFor(t, "first session", live)
	bot.Close()
	waitFor(t, "second connect", func() bool { return len(bot.AuthRequests()) == 2 })
	waitFor(t, "second session", live)

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("run did not return after cancel")
	}
}
