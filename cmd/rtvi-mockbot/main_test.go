package main

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pipecat-ai/rtvi-client-android/internal/mockbot"
	"github.com/pipecat-ai/rtvi-client-android/sdk/rtvi"
	"github.com/pipecat-ai/rtvi-client-android/sdk/transport/wstransport"
	"github.com/pipecat-ai/rtvi-client-android/sdk/value"
)

func TestDemoActions(t *testing.T) {
	bot := newBot(mockbot.Options{})
	srv := httptest.NewServer(bot.Handler())
	defer srv.Close()
	defer bot.Close()

	c := rtvi.NewClient(wstransport.Factory(), nil, rtvi.DefaultOptions(srv.URL))
	defer c.Release()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// single-turn, before connecting
	res, err := c.Action("llm", "echo", []rtvi.Option{rtvi.NewOption("text", "hi")}).Await(ctx)
	if err != nil || !res.Equal(value.String("hi")) {
		t.Fatalf("echo = %v (%v)", res, err)
	}
	_, err = c.Action("llm", "echo", nil).Await(ctx)
	var er *rtvi.ErrorResponse
	if !errors.As(err, &er) || er.Message != "missing argument text" {
		t.Fatalf("expected error response, got %v", err)
	}

	if _, err := c.Connect().Await(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	actions, err := c.DescribeActions().Await(ctx)
	if err != nil || len(actions) != 3 {
		t.Fatalf("actions = %+v (%v)", actions, err)
	}
	res, err = c.Action("bot", "time", nil).Await(ctx)
	if err != nil {
		t.Fatalf("time: %v", err)
	}
	if _, ok := res.AsString(); !ok {
		t.Fatalf("time result %v", res)
	}
}
