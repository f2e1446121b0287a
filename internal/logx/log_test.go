package logx_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/pipecat-ai/rtvi-client-android/internal/logx"
	"github.com/rs/zerolog"
)

func TestConfigureLevels(t *testing.T) {
	defer logx.Configure("info")
	tests := map[string]zerolog.Level{
		"trace":    zerolog.TraceLevel,
		" Debug ":  zerolog.DebugLevel,
		"WARNING":  zerolog.WarnLevel,
		"error":    zerolog.ErrorLevel,
		"off":      zerolog.Disabled,
		"verbose?": zerolog.InfoLevel,
	}
	for in, want := range tests {
		logx.Configure(in)
		if got := zerolog.GlobalLevel(); got != want {
			t.Fatalf("Configure(%q) level = %s; want %s", in, got, want)
		}
	}
}

func TestComponentJSON(t *testing.T) {
	var buf bytes.Buffer
	logx.ConfigureOutput("debug", "json", &buf)
	defer logx.Configure("info")

	l := logx.Component("engine")
	l.Info().Str("type", "bot-ready").Msg("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if entry["component"] != "engine" || entry["type"] != "bot-ready" || entry["message"] != "hello" {
		t.Fatalf("unexpected entry %v", entry)
	}
}
