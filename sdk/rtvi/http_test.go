package rtvi

import (
	"encoding/base64"
	"strings"
	"testing"
)

func TestParseServerSentEvents(t *testing.T) {
	frame := func(s string) string { return base64.StdEncoding.EncodeToString([]byte(s)) }
	stream := strings.Join([]string{
		"",
		"event: message",
		"data: " + frame(`{"a":1}`),
		"   ",
		"data:" + frame(`{"b":2}`) + "  ",
		"",
	}, "\n")

	var got []string
	if err := parseServerSentEvents(strings.NewReader(stream), func(b []byte) error {
		got = append(got, string(b))
		return nil
	}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(got) != 2 || got[0] != `{"a":1}` || got[1] != `{"b":2}` {
		t.Fatalf("unexpected frames %q", got)
	}
}

func TestParseServerSentEventsBadFrame(t *testing.T) {
	err := parseServerSentEvents(strings.NewReader("data: !!!\n"), func([]byte) error { return nil })
	if err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestStateNames(t *testing.T) {
	if StateReady.String() != "ready" || TransportState(42).String() != "state(42)" {
		t.Fatalf("unexpected state names")
	}
	if len(AllStates()) != 9 || AllStates()[0] != StateIdle {
		t.Fatalf("unexpected state list")
	}
}
