package transcriptstore

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/pipecat-ai/rtvi-client-android/sdk/rtvi"
	"github.com/pipecat-ai/rtvi-client-android/sdk/value"
)

func TestStoreArchivesTranscripts(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()

	s, err := New(mr.Addr(), "s1")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	var cb rtvi.Callbacks = s
	cb.OnUserTranscript(rtvi.Transcript{Text: "hello", Final: true, Timestamp: "2024-01-01T00:00:00Z", UserID: "u1"})
	cb.OnBotTranscript("hi there")
	cb.OnStorageItemStored(rtvi.StorageItemStored{Action: "append", Items: value.Array(value.String("a"))})
	cb.OnBotLLMText(rtvi.BotLLMText{Text: "Hel"})
	cb.OnBotTTSText(rtvi.BotTTSText{Text: "Hello."})
	cb.OnBotStartedSpeaking()
	s.Flush()

	// entries after flush are ignored
	cb.OnBotTranscript("late")

	if s.Key() != "rtvi:transcript:s1" {
		t.Fatalf("key = %q", s.Key())
	}
	if items, err := mr.List(s.Key()); err != nil || len(items) != 5 {
		t.Fatalf("list = %v (%v); want 5 items", items, err)
	}

	entries, err := s.Entries(context.Background())
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(entries) != 5 {
		t.Fatalf("entries = %d; want 5", len(entries))
	}
	if e := entries[0]; e.Kind != KindUser || e.Text != "hello" || !e.Final || e.UserID != "u1" {
		t.Fatalf("user entry = %#v", e)
	}
	if e := entries[1]; e.Kind != KindBot || e.Text != "hi there" || e.Timestamp == "" {
		t.Fatalf("bot entry = %#v", e)
	}
	if e := entries[2]; e.Kind != KindStorage || e.Data == nil || e.Data.Len() != 1 {
		t.Fatalf("storage entry = %#v", e)
	}
	if e := entries[3]; e.Kind != KindLLM || e.Text != "Hel" || e.Final {
		t.Fatalf("llm entry = %#v", e)
	}
	if e := entries[4]; e.Kind != KindTTS || e.Text != "Hello." || e.Final {
		t.Fatalf("tts entry = %#v", e)
	}
}

func TestNewFailsWithoutServer(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	addr := mr.Addr()
	mr.Close()
	if _, err := New(addr, "s1"); err == nil {
		t.Fatalf("expected error connecting to a stopped server")
	}
}

func TestParseRedisURL(t *testing.T) {
	tests := []struct {
		url    string
		addrs  int
		master string
		db     int
		tls    bool
	}{
		{"localhost:6379", 1, "", 0, false},
		{"redis://:pass@localhost:6379/1", 1, "", 1, false},
		{"rediss://host1:6379,host2:6379/0", 2, "", 0, true},
		{"redis://localhost:6379?db=3", 1, "", 3, false},
		{"redis-sentinel://localhost:26379/mymaster?db=2", 1, "mymaster", 2, false},
	}
	for _, tt := range tests {
		opts, err := parseRedisURL(tt.url)
		if err != nil {
			t.Fatalf("parseRedisURL(%q): %v", tt.url, err)
		}
		if len(opts.Addrs) != tt.addrs {
			t.Fatalf("%q addrs = %d; want %d", tt.url, len(opts.Addrs), tt.addrs)
		}
		if opts.MasterName != tt.master {
			t.Fatalf("%q master = %q; want %q", tt.url, opts.MasterName, tt.master)
		}
		if opts.DB != tt.db {
			t.Fatalf("%q db = %d; want %d", tt.url, opts.DB, tt.db)
		}
		if (opts.TLSConfig != nil) != tt.tls {
			t.Fatalf("%q tls = %v; want %v", tt.url, opts.TLSConfig != nil, tt.tls)
		}
	}
	for _, bad := range []string{"http://localhost", "redis://localhost/x"} {
		if _, err := parseRedisURL(bad); err == nil {
			t.Fatalf("parseRedisURL(%q): expected error", bad)
		}
	}
}
