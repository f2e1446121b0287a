// Package transcriptstore archives session transcripts to Redis.
package transcriptstore

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/pipecat-ai/rtvi-client-android/internal/logx"
	"github.com/pipecat-ai/rtvi-client-android/sdk/rtvi"
	"github.com/pipecat-ai/rtvi-client-android/sdk/value"
)

const (
	keyPrefix    = "rtvi:transcript:"
	queueSize    = 256
	writeTimeout = 5 * time.Second
)

// Entry kinds.
const (
	KindUser    = "user"
	KindBot     = "bot"
	KindStorage = "storage"
	KindLLM     = "llm"
	KindTTS     = "tts"
)

// Entry is one archived item.
type Entry struct {
	Kind      string       `json:"kind"`
	Text      string       `json:"text,omitempty"`
	Final     bool         `json:"final,omitempty"`
	Timestamp string       `json:"timestamp,omitempty"`
	UserID    string       `json:"user_id,omitempty"`
	Data      *value.Value `json:"data,omitempty"`
}

// Store is an rtvi.Callbacks listener appending transcripts to the Redis
// list rtvi:transcript:<session>. Writes happen on a background goroutine
// so callbacks never block the client loop.
type Store struct {
	rtvi.NoopCallbacks

	client redis.UniversalClient
	key    string
	log    zerolog.Logger

	mu      sync.Mutex
	closed  bool
	entries chan Entry
	done    chan struct{}
}

// New connects to the Redis URL addr and archives under session.
func New(addr, session string) (*Store, error) {
	opts, err := parseRedisURL(addr)
	if err != nil {
		return nil, err
	}
	c := redis.NewUniversalClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, err
	}
	s := &Store{
		client:  c,
		key:     keyPrefix + session,
		log:     logx.Component("transcripts").With().Str("session", session).Logger(),
		entries: make(chan Entry, queueSize),
		done:    make(chan struct{}),
	}
	go s.run()
	return s, nil
}

// Key returns the Redis list holding the session.
func (s *Store) Key() string { return s.key }

func (s *Store) run() {
	defer close(s.done)
	for e := range s.entries {
		b, err := json.Marshal(e)
		if err != nil {
			s.log.Error().Err(err).Msg("encode entry")
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err = s.client.RPush(ctx, s.key, b).Err()
		cancel()
		if err != nil {
			s.log.Warn().Err(err).Str("kind", e.Kind).Msg("archive failed")
		}
	}
}

func (s *Store) enqueue(e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.entries <- e:
	default:
		s.log.Warn().Str("kind", e.Kind).Msg("archive queue full; dropping entry")
	}
}

func (s *Store) OnUserTranscript(t rtvi.Transcript) {
	s.enqueue(Entry{Kind: KindUser, Text: t.Text, Final: t.Final, Timestamp: t.Timestamp, UserID: t.UserID})
}

func (s *Store) OnBotTranscript(text string) {
	s.enqueue(Entry{Kind: KindBot, Text: text, Final: true, Timestamp: time.Now().UTC().Format(time.RFC3339Nano)})
}

// OnBotLLMText and OnBotTTSText archive streamed chunks, never final.
func (s *Store) OnBotLLMText(d rtvi.BotLLMText) {
	s.enqueue(Entry{Kind: KindLLM, Text: d.Text, Timestamp: time.Now().UTC().Format(time.RFC3339Nano)})
}

func (s *Store) OnBotTTSText(d rtvi.BotTTSText) {
	s.enqueue(Entry{Kind: KindTTS, Text: d.Text, Timestamp: time.Now().UTC().Format(time.RFC3339Nano)})
}

func (s *Store) OnStorageItemStored(d rtvi.StorageItemStored) {
	items := d.Items
	s.enqueue(Entry{Kind: KindStorage, Text: d.Action, Timestamp: time.Now().UTC().Format(time.RFC3339Nano), Data: &items})
}

// Entries reads back the archived session.
func (s *Store) Entries(ctx context.Context) ([]Entry, error) {
	raw, err := s.client.LRange(ctx, s.key, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(raw))
	for _, r := range raw {
		var e Entry
		if err := json.Unmarshal([]byte(r), &e); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// Flush waits until every queued entry has been written, then stops the
// writer. The store still serves Entries afterwards.
func (s *Store) Flush() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.entries)
	}
	s.mu.Unlock()
	<-s.done
}

// Close flushes pending entries and closes the Redis client.
func (s *Store) Close() error {
	s.Flush()
	return s.client.Close()
}
