package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/nextlevelbuilder/discode/internal/messaging"
	"github.com/nextlevelbuilder/discode/internal/telemetry"
)

// defaultFlushInterval is the debounce window for streaming edits.
const defaultFlushInterval = 500 * time.Millisecond

type streamState struct {
	channelID string
	messageID string
	text      strings.Builder
	dirty     bool
	timer     *time.Timer
}

// StreamUpdater coalesces incremental agent output into one chat message per
// key, editing it in place and rolling into a continuation message when the
// platform length limit is hit. Append order is preserved across rolls.
type StreamUpdater struct {
	chat     messaging.Messaging
	metrics  *telemetry.Metrics
	interval time.Duration
	maxLen   int

	mu     sync.Mutex
	states map[string]*streamState
}

// NewStreamUpdater creates an updater bound to a chat client. The message
// length limit comes from the client's platform.
func NewStreamUpdater(chat messaging.Messaging, metrics *telemetry.Metrics) *StreamUpdater {
	return &StreamUpdater{
		chat:     chat,
		metrics:  metrics,
		interval: defaultFlushInterval,
		maxLen:   chat.Platform().MaxMessageLen(),
		states:   make(map[string]*streamState),
	}
}

// SetFlushInterval overrides the debounce window. Tests shrink it.
func (s *StreamUpdater) SetFlushInterval(d time.Duration) { s.interval = d }

// Has reports whether a stream is active for key.
func (s *StreamUpdater) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.states[key]
	return ok
}

// Start posts the placeholder message and begins a stream for key. Starting
// over an active stream finalizes the old one first.
func (s *StreamUpdater) Start(ctx context.Context, key, channelID, seed string) error {
	s.mu.Lock()
	if _, ok := s.states[key]; ok {
		s.mu.Unlock()
		s.Finalize(ctx, key)
		s.mu.Lock()
	}
	s.mu.Unlock()

	id, err := s.chat.SendToChannelWithID(ctx, channelID, seed)
	if err != nil {
		return err
	}

	st := &streamState{channelID: channelID, messageID: id}
	st.text.WriteString(seed)

	s.mu.Lock()
	s.states[key] = st
	s.mu.Unlock()
	return nil
}

// Append buffers text for key and schedules a debounced flush. Text past the
// platform limit rolls into a fresh continuation message. Appending to an
// inactive key is a no-op.
func (s *StreamUpdater) Append(ctx context.Context, key, text string) {
	s.mu.Lock()
	st, ok := s.states[key]
	if !ok {
		s.mu.Unlock()
		return
	}
	st.text.WriteString(text)
	st.dirty = true

	if st.text.Len() > s.maxLen {
		s.mu.Unlock()
		s.roll(ctx, key)
		return
	}

	if st.timer == nil {
		st.timer = time.AfterFunc(s.interval, func() { s.flush(context.Background(), key) })
	}
	s.mu.Unlock()
}

// roll commits the head of the overflowing buffer to the current message and
// moves the tail into a new one.
func (s *StreamUpdater) roll(ctx context.Context, key string) {
	s.mu.Lock()
	st, ok := s.states[key]
	if !ok {
		s.mu.Unlock()
		return
	}
	if st.timer != nil {
		st.timer.Stop()
		st.timer = nil
	}
	chunks := messaging.Split(st.text.String(), s.maxLen)
	head, tail := chunks[0], strings.Join(chunks[1:], "")
	channelID, messageID := st.channelID, st.messageID
	s.mu.Unlock()

	if err := s.chat.UpdateMessage(ctx, channelID, messageID, head); err != nil {
		slog.Warn("stream roll edit failed", "key", key, "error", err)
		s.countFailure(ctx)
	}
	newID, err := s.chat.SendToChannelWithID(ctx, channelID, tail)
	if err != nil {
		slog.Warn("stream roll send failed", "key", key, "error", err)
		s.countFailure(ctx)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok = s.states[key]
	if !ok {
		return
	}
	st.messageID = newID
	st.text.Reset()
	st.text.WriteString(tail)
	st.dirty = false
}

// flush edits the live message to the current buffer.
func (s *StreamUpdater) flush(ctx context.Context, key string) {
	s.mu.Lock()
	st, ok := s.states[key]
	if !ok || !st.dirty {
		if ok && st.timer != nil {
			st.timer = nil
		}
		s.mu.Unlock()
		return
	}
	st.timer = nil
	st.dirty = false
	channelID, messageID, text := st.channelID, st.messageID, st.text.String()
	s.mu.Unlock()

	if err := s.chat.UpdateMessage(ctx, channelID, messageID, text); err != nil {
		slog.Warn("stream flush failed", "key", key, "error", err)
		s.countFailure(ctx)
		return
	}
	if s.metrics != nil {
		s.metrics.StreamFlushes.Add(ctx, 1)
	}
}

// Finalize flushes any buffered text and detaches the stream.
func (s *StreamUpdater) Finalize(ctx context.Context, key string) {
	s.mu.Lock()
	st, ok := s.states[key]
	if !ok {
		s.mu.Unlock()
		return
	}
	if st.timer != nil {
		st.timer.Stop()
		st.timer = nil
	}
	s.mu.Unlock()

	s.flush(ctx, key)

	s.mu.Lock()
	delete(s.states, key)
	s.mu.Unlock()
}

// Discard drops buffered text without a final edit.
func (s *StreamUpdater) Discard(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[key]
	if !ok {
		return
	}
	if st.timer != nil {
		st.timer.Stop()
	}
	delete(s.states, key)
}

func (s *StreamUpdater) countFailure(ctx context.Context) {
	if s.metrics != nil {
		s.metrics.ChatFailures.Add(ctx, 1)
	}
}
