package pipeline

import (
	"context"
	"log/slog"
	"sync"

	"github.com/nextlevelbuilder/discode/internal/messaging"
)

// Turn is the open user→agent exchange for one serialization key.
type Turn struct {
	ChannelID      string
	MessageID      string
	StartMessageID string
	TurnID         string
}

// PendingTracker holds at most one open turn per key.
type PendingTracker struct {
	mu    sync.Mutex
	turns map[string]*Turn
}

// NewPendingTracker creates an empty tracker.
func NewPendingTracker() *PendingTracker {
	return &PendingTracker{turns: make(map[string]*Turn)}
}

// OpenTurn opens a turn for key. An already-open turn is silently replaced.
func (p *PendingTracker) OpenTurn(key, channelID, messageID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.turns[key] = &Turn{ChannelID: channelID, MessageID: messageID}
}

// GetPending returns a copy of the open turn, or nil.
func (p *PendingTracker) GetPending(key string) *Turn {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := p.turns[key]
	if !ok {
		return nil
	}
	cp := *t
	return &cp
}

// HasPending reports whether a turn is open for key.
func (p *PendingTracker) HasPending(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.turns[key]
	return ok
}

// EnsureStartMessage lazily posts an "agent is working" placeholder on the
// turn's channel and remembers its id. Subsequent calls return the stored id.
func (p *PendingTracker) EnsureStartMessage(ctx context.Context, chat messaging.Messaging, key, channel, seed string) (string, error) {
	p.mu.Lock()
	t, ok := p.turns[key]
	if ok && t.StartMessageID != "" {
		id := t.StartMessageID
		p.mu.Unlock()
		return id, nil
	}
	p.mu.Unlock()

	id, err := chat.SendToChannelWithID(ctx, channel, seed)
	if err != nil {
		return "", err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok = p.turns[key]
	if !ok {
		t = &Turn{ChannelID: channel}
		p.turns[key] = t
	}
	if t.StartMessageID == "" {
		t.StartMessageID = id
	}
	return t.StartMessageID, nil
}

// MarkCompleted closes the turn for key.
func (p *PendingTracker) MarkCompleted(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.turns, key)
}

// MarkError closes the turn for key, recording the reason in the log.
func (p *PendingTracker) MarkError(key, reason string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.turns[key]; ok {
		slog.Warn("pending turn errored", "key", key, "reason", reason)
		delete(p.turns, key)
	}
}
