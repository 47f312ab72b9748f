package messaging

import (
	"context"
	"fmt"
	"sync"
)

// Call is one recorded Messaging invocation.
type Call struct {
	Op        string
	Channel   string
	MessageID string
	Text      string
	Emoji     string
	From      string
	To        string
}

// Recorder is an in-memory Messaging used by tests. It assigns sequential
// message ids and can be told to fail specific operations.
type Recorder struct {
	mu      sync.Mutex
	calls   []Call
	nextID  int
	FailOps map[string]error
	P       Platform
}

// NewRecorder creates a recorder for the given platform (discord default).
func NewRecorder() *Recorder {
	return &Recorder{P: PlatformDiscord}
}

func (r *Recorder) Platform() Platform {
	if r.P == "" {
		return PlatformDiscord
	}
	return r.P
}

func (r *Recorder) record(c Call) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, c)
}

func (r *Recorder) failure(op string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailOps == nil {
		return nil
	}
	return r.FailOps[op]
}

// Calls returns a copy of everything recorded so far.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// CallsOf filters recorded calls by operation name.
func (r *Recorder) CallsOf(op string) []Call {
	var out []Call
	for _, c := range r.Calls() {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// LastText returns the text of the most recent call for a message id.
func (r *Recorder) LastText(messageID string) string {
	calls := r.Calls()
	for i := len(calls) - 1; i >= 0; i-- {
		if calls[i].MessageID == messageID && calls[i].Text != "" {
			return calls[i].Text
		}
	}
	return ""
}

func (r *Recorder) SendToChannel(_ context.Context, channel, text string) error {
	if err := r.failure("send"); err != nil {
		return err
	}
	r.record(Call{Op: "send", Channel: channel, Text: text})
	return nil
}

func (r *Recorder) SendToChannelWithID(_ context.Context, channel, text string) (string, error) {
	if err := r.failure("sendWithId"); err != nil {
		return "", err
	}
	r.mu.Lock()
	r.nextID++
	id := fmt.Sprintf("msg-%d", r.nextID)
	r.calls = append(r.calls, Call{Op: "sendWithId", Channel: channel, MessageID: id, Text: text})
	r.mu.Unlock()
	return id, nil
}

func (r *Recorder) UpdateMessage(_ context.Context, channel, messageID, text string) error {
	if err := r.failure("update"); err != nil {
		return err
	}
	r.record(Call{Op: "update", Channel: channel, MessageID: messageID, Text: text})
	return nil
}

func (r *Recorder) AddReactionToMessage(_ context.Context, channel, messageID, emoji string) error {
	if err := r.failure("react"); err != nil {
		return err
	}
	r.record(Call{Op: "react", Channel: channel, MessageID: messageID, Emoji: emoji})
	return nil
}

func (r *Recorder) ReplaceOwnReactionOnMessage(_ context.Context, channel, messageID, from, to string) error {
	if err := r.failure("replaceReaction"); err != nil {
		return err
	}
	r.record(Call{Op: "replaceReaction", Channel: channel, MessageID: messageID, From: from, To: to})
	return nil
}

func (r *Recorder) ReplyInThread(_ context.Context, channel, parentID, text string) error {
	if err := r.failure("replyInThread"); err != nil {
		return err
	}
	r.record(Call{Op: "replyInThread", Channel: channel, MessageID: parentID, Text: text})
	return nil
}

func (r *Recorder) SendToChannelWithFiles(_ context.Context, channel, text string, files []File) error {
	if err := r.failure("sendWithFiles"); err != nil {
		return err
	}
	r.record(Call{Op: "sendWithFiles", Channel: channel, Text: text})
	return nil
}
