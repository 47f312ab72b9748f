// Package messaging is the chat-platform capability the event pipeline
// consumes. Concrete adapters (Slack app, Discord bot) live behind this
// interface; the pipeline never talks to a platform SDK directly.
package messaging

import "context"

// Platform selects message-splitting behavior and length limits.
type Platform string

const (
	PlatformSlack   Platform = "slack"
	PlatformDiscord Platform = "discord"
)

// MaxMessageLen is the platform's single-message character limit.
func (p Platform) MaxMessageLen() int {
	if p == PlatformSlack {
		return 4000
	}
	return 2000
}

// File is an attachment for SendToChannelWithFiles.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Messaging is the consumed chat capability.
type Messaging interface {
	Platform() Platform

	SendToChannel(ctx context.Context, channel, text string) error
	SendToChannelWithID(ctx context.Context, channel, text string) (messageID string, err error)
	UpdateMessage(ctx context.Context, channel, messageID, text string) error
	AddReactionToMessage(ctx context.Context, channel, messageID, emoji string) error
	ReplaceOwnReactionOnMessage(ctx context.Context, channel, messageID, from, to string) error
	ReplyInThread(ctx context.Context, channel, parentID, text string) error
	SendToChannelWithFiles(ctx context.Context, channel, text string, files []File) error
}

// Split chunks text at the platform limit, preferring to break at a newline
// past the midpoint so code blocks and lists stay readable.
func Split(text string, maxLen int) []string {
	if maxLen <= 0 || len(text) <= maxLen {
		return []string{text}
	}
	var chunks []string
	for len(text) > 0 {
		if len(text) <= maxLen {
			chunks = append(chunks, text)
			break
		}
		cutAt := maxLen
		if idx := lastIndexByte(text[:maxLen], '\n'); idx > maxLen/2 {
			cutAt = idx + 1
		}
		chunks = append(chunks, text[:cutAt])
		text = text[cutAt:]
	}
	return chunks
}

func lastIndexByte(s string, c byte) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == c {
			return i
		}
	}
	return -1
}

// Truncate shortens a string to at most maxLen bytes, ending in "..." when
// anything was cut.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
