// Package discord adapts the Discord Bot API to the messaging capability.
package discord

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/nextlevelbuilder/discode/internal/messaging"
)

// Client is the discord-backed Messaging implementation.
type Client struct {
	session *discordgo.Session
}

// New creates a Discord client from a bot token. Call Start before use.
func New(token string) (*Client, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsMessageContent
	return &Client{session: session}, nil
}

// Session exposes the underlying session for inbound-message wiring.
func (c *Client) Session() *discordgo.Session { return c.session }

// Start opens the gateway connection.
func (c *Client) Start(_ context.Context) error {
	slog.Info("starting discord bot")
	if err := c.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}
	user, err := c.session.User("@me")
	if err != nil {
		c.session.Close()
		return fmt.Errorf("fetch discord bot identity: %w", err)
	}
	slog.Info("discord bot connected", "username", user.Username, "id", user.ID)
	return nil
}

// Stop closes the gateway connection.
func (c *Client) Stop(_ context.Context) error {
	slog.Info("stopping discord bot")
	return c.session.Close()
}

func (c *Client) Platform() messaging.Platform { return messaging.PlatformDiscord }

// SendToChannel posts text, chunking at the platform limit.
func (c *Client) SendToChannel(_ context.Context, channel, text string) error {
	for _, chunk := range messaging.Split(text, c.Platform().MaxMessageLen()) {
		if _, err := c.session.ChannelMessageSend(channel, chunk); err != nil {
			return fmt.Errorf("send discord message: %w", err)
		}
	}
	return nil
}

// SendToChannelWithID posts text and returns the id of the first message so
// callers can edit it later. Overflow rolls into follow-up messages.
func (c *Client) SendToChannelWithID(_ context.Context, channel, text string) (string, error) {
	chunks := messaging.Split(text, c.Platform().MaxMessageLen())
	first, err := c.session.ChannelMessageSend(channel, chunks[0])
	if err != nil {
		return "", fmt.Errorf("send discord message: %w", err)
	}
	for _, chunk := range chunks[1:] {
		if _, err := c.session.ChannelMessageSend(channel, chunk); err != nil {
			return first.ID, fmt.Errorf("send discord continuation: %w", err)
		}
	}
	return first.ID, nil
}

func (c *Client) UpdateMessage(_ context.Context, channel, messageID, text string) error {
	text = messaging.Truncate(text, c.Platform().MaxMessageLen())
	if _, err := c.session.ChannelMessageEdit(channel, messageID, text); err != nil {
		return fmt.Errorf("edit discord message: %w", err)
	}
	return nil
}

func (c *Client) AddReactionToMessage(_ context.Context, channel, messageID, emoji string) error {
	if err := c.session.MessageReactionAdd(channel, messageID, emoji); err != nil {
		return fmt.Errorf("add discord reaction: %w", err)
	}
	return nil
}

func (c *Client) ReplaceOwnReactionOnMessage(ctx context.Context, channel, messageID, from, to string) error {
	if err := c.session.MessageReactionRemove(channel, messageID, from, "@me"); err != nil {
		slog.Warn("remove discord reaction failed", "channel", channel, "message_id", messageID, "error", err)
	}
	return c.AddReactionToMessage(ctx, channel, messageID, to)
}

func (c *Client) ReplyInThread(_ context.Context, channel, parentID, text string) error {
	ref := &discordgo.MessageReference{ChannelID: channel, MessageID: parentID}
	for _, chunk := range messaging.Split(text, c.Platform().MaxMessageLen()) {
		if _, err := c.session.ChannelMessageSendReply(channel, chunk, ref); err != nil {
			return fmt.Errorf("send discord reply: %w", err)
		}
	}
	return nil
}

func (c *Client) SendToChannelWithFiles(_ context.Context, channel, text string, files []messaging.File) error {
	send := &discordgo.MessageSend{Content: text}
	for _, f := range files {
		send.Files = append(send.Files, &discordgo.File{
			Name:        f.Name,
			ContentType: f.ContentType,
			Reader:      bytes.NewReader(f.Data),
		})
	}
	if _, err := c.session.ChannelMessageSendComplex(channel, send); err != nil {
		return fmt.Errorf("send discord files: %w", err)
	}
	return nil
}
