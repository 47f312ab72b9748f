package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nextlevelbuilder/discode/internal/hook"
	"github.com/nextlevelbuilder/discode/internal/routing"
)

// dispatch runs the typed handler for one event. Callers hold the key lock.
func (p *Pipeline) dispatch(ctx context.Context, key string, route routing.Route, env *hook.Envelope) {
	switch env.Type {
	case hook.SessionStart:
		p.handleSessionStart(ctx, key, route, env)
	case hook.SessionEnd:
		p.handleSessionEnd(ctx, key)
	case hook.SessionError:
		p.handleSessionError(ctx, key, route, env)
	case hook.SessionNotification:
		p.send(ctx, route.ChannelID, env.BodyText())
	case hook.SessionIdle:
		p.closeTurn(ctx, key)
	case hook.ThinkingStart:
		p.handleThinkingStart(ctx, key, route)
	case hook.ThinkingStop:
		p.handleThinkingStop(ctx, key)
	case hook.ToolActivity:
		p.handleToolActivity(ctx, key, route, env)
	case hook.ToolFailure:
		p.handleToolFailure(ctx, key, route, env)
	case hook.PermissionRequest:
		p.send(ctx, route.ChannelID, formatPermissionRequest(env.ToolName, env.ToolInput))
	case hook.TaskCompleted:
		p.handleTaskCompleted(ctx, key, route, env)
	case hook.PromptSubmit:
		p.handlePromptSubmit(ctx, key, route, env)
	case hook.TeammateIdle:
		p.handleTeammateIdle(ctx, key, route, env)
	}
}

func (p *Pipeline) handleSessionStart(ctx context.Context, key string, route routing.Route, env *hook.Envelope) {
	p.deps.Pending.MarkCompleted(key)
	p.deps.Stream.Discard(key)

	p.mu.Lock()
	first := !p.started[key]
	p.started[key] = true
	p.mu.Unlock()
	if first {
		p.send(ctx, route.ChannelID, fmt.Sprintf("🤖 `%s` session started for *%s*", route.AgentType, route.ProjectName))
	}
	p.armIdleTimer(key)
}

func (p *Pipeline) handleSessionEnd(ctx context.Context, key string) {
	p.closeTurn(ctx, key)
	p.deps.Tasks.Clear(key)
	p.mu.Lock()
	delete(p.started, key)
	p.mu.Unlock()
}

func (p *Pipeline) handleSessionError(ctx context.Context, key string, route routing.Route, env *hook.Envelope) {
	text := env.BodyText()
	p.send(ctx, route.ChannelID, "⚠️ error: "+text)
	p.deps.Pending.MarkError(key, text)
	p.deps.Stream.Discard(key)
	p.stopTimer(p.thinkingTimers, key)
	p.stopTimer(p.idleTimers, key)
}

func (p *Pipeline) handleThinkingStart(ctx context.Context, key string, route routing.Route) {
	turn := p.deps.Pending.GetPending(key)
	if turn != nil {
		if turn.MessageID != "" {
			if err := p.deps.Chat.AddReactionToMessage(ctx, turn.ChannelID, turn.MessageID, "🧠"); err != nil {
				slog.Warn("add thinking reaction failed", "key", key, "error", err)
				p.countChatFailure(ctx)
			}
		}
		if _, err := p.deps.Pending.EnsureStartMessage(ctx, p.deps.Chat, key, turn.ChannelID, "⏳ agent is working…"); err != nil {
			slog.Warn("start message failed", "key", key, "error", err)
			p.countChatFailure(ctx)
		}
	}

	p.mu.Lock()
	if t, ok := p.thinkingTimers[key]; ok {
		t.Stop()
	}
	p.thinkingTimers[key] = time.AfterFunc(p.deps.ThinkingDelay, func() {
		p.postThinkingPlaceholder(context.Background(), key, route.ChannelID)
	})
	p.mu.Unlock()
}

// postThinkingPlaceholder notes a long-running think, at most once per turn.
func (p *Pipeline) postThinkingPlaceholder(ctx context.Context, key, channelID string) {
	l := p.lockFor(key)
	l.Lock()
	defer l.Unlock()

	p.mu.Lock()
	posted := p.thinkingPosted[key]
	p.thinkingPosted[key] = true
	p.mu.Unlock()
	if posted || !p.deps.Pending.HasPending(key) {
		return
	}
	p.send(ctx, channelID, "💭 still thinking…")
}

func (p *Pipeline) handleThinkingStop(ctx context.Context, key string) {
	p.stopTimer(p.thinkingTimers, key)
	turn := p.deps.Pending.GetPending(key)
	if turn == nil || turn.MessageID == "" {
		return
	}
	if err := p.deps.Chat.ReplaceOwnReactionOnMessage(ctx, turn.ChannelID, turn.MessageID, "🧠", "✅"); err != nil {
		slog.Warn("replace thinking reaction failed", "key", key, "error", err)
		p.countChatFailure(ctx)
	}
}

func (p *Pipeline) handleToolActivity(ctx context.Context, key string, route routing.Route, env *hook.Envelope) {
	text := env.BodyText()
	prefix, tail := structuredPrefix(text)
	if prefix == "" {
		p.streamSummary(ctx, key, route, text)
		return
	}

	switch prefix {
	case prefixTaskCreate:
		var payload taskCreatePayload
		if !p.parseStructured(ctx, key, prefix, tail, &payload) {
			return
		}
		_, rendered := p.deps.Tasks.Create(key, payload.Subject)
		p.renderChecklist(ctx, key, route.ChannelID, rendered)

	case prefixTaskUpdate:
		var payload taskUpdatePayload
		if !p.parseStructured(ctx, key, prefix, tail, &payload) {
			return
		}
		id, err := parseTaskID(payload.TaskID)
		if err != nil {
			slog.Debug("bad task update", "key", key, "error", err)
			p.countParseError(ctx)
			return
		}
		changed, rendered := p.deps.Tasks.Update(key, id, payload.Status, payload.Subject)
		if changed {
			p.renderChecklist(ctx, key, route.ChannelID, rendered)
		}

	case prefixGitCommit:
		var payload gitCommitPayload
		if !p.parseStructured(ctx, key, prefix, tail, &payload) {
			return
		}
		p.send(ctx, route.ChannelID, formatGitCommit(payload))

	case prefixGitPush:
		var payload gitPushPayload
		if !p.parseStructured(ctx, key, prefix, tail, &payload) {
			return
		}
		p.send(ctx, route.ChannelID, formatGitPush(payload))

	case prefixSubagentDone:
		var payload subagentDonePayload
		if !p.parseStructured(ctx, key, prefix, tail, &payload) {
			return
		}
		if payload.Summary != "" {
			p.send(ctx, route.ChannelID, formatSubagentDone(payload))
		}
	}
}

// parseStructured unmarshals a structured payload. Bad JSON is swallowed so
// the event still acks; the producer may retry well-formed later.
func (p *Pipeline) parseStructured(ctx context.Context, key, prefix, tail string, into any) bool {
	dec := json.NewDecoder(strings.NewReader(tail))
	dec.UseNumber()
	if err := dec.Decode(into); err != nil {
		slog.Debug("structured payload parse error", "key", key, "prefix", prefix, "error", err)
		p.countParseError(ctx)
		return false
	}
	return true
}

// renderChecklist posts the checklist on first render and edits in place after.
func (p *Pipeline) renderChecklist(ctx context.Context, key, channelID, text string) {
	ch, msgID := p.deps.Tasks.Message(key)
	if msgID == "" {
		id, err := p.deps.Chat.SendToChannelWithID(ctx, channelID, text)
		if err != nil {
			slog.Warn("checklist send failed", "key", key, "error", err)
			p.countChatFailure(ctx)
			return
		}
		p.deps.Tasks.SetMessage(key, channelID, id)
		return
	}
	if err := p.deps.Chat.UpdateMessage(ctx, ch, msgID, text); err != nil {
		slog.Warn("checklist edit failed", "key", key, "error", err)
		p.countChatFailure(ctx)
	}
}

// streamSummary appends plain tool output to the live stream, starting one
// lazily when the turn has none yet.
func (p *Pipeline) streamSummary(ctx context.Context, key string, route routing.Route, text string) {
	if text == "" {
		return
	}
	if !p.deps.Stream.Has(key) {
		if err := p.deps.Stream.Start(ctx, key, route.ChannelID, text); err != nil {
			slog.Warn("stream start failed", "key", key, "error", err)
			p.countChatFailure(ctx)
		}
		return
	}
	p.deps.Stream.Append(ctx, key, "\n"+text)
}

func (p *Pipeline) handleToolFailure(ctx context.Context, key string, route routing.Route, env *hook.Envelope) {
	text := env.BodyText()
	if text == "" {
		text = env.ToolName + " failed"
	}
	p.send(ctx, route.ChannelID, "❌ "+text)
	if changed, rendered := p.deps.Tasks.DemoteInProgress(key); changed {
		p.renderChecklist(ctx, key, route.ChannelID, rendered)
	}
}

func formatPermissionRequest(tool, input string) string {
	if tool == "" {
		tool = "unknown"
	}
	if input == "" {
		return fmt.Sprintf("🔐 *Permission needed:* `%s`", tool)
	}
	return fmt.Sprintf("🔐 *Permission needed:* `%s` — `%s`", tool, input)
}

func (p *Pipeline) handleTaskCompleted(ctx context.Context, key string, route routing.Route, env *hook.Envelope) {
	subject := env.BodyText()
	text := "✅ Task completed: " + subject
	if env.Teammate != "" {
		text = fmt.Sprintf("[%s] %s", env.Teammate, text)
	}
	p.send(ctx, route.ChannelID, text)

	if rm, ok := env.Extra["taskId"]; ok {
		var n json.Number
		if err := json.Unmarshal(rm, &n); err == nil {
			if id, err := parseTaskID(n); err == nil {
				if changed, rendered := p.deps.Tasks.Update(key, id, TaskCompleted, ""); changed {
					p.renderChecklist(ctx, key, route.ChannelID, rendered)
				}
			}
		}
	}
}

func (p *Pipeline) handlePromptSubmit(ctx context.Context, key string, route routing.Route, env *hook.Envelope) {
	channelID := route.ChannelID
	messageID := ""
	if rm, ok := env.Extra["messageId"]; ok {
		_ = json.Unmarshal(rm, &messageID)
	}
	if rm, ok := env.Extra["channelId"]; ok {
		var ch string
		if json.Unmarshal(rm, &ch) == nil && ch != "" {
			channelID = ch
		}
	}
	p.deps.Stream.Discard(key)
	p.deps.Pending.OpenTurn(key, channelID, messageID)
	p.mu.Lock()
	delete(p.thinkingPosted, key)
	p.mu.Unlock()
	p.armIdleTimer(key)
}

// handleTeammateIdle finalizes the teammate's stream without touching the
// owning pending turn.
func (p *Pipeline) handleTeammateIdle(ctx context.Context, key string, route routing.Route, env *hook.Envelope) {
	p.deps.Stream.Finalize(ctx, key)
	if env.Teammate != "" {
		p.send(ctx, route.ChannelID, fmt.Sprintf("💤 [%s] idle", env.Teammate))
	}
}
