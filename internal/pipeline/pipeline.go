// Package pipeline dispatches validated hook events to typed handlers,
// serialized per (project, instance) conversation key.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/nextlevelbuilder/discode/internal/hook"
	"github.com/nextlevelbuilder/discode/internal/messaging"
	"github.com/nextlevelbuilder/discode/internal/routing"
	"github.com/nextlevelbuilder/discode/internal/telemetry"
)

const (
	defaultIdleTimeout   = 5 * time.Minute
	defaultThinkingDelay = 30 * time.Second
)

// Deps is the shared dependency bundle injected into every handler. Handlers
// never own each other; everything they touch comes through here.
type Deps struct {
	Table   *routing.Table
	Chat    messaging.Messaging
	Pending *PendingTracker
	Tasks   *TaskBoard
	Stream  *StreamUpdater
	Metrics *telemetry.Metrics

	// IdleTimeout closes a turn with no further events. ThinkingDelay posts
	// a placeholder when thinking runs long. Zero values take defaults.
	IdleTimeout   time.Duration
	ThinkingDelay time.Duration
}

// Pipeline serializes event handling per conversation key.
type Pipeline struct {
	deps Deps

	mu             sync.Mutex
	locks          map[string]*sync.Mutex
	started        map[string]bool
	thinkingPosted map[string]bool
	idleTimers     map[string]*time.Timer
	thinkingTimers map[string]*time.Timer
}

// New creates a pipeline from a dependency bundle.
func New(deps Deps) *Pipeline {
	if deps.IdleTimeout == 0 {
		deps.IdleTimeout = defaultIdleTimeout
	}
	if deps.ThinkingDelay == 0 {
		deps.ThinkingDelay = defaultThinkingDelay
	}
	return &Pipeline{
		deps:           deps,
		locks:          make(map[string]*sync.Mutex),
		started:        make(map[string]bool),
		thinkingPosted: make(map[string]bool),
		idleTimers:     make(map[string]*time.Timer),
		thinkingTimers: make(map[string]*time.Timer),
	}
}

// lockFor returns the mutex serializing work for one key.
func (p *Pipeline) lockFor(key string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.locks[key]
	if !ok {
		l = &sync.Mutex{}
		p.locks[key] = l
	}
	return l
}

// Handle resolves the route for an envelope and runs its handler. Routing
// failures are returned for the HTTP layer to map; handler-side chat failures
// are logged and swallowed so the event still acks.
func (p *Pipeline) Handle(ctx context.Context, env *hook.Envelope) (err error) {
	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		if m := p.deps.Metrics; m != nil {
			attrs := metric.WithAttributes(
				attribute.String("event.type", string(env.Type)),
				attribute.String("outcome", outcome),
			)
			m.HookEvents.Add(ctx, 1, attrs)
			m.HookDuration.Record(ctx, time.Since(start).Seconds(), attrs)
		}
	}()

	route, err := p.deps.Table.Resolve(env.ProjectName, env.AgentType, env.InstanceID)
	if err != nil {
		return err
	}

	if !env.Type.Known() {
		slog.Debug("ignoring unknown event type", "type", env.Type, "project", env.ProjectName)
		return nil
	}

	key := route.SerializeKey()
	l := p.lockFor(key)
	l.Lock()
	defer l.Unlock()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("handler panicked", "type", env.Type, "key", key, "panic", r)
			err = fmt.Errorf("handler for %s panicked: %v", env.Type, r)
		}
	}()

	p.dispatch(ctx, key, route, env)
	return nil
}

// send posts text, logging and counting failures instead of propagating them.
func (p *Pipeline) send(ctx context.Context, channelID, text string) {
	if err := p.deps.Chat.SendToChannel(ctx, channelID, text); err != nil {
		slog.Warn("chat send failed", "channel", channelID, "error", err)
		p.countChatFailure(ctx)
	}
}

func (p *Pipeline) countChatFailure(ctx context.Context) {
	if p.deps.Metrics != nil {
		p.deps.Metrics.ChatFailures.Add(ctx, 1)
	}
}

func (p *Pipeline) countParseError(ctx context.Context) {
	if p.deps.Metrics != nil {
		p.deps.Metrics.ParseErrors.Add(ctx, 1)
	}
}

// armIdleTimer restarts the idle timer for key. Firing closes the turn the
// same way session.idle would.
func (p *Pipeline) armIdleTimer(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if t, ok := p.idleTimers[key]; ok {
		t.Stop()
	}
	p.idleTimers[key] = time.AfterFunc(p.deps.IdleTimeout, func() {
		l := p.lockFor(key)
		l.Lock()
		defer l.Unlock()
		slog.Info("idle timeout, closing turn", "key", key)
		p.closeTurn(context.Background(), key)
	})
}

func (p *Pipeline) stopTimer(timers map[string]*time.Timer, key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if t, ok := timers[key]; ok {
		t.Stop()
		delete(timers, key)
	}
}

// closeTurn finalizes streaming and clears the pending turn for key.
func (p *Pipeline) closeTurn(ctx context.Context, key string) {
	p.deps.Stream.Finalize(ctx, key)
	p.deps.Pending.MarkCompleted(key)
	p.mu.Lock()
	delete(p.thinkingPosted, key)
	p.mu.Unlock()
	p.stopTimer(p.thinkingTimers, key)
	p.stopTimer(p.idleTimers, key)
}

// Chat exposes the messaging client for callers that share the bundle.
func (p *Pipeline) Chat() messaging.Messaging { return p.deps.Chat }

// PendingTracker exposes the shared tracker.
func (p *Pipeline) PendingTracker() *PendingTracker { return p.deps.Pending }
