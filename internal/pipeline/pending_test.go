package pipeline

import (
	"context"
	"testing"

	"github.com/nextlevelbuilder/discode/internal/messaging"
)

func TestOpenTurnReplacesExisting(t *testing.T) {
	p := NewPendingTracker()
	p.OpenTurn("k", "ch-1", "msg-1")
	p.OpenTurn("k", "ch-1", "msg-2")

	turn := p.GetPending("k")
	if turn == nil || turn.MessageID != "msg-2" {
		t.Errorf("turn = %+v", turn)
	}
}

func TestMarkCompletedClears(t *testing.T) {
	p := NewPendingTracker()
	p.OpenTurn("k", "ch-1", "msg-1")
	p.MarkCompleted("k")
	if p.HasPending("k") {
		t.Error("turn should be closed")
	}
	if p.GetPending("k") != nil {
		t.Error("closed turn should not resolve")
	}
}

func TestEnsureStartMessagePostsOnce(t *testing.T) {
	p := NewPendingTracker()
	rec := messaging.NewRecorder()
	ctx := context.Background()
	p.OpenTurn("k", "ch-1", "msg-user")

	id1, err := p.EnsureStartMessage(ctx, rec, "k", "ch-1", "⏳ working…")
	if err != nil {
		t.Fatal(err)
	}
	id2, err := p.EnsureStartMessage(ctx, rec, "k", "ch-1", "⏳ working…")
	if err != nil {
		t.Fatal(err)
	}
	if id1 != id2 {
		t.Errorf("ids differ: %s vs %s", id1, id2)
	}
	if got := len(rec.CallsOf("sendWithId")); got != 1 {
		t.Errorf("placeholder posted %d times", got)
	}
	if turn := p.GetPending("k"); turn.StartMessageID != id1 {
		t.Errorf("startMessageId = %q, want %q", turn.StartMessageID, id1)
	}
}

func TestGetPendingReturnsCopy(t *testing.T) {
	p := NewPendingTracker()
	p.OpenTurn("k", "ch-1", "msg-1")
	turn := p.GetPending("k")
	turn.MessageID = "mutated"
	if p.GetPending("k").MessageID != "msg-1" {
		t.Error("caller mutation leaked into tracker")
	}
}
