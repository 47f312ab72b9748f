package pipeline

import (
	"fmt"
	"strings"
	"sync"
)

// Task statuses. Completed tasks never demote.
const (
	TaskPending    = "pending"
	TaskInProgress = "in_progress"
	TaskCompleted  = "completed"
)

type task struct {
	id      int
	subject string
	status  string
}

type board struct {
	tasks     []*task
	channelID string
	messageID string
}

// TaskBoard maintains one checklist per serialization key, rendered into a
// single chat message that is edited in place after every mutation.
type TaskBoard struct {
	mu     sync.Mutex
	boards map[string]*board
}

// NewTaskBoard creates an empty board set.
func NewTaskBoard() *TaskBoard {
	return &TaskBoard{boards: make(map[string]*board)}
}

// Create appends a pending task and returns its id and the rendered checklist.
func (b *TaskBoard) Create(key, subject string) (int, string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	bd := b.boards[key]
	if bd == nil {
		bd = &board{}
		b.boards[key] = bd
	}
	t := &task{id: len(bd.tasks) + 1, subject: subject, status: TaskPending}
	bd.tasks = append(bd.tasks, t)
	return t.id, renderBoard(bd)
}

// Update mutates a task's status and/or subject. Unknown ids and attempts to
// demote a completed task are no-ops. It reports whether anything changed and
// returns the rendered checklist.
func (b *TaskBoard) Update(key string, taskID int, status, subject string) (bool, string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	bd := b.boards[key]
	if bd == nil {
		return false, ""
	}
	var t *task
	for _, cand := range bd.tasks {
		if cand.id == taskID {
			t = cand
			break
		}
	}
	if t == nil {
		return false, renderBoard(bd)
	}
	changed := false
	if status != "" && status != t.status {
		if t.status != TaskCompleted {
			t.status = status
			changed = true
		}
	}
	if subject != "" && subject != t.subject {
		t.subject = subject
		changed = true
	}
	return changed, renderBoard(bd)
}

// DemoteInProgress flips every in_progress task back to pending, used when a
// tool fails mid-task. Returns the rendered checklist and whether it changed.
func (b *TaskBoard) DemoteInProgress(key string) (bool, string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	bd := b.boards[key]
	if bd == nil {
		return false, ""
	}
	changed := false
	for _, t := range bd.tasks {
		if t.status == TaskInProgress {
			t.status = TaskPending
			changed = true
		}
	}
	return changed, renderBoard(bd)
}

// Message returns the chat location of the checklist message, if posted.
func (b *TaskBoard) Message(key string) (channelID, messageID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	bd := b.boards[key]
	if bd == nil {
		return "", ""
	}
	return bd.channelID, bd.messageID
}

// SetMessage records where the checklist message lives after the first send.
func (b *TaskBoard) SetMessage(key, channelID, messageID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	bd := b.boards[key]
	if bd == nil {
		return
	}
	bd.channelID = channelID
	bd.messageID = messageID
}

// Clear drops the checklist for key.
func (b *TaskBoard) Clear(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.boards, key)
}

func statusIcon(status string) string {
	switch status {
	case TaskCompleted:
		return "☑️"
	case TaskInProgress:
		return "🔄"
	default:
		return "⬜"
	}
}

func renderBoard(bd *board) string {
	completed := 0
	for _, t := range bd.tasks {
		if t.status == TaskCompleted {
			completed++
		}
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "📋 작업 목록 (%d/%d 완료)", completed, len(bd.tasks))
	for _, t := range bd.tasks {
		fmt.Fprintf(&sb, "\n%s #%d %s", statusIcon(t.status), t.id, t.subject)
	}
	return sb.String()
}
