package pipeline

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Structured tool-activity prefixes. Anything else streams as plain summary.
const (
	prefixTaskCreate   = "TASK_CREATE:"
	prefixTaskUpdate   = "TASK_UPDATE:"
	prefixGitCommit    = "GIT_COMMIT:"
	prefixGitPush      = "GIT_PUSH:"
	prefixSubagentDone = "SUBAGENT_DONE:"
)

type taskCreatePayload struct {
	Subject string `json:"subject"`
}

type taskUpdatePayload struct {
	TaskID  json.Number `json:"taskId"`
	Status  string      `json:"status,omitempty"`
	Subject string      `json:"subject,omitempty"`
}

type gitCommitPayload struct {
	Message string `json:"message"`
	Stat    string `json:"stat,omitempty"`
}

type gitPushPayload struct {
	RemoteRef string `json:"remoteRef"`
	ToHash    string `json:"toHash"`
}

type subagentDonePayload struct {
	SubagentType string `json:"subagentType"`
	Summary      string `json:"summary"`
}

// structuredPrefix returns the matched prefix and the JSON tail, or "" when
// the text is plain tool summary.
func structuredPrefix(text string) (prefix, tail string) {
	for _, p := range []string{prefixTaskCreate, prefixTaskUpdate, prefixGitCommit, prefixGitPush, prefixSubagentDone} {
		if strings.HasPrefix(text, p) {
			return p, text[len(p):]
		}
	}
	return "", ""
}

func parseTaskID(n json.Number) (int, error) {
	id, err := strconv.Atoi(n.String())
	if err != nil {
		return 0, fmt.Errorf("taskId %q is not an integer", n)
	}
	return id, nil
}

func formatGitCommit(p gitCommitPayload) string {
	text := fmt.Sprintf("📦 *Committed:* `%s`", p.Message)
	if p.Stat != "" {
		text += "\n" + p.Stat
	}
	return text
}

func formatGitPush(p gitPushPayload) string {
	hash := p.ToHash
	if len(hash) > 7 {
		hash = hash[:7]
	}
	return fmt.Sprintf("🚀 *Pushed to* `%s` (`%s`)", p.RemoteRef, hash)
}

func formatSubagentDone(p subagentDonePayload) string {
	return fmt.Sprintf("🔍 *%s 완료:* %s", p.SubagentType, p.Summary)
}
