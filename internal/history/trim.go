// Package history bounds conversation memory.
//
// Trim selects the oldest messages above the cap as removals by identity;
// Apply drops them. SendWindow additionally sanitizes the leading edge of a
// trimmed history before it goes to the provider: trimming is a pure
// drop-oldest, so it can leave a tool_result user message without its
// tool_use partner at the front of the window.
package history

import (
	"github.com/anthropics/anthropic-sdk-go"

	"github.com/petasbytes/expense-agent/memory"
)

// Cap is the number of messages retained per conversation.
const Cap = 10

// Removal identifies one message to drop from a history.
type Removal struct {
	ID string
}

// Trim returns removals for the oldest messages beyond cap, in stored
// order. A history at or under the cap yields none.
func Trim(msgs []memory.Message, cap int) []Removal {
	if cap < 0 {
		cap = 0
	}
	excess := len(msgs) - cap
	if excess <= 0 {
		return nil
	}
	removals := make([]Removal, 0, excess)
	for _, m := range msgs[:excess] {
		removals = append(removals, Removal{ID: m.ID})
	}
	return removals
}

// Apply drops the identified messages. Removals that match nothing are
// ignored, so applying the same set twice is a no-op.
func Apply(msgs []memory.Message, removals []Removal) []memory.Message {
	if len(removals) == 0 {
		return msgs
	}
	drop := make(map[string]struct{}, len(removals))
	for _, r := range removals {
		drop[r.ID] = struct{}{}
	}
	out := make([]memory.Message, 0, len(msgs))
	for _, m := range msgs {
		if _, ok := drop[m.ID]; ok {
			continue
		}
		out = append(out, m)
	}
	return out
}

// SendWindow converts a history to provider params, skipping leading
// messages that cannot open a request: assistant messages, and user
// messages that start with a tool_result whose tool_use was trimmed away.
func SendWindow(msgs []memory.Message) []anthropic.MessageParam {
	start := 0
	for start < len(msgs) && !validOpener(msgs[start].Param) {
		start++
	}
	out := make([]anthropic.MessageParam, 0, len(msgs)-start)
	for _, m := range msgs[start:] {
		out = append(out, m.Param)
	}
	return out
}

func validOpener(p anthropic.MessageParam) bool {
	if p.Role != anthropic.MessageParamRoleUser {
		return false
	}
	for _, block := range p.Content {
		if block.OfToolResult != nil {
			return false
		}
	}
	return len(p.Content) > 0
}
