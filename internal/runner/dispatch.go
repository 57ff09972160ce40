package runner

import (
	"context"
	"encoding/json"
	"time"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/petasbytes/expense-agent/internal/telemetry"
	"github.com/petasbytes/expense-agent/tools"
)

type toolRequest struct {
	id    string
	name  string
	input json.RawMessage
}

// toolRequests extracts tool_use blocks from a model response in order.
func toolRequests(msg *anthropic.Message) []toolRequest {
	var out []toolRequest
	for _, block := range msg.Content {
		if v, ok := block.AsAny().(anthropic.ToolUseBlock); ok {
			out = append(out, toolRequest{
				id:    v.ID,
				name:  v.Name,
				input: json.RawMessage(v.JSON.Input.Raw()),
			})
		}
	}
	return out
}

// execTool runs one requested tool and converts the outcome to a
// tool_result block. Unknown tools and handler errors become error results
// so the model can recover; they never abort the turn.
func (l *Loop) execTool(ctx context.Context, id, name string, input json.RawMessage) anthropic.ContentBlockParamUnion {
	var def *tools.ToolDefinition
	for i := range l.tools {
		if l.tools[i].Name == name {
			def = &l.tools[i]
			break
		}
	}

	turnID, _ := telemetry.TurnIDFromContext(ctx)
	emit := func(durationMs int64, outputSize int, errStr string) {
		fields := map[string]any{
			"tool_name":   name,
			"duration_ms": durationMs,
			"input_size":  len(input),
			"output_size": outputSize,
			"turn_id":     turnID,
		}
		if errStr != "" {
			fields["error"] = errStr
		} else {
			fields["error"] = nil
		}
		telemetry.Emit("tool_exec", fields)
	}

	start := time.Now()

	if def == nil {
		emit(time.Since(start).Milliseconds(), 0, "tool not found")
		l.logger.Warn("unknown tool requested", "tool", name)
		return anthropic.NewToolResultBlock(id, "tool not found: "+name, true)
	}

	resp, err := def.Function(input)
	if err != nil {
		// Keep telemetry generic; the detailed message goes back to the model.
		emit(time.Since(start).Milliseconds(), 0, "tool error")
		l.logger.Warn("tool failed", "tool", name, "err", err)
		return anthropic.NewToolResultBlock(id, err.Error(), true)
	}
	emit(time.Since(start).Milliseconds(), len(resp), "")
	return anthropic.NewToolResultBlock(id, resp, false)
}
