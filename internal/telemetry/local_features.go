package telemetry

import (
	"context"

	"github.com/petasbytes/expense-agent/internal/metrics"
)

// EmitInputFeatures records size features of one incoming user text.
func EmitInputFeatures(ctx context.Context, text string) {
	if !isObserveEnabled() {
		return
	}
	turnID, _ := TurnIDFromContext(ctx)
	f := metrics.CountFeatures(text)
	Emit("input_features", map[string]any{
		"turn_id":          turnID,
		"features_version": "1",
		"input": map[string]any{
			"bytes": f.Bytes,
			"runes": f.Runes,
			"words": f.Words,
			"lines": f.Lines,
		},
	})
}
