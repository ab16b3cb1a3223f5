package scoring

import (
	"context"
	"log/slog"
	"sort"
)

// Trace stages, in emission order.
const (
	StageRaw        = "raw"
	StageContextual = "contextual"
	StagePenalty    = "penalty"
	StageComposite  = "composite"
	StageFinal      = "final"
)

// TraceRecord is one intermediate value set for one player.
type TraceRecord struct {
	PlayerID string             `json:"player_id"`
	Stage    string             `json:"stage"`
	Values   map[string]float64 `json:"values"`
}

// Tracer receives trace records when Context.Verbose is set.
type Tracer func(TraceRecord)

// SlogTracer logs every record at debug level.
func SlogTracer(logger *slog.Logger) Tracer {
	return func(r TraceRecord) {
		keys := make([]string, 0, len(r.Values))
		for k := range r.Values {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		attrs := make([]slog.Attr, 0, len(keys)+2)
		attrs = append(attrs, slog.String("player_id", r.PlayerID), slog.String("stage", r.Stage))
		for _, k := range keys {
			attrs = append(attrs, slog.Float64(k, r.Values[k]))
		}
		logger.LogAttrs(context.Background(), slog.LevelDebug, "qei trace", attrs...)
	}
}

func (e *Engine) trace(ctx Context, playerID, stage string, values map[string]float64) {
	if !ctx.Verbose || e.tracer == nil {
		return
	}
	e.tracer(TraceRecord{PlayerID: playerID, Stage: stage, Values: values})
}
