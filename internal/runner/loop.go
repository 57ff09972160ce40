package runner

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/petasbytes/expense-agent/internal/history"
	"github.com/petasbytes/expense-agent/internal/telemetry"
	"github.com/petasbytes/expense-agent/memory"
	"github.com/petasbytes/expense-agent/tools"
)

// maxRounds bounds decision/tool-execution cycles within one turn.
const maxRounds = 10

// ErrRoundLimit reports a turn that kept requesting tools past maxRounds.
var ErrRoundLimit = errors.New("tool loop exceeded round limit")

const systemPrompt = `Kamu adalah asisten pencatat keuangan pribadi yang teliti dan ramah.

Tugasmu mencatat dan melaporkan pengeluaran pengguna lewat tools yang tersedia:
- Sebelum menyimpan pengeluaran baru, panggil get_recent_expenses untuk menentukan id berikutnya (last_id+1, mulai dari 1 jika kosong).
- Cek get_categories dan pakai ulang kategori yang sudah ada jika maknanya sama; tulis kategori dalam Title Case; pakai "Lain-lain" jika tidak jelas.
- Gunakan get_total_expense, get_expense_by_category, atau get_expense_by_period untuk pertanyaan laporan.
- Jawab selalu dalam Bahasa Indonesia, singkat dan jelas.`

// Phases of a single turn, in the order they occur.
type phase string

const (
	phaseDeciding       phase = "deciding"
	phaseExecutingTools phase = "executing_tools"
	phaseTrimming       phase = "trimming"
	phaseDone           phase = "done"
)

// Input is one incoming user message: text, a JPEG image, or both.
type Input struct {
	Text  string
	Image []byte
}

// Loop runs turns against the model with a fixed tool set and a
// conversation store.
type Loop struct {
	client *anthropic.Client
	model  anthropic.Model
	tools  []tools.ToolDefinition
	store  memory.Store
	logger *slog.Logger
}

// NewLoop wires a loop. A nil logger falls back to slog.Default.
func NewLoop(client *anthropic.Client, model anthropic.Model, toolDefs []tools.ToolDefinition, store memory.Store, logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{client: client, model: model, tools: toolDefs, store: store, logger: logger}
}

func (l *Loop) anthropicTools() []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(l.tools))
	for _, t := range l.tools {
		out = append(out, anthropic.ToolUnionParam{OfTool: &anthropic.ToolParam{
			Name:        t.Name,
			Description: anthropic.String(t.Description),
			InputSchema: t.InputSchema,
		}})
	}
	return out
}

// RunTurn processes one user input for a conversation and returns the
// model's final text. The updated history is written back only when the
// turn completes; a failed turn leaves stored memory untouched.
func (l *Loop) RunTurn(ctx context.Context, conversationID string, in Input) (string, error) {
	turnID, ok := telemetry.TurnIDFromContext(ctx)
	if !ok {
		turnID = fmt.Sprintf("turn-%d", time.Now().UnixNano())
		ctx = telemetry.WithTurnID(ctx, turnID)
	}

	telemetry.EmitInputFeatures(ctx, in.Text)

	msgs := l.store.Get(conversationID)
	msgs = append(msgs, memory.NewMessage(userMessage(in)))

	var final *anthropic.Message
	state := phaseDeciding
	for round := 0; state != phaseDone; round++ {
		if round >= maxRounds {
			l.logger.Warn("round limit reached", "conversation_id", conversationID, "turn_id", turnID)
			return "", ErrRoundLimit
		}

		resp, err := l.client.Messages.New(ctx, anthropic.MessageNewParams{
			Model:     l.model,
			MaxTokens: int64(1024),
			System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
			Messages:  history.SendWindow(msgs),
			Tools:     l.anthropicTools(),
		})
		if err != nil {
			return "", fmt.Errorf("model decision: %w", err)
		}
		msgs = append(msgs, memory.NewMessage(resp.ToParam()))

		requests := toolRequests(resp)
		if len(requests) == 0 {
			final = resp
			state = l.transition(turnID, round, phaseDone)
			continue
		}

		state = l.transition(turnID, round, phaseExecutingTools)
		results := make([]anthropic.ContentBlockParamUnion, 0, len(requests))
		for _, req := range requests {
			results = append(results, l.execTool(ctx, req.id, req.name, req.input))
		}
		msgs = append(msgs, memory.NewMessage(anthropic.NewUserMessage(results...)))

		state = l.transition(turnID, round, phaseTrimming)
		msgs = l.trim(conversationID, turnID, msgs)
		state = l.transition(turnID, round, phaseDeciding)
	}

	msgs = l.trim(conversationID, turnID, msgs)
	l.store.Put(conversationID, msgs)

	return Normalize(final), nil
}

func (l *Loop) transition(turnID string, round int, next phase) phase {
	l.logger.Debug("turn phase", "turn_id", turnID, "round", round, "phase", string(next))
	return next
}

func (l *Loop) trim(conversationID, turnID string, msgs []memory.Message) []memory.Message {
	removals := history.Trim(msgs, history.Cap)
	if len(removals) == 0 {
		return msgs
	}
	telemetry.Emit("history_trimmed", map[string]any{
		"conversation_id": conversationID,
		"turn_id":         turnID,
		"removed":         len(removals),
		"kept":            len(msgs) - len(removals),
	})
	return history.Apply(msgs, removals)
}

func userMessage(in Input) anthropic.MessageParam {
	if len(in.Image) == 0 {
		return anthropic.NewUserMessage(anthropic.NewTextBlock(in.Text))
	}
	text := in.Text
	if text == "" {
		text = "Extract data pengeluaran dari gambar ini."
	}
	return anthropic.NewUserMessage(
		anthropic.NewTextBlock(text),
		anthropic.NewImageBlockBase64("image/jpeg", base64.StdEncoding.EncodeToString(in.Image)),
	)
}
