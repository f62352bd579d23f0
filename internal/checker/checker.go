// Package checker runs a single bounded AI check for one topic: a
// tool-calling conversation with the model, capped by round count and wall
// clock, ending in a closed verdict.
package checker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"watchdog/internal/llm"
	"watchdog/internal/logging"
	"watchdog/internal/watchfile"
)

// ChatModel is the slice of the LLM client the executor needs.
type ChatModel interface {
	Chat(ctx context.Context, messages []llm.Message, tools []llm.Tool) (llm.Message, error)
}

// Executor runs topic checks.
type Executor struct {
	model     ChatModel
	tools     SearchTools
	maxRounds int
	timeout   time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// Options configures an Executor.
type Options struct {
	Model     ChatModel
	Tools     SearchTools
	MaxRounds int
	Timeout   time.Duration
	Logger    *slog.Logger
	// Now overrides the clock in tests.
	Now func() time.Time
}

// NewExecutor builds an executor. Model and Tools are required.
func NewExecutor(opts Options) (*Executor, error) {
	if opts.Model == nil {
		return nil, errors.New("checker: model required")
	}
	if opts.Tools == nil {
		return nil, errors.New("checker: tools required")
	}
	maxRounds := opts.MaxRounds
	if maxRounds <= 0 {
		maxRounds = 8
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Executor{
		model:     opts.Model,
		tools:     opts.Tools,
		maxRounds: maxRounds,
		timeout:   timeout,
		logger:    logging.WithComponent(opts.Logger, "checker"),
		now:       now,
	}, nil
}

// verdictPayload is the JSON shape the model must produce.
type verdictPayload struct {
	HasSignificantUpdate bool    `json:"has_significant_update"`
	Summary              string  `json:"summary"`
	Confidence           float64 `json:"confidence"`
	SourceURL            string  `json:"source_url"`
}

// Check runs one bounded check. Timeouts, exhausted tool budgets, and
// backend failures all yield an inconclusive result with Err set, never an
// error: a failed attempt is still a completed attempt. Only cancellation of
// the parent context (for example daemon shutdown) is returned as an error,
// so the caller knows the check never completed.
func (e *Executor) Check(ctx context.Context, topic watchfile.Topic) (Result, error) {
	started := e.now()
	logger := e.logger.With(logging.String(logging.FieldTopic, topic.Name))

	checkCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	messages := []llm.Message{
		{Role: "system", Content: checkSystemPrompt},
		{Role: "user", Content: buildUserPrompt(topic, started)},
	}
	tools := checkTools()

	rounds := 0
	for rounds < e.maxRounds {
		rounds++
		reply, err := e.model.Chat(checkCtx, messages, tools)
		if err != nil {
			if ctx.Err() != nil {
				// Parent canceled: the check is abandoned, not decided.
				return Result{}, fmt.Errorf("check %q: %w", topic.Name, ctx.Err())
			}
			if errors.Is(err, context.DeadlineExceeded) {
				logger.Warn("check timed out", logging.Int("rounds", rounds))
				return e.inconclusive(topic, "check timed out before reaching a verdict", rounds, started, err), nil
			}
			logger.Warn("model call failed", logging.Error(err), logging.Int("rounds", rounds))
			return e.inconclusive(topic, "check failed before reaching a verdict", rounds, started, err), nil
		}

		if len(reply.ToolCalls) == 0 {
			return e.finalize(topic, reply.Content, rounds, started, logger)
		}

		messages = append(messages, reply)
		for _, call := range reply.ToolCalls {
			logger.Debug("tool call",
				logging.String("tool", call.Function.Name),
				logging.Int("round", rounds))
			output := runToolCall(checkCtx, e.tools, call)
			messages = append(messages, llm.Message{
				Role:       "tool",
				ToolCallID: call.ID,
				Content:    output,
			})
		}
		if checkCtx.Err() != nil {
			if ctx.Err() != nil {
				return Result{}, fmt.Errorf("check %q: %w", topic.Name, ctx.Err())
			}
			logger.Warn("check timed out", logging.Int("rounds", rounds))
			return e.inconclusive(topic, "check timed out before reaching a verdict", rounds, started, checkCtx.Err()), nil
		}
	}

	logger.Warn("tool round budget exhausted", logging.Int("rounds", rounds))
	return e.inconclusive(topic, "tool round budget exhausted without a verdict", rounds, started, nil), nil
}

func (e *Executor) finalize(topic watchfile.Topic, content string, rounds int, started time.Time, logger *slog.Logger) (Result, error) {
	var payload verdictPayload
	if err := llm.DecodeLLMJSON(content, &payload); err != nil {
		logger.Warn("unparseable verdict", logging.Error(err))
		return e.inconclusive(topic, "model answer was not a valid verdict", rounds, started, err), nil
	}

	verdict := VerdictUnchanged
	if payload.HasSignificantUpdate {
		verdict = VerdictChanged
	}
	if payload.Confidence < 0 {
		payload.Confidence = 0
	}
	if payload.Confidence > 1 {
		payload.Confidence = 1
	}

	result := Result{
		Topic:      topic.Name,
		Verdict:    verdict,
		Summary:    strings.TrimSpace(payload.Summary),
		Confidence: payload.Confidence,
		SourceURL:  strings.TrimSpace(payload.SourceURL),
		Rounds:     rounds,
		CheckedAt:  started,
		Duration:   e.now().Sub(started),
	}
	if verdict == VerdictChanged {
		result.Fingerprint = Fingerprint(result.Summary, result.SourceURL)
	}

	logger.Info("check complete",
		logging.String(logging.FieldVerdict, string(verdict)),
		logging.Int("rounds", rounds),
		logging.Duration(logging.FieldDuration, result.Duration))
	return result, nil
}

func (e *Executor) inconclusive(topic watchfile.Topic, summary string, rounds int, started time.Time, cause error) Result {
	result := Result{
		Topic:     topic.Name,
		Verdict:   VerdictInconclusive,
		Summary:   summary,
		Rounds:    rounds,
		CheckedAt: started,
		Duration:  e.now().Sub(started),
	}
	if cause != nil {
		result.Err = cause.Error()
	}
	return result
}
