// Package orchestrator drives one conversation turn: user message in, model
// rounds and tool executions in between, user-facing reply out.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/apexfin/account-agent/agent/contract"
	statex "github.com/apexfin/account-agent/agent/state"
	toolx "github.com/apexfin/account-agent/agent/tool"
)

// Dispatcher executes a single tool call against a session. Implementations
// must not return transport-level errors; failures are IsError results.
type Dispatcher interface {
	Dispatch(ctx context.Context, sess *statex.Session, call contractx.ToolCall) contractx.ToolResult
}

const defaultMaxToolRounds = 8

// fallbackReply is returned when the model keeps requesting tools past the
// round cap.
const fallbackReply = "I'm sorry, I encountered an issue processing your request. Please try again."

// Result is the outcome of one chat turn.
type Result struct {
	SessionID string
	Reply     string
	Metadata  *contractx.AccountMetadata
}

type Orchestrator struct {
	store  statex.Store
	model  contractx.ChatModel
	tools  Dispatcher
	system string

	maxToolRounds int
	now           func() time.Time
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithMaxToolRounds caps the number of model round-trips per user turn.
func WithMaxToolRounds(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxToolRounds = n
		}
	}
}

// WithClock replaces the time source. Test seam.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

func New(store statex.Store, model contractx.ChatModel, tools Dispatcher, systemPrompt string, opts ...Option) (*Orchestrator, error) {
	if store == nil {
		return nil, errors.New("session store is required")
	}
	if model == nil {
		return nil, errors.New("chat model is required")
	}
	if tools == nil {
		return nil, errors.New("tool dispatcher is required")
	}
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, errors.New("system prompt is required")
	}

	o := &Orchestrator{
		store:         store,
		model:         model,
		tools:         tools,
		system:        systemPrompt,
		maxToolRounds: defaultMaxToolRounds,
		now:           time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o, nil
}

// ProcessMessage runs one full turn for the session. The session is locked
// for the whole turn: a session never processes two user messages
// concurrently. A model failure aborts the turn but leaves the transcript —
// the user's message included — intact for a retry.
func (o *Orchestrator) ProcessMessage(ctx context.Context, sessionID, text string) (Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Result{}, fmt.Errorf("%w: message is empty", contractx.ErrValidation)
	}

	sess, created := o.store.GetOrCreate(sessionID)
	sess.Lock()
	defer sess.Unlock()

	logger := log.With().Str("session_id", sess.ID).Logger()
	if created {
		logger.Info().Msg("session created")
	}

	sess.AppendTurn(contractx.Turn{
		Role:      contractx.RoleUser,
		Content:   text,
		Timestamp: o.now(),
	})

	var metadata *contractx.AccountMetadata
	specs := toolx.Specs()

	for round := 0; round < o.maxToolRounds; round++ {
		resp, err := o.model.Complete(ctx, contractx.CompletionRequest{
			System: o.system,
			Turns:  sess.Turns,
			Tools:  specs,
		})
		if err != nil {
			logger.Error().Err(err).Int("round", round).Msg("model invoke failed")
			return Result{SessionID: sess.ID}, fmt.Errorf("process message: %w", err)
		}

		if len(resp.ToolCalls) == 0 {
			reply := strings.TrimSpace(resp.Content)
			if reply == "" {
				logger.Error().Int("round", round).Msg("model returned neither content nor tool calls")
				return Result{SessionID: sess.ID}, fmt.Errorf("%w: empty assistant message", contractx.ErrSchemaViolation)
			}
			sess.AppendTurn(contractx.Turn{
				Role:      contractx.RoleAssistant,
				Content:   reply,
				Timestamp: o.now(),
			})
			return Result{SessionID: sess.ID, Reply: reply, Metadata: metadata}, nil
		}

		sess.AppendTurn(contractx.Turn{
			Role:      contractx.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
			Timestamp: o.now(),
		})

		for _, call := range resp.ToolCalls {
			result := o.tools.Dispatch(ctx, sess, call)
			sess.AppendTurn(contractx.Turn{
				Role:       contractx.RoleTool,
				Content:    string(result.Payload),
				ToolCallID: call.ID,
				ToolName:   call.Name,
				Timestamp:  o.now(),
			})
			logger.Debug().Str("tool", call.Name).Bool("is_error", result.IsError).Msg("tool executed")

			if meta := accountMetadata(result); meta != nil {
				metadata = meta
				logger.Info().Msg("account created in this turn")
			}
		}
	}

	logger.Warn().Int("max_rounds", o.maxToolRounds).Err(contractx.ErrLoopLimit).Msg("turn aborted at round cap")
	sess.AppendTurn(contractx.Turn{
		Role:      contractx.RoleAssistant,
		Content:   fallbackReply,
		Timestamp: o.now(),
	})
	return Result{SessionID: sess.ID, Reply: fallbackReply, Metadata: metadata}, nil
}

// accountMetadata extracts the account record from a successful
// create_account result, nil otherwise.
func accountMetadata(result contractx.ToolResult) *contractx.AccountMetadata {
	if result.Tool != toolx.ToolCreateAccount || result.IsError {
		return nil
	}
	var out toolx.CreateAccountOutput
	if err := json.Unmarshal(result.Payload, &out); err != nil || !out.Success {
		return nil
	}
	return &contractx.AccountMetadata{
		AccountCreated: true,
		AccountNumber:  out.AccountNumber,
		RoutingNumber:  out.RoutingNumber,
		AccountType:    out.AccountType,
	}
}
