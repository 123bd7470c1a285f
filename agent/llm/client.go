// Package llm adapts the OpenAI chat completions API, or any
// OpenAI-compatible endpoint, to the contract.ChatModel boundary.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	contractx "github.com/apexfin/account-agent/agent/contract"
)

type Client struct {
	api         openai.Client
	model       string
	maxTokens   int64
	temperature float64
	timeout     time.Duration
}

var _ contractx.ChatModel = (*Client)(nil)

func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(cfg.APIKey)),
	}
	if base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); base != "" {
		opts = append(opts, option.WithBaseURL(base))
	}

	return &Client{
		api:         openai.NewClient(opts...),
		model:       strings.TrimSpace(cfg.Model),
		maxTokens:   int64(cfg.MaxCompletionToken),
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
	}, nil
}

// Complete sends the transcript and tool catalog to the model and returns
// either a plain message or the requested tool calls. A timeout counts as a
// model-service failure.
func (c *Client) Complete(ctx context.Context, req contractx.CompletionRequest) (contractx.ModelResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(c.model),
		Messages:    toMessages(req.System, req.Turns),
		Tools:       toTools(req.Tools),
		Temperature: openai.Float(c.temperature),
		MaxTokens:   openai.Int(c.maxTokens),
	}

	completion, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		return contractx.ModelResponse{}, fmt.Errorf("%w: chat completion: %v", contractx.ErrModelInvoke, err)
	}
	if len(completion.Choices) == 0 {
		return contractx.ModelResponse{}, fmt.Errorf("%w: completion has no choices", contractx.ErrSchemaViolation)
	}

	msg := completion.Choices[0].Message
	out := contractx.ModelResponse{Content: msg.Content}
	for _, tc := range msg.ToolCalls {
		if tc.Function.Name == "" {
			return contractx.ModelResponse{}, fmt.Errorf("%w: tool call without a name", contractx.ErrSchemaViolation)
		}
		out.ToolCalls = append(out.ToolCalls, contractx.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: json.RawMessage(tc.Function.Arguments),
		})
	}
	return out, nil
}

func toMessages(system string, turns []contractx.Turn) []openai.ChatCompletionMessageParamUnion {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(turns)+1)
	if system != "" {
		msgs = append(msgs, openai.SystemMessage(system))
	}
	for _, t := range turns {
		switch t.Role {
		case contractx.RoleUser:
			msgs = append(msgs, openai.UserMessage(t.Content))
		case contractx.RoleAssistant:
			if len(t.ToolCalls) == 0 {
				msgs = append(msgs, openai.AssistantMessage(t.Content))
				continue
			}
			var asst openai.ChatCompletionAssistantMessageParam
			if t.Content != "" {
				asst.Content.OfString = openai.String(t.Content)
			}
			for _, tc := range t.ToolCalls {
				asst.ToolCalls = append(asst.ToolCalls, openai.ChatCompletionMessageToolCallParam{
					ID: tc.ID,
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      tc.Name,
						Arguments: string(tc.Arguments),
					},
				})
			}
			msgs = append(msgs, openai.ChatCompletionMessageParamUnion{OfAssistant: &asst})
		case contractx.RoleTool:
			msgs = append(msgs, openai.ToolMessage(t.Content, t.ToolCallID))
		}
	}
	return msgs
}

func toTools(specs []contractx.ToolSpec) []openai.ChatCompletionToolParam {
	tools := make([]openai.ChatCompletionToolParam, 0, len(specs))
	for _, spec := range specs {
		tools = append(tools, openai.ChatCompletionToolParam{
			Function: shared.FunctionDefinitionParam{
				Name:        spec.Name,
				Description: openai.String(spec.Description),
				Parameters:  shared.FunctionParameters(spec.Parameters),
			},
		})
	}
	return tools
}
