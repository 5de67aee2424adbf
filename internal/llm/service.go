// Package llm runs the language-model chains behind intent classification and
// reference resolution.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/zhaowei/shopmate/internal/model/chat"
	"github.com/zhaowei/shopmate/internal/resolve"
	"github.com/zhaowei/shopmate/internal/retry"
	"github.com/zhaowei/shopmate/internal/routing"
)

const classifierSystemPrompt = "You are an intent router for an e-commerce support assistant. " +
	"Classify the user message into exactly one of: order_cancellation | order_tracking | product_qa. " +
	"Return strict JSON: {\"intent\": string, \"confidence\": number, \"rationale\": string}. " +
	"No extra text."

const classifierUserPrompt = `Message: {text}
Rules: If the user mentions cancel/refund, choose order_cancellation; track/status/ETA, choose order_tracking; otherwise product_qa.`

const resolverSystemPrompt = "You are a context resolver for an e-commerce support assistant. " +
	"Decide whether the user refers to a specific order, formatted like ORD-1234. " +
	"Return strict JSON: {\"id\": \"<ORD-XXXX or null>\", \"confidence\": <0-1>, \"reasoning\": \"<brief explanation>\"}. " +
	"No extra text."

const resolverUserPrompt = `Conversation history:
{history}

Current message:
"""{message}"""

Known entities:
last_order_id: {last_order_id}
last_product_context: {last_product_context}`

// Service compiles one chain per call shape and shares the retry policy with
// every other outbound dependency.
type Service struct {
	classify compose.Runnable[map[string]any, *schema.Message]
	resolve  compose.Runnable[map[string]any, *schema.Message]
	caller   *retry.Caller
}

// NewService compiles both chains against the provided chat model.
func NewService(ctx context.Context, chatModel model.ChatModel, caller *retry.Caller) (*Service, error) {
	classify, err := compileChain(ctx, chatModel, classifierSystemPrompt, classifierUserPrompt)
	if err != nil {
		return nil, fmt.Errorf("compile classifier chain: %w", err)
	}
	resolveChain, err := compileChain(ctx, chatModel, resolverSystemPrompt, resolverUserPrompt)
	if err != nil {
		return nil, fmt.Errorf("compile resolver chain: %w", err)
	}
	if caller == nil {
		caller = retry.New(retry.Policy{MaxAttempts: 3, InitialBackoff: 500 * time.Millisecond})
	}
	return &Service{classify: classify, resolve: resolveChain, caller: caller}, nil
}

func compileChain(ctx context.Context, chatModel model.ChatModel, system, user string) (compose.Runnable[map[string]any, *schema.Message], error) {
	template := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(system),
		schema.UserMessage(user),
	)
	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(template)
	chain.AppendChatModel(chatModel)
	return chain.Compile(ctx)
}

// invoke runs one chain under the retry budget and returns the raw content.
func (s *Service) invoke(ctx context.Context, chain compose.Runnable[map[string]any, *schema.Message], input map[string]any) (string, error) {
	var content string
	err := s.caller.Do(ctx, func(ctx context.Context) error {
		msg, err := chain.Invoke(ctx, input)
		if err != nil {
			return err
		}
		if msg == nil || strings.TrimSpace(msg.Content) == "" {
			return fmt.Errorf("empty model output")
		}
		content = msg.Content
		return nil
	})
	return content, err
}

// ClassifyIntent implements routing.Classifier.
func (s *Service) ClassifyIntent(ctx context.Context, text string) (routing.ClassifiedIntent, error) {
	content, err := s.invoke(ctx, s.classify, map[string]any{"text": text})
	if err != nil {
		return routing.ClassifiedIntent{}, err
	}

	var payload struct {
		Intent     string  `json:"intent"`
		Confidence float64 `json:"confidence"`
		Rationale  string  `json:"rationale"`
	}
	if err := decodeJSONObject(content, &payload); err != nil {
		return routing.ClassifiedIntent{}, fmt.Errorf("malformed classifier output: %w", err)
	}
	return routing.ClassifiedIntent{
		Intent:     payload.Intent,
		Confidence: payload.Confidence,
		Rationale:  payload.Rationale,
	}, nil
}

// ResolveReference implements resolve.ContextModel.
func (s *Service) ResolveReference(ctx context.Context, q resolve.Query) (resolve.Candidate, error) {
	content, err := s.invoke(ctx, s.resolve, map[string]any{
		"history":              formatHistory(q.History),
		"message":              q.Message,
		"last_order_id":        orNone(q.LastOrderID),
		"last_product_context": orNone(q.LastProductContext),
	})
	if err != nil {
		return resolve.Candidate{}, err
	}

	var payload struct {
		ID         *string `json:"id"`
		Confidence float64 `json:"confidence"`
		Reasoning  string  `json:"reasoning"`
	}
	if err := decodeJSONObject(content, &payload); err != nil {
		return resolve.Candidate{}, fmt.Errorf("malformed resolver output: %w", err)
	}

	candidate := resolve.Candidate{Confidence: payload.Confidence, Reasoning: payload.Reasoning}
	if payload.ID != nil && !strings.EqualFold(*payload.ID, "null") {
		candidate.ID = strings.TrimSpace(*payload.ID)
	}
	return candidate, nil
}

// decodeJSONObject tolerates prose around the JSON object by extracting the
// outermost brace pair before unmarshalling.
func decodeJSONObject(content string, target any) error {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end <= start {
		return fmt.Errorf("missing json object")
	}
	return json.Unmarshal([]byte(trimmed[start:end+1]), target)
}

func formatHistory(turns []chat.Turn) string {
	if len(turns) == 0 {
		return "no prior conversation"
	}
	var builder strings.Builder
	for i, turn := range turns {
		content := strings.TrimSpace(turn.Content)
		if content == "" {
			continue
		}
		builder.WriteString(turn.Role)
		builder.WriteString(": ")
		builder.WriteString(content)
		if i < len(turns)-1 {
			builder.WriteString("\n")
		}
	}
	if builder.Len() == 0 {
		return "no prior conversation"
	}
	return builder.String()
}

func orNone(val string) string {
	if strings.TrimSpace(val) == "" {
		return "none"
	}
	return val
}
