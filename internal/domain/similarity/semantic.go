package similarity

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// nonMatchCeiling caps the score when the model judges the descriptions to
// be different items: high model confidence in a non-match pushes the score
// toward zero, low confidence leaves up to 0.3.
const nonMatchCeiling = 0.3

const semanticSystemPrompt = `You compare product descriptions from a vendor invoice and a purchase order.
Decide whether both describe the same product, accounting for trade names,
generic names, abbreviations and packaging variants. Respond with JSON only:
{"match": bool, "confidence": number between 0 and 1, "reason": string}`

// chatCompleter is the slice of the OpenAI client the comparer uses.
// Narrowed to an interface so tests can stub completions and failures.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Semantic asks an LLM whether two descriptions denote the same item.
// Every failure path (transport, malformed reply) falls back to the
// deterministic comparer so the reconciliation pipeline never stalls.
type Semantic struct {
	client   chatCompleter
	model    string
	fallback Comparer
	logger   *slog.Logger
}

// NewSemantic builds the OpenAI-backed comparer. fallback defaults to the
// deterministic fuzzy comparer when nil.
func NewSemantic(apiKey, model string, fallback Comparer, logger *slog.Logger) *Semantic {
	if fallback == nil {
		fallback = NewFuzzy()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Semantic{
		client:   openai.NewClient(apiKey),
		model:    model,
		fallback: fallback,
		logger:   logger,
	}
}

type semanticVerdict struct {
	Match      bool    `json:"match"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// Compare implements Comparer.
func (s *Semantic) Compare(ctx context.Context, descA, descB, codeA, codeB string) (Result, error) {
	if codeA != "" && codeB != "" && codeA == codeB {
		return Result{Score: 1.0, Reason: "material code match"}, nil
	}
	if strings.TrimSpace(descA) == "" || strings.TrimSpace(descB) == "" {
		return Result{Score: 0, Reason: "empty description"}, nil
	}

	verdict, err := s.ask(ctx, descA, descB, codeA, codeB)
	if err != nil {
		s.logger.Warn("semantic comparison failed, using fuzzy fallback", "error", err)
		res, ferr := s.fallback.Compare(ctx, descA, descB, codeA, codeB)
		if ferr != nil {
			return Result{}, ferr
		}
		res.Reason = "fallback: " + res.Reason
		return res, nil
	}

	score := verdict.Confidence
	if !verdict.Match {
		score = (1 - verdict.Confidence) * nonMatchCeiling
	}
	return Result{Score: clamp01(score), Reason: verdict.Reason}, nil
}

func (s *Semantic) ask(ctx context.Context, descA, descB, codeA, codeB string) (semanticVerdict, error) {
	user := fmt.Sprintf("Invoice description: %q (code %q)\nPurchase order description: %q (code %q)",
		descA, codeA, descB, codeB)

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: semanticSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return semanticVerdict{}, err
	}
	if len(resp.Choices) == 0 {
		return semanticVerdict{}, fmt.Errorf("empty completion")
	}

	var verdict semanticVerdict
	raw := stripCodeFence(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(raw), &verdict); err != nil {
		return semanticVerdict{}, fmt.Errorf("parse verdict: %w", err)
	}
	return verdict, nil
}

// stripCodeFence removes a markdown ```json fence if the model wrapped its
// reply in one.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
