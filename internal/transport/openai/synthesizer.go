package openai

import (
	"context"
	"fmt"
	"sort"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/podscout/podscout/internal/domain"
)

const synthSystemPrompt = `You summarize podcast research for a listener.
Combine the expert findings below into one concise answer to the question.
Answer only from the findings. If they disagree, say so. Do not invent sources.`

// Synthesizer composes the final answer text via chat completions. When no
// chat model is configured the synthesizer degrades to a deterministic
// template so the pipeline works without an LLM.
type Synthesizer struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewSynthesizer creates a chat-based answer composer. An empty ChatModel
// disables the LLM and keeps the template path only.
func NewSynthesizer(cfg *Config) *Synthesizer {
	var client *openai.Client
	if cfg.ChatModel != "" {
		client = newClient(cfg)
	}
	return &Synthesizer{client: client, model: cfg.ChatModel, logger: cfg.Logger}
}

// Synthesize implements the orchestrator's Synthesizer contract.
func (s *Synthesizer) Synthesize(
	ctx context.Context, q domain.Query, responses map[string]domain.ExpertResponse,
) (string, error) {
	if len(responses) == 0 {
		return "", domain.ErrSynthesisUnavailable
	}

	if s.client == nil {
		return templateAnswer(responses), nil
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: synthSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(q, responses)},
		},
	})
	if err != nil {
		s.logger.Warn("Chat completion failed, using template answer", zap.Error(err))
		return templateAnswer(responses), nil
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return templateAnswer(responses), nil
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func buildPrompt(q domain.Query, responses map[string]domain.ExpertResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n", q.Text())
	if q.Context() != "" {
		fmt.Fprintf(&b, "Context: %s\n", q.Context())
	}
	b.WriteString("\nExpert findings:\n")
	for _, name := range stageNames(responses) {
		r := responses[name]
		if r.Content == "" {
			continue
		}
		fmt.Fprintf(&b, "\n[%s, confidence %.2f]\n%s\n", name, r.Confidence, r.Content)
	}
	return b.String()
}

// templateAnswer joins stage contents best-first.
func templateAnswer(responses map[string]domain.ExpertResponse) string {
	names := stageNames(responses)
	sort.SliceStable(names, func(i, j int) bool {
		return responses[names[i]].Confidence > responses[names[j]].Confidence
	})

	var parts []string
	for _, name := range names {
		if c := responses[name].Content; c != "" {
			parts = append(parts, c)
		}
	}
	if len(parts) == 0 {
		return "No relevant podcast content was found for this question."
	}
	return strings.Join(parts, "\n\n")
}

func stageNames(responses map[string]domain.ExpertResponse) []string {
	names := make([]string, 0, len(responses))
	for name := range responses {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
