package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const extractSystemPrompt = `Extract up to 5 short topic tags from the user's question.
Respond with a JSON array of lowercase strings, nothing else.
Example: ["venture-capital","startups"]`

const maxExtractedTags = 5

// Extractor produces topic tags from free text via chat completions. It backs
// the keyword table as the extraction fallback for queries the table misses.
type Extractor struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewExtractor creates an LLM tag extractor.
func NewExtractor(cfg *Config) *Extractor {
	return &Extractor{client: newClient(cfg), model: cfg.ChatModel, logger: cfg.Logger}
}

// Extract implements tagindex.Extractor.
func (e *Extractor) Extract(ctx context.Context, text string) ([]string, error) {
	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: extractSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("extract tags: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("extract tags: empty completion")
	}

	tags, err := parseTags(resp.Choices[0].Message.Content)
	if err != nil {
		e.logger.Warn("Unparseable tag extraction output",
			zap.String("output", resp.Choices[0].Message.Content),
			zap.Error(err),
		)
		return nil, err
	}
	return tags, nil
}

// parseTags accepts a bare JSON array, tolerating code fences the model may
// wrap it in.
func parseTags(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, fmt.Errorf("parse tag array: %w", err)
	}

	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
		if len(out) == maxExtractedTags {
			break
		}
	}
	return out, nil
}
