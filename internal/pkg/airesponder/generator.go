package airesponder

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/ReviewDeckHQ/ReviewDeck/internal/pkg/env"
)

// ErrNotConfigured means no API key is present; generation endpoints report
// this instead of calling out with empty credentials.
var ErrNotConfigured = errors.New("airesponder: OPENAI_API_KEY is not set")

const defaultModel = openai.ChatModelGPT4oMini

// ReviewInput carries the review context the model writes a reply for.
type ReviewInput struct {
	BusinessName string `json:"business_name"`
	ReviewerName string `json:"reviewer_name"`
	Rating       int    `json:"rating" validate:"min=1,max=5"`
	ReviewText   string `json:"review_text"`
	Tone         string `json:"tone,omitempty"`
	Language     string `json:"language,omitempty"`
}

// Generator drafts owner replies to customer reviews.
type Generator struct {
	client openai.Client
	model  string
}

// New builds a generator from the environment. Returns ErrNotConfigured when
// the key is missing so callers can degrade gracefully.
func New() (*Generator, error) {
	apiKey := env.GetEnv("OPENAI_API_KEY", "")
	if apiKey == "" {
		return nil, ErrNotConfigured
	}

	model := env.GetEnv("OPENAI_MODEL", defaultModel)

	return &Generator{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}, nil
}

// Generate produces one complete reply draft.
func (g *Generator) Generate(ctx context.Context, input ReviewInput) (string, error) {
	resp, err := g.client.Chat.Completions.New(ctx, g.params(input))
	if err != nil {
		return "", fmt.Errorf("airesponder: completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("airesponder: completion returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// GenerateStream produces a reply draft incrementally, invoking emit for each
// content delta. emit returning an error aborts the stream; a disconnected
// client should not keep tokens flowing.
func (g *Generator) GenerateStream(ctx context.Context, input ReviewInput, emit func(delta string) error) error {
	stream := g.client.Chat.Completions.NewStreaming(ctx, g.params(input))
	defer stream.Close()

	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		if err := emit(delta); err != nil {
			return err
		}
	}
	if err := stream.Err(); err != nil {
		return fmt.Errorf("airesponder: stream: %w", err)
	}
	return nil
}

func (g *Generator) params(input ReviewInput) openai.ChatCompletionNewParams {
	system, user := buildPrompt(input)
	return openai.ChatCompletionNewParams{
		Model: g.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
	}
}

// buildPrompt assembles the instruction pair. Kept as a pure function so the
// prompt shape is testable without an API key.
func buildPrompt(input ReviewInput) (system, user string) {
	tone := input.Tone
	if tone == "" {
		tone = "friendly and professional"
	}

	var sb strings.Builder
	sb.WriteString("You write short owner replies to customer reviews on behalf of a business. ")
	sb.WriteString("Keep the reply under 120 words, thank the reviewer, address their specific points, ")
	sb.WriteString("and never invent promotions, compensation or facts about the business. ")
	fmt.Fprintf(&sb, "Write in a %s tone. ", tone)
	if input.Language != "" {
		fmt.Fprintf(&sb, "Reply in %s. ", input.Language)
	} else {
		sb.WriteString("Reply in the same language as the review. ")
	}
	sb.WriteString("Return only the reply text, no quotes and no signature.")
	system = sb.String()

	var ub strings.Builder
	if input.BusinessName != "" {
		fmt.Fprintf(&ub, "Business: %s\n", input.BusinessName)
	}
	if input.ReviewerName != "" {
		fmt.Fprintf(&ub, "Reviewer: %s\n", input.ReviewerName)
	}
	fmt.Fprintf(&ub, "Rating: %d/5\n", input.Rating)
	if input.ReviewText != "" {
		fmt.Fprintf(&ub, "Review:\n%s", input.ReviewText)
	} else {
		ub.WriteString("Review: (no text, rating only)")
	}
	user = ub.String()

	return system, user
}
