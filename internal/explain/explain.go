// Copyright PaperMind Labs, 2026. All rights reserved.

// Package explain generates short natural-language accounts of why a
// ranked paper matches the query. It sits above the retrieval core: a
// failed explanation degrades to a static fallback string and never
// blocks or fails retrieval.
package explain

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/papermind/papermind/pkg/types"
)

// Completer produces one chat completion. Satisfied by the OpenAI client;
// tests substitute a fake.
type Completer interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Service generates relevance explanations through a chat model.
type Service struct {
	client Completer
	model  string
}

const (
	systemPrompt = "You are an expert research assistant. Provide clear, concise explanations of paper relevance."

	// Retry once before falling back.
	maxAttempts = 2

	abstractPromptLen = 400
)

// NewService builds a Service from cfg.
func NewService(cfg types.ExplainConfig) (*Service, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required for explanations")
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT3Dot5Turbo
	}
	return &Service{client: openai.NewClient(cfg.APIKey), model: model}, nil
}

// NewServiceWithCompleter builds a Service over an explicit Completer.
func NewServiceWithCompleter(c Completer, model string) *Service {
	return &Service{client: c, model: model}
}

// ExplainTop attaches an explanation to each of the first n papers,
// in place. Failures degrade to the static fallback per paper.
func (s *Service) ExplainTop(ctx context.Context, query string, papers []types.Paper, n int) {
	if n > len(papers) {
		n = len(papers)
	}
	for i := 0; i < n; i++ {
		papers[i].Explanation = s.Explain(ctx, query, papers[i])
	}
}

// Explain returns a two-sentence relevance explanation for one paper,
// or the fallback string when the chat API fails.
func (s *Service) Explain(ctx context.Context, query string, paper types.Paper) string {
	prompt := buildPrompt(query, paper)

	for attempt := 0; attempt < maxAttempts; attempt++ {
		resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: s.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
			Temperature: 0.3,
			MaxTokens:   150,
		})
		if err != nil {
			continue
		}
		if len(resp.Choices) == 0 {
			continue
		}
		if text := strings.TrimSpace(resp.Choices[0].Message.Content); text != "" {
			return text
		}
	}
	return Fallback(query, paper)
}

// buildPrompt formats the explanation request.
func buildPrompt(query string, paper types.Paper) string {
	abstract := paper.Abstract
	if len(abstract) > abstractPromptLen {
		abstract = abstract[:abstractPromptLen] + "..."
	}

	authors := paper.Authors
	if len(authors) > 3 {
		authors = authors[:3]
	}

	return fmt.Sprintf(`Query: %q

Paper Details:
Title: %q
Abstract: %q
Authors: %s
Source: %s

Task: Explain in exactly 2 sentences why this paper is relevant to the user's query. Focus on specific connections between the query and the paper's content.`,
		query, paper.Title, abstract, strings.Join(authors, ", "), paper.Source)
}

// Fallback is the static explanation used when the chat API fails.
func Fallback(query string, paper types.Paper) string {
	return fmt.Sprintf("This paper appears relevant to %q based on semantic similarity analysis. "+
		"The research focuses on %s which aligns with your search interests.",
		query, strings.ToLower(paper.Title))
}
