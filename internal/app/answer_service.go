package app

import (
	"context"
	"fmt"
	"strings"

	"manualpilot/internal/ai"
	"manualpilot/internal/model"
)

const (
	// DefaultMaxSources caps the sources shown to the user. Retrieval stays
	// broader (DefaultTopK) on purpose: more context for the model, fewer
	// citations on screen.
	DefaultMaxSources = 3

	contextSeparator = "\n\n---\n\n"
)

const systemPromptFormat = `You are an assistant that answers questions about product manuals.
Answer the user's question accurately and politely using the context below.

Context:
%s

Guidelines:
- Base your answer on the context
- If the context does not contain the information, say so
- Explain technical details in plain language
- Use bullet points where they help`

// Responder generates the final answer from an assembled prompt.
type Responder interface {
	Complete(ctx context.Context, messages []ai.ChatMessage) (string, error)
}

type AnswerResult struct {
	Message string                  `json:"message"`
	Sources []model.RetrievedSource `json:"sources"`
}

// AnswerService grounds a question in retrieved chunks and asks the responder
// for an answer, returning it with display-capped citations.
type AnswerService struct {
	retriever  *Retriever
	responder  Responder
	topK       int
	maxSources int
}

func NewAnswerService(retriever *Retriever, responder Responder, topK, maxSources int) *AnswerService {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if maxSources <= 0 {
		maxSources = DefaultMaxSources
	}
	return &AnswerService{
		retriever:  retriever,
		responder:  responder,
		topK:       topK,
		maxSources: maxSources,
	}
}

// Answer runs one retrieval-augmented generation cycle. The responder is
// called even when nothing was retrieved so it can state that it found no
// relevant information instead of the request erroring out.
func (s *AnswerService) Answer(ctx context.Context, query string, history []model.ConversationTurn) (*AnswerResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyMessage
	}

	chunks, err := s.retriever.Retrieve(ctx, query, s.topK)
	if err != nil {
		return nil, err
	}

	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = c.Content
	}
	contextBlock := strings.Join(parts, contextSeparator)

	messages := make([]ai.ChatMessage, 0, len(history)+2)
	messages = append(messages, ai.ChatMessage{
		Role:    "system",
		Content: fmt.Sprintf(systemPromptFormat, contextBlock),
	})
	for _, turn := range history {
		if turn.Role != "user" && turn.Role != "assistant" {
			continue
		}
		messages = append(messages, ai.ChatMessage{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, ai.ChatMessage{Role: "user", Content: query})

	answer, err := s.responder.Complete(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("generate answer failed: %w", err)
	}

	sources := make([]model.RetrievedSource, 0, len(chunks))
	for _, c := range chunks {
		sources = append(sources, c.Source())
	}
	if len(sources) > s.maxSources {
		sources = sources[:s.maxSources]
	}

	return &AnswerResult{Message: answer, Sources: sources}, nil
}
