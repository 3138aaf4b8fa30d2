package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
	"github.com/custodia-labs/manualqa/internal/core/ports/driving"
	"github.com/custodia-labs/manualqa/internal/logger"
)

// Ensure AnswerService implements the interface.
var _ driving.AnswerService = (*AnswerService)(nil)

// Default prompts, used when no PromptStore is configured or a prompt is unreadable.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
const (
	defaultAnswerSystemPrompt = `You are a vehicle owner's manual assistant.
Answer only from the manual excerpts provided with each question.
If the driver describes a fault symptom, list the likely causes and explain how to inspect and fix them, step by step and politely.
If the question is about operating a feature, a notice or a caution, explain that content clearly.
If the excerpts do not settle the answer, say you are not sure and recommend an inspection by a certified technician.`

	defaultAnswerUserPrompt = `Manual excerpts:
---
%s
---

Question: %s`
)

// DefaultAnswerMaxTokens caps answer length when none is configured.
const DefaultAnswerMaxTokens = 500

// AnswerService answers questions from retrieved manual context.
type AnswerService struct {
	retriever driving.RetrievalService
	llm       driven.LLMService
	prompts   driven.PromptStore
	history   driven.HistoryStore
	maxTokens int
	now       func() time.Time
}

// NewAnswerService creates a new answer service.
// llm, prompts and history are optional (can be nil).
func NewAnswerService(
	retriever driving.RetrievalService,
	llm driven.LLMService,
	prompts driven.PromptStore,
	history driven.HistoryStore,
) *AnswerService {
	return &AnswerService{
		retriever: retriever,
		llm:       llm,
		prompts:   prompts,
		history:   history,
		maxTokens: DefaultAnswerMaxTokens,
		now:       time.Now,
	}
}

// SetMaxTokens overrides the answer length cap. Non-positive values are ignored.
func (s *AnswerService) SetMaxTokens(n int) {
	if n > 0 {
		s.maxTokens = n
	}
}

// Ask retrieves context for question and asks the language model.
func (s *AnswerService) Ask(ctx context.Context, question string, scope domain.Scope, k int) (*domain.Answer, error) {
	start := s.now()

	retrieval, err := s.retriever.Retrieve(ctx, question, scope, k)
	answer := &domain.Answer{Question: strings.TrimSpace(question), Retrieval: retrieval}

	switch {
	case errors.Is(err, domain.ErrNoRelevantContext):
		answer.Text = domain.NotFoundAnswer
		answer.Outcome = domain.OutcomeNotFound
	case err != nil:
		return nil, err
	default:
		text, genErr := s.generate(ctx, retrieval)
		if genErr != nil {
			logger.Error("answer generation failed: %v", genErr)
			answer.Text = domain.FallbackAnswer
			answer.Outcome = domain.OutcomeFallback
		} else {
			answer.Text = text
			answer.Outcome = domain.OutcomeAnswered
		}
	}

	logger.Info("Answer outcome: %s", answer.Outcome)
	s.record(ctx, answer, scope, s.now().Sub(start))
	return answer, nil
}

// generate calls the language model. Every failure, including a panic in the
// adapter and an empty reply, is returned as domain.ErrAnswererUnavailable.
func (s *AnswerService) generate(ctx context.Context, retrieval *domain.Retrieval) (text string, err error) {
	if s.llm == nil {
		return "", fmt.Errorf("%w: no language model configured", domain.ErrAnswererUnavailable)
	}

	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("%w: panic: %v", domain.ErrAnswererUnavailable, r)
		}
	}()

	messages := []driven.ChatMessage{
		{Role: driven.RoleSystem, Content: s.systemPrompt()},
		{Role: driven.RoleUser, Content: fmt.Sprintf(s.userPrompt(), retrieval.Context, retrieval.Question)},
	}

	logger.Debug("Asking %s with %d context chunks", s.llm.ModelName(), len(retrieval.Selected))
	reply, err := s.llm.Chat(ctx, messages, driven.ChatOptions{MaxTokens: s.maxTokens})
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrAnswererUnavailable, err)
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", fmt.Errorf("%w: empty reply", domain.ErrAnswererUnavailable)
	}
	return reply, nil
}

func (s *AnswerService) systemPrompt() string {
	if s.prompts == nil {
		return defaultAnswerSystemPrompt
	}
	prompt, err := s.prompts.Load(driven.PromptAnswerSystem)
	if err != nil || strings.TrimSpace(prompt) == "" {
		return defaultAnswerSystemPrompt
	}
	return prompt
}

// userPrompt returns the user template. A template without exactly two %s
// verbs would garble the request, so the default is used instead.
func (s *AnswerService) userPrompt() string {
	if s.prompts == nil {
		return defaultAnswerUserPrompt
	}
	prompt, err := s.prompts.Load(driven.PromptAnswerUser)
	if err != nil || strings.Count(prompt, "%s") != 2 || strings.Count(prompt, "%") != 2 {
		return defaultAnswerUserPrompt
	}
	return prompt
}

func (s *AnswerService) record(ctx context.Context, answer *domain.Answer, scope domain.Scope, elapsed time.Duration) {
	if s.history == nil {
		return
	}

	record := domain.QueryRecord{
		Question: answer.Question,
		Scope:    scope.String(),
		Answer:   answer.Text,
		Outcome:  answer.Outcome,
		Duration: elapsed,
		AskedAt:  s.now(),
	}
	if answer.Retrieval != nil {
		record.ContextChunks = len(answer.Retrieval.Selected)
	}

	if err := s.history.RecordQuery(ctx, record); err != nil {
		logger.Warn("Failed to record query history: %v", err)
	}
}
