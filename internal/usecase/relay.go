package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"advisor-chat/internal/domain"
	"advisor-chat/internal/integrations/gemini"
	"advisor-chat/internal/metrics"
	"advisor-chat/internal/richtext"
)

const (
	outcomeOK       = "ok"
	outcomeFallback = "fallback"
	outcomeInvalid  = "invalid_input"
	outcomeUpstream = "upstream_error"
)

type LLMClient interface {
	Generate(ctx context.Context, model, prompt string) (*gemini.GenerateResponse, error)
}

type ExchangeRecorder interface {
	RecordExchange(ctx context.Context, ex domain.Exchange) error
}

type RelayService struct {
	llm       LLMClient
	exchanges ExchangeRecorder
	model     string
	logger    *slog.Logger
}

type RelayInput struct {
	Messages      []domain.ChatMessage
	Category      string
	CorrelationID string
}

type RelayOutput struct {
	Response string
}

// NewRelayService wires the provider client. exchanges may be nil, in which
// case no exchange log is written.
func NewRelayService(llm LLMClient, exchanges ExchangeRecorder, model string, logger *slog.Logger) (*RelayService, error) {
	if llm == nil {
		return nil, errors.New("usecase: llm client must not be nil")
	}
	model = strings.TrimSpace(model)
	if model == "" {
		return nil, errors.New("usecase: model must not be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RelayService{
		llm:       llm,
		exchanges: exchanges,
		model:     model,
		logger:    logger,
	}, nil
}

func (s *RelayService) Relay(ctx context.Context, in RelayInput) (RelayOutput, error) {
	start := time.Now()
	category := domain.ParseCategory(in.Category)

	if in.Messages == nil {
		s.finish(ctx, in, category, outcomeInvalid, start, 0)
		return RelayOutput{}, newError(ErrorInvalidInput, "messages_required", nil)
	}

	prompt := buildPrompt(category, lastUserMessage(in.Messages))

	callStart := time.Now()
	resp, err := s.llm.Generate(ctx, s.model, prompt)
	metrics.ProviderLatency.Observe(time.Since(callStart).Seconds())
	if err != nil {
		s.finish(ctx, in, category, outcomeUpstream, start, 0)
		return RelayOutput{}, newError(ErrorUpstream, "gemini_error", err)
	}

	outcome := outcomeOK
	text, ok := resp.FirstText()
	if !ok {
		outcome = outcomeFallback
		text = fallbackAnswer
	}

	formatted := richtext.FormatHTML(text)
	s.finish(ctx, in, category, outcome, start, len(formatted))
	return RelayOutput{Response: formatted}, nil
}

func (s *RelayService) finish(ctx context.Context, in RelayInput, category domain.Category, outcome string, start time.Time, responseLen int) {
	metrics.RelayRequests.WithLabelValues(string(category), outcome).Inc()

	if s.exchanges == nil {
		return
	}
	ex := domain.Exchange{
		ExchangeID:     newUUID(),
		CorrelationID:  in.CorrelationID,
		Category:       category,
		Outcome:        outcome,
		Model:          s.model,
		DurationMillis: time.Since(start).Milliseconds(),
		ResponseLength: responseLen,
	}
	if err := s.exchanges.RecordExchange(ctx, ex); err != nil {
		s.logger.Warn("failed to record exchange",
			"err", err,
			"exchange_id", ex.ExchangeID,
			"correlation_id", in.CorrelationID,
		)
	}
}

var newUUID = func() string {
	return uuid.NewString()
}
