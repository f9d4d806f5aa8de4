package handler

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"advisor-chat/internal/domain"
	"advisor-chat/internal/usecase"
)

const (
	correlationHeader = "X-Correlation-Id"

	msgInvalidRequest = "Invalid request: 'messages' array is required"
	msgFetchFailed    = "Failed to fetch response"
	msgMethodNotAllow = "Method not allowed"
	msgBodyTooLarge   = "request body too large"
)

type Relayer interface {
	Relay(ctx context.Context, in usecase.RelayInput) (usecase.RelayOutput, error)
}

// Handler serves POST /api/chat both as an API Gateway proxy integration and
// as a net/http handler. Both paths share decode and error mapping.
type Handler struct {
	uc     Relayer
	logger *slog.Logger
}

type Option func(*Handler)

func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

func NewHandler(uc Relayer, opts ...Option) (*Handler, error) {
	if uc == nil {
		return nil, errors.New("handler: relay usecase must not be nil")
	}
	h := &Handler{uc: uc, logger: slog.Default()}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Handle is the Lambda entry point.
func (h *Handler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	correlationID := headerValue(event.Headers, correlationHeader)
	if correlationID == "" {
		correlationID = newCorrelationID()
	}

	var (
		status  int
		payload any
	)
	if event.HTTPMethod != "" && event.HTTPMethod != http.MethodPost {
		status, payload = http.StatusMethodNotAllowed, domain.ErrorResponse{Error: msgMethodNotAllow}
	} else {
		body := []byte(event.Body)
		if event.IsBase64Encoded {
			decoded, err := base64.StdEncoding.DecodeString(event.Body)
			if err != nil {
				h.logger.Warn("failed to decode base64 body", "err", err, "correlation_id", correlationID)
			}
			body = decoded
		}
		status, payload = h.process(ctx, body, correlationID)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":    "application/json",
			correlationHeader: correlationID,
		},
		Body: string(raw),
	}, nil
}

// ServeHTTP is the net/http entry point mounted by the router.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	correlationID := r.Header.Get(correlationHeader)
	if correlationID == "" {
		correlationID = newCorrelationID()
	}
	w.Header().Set(correlationHeader, correlationID)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.logger.Warn("request body too large", "limit", tooLarge.Limit, "correlation_id", correlationID)
			writeJSON(w, http.StatusRequestEntityTooLarge, domain.ErrorResponse{Error: msgBodyTooLarge})
			return
		}
		// a truncated body cannot hold a valid messages array
		h.logger.Warn("failed to read request body", "err", err, "correlation_id", correlationID)
		body = nil
	}
	status, payload := h.process(r.Context(), body, correlationID)
	writeJSON(w, status, payload)
}

func (h *Handler) process(ctx context.Context, body []byte, correlationID string) (int, any) {
	req, ok := decodeRelayRequest(body)
	if !ok {
		return http.StatusBadRequest, domain.ErrorResponse{Error: msgInvalidRequest}
	}

	out, err := h.uc.Relay(ctx, usecase.RelayInput{
		Messages:      req.Messages,
		Category:      req.Category,
		CorrelationID: correlationID,
	})
	if err != nil {
		status, msg := mapError(err)
		h.logger.Error("relay failed",
			"err", err,
			"status", status,
			"correlation_id", correlationID,
		)
		return status, domain.ErrorResponse{Error: msg}
	}
	return http.StatusOK, domain.RelayResponse{Response: out.Response}
}

func mapError(err error) (int, string) {
	var ucErr *usecase.Error
	if errors.As(err, &ucErr) && ucErr.Code == usecase.ErrorInvalidInput {
		return http.StatusBadRequest, msgInvalidRequest
	}
	return http.StatusInternalServerError, msgFetchFailed
}

// decodeRelayRequest accepts any JSON object whose "messages" is an array.
// Array elements that are not objects, and fields that are not strings, decode
// as empty values rather than failing the request.
func decodeRelayRequest(body []byte) (domain.RelayRequest, bool) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(bytes.TrimSpace(body), &envelope); err != nil {
		return domain.RelayRequest{}, false
	}
	rawMessages := bytes.TrimSpace(envelope["messages"])
	if len(rawMessages) == 0 || rawMessages[0] != '[' {
		return domain.RelayRequest{}, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(rawMessages, &items); err != nil {
		return domain.RelayRequest{}, false
	}

	messages := make([]domain.ChatMessage, 0, len(items))
	for _, item := range items {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(item, &fields); err != nil {
			messages = append(messages, domain.ChatMessage{})
			continue
		}
		messages = append(messages, domain.ChatMessage{
			Role:    domain.Role(stringField(fields["role"])),
			Content: contentField(fields["content"]),
		})
	}
	return domain.RelayRequest{
		Messages: messages,
		Category: stringField(envelope["category"]),
	}, true
}

func stringField(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// contentField renders a scalar content value as prompt text. Numbers and
// true are kept as text; zero, false, null, objects and arrays are empty.
func contentField(raw json.RawMessage) string {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
	case json.Number:
		if f, err := t.Float64(); err == nil && f != 0 {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func headerValue(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

var newCorrelationID = func() string {
	return uuid.NewString()
}
