// Package chat holds the client-side conversation state. Session is an
// immutable value; every operation returns the next Session.
package chat

import (
	"errors"
	"slices"
	"strings"

	"advisor-chat/internal/domain"
)

// ErrorFallback is shown as the AI reply when the relay cannot be reached.
const ErrorFallback = "Error fetching response"

// ErrBusy is returned when a message is submitted while a reply is pending.
var ErrBusy = errors.New("chat: a reply is still pending")

var quickQuestions = map[domain.Category][]string{
	domain.CategoryFinance: {
		"What are the best investment options?",
		"How can I save on taxes?",
		"What is the best way to build credit?",
	},
	domain.CategoryLegal: {
		"How do I start a business legally?",
		"What are my tenant rights?",
		"How does contract law work?",
	},
}

// QuickQuestions returns the canned questions offered for category.
func QuickQuestions(category domain.Category) []string {
	return slices.Clone(quickQuestions[domain.ParseCategory(string(category))])
}

// Session is the state of one client: the active tab, its transcript and
// whether a relay call is outstanding. Epoch increments on every tab switch so
// replies addressed to an earlier transcript can be recognized and dropped.
type Session struct {
	Category   domain.Category
	Transcript []domain.ChatMessage
	Pending    bool
	Epoch      uint64
}

// Submission is the relay call a Submit asks the caller to perform.
type Submission struct {
	Epoch   uint64
	Request domain.RelayRequest
}

// NewSession starts on the finance tab with an empty transcript.
func NewSession() Session {
	return Session{Category: domain.CategoryFinance}
}

// SwitchCategory activates tab. Switching to a different tab clears the
// transcript and abandons any pending reply; the same tab is a no-op.
func (s Session) SwitchCategory(tab domain.Category) Session {
	tab = domain.ParseCategory(string(tab))
	if tab == s.Category {
		return s
	}
	return Session{
		Category: tab,
		Epoch:    s.Epoch + 1,
	}
}

// Submit appends text as a user message and returns the relay call to make.
// The request carries the whole transcript including the new message.
// Whitespace-only text is ignored and yields a nil Submission.
func (s Session) Submit(text string) (Session, *Submission, error) {
	if strings.TrimSpace(text) == "" {
		return s, nil, nil
	}
	if s.Pending {
		return s, nil, ErrBusy
	}
	msg := domain.ChatMessage{Role: domain.RoleUser, Content: text}
	next := s.appendMessage(msg)
	next.Pending = true
	return next, &Submission{
		Epoch: s.Epoch,
		Request: domain.RelayRequest{
			Messages: next.Transcript,
			Category: string(s.Category),
		},
	}, nil
}

// QuickQuestion submits the i-th canned question of the active tab.
func (s Session) QuickQuestion(i int) (Session, *Submission, error) {
	qs := quickQuestions[s.Category]
	if i < 0 || i >= len(qs) {
		return s, nil, nil
	}
	return s.Submit(qs[i])
}

// Complete appends reply as the AI answer for the submission made at epoch.
// Replies for an earlier epoch are dropped.
func (s Session) Complete(epoch uint64, reply string) Session {
	if epoch != s.Epoch {
		return s
	}
	next := s.appendMessage(domain.ChatMessage{Role: domain.RoleAI, Content: reply})
	next.Pending = false
	return next
}

// Fail records that the relay could not be reached.
func (s Session) Fail(epoch uint64) Session {
	return s.Complete(epoch, ErrorFallback)
}

func (s Session) appendMessage(msg domain.ChatMessage) Session {
	transcript := make([]domain.ChatMessage, 0, len(s.Transcript)+1)
	transcript = append(transcript, s.Transcript...)
	s.Transcript = append(transcript, msg)
	return s
}
