package usecase

import (
	"fmt"

	"advisor-chat/internal/domain"
)

const (
	defaultUserMessage = "Hello"
	fallbackAnswer     = "I couldn't generate a response."
)

// lastUserMessage returns the content of the final message, or "Hello" when
// there is none or it is empty.
func lastUserMessage(messages []domain.ChatMessage) string {
	if len(messages) == 0 {
		return defaultUserMessage
	}
	if content := messages[len(messages)-1].Content; content != "" {
		return content
	}
	return defaultUserMessage
}

func buildPrompt(category domain.Category, userMessage string) string {
	return fmt.Sprintf("You are a helpful %s advisor. Answer the following question: %s", category.Persona(), userMessage)
}
