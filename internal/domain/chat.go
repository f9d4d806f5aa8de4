package domain

// Role identifies the author of a ChatMessage.
type Role string

const (
	RoleUser Role = "user"
	RoleAI   Role = "ai"
)

// ChatMessage is a single transcript turn. It is the wire shape shared by the
// relay edge, the relay client and the terminal UI.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Category selects the advisor persona.
type Category string

const (
	CategoryFinance Category = "finance"
	CategoryLegal   Category = "legal"
)

// ParseCategory maps any value other than "finance" to CategoryLegal.
func ParseCategory(s string) Category {
	if Category(s) == CategoryFinance {
		return CategoryFinance
	}
	return CategoryLegal
}

// Persona is the advisor adjective used in prompts.
func (c Category) Persona() string {
	if c == CategoryFinance {
		return "financial"
	}
	return "legal"
}

// Title is the label shown on the client tab.
func (c Category) Title() string {
	if c == CategoryFinance {
		return "Finance Advisor"
	}
	return "Legal Advisor"
}

// RelayRequest is the body of POST /api/chat.
type RelayRequest struct {
	Messages []ChatMessage `json:"messages"`
	Category string        `json:"category,omitempty"`
}

// RelayResponse is the success body of POST /api/chat.
type RelayResponse struct {
	Response string `json:"response"`
}

// ErrorResponse is the failure body of POST /api/chat.
type ErrorResponse struct {
	Error string `json:"error"`
}

