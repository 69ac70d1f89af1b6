package types

import "fmt"

const (
	// MaxMessageContentLength is the maximum content length per message,
	// in characters.
	MaxMessageContentLength = 4000

	// MaxMessages caps the conversation length accepted in one request.
	MaxMessages = 50
)

// ChatRequest is the body of a chat relay request.
type ChatRequest struct {
	// Messages is the conversation history, oldest first.
	Messages []Message `json:"messages"`
}

// Message is a single conversation turn.
type Message struct {
	// Role is the author of the message: "system", "user", or "assistant".
	Role string `json:"role"`

	// Content is the text content of the message.
	Content string `json:"content"`
}

// allowedRoles enumerates the roles the relay accepts.
var allowedRoles = map[string]bool{
	"system":    true,
	"user":      true,
	"assistant": true,
}

// Validate checks the request against the relay's input constraints.
// It returns a *ValidationError describing the first violation found.
func (r *ChatRequest) Validate() error {
	if len(r.Messages) == 0 {
		return &ValidationError{
			Field:   "messages",
			Message: "messages must be a non-empty array",
		}
	}
	if len(r.Messages) > MaxMessages {
		return &ValidationError{
			Field:   "messages",
			Message: fmt.Sprintf("messages exceeds maximum of %d entries", MaxMessages),
		}
	}

	for i, msg := range r.Messages {
		if !allowedRoles[msg.Role] {
			return &ValidationError{
				Field:   fmt.Sprintf("messages[%d].role", i),
				Message: fmt.Sprintf("role must be one of system, user, assistant; got %q", msg.Role),
			}
		}
		if msg.Content == "" {
			return &ValidationError{
				Field:   fmt.Sprintf("messages[%d].content", i),
				Message: "content must not be empty",
			}
		}
		if len([]rune(msg.Content)) > MaxMessageContentLength {
			return &ValidationError{
				Field:   fmt.Sprintf("messages[%d].content", i),
				Message: fmt.Sprintf("content exceeds maximum length of %d characters", MaxMessageContentLength),
			}
		}
	}

	return nil
}

// ValidationError describes a request constraint violation.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
