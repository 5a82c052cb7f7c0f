package model

// Role identifies the author of a conversation message.
type Role string

const (
	// RoleSystem marks instructions and retrieved context for the model.
	RoleSystem Role = "system"
	// RoleUser marks a message written by the end user.
	RoleUser Role = "user"
	// RoleAssistant marks a message produced by the model.
	RoleAssistant Role = "assistant"
)

// Message is one turn of a conversation with the language model.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// UserMessages returns only the messages written by the user, in order.
func UserMessages(msgs []Message) []Message {
	out := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Role == RoleUser {
			out = append(out, m)
		}
	}
	return out
}
