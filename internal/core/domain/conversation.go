package domain

// Role identifies the author of a conversation turn.
type Role string

// Conversation roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Greeting is shown when a session has no history yet.
const Greeting = "How can I help you?"

// Turn is one message in a session.
type Turn struct {
	Role    Role   `json:"role" bson:"role"`
	Content string `json:"content" bson:"content"`
}

// Answer is the result of one chat exchange.
type Answer struct {
	// Text is the model's reply.
	Text string

	// Context holds the retrieved chunk texts passed to the model.
	Context []string

	// History is the full session after the exchange.
	History []Turn
}

// CloneTurns copies turns so callers can append without aliasing.
func CloneTurns(turns []Turn) []Turn {
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out
}
