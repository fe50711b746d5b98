package conversation

import "fmt"

// Acknowledgment is the fixed assistant reply that follows a spliced system prompt.
const Acknowledgment = "I understand. I will follow these instructions for our conversation."

// Conversation is a chronological list of messages, oldest first. The last
// message is the new, unanswered user turn.
type Conversation []Message

// Validate checks the conversation invariants and every message in it.
func (c Conversation) Validate() error {
	if len(c) == 0 {
		return ErrEmptyConversation
	}
	for i, m := range c {
		if err := m.Validate(); err != nil {
			return fmt.Errorf("history[%d]: %w", i, err)
		}
	}
	if c[len(c)-1].Role != RoleUser {
		return ErrLastNotUser
	}
	return nil
}

// SplitLatest separates the trailing message from the prior history.
// The input is left untouched.
func SplitLatest(c Conversation) (prior []Message, latest Message, err error) {
	if len(c) == 0 {
		return nil, Message{}, ErrEmptyConversation
	}
	n := len(c) - 1
	prior = make([]Message, n)
	copy(prior, c[:n])
	return prior, c[n], nil
}

// WithSystemPrompt prepends the prompt as a user turn followed by a fixed
// assistant acknowledgment. Used for providers without a system role that
// fits multi-turn history seeding.
func WithSystemPrompt(prior []Message, prompt string) []Message {
	prompt = NormalizePrompt(prompt)
	if prompt == "" {
		return prior
	}

	out := make([]Message, 0, len(prior)+2)
	out = append(out,
		NewText(RoleUser, prompt),
		NewText(RoleAssistant, Acknowledgment),
	)
	return append(out, prior...)
}
