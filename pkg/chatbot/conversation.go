// FILE: pkg/chatbot/conversation.go
// PURPOSE: Tea session small talk. Maps a transcript onto an LLM chat history
//          behind the system persona and returns the assistant's next line.

package chatbot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"glowgirl-be/internal/constant"
	"glowgirl-be/internal/entity"
	"glowgirl-be/pkg/llm"
)

// Conversation implements session.ConversationService on top of any LLMProvider.
type Conversation struct {
	provider     llm.LLMProvider
	systemPrompt string
	maxTurns     int
	options      []llm.Option
}

func NewConversation(provider llm.LLMProvider, options ...llm.Option) *Conversation {
	if len(options) == 0 {
		options = []llm.Option{llm.WithTemperature(0.8), llm.WithMaxTokens(200)}
	}
	return &Conversation{
		provider:     provider,
		systemPrompt: constant.GlowChatSystemPrompt,
		maxTurns:     40,
		options:      options,
	}
}

func (c *Conversation) Send(ctx context.Context, transcript []entity.Turn) (string, error) {
	if len(transcript) == 0 {
		return "", errors.New("empty transcript")
	}

	reply, err := c.provider.Chat(ctx, BuildHistory(c.systemPrompt, transcript, c.maxTurns), c.options...)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	return strings.TrimSpace(reply), nil
}

// BuildHistory prepends the system prompt and keeps only the most recent maxTurns
// turns so long sessions stay inside the model's context window.
func BuildHistory(systemPrompt string, transcript []entity.Turn, maxTurns int) []llm.Message {
	if maxTurns > 0 && len(transcript) > maxTurns {
		transcript = transcript[len(transcript)-maxTurns:]
	}

	history := make([]llm.Message, 0, len(transcript)+1)
	if systemPrompt != "" {
		history = append(history, llm.Message{Role: constant.ChatMessageRoleSystem, Content: systemPrompt})
	}
	for _, turn := range transcript {
		role := constant.ChatMessageRoleUser
		if turn.Origin == entity.OriginAssistant {
			role = constant.ChatMessageRoleAssistant
		}
		history = append(history, llm.Message{Role: role, Content: turn.Text})
	}
	return history
}

// FormatTranscript renders a transcript as plain "Speaker: text" lines.
func FormatTranscript(transcript []entity.Turn) string {
	var b strings.Builder
	for _, turn := range transcript {
		speaker := "Them"
		if turn.Origin == entity.OriginAssistant {
			speaker = "Glow Girl"
		}
		fmt.Fprintf(&b, "%s: %s\n", speaker, turn.Text)
	}
	return b.String()
}
