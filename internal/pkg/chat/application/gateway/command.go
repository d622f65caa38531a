package gateway

import (
	"encoding/json"
	"errors"
	"fmt"

	chat "go-parley/internal/pkg/chat/application/domain"
)

// CommandType enumerates client commands.
type CommandType int

const (
	CommandUnknown CommandType = iota
	CommandJoin
	CommandLeave
	CommandSend
	CommandEdit
	CommandDelete
	CommandTypingStart
	CommandTypingStop
	CommandRead
)

var commandNames = map[string]CommandType{
	"conversation:join":  CommandJoin,
	"conversation:leave": CommandLeave,
	"message:send":       CommandSend,
	"message:edit":       CommandEdit,
	"message:delete":     CommandDelete,
	"typing:start":       CommandTypingStart,
	"typing:stop":        CommandTypingStop,
	"message:read":       CommandRead,
}

var (
	ErrMalformedCommand = errors.New("gateway: malformed command")
	ErrUnknownCommand   = errors.New("gateway: unknown command")
)

// Command is a decoded client frame.
type Command struct {
	Type           CommandType
	Name           string
	ConversationID string
	MessageID      string
	Content        string
	Attachments    []chat.Attachment
}

type inboundFrame struct {
	Type           string            `json:"type"`
	ConversationID string            `json:"conversationId"`
	MessageID      string            `json:"messageId"`
	Content        string            `json:"content"`
	Attachments    []chat.Attachment `json:"attachments"`
}

// ParseCommand decodes and shape-checks a frame. Content rules are left to
// the use cases.
func ParseCommand(raw []byte) (Command, error) {
	var f inboundFrame
	if err := json.Unmarshal(raw, &f); err != nil {
		return Command{}, fmt.Errorf("%w: %v", ErrMalformedCommand, err)
	}

	cmd := Command{
		Type:           commandNames[f.Type],
		Name:           f.Type,
		ConversationID: f.ConversationID,
		MessageID:      f.MessageID,
		Content:        f.Content,
		Attachments:    f.Attachments,
	}
	if cmd.Type == CommandUnknown {
		return cmd, fmt.Errorf("%w: %q", ErrUnknownCommand, f.Type)
	}
	if cmd.ConversationID == "" {
		return cmd, fmt.Errorf("%w: conversationId is required", ErrMalformedCommand)
	}
	switch cmd.Type {
	case CommandEdit, CommandDelete, CommandRead:
		if cmd.MessageID == "" {
			return cmd, fmt.Errorf("%w: messageId is required", ErrMalformedCommand)
		}
	}
	return cmd, nil
}
