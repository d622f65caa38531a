package chat

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessage(t *testing.T) {
	tests := []struct {
		name     string
		in       Message
		wantErr  error
		wantBody string
		wantKind MessageKind
	}{
		{
			name:     "trims body",
			in:       Message{ConversationID: "c1", SenderID: "u1", Body: "  hello  "},
			wantBody: "hello",
			wantKind: MessageKindText,
		},
		{
			name:    "blank body without attachments",
			in:      Message{ConversationID: "c1", SenderID: "u1", Body: "   "},
			wantErr: ErrEmptyMessage,
		},
		{
			name:     "attachment only picks kind from content type",
			in:       Message{ConversationID: "c1", SenderID: "u1", Attachments: []Attachment{{URL: "https://x/a.png", ContentType: "image/png"}}},
			wantKind: MessageKindImage,
		},
		{
			name:     "non image attachment is a file",
			in:       Message{ConversationID: "c1", SenderID: "u1", Attachments: []Attachment{{URL: "https://x/a.pdf", ContentType: "application/pdf"}}},
			wantKind: MessageKindFile,
		},
		{
			name:    "attachment without url",
			in:      Message{ConversationID: "c1", SenderID: "u1", Body: "hi", Attachments: []Attachment{{Name: "a"}}},
			wantErr: ErrInvalidAttachment,
		},
		{
			name:    "too long",
			in:      Message{ConversationID: "c1", SenderID: "u1", Body: strings.Repeat("é", MaxBodyLength+1)},
			wantErr: ErrMessageTooLong,
		},
		{
			name:    "missing sender",
			in:      Message{ConversationID: "c1", Body: "hi"},
			wantErr: ErrMissingSender,
		},
		{
			name:    "missing conversation",
			in:      Message{SenderID: "u1", Body: "hi"},
			wantErr: ErrMissingConversation,
		},
		{
			name:     "system message has no sender",
			in:       Message{ConversationID: "c1", Kind: MessageKindSystem, Body: "contract signed"},
			wantBody: "contract signed",
			wantKind: MessageKindSystem,
		},
		{
			name:    "system message with sender",
			in:      Message{ConversationID: "c1", SenderID: "u1", Kind: MessageKindSystem, Body: "x"},
			wantErr: ErrSystemSender,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewMessage(tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantBody, got.Body)
			assert.Equal(t, tt.wantKind, got.Kind)
			assert.Empty(t, got.ID)
			assert.True(t, got.CreatedAt.IsZero())
		})
	}
}

func TestMessage_CheckModifiable(t *testing.T) {
	now := time.Now()
	msg := Message{ID: "m1", ConversationID: "c1", SenderID: "alice", Body: "hi"}

	assert.NoError(t, msg.CheckModifiable("alice"))
	assert.ErrorIs(t, msg.CheckModifiable("bob"), ErrNotSender)

	deleted := msg
	deleted.DeletedAt = &now
	assert.ErrorIs(t, deleted.CheckModifiable("alice"), ErrMessageDeleted)

	system := Message{ID: "m2", ConversationID: "c1", Kind: MessageKindSystem, Body: "x"}
	assert.ErrorIs(t, system.CheckModifiable(""), ErrNotSender)
}

func TestNormalizeBody(t *testing.T) {
	body, err := NormalizeBody(" fixed ")
	require.NoError(t, err)
	assert.Equal(t, "fixed", body)

	body, err = NormalizeBody(strings.Repeat("é", MaxBodyLength))
	require.NoError(t, err)
	assert.Equal(t, MaxBodyLength, utf8.RuneCountInString(body))

	_, err = NormalizeBody(strings.Repeat("a", MaxBodyLength+1))
	assert.ErrorIs(t, err, ErrMessageTooLong)
}

func TestMessage_CheckEdit(t *testing.T) {
	text := Message{SenderID: "alice", Body: "hi"}
	assert.ErrorIs(t, text.CheckEdit(""), ErrEmptyMessage)
	assert.NoError(t, text.CheckEdit("fixed"))

	withFile := Message{SenderID: "alice", Body: "see file", Attachments: []Attachment{{URL: "https://x/a"}}}
	assert.NoError(t, withFile.CheckEdit(""))
}

func TestNewConversation(t *testing.T) {
	conv, ids, err := NewConversation([]string{" bob ", "alice", "bob", ""}, ContextJob, "job-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, ids)
	assert.Equal(t, "alice,bob", conv.ParticipantKey)
	assert.Equal(t, ContextJob, conv.ContextType)

	_, _, err = NewConversation([]string{"alice", "alice"}, ContextNone, "")
	assert.ErrorIs(t, err, ErrTooFewParticipants)

	_, _, err = NewConversation([]string{"alice", "bob"}, ContextContract, "")
	assert.ErrorIs(t, err, ErrInvalidContext)

	_, _, err = NewConversation([]string{"alice", "bob"}, ContextType("invoice"), "x")
	assert.ErrorIs(t, err, ErrInvalidContext)
}
