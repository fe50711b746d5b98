// Package conversation holds the provider-agnostic representation of a chat
// and the rules for splitting off the unanswered turn.
package conversation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleModel     Role = "model"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// IsAssistant reports whether the role is one of the two assistant synonyms.
func (r Role) IsAssistant() bool {
	return r == RoleModel || r == RoleAssistant
}

func (r Role) valid() bool {
	switch r {
	case RoleUser, RoleModel, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

var (
	// ErrEmptyConversation is returned when a conversation has no messages.
	ErrEmptyConversation = errors.New("conversation is empty")
	// ErrLastNotUser is returned when the newest message was not written by the user.
	ErrLastNotUser = errors.New("last message must have role user")
	// ErrInvalidMessage is returned for messages that break the part or role rules.
	ErrInvalidMessage = errors.New("invalid message")
)

// File is an attachment carried inline (Data) or by reference (URI).
type File struct {
	MIMEType string
	Data     []byte
	URI      string
}

// Inline reports whether the file bytes travel with the message.
func (f *File) Inline() bool {
	return f != nil && f.URI == ""
}

// Part is one piece of message content: either text or a file.
type Part struct {
	Text string
	File *File
}

// TextPart creates a text part.
func TextPart(text string) Part {
	return Part{Text: text}
}

// InlineFilePart creates a part carrying file bytes.
func InlineFilePart(mimeType string, data []byte) Part {
	return Part{File: &File{MIMEType: mimeType, Data: data}}
}

// FileRefPart creates a part pointing at an uploaded file.
func FileRefPart(mimeType, uri string) Part {
	return Part{File: &File{MIMEType: mimeType, URI: uri}}
}

// IsText reports whether the part is a text part.
func (p Part) IsText() bool {
	return p.File == nil
}

type wireBlob struct {
	MIMEType string `json:"mimeType"`
	Data     []byte `json:"data"`
}

type wireFileData struct {
	MIMEType string `json:"mimeType"`
	FileURI  string `json:"fileUri"`
}

type wirePart struct {
	Text       *string       `json:"text,omitempty"`
	InlineData *wireBlob     `json:"inlineData,omitempty"`
	FileData   *wireFileData `json:"fileData,omitempty"`
}

// MarshalJSON encodes the part in the Gemini client shape.
func (p Part) MarshalJSON() ([]byte, error) {
	var w wirePart
	switch {
	case p.File == nil:
		text := p.Text
		w.Text = &text
	case p.File.Inline():
		w.InlineData = &wireBlob{MIMEType: p.File.MIMEType, Data: p.File.Data}
	default:
		w.FileData = &wireFileData{MIMEType: p.File.MIMEType, FileURI: p.File.URI}
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes exactly one of text, inlineData or fileData.
func (p *Part) UnmarshalJSON(data []byte) error {
	var w wirePart
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	n := 0
	if w.Text != nil {
		n++
	}
	if w.InlineData != nil {
		n++
	}
	if w.FileData != nil {
		n++
	}
	if n != 1 {
		return fmt.Errorf("%w: part must carry exactly one of text, inlineData, fileData", ErrInvalidMessage)
	}

	switch {
	case w.Text != nil:
		*p = TextPart(*w.Text)
	case w.InlineData != nil:
		*p = InlineFilePart(w.InlineData.MIMEType, w.InlineData.Data)
	default:
		if w.FileData.FileURI == "" {
			return fmt.Errorf("%w: fileData requires fileUri", ErrInvalidMessage)
		}
		*p = FileRefPart(w.FileData.MIMEType, w.FileData.FileURI)
	}
	return nil
}

// Message is a single chat turn.
type Message struct {
	Role  Role   `json:"role"`
	Parts []Part `json:"parts"`
}

// NewText creates a message holding a single text part.
func NewText(role Role, text string) Message {
	return Message{Role: role, Parts: []Part{TextPart(text)}}
}

// FirstText returns the first text part of the message.
func (m Message) FirstText() (string, bool) {
	for _, p := range m.Parts {
		if p.IsText() {
			return p.Text, true
		}
	}
	return "", false
}

// Validate checks the role and the at-least-one-part invariant.
func (m Message) Validate() error {
	if !m.Role.valid() {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidMessage, m.Role)
	}
	if len(m.Parts) == 0 {
		return fmt.Errorf("%w: message has no parts", ErrInvalidMessage)
	}
	return nil
}

// NormalizePrompt trims a system prompt. An empty result means no prompt.
func NormalizePrompt(prompt string) string {
	return strings.TrimSpace(prompt)
}
