package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ReadStatus is the provider-side flag used as the only dedup mechanism
type ReadStatus string

const (
	ReadStatusUnread ReadStatus = "Unread"
	ReadStatusRead   ReadStatus = "Read"
)

// Attachment types returned by the message store
const (
	AttachmentAudioTranscription = "AudioTranscription"
	AttachmentAudioRecording     = "AudioRecording"
)

// MessageID is the provider-assigned message identifier. The message store
// sends it as a JSON number, but a string is accepted as well.
type MessageID string

// UnmarshalJSON accepts both numeric and string identifiers
func (id *MessageID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("invalid message id: %w", err)
		}
		*id = MessageID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid message id %s: %w", string(data), err)
	}
	*id = MessageID(n.String())
	return nil
}

func (id MessageID) String() string { return string(id) }

// Caller is the "from" sub-object of a message
type Caller struct {
	Name        string `json:"name,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
}

// Attachment is a lazily fetched part of a message
type Attachment struct {
	ID   MessageID `json:"id,omitempty"`
	Type string    `json:"type"`
	URI  string    `json:"uri"`
}

// Message is a voicemail record from the message store
type Message struct {
	ID           MessageID    `json:"id"`
	CreationTime string       `json:"creationTime"`
	From         *Caller      `json:"from,omitempty"`
	ReadStatus   ReadStatus   `json:"readStatus"`
	MessageType  string       `json:"type,omitempty"`
	Attachments  []Attachment `json:"attachments,omitempty"`
}

// CallerName returns the caller name, or "" when the provider did not send one
func (m *Message) CallerName() string {
	if m.From == nil {
		return ""
	}
	return m.From.Name
}

// CallerNumber returns the caller phone number, or "" when absent
func (m *Message) CallerNumber() string {
	if m.From == nil {
		return ""
	}
	return m.From.PhoneNumber
}

// TranscriptionURI returns the URI of the first transcription attachment
// that has a non-empty URI.
func (m *Message) TranscriptionURI() (string, bool) {
	for _, att := range m.Attachments {
		if att.Type == AttachmentAudioTranscription && strings.TrimSpace(att.URI) != "" {
			return att.URI, true
		}
	}
	return "", false
}

// Paging is the pagination block of a list response
type Paging struct {
	Page       int `json:"page"`
	PerPage    int `json:"perPage"`
	TotalPages int `json:"totalPages"`
}

// MessageList is one page of the message store listing
type MessageList struct {
	Records []Message `json:"records"`
	Paging  Paging    `json:"paging"`
}

// PageCount returns the number of pages reported by the provider, at least 1
func (l *MessageList) PageCount() int {
	if l.Paging.TotalPages < 1 {
		return 1
	}
	return l.Paging.TotalPages
}
