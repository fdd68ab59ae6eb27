// Package notifier delivers voicemail notifications to a Discord webhook.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"voicemail-relay-go/internal/apperrors"
)

const (
	// MaxFieldLength is Discord's limit for an embed field value
	MaxFieldLength = 1024

	// UnknownPlaceholder replaces an empty extension, caller, number or time
	UnknownPlaceholder = "(unknown)"
	// NoTranscriptionPlaceholder replaces a missing or blank transcription
	NoTranscriptionPlaceholder = "(No transcription available yet.)"
)

// Voicemail is what gets announced for one record
type Voicemail struct {
	CallerName    string
	CallerNumber  string
	CreationTime  string
	Transcription string
}

// EmbedField is a single name/value row of an embed
type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// Embed is a structured card attached to the message
type Embed struct {
	Title  string       `json:"title"`
	Fields []EmbedField `json:"fields"`
}

// Payload is the webhook request body
type Payload struct {
	Content string  `json:"content"`
	Embeds  []Embed `json:"embeds"`
}

// Discord posts notifications to a webhook URL
type Discord struct {
	webhookURL  string
	extensionID string
	httpClient  *http.Client
}

// NewDiscord creates a notifier for the given webhook. extensionID is shown
// in every notification.
func NewDiscord(webhookURL, extensionID string, timeout time.Duration) *Discord {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Discord{
		webhookURL:  webhookURL,
		extensionID: extensionID,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

// Notify sends one voicemail notification. A non-2xx answer is a DeliveryError.
func (d *Discord) Notify(ctx context.Context, vm Voicemail) error {
	body, err := json.Marshal(BuildPayload(d.extensionID, vm))
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return &apperrors.DeliveryError{Err: fmt.Errorf("failed to create webhook request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return &apperrors.DeliveryError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &apperrors.DeliveryError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}
	return nil
}

// BuildPayload formats vm, substituting placeholders for missing values and
// capping the transcription at MaxFieldLength characters.
func BuildPayload(extensionID string, vm Voicemail) Payload {
	transcription := strings.TrimSpace(vm.Transcription)
	if transcription == "" {
		transcription = NoTranscriptionPlaceholder
	}

	return Payload{
		Content: "New voicemail",
		Embeds: []Embed{
			{
				Title: "Voicemail received",
				Fields: []EmbedField{
					{Name: "Extension", Value: orUnknown(extensionID), Inline: true},
					{Name: "Caller", Value: orUnknown(vm.CallerName), Inline: true},
					{Name: "Number", Value: orUnknown(vm.CallerNumber), Inline: true},
					{Name: "Time", Value: orUnknown(vm.CreationTime), Inline: false},
					{Name: "Transcription", Value: Truncate(transcription, MaxFieldLength), Inline: false},
				},
			},
		},
	}
}

// Truncate cuts s to at most n characters
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return UnknownPlaceholder
	}
	return s
}
