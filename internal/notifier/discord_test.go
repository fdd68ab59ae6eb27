package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicemail-relay-go/internal/apperrors"
)

func fieldValue(t *testing.T, p Payload, name string) string {
	t.Helper()
	require.Len(t, p.Embeds, 1)
	for _, f := range p.Embeds[0].Fields {
		if f.Name == name {
			return f.Value
		}
	}
	t.Fatalf("field %q not found", name)
	return ""
}

func TestBuildPayload(t *testing.T) {
	p := BuildPayload("101", Voicemail{
		CallerName:    "Ada Lovelace",
		CallerNumber:  "+15551234567",
		CreationTime:  "2026-10-01T09:15:00.000Z",
		Transcription: "  Please call me back.  ",
	})

	assert.Equal(t, "New voicemail", p.Content)
	assert.Equal(t, "Voicemail received", p.Embeds[0].Title)
	assert.Equal(t, "101", fieldValue(t, p, "Extension"))
	assert.Equal(t, "Ada Lovelace", fieldValue(t, p, "Caller"))
	assert.Equal(t, "+15551234567", fieldValue(t, p, "Number"))
	assert.Equal(t, "2026-10-01T09:15:00.000Z", fieldValue(t, p, "Time"))
	assert.Equal(t, "Please call me back.", fieldValue(t, p, "Transcription"))

	inline := map[string]bool{}
	for _, f := range p.Embeds[0].Fields {
		inline[f.Name] = f.Inline
	}
	assert.Equal(t, map[string]bool{"Extension": true, "Caller": true, "Number": true, "Time": false, "Transcription": false}, inline)
}

func TestBuildPayloadPlaceholders(t *testing.T) {
	p := BuildPayload("101", Voicemail{})

	assert.Equal(t, UnknownPlaceholder, fieldValue(t, p, "Caller"))
	assert.Equal(t, UnknownPlaceholder, fieldValue(t, p, "Number"))
	assert.Equal(t, UnknownPlaceholder, fieldValue(t, p, "Time"))
	assert.Equal(t, NoTranscriptionPlaceholder, fieldValue(t, p, "Transcription"))
}

func TestBuildPayloadTruncatesTranscription(t *testing.T) {
	p := BuildPayload("101", Voicemail{Transcription: strings.Repeat("a", 2000)})
	assert.Len(t, fieldValue(t, p, "Transcription"), MaxFieldLength)

	p = BuildPayload("101", Voicemail{Transcription: strings.Repeat("é", 2000)})
	assert.Equal(t, MaxFieldLength, utf8.RuneCountInString(fieldValue(t, p, "Transcription")))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "ab", Truncate("abc", 2))
	assert.Equal(t, "日本", Truncate("日本語", 2))
}

func TestNotifyPostsPayload(t *testing.T) {
	var got Payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	d := NewDiscord(srv.URL, "101", time.Second)
	require.NoError(t, d.Notify(context.Background(), Voicemail{CallerName: "Grace", Transcription: strings.Repeat("b", 2000)}))

	assert.Equal(t, "Grace", fieldValue(t, got, "Caller"))
	assert.Len(t, fieldValue(t, got, "Transcription"), MaxFieldLength)
}

func TestNotifyRejectedIsDeliveryError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"Invalid Form Body"}`))
	}))
	defer srv.Close()

	err := NewDiscord(srv.URL, "101", time.Second).Notify(context.Background(), Voicemail{})
	require.Error(t, err)

	var deliveryErr *apperrors.DeliveryError
	require.ErrorAs(t, err, &deliveryErr)
	assert.Equal(t, http.StatusBadRequest, deliveryErr.StatusCode)
	assert.Contains(t, deliveryErr.Body, "Invalid Form Body")
}

func TestNotifyUnreachableIsDeliveryError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	err := NewDiscord(srv.URL, "101", time.Second).Notify(context.Background(), Voicemail{})
	assert.Equal(t, apperrors.KindDelivery, apperrors.Kind(err))
}
