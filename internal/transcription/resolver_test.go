package transcription

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicemail-relay-go/internal/apperrors"
	"voicemail-relay-go/internal/model"
)

// scriptedSource returns a transcription attachment starting at attempt appearsAt.
// appearsAt == 0 means it never appears.
type scriptedSource struct {
	appearsAt int
	text      string
	getErr    error
	gets      int
	fetched   []string
}

func (s *scriptedSource) GetMessage(_ context.Context, id string) (*model.Message, error) {
	s.gets++
	if s.getErr != nil {
		return nil, s.getErr
	}
	msg := &model.Message{ID: model.MessageID(id), Attachments: []model.Attachment{
		{Type: model.AttachmentAudioRecording, URI: "/recording"},
	}}
	if s.appearsAt > 0 && s.gets >= s.appearsAt {
		msg.Attachments = append(msg.Attachments, model.Attachment{
			Type: model.AttachmentAudioTranscription,
			URI:  fmt.Sprintf("/transcription/%s", id),
		})
	}
	return msg, nil
}

func (s *scriptedSource) FetchRaw(_ context.Context, uri string) (string, error) {
	s.fetched = append(s.fetched, uri)
	return s.text, nil
}

func newTestResolver(src MessageSource) (*Resolver, *[]time.Duration) {
	r := NewResolver(src, 6, 2*time.Second)
	var sleeps []time.Duration
	r.sleep = func(_ context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return nil
	}
	return r, &sleeps
}

func TestResolveFoundOnFirstAttempt(t *testing.T) {
	src := &scriptedSource{appearsAt: 1, text: "  Hi, call me back.\n"}
	r, sleeps := newTestResolver(src)

	text, found, err := r.Resolve(context.Background(), "7")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Hi, call me back.", text)
	assert.Equal(t, 1, src.gets)
	assert.Empty(t, *sleeps)
	assert.Equal(t, []string{"/transcription/7"}, src.fetched)
}

func TestResolveFoundOnLastAttempt(t *testing.T) {
	src := &scriptedSource{appearsAt: 6, text: "late transcription"}
	r, sleeps := newTestResolver(src)

	text, found, err := r.Resolve(context.Background(), "7")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "late transcription", text)
	assert.Equal(t, 6, src.gets)
	assert.Len(t, *sleeps, 5)
	for _, d := range *sleeps {
		assert.Equal(t, 2*time.Second, d)
	}
}

func TestResolveStopsAtFirstFind(t *testing.T) {
	for n := 1; n <= 6; n++ {
		t.Run(fmt.Sprintf("attempt %d", n), func(t *testing.T) {
			src := &scriptedSource{appearsAt: n, text: "x"}
			r, _ := newTestResolver(src)

			_, found, err := r.Resolve(context.Background(), "1")
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, n, src.gets)
		})
	}
}

func TestResolveAbsentAfterBudget(t *testing.T) {
	src := &scriptedSource{}
	r, sleeps := newTestResolver(src)

	text, found, err := r.Resolve(context.Background(), "7")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, text)
	assert.Equal(t, 6, src.gets)
	assert.Len(t, *sleeps, 5)
	assert.Empty(t, src.fetched)
}

func TestResolvePropagatesProviderErrors(t *testing.T) {
	src := &scriptedSource{getErr: &apperrors.TransientError{Op: "get message", StatusCode: 503}}
	r, _ := newTestResolver(src)

	_, _, err := r.Resolve(context.Background(), "7")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindTransient, apperrors.Kind(err))
	assert.Equal(t, 1, src.gets)
}

func TestResolveHonoursCancellation(t *testing.T) {
	src := &scriptedSource{}
	r := NewResolver(src, 6, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, found, err := r.Resolve(ctx, "7")
	require.Error(t, err)
	assert.False(t, found)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 1, src.gets)
}

func TestNewResolverDefaults(t *testing.T) {
	r := NewResolver(&scriptedSource{}, 0, -time.Second)
	assert.Equal(t, DefaultAttempts, r.Attempts())
	assert.Equal(t, DefaultInterval, r.interval)
}
