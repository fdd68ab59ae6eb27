// Package transcription waits for the speech-to-text attachment that the
// provider adds to a voicemail some time after it is recorded.
package transcription

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"voicemail-relay-go/internal/model"
)

const (
	// DefaultAttempts is how many times a message is looked up for its transcription
	DefaultAttempts = 6
	// DefaultInterval is the pause between two lookups
	DefaultInterval = 2 * time.Second
)

// MessageSource is the part of the message store client the resolver needs
type MessageSource interface {
	GetMessage(ctx context.Context, id string) (*model.Message, error)
	FetchRaw(ctx context.Context, uri string) (string, error)
}

// Resolver polls a message until a transcription attachment shows up or the
// attempt budget runs out. Running out is a normal outcome, not an error.
type Resolver struct {
	messages MessageSource
	attempts int
	interval time.Duration
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewResolver creates a resolver. Non-positive values fall back to the defaults
// of 6 attempts, 2s apart.
func NewResolver(messages MessageSource, attempts int, interval time.Duration) *Resolver {
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	if interval < 0 {
		interval = DefaultInterval
	}
	return &Resolver{
		messages: messages,
		attempts: attempts,
		interval: interval,
		sleep:    sleepContext,
	}
}

// Attempts returns the lookup budget
func (r *Resolver) Attempts() int {
	return r.attempts
}

// Resolve returns the trimmed transcription text of message id. found is
// false when no transcription appeared within the attempt budget.
func (r *Resolver) Resolve(ctx context.Context, id string) (text string, found bool, err error) {
	for attempt := 1; attempt <= r.attempts; attempt++ {
		msg, err := r.messages.GetMessage(ctx, id)
		if err != nil {
			return "", false, fmt.Errorf("failed to get message %s (attempt %d): %w", id, attempt, err)
		}

		if uri, ok := msg.TranscriptionURI(); ok {
			raw, err := r.messages.FetchRaw(ctx, uri)
			if err != nil {
				return "", false, fmt.Errorf("failed to fetch transcription of %s: %w", id, err)
			}
			logrus.WithField("voicemail_id", id).Debugf("Transcription found on attempt %d", attempt)
			return strings.TrimSpace(raw), true, nil
		}

		if attempt < r.attempts {
			if err := r.sleep(ctx, r.interval); err != nil {
				return "", false, fmt.Errorf("waiting for transcription of %s: %w", id, err)
			}
		}
	}

	logrus.WithField("voicemail_id", id).Infof("No transcription after %d attempts", r.attempts)
	return "", false, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
