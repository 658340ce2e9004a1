package mailer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakySender fails a fixed number of times before delivering.
type flakySender struct {
	failures int
	calls    int
	sent     []string
}

func (f *flakySender) Send(to, subject, body string) error {
	f.calls++
	if f.calls <= f.failures {
		return errors.New("smtp unavailable")
	}
	f.sent = append(f.sent, body)
	return nil
}

func TestSendOTP_RetriesTransientFailure(t *testing.T) {
	sender := &flakySender{failures: 2}
	SetSender(sender)

	err := SendOTP(context.Background(), "a@x.com", "xy7k2m", 5*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 3, sender.calls)
	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0], "xy7k2m")
	assert.Contains(t, sender.sent[0], "5 minutes")
}

func TestSendOTP_GivesUpAfterBoundedRetries(t *testing.T) {
	sender := &flakySender{failures: 10}
	SetSender(sender)

	err := SendOTP(context.Background(), "a@x.com", "xy7k2m", 5*time.Minute)
	require.Error(t, err)
	// One initial attempt plus two retries
	assert.Equal(t, 3, sender.calls)
}

func TestSendOTP_RespectsContextCancellation(t *testing.T) {
	sender := &flakySender{failures: 10}
	SetSender(sender)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := SendOTP(ctx, "a@x.com", "xy7k2m", 5*time.Minute)
	require.Error(t, err)
	assert.Less(t, sender.calls, 3)
}
