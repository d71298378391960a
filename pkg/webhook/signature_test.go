package webhook_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backend-bits/saas-backend/pkg/webhook"
)

func TestSigner_RoundTrip(t *testing.T) {
	t.Parallel()

	s, err := webhook.NewSigner("whsec")
	require.NoError(t, err)

	payload := []byte(`{"event":"payment.captured"}`)
	header := s.Sign(payload)
	assert.True(t, strings.HasPrefix(header, "t="))
	assert.Contains(t, header, ",v1=")
	assert.NoError(t, s.Verify(payload, header))

	assert.ErrorIs(t, s.Verify([]byte(`{"event":"payment.failed"}`), header), webhook.ErrSignatureMismatch)

	other, err := webhook.NewSigner("another")
	require.NoError(t, err)
	assert.ErrorIs(t, other.Verify(payload, header), webhook.ErrSignatureMismatch)
}

func TestSigner_Tolerance(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0)
	s, err := webhook.NewSigner("whsec", webhook.WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	payload := []byte("body")

	assert.NoError(t, s.Verify(payload, s.SignAt(payload, now.Add(-4*time.Minute))))
	assert.ErrorIs(t, s.Verify(payload, s.SignAt(payload, now.Add(-6*time.Minute))), webhook.ErrTimestampOutOfRange)
	assert.ErrorIs(t, s.Verify(payload, s.SignAt(payload, now.Add(6*time.Minute))), webhook.ErrTimestampOutOfRange)

	lax, err := webhook.NewSigner("whsec", webhook.WithTolerance(0), webhook.WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	assert.NoError(t, lax.Verify(payload, lax.SignAt(payload, now.Add(-24*time.Hour))))
}

func TestSigner_RotatedSecrets(t *testing.T) {
	t.Parallel()

	oldS, err := webhook.NewSigner("old")
	require.NoError(t, err)
	newS, err := webhook.NewSigner("new")
	require.NoError(t, err)

	now := time.Now()
	payload := []byte("body")
	oldHeader := oldS.SignAt(payload, now)
	newHeader := newS.SignAt(payload, now)
	_, newSig, _ := strings.Cut(newHeader, ",v1=")

	assert.NoError(t, oldS.Verify(payload, oldHeader+",v1="+newSig))
	assert.NoError(t, newS.Verify(payload, oldHeader+",v1="+newSig))
}

func TestSigner_MalformedHeader(t *testing.T) {
	t.Parallel()

	s, err := webhook.NewSigner("whsec")
	require.NoError(t, err)

	for _, header := range []string{"", "garbage", "t=abc,v1=00", "t=1700000000", "v1=00", "t=1700000000,v1="} {
		assert.ErrorIs(t, s.Verify([]byte("body"), header), webhook.ErrMalformedHeader, header)
	}

	_, err = webhook.NewSigner("")
	assert.ErrorIs(t, err, webhook.ErrMissingSecret)
}
