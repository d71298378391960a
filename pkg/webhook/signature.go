package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultTolerance bounds how old (or how far in the future) a signature
// timestamp may be.
const DefaultTolerance = 5 * time.Minute

// Signer signs and verifies payloads with one secret.
type Signer struct {
	secret    []byte
	tolerance time.Duration
	now       func() time.Time
}

// Option configures a Signer.
type Option func(*Signer)

// WithTolerance sets the accepted timestamp skew. Zero disables the check.
func WithTolerance(d time.Duration) Option {
	return func(s *Signer) {
		if d >= 0 {
			s.tolerance = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Signer) {
		if now != nil {
			s.now = now
		}
	}
}

func NewSigner(secret string, opts ...Option) (*Signer, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	s := &Signer{secret: []byte(secret), tolerance: DefaultTolerance, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Sign returns the signature header for payload at the current time.
func (s *Signer) Sign(payload []byte) string {
	return s.SignAt(payload, s.now())
}

// SignAt returns the signature header for payload at t.
func (s *Signer) SignAt(payload []byte, t time.Time) string {
	ts := t.Unix()
	return fmt.Sprintf("t=%d,v1=%s", ts, s.mac(ts, payload))
}

// Verify checks header against payload.
func (s *Signer) Verify(payload []byte, header string) error {
	ts, sigs, err := parseHeader(header)
	if err != nil {
		return err
	}

	if s.tolerance > 0 {
		age := s.now().Sub(time.Unix(ts, 0))
		if age > s.tolerance || age < -s.tolerance {
			return fmt.Errorf("%w: age %s", ErrTimestampOutOfRange, age.Round(time.Second))
		}
	}

	expected := []byte(s.mac(ts, payload))
	for _, sig := range sigs {
		if hmac.Equal(expected, []byte(sig)) {
			return nil
		}
	}
	return ErrSignatureMismatch
}

func (s *Signer) mac(ts int64, payload []byte) string {
	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte(strconv.FormatInt(ts, 10)))
	h.Write([]byte("."))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

func parseHeader(header string) (int64, []string, error) {
	var (
		ts   int64
		sigs []string
	)
	for part := range strings.SplitSeq(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch key {
		case "t":
			n, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return 0, nil, fmt.Errorf("%w: bad timestamp", ErrMalformedHeader)
			}
			ts = n
		case "v1":
			if value != "" {
				sigs = append(sigs, value)
			}
		}
	}
	if ts == 0 || len(sigs) == 0 {
		return 0, nil, ErrMalformedHeader
	}
	return ts, sigs, nil
}
