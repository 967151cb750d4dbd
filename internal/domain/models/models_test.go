package models

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverityJoinIsCommutativeAndMonotonic(t *testing.T) {
	all := Severities()
	for _, a := range all {
		for _, b := range all {
			ab := a.Join(b)
			assert.Equal(t, ab, b.Join(a), "%s join %s", a, b)
			assert.True(t, ab.AtLeast(a))
			assert.True(t, ab.AtLeast(b))
		}
	}
}

func TestJoinSeverities(t *testing.T) {
	assert.Equal(t, SeverityLow, JoinSeverities())
	assert.Equal(t, SeverityHigh, JoinSeverities(SeverityMedium, SeverityHigh, SeverityLow))
	assert.Equal(t, SeverityCritical, JoinSeverities(SeverityCritical, SeverityMedium))
	assert.Equal(t, SeverityMedium, JoinSeverities(Severity("bogus"), SeverityMedium))
}

func TestNewURLSubject(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		host    string
		wantErr bool
	}{
		{name: "defaults scheme", raw: "example.com/login", want: "https://example.com/login", host: "example.com"},
		{name: "keeps http", raw: "http://192.168.1.5/paypal-secure-login", want: "http://192.168.1.5/paypal-secure-login", host: "192.168.1.5"},
		{name: "lowercases host", raw: "HTTPS://PayPal.COM/x", want: "https://paypal.com/x", host: "paypal.com"},
		{name: "trims whitespace", raw: "  bit.ly/abc ", want: "https://bit.ly/abc", host: "bit.ly"},
		{name: "empty", raw: "   ", wantErr: true},
		{name: "no host", raw: "https:///path", wantErr: true},
		{name: "bad scheme", raw: "ftp://files.example.com", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewURLSubject(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsInputValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.Value())
			assert.Equal(t, tt.host, s.Host())
			assert.True(t, s.IsURL())
		})
	}
}

func TestNewTextSubject(t *testing.T) {
	_, err := NewTextSubject(SubjectKindText, " \n\t", 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = NewTextSubject(SubjectKindTranscript, "0123456789", 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInputTooLarge)

	s, err := NewTextSubject(SubjectKindTranscript, "hello there", 100)
	require.NoError(t, err)
	assert.Equal(t, "hello there", s.Value())
	assert.Nil(t, s.URL())
	assert.True(t, s.Kind().IsText())
}

func TestCacheKeySeparatesKinds(t *testing.T) {
	a, err := NewTextSubject(SubjectKindText, "same words", 0)
	require.NoError(t, err)
	b, err := NewTextSubject(SubjectKindTranscript, "same words", 0)
	require.NoError(t, err)

	assert.NotEqual(t, a.CacheKey(), b.CacheKey())
	assert.Equal(t, a.CacheKey(), a.CacheKey())
}

func TestSubjectJSONRoundTripRevalidates(t *testing.T) {
	s, err := NewURLSubject("example.org")
	require.NoError(t, err)

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"url","value":"https://example.org"}`, string(data))

	var back ScanSubject
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, "example.org", back.Host())

	require.Error(t, json.Unmarshal([]byte(`{"kind":"text","value":""}`), &back))
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, ""},
		{"cancelled", fmt.Errorf("call: %w", context.Canceled), ErrorKindCancelled},
		{"deadline", context.DeadlineExceeded, ErrorKindTransientProvider},
		{"not configured", ErrNotConfigured, ErrorKindConfiguration},
		{"provider", NewTransientError("virustotal", 502, "bad gateway", nil), ErrorKindTransientProvider},
		{"malformed", &ProviderError{Kind: ErrorKindMalformedResponse, Source: "llm"}, ErrorKindMalformedResponse},
		{"validation", NewInputValidationError("audio", ErrUnsupportedAudioFormat, "flac"), ErrorKindInputValidation},
		{"other", errors.New("boom"), ErrorKindTransientProvider},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestTransientErrorDropsRequestURL(t *testing.T) {
	cause := &url.Error{Op: "Post", URL: "https://lookup.example/v4/find?key=SECRET-KEY-123", Err: context.Canceled}
	err := NewTransientError("safe_browsing", 0, "request failed", cause)

	assert.NotContains(t, err.Error(), "SECRET-KEY-123")
	assert.Equal(t, "safe_browsing: request failed: context canceled", err.Error())
	assert.Equal(t, ErrorKindCancelled, KindOf(err))
	assert.NotContains(t, Failed("safe_browsing", KindOf(err), err).ErrorMessage, "SECRET-KEY-123")
}

func TestAudioSubjectSurvivesJSON(t *testing.T) {
	s := NewAudioSubject("mp3")
	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"voice_audio","value":"mp3"}`, string(data))

	var back ScanSubject
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, SubjectKindAudio, back.Kind())
	assert.False(t, back.IsURL())
}

func TestVerdictCancelled(t *testing.T) {
	v := &ThreatVerdict{Evidence: map[string]*SignalResult{
		"pattern_heuristic": Undetected("pattern_heuristic"),
		"virustotal":        Failed("virustotal", ErrorKindTransientProvider, nil),
	}}
	assert.False(t, v.Cancelled())

	v.Evidence["safe_browsing"] = Failed("safe_browsing", ErrorKindCancelled, context.Canceled)
	assert.True(t, v.Cancelled())
}

func TestVerdictConsistent(t *testing.T) {
	assert.True(t, (&ThreatVerdict{IsSafe: true, ThreatLevel: SeverityLow}).Consistent())
	assert.False(t, (&ThreatVerdict{IsSafe: true, ThreatLevel: SeverityLow, Threats: []string{"x"}}).Consistent())
	assert.True(t, (&ThreatVerdict{IsSafe: false, ThreatLevel: SeverityMedium}).Consistent())
}

func TestWarningIndicatorsTotal(t *testing.T) {
	w := WarningIndicators{HighUrgency: 1, PaymentRequest: 2, IdentityVerification: 3, SuspiciousPaymentMethod: 2}
	assert.Equal(t, 8, w.Total())
}
