package models

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/url"
	"strings"
)

// SubjectKind tells the engine which analysis path a subject takes
type SubjectKind string

const (
	SubjectKindURL        SubjectKind = "url"
	SubjectKindText       SubjectKind = "text"
	SubjectKindEmail      SubjectKind = "email"
	SubjectKindTranscript SubjectKind = "voice_transcript"
	SubjectKindAudio      SubjectKind = "voice_audio"
)

// IsText reports whether the kind carries free text rather than a URL
func (k SubjectKind) IsText() bool {
	return k != SubjectKindURL
}

// ScanSubject is an immutable, validated input to a scan
type ScanSubject struct {
	kind  SubjectKind
	value string
	url   *url.URL
}

// NewURLSubject normalizes raw into a URL subject. A missing scheme defaults to https.
func NewURLSubject(raw string) (ScanSubject, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ScanSubject{}, NewInputValidationError("url", ErrEmptyInput, "url is required")
	}

	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return ScanSubject{}, NewInputValidationError("url", ErrInvalidURL, err.Error())
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return ScanSubject{}, NewInputValidationError("url", ErrInvalidURL, "scheme must be http or https")
	}
	if u.Hostname() == "" {
		return ScanSubject{}, NewInputValidationError("url", ErrInvalidURL, "url has no host")
	}
	u.Host = strings.ToLower(u.Host)

	return ScanSubject{kind: SubjectKindURL, value: u.String(), url: u}, nil
}

// NewTextSubject validates free text. maxBytes <= 0 disables the size check.
func NewTextSubject(kind SubjectKind, text string, maxBytes int) (ScanSubject, error) {
	if kind == SubjectKindURL {
		return NewURLSubject(text)
	}
	if strings.TrimSpace(text) == "" {
		return ScanSubject{}, NewInputValidationError(string(kind), ErrEmptyInput, "text is required")
	}
	if maxBytes > 0 && len(text) > maxBytes {
		return ScanSubject{}, NewInputValidationError(string(kind), ErrInputTooLarge, "text exceeds maximum size")
	}
	return ScanSubject{kind: kind, value: text}, nil
}

// NewAudioSubject marks a recording that yielded no transcript. Its value is the validated format.
func NewAudioSubject(format string) ScanSubject {
	return ScanSubject{kind: SubjectKindAudio, value: format}
}

func (s ScanSubject) Kind() SubjectKind { return s.kind }

// Value returns the normalized URL or the original text
func (s ScanSubject) Value() string { return s.value }

func (s ScanSubject) IsURL() bool { return s.kind == SubjectKindURL }

// URL returns a copy of the parsed URL, or nil for text subjects
func (s ScanSubject) URL() *url.URL {
	if s.url == nil {
		return nil
	}
	cp := *s.url
	return &cp
}

// Host returns the lowercase hostname without port
func (s ScanSubject) Host() string {
	if s.url == nil {
		return ""
	}
	return s.url.Hostname()
}

// CacheKey is a stable digest of kind and value
func (s ScanSubject) CacheKey() string {
	sum := sha256.Sum256([]byte(string(s.kind) + "\x00" + s.value))
	return string(s.kind) + ":" + hex.EncodeToString(sum[:])
}

type subjectJSON struct {
	Kind  SubjectKind `json:"kind"`
	Value string      `json:"value"`
}

func (s ScanSubject) MarshalJSON() ([]byte, error) {
	return json.Marshal(subjectJSON{Kind: s.kind, Value: s.value})
}

// UnmarshalJSON revalidates the subject so a cached verdict cannot smuggle in an invalid one
func (s *ScanSubject) UnmarshalJSON(data []byte) error {
	var raw subjectJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := NewTextSubject(raw.Kind, raw.Value, 0)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
