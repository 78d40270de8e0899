package links

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"satchel/internal/services"
)

const (
	wrapPathPrefix = "/w/"
	payloadParam   = "d"
	signatureParam = "s"

	// idLength is the hex-character length of the deterministic capture ID
	// derived from the canonical URL.
	idLength = 16
)

// Payload is the compact content smuggled inside a wrapped link so a
// receiver without local state can reconstruct the capture.
type Payload struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

// Parsed is the syntactic decomposition of a wrapped link before
// verification.
type Parsed struct {
	ID        string
	Payload   string // base64url, may be empty
	Signature string // hex
}

// Wrapper is the stateless codec. It is safe for concurrent use.
type Wrapper struct {
	secret []byte
	host   string
	scheme string // the app's custom URL scheme, refused during resolution
}

// NewWrapper builds a codec for the given signing secret and link host.
func NewWrapper(secret, host, appScheme string) (*Wrapper, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, services.Wrap(services.ErrValidation, "links", "new", "signing secret is required", nil)
	}
	host = strings.ToLower(strings.TrimSpace(host))
	if host == "" {
		return nil, services.Wrap(services.ErrValidation, "links", "new", "link host is required", nil)
	}
	return &Wrapper{
		secret: []byte(secret),
		host:   host,
		scheme: strings.ToLower(strings.TrimSpace(appScheme)),
	}, nil
}

// ID derives the deterministic capture ID for a target URL. Repeated wraps
// of the same logical resource produce the same ID.
func (w *Wrapper) ID(target string) string {
	sum := sha256.Sum256([]byte(canonicalURL(target)))
	return hex.EncodeToString(sum[:])[:idLength]
}

// Wrap produces a signed shareable link embedding the payload.
func (w *Wrapper) Wrap(target string, payload Payload) (string, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return "", services.Wrap(services.ErrValidation, "links", "wrap", "target url is empty", nil)
	}
	if w.isWrapped(target) {
		return "", services.Wrap(services.ErrValidation, "links", "wrap", "refusing to wrap an already wrapped link", nil)
	}

	if payload.URL == "" {
		payload.URL = target
	}
	payload.URL = canonicalURL(payload.URL)

	encoded, err := encodePayload(payload)
	if err != nil {
		return "", err
	}

	id := w.ID(target)
	sig := w.sign(id, encoded)

	values := url.Values{}
	values.Set(payloadParam, encoded)
	values.Set(signatureParam, sig)

	wrapped := url.URL{
		Scheme:   "https",
		Host:     w.host,
		Path:     wrapPathPrefix + id,
		RawQuery: values.Encode(),
	}
	return wrapped.String(), nil
}

// Parse decodes a wrapped link syntactically. It does not verify.
func (w *Wrapper) Parse(raw string) (Parsed, error) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Parsed{}, services.Wrap(services.ErrMalformedLink, "links", "parse", "invalid url", err)
	}
	if !strings.HasPrefix(parsed.Path, wrapPathPrefix) {
		return Parsed{}, services.Wrap(services.ErrMalformedLink, "links", "parse", "not a wrapped link path", nil)
	}
	id := strings.TrimPrefix(parsed.Path, wrapPathPrefix)
	if id == "" || strings.Contains(id, "/") {
		return Parsed{}, services.Wrap(services.ErrMalformedLink, "links", "parse", "missing link id", nil)
	}
	query := parsed.Query()
	sig := query.Get(signatureParam)
	if sig == "" {
		return Parsed{}, services.Wrap(services.ErrMalformedLink, "links", "parse", "missing signature", nil)
	}
	return Parsed{
		ID:        id,
		Payload:   query.Get(payloadParam),
		Signature: sig,
	}, nil
}

// Verify recomputes the signature over the parsed link's canonical form
// and compares in constant time.
func (w *Wrapper) Verify(parsed Parsed) bool {
	expected := w.sign(parsed.ID, parsed.Payload)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(parsed.Signature)))
}

// ResolvePayload parses and verifies a wrapped link, then decodes its
// payload. A nil payload with nil error means the link verified but
// carried no payload (the receiver should resolve the ID locally).
func (w *Wrapper) ResolvePayload(raw string) (*Payload, error) {
	parsed, err := w.Parse(raw)
	if err != nil {
		return nil, err
	}
	if !w.Verify(parsed) {
		return nil, services.Wrap(services.ErrSignature, "links", "resolve", "signature verification failed", nil)
	}
	if parsed.Payload == "" {
		return nil, nil
	}
	payload, err := decodePayload(parsed.Payload)
	if err != nil {
		return nil, err
	}
	// The anti-recursion invariant: a payload resolving to another wrapped
	// link (or our own scheme) must never re-enter the pipeline.
	if w.isWrapped(payload.URL) {
		return nil, services.Wrap(services.ErrValidation, "links", "resolve", "payload url is a wrapped link; refusing to resolve", nil)
	}
	return payload, nil
}

// isWrapped reports whether a URL points back into the wrapping scheme.
func (w *Wrapper) isWrapped(raw string) bool {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	scheme := strings.ToLower(parsed.Scheme)
	if w.scheme != "" && scheme == w.scheme {
		return true
	}
	return strings.EqualFold(parsed.Host, w.host) && strings.HasPrefix(parsed.Path, wrapPathPrefix)
}

func (w *Wrapper) sign(id, encodedPayload string) string {
	mac := hmac.New(sha256.New, w.secret)
	mac.Write([]byte(id))
	mac.Write([]byte{'\n'})
	mac.Write([]byte(encodedPayload))
	return hex.EncodeToString(mac.Sum(nil))
}

func encodePayload(payload Payload) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "links", "encode", "marshal payload", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

func decodePayload(encoded string) (*Payload, error) {
	data, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, services.Wrap(services.ErrMalformedLink, "links", "decode", "payload is not base64url", err)
	}
	var payload Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, services.Wrap(services.ErrMalformedLink, "links", "decode", "payload is not valid json", err)
	}
	if strings.TrimSpace(payload.URL) == "" {
		return nil, services.Wrap(services.ErrMalformedLink, "links", "decode", "payload url is empty", nil)
	}
	return &payload, nil
}

// canonicalURL normalizes scheme/host case, strips fragments and default
// ports, and trims trailing slashes so equivalent URLs share an ID.
func canonicalURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Scheme == "" {
		return trimmed
	}
	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = strings.ToLower(parsed.Host)
	parsed.Fragment = ""
	switch {
	case parsed.Scheme == "http" && strings.HasSuffix(parsed.Host, ":80"):
		parsed.Host = strings.TrimSuffix(parsed.Host, ":80")
	case parsed.Scheme == "https" && strings.HasSuffix(parsed.Host, ":443"):
		parsed.Host = strings.TrimSuffix(parsed.Host, ":443")
	}
	if parsed.Path != "/" {
		parsed.Path = strings.TrimSuffix(parsed.Path, "/")
	}
	return parsed.String()
}

// FormatShareText renders the user-facing share message for a wrapped link.
func FormatShareText(title, wrapped string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return wrapped
	}
	return fmt.Sprintf("%s\n%s", title, wrapped)
}
