package signature

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

const (
	// HeaderName is the request header carrying the body signature
	HeaderName = "X-Signature"

	// HeaderPrefix is the optional algorithm prefix: "sha256=<hex>"
	HeaderPrefix = "sha256="

	// MinSecretBytes is the minimum size for generated secrets (192 bits)
	MinSecretBytes = 24

	// MaxSecretBytes is the maximum size for generated secrets (512 bits)
	MaxSecretBytes = 64
)

var (
	ErrMissingCredentials = errors.New("missing signature or api key")
	ErrInvalidSignature   = errors.New("invalid signature")
	ErrInvalidAPIKey      = errors.New("invalid api key")
)

// GenerateSecret creates a random hex encoded shared secret
func GenerateSecret(size int) (string, error) {
	if size < MinSecretBytes || size > MaxSecretBytes {
		return "", fmt.Errorf("secret size must be between %d and %d bytes", MinSecretBytes, MaxSecretBytes)
	}

	bytes := make([]byte, size)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generating random bytes: %w", err)
	}

	return hex.EncodeToString(bytes), nil
}

// Sign returns the hex HMAC-SHA256 of the raw body keyed by secret
func Sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// ParseHeader splits a signature header into hex signatures
// Several signatures may be sent comma or space separated during secret rotation
func ParseHeader(header string) ([]string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return nil, fmt.Errorf("signature header is empty")
	}

	fields := strings.FieldsFunc(header, func(r rune) bool {
		return r == ',' || r == ' '
	})

	signatures := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimPrefix(strings.ToLower(f), HeaderPrefix)
		if f == "" {
			continue
		}
		signatures = append(signatures, f)
	}

	if len(signatures) == 0 {
		return nil, fmt.Errorf("no signatures found in header")
	}

	return signatures, nil
}

// Verify checks a signature header against one secret using constant-time comparison
func Verify(secret, body []byte, header string) (bool, error) {
	return VerifyMultiple([][]byte{secret}, body, header)
}

// VerifyMultiple verifies the header against several secrets (for secret rotation)
// Returns true if any signature matches any secret
func VerifyMultiple(secrets [][]byte, body []byte, header string) (bool, error) {
	if len(secrets) == 0 {
		return false, fmt.Errorf("must provide at least one secret")
	}

	signatures, err := ParseHeader(header)
	if err != nil {
		return false, err
	}

	for _, secret := range secrets {
		expected := Sign(secret, body)
		for _, sig := range signatures {
			if subtle.ConstantTimeCompare([]byte(expected), []byte(sig)) == 1 {
				return true, nil
			}
		}
	}

	return false, nil
}

/* Verifier authenticates inbound webhook requests
 * A signature header wins when secrets are configured, otherwise
 * the request must carry the shared api key in the query or body
 */
type Verifier struct {
	secrets [][]byte
	apiKey  string
}

// NewVerifier creates a verifier, empty secrets are ignored
func NewVerifier(secrets []string, apiKey string) *Verifier {
	v := &Verifier{apiKey: apiKey}
	for _, s := range secrets {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		v.secrets = append(v.secrets, []byte(s))
	}
	return v
}

// Enabled reports whether any credential is configured
func (v *Verifier) Enabled() bool {
	return len(v.secrets) > 0 || v.apiKey != ""
}

// Authenticate checks a request given its signature header, raw body and api key
func (v *Verifier) Authenticate(header string, body []byte, apiKey string) error {
	if header != "" && len(v.secrets) > 0 {
		ok, err := VerifyMultiple(v.secrets, body, header)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		}
		if !ok {
			return ErrInvalidSignature
		}
		return nil
	}

	if apiKey == "" {
		return ErrMissingCredentials
	}

	if v.apiKey == "" || subtle.ConstantTimeCompare([]byte(v.apiKey), []byte(apiKey)) != 1 {
		return ErrInvalidAPIKey
	}

	return nil
}
