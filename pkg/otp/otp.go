package otp

import (
	"crypto/rand"
	"math/big"
	"time"

	"teamsync-server/pkg/config"
)

// Charset for generated codes. Excludes 0/1/i/l/o so a code read from a
// mail client can't be mistyped.
const charset = "23456789abcdefghjkmnpqrstuvwxyz"

var cfg *config.OTPConfig

// Initialize stores the OTP configuration
func Initialize(c *config.OTPConfig) {
	cfg = c
}

// TTL returns the configured code lifetime
func TTL() time.Duration {
	if cfg == nil {
		return 5 * time.Minute
	}
	return cfg.TTL
}

// NewCode generates a random code of the configured length
func NewCode() (string, error) {
	length := 6
	if cfg != nil && cfg.Length > 0 {
		length = cfg.Length
	}
	return Generate(length)
}

// Generate returns a cryptographically random code of n characters
func Generate(n int) (string, error) {
	max := big.NewInt(int64(len(charset)))
	code := make([]byte, n)
	for i := range code {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		code[i] = charset[idx.Int64()]
	}
	return string(code), nil
}
