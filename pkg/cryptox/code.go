package cryptox

import (
	"crypto/rand"
	"fmt"
	"strings"
)

// CrockfordAlphabet is Crockford's base32 alphabet. It drops I, L, O and U
// so codes survive being read aloud or typed from a printed card.
const CrockfordAlphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

// GenerateCode returns a random code of length characters drawn from
// CrockfordAlphabet. Each character carries 5 bits of entropy; 32 divides
// 256 evenly so there is no modulo bias.
func GenerateCode(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("code length must be positive, got %d", length)
	}

	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random code: %w", err)
	}

	for i, b := range buf {
		buf[i] = CrockfordAlphabet[b%32]
	}
	return string(buf), nil
}

// NormalizeCode upper-cases a user-supplied code and maps the characters
// Crockford treats as aliases (O->0, I/L->1). Hyphens and spaces are dropped.
func NormalizeCode(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range strings.ToUpper(s) {
		switch r {
		case '-', ' ':
			continue
		case 'O':
			r = '0'
		case 'I', 'L':
			r = '1'
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
