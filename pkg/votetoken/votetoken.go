// Package votetoken generates, normalizes and hashes the short one-time
// tokens voters exchange for a voting session. Only the SHA-256 digest of
// the normalized form is ever stored; the plaintext is handed out once.
package votetoken

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"math/big"
	"strings"
)

// SafeChars excludes visually ambiguous characters (0/O, 1/I/l).
const SafeChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

var (
	ErrEmpty         = errors.New("token cannot be empty")
	ErrInvalidFormat = errors.New("invalid token format")
)

// Codec produces and checks voting tokens of a fixed length (4 for small
// offline deployments, 8 for the AB12-CD34 profile).
type Codec struct {
	Length int
}

func NewCodec(length int) Codec {
	if length <= 0 {
		length = 8
	}
	return Codec{Length: length}
}

// Generate draws Length symbols from SafeChars using crypto/rand and returns
// the plaintext grouped with hyphens for readability.
func (c Codec) Generate() (string, error) {
	max := big.NewInt(int64(len(SafeChars)))
	buf := make([]byte, c.Length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = SafeChars[n.Int64()]
	}
	return Format(string(buf)), nil
}

// Format groups a raw token with hyphens every 4 characters (AB12-CD34).
// Tokens of 4 characters or fewer are returned as-is.
func Format(raw string) string {
	if len(raw) <= 4 {
		return raw
	}
	var groups []string
	for i := 0; i < len(raw); i += 4 {
		end := i + 4
		if end > len(raw) {
			end = len(raw)
		}
		groups = append(groups, raw[i:end])
	}
	return strings.Join(groups, "-")
}

// Normalize strips separators and whitespace and upper-cases, so that
// "ab12-CD34", "AB12 CD34" and "AB12CD34" compare (and hash) equal.
func Normalize(input string) string {
	s := strings.ReplaceAll(input, "-", "")
	s = strings.ReplaceAll(s, " ", "")
	return strings.ToUpper(s)
}

// Validate normalizes the input and checks it against the codec length.
// The returned value is the normalized token.
func (c Codec) Validate(input string) (string, error) {
	if strings.TrimSpace(input) == "" {
		return "", ErrEmpty
	}
	clean := Normalize(input)
	if len(clean) != c.Length {
		return "", ErrInvalidFormat
	}
	for _, r := range clean {
		if !(r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return "", ErrInvalidFormat
		}
	}
	return clean, nil
}

// Hash returns the hex SHA-256 digest of the normalized token. The digest is
// both the storage value and the lookup key.
func Hash(input string) string {
	sum := sha256.Sum256([]byte(Normalize(input)))
	return hex.EncodeToString(sum[:])
}
