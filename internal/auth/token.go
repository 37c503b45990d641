package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"math/big"
)

const (
	alphanumericChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	specialChars      = "!#$%&()*+-./:<=>?@[]^_{|}~"
)

// NewToken returns a random bearer token of the given length. When special
// is set the alphabet includes punctuation in addition to letters and digits.
func NewToken(length int, special bool) (string, error) {
	if length <= 0 {
		length = 1
	}
	alphabet := alphanumericChars
	if special {
		alphabet += specialChars
	}

	max := big.NewInt(int64(len(alphabet)))
	out := make([]byte, length)
	for i := range out {
		idx, errRand := rand.Int(rand.Reader, max)
		if errRand != nil {
			return "", errRand
		}
		out[i] = alphabet[idx.Int64()]
	}
	return string(out), nil
}

// HashToken returns the hex SHA-256 digest of a bearer token. Only this
// digest is ever persisted.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
