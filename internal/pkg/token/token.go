package token

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
)

// Numeric is the alphabet used for e-mail verification codes by default.
const Numeric = "0123456789"

// Generate returns an n-character string drawn uniformly from alphabet using crypto/rand.
func Generate(n int, alphabet string) (string, error) {
	if n <= 0 {
		return "", errors.New("token length must be positive")
	}
	symbols := []rune(alphabet)
	if len(symbols) == 0 {
		return "", errors.New("token alphabet must not be empty")
	}
	max := big.NewInt(int64(len(symbols)))
	out := make([]rune, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate token: %w", err)
		}
		out[i] = symbols[idx.Int64()]
	}
	return string(out), nil
}
