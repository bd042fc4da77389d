package password

import "golang.org/x/crypto/bcrypt"

// Hash returns the bcrypt hash of secret at the default cost.
func Hash(secret string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// Bcrypt verifies candidate secrets against stored bcrypt hashes.
type Bcrypt struct{}

// Verify reports whether candidate matches hash. Malformed hashes never match.
func (Bcrypt) Verify(hash, candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate)) == nil
}
