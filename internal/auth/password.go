package auth

import "golang.org/x/crypto/bcrypt"

// Credentials hashes and verifies passwords.
type Credentials struct {
	cost int
}

func NewCredentials(cost int) *Credentials {
	return &Credentials{cost: cost}
}

// Hash returns the bcrypt digest of plain.
func (c *Credentials) Hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), c.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify reports whether plain matches digest.
func (c *Credentials) Verify(digest, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
}
