package password

import "golang.org/x/crypto/bcrypt"

// Hash produces a salted bcrypt digest. Each call salts independently, so the
// same password yields a different digest every time.
func Hash(plain string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify reports whether plain matches the stored digest. A malformed digest
// is treated as a mismatch rather than an error.
func Verify(plain, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
}
