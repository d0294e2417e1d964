package auth

import (
	"crypto/subtle"
	"errors"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordMismatch is returned when a password does not match its stored value.
var ErrPasswordMismatch = errors.New("password mismatch")

// dummyHash is compared against when a username does not exist so that
// unknown users cost the same as wrong passwords.
var dummyHash = sync.OnceValue(func() []byte {
	h, _ := bcrypt.GenerateFromPassword([]byte("ncd-unknown-user"), bcrypt.DefaultCost)
	return h
})

// HashPassword returns the bcrypt hash of password at the default cost.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// IsHashed reports whether stored looks like a bcrypt hash.
func IsHashed(stored string) bool {
	return len(stored) == 60 && (strings.HasPrefix(stored, "$2a$") ||
		strings.HasPrefix(stored, "$2b$") || strings.HasPrefix(stored, "$2y$"))
}

// CheckPassword verifies password against a bcrypt hash. When allowPlain is
// set and stored is not a hash, it falls back to a constant-time plaintext
// comparison and reports legacy=true so the caller can rehash.
func CheckPassword(stored, password string, allowPlain bool) (legacy bool, err error) {
	if IsHashed(stored) {
		if err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)); err != nil {
			return false, ErrPasswordMismatch
		}
		return false, nil
	}
	if allowPlain && stored != "" &&
		subtle.ConstantTimeCompare([]byte(stored), []byte(password)) == 1 {
		return true, nil
	}
	return false, ErrPasswordMismatch
}

// BurnPasswordCheck runs a bcrypt comparison against a fixed hash. Call it on
// the unknown-user path.
func BurnPasswordCheck(password string) {
	_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
}
