package helpers

import (
	"strings"

	"github.com/alexedwards/argon2id"
	"golang.org/x/crypto/bcrypt"
)

var Argon2Params = argon2id.DefaultParams

func HashPassword(password string) (string, error) {
	return argon2id.CreateHash(password, Argon2Params)
}

// VerifyPassword checks password against an argon2id hash or a legacy bcrypt hash.
func VerifyPassword(password, hash string) bool {
	if isBcrypt(hash) {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
	}
	match, err := argon2id.ComparePasswordAndHash(password, hash)
	return err == nil && match
}

// NeedsRehash is true for hashes written before the switch to argon2id.
func NeedsRehash(hash string) bool {
	return isBcrypt(hash)
}

func isBcrypt(hash string) bool {
	return strings.HasPrefix(hash, "$2a$") || strings.HasPrefix(hash, "$2b$") || strings.HasPrefix(hash, "$2y$")
}
