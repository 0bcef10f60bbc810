package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	pbkdf2Prefix = "pbkdf2$"
	keyLength    = 32
)

// HashCredential derives a storable pbkdf2 record of the form
// pbkdf2$<rounds>$<saltBase64>$<derivedKeyBase64>.
func HashCredential(password string, rounds int) (string, error) {
	if rounds <= 0 {
		rounds = 120000
	}
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	dk := pbkdf2.Key([]byte(password), salt, rounds, keyLength, sha256.New)
	return fmt.Sprintf("pbkdf2$%d$%s$%s",
		rounds,
		base64.StdEncoding.EncodeToString(salt),
		base64.StdEncoding.EncodeToString(dk),
	), nil
}

// VerifyCredential checks input against a stored credential. Both the pbkdf2
// record format and legacy plaintext secrets are accepted indefinitely; the
// comparison is constant time either way.
func VerifyCredential(input, stored string) bool {
	if stored == "" {
		return false
	}
	if strings.HasPrefix(stored, pbkdf2Prefix) {
		return verifyPBKDF2(input, stored)
	}
	return ConstantTimeEquals(input, stored)
}

func verifyPBKDF2(input, stored string) bool {
	parts := strings.SplitN(stored, "$", 4)
	if len(parts) != 4 {
		return false
	}
	rounds, err := strconv.Atoi(parts[1])
	if err != nil || rounds <= 0 {
		return false
	}
	salt, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil {
		return false
	}
	expected, err := base64.StdEncoding.DecodeString(parts[3])
	if err != nil {
		return false
	}
	dk := pbkdf2.Key([]byte(input), salt, rounds, len(expected), sha256.New)
	return subtle.ConstantTimeCompare(dk, expected) == 1
}

// ConstantTimeEquals compares two strings without leaking length-prefix
// timing on matches.
func ConstantTimeEquals(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
