// Password hashing utilities.
//
// WHY BCRYPT?
// bcrypt is deliberately slow and salts every hash, so a leaked users table
// cannot be reversed with precomputed tables and is expensive to brute force.
//
// THE 72 BYTE PROBLEM:
// bcrypt only looks at the first 72 bytes of its input. Passwords here may be
// up to 128 characters (and multi-byte), so two long passwords sharing a
// 72 byte prefix would collide. New hashes therefore feed bcrypt the base64
// SHA-256 digest of the password (44 bytes) instead of the password itself,
// and carry a tag saying so:
//
//	$bcrypt-sha256$$2a$12$<22-char salt><31-char hash>
//	^ scheme tag   ^ ordinary bcrypt output over base64(sha256(password))
//
// Hashes without the tag are plain bcrypt ($2a$, $2b$, $2y$) as produced by
// older systems; Verify still accepts them so imported accounts keep working.

package auth

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor used in production.
//
// COST TUNING RULE OF THUMB:
// Set cost so that hashing takes ~200–300ms on your production hardware.
// Too low → easy to crack. Too high → login is sluggish under load.
const DefaultCost = 12

// testCost is the bcrypt minimum. Only for tests.
const testCost = bcrypt.MinCost

const sha256Tag = "$bcrypt-sha256$"

// PasswordService provides hashing and verification.
//
// It's a struct (not free functions) so that the cost can be injected:
// tests use the minimum cost to run in milliseconds.
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService with the given bcrypt cost.
func NewPasswordService(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// NewPasswordServiceForTest creates a PasswordService with bcrypt cost 4.
// Do NOT use in production. Cost 4 is far too weak.
func NewPasswordServiceForTest() *PasswordService {
	return &PasswordService{cost: testCost}
}

// Hash returns a tagged, salted hash of plaintext. Two calls with the same
// input return different strings.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword(prehash(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}
	return sha256Tag + string(hashed), nil
}

// Verify reports whether plaintext matches hash. Unknown schemes and
// malformed hashes simply do not match.
//
// TIMING SAFETY:
// bcrypt.CompareHashAndPassword compares in constant time, so response
// timing reveals nothing about how close a guess was.
func (p *PasswordService) Verify(hash, plaintext string) bool {
	switch {
	case strings.HasPrefix(hash, sha256Tag):
		inner := strings.TrimPrefix(hash, sha256Tag)
		return bcrypt.CompareHashAndPassword([]byte(inner), prehash(plaintext)) == nil
	case isPlainBcrypt(hash):
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
	default:
		return false
	}
}

func prehash(plaintext string) []byte {
	sum := sha256.Sum256([]byte(plaintext))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}

func isPlainBcrypt(hash string) bool {
	for _, prefix := range []string{"$2a$", "$2b$", "$2y$"} {
		if strings.HasPrefix(hash, prefix) {
			return true
		}
	}
	return false
}
