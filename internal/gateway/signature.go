package gateway

import (
	"crypto/md5"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// Provider signatures are hex digests over the ordered concatenation of the
// request fields with the api key appended last. The key never appears in any
// log or error; only the resulting digest leaves this file.

// Sign128 computes the MD5 digest used for payment creation, status checks and
// callback verification.
func Sign128(secret string, fields ...string) string {
	sum := md5.Sum(concat(secret, fields))
	return hex.EncodeToString(sum[:])
}

// Sign256 computes the SHA-256 digest used for method-discovery calls.
func Sign256(secret string, fields ...string) string {
	sum := sha256.Sum256(concat(secret, fields))
	return hex.EncodeToString(sum[:])
}

// Verify128 reports whether provided matches the expected 128-bit digest.
// Comparison is constant-time so a mismatch reveals nothing about the key.
func Verify128(secret, provided string, fields ...string) bool {
	expected := Sign128(secret, fields...)
	return constantTimeEqualFold(expected, provided)
}

// Verify256 reports whether provided matches the expected 256-bit digest.
func Verify256(secret, provided string, fields ...string) bool {
	expected := Sign256(secret, fields...)
	return constantTimeEqualFold(expected, provided)
}

func concat(secret string, fields []string) []byte {
	var b strings.Builder
	for _, f := range fields {
		b.WriteString(f)
	}
	b.WriteString(secret)
	return []byte(b.String())
}

// constantTimeEqualFold compares hex digests case-insensitively without
// short-circuiting. Providers are inconsistent about digest casing.
func constantTimeEqualFold(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(strings.ToLower(a)), []byte(strings.ToLower(b))) == 1
}
