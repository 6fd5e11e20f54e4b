// Package fingerprint derives a best-effort stable visitor identifier from
// coarse, non-identifying device attributes. It is the deterministic
// fallback for clients whose primary fingerprinting method is unavailable;
// the submission guard treats the result as an opaque string either way.
//
// Like localstore, this is the client-side half of the system: the server
// never calls it, participants compute their fingerprint locally and send it
// with their submission.
package fingerprint

import (
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

const length = 32

// Fallback hashes the given attribute strings (user agent, language, screen
// geometry, timezone offset and the like) into a fixed-length identifier.
// Same attributes, same result.
func Fallback(components ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(components, "|")))
	return base64.RawURLEncoding.EncodeToString(sum[:])[:length]
}
