// Package random produces secrets for keys that were not configured.
package random

import (
	"crypto/rand"
	"encoding/hex"
)

// Bytes returns n bytes from crypto/rand. It panics if the system source
// fails, which leaves no safe way to continue.
func Bytes(n int) []byte {
	b := make([]byte, n)

	_, err := rand.Read(b)
	if err != nil {
		panic(err)
	}

	return b
}

// String returns n random bytes, hex encoded to 2n characters.
func String(n int) string {
	return hex.EncodeToString(Bytes(n))
}
