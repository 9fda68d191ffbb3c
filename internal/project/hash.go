package project

import (
	"crypto/sha256"
)

// Digest - фиксированный 256 битный хеш.
type Digest [32]byte

// HashString хеширует одну строку.
func HashString(s string) Digest {
	return sha256.Sum256([]byte(s))
}

// Combine строит составной хеш: H( first || rest1 || rest2 ... ).
// Порядок rest должен быть детерминированным.
func Combine(first Digest, rest ...Digest) Digest {
	h := sha256.New()
	_, _ = h.Write(first[:])
	for _, d := range rest {
		_, _ = h.Write(d[:])
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}
