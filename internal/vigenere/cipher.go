package vigenere

import (
	"fmt"
	"strings"
)

// AlphabetSize is the number of letters in the analysis alphabet.
const AlphabetSize = 26

// NormalizeKey validates and upper-cases a caller supplied key. Keys must be
// non-empty and consist of ASCII letters only.
func NormalizeKey(key string) ([]byte, error) {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return nil, fmt.Errorf("empty key")
	}
	out := make([]byte, 0, len(trimmed))
	for i := 0; i < len(trimmed); i++ {
		c := trimmed[i]
		switch {
		case c >= 'A' && c <= 'Z':
			out = append(out, c)
		case c >= 'a' && c <= 'z':
			out = append(out, c-'a'+'A')
		default:
			return nil, fmt.Errorf("key %q contains non-letter character %q", key, c)
		}
	}
	return out, nil
}

// Encrypt applies the Vigenère tableau to an uppercase letter stream, cycling
// the key letters in order.
func Encrypt(letters, key []byte) []byte {
	return shift(letters, key, 1)
}

// Decrypt inverts Encrypt for the same key.
func Decrypt(letters, key []byte) []byte {
	return shift(letters, key, -1)
}

func shift(letters, key []byte, direction int) []byte {
	out := make([]byte, len(letters))
	for i, c := range letters {
		k := int(key[i%len(key)] - 'A')
		out[i] = byte((int(c-'A')+direction*k+AlphabetSize)%AlphabetSize) + 'A'
	}
	return out
}
