// Package vigenere implements the classical Vigenère cipher over the A-Z
// alphabet together with the text normalisation used by the analysis
// pipeline. Normalised texts keep a map of the original layout so decrypted
// output can be re-interleaved with the source punctuation and casing.
package vigenere

import "errors"

// ErrEmptyInput is returned when the input contains no alphabetic characters
// and therefore nothing can be analysed.
var ErrEmptyInput = errors.New("vigenere: input contains no letters")

// Text holds the uppercase letter stream extracted from a raw input alongside
// the original characters. A Text is immutable after construction.
type Text struct {
	raw     []rune
	letters []byte
}

// Normalize strips every non-alphabetic character from raw, upper-cases the
// remainder, and records the original layout. Only ASCII letters participate;
// everything else is preserved verbatim for re-interleaving and never consumes
// a key-stream position.
func Normalize(raw string) (*Text, error) {
	runes := []rune(raw)
	letters := make([]byte, 0, len(runes))
	for _, r := range runes {
		switch {
		case r >= 'A' && r <= 'Z':
			letters = append(letters, byte(r))
		case r >= 'a' && r <= 'z':
			letters = append(letters, byte(r-'a'+'A'))
		}
	}
	if len(letters) == 0 {
		return nil, ErrEmptyInput
	}
	return &Text{raw: runes, letters: letters}, nil
}

// Letters returns a copy of the normalised letter stream.
func (t *Text) Letters() []byte {
	out := make([]byte, len(t.letters))
	copy(out, t.letters)
	return out
}

// Len reports the number of alphabetic characters in the text.
func (t *Text) Len() int {
	return len(t.letters)
}

// Reinterleave maps a transformed letter stream back onto the original text:
// each alphabetic position receives the next letter from letters with its
// original case restored, and non-alphabetic characters pass through
// unchanged. letters must have the same length as the normalised stream.
func (t *Text) Reinterleave(letters []byte) string {
	out := make([]rune, len(t.raw))
	next := 0
	for i, r := range t.raw {
		switch {
		case r >= 'A' && r <= 'Z':
			out[i] = rune(letters[next])
			next++
		case r >= 'a' && r <= 'z':
			out[i] = rune(letters[next] - 'A' + 'a')
			next++
		default:
			out[i] = r
		}
	}
	return string(out)
}

// DecryptWith decrypts the text with the provided key and restores the
// original layout in one step.
func (t *Text) DecryptWith(key []byte) string {
	return t.Reinterleave(Decrypt(t.letters, key))
}
