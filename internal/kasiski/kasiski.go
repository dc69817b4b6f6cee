// Package kasiski estimates Vigenère key lengths from ciphertext alone. The
// primary signal is the Kasiski examination: repeated ciphertext substrings
// betray the key period through the distances between their occurrences. The
// index of coincidence corroborates the estimate and carries it alone when
// the ciphertext is too short to contain qualifying repeats.
package kasiski

import (
	"math"
	"sort"

	"github.com/RowanDark/vigil/internal/freq"
)

const (
	// DefaultMinSeqLen and DefaultMaxSeqLen bound the repeated substring
	// lengths considered during the examination.
	DefaultMinSeqLen = 3
	DefaultMaxSeqLen = 5
	// DefaultMaxKeyLength caps the key lengths considered by both the
	// divisor count and the brute-force sweep.
	DefaultMaxKeyLength = 20
)

// LengthCandidate is a key length hypothesis with its supporting evidence.
type LengthCandidate struct {
	Length  int
	Support int     // divisor votes accumulated from repeat distances
	IC      float64 // mean column index of coincidence at this length
}

// Options tunes the examination. Zero values fall back to the defaults.
type Options struct {
	MinSeqLen    int
	MaxSeqLen    int
	MaxKeyLength int
}

func (o Options) withDefaults() Options {
	if o.MinSeqLen <= 0 {
		o.MinSeqLen = DefaultMinSeqLen
	}
	if o.MaxSeqLen <= 0 {
		o.MaxSeqLen = DefaultMaxSeqLen
	}
	if o.MaxSeqLen < o.MinSeqLen {
		o.MaxSeqLen = o.MinSeqLen
	}
	if o.MaxKeyLength < 2 {
		o.MaxKeyLength = DefaultMaxKeyLength
	}
	return o
}

// FindKeyLengths runs the Kasiski examination over the letter stream and
// returns candidate key lengths ranked by descending divisor support, ties
// broken by the shorter length. The result is empty when the stream contains
// no repeated substring of a qualifying length; callers are expected to fall
// back to SweepLengths in that case.
func FindKeyLengths(letters []byte, opts Options) []LengthCandidate {
	opts = opts.withDefaults()

	distances := make(map[int]int)
	for seqLen := opts.MinSeqLen; seqLen <= opts.MaxSeqLen; seqLen++ {
		if seqLen > len(letters) {
			break
		}
		positions := make(map[string][]int)
		for i := 0; i+seqLen <= len(letters); i++ {
			seq := string(letters[i : i+seqLen])
			positions[seq] = append(positions[seq], i)
		}
		for _, occ := range positions {
			for i := 1; i < len(occ); i++ {
				distances[occ[i]-occ[i-1]]++
			}
		}
	}
	if len(distances) == 0 {
		return nil
	}

	support := make(map[int]int)
	for dist, count := range distances {
		for d := 2; d <= opts.MaxKeyLength && d <= dist; d++ {
			if dist%d == 0 {
				support[d] += count
			}
		}
	}

	candidates := make([]LengthCandidate, 0, len(support))
	for length, votes := range support {
		candidates = append(candidates, LengthCandidate{
			Length:  length,
			Support: votes,
			IC:      ScoreKeyLength(letters, length),
		})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Support != candidates[j].Support {
			return candidates[i].Support > candidates[j].Support
		}
		return candidates[i].Length < candidates[j].Length
	})
	return candidates
}

// ScoreKeyLength partitions the stream into length columns and returns the
// mean index of coincidence across them. English plaintext columns average
// close to freq.EnglishIC; well-mixed ciphertext sits near freq.RandomIC.
func ScoreKeyLength(letters []byte, length int) float64 {
	if length < 1 || length > len(letters) {
		return 0
	}
	var total float64
	for col := 0; col < length; col++ {
		column := make([]byte, 0, len(letters)/length+1)
		for i := col; i < len(letters); i += length {
			column = append(column, letters[i])
		}
		total += freq.IndexOfCoincidence(column)
	}
	return total / float64(length)
}

// SweepLengths scores every key length from 1 to maxLen by column IC and
// ranks them by closeness to the English reference. It is the fallback when
// the examination finds no repeats, and the sole signal for short or
// low-redundancy ciphertext.
func SweepLengths(letters []byte, maxLen int) []LengthCandidate {
	if maxLen < 1 {
		maxLen = DefaultMaxKeyLength
	}
	if maxLen > len(letters) {
		maxLen = len(letters)
	}
	candidates := make([]LengthCandidate, 0, maxLen)
	for length := 1; length <= maxLen; length++ {
		candidates = append(candidates, LengthCandidate{
			Length: length,
			IC:     ScoreKeyLength(letters, length),
		})
	}
	sort.Slice(candidates, func(i, j int) bool {
		di := math.Abs(candidates[i].IC - freq.EnglishIC)
		dj := math.Abs(candidates[j].IC - freq.EnglishIC)
		if di != dj {
			return di < dj
		}
		return candidates[i].Length < candidates[j].Length
	})
	return candidates
}
