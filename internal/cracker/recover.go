package cracker

import (
	"math"

	"github.com/RowanDark/vigil/internal/freq"
	"github.com/RowanDark/vigil/internal/vigenere"
)

// RecoverKey derives the most probable key of the given length from the
// letter stream. Each column (positions congruent modulo the length) is
// treated as a Caesar cipher and solved by chi-squared fit against English;
// ties resolve to the lowest shift so runs are reproducible. Columns with few
// letters still yield their best-fit shift; the full-plaintext score applied
// during ranking is the authoritative signal for such low-confidence keys.
func RecoverKey(letters []byte, length int) []byte {
	key := make([]byte, length)
	for col := 0; col < length; col++ {
		column := make([]byte, 0, len(letters)/length+1)
		for i := col; i < len(letters); i += length {
			column = append(column, letters[i])
		}
		key[col] = 'A' + byte(bestShift(column))
	}
	return key
}

func bestShift(column []byte) int {
	counts := freq.Counts(column)
	best, bestChi := 0, math.Inf(1)
	for s := 0; s < vigenere.AlphabetSize; s++ {
		if chi := freq.ChiSquaredShift(counts, len(column), s); chi < bestChi {
			best, bestChi = s, chi
		}
	}
	return best
}
