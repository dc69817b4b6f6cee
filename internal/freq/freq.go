// Package freq provides the letter-frequency statistics behind the
// cryptanalysis pipeline: observed frequency tables, the index of
// coincidence, and chi-squared goodness of fit against English.
package freq

import "strings"

// Counts tallies occurrences of each letter (A=0) in an uppercase stream.
func Counts(letters []byte) [26]int {
	var counts [26]int
	for _, c := range letters {
		counts[c-'A']++
	}
	return counts
}

// IndexOfCoincidence computes the probability that two randomly chosen
// letters of the segment are identical. Segments shorter than two letters
// have no defined IC and score 0.
func IndexOfCoincidence(letters []byte) float64 {
	n := len(letters)
	if n < 2 {
		return 0
	}
	counts := Counts(letters)
	var sum float64
	for _, c := range counts {
		sum += float64(c) * float64(c-1)
	}
	return sum / (float64(n) * float64(n-1))
}

// ChiSquaredShift measures how well the observed counts fit the English
// reference after undoing a Caesar shift of s, i.e. assuming ciphertext
// letter c was produced from plaintext letter c-s. Lower is better.
func ChiSquaredShift(counts [26]int, total int, s int) float64 {
	if total == 0 {
		return 0
	}
	var chi float64
	for i := 0; i < 26; i++ {
		observed := float64(counts[(i+s)%26])
		expected := float64(total) * english[i]
		diff := observed - expected
		chi += diff * diff / expected
	}
	return chi
}

// EnglishDeviation scores a full decrypted letter stream by chi-squared fit
// against the English reference distribution. Lower is better.
func EnglishDeviation(letters []byte) float64 {
	return ChiSquaredShift(Counts(letters), len(letters), 0)
}

// CommonWordHits counts occurrences of frequent English words in an
// uppercase letter stream. Used as an optional bonus signal when ranking
// candidate decryptions.
func CommonWordHits(letters []byte) int {
	text := string(letters)
	hits := 0
	for _, word := range commonWords {
		hits += strings.Count(text, word)
	}
	return hits
}
