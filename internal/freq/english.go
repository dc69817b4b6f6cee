package freq

// EnglishIC is the expected index of coincidence for English plaintext. Key
// length candidates are ranked by closeness to this value.
const EnglishIC = 0.0667

// RandomIC is the index of coincidence of uniformly random 26-letter text.
const RandomIC = 1.0 / 26

// english holds single-letter relative frequencies for English text, indexed
// by letter (A=0). Initialised once at startup and never written afterwards.
var english = [26]float64{
	'A' - 'A': 0.0812,
	'B' - 'A': 0.0149,
	'C' - 'A': 0.0271,
	'D' - 'A': 0.0432,
	'E' - 'A': 0.1202,
	'F' - 'A': 0.0230,
	'G' - 'A': 0.0203,
	'H' - 'A': 0.0592,
	'I' - 'A': 0.0731,
	'J' - 'A': 0.0010,
	'K' - 'A': 0.0069,
	'L' - 'A': 0.0398,
	'M' - 'A': 0.0261,
	'N' - 'A': 0.0695,
	'O' - 'A': 0.0768,
	'P' - 'A': 0.0182,
	'Q' - 'A': 0.0011,
	'R' - 'A': 0.0602,
	'S' - 'A': 0.0628,
	'T' - 'A': 0.0910,
	'U' - 'A': 0.0288,
	'V' - 'A': 0.0111,
	'W' - 'A': 0.0209,
	'X' - 'A': 0.0017,
	'Y' - 'A': 0.0211,
	'Z' - 'A': 0.0007,
}

// commonWords are frequent English words used as an optional plausibility
// bonus when ranking full decryptions.
var commonWords = []string{
	"THE", "AND", "THAT", "HAVE", "FOR", "NOT", "WITH", "YOU", "THIS", "BUT",
}

// English returns the reference frequency for the given letter index (A=0).
func English(i int) float64 {
	return english[i]
}
