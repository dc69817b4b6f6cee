// Package cracker recovers Vigenère keys from ciphertext alone. It composes
// the Kasiski examination and index-of-coincidence scoring into ranked key
// length candidates, recovers one key per candidate length by per-column
// frequency analysis, and ranks every resulting decryption (plus any caller
// supplied keys) by plausibility against English letter statistics.
package cracker

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/RowanDark/vigil/internal/freq"
	"github.com/RowanDark/vigil/internal/kasiski"
	"github.com/RowanDark/vigil/internal/vigenere"
)

// ErrInvalidKeyLength reports a caller supplied key length that cannot apply
// to the ciphertext: zero, negative, or longer than the letter stream.
var ErrInvalidKeyLength = errors.New("cracker: key length out of range")

// DefaultMaxCandidates caps how many ranked length candidates are expanded
// into full key recoveries during automatic detection.
const DefaultMaxCandidates = 5

// Result sources, in ranking tie-break order.
const (
	SourceRecovered = "recovered"
	SourceExplicit  = "explicit"
	SourceTryKeys   = "try-keys"
)

// Scorer assigns a plausibility score to a candidate decryption; lower is
// better. letters is the decrypted A-Z stream, plaintext the re-interleaved
// text with original casing and punctuation. The chi-squared base score and
// any bonus signals (common words, flag-format matches) are composed by the
// caller, keeping the blend configurable.
type Scorer func(letters []byte, plaintext string) float64

// ChiSquaredScorer is the default plausibility metric: chi-squared fit of the
// whole decrypted stream against the English reference distribution.
func ChiSquaredScorer(letters []byte, _ string) float64 {
	return freq.EnglishDeviation(letters)
}

// Options configures a single analysis run.
type Options struct {
	// Key skips detection entirely and tests only this key (plus TryKeys).
	Key string
	// TryKeys are literal keys tested alongside whatever detection finds.
	TryKeys []string
	// KeyLength skips the length search and recovers at this exact length.
	KeyLength int
	// MaxKeyLength bounds the automatic length search (default 20).
	MaxKeyLength int
	// MinSeqLen and MaxSeqLen bound the Kasiski repeated-substring window
	// (defaults 3 and 5).
	MinSeqLen int
	MaxSeqLen int
	// MaxCandidates caps how many detected lengths are expanded into key
	// recoveries (default 5).
	MaxCandidates int
	// Scorer overrides the plausibility metric (default ChiSquaredScorer).
	Scorer Scorer
	// Logger receives diagnostic events. Nil disables diagnostics.
	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.MaxKeyLength < 2 {
		o.MaxKeyLength = kasiski.DefaultMaxKeyLength
	}
	if o.MinSeqLen <= 0 {
		o.MinSeqLen = kasiski.DefaultMinSeqLen
	}
	if o.MaxSeqLen <= 0 {
		o.MaxSeqLen = kasiski.DefaultMaxSeqLen
	}
	if o.MaxSeqLen < o.MinSeqLen {
		o.MaxSeqLen = o.MinSeqLen
	}
	if o.MaxCandidates <= 0 {
		o.MaxCandidates = DefaultMaxCandidates
	}
	if o.Scorer == nil {
		o.Scorer = ChiSquaredScorer
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	return o
}

// Result is one scored candidate decryption.
type Result struct {
	Key       string  `json:"key"`
	KeyLength int     `json:"key_length"`
	Plaintext string  `json:"plaintext"`
	Score     float64 `json:"score"`
	Source    string  `json:"source"`
}

// Analyze runs the full pipeline over raw ciphertext and returns every
// candidate decryption ranked best first. The order is deterministic for
// identical input and options regardless of internal parallelism.
func Analyze(raw string, opts Options) ([]Result, error) {
	opts = opts.withDefaults()

	text, err := vigenere.Normalize(raw)
	if err != nil {
		return nil, err
	}

	var results []Result

	if opts.Key == "" {
		lengths, err := candidateLengths(text, opts)
		if err != nil {
			return nil, err
		}
		recovered, err := recoverAll(text, lengths, opts)
		if err != nil {
			return nil, err
		}
		results = append(results, recovered...)
	}

	explicit := opts.TryKeys
	if opts.Key != "" {
		tested, err := testKeys(text, []string{opts.Key}, SourceExplicit, opts.Scorer)
		if err != nil {
			return nil, err
		}
		results = append(results, tested...)
	}
	if len(explicit) > 0 {
		tested, err := testKeys(text, explicit, SourceTryKeys, opts.Scorer)
		if err != nil {
			return nil, err
		}
		results = append(results, tested...)
	}

	sortResults(results)
	return results, nil
}

// TestKeys decrypts and scores the supplied literal keys without any length
// detection or recovery. Invalid keys fail the whole call so typos surface
// immediately rather than as silently missing results.
func TestKeys(raw string, keys []string, scorer Scorer) ([]Result, error) {
	text, err := vigenere.Normalize(raw)
	if err != nil {
		return nil, err
	}
	if scorer == nil {
		scorer = ChiSquaredScorer
	}
	results, err := testKeys(text, keys, SourceTryKeys, scorer)
	if err != nil {
		return nil, err
	}
	sortResults(results)
	return results, nil
}

func candidateLengths(text *vigenere.Text, opts Options) ([]int, error) {
	if opts.KeyLength != 0 {
		if opts.KeyLength < 1 || opts.KeyLength > text.Len() {
			return nil, fmt.Errorf("%w: %d (ciphertext has %d letters)", ErrInvalidKeyLength, opts.KeyLength, text.Len())
		}
		return []int{opts.KeyLength}, nil
	}

	letters := text.Letters()
	candidates := kasiski.FindKeyLengths(letters, kasiski.Options{
		MinSeqLen:    opts.MinSeqLen,
		MaxSeqLen:    opts.MaxSeqLen,
		MaxKeyLength: opts.MaxKeyLength,
	})
	if len(candidates) == 0 {
		opts.Logger.Debug("no repeated sequences, falling back to coincidence sweep")
		candidates = kasiski.SweepLengths(letters, opts.MaxKeyLength)
	}
	if len(candidates) > opts.MaxCandidates {
		candidates = candidates[:opts.MaxCandidates]
	}

	lengths := make([]int, len(candidates))
	for i, c := range candidates {
		lengths[i] = c.Length
		opts.Logger.Debug("key length candidate",
			slog.Int("length", c.Length),
			slog.Int("support", c.Support),
			slog.Float64("ic", c.IC))
	}
	return lengths, nil
}

// recoverAll expands each candidate length into a recovered key and scored
// decryption. Candidates are independent, so they are evaluated concurrently;
// results land in fixed slots and the caller re-sorts, keeping the output
// order independent of scheduling.
func recoverAll(text *vigenere.Text, lengths []int, opts Options) ([]Result, error) {
	results := make([]Result, len(lengths))
	letters := text.Letters()

	var g errgroup.Group
	for i, length := range lengths {
		g.Go(func() error {
			key := RecoverKey(letters, length)
			decrypted := vigenere.Decrypt(letters, key)
			plaintext := text.Reinterleave(decrypted)
			results[i] = Result{
				Key:       string(key),
				KeyLength: length,
				Plaintext: plaintext,
				Score:     opts.Scorer(decrypted, plaintext),
				Source:    SourceRecovered,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, r := range results {
		opts.Logger.Debug("recovered key candidate",
			slog.String("key", r.Key),
			slog.Float64("score", r.Score))
	}
	return results, nil
}

func testKeys(text *vigenere.Text, keys []string, source string, scorer Scorer) ([]Result, error) {
	results := make([]Result, 0, len(keys))
	letters := text.Letters()
	for _, raw := range keys {
		key, err := vigenere.NormalizeKey(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid key %q: %w", raw, err)
		}
		decrypted := vigenere.Decrypt(letters, key)
		plaintext := text.Reinterleave(decrypted)
		results = append(results, Result{
			Key:       string(key),
			KeyLength: len(key),
			Plaintext: plaintext,
			Score:     scorer(decrypted, plaintext),
			Source:    source,
		})
	}
	return results, nil
}

// sortResults orders candidates best first. Near-equal scores fall back to
// the key and then the source so repeated runs always agree.
func sortResults(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		if !almostEqual(results[i].Score, results[j].Score) {
			return results[i].Score < results[j].Score
		}
		if results[i].Key != results[j].Key {
			return results[i].Key < results[j].Key
		}
		return results[i].Source < results[j].Source
	})
}

func almostEqual(a, b float64) bool {
	diff := a - b
	return diff < 1e-9 && diff > -1e-9
}
