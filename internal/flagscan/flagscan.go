// Package flagscan extracts CTF flags from candidate decryptions. It matches
// a configurable flag-format pattern and additionally hunts for prose markers
// such as "FLAG IS" whose trailing context often contains a flag that the
// format pattern missed.
package flagscan

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/RowanDark/vigil/internal/findings"
)

// DefaultPattern is the flag format assumed when the caller supplies none.
const DefaultPattern = `flag\{.*?\}`

// markerContextLen bounds how much text after a prose marker is captured.
const markerContextLen = 100

// flagMarkers are prose fragments that commonly introduce a flag value.
var flagMarkers = []string{
	"THE FLAG IS",
	"THE FLAG:",
	"FLAG IS",
	"FLAG:",
	"FLAG =",
}

// Config controls how plaintext is scanned for flags.
type Config struct {
	// Pattern is the flag-format regular expression (default DefaultPattern).
	Pattern string
	// CaseSensitive disables the default case-insensitive pattern matching.
	CaseSensitive bool
	// Now overrides the clock used for finding timestamps.
	Now func() time.Time
}

// Compile resolves the configured pattern into a matcher usable for both
// scanning and score bonuses.
func (c Config) Compile() (*regexp.Regexp, error) {
	pattern := strings.TrimSpace(c.Pattern)
	if pattern == "" {
		pattern = DefaultPattern
	}
	if !c.CaseSensitive {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile flag pattern %q: %w", c.Pattern, err)
	}
	return re, nil
}

// Scan analyses a decryption and returns structured findings for every flag
// match and marker context, deduplicated and in deterministic order. key
// names the candidate key that produced the plaintext and is carried on each
// finding for reporting.
func Scan(key, plaintext string, cfg Config) ([]findings.Finding, error) {
	re, err := cfg.Compile()
	if err != nil {
		return nil, err
	}
	nowFn := cfg.Now
	if nowFn == nil {
		nowFn = time.Now
	}

	type detection struct {
		match    string
		kind     string
		message  string
		severity findings.Severity
	}

	var detections []detection
	seen := make(map[string]struct{})
	add := func(match, kind, message string, severity findings.Severity) {
		match = strings.TrimSpace(match)
		if match == "" {
			return
		}
		dedupe := kind + "|" + strings.ToLower(match)
		if _, ok := seen[dedupe]; ok {
			return
		}
		seen[dedupe] = struct{}{}
		detections = append(detections, detection{match: match, kind: kind, message: message, severity: severity})
	}

	for _, match := range re.FindAllString(plaintext, -1) {
		add(match, "flagscan.flag_match", "Flag format matched in decrypted text", findings.SeverityHigh)
	}

	// ASCII-only upper-casing keeps byte offsets aligned with plaintext;
	// strings.ToUpper can change the byte length of non-ASCII runes.
	upper := asciiUpper(plaintext)
	for _, marker := range flagMarkers {
		from := 0
		for {
			idx := strings.Index(upper[from:], marker)
			if idx < 0 {
				break
			}
			start := from + idx
			end := start + len(marker) + markerContextLen
			if end > len(plaintext) {
				end = len(plaintext)
			}
			add(plaintext[start:end], "flagscan.flag_context", "Flag marker found in decrypted text", findings.SeverityMedium)
			from = start + len(marker)
		}
	}

	sort.SliceStable(detections, func(i, j int) bool {
		if detections[i].kind != detections[j].kind {
			return detections[i].kind < detections[j].kind
		}
		return detections[i].match < detections[j].match
	})

	out := make([]findings.Finding, 0, len(detections))
	for _, det := range detections {
		out = append(out, findings.Finding{
			Version:    findings.SchemaVersion,
			ID:         findings.NewID(),
			Source:     "flagscan",
			Type:       det.kind,
			Message:    det.message,
			Key:        key,
			Evidence:   det.match,
			Severity:   det.severity,
			DetectedAt: findings.NewTimestamp(nowFn()),
			Metadata: map[string]string{
				"match_length": fmt.Sprintf("%d", len(det.match)),
			},
		})
	}
	return out, nil
}

// asciiUpper upper-cases ASCII letters only, leaving every other byte
// untouched so the result has the same length and offsets as the input.
func asciiUpper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}

// CountMatches reports how many times the compiled pattern matches the
// plaintext. Rankers use it as a score bonus signal without paying for full
// finding construction.
func CountMatches(plaintext string, re *regexp.Regexp) int {
	return len(re.FindAllString(plaintext, -1))
}
