package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/RowanDark/vigil/internal/config"
	"github.com/RowanDark/vigil/internal/cracker"
	"github.com/RowanDark/vigil/internal/exporter"
	"github.com/RowanDark/vigil/internal/findings"
	"github.com/RowanDark/vigil/internal/flagscan"
	"github.com/RowanDark/vigil/internal/freq"
)

const excerptLen = 200

// Bonus weights subtracted from the chi-squared base score. Common-word
// weight follows the classic scoring heuristic; a flag-format match is a far
// stronger plausibility signal, so it outweighs both.
const (
	wordBonus = 5.0
	flagBonus = 50.0
)

func runCrack(args []string) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return 1
	}

	fs := flag.NewFlagSet("crack", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	file := fs.String("file", "", "read ciphertext from this file instead of the argument")
	key := fs.String("key", "", "known key; skips detection and decrypts directly")
	tryKeys := fs.String("try-keys", "", "comma separated keys to test alongside detection")
	keyLength := fs.Int("key-length", 0, "known key length; skips the length search")
	maxKeyLength := fs.Int("max-key-length", cfg.MaxKeyLength, "upper bound for the key length search")
	flagFormat := fs.String("flag-format", cfg.FlagPattern, "flag format (regex)")
	top := fs.Int("top", cfg.TopResults, "number of ranked candidates to display")
	out := fs.String("out", "", "persist ranked results to this path")
	formatRaw := fs.String("format", string(exporter.FormatJSONL), "export format (jsonl, csv)")
	quiet := fs.Bool("quiet", cfg.Quiet, "print only the best decryption")
	verbose := fs.Bool("verbose", false, "log analysis diagnostics to stderr")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	ciphertext, code := readCiphertext(fs, *file)
	if code != 0 {
		return code
	}

	scanCfg := flagscan.Config{Pattern: *flagFormat}
	flagRe, err := scanCfg.Compile()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid flag format: %v\n", err)
		return 2
	}

	var logger *slog.Logger
	if *verbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	opts := cracker.Options{
		Key:          *key,
		KeyLength:    *keyLength,
		MaxKeyLength: *maxKeyLength,
		MinSeqLen:    cfg.MinSeqLen,
		MaxSeqLen:    cfg.MaxSeqLen,
		Scorer:       composedScorer(flagRe),
		Logger:       logger,
	}
	if trimmed := strings.TrimSpace(*tryKeys); trimmed != "" {
		for _, k := range strings.Split(trimmed, ",") {
			if k = strings.TrimSpace(k); k != "" {
				opts.TryKeys = append(opts.TryKeys, k)
			}
		}
	}

	if !*quiet {
		fmt.Fprintf(os.Stdout, "[*] Read ciphertext (%d characters)\n", len(ciphertext))
	}

	results, err := cracker.Analyze(ciphertext, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "analyze: %v\n", err)
		return 1
	}
	if len(results) == 0 {
		fmt.Fprintln(os.Stderr, "no candidate keys found")
		return 1
	}

	shown := results
	if *top > 0 && len(shown) > *top {
		shown = shown[:*top]
	}

	// Flags are extracted from every candidate, not just the displayed ones;
	// --top caps the report, not the scan.
	var flagged []findings.Finding
	for _, res := range results {
		found, err := flagscan.Scan(res.Key, res.Plaintext, scanCfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "scan flags: %v\n", err)
			return 1
		}
		flagged = append(flagged, found...)
	}

	if *quiet {
		fmt.Fprintln(os.Stdout, shown[0].Plaintext)
	} else {
		printResults(os.Stdout, shown, flagged)
	}

	if len(flagged) > 0 {
		path := filepath.Join(cfg.OutputDir, "flags.jsonl")
		if err := persistFindings(path, flagged); err != nil {
			fmt.Fprintf(os.Stderr, "persist findings: %v\n", err)
			return 1
		}
		if !*quiet {
			fmt.Fprintf(os.Stdout, "[*] Recorded %d flag finding(s) to %s\n", len(flagged), path)
		}
	}

	if strings.TrimSpace(*out) != "" {
		format, err := exporter.ParseFormat(*formatRaw)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		data, err := exporter.Encode(format, exporter.Request{Results: shown, Findings: flagged})
		if err != nil {
			fmt.Fprintf(os.Stderr, "encode results: %v\n", err)
			return 1
		}
		if err := exporter.Write(*out, data); err != nil {
			fmt.Fprintf(os.Stderr, "write results: %v\n", err)
			return 1
		}
		if !*quiet {
			fmt.Fprintf(os.Stdout, "[*] Wrote %d result(s) to %s\n", len(shown), *out)
		}
	}
	return 0
}

// composedScorer blends the chi-squared deviation with common-word and
// flag-format bonuses. Lower stays better.
func composedScorer(flagRe *regexp.Regexp) cracker.Scorer {
	return func(letters []byte, plaintext string) float64 {
		score := freq.EnglishDeviation(letters)
		score -= wordBonus * float64(freq.CommonWordHits(letters))
		if flagRe != nil {
			score -= flagBonus * float64(flagscan.CountMatches(plaintext, flagRe))
		}
		return score
	}
}

// readCiphertext resolves the input in priority order: --file, a single
// positional argument, then stdin. The second return value is an exit code;
// zero means success.
func readCiphertext(fs *flag.FlagSet, file string) (string, int) {
	if strings.TrimSpace(file) != "" {
		if fs.NArg() > 0 {
			fmt.Fprintln(os.Stderr, "provide ciphertext via --file or an argument, not both")
			return "", 2
		}
		data, err := os.ReadFile(file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "read ciphertext: %v\n", err)
			return "", 1
		}
		return string(data), 0
	}
	switch fs.NArg() {
	case 0:
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "read stdin: %v\n", err)
			return "", 1
		}
		return string(data), 0
	case 1:
		return fs.Arg(0), 0
	default:
		fmt.Fprintln(os.Stderr, "at most one ciphertext argument is accepted")
		return "", 2
	}
}

func printResults(w io.Writer, results []cracker.Result, flagged []findings.Finding) {
	for _, res := range results {
		fmt.Fprintf(w, "[+] Decrypted with key %s (length %d, %s, score %.4f):\n", res.Key, res.KeyLength, res.Source, res.Score)
		fmt.Fprintf(w, "%s\n\n", excerpt(res.Plaintext))
	}
	if len(flagged) == 0 {
		return
	}
	fmt.Fprintln(w, "[+] Found flags:")
	for _, f := range flagged {
		fmt.Fprintf(w, "    %s (key %s)\n", f.Evidence, f.Key)
	}
}

func excerpt(text string) string {
	if len(text) <= excerptLen {
		return text
	}
	return text[:excerptLen] + "..."
}

func persistFindings(path string, list []findings.Finding) error {
	w := findings.NewWriter(path)
	for _, f := range list {
		if err := w.Write(f); err != nil {
			w.Close()
			return err
		}
	}
	return w.Close()
}
