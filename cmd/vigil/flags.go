package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/RowanDark/vigil/internal/config"
	"github.com/RowanDark/vigil/internal/flagscan"
)

// runFlags extracts flags from an already-decrypted plaintext without
// running any cryptanalysis.
func runFlags(args []string) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return 1
	}

	fs := flag.NewFlagSet("flags", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	file := fs.String("file", "", "read plaintext from this file instead of the argument")
	flagFormat := fs.String("flag-format", cfg.FlagPattern, "flag format (regex)")
	caseSensitive := fs.Bool("case-sensitive", false, "match the flag format case-sensitively")
	out := fs.String("out", "", "append flag findings to this JSONL path")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	var plaintext string
	switch {
	case strings.TrimSpace(*file) != "":
		if fs.NArg() > 0 {
			fmt.Fprintln(os.Stderr, "provide plaintext via --file or an argument, not both")
			return 2
		}
		data, err := os.ReadFile(*file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "read plaintext: %v\n", err)
			return 1
		}
		plaintext = string(data)
	case fs.NArg() == 1:
		plaintext = fs.Arg(0)
	case fs.NArg() == 0:
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "read stdin: %v\n", err)
			return 1
		}
		plaintext = string(data)
	default:
		fmt.Fprintln(os.Stderr, "at most one plaintext argument is accepted")
		return 2
	}

	scanCfg := flagscan.Config{Pattern: *flagFormat, CaseSensitive: *caseSensitive}
	found, err := flagscan.Scan("", plaintext, scanCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "scan flags: %v\n", err)
		return 2
	}
	if len(found) == 0 {
		fmt.Fprintln(os.Stdout, "no flags found")
		return 0
	}

	fmt.Fprintln(os.Stdout, "[+] Found flags:")
	for _, f := range found {
		fmt.Fprintf(os.Stdout, "    %s\n", f.Evidence)
	}

	if strings.TrimSpace(*out) != "" {
		if err := persistFindings(*out, found); err != nil {
			fmt.Fprintf(os.Stderr, "persist findings: %v\n", err)
			return 1
		}
		fmt.Fprintf(os.Stdout, "[*] Recorded %d flag finding(s) to %s\n", len(found), *out)
	}
	return 0
}
