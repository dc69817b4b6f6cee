package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/RowanDark/vigil/internal/vigenere"
)

func runDecrypt(args []string) int {
	fs := flag.NewFlagSet("decrypt", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	file := fs.String("file", "", "read ciphertext from this file instead of the argument")
	key := fs.String("key", "", "decryption key (required)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if strings.TrimSpace(*key) == "" {
		fmt.Fprintln(os.Stderr, "--key is required")
		return 2
	}

	ciphertext, code := readCiphertext(fs, *file)
	if code != 0 {
		return code
	}

	normalizedKey, err := vigenere.NormalizeKey(*key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid key: %v\n", err)
		return 2
	}
	text, err := vigenere.Normalize(ciphertext)
	if err != nil {
		fmt.Fprintf(os.Stderr, "normalize ciphertext: %v\n", err)
		return 1
	}
	fmt.Fprintln(os.Stdout, text.DecryptWith(normalizedKey))
	return 0
}
