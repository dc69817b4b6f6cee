// Command vigil cracks Vigenere-family ciphertexts: key-length detection via
// Kasiski examination, per-column key recovery, candidate ranking, and flag
// extraction from the decrypted text.
package main

import (
	"flag"
	"fmt"
	"os"
)

const productName = "vigil"
const cliBanner = productName + " CLI (Vigenere key recovery)"

func init() {
	defaultUsage := flag.Usage
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), cliBanner)
		fmt.Fprintln(flag.CommandLine.Output())
		if defaultUsage != nil {
			defaultUsage()
		}
	}
}

func main() {
	flag.Parse()
	if maybePrintVersion() {
		return
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	switch args[0] {
	case "crack":
		os.Exit(runCrack(args[1:]))
	case "decrypt":
		os.Exit(runDecrypt(args[1:]))
	case "flags":
		os.Exit(runFlags(args[1:]))
	case "version":
		os.Exit(runVersion(args[1:]))
	case "self-update":
		os.Exit(runSelfUpdate(args[1:]))
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		flag.Usage()
		os.Exit(2)
	}
}
