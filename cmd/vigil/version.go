package main

import (
	"flag"
	"fmt"
	"os"
)

// version is injected at build time via -ldflags.
var version = "dev"

var showVersion = flag.Bool("version", false, "Print vigil version and exit")

func versionString() string {
	return fmt.Sprintf("%s %s", productName, version)
}

// maybePrintVersion writes the embedded version string to stdout when the
// global --version flag is provided. It returns true when the flag was
// handled so that callers can exit early without executing subcommands.
func maybePrintVersion() bool {
	if !*showVersion {
		return false
	}
	fmt.Println(version)
	return true
}

func runVersion(args []string) int {
	fs := flag.NewFlagSet("version", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() > 0 {
		fmt.Fprintln(os.Stderr, "version takes no arguments")
		return 2
	}
	fmt.Println(versionString())
	return 0
}
