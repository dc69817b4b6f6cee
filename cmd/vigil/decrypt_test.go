package main

import (
	"strings"
	"testing"
)

func TestRunDecrypt(t *testing.T) {
	read := captureOutput(t)
	code := runDecrypt([]string{"--key", "lemon", "Lxfop! vefr nhr?"})
	out := read()
	if code != 0 {
		t.Fatalf("runDecrypt exited with %d: %s", code, out)
	}
	if strings.TrimSpace(out) != "Attac! katd awn?" {
		t.Fatalf("unexpected plaintext %q", out)
	}
}

func TestRunDecryptRequiresKey(t *testing.T) {
	if code := runDecrypt([]string{"Lxfopvefrnhr"}); code != 2 {
		t.Fatalf("expected exit code 2, got %d", code)
	}
}

func TestRunDecryptRejectsBadKey(t *testing.T) {
	if code := runDecrypt([]string{"--key", "LEM0N", "Lxfopvefrnhr"}); code != 2 {
		t.Fatalf("expected exit code 2, got %d", code)
	}
}

func TestRunDecryptRejectsEmptyCiphertext(t *testing.T) {
	if code := runDecrypt([]string{"--key", "lemon", "123 456!"}); code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
}
