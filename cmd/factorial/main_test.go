package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestRunPrintsFactorials(t *testing.T) {
	dump := filepath.Join(t.TempDir(), "factorial.bin")

	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	os.Stdout = w

	runErr := run(context.Background(), 0, 5, dump)

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	buf.ReadFrom(r)

	if runErr != nil {
		t.Fatalf("run: %v", runErr)
	}

	want := "0! = 1\n1! = 1\n2! = 2\n3! = 6\n4! = 24\n5! = 120\n"
	if got := buf.String(); got != want {
		t.Fatalf("output = %q, want %q", got, want)
	}

	if _, err := os.Stat(dump); err != nil {
		t.Fatalf("--dump did not create a file: %v", err)
	}
}

func TestRunRejectsInvertedRange(t *testing.T) {
	if err := run(context.Background(), 5, 0, ""); err == nil {
		t.Fatal("expected an error for from > to")
	}
}
