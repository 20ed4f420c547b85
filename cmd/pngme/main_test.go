package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pngme.adpollak.net/internal/chunk"
	"pngme.adpollak.net/internal/png"
)

// writeTestPng writes a small datastream with an IHDR-like chunk and IEND.
func writeTestPng(t *testing.T) string {
	t.Helper()
	p := png.New(
		chunk.New(chunk.ChunkIHDR, make([]byte, 13)),
		chunk.New(chunk.ChunkIEND, nil),
	)
	path := filepath.Join(t.TempDir(), "image.png")
	if err := os.WriteFile(path, p.Bytes(), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code := run(args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestEncodeDecodeRemove(t *testing.T) {
	path := writeTestPng(t)

	if code, _, errOut := runCLI(t, "encode", "--path", path, "--message", "hello"); code != 0 {
		t.Fatalf("encode exit %d: %s", code, errOut)
	}

	code, out, errOut := runCLI(t, "decode", "-p", path)
	if code != 0 {
		t.Fatalf("decode exit %d: %s", code, errOut)
	}
	if out != "hello\n" {
		t.Fatalf("decode printed %q, want hello", out)
	}

	if code, _, errOut := runCLI(t, "remove", "--path", path); code != 0 {
		t.Fatalf("remove exit %d: %s", code, errOut)
	}
	code, _, errOut = runCLI(t, "decode", "--path", path)
	if code != 1 {
		t.Fatalf("decode after remove exit %d, want 1", code)
	}
	if !strings.Contains(errOut, "not found") {
		t.Fatalf("stderr = %q, want a not found message", errOut)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	p, err := png.Parse(b)
	if err != nil {
		t.Fatalf("file no longer parses: %v", err)
	}
	if len(p.Chunks()) != 2 {
		t.Fatalf("%d chunks after remove, want 2", len(p.Chunks()))
	}
}

func TestEncodeCustomTypeAndOutput(t *testing.T) {
	path := writeTestPng(t)
	output := filepath.Join(filepath.Dir(path), "out.png")

	code, _, errOut := runCLI(t, "encode", "-p", path, "-c", "seCr", "-m", "secret", "-o", output)
	if code != 0 {
		t.Fatalf("encode exit %d: %s", code, errOut)
	}

	original, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if p, _ := png.Parse(original); len(p.Chunks()) != 2 {
		t.Fatal("encode with --output modified the input file")
	}

	code, out, errOut := runCLI(t, "decode", "-p", output, "-c", "seCr")
	if code != 0 || out != "secret\n" {
		t.Fatalf("decode exit %d, out %q, err %q", code, out, errOut)
	}
}

func TestEncodeKeepsFileMode(t *testing.T) {
	path := writeTestPng(t)
	if code, _, errOut := runCLI(t, "encode", "-p", path, "-m", "x"); code != 0 {
		t.Fatalf("encode exit %d: %s", code, errOut)
	}
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if fi.Mode().Perm() != 0o600 {
		t.Fatalf("mode = %v, want 0600", fi.Mode().Perm())
	}
}

func TestEncodeRejectsInvalidType(t *testing.T) {
	path := writeTestPng(t)
	for _, typ := range []string{"ru1t", "rust", "toolong"} {
		code, _, errOut := runCLI(t, "encode", "-p", path, "-c", typ, "-m", "x")
		if code != 1 {
			t.Fatalf("encode -c %s exit %d, want 1", typ, code)
		}
		if !strings.Contains(errOut, "invalid chunk type") {
			t.Fatalf("stderr = %q", errOut)
		}
	}
}

func TestPrint(t *testing.T) {
	path := writeTestPng(t)
	if code, _, errOut := runCLI(t, "encode", "-p", path, "-m", "hello"); code != 0 {
		t.Fatalf("encode exit %d: %s", code, errOut)
	}

	code, out, errOut := runCLI(t, "print", "-p", path)
	if code != 0 {
		t.Fatalf("print exit %d: %s", code, errOut)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 {
		t.Fatalf("print output has %d lines, want 4:\n%s", len(lines), out)
	}
	for i, want := range []string{"IHDR", "IEND", "ruSt"} {
		if !strings.Contains(lines[i+1], want) {
			t.Errorf("line %d = %q, want %s", i+1, lines[i+1], want)
		}
	}
	if !strings.Contains(lines[3], "ancillary,private,safe-to-copy") || !strings.Contains(lines[3], "custom") {
		t.Errorf("ruSt line = %q", lines[3])
	}
	if !strings.Contains(lines[1], "critical,public,unsafe-to-copy") || !strings.Contains(lines[1], "standard") {
		t.Errorf("IHDR line = %q", lines[1])
	}
}

func TestCorruptFile(t *testing.T) {
	path := writeTestPng(t)
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	b[len(b)-1] ^= 0xff
	if err := os.WriteFile(path, b, 0o600); err != nil {
		t.Fatal(err)
	}

	code, _, errOut := runCLI(t, "encode", "-p", path, "-m", "x")
	if code != 1 || !strings.Contains(errOut, "checksum mismatch") {
		t.Fatalf("exit %d, stderr %q", code, errOut)
	}
	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(after, b) {
		t.Fatal("failed encode modified the file")
	}
}

func TestNotPng(t *testing.T) {
	path := filepath.Join(t.TempDir(), "text.txt")
	if err := os.WriteFile(path, []byte("not a png at all"), 0o600); err != nil {
		t.Fatal(err)
	}
	code, _, errOut := runCLI(t, "print", "-p", path)
	if code != 1 || !strings.Contains(errOut, "signature mismatch") {
		t.Fatalf("exit %d, stderr %q", code, errOut)
	}
}

func TestUsage(t *testing.T) {
	if code, _, _ := runCLI(t); code != 2 {
		t.Fatalf("no args exit %d, want 2", code)
	}
	if code, _, _ := runCLI(t, "bogus"); code != 2 {
		t.Fatalf("unknown command exit %d, want 2", code)
	}
	if code, _, _ := runCLI(t, "decode"); code != 2 {
		t.Fatalf("missing --path exit %d, want 2", code)
	}
	code, out, _ := runCLI(t, "help")
	if code != 0 || !strings.Contains(out, "pngme encode") {
		t.Fatalf("help exit %d, out %q", code, out)
	}
}

func TestVerbose(t *testing.T) {
	path := writeTestPng(t)
	code, _, errOut := runCLI(t, "print", "-p", path, "-v")
	if code != 0 {
		t.Fatalf("print exit %d: %s", code, errOut)
	}
	if !strings.Contains(errOut, "pngme: read") {
		t.Fatalf("stderr = %q, want progress log", errOut)
	}
}
