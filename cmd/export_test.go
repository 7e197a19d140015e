package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func Test_defaultExportFilename(t *testing.T) {
	plain := defaultExportFilename(false)
	if !strings.HasPrefix(plain, "sanatreeni-backup-") || !strings.HasSuffix(plain, ".json") {
		t.Fatalf("unexpected filename: %q", plain)
	}
	gz := defaultExportFilename(true)
	if !strings.HasSuffix(gz, ".json.gz") {
		t.Fatalf("unexpected gzip filename: %q", gz)
	}
}

func Test_cliProgress_throttlesOutput(t *testing.T) {
	var buf bytes.Buffer
	progress := newCLIProgress(&buf)

	progress.Start(1000)
	for i := 0; i < 1000; i++ {
		progress.Increment(1)
	}
	progress.Finish()

	if lines := strings.Count(buf.String(), "\n"); lines > 25 {
		t.Fatalf("expected throttled output, got %d lines", lines)
	}
	if !strings.Contains(buf.String(), "Viety 1000/1000") {
		t.Fatalf("expected final count in output: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "Vienti käsitelty: 1000 sanaa") {
		t.Fatalf("expected finish line: %q", buf.String())
	}
}

func Test_cliProgress_emptyStore(t *testing.T) {
	var buf bytes.Buffer
	progress := newCLIProgress(&buf)

	progress.Start(0)
	progress.Finish()

	if !strings.Contains(buf.String(), "Viedään 0 sanan tiedot") {
		t.Fatalf("expected start line: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "Vienti käsitelty: 0 sanaa") {
		t.Fatalf("expected finish line: %q", buf.String())
	}
}
