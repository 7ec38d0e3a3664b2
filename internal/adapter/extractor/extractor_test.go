package extractor

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dmaynor/bandicoot/internal/domain"
)

func newTestExtractor(t *testing.T, verbose bool) *Extractor {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ex, err := New(DefaultRules(), verbose, logger)
	if err != nil {
		t.Fatalf("failed to build extractor: %v", err)
	}
	return ex
}

func writeReport(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "report.crash")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write report: %v", err)
	}
	return path
}

func TestExtract(t *testing.T) {
	ex := newTestExtractor(t, false)

	t.Run("Well-Formed Report", func(t *testing.T) {
		content := "Process: Finder\n" +
			"Date/Time: 2024-01-01 10:00:00\n" +
			"Exception Type: EXC_BAD_ACCESS (SIGSEGV)\n" +
			"Termination Reason: Namespace SIGNAL, Code 11\n"
		rec := ex.Extract(writeReport(t, content))

		if rec.CrashTime != "2024-01-01 10:00:00" {
			t.Errorf("crash time: got %q", rec.CrashTime)
		}
		if rec.ProcessName != "Finder" {
			t.Errorf("process name: got %q", rec.ProcessName)
		}
		if rec.ExceptionType != "EXC_BAD_ACCESS (SIGSEGV)" {
			t.Errorf("exception type: got %q", rec.ExceptionType)
		}
		if rec.TerminationReason != "Namespace SIGNAL, Code 11" {
			t.Errorf("termination reason: got %q", rec.TerminationReason)
		}
		if rec.LogContent != content {
			t.Error("expected raw text captured verbatim")
		}
	})

	t.Run("Missing Labels Stay Unknown", func(t *testing.T) {
		rec := ex.Extract(writeReport(t, "Date/Time: 2024-01-01 10:00:00\nProcess: Finder\n"))

		if rec.CrashTime != "2024-01-01 10:00:00" {
			t.Errorf("crash time: got %q", rec.CrashTime)
		}
		if rec.ProcessName != "Finder" {
			t.Errorf("process name: got %q", rec.ProcessName)
		}
		if rec.ExceptionType != domain.ValueUnknown {
			t.Errorf("exception type: got %q, want %q", rec.ExceptionType, domain.ValueUnknown)
		}
		if rec.TerminationReason != domain.ValueUnknown {
			t.Errorf("termination reason: got %q, want %q", rec.TerminationReason, domain.ValueUnknown)
		}
	})

	t.Run("Label Synonyms", func(t *testing.T) {
		content := "Timestamp: 2024-06-15T08:30:00Z\n" +
			"Executable: kerneltask\n" +
			"Fault Type: KERN_PROTECTION_FAILURE\n" +
			"Cause: watchdog timeout\n"
		rec := ex.Extract(writeReport(t, content))

		if rec.CrashTime != "2024-06-15T08:30:00Z" {
			t.Errorf("crash time: got %q", rec.CrashTime)
		}
		if rec.ProcessName != "kerneltask" {
			t.Errorf("process name: got %q", rec.ProcessName)
		}
		if rec.ExceptionType != "KERN_PROTECTION_FAILURE" {
			t.Errorf("exception type: got %q", rec.ExceptionType)
		}
		if rec.TerminationReason != "watchdog timeout" {
			t.Errorf("termination reason: got %q", rec.TerminationReason)
		}
	})

	t.Run("First Match Wins Per Field", func(t *testing.T) {
		content := "Process: first\n" +
			"Process: second\n" +
			"Application: third\n"
		rec := ex.Extract(writeReport(t, content))

		if rec.ProcessName != "first" {
			t.Errorf("expected first match to win, got %q", rec.ProcessName)
		}
	})

	t.Run("Label Must Be Anchored At Line Start", func(t *testing.T) {
		content := "Parent Process: launchd\n" +
			"Process Path: /bin/ls\n"
		rec := ex.Extract(writeReport(t, content))

		if rec.ProcessName != domain.ValueUnknown {
			t.Errorf("expected no match for indented or prefixed labels, got %q", rec.ProcessName)
		}
	})

	t.Run("Blank Value Does Not Latch The Field", func(t *testing.T) {
		content := "Process:   \n" +
			"Process: Finder\n"
		rec := ex.Extract(writeReport(t, content))

		if rec.ProcessName != "Finder" {
			t.Errorf("expected the later non-empty value, got %q", rec.ProcessName)
		}
	})

	t.Run("Blank Value With No Later Match Stays Unknown", func(t *testing.T) {
		rec := ex.Extract(writeReport(t, "Process:   \n"))

		if rec.ProcessName != domain.ValueUnknown {
			t.Errorf("process name: got %q, want %q", rec.ProcessName, domain.ValueUnknown)
		}
	})

	t.Run("Varying Whitespace After Colon", func(t *testing.T) {
		rec := ex.Extract(writeReport(t, "Process:     Safari\n"))

		if rec.ProcessName != "Safari" {
			t.Errorf("process name: got %q", rec.ProcessName)
		}
	})

	t.Run("Empty File", func(t *testing.T) {
		rec := ex.Extract(writeReport(t, ""))

		for _, got := range []string{rec.CrashTime, rec.ProcessName, rec.ExceptionType, rec.TerminationReason} {
			if got != domain.ValueUnknown {
				t.Errorf("expected %q for all fields, got %q", domain.ValueUnknown, got)
			}
		}
	})

	t.Run("Invalid UTF-8 Dropped Not Fatal", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "binary.crash")
		content := append([]byte("Process: Mail\n\xff\xfe"), []byte("Date/Time: 2024-02-02 12:00:00\n")...)
		if err := os.WriteFile(path, content, 0o600); err != nil {
			t.Fatalf("failed to write report: %v", err)
		}

		rec := ex.Extract(path)
		if rec.ProcessName != "Mail" {
			t.Errorf("process name: got %q", rec.ProcessName)
		}
		if rec.CrashTime != "2024-02-02 12:00:00" {
			t.Errorf("crash time: got %q", rec.CrashTime)
		}
		if strings.ContainsRune(rec.LogContent, '�') || strings.Contains(rec.LogContent, "\xff") {
			t.Error("expected undecodable bytes to be dropped from log content")
		}
	})

	t.Run("Unreadable File Returns Error Record", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing.crash")
		rec := ex.Extract(path)

		if rec.CrashTime != domain.ValueError {
			t.Errorf("crash time: got %q, want %q", rec.CrashTime, domain.ValueError)
		}
		if rec.ProcessName != domain.ValueError {
			t.Errorf("process name: got %q, want %q", rec.ProcessName, domain.ValueError)
		}
		if rec.TerminationReason != domain.ValueError {
			t.Errorf("termination reason: got %q, want %q", rec.TerminationReason, domain.ValueError)
		}
		if rec.ExceptionType == "" || rec.ExceptionType == domain.ValueUnknown {
			t.Errorf("expected exception type to carry the read error, got %q", rec.ExceptionType)
		}
		if rec.FilePath != path {
			t.Errorf("file path: got %q, want %q", rec.FilePath, path)
		}
	})

	t.Run("Verbose Mode Does Not Change Results", func(t *testing.T) {
		content := "Date/Time: 2024-03-03 03:03:03\nProcess: Dock\n"
		quiet := ex.Extract(writeReport(t, content))
		loud := newTestExtractor(t, true).Extract(writeReport(t, content))

		if quiet.CrashTime != loud.CrashTime || quiet.ProcessName != loud.ProcessName {
			t.Errorf("verbose extraction diverged: %+v vs %+v", quiet, loud)
		}
	})
}
