package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, log.InfoLevel)

	if logger == nil {
		t.Fatal("newLogger() returned nil")
	}

	logger.Info("test message")
	if buf.Len() == 0 {
		t.Error("logger should have written output")
	}
}

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		logFunc func(*log.Logger)
		wantLog bool
	}{
		{
			name:    "info at info level",
			level:   log.InfoLevel,
			logFunc: func(l *log.Logger) { l.Info("test") },
			wantLog: true,
		},
		{
			name:    "debug at info level",
			level:   log.InfoLevel,
			logFunc: func(l *log.Logger) { l.Debug("test") },
			wantLog: false,
		},
		{
			name:    "debug at debug level",
			level:   log.DebugLevel,
			logFunc: func(l *log.Logger) { l.Debug("test") },
			wantLog: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := newLogger(&buf, tt.level)
			tt.logFunc(logger)

			gotLog := buf.Len() > 0
			if gotLog != tt.wantLog {
				t.Errorf("got log output = %v, want %v", gotLog, tt.wantLog)
			}
		})
	}
}

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, log.InfoLevel)

	prog := newProgress(logger)
	time.Sleep(10 * time.Millisecond)
	prog.done("layout complete")

	if !bytes.Contains(buf.Bytes(), []byte("layout complete")) {
		t.Error("progress.done() output should contain message")
	}
}

func TestWithLogger(t *testing.T) {
	logger := log.Default()
	ctx := withLogger(context.Background(), logger)

	if got := loggerFromContext(ctx); got != logger {
		t.Error("loggerFromContext should return the attached logger")
	}
}

func TestLoggerFromContextDefault(t *testing.T) {
	if loggerFromContext(context.Background()) == nil {
		t.Error("loggerFromContext should fall back to the default logger")
	}
}

func TestSetVersion(t *testing.T) {
	SetVersion("1.0.0", "abc123", "2024-01-01")

	if version != "1.0.0" {
		t.Errorf("version = %q, want %q", version, "1.0.0")
	}
	if commit != "abc123" {
		t.Errorf("commit = %q, want %q", commit, "abc123")
	}
	if date != "2024-01-01" {
		t.Errorf("date = %q, want %q", date, "2024-01-01")
	}
}

func TestSpinnerWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	s := newSpinnerWithContext(ctx, "Building...")
	s.Start()
	cancel()

	// Stop must return even when the context went away first.
	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return after context cancellation")
	}
}

func TestDefaultNodesOut(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"data/edges.tsv", "data/edges.nodes.json"},
		{"edges", "edges.nodes.json"},
		{"https://example.org/dumps/edges.tsv", "edges.nodes.json"},
		{"https://example.org/dumps/edges.tsv?version=3", "edges.nodes.json"},
		{"https://example.org/", "atlas.nodes.json"},
	}
	for _, tt := range tests {
		if got := defaultNodesOut(tt.in); got != tt.want {
			t.Errorf("defaultNodesOut(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoadInputs(t *testing.T) {
	dir := t.TempDir()
	edgesPath := filepath.Join(dir, "edges.tsv")
	flagsPath := filepath.Join(dir, "coverage.tsv")
	writeFile(t, edgesPath, "parent_id\tid\tname\trank\n0\t1\troot\tno rank\n1\t2\tBacteria\tsuperkingdom\n")
	writeFile(t, flagsPath, "taxid\thas_assembly\thas_annotation\thas_reads\n2\t1\t1\t1\n")

	var buf bytes.Buffer
	logger := newLogger(&buf, log.DebugLevel)

	edges, flags, err := loadInputs(context.Background(), logger, edgesPath, flagsPath)
	if err != nil {
		t.Fatalf("loadInputs: %v", err)
	}
	if len(edges) != 2 {
		t.Errorf("edges = %d, want 2", len(edges))
	}
	if len(flags) != 1 || !flags["2"].HasAssembly {
		t.Errorf("flags = %+v", flags)
	}
}

func TestLoadInputsMissingFile(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, log.InfoLevel)
	if _, _, err := loadInputs(context.Background(), logger, filepath.Join(t.TempDir(), "nope.tsv"), ""); err == nil {
		t.Fatal("expected error for missing edge file")
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
