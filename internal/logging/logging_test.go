package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestHandlerRoutesByLevel(t *testing.T) {
	var out, errOut bytes.Buffer
	logger := slog.New(NewHandler(&out, &errOut, slog.LevelInfo))

	logger.Debug("hidden")
	logger.Info("item added", "name", "NM001")
	logger.Warn("deviceid column missing")
	logger.Error("query failed")

	if strings.Contains(out.String(), "hidden") || strings.Contains(errOut.String(), "hidden") {
		t.Error("debug record should be filtered at info level")
	}
	if !strings.Contains(out.String(), "item added") || !strings.Contains(out.String(), "name=NM001") {
		t.Errorf("expected info record on out, got %q", out.String())
	}
	if !strings.Contains(out.String(), "deviceid column missing") {
		t.Errorf("expected warn record on out, got %q", out.String())
	}
	if strings.Contains(out.String(), "query failed") {
		t.Error("error record should not go to out")
	}
	if !strings.Contains(errOut.String(), "query failed") {
		t.Errorf("expected error record on errOut, got %q", errOut.String())
	}
}

func TestHandlerWithAttrs(t *testing.T) {
	var out, errOut bytes.Buffer
	logger := slog.New(NewHandler(&out, &errOut, slog.LevelDebug)).With("component", "proxy")

	logger.Debug("query")
	logger.Error("boom")

	if !strings.Contains(out.String(), "component=proxy") {
		t.Errorf("expected attrs on out, got %q", out.String())
	}
	if !strings.Contains(errOut.String(), "component=proxy") {
		t.Errorf("expected attrs on errOut, got %q", errOut.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		" warn ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestSetupLogFile(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	path := filepath.Join(t.TempDir(), "magazyn.log")
	cleanup, err := Setup(path, slog.LevelInfo)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}

	slog.Info("written to file")
	cleanup()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "written to file") {
		t.Errorf("expected log file to contain record, got %q", data)
	}
}

func TestSetupBadPath(t *testing.T) {
	_, err := Setup(filepath.Join(t.TempDir(), "missing", "magazyn.log"), slog.LevelInfo)
	if err == nil {
		t.Error("expected error for unwritable log path")
	}
}
