package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/xmlmerge/internal/config"
	"github.com/nao1215/xmlmerge/internal/database"
	"github.com/nao1215/xmlmerge/internal/model"
)

// TestNewHistoryCmd tests the history command creation.
func TestNewHistoryCmd(t *testing.T) {
	t.Parallel()

	cmd := NewHistoryCmd()

	if cmd.Use != "history" {
		t.Errorf("expected use 'history', got %q", cmd.Use)
	}

	flag := cmd.Flags().Lookup("limit")
	if flag == nil {
		t.Fatal("expected limit flag")
	}
	if flag.Shorthand != "l" || flag.DefValue != "20" {
		t.Errorf("unexpected limit flag: shorthand %q, default %q", flag.Shorthand, flag.DefValue)
	}
	for _, name := range []string{"id", "db-dir", "json", "markdown"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("expected %s flag", name)
		}
	}
}

// seedHistory stores reports in a new history database and returns its directory.
func seedHistory(t *testing.T, reports ...*model.RunReport) string {
	t.Helper()

	dir := t.TempDir()
	db, err := database.Open(dir, database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	for _, r := range reports {
		if _, err := db.SaveRun(context.Background(), r); err != nil {
			t.Fatalf("failed to save run: %v", err)
		}
	}
	return dir
}

// publishedReport returns a completed run over one valid source.
func publishedReport() *model.RunReport {
	r := model.NewRunReport([]string{"https://example.com/a.xml", "https://example.com/b.xml"})
	r.Sources[0].Valid = true
	r.Sources[0].ProductCount = 3
	r.ProductCount = 3
	r.ProductNames = []string{"Shirt", "Hat", "Shoe"}
	r.Publish = &model.PublishResult{
		Kind:     "ftp",
		Location: "ftp://ftp.example.com/public_html/tumurunler2.xml",
		Filename: "tumurunler2.xml",
		Bytes:    256,
	}
	r.FinishedAt = r.StartedAt
	return r
}

// runHistory executes the history command with args.
func runHistory(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := NewHistoryCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// TestRunHistoryCmd tests listing and showing recorded runs.
func TestRunHistoryCmd(t *testing.T) {
	t.Parallel()

	t.Run("lists recorded runs", func(t *testing.T) {
		t.Parallel()
		dir := seedHistory(t, publishedReport())

		out, err := runHistory(t, "--db-dir", dir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, want := range []string{"Run history (1 runs)", "published", "1/2", "ftp://ftp.example.com/public_html/tumurunler2.xml"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, out)
			}
		}
	})

	t.Run("lists runs as JSON", func(t *testing.T) {
		t.Parallel()
		dir := seedHistory(t, publishedReport(), publishedReport())

		out, err := runHistory(t, "--db-dir", dir, "--json", "--limit", "1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var runs []database.RunRecord
		if err := json.Unmarshal([]byte(out), &runs); err != nil {
			t.Fatalf("expected JSON list: %v\n%s", err, out)
		}
		if len(runs) != 1 {
			t.Errorf("expected limit to apply, got %d runs", len(runs))
		}
	})

	t.Run("shows one run", func(t *testing.T) {
		t.Parallel()
		dir := seedHistory(t, publishedReport())

		out, err := runHistory(t, "--db-dir", dir, "--id", "1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, want := range []string{"XMLMERGE REPORT", "SOURCES (1 of 2 valid)", "Shoe", "Status:    Published"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, out)
			}
		}
	})

	t.Run("shows one run as markdown", func(t *testing.T) {
		t.Parallel()
		dir := seedHistory(t, publishedReport())

		out, err := runHistory(t, "--db-dir", dir, "--id", "1", "--markdown")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "# xmlmerge Report") {
			t.Errorf("expected markdown report, got:\n%s", out)
		}
	})

	t.Run("unknown run", func(t *testing.T) {
		t.Parallel()
		dir := seedHistory(t, publishedReport())

		_, err := runHistory(t, "--db-dir", dir, "--id", "42")
		if !errors.Is(err, database.ErrRunNotFound) {
			t.Errorf("expected ErrRunNotFound, got %v", err)
		}
	})

	t.Run("empty history", func(t *testing.T) {
		t.Parallel()
		dir := seedHistory(t)

		out, err := runHistory(t, "--db-dir", dir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "No runs recorded yet") {
			t.Errorf("expected empty message, got %q", out)
		}
	})

	t.Run("missing database is not created", func(t *testing.T) {
		t.Parallel()
		dir := filepath.Join(t.TempDir(), "none")

		if _, err := runHistory(t, "--db-dir", dir); err == nil {
			t.Fatal("expected error for missing database")
		}
	})

	t.Run("conflicting formats", func(t *testing.T) {
		t.Parallel()
		_, err := runHistory(t, "--db-dir", t.TempDir(), "--json", "--markdown")
		if !errors.Is(err, config.ErrConflictingReportFormats) {
			t.Errorf("expected ErrConflictingReportFormats, got %v", err)
		}
	})
}

// TestRunThenHistory records a real run and reads it back.
func TestRunThenHistory(t *testing.T) {
	t.Parallel()

	_, urls := newFeedServer(t, feedA, feedB)
	dbDir := t.TempDir()

	_, _, err := executeRoot(t, "run",
		"--config", writeConfig(t, "history: false\n"),
		"--kind", "file",
		"--directory", t.TempDir(),
		"--history",
		"--db-dir", dbDir,
		urls[0], urls[1],
	)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	out, _, err := executeRoot(t, "history", "--db-dir", dbDir)
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if !strings.Contains(out, "Run history (1 runs)") || !strings.Contains(out, "published") {
		t.Errorf("expected the run to be listed, got:\n%s", out)
	}
}
