package publish

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/xmlmerge/internal/config"
)

// TestFilePublisher_Publish tests writing into a new directory.
func TestFilePublisher_Publish(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "out", "nested")
	dest := config.Destination{Kind: config.DestinationFile, Directory: dir}

	result, err := NewFilePublisher().Publish(context.Background(), testCatalog("Shirt", "Hat"), dest, "all.xml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "all.xml"))
	if err != nil {
		t.Fatalf("expected file to be written: %v", err)
	}
	if !strings.Contains(string(data), "<name>Hat</name>") {
		t.Errorf("unexpected content %s", data)
	}
	if result.Bytes != int64(len(data)) || result.Kind != "file" {
		t.Errorf("unexpected result %+v", result)
	}
	if !strings.HasPrefix(result.Location, "file://") {
		t.Errorf("unexpected location %q", result.Location)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the catalog in the directory, got %d entries", len(entries))
	}
}

// TestFilePublisher_Overwrite tests that a second publish replaces the file.
func TestFilePublisher_Overwrite(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	dest := config.Destination{Kind: config.DestinationFile, Directory: dir}
	p := NewFilePublisher()

	if _, err := p.Publish(context.Background(), testCatalog("Old"), dest, "all.xml"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := p.Publish(context.Background(), testCatalog("New"), dest, "all.xml"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "all.xml"))
	if err != nil {
		t.Fatalf("failed to read file: %v", err)
	}
	if strings.Contains(string(data), "Old") || !strings.Contains(string(data), "New") {
		t.Errorf("expected overwritten content, got %s", data)
	}
}

// TestFilePublisher_NoDirectory tests the directory precondition.
func TestFilePublisher_NoDirectory(t *testing.T) {
	t.Parallel()

	_, err := NewFilePublisher().Publish(context.Background(), testCatalog(), config.Destination{Kind: config.DestinationFile}, "all.xml")
	if !errors.Is(err, ErrInvalidDestination) || !errors.Is(err, config.ErrNoDirectory) {
		t.Errorf("expected ErrInvalidDestination wrapping ErrNoDirectory, got %v", err)
	}
}
