package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMeasureUsage(t *testing.T) {
	dir := t.TempDir()

	db := filepath.Join(dir, "planreview.db")
	if err := os.WriteFile(db, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(db+"-wal", []byte("wal"), 0644); err != nil {
		t.Fatal(err)
	}

	uploads := filepath.Join(dir, "uploads")
	if err := os.MkdirAll(filepath.Join(uploads, "p1"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(uploads, "a"), []byte("ab"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(uploads, "p1", "b"), []byte("c"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := MeasureUsage(db, uploads, filepath.Join(dir, "nonexistent"))
	if err != nil {
		t.Fatal(err)
	}
	want := Usage{DatabaseBytes: 8, UploadBytes: 3, ReportBytes: 0, TotalBytes: 11}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestMeasureUsage_emptyPaths(t *testing.T) {
	got, err := MeasureUsage("", "", "")
	if err != nil {
		t.Fatal(err)
	}
	if got != (Usage{}) {
		t.Errorf("got %+v", got)
	}
}
