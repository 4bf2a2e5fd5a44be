package backup

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func testConfig(dir string) Config {
	return Config{
		Endpoint:  "127.0.0.1:9000",
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
		Dir:       dir,
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	r, err := New(testConfig(t.TempDir()), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if r.bucket != DefaultBucket {
		t.Errorf("bucket = %q, want %q", r.bucket, DefaultBucket)
	}

	// Default schedule fires at 03:00.
	next := r.schedule.Next(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	want := time.Date(2025, 6, 2, 3, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("next run = %v, want %v", next, want)
	}
}

func TestNewRejectsBadSchedule(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.Schedule = "every day at dawn"

	if _, err := New(cfg, nil); err == nil {
		t.Fatal("expected error for invalid schedule")
	}
}

func TestCustomSchedule(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.Schedule = "*/15 * * * *"

	r, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	next := r.schedule.Next(time.Date(2025, 6, 1, 12, 7, 0, 0, time.UTC))
	want := time.Date(2025, 6, 1, 12, 15, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("next run = %v, want %v", next, want)
	}
}

func TestBackupMissingTreeIsNoop(t *testing.T) {
	cfg := testConfig(filepath.Join(t.TempDir(), "never-written"))

	r, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// No transcripts yet: nothing to upload and nothing to fail on.
	if err := r.Backup(context.Background()); err != nil {
		t.Errorf("Backup: %v", err)
	}
}

func TestBackupEmptyTreeUploadsNothing(t *testing.T) {
	r, err := New(testConfig(t.TempDir()), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// The tree exists but holds no log files, so the walk touches the
	// network not at all.
	if err := r.Backup(context.Background()); err != nil {
		t.Errorf("Backup: %v", err)
	}
}
