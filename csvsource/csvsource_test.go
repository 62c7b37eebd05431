package csvsource

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeCSV(t *testing.T, dir, wellID, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, wellID+".csv"), []byte(body), 0o644); err != nil {
		t.Fatalf("writing fixture csv: %v", err)
	}
}

func TestFetchReadings_StandardizesAliasedColumns(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "well-1", "date_time,water_level\n2024-01-01,10.5\n2024-01-02,10.4\n")

	src := Source{Dir: dir}
	s, err := src.FetchReadings(context.Background(), "well-1", nil, nil)
	if err != nil {
		t.Fatalf("FetchReadings returned error: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}
	if s.Levels[0] != 10.5 {
		t.Fatalf("Levels[0] = %v, want 10.5", s.Levels[0])
	}
}

func TestFetchReadings_MissingWellReturnsRepositoryError(t *testing.T) {
	dir := t.TempDir()
	src := Source{Dir: dir}
	_, err := src.FetchReadings(context.Background(), "no-such-well", nil, nil)
	if err == nil {
		t.Fatal("expected an error for a missing CSV file")
	}
}

func TestFetchReadings_FiltersToRange(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "well-1", "timestamp,level\n2024-01-01,10.0\n2024-01-05,9.5\n2024-01-10,9.0\n")

	src := Source{Dir: dir}
	start := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)
	s, err := src.FetchReadings(context.Background(), "well-1", &start, &end)
	if err != nil {
		t.Fatalf("FetchReadings returned error: %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", s.Len())
	}
	if s.Levels[0] != 9.5 {
		t.Fatalf("Levels[0] = %v, want 9.5", s.Levels[0])
	}
}

func TestFetchReadings_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "well-1", "timestamp,level\n2024-01-01,10.0\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := Source{Dir: dir}
	_, err := src.FetchReadings(ctx, "well-1", nil, nil)
	if err == nil {
		t.Fatal("expected cancellation error")
	}
}
