package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func setupTestStore(t *testing.T) (*FSStore, string) {
	t.Helper()

	tempDir := t.TempDir()
	store, err := NewFSStore(tempDir)
	if err != nil {
		t.Fatalf("Failed to create test store: %v", err)
	}

	return store, tempDir
}

func testRecord(runID string) *RunRecord {
	return &RunRecord{
		RunID: runID,
		Config: RunConfig{
			LeftPath:  "assets/left.png",
			RightPath: "assets/right.png",
			Width:     8,
			Height:    4,
			MaxDisp:   16,
			P1:        8,
			P2:        128,
			Paths:     4,
			Engine:    "stream",
		},
		ElapsedMS: 42,
		Timestamp: time.Now(),
		Disparity: []int{0, 1, 2, 3, 3, 2, 1, 0},
	}
}

func TestNewFSStore(t *testing.T) {
	tempDir := t.TempDir()

	store, err := NewFSStore(filepath.Join(tempDir, "data"))
	if err != nil {
		t.Fatalf("NewFSStore failed: %v", err)
	}
	if store == nil {
		t.Fatal("Expected non-nil store")
	}

	if _, err := os.Stat(filepath.Join(tempDir, "data")); os.IsNotExist(err) {
		t.Fatal("Base directory was not created")
	}
}

func TestSaveRun(t *testing.T) {
	store, tempDir := setupTestStore(t)

	runID := "run-123"
	if err := store.SaveRun(runID, testRecord(runID)); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	recordPath := filepath.Join(tempDir, "runs", runID, "result.json")
	if _, err := os.Stat(recordPath); os.IsNotExist(err) {
		t.Fatalf("Record file was not created at %s", recordPath)
	}

	// The temp file must not survive the rename.
	if _, err := os.Stat(recordPath + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("Temp file should not exist after save")
	}
}

func TestSaveRun_Validation(t *testing.T) {
	store, _ := setupTestStore(t)

	if err := store.SaveRun("", testRecord("x")); err == nil {
		t.Error("Expected error for empty runID")
	}
	if err := store.SaveRun("run-1", nil); err == nil {
		t.Error("Expected error for nil record")
	}
}

func TestSaveRun_Overwrite(t *testing.T) {
	store, _ := setupTestStore(t)

	runID := "run-overwrite"
	first := testRecord(runID)
	first.ElapsedMS = 10
	second := testRecord(runID)
	second.ElapsedMS = 99

	if err := store.SaveRun(runID, first); err != nil {
		t.Fatalf("First save failed: %v", err)
	}
	if err := store.SaveRun(runID, second); err != nil {
		t.Fatalf("Second save failed: %v", err)
	}

	loaded, err := store.LoadRun(runID)
	if err != nil {
		t.Fatalf("LoadRun failed: %v", err)
	}
	if loaded.ElapsedMS != 99 {
		t.Errorf("Expected ElapsedMS=99, got %d", loaded.ElapsedMS)
	}
}

func TestLoadRun_RoundTrip(t *testing.T) {
	store, _ := setupTestStore(t)

	runID := "run-load"
	original := testRecord(runID)
	if err := store.SaveRun(runID, original); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	loaded, err := store.LoadRun(runID)
	if err != nil {
		t.Fatalf("LoadRun failed: %v", err)
	}

	if loaded.RunID != original.RunID {
		t.Errorf("RunID mismatch: expected %s, got %s", original.RunID, loaded.RunID)
	}
	if loaded.Config != original.Config {
		t.Errorf("Config mismatch: expected %+v, got %+v", original.Config, loaded.Config)
	}
	if len(loaded.Disparity) != len(original.Disparity) {
		t.Fatalf("Disparity length mismatch: expected %d, got %d",
			len(original.Disparity), len(loaded.Disparity))
	}
	for i := range loaded.Disparity {
		if loaded.Disparity[i] != original.Disparity[i] {
			t.Errorf("Disparity[%d] mismatch: expected %d, got %d",
				i, original.Disparity[i], loaded.Disparity[i])
		}
	}
}

func TestLoadRun_NotFound(t *testing.T) {
	store, _ := setupTestStore(t)

	_, err := store.LoadRun("nonexistent-run")
	if err == nil {
		t.Fatal("Expected error for nonexistent run")
	}

	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Errorf("Expected NotFoundError, got %T: %v", err, err)
	}
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected errors.Is(err, ErrNotFound) to hold")
	}
}

func TestListRuns_Empty(t *testing.T) {
	store, _ := setupTestStore(t)

	infos, err := store.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(infos) != 0 {
		t.Errorf("Expected empty list, got %d runs", len(infos))
	}
}

func TestListRuns_Multiple(t *testing.T) {
	store, _ := setupTestStore(t)

	runs := []string{"run-1", "run-2", "run-3"}
	for _, runID := range runs {
		if err := store.SaveRun(runID, testRecord(runID)); err != nil {
			t.Fatalf("Failed to save run %s: %v", runID, err)
		}
	}

	infos, err := store.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(infos) != len(runs) {
		t.Fatalf("Expected %d runs, got %d", len(runs), len(infos))
	}

	found := make(map[string]bool)
	for _, info := range infos {
		found[info.RunID] = true
	}
	for _, runID := range runs {
		if !found[runID] {
			t.Errorf("Run %s not found in list", runID)
		}
	}
}

func TestListRuns_SkipsInvalidDirectories(t *testing.T) {
	store, tempDir := setupTestStore(t)

	validID := "valid-run"
	if err := store.SaveRun(validID, testRecord(validID)); err != nil {
		t.Fatalf("Failed to save valid run: %v", err)
	}

	// Directory without result.json.
	if err := os.MkdirAll(filepath.Join(tempDir, "runs", "empty-run"), 0755); err != nil {
		t.Fatal(err)
	}
	// Stray file in the runs directory.
	if err := os.WriteFile(filepath.Join(tempDir, "runs", "stray.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	infos, err := store.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(infos) != 1 {
		t.Fatalf("Expected 1 run, got %d", len(infos))
	}
	if infos[0].RunID != validID {
		t.Errorf("Expected runID %s, got %s", validID, infos[0].RunID)
	}
}

func TestDeleteRun(t *testing.T) {
	store, _ := setupTestStore(t)

	runID := "run-delete"
	if err := store.SaveRun(runID, testRecord(runID)); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	if err := store.DeleteRun(runID); err != nil {
		t.Fatalf("DeleteRun failed: %v", err)
	}

	_, err := store.LoadRun(runID)
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Errorf("Expected NotFoundError after delete, got %T: %v", err, err)
	}
}

func TestDeleteRun_NotFound(t *testing.T) {
	store, _ := setupTestStore(t)

	err := store.DeleteRun("nonexistent-run")
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Errorf("Expected NotFoundError, got %T: %v", err, err)
	}
}

func TestConcurrentSave(t *testing.T) {
	store, _ := setupTestStore(t)

	const numRuns = 10
	done := make(chan bool, numRuns)

	for i := 0; i < numRuns; i++ {
		go func(idx int) {
			runID := fmt.Sprintf("concurrent-run-%d", idx)
			if err := store.SaveRun(runID, testRecord(runID)); err != nil {
				t.Errorf("Concurrent save failed for run %s: %v", runID, err)
			}
			done <- true
		}(i)
	}
	for i := 0; i < numRuns; i++ {
		<-done
	}

	infos, err := store.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(infos) != numRuns {
		t.Errorf("Expected %d runs, got %d", numRuns, len(infos))
	}
}
