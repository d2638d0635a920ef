package storage

import (
	"errors"
	"reflect"
	"testing"

	"github.com/tuffrabit/tinygo-calcpad-rp2040/pkg/config"

	"tinygo.org/x/tinyfs"
)

func newTestStorage(tb testing.TB) (*Manager, *tinyfs.MemBlockDevice) {
	// Memory-backed block device simulating RP2040 flash
	// 256 byte page size, 4096 byte block size, 64 blocks = 256KB
	blockDev := tinyfs.NewMemoryDevice(256, 4096, 64)

	mgr, err := New(blockDev, true, nil)
	if err != nil {
		tb.Fatalf("Failed to create storage: %v", err)
	}

	return mgr, blockDev
}

func TestLinesWriteRead(t *testing.T) {
	mgr, _ := newTestStorage(t)
	defer mgr.Close()

	if err := mgr.WriteLines("/data/history.txt", []string{"1", "", "2.5", "-3"}); err != nil {
		t.Fatalf("WriteLines failed: %v", err)
	}

	lines, err := mgr.ReadLines("/data/history.txt", 0)
	if err != nil {
		t.Fatalf("ReadLines failed: %v", err)
	}
	want := []string{"1", "2.5", "-3"}
	if !reflect.DeepEqual(lines, want) {
		t.Errorf("Expected %v, got %v", want, lines)
	}
}

func TestReadLinesKeepsLast(t *testing.T) {
	mgr, _ := newTestStorage(t)
	defer mgr.Close()

	mgr.WriteLines("/data/h.txt", []string{"a", "b", "c", "d"})

	lines, err := mgr.ReadLines("/data/h.txt", 2)
	if err != nil {
		t.Fatalf("ReadLines failed: %v", err)
	}
	if !reflect.DeepEqual(lines, []string{"c", "d"}) {
		t.Errorf("Expected last two lines, got %v", lines)
	}
}

func TestReadMissingFile(t *testing.T) {
	mgr, _ := newTestStorage(t)
	defer mgr.Close()

	_, err := mgr.ReadFile("/data/missing.txt")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	lf := mgr.Lines("/data/missing.txt")
	lines, err := lf.ReadLines(10)
	if err != nil {
		t.Errorf("LineFile should treat a missing file as empty, got %v", err)
	}
	if len(lines) != 0 {
		t.Errorf("Expected no lines, got %v", lines)
	}
}

func TestLineFileRemove(t *testing.T) {
	mgr, _ := newTestStorage(t)
	defer mgr.Close()

	lf := mgr.Lines("/data/history.txt")
	if err := lf.WriteLines([]string{"42"}); err != nil {
		t.Fatalf("WriteLines failed: %v", err)
	}
	if err := lf.Remove(); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if err := lf.Remove(); err != nil {
		t.Errorf("Removing a missing file should succeed, got %v", err)
	}
	if _, err := mgr.ReadFile(lf.Path()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after remove, got %v", err)
	}
}

func TestWriteEmptyFile(t *testing.T) {
	mgr, _ := newTestStorage(t)
	defer mgr.Close()

	if err := mgr.WriteLines("/data/empty.txt", nil); err != nil {
		t.Fatalf("WriteLines failed: %v", err)
	}
	data, err := mgr.ReadFile("/data/empty.txt")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("Expected empty file, got %q", data)
	}
}

func TestAtomicWrite(t *testing.T) {
	mgr, _ := newTestStorage(t)
	defer mgr.Close()

	mgr.WriteFile("/data/x.txt", []byte("original"))
	mgr.WriteFile("/data/x.txt", []byte("updated"))

	data, err := mgr.ReadFile("/data/x.txt")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "updated" {
		t.Errorf("Expected 'updated', got '%s'", data)
	}
}

func TestBootCleanupRemovesTempFiles(t *testing.T) {
	blockDev := tinyfs.NewMemoryDevice(256, 4096, 64)

	mgr, err := New(blockDev, true, nil)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	// Simulate a write interrupted before the rename
	mgr.WriteFile("/data/history.txt"+tempSuffix, []byte("partial"))
	mgr.Close()

	mgr2, err := New(blockDev, false, nil)
	if err != nil {
		t.Fatalf("Failed to reopen storage: %v", err)
	}
	defer mgr2.Close()

	if _, err := mgr2.ReadFile("/data/history.txt" + tempSuffix); !errors.Is(err, ErrNotFound) {
		t.Errorf("Temp file should be removed at boot, got %v", err)
	}
}

func TestSettingsSaveLoad(t *testing.T) {
	mgr, _ := newTestStorage(t)
	defer mgr.Close()

	if _, err := mgr.LoadSettings(); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound on first boot, got %v", err)
	}

	original := config.Default()
	original.History.Capacity = 20

	if err := mgr.SaveSettings(original); err != nil {
		t.Fatalf("SaveSettings failed: %v", err)
	}

	loaded, err := mgr.LoadSettings()
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}
	if loaded != original {
		t.Errorf("Settings mismatch:\nwant %+v\ngot  %+v", original, loaded)
	}
}

func TestVersionMismatchDiscardsSettings(t *testing.T) {
	blockDev := tinyfs.NewMemoryDevice(256, 4096, 64)

	mgr, err := New(blockDev, true, nil)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	// Settings written by some other firmware version
	mgr.WriteFile(settingsFile, []byte("version: 99\n"))
	mgr.WriteLines("/data/history.txt", []string{"7"})
	mgr.Close()

	mgr2, err := New(blockDev, false, nil)
	if err != nil {
		t.Fatalf("Failed to reopen storage: %v", err)
	}
	defer mgr2.Close()

	if _, err := mgr2.LoadSettings(); !errors.Is(err, ErrNotFound) {
		t.Errorf("Mismatched settings should be removed, got %v", err)
	}

	lines, err := mgr2.ReadLines("/data/history.txt", 0)
	if err != nil || len(lines) != 1 {
		t.Errorf("History should survive a settings wipe, got %v, %v", lines, err)
	}
}

func TestStorageStats(t *testing.T) {
	mgr, blockDev := newTestStorage(t)
	defer mgr.Close()

	stats, err := mgr.GetStats()
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if stats.TotalSpace != blockDev.Size() {
		t.Errorf("TotalSpace: expected %d, got %d", blockDev.Size(), stats.TotalSpace)
	}
	if stats.FileCount != 0 {
		t.Errorf("FileCount: expected 0, got %d", stats.FileCount)
	}

	mgr.WriteLines("/data/history.txt", []string{"1", "2"})
	mgr.SaveSettings(config.Default())

	stats, err = mgr.GetStats()
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if stats.FileCount != 2 {
		t.Errorf("FileCount: expected 2, got %d", stats.FileCount)
	}
	if stats.UsedSpace <= 0 || stats.FreeSpace != stats.TotalSpace-stats.UsedSpace {
		t.Errorf("Inconsistent stats: %+v", stats)
	}
}

func BenchmarkWriteLines(b *testing.B) {
	mgr, _ := newTestStorage(b)
	defer mgr.Close()

	lines := []string{"1", "22", "333", "4444", "55555", "666666", "7777777", "88888888", "999999999", "0.1234567890123"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		mgr.WriteLines("/data/history.txt", lines)
	}
}
