package fileio

import (
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	berrors "github.com/wzqhbustb/igzbench/errors"
)

func writeInput(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
	return path
}

func TestNewPool(t *testing.T) {
	p := NewPool()
	defer p.Close()

	if p.handles == nil {
		t.Error("handles map should be initialized")
	}
	if p.openFile == nil {
		t.Error("openFile function should be set")
	}
}

func TestPool_Register(t *testing.T) {
	tmpDir := t.TempDir()
	input := writeInput(t, tmpDir, "input.txt", []byte("0123456789"))

	p := NewPool()
	defer p.Close()

	if err := p.Register("input", input); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	// 相同路径重复注册应该成功
	if err := p.Register("input", input); err != nil {
		t.Fatalf("Re-register same path should succeed: %v", err)
	}

	// 不同路径重复注册应该失败
	other := writeInput(t, tmpDir, "other.txt", []byte("other"))
	err := p.Register("input", other)
	if !berrors.Is(err, berrors.ErrInvalidArgument) {
		t.Errorf("Re-register with different path should fail with InvalidArgument, got %v", err)
	}

	size, err := p.Size("input")
	if err != nil {
		t.Fatalf("Size failed: %v", err)
	}
	if size != 10 {
		t.Errorf("Expected size 10, got %d", size)
	}

	path, err := p.Path("input")
	if err != nil || path != input {
		t.Errorf("Expected path %s, got %s (%v)", input, path, err)
	}
}

func TestPool_Register_Errors(t *testing.T) {
	tmpDir := t.TempDir()

	p := NewPool()
	defer p.Close()

	err := p.Register("missing", filepath.Join(tmpDir, "missing.bin"))
	if !berrors.Is(err, berrors.ErrFileNotFound) {
		t.Errorf("Expected FileNotFound, got %v", err)
	}

	err = p.Register("dir", tmpDir)
	if !berrors.Is(err, berrors.ErrIO) {
		t.Errorf("Expected IO error for directory, got %v", err)
	}

	if p.Stats().TotalFiles != 0 {
		t.Errorf("Failed registrations must not leave handles behind")
	}
}

func TestPool_GetPut(t *testing.T) {
	input := writeInput(t, t.TempDir(), "input.txt", []byte("test"))

	p := NewPool()
	defer p.Close()

	if err := p.Register("input", input); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	file, err := p.Get("input")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if file == nil {
		t.Fatal("File handle should not be nil")
	}
	if p.RefCount("input") != 1 {
		t.Errorf("Expected refCount 1, got %d", p.RefCount("input"))
	}

	p.Put("input")
	if p.RefCount("input") != 0 {
		t.Errorf("Expected refCount 0, got %d", p.RefCount("input"))
	}

	// 句柄在 Put 之后仍然可用
	again, err := p.Get("input")
	if err != nil {
		t.Fatalf("Get after Put failed: %v", err)
	}
	if again != file {
		t.Error("Expected the same handle to be reused")
	}
	p.Put("input")
}

func TestPool_NotRegistered(t *testing.T) {
	p := NewPool()
	defer p.Close()

	if _, err := p.Get("nonexistent"); err == nil {
		t.Error("Get non-registered file should fail")
	}
	if _, err := p.Size("nonexistent"); err == nil {
		t.Error("Size of non-registered file should fail")
	}
	if _, err := p.Path("nonexistent"); err == nil {
		t.Error("Path of non-registered file should fail")
	}
	if p.RefCount("nonexistent") != -1 {
		t.Error("RefCount of non-registered file should be -1")
	}
}

func TestPool_RefCount_NegativeProtection(t *testing.T) {
	input := writeInput(t, t.TempDir(), "input.txt", []byte("test"))

	p := NewPool()
	defer p.Close()

	if err := p.Register("input", input); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	p.Put("input")
	p.Put("input")
	p.Put("input")

	if p.RefCount("input") != 0 {
		t.Errorf("RefCount should be 0 (protected from negative), got %d", p.RefCount("input"))
	}
}

func TestPool_ConcurrentAccess(t *testing.T) {
	input := writeInput(t, t.TempDir(), "concurrent.txt", []byte("test"))

	p := NewPool()
	defer p.Close()

	if err := p.Register("concurrent", input); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	const numGoroutines = 100
	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			if _, err := p.Get("concurrent"); err != nil {
				t.Errorf("Get failed: %v", err)
				return
			}
			p.Put("concurrent")
		}()
	}
	wg.Wait()

	if p.RefCount("concurrent") != 0 {
		t.Errorf("Expected final refCount 0, got %d", p.RefCount("concurrent"))
	}
}

func TestPool_Close_WithOpenHandles(t *testing.T) {
	input := writeInput(t, t.TempDir(), "input.txt", []byte("test"))

	p := NewPool()
	if err := p.Register("input", input); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	// 获取但不释放
	if _, err := p.Get("input"); err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	err := p.Close()
	if err == nil {
		t.Fatal("Close with open handles should return warning")
	}
	if berrors.IsFatal(err) {
		t.Errorf("Close warning should not be fatal: %v", err)
	}
	if p.Stats().TotalFiles != 0 {
		t.Error("Close should drop all handles")
	}
}

func TestPool_Stats(t *testing.T) {
	tmpDir := t.TempDir()

	p := NewPool()
	defer p.Close()

	for i := 0; i < 5; i++ {
		id := "file" + strconv.Itoa(i)
		path := writeInput(t, tmpDir, id+".txt", []byte("test"))
		if err := p.Register(id, path); err != nil {
			t.Fatalf("Register failed: %v", err)
		}
	}

	p.Get("file0")
	p.Get("file1")

	stats := p.Stats()
	if stats.TotalFiles != 5 {
		t.Errorf("Expected 5 files, got %d", stats.TotalFiles)
	}
	if stats.TotalReferences != 2 {
		t.Errorf("Expected 2 references, got %d", stats.TotalReferences)
	}

	p.Put("file0")
	p.Put("file1")
}
