package broadcastlog

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestFileLog_Append(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broadcast.log")
	log := NewFileLog(path)

	if err := log.Append("first report\n"); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := log.Append("second report\n"); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log: %v", err)
	}
	if string(content) != "first report\nsecond report\n" {
		t.Errorf("unexpected log content: %q", content)
	}
}

func TestFileLog_Append_Concurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broadcast.log")
	log := NewFileLog(path)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := log.Append("entry\n"); err != nil {
				t.Errorf("Append failed: %v", err)
			}
		}()
	}
	wg.Wait()

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log: %v", err)
	}
	if got := strings.Count(string(content), "entry\n"); got != 10 {
		t.Errorf("entry count = %d, want 10", got)
	}
}

func TestFileLog_Append_BadPath(t *testing.T) {
	log := NewFileLog(filepath.Join(t.TempDir(), "no", "such", "dir", "broadcast.log"))

	if err := log.Append("report"); err == nil {
		t.Error("expected error for unwritable path")
	}
}
