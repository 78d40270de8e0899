package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// PayloadBytes returns size bytes of a repeating pattern, used to exercise
// payload spill thresholds. A size <= 0 yields a single byte.
func PayloadBytes(size int) []byte {
	if size <= 0 {
		size = 1
	}
	buf := make([]byte, size)
	for i := range buf {
		buf[i] = byte('a' + i%26)
	}
	return buf
}

// WriteQueueFile drops raw bytes into a queue directory under the given
// name, used to simulate corrupt or foreign files.
func WriteQueueFile(t testing.TB, dir, name string, contents []byte) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	if err := os.WriteFile(path, contents, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
