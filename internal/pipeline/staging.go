package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/esp-voice-lab/internal/logging"
)

// Staging tracks the temporary files created while handling one request.
// Files are uuid-named so concurrent requests never collide. Cleanup removes
// everything exactly once and is safe to call on every exit path.
type Staging struct {
	dir   string
	mu    sync.Mutex
	paths []string
}

// NewStaging returns a staging scope rooted at dir, or the OS temp dir if
// dir is empty.
func NewStaging(dir string) *Staging {
	if dir == "" {
		dir = os.TempDir()
	}
	return &Staging{dir: dir}
}

// Create writes data to a fresh uuid-named file under the staging dir and
// registers it for cleanup. The write is atomic (tmp + rename).
func (s *Staging) Create(prefix, ext string, data []byte) (string, error) {
	name := fmt.Sprintf("%s_%s%s", prefix, uuid.NewString(), ext)
	path := filepath.Join(s.dir, name)
	if err := writeFileAtomic(path, data, 0o644); err != nil {
		return "", err
	}
	s.mu.Lock()
	s.paths = append(s.paths, path)
	s.mu.Unlock()
	return path, nil
}

// Count reports how many staged files have not been cleaned up yet.
func (s *Staging) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.paths)
}

// Cleanup removes every staged file. Missing files are not an error; calling
// Cleanup more than once is a no-op after the first call.
func (s *Staging) Cleanup() {
	s.mu.Lock()
	paths := s.paths
	s.paths = nil
	s.mu.Unlock()
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			logging.Warnw("staging: failed to remove temp file", "path", p, "err", err)
		}
	}
}

// writeFileAtomic writes data to path by writing a tmp file in the same
// directory, fsyncing, closing, and renaming into place.
func writeFileAtomic(path string, data []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
