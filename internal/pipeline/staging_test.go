package pipeline

import (
	"os"
	"strings"
	"testing"
)

func TestStagingCreateAndCleanup(t *testing.T) {
	dir := t.TempDir()
	st := NewStaging(dir)

	p1, err := st.Create("upload", ".wav", []byte("abc"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	p2, err := st.Create("tts", ".bin", []byte("def"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p1 == p2 {
		t.Fatal("staged paths collide")
	}
	if st.Count() != 2 {
		t.Fatalf("count: want=2 got=%d", st.Count())
	}
	for _, p := range []string{p1, p2} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("staged file missing: %v", err)
		}
	}

	st.Cleanup()
	if st.Count() != 0 {
		t.Fatalf("count after cleanup: want=0 got=%d", st.Count())
	}
	for _, p := range []string{p1, p2} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Fatalf("staged file survived cleanup: %s", p)
		}
	}
}

func TestStagingCleanupIdempotent(t *testing.T) {
	st := NewStaging(t.TempDir())
	if _, err := st.Create("upload", ".wav", []byte("abc")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	st.Cleanup()
	st.Cleanup() // second call must be a no-op
}

func TestStagingCleanupToleratesMissingFiles(t *testing.T) {
	st := NewStaging(t.TempDir())
	p, err := st.Create("upload", ".wav", []byte("abc"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := os.Remove(p); err != nil {
		t.Fatalf("remove: %v", err)
	}
	st.Cleanup() // must not panic or error
}

func TestStagingNamesCarryPrefixAndExt(t *testing.T) {
	st := NewStaging(t.TempDir())
	defer st.Cleanup()
	p, err := st.Create("upload", ".wav", []byte("abc"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	base := p[strings.LastIndex(p, "/")+1:]
	if !strings.HasPrefix(base, "upload_") || !strings.HasSuffix(base, ".wav") {
		t.Fatalf("unexpected staged name: %s", base)
	}
}
