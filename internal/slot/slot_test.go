package slot

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileStoreRoundTripAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	fs, err := OpenFileStore(dir)
	if err != nil {
		t.Fatalf("OpenFileStore: %v", err)
	}
	s, err := Open[[]string](fs, "tf_history")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, ok := s.Get(); ok {
		t.Fatal("fresh slot should be unset")
	}
	if err := s.Set([]string{"a", "b"}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	fs2, err := OpenFileStore(dir)
	if err != nil {
		t.Fatalf("OpenFileStore reopen: %v", err)
	}
	s2, err := Open[[]string](fs2, "tf_history")
	if err != nil {
		t.Fatalf("Open reopen: %v", err)
	}
	got, ok := s2.Get()
	if !ok || len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("Get after reopen = %v, %v", got, ok)
	}

	if _, err := os.Stat(filepath.Join(dir, "tf_history.json.tmp")); !os.IsNotExist(err) {
		t.Fatalf("tmp file left behind: %v", err)
	}
}

func TestClearRemovesValue(t *testing.T) {
	fs, err := OpenFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("OpenFileStore: %v", err)
	}
	s, err := Open[string](fs, "tf_session_id")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Set("abc"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if v, ok := s.Get(); ok || v != "" {
		t.Fatalf("Get after Clear = %q, %v", v, ok)
	}
	if _, ok, _ := fs.Load("tf_session_id"); ok {
		t.Fatal("store still holds cleared value")
	}
	// Clearing twice is fine.
	if err := s.Clear(); err != nil {
		t.Fatalf("second Clear: %v", err)
	}
}

func TestOpenTreatsCorruptValueAsAbsent(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "tf_is_dark_theme.json"), []byte("{not json"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	fs, err := OpenFileStore(dir)
	if err != nil {
		t.Fatalf("OpenFileStore: %v", err)
	}
	s, err := Open[bool](fs, "tf_is_dark_theme")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, ok := s.Get(); ok {
		t.Fatal("corrupt slot should read as unset")
	}
}

func TestFileStoreRejectsBadNames(t *testing.T) {
	fs, err := OpenFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("OpenFileStore: %v", err)
	}
	for _, name := range []string{"", "../escape", "a/b"} {
		if err := fs.Save(name, []byte("1")); err == nil {
			t.Fatalf("Save(%q) should fail", name)
		}
	}
}

func TestMemoryStoreCopiesData(t *testing.T) {
	m := NewMemoryStore()
	buf := []byte(`"x"`)
	if err := m.Save("k", buf); err != nil {
		t.Fatalf("Save: %v", err)
	}
	buf[1] = 'y'
	got, ok, err := m.Load("k")
	if err != nil || !ok || string(got) != `"x"` {
		t.Fatalf("Load = %q, %v, %v", got, ok, err)
	}
}
