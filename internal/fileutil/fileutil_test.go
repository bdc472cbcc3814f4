package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFileAtomicReplacesContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.txt")
	if err := WriteFileAtomic(path, []byte("first"), 0o600); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := WriteFileAtomic(path, []byte("second"), 0o644); err != nil {
		t.Fatalf("second write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "second" {
		t.Fatalf("unexpected content %q", data)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o644 {
		t.Fatalf("unexpected mode %v", info.Mode().Perm())
	}
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %v", entries)
	}
}

func TestWriteJSONAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "v.json")
	if err := WriteJSONAtomic(path, map[string]int{"a": 1}); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "{\n  \"a\": 1\n}\n" {
		t.Fatalf("unexpected json %q", data)
	}
	if err := WriteJSONAtomic(path, func() {}); err == nil {
		t.Fatal("expected encode error for func value")
	}
}

func TestReplaceExt(t *testing.T) {
	tests := []struct {
		in, suffix, want string
	}{
		{"/v/movie.mkv", ".captionsync.json", "/v/movie.captionsync.json"},
		{"/v/noext", ".json", "/v/noext.json"},
		{"clip.tar.gz", ".x", "clip.tar.x"},
	}
	for _, tt := range tests {
		if got := ReplaceExt(tt.in, tt.suffix); got != tt.want {
			t.Fatalf("ReplaceExt(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
