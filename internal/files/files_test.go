package files

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFileNameFromURL(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain csv tail", "https://example.com/files/data.csv", "data.csv"},
		{"query stripped", "https://example.com/files/data.csv?token=abc", "data.csv"},
		{"nested path", "https://example.com/a/b/report.pdf", "report.pdf"},
		{"no extension", "https://example.com/file/demo-audio-1234", "data_1234"},
		{"trailing slash", "https://example.com/files/", "data"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := fileNameFromURL(tt.in); got != tt.want {
				t.Fatalf("fileNameFromURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDownloadWritesBodyToScopedDir(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("10\n200\n50\n300"))
	}))
	defer srv.Close()

	base := t.TempDir()
	d := NewDownloader(base, 5*time.Second)

	path, err := d.Download(context.Background(), srv.URL+"/data.csv")
	if err != nil {
		t.Fatalf("Download returned error: %v", err)
	}
	if filepath.Base(path) != "data.csv" {
		t.Fatalf("unexpected file name %q", path)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading downloaded file: %v", err)
	}
	if string(b) != "10\n200\n50\n300" {
		t.Fatalf("unexpected body %q", b)
	}

	// Same URL again must land in a different directory.
	path2, err := d.Download(context.Background(), srv.URL+"/data.csv")
	if err != nil {
		t.Fatalf("second Download returned error: %v", err)
	}
	if filepath.Dir(path) == filepath.Dir(path2) {
		t.Fatalf("expected per-download directories, both used %s", filepath.Dir(path))
	}
}

func TestDownloadNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	d := NewDownloader(t.TempDir(), 5*time.Second)
	if _, err := d.Download(context.Background(), srv.URL+"/missing.csv"); err == nil {
		t.Fatalf("expected error for 404 download")
	}
}

func TestExtractTextCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "numbers.csv")
	if err := os.WriteFile(path, []byte("10\n200\n50\n300\n"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	got, err := ExtractText(path)
	if err != nil {
		t.Fatalf("ExtractText returned error: %v", err)
	}
	if got != "10\n200\n50\n300" {
		t.Fatalf("unexpected csv text %q", got)
	}
}

func TestExtractTextCSVMultiColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.csv")
	if err := os.WriteFile(path, []byte("name,value\na,1\nb,2\n"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	got, err := ExtractText(path)
	if err != nil {
		t.Fatalf("ExtractText returned error: %v", err)
	}
	want := "name, value\na, 1\nb, 2"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestExtractTextUnknownExtensionPlaceholder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.mp3")
	if err := os.WriteFile(path, []byte{0xff, 0xfb}, 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	got, err := ExtractText(path)
	if err != nil {
		t.Fatalf("ExtractText returned error: %v", err)
	}
	if !strings.HasPrefix(got, "File downloaded to: ") || !strings.HasSuffix(got, "clip.mp3") {
		t.Fatalf("unexpected placeholder %q", got)
	}
}

func TestExtractTextExtensionMatchIsCaseSensitive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "DATA.CSV")
	if err := os.WriteFile(path, []byte("1\n2\n"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	got, err := ExtractText(path)
	if err != nil {
		t.Fatalf("ExtractText returned error: %v", err)
	}
	if !strings.HasPrefix(got, "File downloaded to: ") {
		t.Fatalf("uppercase extension should fall through to placeholder, got %q", got)
	}
}
