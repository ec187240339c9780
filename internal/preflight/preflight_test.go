package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"slidesmith/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckBinary_NotFound(t *testing.T) {
	result := CheckBinary("FFmpeg", "definitely-not-a-real-binary-name")
	if result.Passed {
		t.Fatal("expected failure for missing binary")
	}
}

func TestCheckNextcloud_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/status.php" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Nextcloud.URL = srv.URL
	cfg.Nextcloud.Username = "alice"
	cfg.Nextcloud.Password = "secret"
	result := CheckNextcloud(context.Background(), &cfg)
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckNextcloud_MissingCredentials(t *testing.T) {
	cfg := config.Default()
	cfg.Nextcloud.URL = "https://cloud.example.org"
	result := CheckNextcloud(context.Background(), &cfg)
	if result.Passed {
		t.Fatal("expected failure without credentials")
	}
}

func TestCheckMatrix_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/_matrix/client/versions" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"versions":["v1.5"]}`))
	}))
	defer srv.Close()

	result := CheckMatrix(context.Background(), srv.URL)
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}
