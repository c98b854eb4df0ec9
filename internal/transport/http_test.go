package transport

import (
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"cloudpico-reporter/internal/config"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Proto", r.Proto)
		w.WriteHeader(http.StatusOK)
	}))
	srv.EnableHTTP2 = true
	srv.StartTLS()
	t.Cleanup(srv.Close)
	return srv
}

func writeCA(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ca.pem")
	block := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: srv.Certificate().Raw})
	if err := os.WriteFile(path, block, 0o600); err != nil {
		t.Fatalf("write ca: %v", err)
	}
	return path
}

func TestNewHTTPClient_VerifiesByDefault(t *testing.T) {
	srv := newServer(t)

	client, err := NewHTTPClient(config.Config{}, nil)
	if err != nil {
		t.Fatalf("NewHTTPClient() error = %v", err)
	}
	resp, err := client.Get(srv.URL)
	if err == nil {
		resp.Body.Close()
		t.Fatal("GET against self-signed server succeeded, want certificate error")
	}
}

func TestNewHTTPClient_CustomCA(t *testing.T) {
	srv := newServer(t)

	client, err := NewHTTPClient(config.Config{TLSCAFile: writeCA(t, srv)}, nil)
	if err != nil {
		t.Fatalf("NewHTTPClient() error = %v", err)
	}
	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if got := resp.Header.Get("X-Proto"); got != "HTTP/2.0" {
		t.Errorf("negotiated %q, want HTTP/2.0", got)
	}
}

func TestNewHTTPClient_InsecureOptIn(t *testing.T) {
	srv := newServer(t)

	client, err := NewHTTPClient(config.Config{TLSInsecureSkipVerify: true}, nil)
	if err != nil {
		t.Fatalf("NewHTTPClient() error = %v", err)
	}
	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	resp.Body.Close()
}

func TestNewHTTPClient_BadCAFile(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
	}{
		{name: "missing", setup: func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.pem") }},
		{name: "not pem", setup: func(t *testing.T) string {
			p := filepath.Join(t.TempDir(), "junk.pem")
			if err := os.WriteFile(p, []byte("junk"), 0o600); err != nil {
				t.Fatal(err)
			}
			return p
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewHTTPClient(config.Config{TLSCAFile: tt.setup(t)}, nil); err == nil {
				t.Fatal("NewHTTPClient() error = nil, want non-nil")
			}
		})
	}
}
