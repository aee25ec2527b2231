package httpserver

import (
	"io"
	"net/http"
	"testing"
)

func TestServeAndShutdown(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "ok")
	})

	srv, err := New(handler, Options{Addr: "127.0.0.1:0"})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	resp, err := http.Get("http://" + srv.Addr() + "/")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}

	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if string(body) != "ok" {
		t.Errorf("expected body %q, got %q", "ok", body)
	}

	if err := srv.Shutdown(); err != nil {
		t.Fatalf("Shutdown() error: %v", err)
	}

	if err := <-srv.Notify(); err != nil {
		t.Errorf("expected clean serve exit, got %v", err)
	}
}

func TestNewBadAddr(t *testing.T) {
	if _, err := New(http.NotFoundHandler(), Options{Addr: "256.0.0.1:bad"}); err == nil {
		t.Fatal("expected listen error")
	}
}
