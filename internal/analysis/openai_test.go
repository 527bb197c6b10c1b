package analysis

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewOpenAIGeneratorRequiresKey(t *testing.T) {
	if _, err := NewOpenAIGenerator("", "", ""); err == nil {
		t.Error("missing api key should error")
	}
}

func TestGenerateTimesOutOnStalledBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server can observe the client disconnect;
		// otherwise r.Context() is never canceled and srv.Close hangs.
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer srv.Close()

	gen, err := NewOpenAIGenerator("test-key", srv.URL, "test-model")
	if err != nil {
		t.Fatal(err)
	}
	gen.timeout = 50 * time.Millisecond

	start := time.Now()
	_, err = gen.Generate(context.Background(), "prompt", 16)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("call blocked for %v despite its own deadline", elapsed)
	}
}
