package embedding

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewOpenAIEmbedderRequiresKey(t *testing.T) {
	if _, err := NewOpenAIEmbedder("", "", "", 8, 0); err == nil {
		t.Error("missing api key should error")
	}
}

func TestEmbedTimesOutOnStalledBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server can observe the client disconnect;
		// otherwise r.Context() is never canceled and srv.Close hangs.
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer srv.Close()

	e, err := NewOpenAIEmbedder("test-key", srv.URL, "test-model", 8, 0)
	if err != nil {
		t.Fatal(err)
	}
	e.timeout = 50 * time.Millisecond

	start := time.Now()
	if _, err := e.Embed(context.Background(), "hello"); err == nil {
		t.Fatal("expected error from stalled backend")
	}
	// 3 attempts at 50ms plus backoff must stay well bounded.
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("call blocked for %v despite per-attempt deadlines", elapsed)
	}
}
