package donations

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMemorySink(t *testing.T) {
	sink := new(MemorySink)
	if err := sink.Donate(context.Background(), "tweets", `["a"]`); err != nil {
		t.Fatal(err)
	}
	got := sink.Donations()
	if len(got) != 1 {
		t.Fatalf("got %d", len(got))
	}
	if got[0].Key != "tweets" || got[0].JSONString != `["a"]` {
		t.Fatalf("got %+v", got[0])
	}
}

func TestHTTPSink(t *testing.T) {
	type request struct {
		Key        string `json:"key"`
		JSONString string `json:"json_string"`
	}
	var received request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Error(err)
		}
		if err := json.Unmarshal(body, &received); err != nil {
			t.Error(err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	sink := &HTTPSink{
		URL:    server.URL,
		Client: server.Client(),
	}
	if err := sink.Donate(context.Background(), "consent", `[{"id":"t1"}]`); err != nil {
		t.Fatal(err)
	}
	if received.Key != "consent" {
		t.Fatalf("got %q", received.Key)
	}
	if received.JSONString != `[{"id":"t1"}]` {
		t.Fatalf("got %q", received.JSONString)
	}
}

func TestHTTPSinkErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer server.Close()

	sink := &HTTPSink{
		URL:    server.URL,
		Client: server.Client(),
	}
	if err := sink.Donate(context.Background(), "consent", "[]"); err == nil {
		t.Fatal("expected error")
	}
}
