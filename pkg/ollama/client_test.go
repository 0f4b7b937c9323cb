package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ollama/ollama/api"

	"github.com/menta2k/page-annotator/pkg/client"
)

func TestNewClientRejectsRelativeURL(t *testing.T) {
	if _, err := NewClient("localhost"); err == nil {
		t.Error("Expected error for URL without scheme")
	}
	if _, err := NewClient("http://localhost:11434/api/chat"); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestDescribe(t *testing.T) {
	var got api.ChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(api.ChatResponse{
			Model:   "llava",
			Message: api.Message{Role: "assistant", Content: "Sign in button"},
			Done:    true,
		})
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL + "/api/chat")
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	answer, err := c.Describe(context.Background(), client.Request{
		Model:     "llava",
		Prompt:    "What is this?",
		Image:     []byte{0x89, 'P', 'N', 'G'},
		MaxTokens: 16,
	})
	if err != nil {
		t.Fatalf("Describe failed: %v", err)
	}
	if answer != "Sign in button" {
		t.Errorf("Unexpected answer %q", answer)
	}

	if got.Model != "llava" || len(got.Messages) != 1 {
		t.Fatalf("Unexpected request %+v", got)
	}
	if len(got.Messages[0].Images) != 1 || string(got.Messages[0].Images[0]) != "\x89PNG" {
		t.Errorf("Image not forwarded: %v", got.Messages[0].Images)
	}
	if got.Stream == nil || *got.Stream {
		t.Error("Expected non-streaming request")
	}
}

func TestDescribeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"model not found"}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if _, err := c.Describe(context.Background(), client.Request{Model: "missing"}); err == nil {
		t.Error("Expected error from server")
	}
}
