package ml

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"BlogCrawler/internal/classifier"
)

func TestClassifyPostsTitleAndBody(t *testing.T) {
	t.Parallel()

	var got map[string]string
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/classify" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"isValid":true,"skillIds":["go","kafka"],"jobGroupIds":["server-developer"]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", "secret", time.Second)
	result, err := client.Classify(context.Background(), "Go at scale", "body text")
	if err != nil {
		t.Fatalf("Classify error: %v", err)
	}

	if got["title"] != "Go at scale" || got["plainTextBody"] != "body text" {
		t.Fatalf("unexpected payload: %v", got)
	}
	if auth != "Bearer secret" {
		t.Fatalf("unexpected auth header: %q", auth)
	}
	if !result.IsValid || len(result.SkillIDs) != 2 || result.JobGroupIDs[0] != "server-developer" {
		t.Fatalf("unexpected classification: %+v", result)
	}
}

func TestClassifyNonOK(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	if _, err := NewClient(server.URL, "", time.Second).Classify(context.Background(), "t", "b"); err == nil {
		t.Fatalf("expected error on 503")
	}
}

func TestClassifyGarbage(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>oops</html>"))
	}))
	defer server.Close()

	_, err := NewClient(server.URL, "", time.Second).Classify(context.Background(), "t", "b")
	if !errors.Is(err, classifier.ErrUnparsable) {
		t.Fatalf("expected ErrUnparsable, got %v", err)
	}
}
