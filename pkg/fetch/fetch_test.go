package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-databind/pkg/session"
)

func TestGet_DecodesPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"stats":{"total_jobs":7}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	payload, err := client.Get(context.Background(), "/v1/dashboard/stats")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	want := map[string]any{"stats": map[string]any{"total_jobs": float64(7)}}
	if diff := cmp.Diff(want, payload); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestGet_AttachesBearerToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, WithSession(session.Static{Authenticated: true, Token: "tok-123"}))
	if _, err := client.Get(context.Background(), "/v1/jobs"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Fatalf("expected bearer header, got %q", gotAuth)
	}
}

func TestGet_NoAuthHeaderWithoutSession(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if _, err := client.Get(context.Background(), "/v1/jobs"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if gotAuth != "" {
		t.Fatalf("expected no Authorization header, got %q", gotAuth)
	}
}

func TestGet_StatusErrorCarriesCodeAndMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"job access denied"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Get(context.Background(), "/v1/jobs/42")

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.Code != http.StatusForbidden || statusErr.Message != "job access denied" {
		t.Fatalf("unexpected status error: %+v", statusErr)
	}
}

func TestIsNotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Get(context.Background(), "/v1/missing")
	if !IsNotFound(err) {
		t.Fatalf("expected IsNotFound for 404, got %v", err)
	}
	if IsNotFound(errors.New("boom")) {
		t.Fatalf("expected IsNotFound false for unrelated error")
	}
}

func TestAll_CombinesByKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/dashboard/stats":
			_, _ = w.Write([]byte(`{"total_jobs":10}`))
		case "/v1/dashboard/activity":
			_, _ = w.Write([]byte(`{"events":3}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL)
	results, err := client.All(context.Background(), map[string]string{
		"stats":    "/v1/dashboard/stats",
		"activity": "/v1/dashboard/activity",
	})
	if err != nil {
		t.Fatalf("All: %v", err)
	}

	want := map[string]map[string]any{
		"stats":    {"total_jobs": float64(10)},
		"activity": {"events": float64(3)},
	}
	if diff := cmp.Diff(want, results); diff != "" {
		t.Fatalf("results mismatch (-want +got):\n%s", diff)
	}
}

func TestAll_OneFailureFailsWhole(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path == "/v1/bad" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	results, err := client.All(context.Background(), map[string]string{
		"good": "/v1/good",
		"bad":  "/v1/bad",
	})
	if err == nil {
		t.Fatalf("expected combined fetch to fail")
	}
	if results != nil {
		t.Fatalf("expected no partial results, got %v", results)
	}
}
