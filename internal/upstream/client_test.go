package upstream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClient_AuthHeader(t *testing.T) {
	var gotHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-Api-Key")
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer srv.Close()

	c := newClient("radarr", srv.URL, "X-Api-Key", "secret", nil)
	var out map[string]bool
	if err := c.getJSON(context.Background(), "/api/v3/movie", nil, &out); err != nil {
		t.Fatalf("getJSON returned error: %v", err)
	}
	if gotHeader != "secret" {
		t.Errorf("auth header = %q, want %q", gotHeader, "secret")
	}
	if !out["ok"] {
		t.Errorf("decoded payload = %v", out)
	}
}

func TestClient_TrailingSlash(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	c := newClient("sonarr", srv.URL+"/", "X-Api-Key", "k", nil)
	var out []int
	if err := c.getJSON(context.Background(), "/api/v3/series", nil, &out); err != nil {
		t.Fatalf("getJSON returned error: %v", err)
	}
	if gotPath != "/api/v3/series" {
		t.Errorf("request path = %q, want %q", gotPath, "/api/v3/series")
	}
}

func TestClient_QueryEncoding(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		fmt.Fprint(w, `{"records":[]}`)
	}))
	defer srv.Close()

	r := NewRadarr(srv.URL, "k", nil)
	if _, err := r.History(context.Background(), HistoryEventGrabbed, 100); err != nil {
		t.Fatalf("History returned error: %v", err)
	}
	if !strings.Contains(gotQuery, "eventType=1") || !strings.Contains(gotQuery, "pageSize=100") {
		t.Errorf("query = %q, want eventType=1 and pageSize=100", gotQuery)
	}
}

func TestClient_AuthError(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		t.Run(fmt.Sprint(status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
			}))
			defer srv.Close()

			c := newClient("radarr", srv.URL, "X-Api-Key", "bad", nil)
			var out any
			err := c.getJSON(context.Background(), "/api/v3/movie", nil, &out)

			var authErr *AuthError
			if !errors.As(err, &authErr) {
				t.Fatalf("error = %v (%T), want *AuthError", err, err)
			}
			if authErr.Status != status {
				t.Errorf("Status = %d, want %d", authErr.Status, status)
			}
			if got := ErrorKind(err); got != "auth" {
				t.Errorf("ErrorKind = %q, want %q", got, "auth")
			}
		})
	}
}

func TestClient_TransportError_Status(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newClient("jellyfin", srv.URL, "X-Emby-Token", "k", nil)
	var out any
	err := c.getJSON(context.Background(), "/Sessions", nil, &out)

	var tErr *TransportError
	if !errors.As(err, &tErr) {
		t.Fatalf("error = %v (%T), want *TransportError", err, err)
	}
	if tErr.Status != http.StatusInternalServerError {
		t.Errorf("Status = %d, want 500", tErr.Status)
	}
	if got := ErrorKind(err); got != "transport" {
		t.Errorf("ErrorKind = %q, want %q", got, "transport")
	}
}

func TestClient_TransportError_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening anymore

	c := newClient("radarr", srv.URL, "X-Api-Key", "k", nil)
	var out any
	err := c.getJSON(context.Background(), "/api/v3/movie", nil, &out)

	var tErr *TransportError
	if !errors.As(err, &tErr) {
		t.Fatalf("error = %v (%T), want *TransportError", err, err)
	}
	if tErr.Unwrap() == nil {
		t.Error("expected wrapped dial error")
	}
}

func TestClient_ParseError(t *testing.T) {
	body := `<html>definitely not json</html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, body)
	}))
	defer srv.Close()

	c := newClient("sonarr", srv.URL, "X-Api-Key", "k", nil)
	var out []int
	err := c.getJSON(context.Background(), "/api/v3/series", nil, &out)

	var pErr *ParseError
	if !errors.As(err, &pErr) {
		t.Fatalf("error = %v (%T), want *ParseError", err, err)
	}
	if pErr.Snippet != body {
		t.Errorf("Snippet = %q, want %q", pErr.Snippet, body)
	}
	if got := ErrorKind(err); got != "parse" {
		t.Errorf("ErrorKind = %q, want %q", got, "parse")
	}
}

func TestClient_ParseError_SnippetBounded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, strings.Repeat("x", 5000))
	}))
	defer srv.Close()

	c := newClient("sonarr", srv.URL, "X-Api-Key", "k", nil)
	var out []int
	err := c.getJSON(context.Background(), "/api/v3/series", nil, &out)

	var pErr *ParseError
	if !errors.As(err, &pErr) {
		t.Fatalf("error = %v (%T), want *ParseError", err, err)
	}
	if len(pErr.Snippet) > maxSnippetBytes {
		t.Errorf("snippet length = %d, want <= %d", len(pErr.Snippet), maxSnippetBytes)
	}
}

func TestClient_ContextCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := newClient("radarr", srv.URL, "X-Api-Key", "k", nil)
	var out any
	err := c.getJSON(ctx, "/api/v3/movie", nil, &out)
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
	if got := ErrorKind(err); got != "transport" {
		t.Errorf("ErrorKind = %q, want %q", got, "transport")
	}
}

func TestClient_LogsFailedRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	var logBuf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logBuf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	c := newClient("radarr", srv.URL, "X-Api-Key", "k", logger)
	var out any
	if err := c.getJSON(context.Background(), "/api/v3/movie", nil, &out); err == nil {
		t.Fatal("expected error from 502 response")
	}

	logs := logBuf.String()
	for _, want := range []string{"request_failed", "service=radarr", "endpoint=/api/v3/movie", "error_kind=transport"} {
		if !strings.Contains(logs, want) {
			t.Errorf("log output missing %q:\n%s", want, logs)
		}
	}
}

func TestErrorKind(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "other"},
		{"auth", &AuthError{Service: "radarr", Status: 401}, "auth"},
		{"parse", &ParseError{Service: "sonarr"}, "parse"},
		{"transport", &TransportError{Service: "jellyfin", Status: 502}, "transport"},
		{"wrapped auth", fmt.Errorf("collect: %w", &AuthError{Status: 403}), "auth"},
		{"plain", errors.New("boom"), "other"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ErrorKind(tc.err); got != tc.want {
				t.Errorf("ErrorKind(%v) = %q, want %q", tc.err, got, tc.want)
			}
		})
	}
}
