package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"marker-mind/stores/memory"
)

func TestSetupRouter(t *testing.T) {
	r := setupRouter(memory.NewStore(), nil)

	tests := []struct {
		name   string
		method string
		target string
		body   string
		want   int
	}{
		{"health", http.MethodGet, "/healthz", "", http.StatusOK},
		{"list", http.MethodGet, "/api/v2/boards", "", http.StatusOK},
		{"missing board", http.MethodGet, "/api/v2/boards/nope", "", http.StatusNotFound},
		{"save", http.MethodPut, "/api/v2/boards/b1", `{"objects":[]}`, http.StatusOK},
		{"unknown route", http.MethodGet, "/api/v1/kv", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("%s %s = %d, want %d", tt.method, tt.target, rec.Code, tt.want)
			}
		})
	}
}

func TestSetupRouter_CORS(t *testing.T) {
	r := setupRouter(memory.NewStore(), nil)

	tests := []struct {
		origin string
		allow  bool
	}{
		{"http://localhost:3000", true},
		{"https://boards.example.com", true},
		{"file://local", false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodOptions, "/api/v2/boards", nil)
		req.Header.Set("Origin", tt.origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		got := rec.Header().Get("Access-Control-Allow-Origin") == tt.origin
		if got != tt.allow {
			t.Errorf("origin %s allowed = %v, want %v", tt.origin, got, tt.allow)
		}
	}
}
