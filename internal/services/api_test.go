package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	tu "github.com/desertthunder/vgen/internal/testing"
)

func TestAPIService(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		t.Run("Trims Trailing Slash", func(t *testing.T) {
			client := &http.Client{}
			srv := NewAPIService("http://example.com/api/", client)

			if srv.BaseURL() != "http://example.com/api" {
				t.Errorf("expected trimmed baseURL, got %s", srv.BaseURL())
			}
			if srv.httpClient != client {
				t.Error("expected custom client to be used")
			}
		})

		t.Run("Defaults", func(t *testing.T) {
			srv := NewAPIService("", nil)

			if srv.BaseURL() != defaultBaseURL {
				t.Errorf("expected default baseURL %s, got %s", defaultBaseURL, srv.BaseURL())
			}
			if srv.httpClient != http.DefaultClient {
				t.Error("expected http.DefaultClient to be used")
			}
		})

		t.Run("APIBase", func(t *testing.T) {
			if got := APIBase("http://127.0.0.1:8001/"); got != "http://127.0.0.1:8001/api" {
				t.Errorf("unexpected api base %s", got)
			}
		})
	})

	t.Run("Headers", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("X-Request-ID") == "" {
				t.Error("expected X-Request-ID header")
			}
			if r.Header.Get("User-Agent") != "vgen-test" {
				t.Errorf("expected user agent vgen-test, got %s", r.Header.Get("User-Agent"))
			}
			w.Header().Set("X-Custom-Header", "test-value")
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		srv := NewAPIService(server.URL, nil).WithUserAgent("vgen-test")
		resp, err := srv.Get(context.Background(), "/test")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if resp.Headers.Get("X-Custom-Header") != "test-value" {
			t.Errorf("expected response headers to be preserved")
		}
	})

	t.Run("Methods", func(t *testing.T) {
		tests := []struct {
			name   string
			method string
			call   func(*APIService) (*APIResponse, error)
			body   string
		}{
			{"Get", http.MethodGet, func(s *APIService) (*APIResponse, error) { return s.Get(context.Background(), "/x") }, ""},
			{"Post", http.MethodPost, func(s *APIService) (*APIResponse, error) {
				return s.Post(context.Background(), "/x", []byte(`{"a":1}`))
			}, `{"a":1}`},
			{"Put", http.MethodPut, func(s *APIService) (*APIResponse, error) {
				return s.Put(context.Background(), "/x", []byte(`{"selected":true}`))
			}, `{"selected":true}`},
			{"Delete", http.MethodDelete, func(s *APIService) (*APIResponse, error) { return s.Delete(context.Background(), "/x") }, ""},
			{"PostJSON", http.MethodPost, func(s *APIService) (*APIResponse, error) {
				return s.PostJSON(context.Background(), "/x", map[string]string{"job_name": "n"})
			}, `{"job_name":"n"}`},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					if r.Method != tt.method {
						t.Errorf("expected %s, got %s", tt.method, r.Method)
					}
					body, _ := io.ReadAll(r.Body)
					if string(body) != tt.body {
						t.Errorf("expected body %q, got %q", tt.body, string(body))
					}
					if tt.body != "" && r.Header.Get("Content-Type") != "application/json" {
						t.Errorf("expected JSON content type, got %s", r.Header.Get("Content-Type"))
					}
					w.WriteHeader(http.StatusCreated)
					json.NewEncoder(w).Encode(map[string]string{"ok": "yes"})
				}))
				defer server.Close()

				resp, err := tt.call(NewAPIService(server.URL, nil))
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				if resp.StatusCode != http.StatusCreated || !resp.OK() {
					t.Errorf("expected 201, got %d", resp.StatusCode)
				}
				if !resp.IsJSON {
					t.Error("expected response to be JSON")
				}
			})
		}
	})

	t.Run("Failures", func(t *testing.T) {
		t.Run("Request Creation", func(t *testing.T) {
			srv := NewAPIService("http://example.com", nil)
			_, err := srv.Get(context.Background(), "/test\x00invalid")
			if err == nil || !strings.Contains(err.Error(), "failed to create request") {
				t.Errorf("expected 'failed to create request' error, got %v", err)
			}
		})

		t.Run("Transport", func(t *testing.T) {
			client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection failed"))}
			srv := NewAPIService("http://example.com", client)
			_, err := srv.Post(context.Background(), "/test", nil)
			if err == nil || !strings.Contains(err.Error(), "request failed") {
				t.Errorf("expected 'request failed' error, got %v", err)
			}
		})

		t.Run("Body Read", func(t *testing.T) {
			client := &http.Client{Transport: tu.NewMockRoundTripper(&http.Response{
				StatusCode: http.StatusOK,
				Body:       &tu.FCloser{},
				Header:     http.Header{},
			}, nil)}
			srv := NewAPIService("http://example.com", client)
			_, err := srv.Get(context.Background(), "/test")
			if err == nil || !strings.Contains(err.Error(), "failed to read response") {
				t.Errorf("expected 'failed to read response' error, got %v", err)
			}
		})

		t.Run("Canceled Context", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			if _, err := NewAPIService(server.URL, nil).Get(ctx, "/test"); err == nil {
				t.Error("expected error for canceled context")
			}
		})
	})

	t.Run("APIResponse", func(t *testing.T) {
		t.Run("Non-JSON Body", func(t *testing.T) {
			resp := &APIResponse{StatusCode: 200, Body: []byte("not json")}
			var v map[string]any
			if err := resp.Decode(&v); err == nil {
				t.Error("expected decode error")
			}
		})

		t.Run("Decode", func(t *testing.T) {
			resp := &APIResponse{StatusCode: 200, Body: []byte(`{"job_id":"j1"}`)}
			var v struct {
				ID string `json:"job_id"`
			}
			if err := resp.Decode(&v); err != nil || v.ID != "j1" {
				t.Errorf("unexpected decode result %+v, %v", v, err)
			}
		})

		t.Run("OK Range", func(t *testing.T) {
			for code, want := range map[int]bool{199: false, 200: true, 204: true, 299: true, 300: false, 404: false} {
				if got := (&APIResponse{StatusCode: code}).OK(); got != want {
					t.Errorf("OK(%d) = %v, want %v", code, got, want)
				}
			}
		})
	})
}

func TestAPIError(t *testing.T) {
	t.Run("Detail From FastAPI Body", func(t *testing.T) {
		resp := &APIResponse{StatusCode: 404, Body: []byte(`{"detail":"Job not found"}`)}
		err := checkResponse(http.MethodGet, "/jobs/x", resp, nil)

		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected *APIError, got %T", err)
		}
		if apiErr.Detail != "Job not found" || apiErr.StatusCode != 404 {
			t.Errorf("unexpected error %+v", apiErr)
		}
		if !strings.Contains(err.Error(), "GET /jobs/x: status 404: Job not found") {
			t.Errorf("unexpected message %q", err.Error())
		}
	})

	t.Run("Structured Detail", func(t *testing.T) {
		resp := &APIResponse{StatusCode: 422, Body: []byte(`{"detail":[{"loc":["body"],"msg":"field required"}]}`)}
		err := checkResponse(http.MethodPost, "/jobs/create", resp, nil)
		if !strings.Contains(err.Error(), "field required") {
			t.Errorf("expected structured detail in message, got %q", err.Error())
		}
	})

	t.Run("Raw Body Fallback", func(t *testing.T) {
		resp := &APIResponse{StatusCode: 502, Body: []byte("Bad Gateway")}
		err := checkResponse(http.MethodGet, "/jobs", resp, nil)
		if !strings.Contains(err.Error(), "Bad Gateway") {
			t.Errorf("expected raw body in message, got %q", err.Error())
		}
	})

	t.Run("Success Is Nil", func(t *testing.T) {
		if err := checkResponse(http.MethodGet, "/jobs", &APIResponse{StatusCode: 200}, nil); err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	})
}
