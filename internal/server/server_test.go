package server

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/narrate/internal/shared"
)

func newHandler(redirect string) *OAuthHandler {
	return NewOAuthHandler(GoogleConfig("client-123", redirect), "state-abc")
}

func TestOAuthHandler(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		status   int
		wantCode string
		wantErr  error
	}{
		{name: "code delivered", query: "state=state-abc&code=4/xyz", status: http.StatusOK, wantCode: "4/xyz"},
		{name: "state mismatch", query: "state=other&code=4/xyz", status: http.StatusBadRequest, wantErr: shared.ErrOAuthStateDenied},
		{name: "user denied", query: "state=state-abc&error=access_denied", status: http.StatusBadRequest, wantErr: shared.ErrAuthFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHandler("http://localhost:3000/callback")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?"+tt.query, nil))

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}

			result := <-h.Result()
			if tt.wantErr != nil {
				if !errors.Is(result.Error(), tt.wantErr) {
					t.Errorf("error = %v, want %v", result.Error(), tt.wantErr)
				}
				return
			}
			if result.Error() != nil || result.Code != tt.wantCode {
				t.Errorf("result = %q, %v", result.Code, result.Error())
			}
		})
	}

	t.Run("second callback rejected", func(t *testing.T) {
		h := newHandler("http://localhost:3000/callback")
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/callback?state=state-abc&code=a", nil))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=state-abc&code=b", nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
		if r := <-h.Result(); r.Code != "a" {
			t.Errorf("code = %q, want first one", r.Code)
		}
	})
}

func TestOAuthHandlerRoutesAndURL(t *testing.T) {
	if got := newHandler("http://localhost:3000/auth/google").Routes(); got[0] != "/auth/google" {
		t.Errorf("Routes() = %v", got)
	}
	if got := newHandler("http://localhost:3000").Routes(); got[0] != "/callback" {
		t.Errorf("Routes() = %v", got)
	}

	u, err := url.Parse(newHandler("http://localhost:3000/callback").AuthURL())
	if err != nil {
		t.Fatal(err)
	}
	q := u.Query()
	if q.Get("state") != "state-abc" || q.Get("client_id") != "client-123" || q.Get("response_type") != "code" {
		t.Errorf("unexpected auth url query %v", q)
	}
	if !strings.Contains(q.Get("scope"), "email") {
		t.Errorf("scope = %q", q.Get("scope"))
	}
}

func TestCallbackServer(t *testing.T) {
	logger := shared.NewLogger(io.Discard)

	t.Run("receives code", func(t *testing.T) {
		h := newHandler("http://127.0.0.1:0/callback")
		cs, err := StartCallbackServer("127.0.0.1:0", h, logger)
		if err != nil {
			t.Fatal(err)
		}

		go func() {
			resp, err := http.Get("http://" + cs.Addr() + "/callback?state=state-abc&code=granted")
			if err == nil {
				resp.Body.Close()
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		code, err := cs.Wait(ctx)
		if err != nil || code != "granted" {
			t.Errorf("Wait() = %q, %v", code, err)
		}
	})

	t.Run("times out", func(t *testing.T) {
		cs, err := StartCallbackServer("127.0.0.1:0", newHandler("http://127.0.0.1:0/callback"), logger)
		if err != nil {
			t.Fatal(err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		if _, err := cs.Wait(ctx); !errors.Is(err, shared.ErrTimeout) {
			t.Errorf("expected ErrTimeout, got %v", err)
		}
	})
}

func TestListenAddr(t *testing.T) {
	tests := []struct {
		in, want string
		wantErr  bool
	}{
		{in: "http://localhost:3000/callback", want: "localhost:3000"},
		{in: "http://127.0.0.1/callback", want: "127.0.0.1:80"},
		{in: "not a url", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ListenAddr(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ListenAddr(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestRouter(t *testing.T) {
	var buf bytes.Buffer
	logger := shared.NewLogger(&buf)
	logger.SetLevel(log.DebugLevel)

	var order []string
	mw := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	r := NewBasicRouter()
	r.Use(Logging(logger), mw("first"), mw("second"))
	r.Handle(http.MethodPost, "/ping", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ping?code=secret", nil))
	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d", rec.Code)
	}
	if strings.Join(order, ",") != "first,second" {
		t.Errorf("middleware order = %v", order)
	}
	if !strings.Contains(buf.String(), "/ping") || strings.Contains(buf.String(), "secret") {
		t.Errorf("unexpected log output %q", buf.String())
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET status = %d, want 405", rec.Code)
	}
}
