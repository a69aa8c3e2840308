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
	"github.com/desertthunder/playsync/internal/shared"
	"golang.org/x/oauth2"
)

func newTokenServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("failed to parse form: %v", err)
		}
		if r.Form.Get("code") != "good-code" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			io.WriteString(w, `{"error":"invalid_grant"}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"access_token":"access-1","refresh_token":"refresh-1","token_type":"Bearer","expires_in":3600}`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(tokenURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     "client",
		ClientSecret: "secret",
		Endpoint:     oauth2.Endpoint{AuthURL: "https://accounts.example.com/auth", TokenURL: tokenURL},
		Scopes:       []string{"scope"},
	}
}

func TestBasicRouter(t *testing.T) {
	t.Run("filters methods", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handle(http.MethodGet, "/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, "pong")
		}))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
		if rec.Code != http.StatusOK || rec.Body.String() != "pong" {
			t.Errorf("expected pong, got %d %q", rec.Code, rec.Body.String())
		}

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ping", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})

	t.Run("applies middleware in order", func(t *testing.T) {
		var order []string
		mw := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		router := NewBasicRouter()
		router.Use(mw("first"), mw("second"))
		router.Handle(http.MethodGet, "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler")
		}))

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		if strings.Join(order, ",") != "first,second,handler" {
			t.Errorf("unexpected order %v", order)
		}
	})

	t.Run("request logger omits query", func(t *testing.T) {
		var buf bytes.Buffer
		logger := log.New(&buf)
		logger.SetLevel(log.DebugLevel)

		router := NewBasicRouter()
		router.Use(RequestLogger(logger))
		router.Handle(http.MethodGet, "/callback", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/callback?code=secret", nil))

		out := buf.String()
		if !strings.Contains(out, "status=418") || !strings.Contains(out, "path=/callback") {
			t.Errorf("unexpected log output %q", out)
		}
		if strings.Contains(out, "secret") {
			t.Errorf("query string should not be logged: %q", out)
		}
	})
}

func TestOAuthHandler(t *testing.T) {
	tokenServer := newTokenServer(t)

	t.Run("exchanges code", func(t *testing.T) {
		h := NewOAuthHandler(testConfig(tokenServer.URL), "state-1")

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=state-1&code=good-code", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Authorization Successful") {
			t.Errorf("expected success page, got %s", rec.Body.String())
		}

		result := <-h.Result()
		if result.Error() != nil {
			t.Fatalf("unexpected error: %v", result.Error())
		}
		if result.Token.AccessToken != "access-1" || result.Token.RefreshToken != "refresh-1" {
			t.Errorf("unexpected token %+v", result.Token)
		}

		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=state-1&code=good-code", nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("second callback should be rejected, got %d", rec.Code)
		}
	})

	tc := []struct {
		name   string
		query  string
		status int
	}{
		{name: "wrong state", query: "state=other&code=good-code", status: http.StatusBadRequest},
		{name: "missing state", query: "code=good-code", status: http.StatusBadRequest},
		{name: "consent denied", query: "state=state-1&error=access_denied", status: http.StatusBadRequest},
		{name: "exchange fails", query: "state=state-1&code=bad-code", status: http.StatusInternalServerError},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			h := NewOAuthHandler(testConfig(tokenServer.URL), "state-1")

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?"+tt.query, nil))
			if rec.Code != tt.status {
				t.Errorf("expected %d, got %d", tt.status, rec.Code)
			}
			if !strings.Contains(rec.Body.String(), "Authorization Failed") {
				t.Errorf("expected failure page, got %s", rec.Body.String())
			}

			result := <-h.Result()
			if !errors.Is(result.Error(), shared.ErrAuthFailed) {
				t.Errorf("expected ErrAuthFailed, got %v", result.Error())
			}
		})
	}
}

func TestLoopback(t *testing.T) {
	tokenServer := newTokenServer(t)
	logger := log.New(io.Discard)

	t.Run("receives token", func(t *testing.T) {
		lb, err := StartLoopback("127.0.0.1:0", testConfig(tokenServer.URL), "state-1", logger)
		if err != nil {
			t.Fatalf("failed to start loopback: %v", err)
		}

		authURL, err := url.Parse(lb.AuthURL())
		if err != nil {
			t.Fatalf("invalid auth url: %v", err)
		}
		q := authURL.Query()
		if q.Get("state") != "state-1" || q.Get("access_type") != "offline" {
			t.Errorf("unexpected auth url query %v", q)
		}
		if q.Get("redirect_uri") != lb.RedirectURL() {
			t.Errorf("expected redirect_uri %s, got %s", lb.RedirectURL(), q.Get("redirect_uri"))
		}

		go func() {
			resp, err := http.Get(lb.RedirectURL() + "?state=state-1&code=good-code")
			if err != nil {
				t.Errorf("callback request failed: %v", err)
				return
			}
			resp.Body.Close()
		}()

		tok, err := lb.Wait(context.Background(), 5*time.Second)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tok.AccessToken != "access-1" {
			t.Errorf("unexpected token %+v", tok)
		}
	})

	t.Run("times out", func(t *testing.T) {
		lb, err := StartLoopback("127.0.0.1:0", testConfig(tokenServer.URL), "state-1", logger)
		if err != nil {
			t.Fatalf("failed to start loopback: %v", err)
		}

		_, err = lb.Wait(context.Background(), 10*time.Millisecond)
		if !errors.Is(err, shared.ErrTimeout) {
			t.Errorf("expected ErrTimeout, got %v", err)
		}
	})

	t.Run("canceled", func(t *testing.T) {
		lb, err := StartLoopback("127.0.0.1:0", testConfig(tokenServer.URL), "state-1", logger)
		if err != nil {
			t.Fatalf("failed to start loopback: %v", err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := lb.Wait(ctx, time.Minute); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("address in use", func(t *testing.T) {
		lb, err := StartLoopback("127.0.0.1:0", testConfig(tokenServer.URL), "s", logger)
		if err != nil {
			t.Fatalf("failed to start loopback: %v", err)
		}
		defer lb.Close()

		addr := strings.TrimSuffix(strings.TrimPrefix(lb.RedirectURL(), "http://"), CallbackPath)
		if _, err := StartLoopback(addr, testConfig(tokenServer.URL), "s", logger); err == nil {
			t.Error("expected error binding a used port")
		}
	})
}
