package server

import (
	"crypto/subtle"
	"fmt"
	"html/template"
	"net/http"
	"sync"

	"github.com/desertthunder/playsync/internal/shared"
	"golang.org/x/oauth2"
)

// OAuthResult contains the result of an OAuth authorization flow.
type OAuthResult struct {
	Token *oauth2.Token
	err   error
}

func (o *OAuthResult) Error() error {
	return o.err
}

// OAuthHandler handles the Google OAuth2 authorization code callback.
// Implements the Handler interface for registration with a Router.
type OAuthHandler struct {
	config      *oauth2.Config
	state       string
	resultChan  chan OAuthResult
	once        sync.Once
	callbackHit bool
	mu          sync.Mutex
}

// NewOAuthHandler creates a handler expecting state on the callback. config.RedirectURL must
// point at [CallbackPath] on the server the handler is mounted on.
func NewOAuthHandler(config *oauth2.Config, state string) *OAuthHandler {
	return &OAuthHandler{
		config:     config,
		state:      state,
		resultChan: make(chan OAuthResult, 1),
	}
}

// CallbackPath is the path Google redirects to after consent.
const CallbackPath = "/callback"

// Routes returns the HTTP routes this handler serves.
func (h *OAuthHandler) Routes() []string {
	return []string{CallbackPath}
}

// ServeHTTP accepts the first callback only. It checks the state, exchanges the code and
// publishes the outcome on [OAuthHandler.Result]; later callbacks are rejected.
func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.callbackHit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.callbackHit = true
	h.mu.Unlock()

	state := r.URL.Query().Get("state")
	if state == "" || subtle.ConstantTimeCompare([]byte(state), []byte(h.state)) != 1 {
		h.fail(w, http.StatusBadRequest, fmt.Errorf("%w: invalid state parameter", shared.ErrAuthFailed))
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		reason := r.URL.Query().Get("error")
		if reason == "" {
			reason = "no authorization code"
		}
		if desc := r.URL.Query().Get("error_description"); desc != "" {
			reason += " (" + desc + ")"
		}
		h.fail(w, http.StatusBadRequest, fmt.Errorf("%w: %s", shared.ErrAuthFailed, reason))
		return
	}

	token, err := h.config.Exchange(r.Context(), code)
	if err != nil {
		h.fail(w, http.StatusInternalServerError, fmt.Errorf("%w: token exchange failed: %w", shared.ErrAuthFailed, err))
		return
	}

	h.Send(OAuthResult{Token: token})
	renderPage(w, http.StatusOK, callbackPage{
		Title:   "Authorization Successful",
		Message: "playsync can now manage your playlists. You can close this window and return to the terminal.",
		OK:      true,
	})
}

// fail reports err to the waiting command and shows it in the browser.
func (h *OAuthHandler) fail(w http.ResponseWriter, status int, err error) {
	h.Send(OAuthResult{err: err})
	renderPage(w, status, callbackPage{
		Title:   "Authorization Failed",
		Message: err.Error() + ". Run 'playsync auth login' to try again.",
	})
}

type callbackPage struct {
	Title   string
	Message string
	OK      bool
}

var pageTmpl = template.Must(template.New("callback").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>{{.Title}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem; max-width: 32rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { margin: 0 0 1rem 0; }
        .ok { color: #04B575; }
        .err { color: #FF0033; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1 class="{{if .OK}}ok{{else}}err{{end}}">{{if .OK}}✓{{else}}✗{{end}} {{.Title}}</h1>
        <p>{{.Message}}</p>
    </div>
</body>
</html>
`))

func renderPage(w http.ResponseWriter, status int, page callbackPage) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = pageTmpl.Execute(w, page)
}

// Send sends the OAuth result through the channel (only once).
func (h *OAuthHandler) Send(result OAuthResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel for receiving OAuth flow completion.
//
// Channel will receive exactly one result and then be closed.
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.resultChan
}
