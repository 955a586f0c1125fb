package server

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/desertthunder/songdl/internal/repositories"
	"github.com/desertthunder/songdl/internal/shared"
	"golang.org/x/oauth2"
)

// CallbackResult contains the outcome of a browser sign-in.
type CallbackResult struct {
	Token *oauth2.Token
	err   error
}

func (c *CallbackResult) Error() error {
	return c.err
}

// CallbackHandler receives the session credential from the login page.
//
// The page redirects to /callback?state=...&token=... or POSTs {"state","token"} as
// JSON or a form. The credential is opaque and passed through as a "Token" token.
type CallbackHandler struct {
	state       string
	resultChan  chan CallbackResult
	once        sync.Once
	callbackHit bool
	mu          sync.Mutex
}

// NewCallbackHandler creates a handler expecting state.
// The state token should be random for CSRF protection.
func NewCallbackHandler(state string) *CallbackHandler {
	return &CallbackHandler{
		state:      state,
		resultChan: make(chan CallbackResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *CallbackHandler) Routes() []string {
	return []string{"/callback"}
}

type callbackPayload struct {
	State string `json:"state"`
	Token string `json:"token"`
	Error string `json:"error"`
}

// ServeHTTP handles the callback. Only the first request is processed.
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	h.mu.Lock()
	if h.callbackHit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.callbackHit = true
	h.mu.Unlock()

	payload, err := readPayload(r)
	if err != nil {
		h.Send(CallbackResult{err: fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)})
		http.Error(w, "Invalid callback", http.StatusBadRequest)
		return
	}

	if subtle.ConstantTimeCompare([]byte(payload.State), []byte(h.state)) != 1 {
		h.Send(CallbackResult{err: fmt.Errorf("%w: invalid state parameter", shared.ErrAuthFailed)})
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	token := strings.TrimSpace(payload.Token)
	if token == "" {
		h.Send(CallbackResult{err: fmt.Errorf("%w: sign in failed: %s", shared.ErrAuthFailed, payload.Error)})
		http.Error(w, "Sign in failed", http.StatusBadRequest)
		return
	}

	h.Send(CallbackResult{Token: &oauth2.Token{AccessToken: token, TokenType: repositories.TokenType}})

	if r.Method != http.MethodGet {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
		return
	}

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, `
<!DOCTYPE html>
<html>
<head>
    <title>Signed In</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #7c3aed; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>✓ Signed In</h1>
        <p>You can close this window and return to the terminal.</p>
    </div>
</body>
</html>
`)
}

func readPayload(r *http.Request) (callbackPayload, error) {
	var p callbackPayload
	switch {
	case r.Method == http.MethodGet:
		q := r.URL.Query()
		p = callbackPayload{State: q.Get("state"), Token: q.Get("token"), Error: q.Get("error")}
	case strings.HasPrefix(r.Header.Get("Content-Type"), "application/json"):
		if err := json.NewDecoder(io.LimitReader(r.Body, 64<<10)).Decode(&p); err != nil {
			return p, fmt.Errorf("malformed body: %w", err)
		}
	default:
		if err := r.ParseForm(); err != nil {
			return p, fmt.Errorf("malformed form: %w", err)
		}
		p = callbackPayload{State: r.Form.Get("state"), Token: r.Form.Get("token"), Error: r.Form.Get("error")}
	}
	return p, nil
}

// Send sends the result through the channel (only once).
func (h *CallbackHandler) Send(result CallbackResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel for receiving sign-in completion.
//
// Channel will receive exactly one result and then be closed.
func (h *CallbackHandler) Result() <-chan CallbackResult {
	return h.resultChan
}
