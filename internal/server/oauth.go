package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/desertthunder/maestro/internal/shared"
	"github.com/go-chi/chi/v5"
	"golang.org/x/oauth2"
)

// Exchanger trades an authorization code for a token.
type Exchanger interface {
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
}

// OAuthResult is the outcome of one Spotify authorization.
type OAuthResult struct {
	Token *oauth2.Token
	err   error
}

func (o OAuthResult) Error() error { return o.err }

// callbackError pairs the error reported to the CLI with the status shown in the browser.
type callbackError struct {
	status int
	page   string
	err    error
}

// OAuthHandler receives the redirect that finishes `maestro spotify connect`.
//
// Only the first callback is processed.
type OAuthHandler struct {
	exchanger Exchanger
	state     string

	handled atomic.Bool
	once    sync.Once
	results chan OAuthResult
}

// NewOAuthHandler expects callbacks to echo state.
func NewOAuthHandler(exchanger Exchanger, state string) *OAuthHandler {
	return &OAuthHandler{exchanger: exchanger, state: state, results: make(chan OAuthResult, 1)}
}

// Routes mounts the handler at /callback.
func (h *OAuthHandler) Routes(r chi.Router) {
	r.Get("/callback", h.ServeHTTP)
}

func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.handled.CompareAndSwap(false, true) {
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}

	token, cerr := h.authorize(r)
	if cerr != nil {
		h.Send(OAuthResult{err: cerr.err})
		http.Error(w, cerr.page, cerr.status)
		return
	}

	h.Send(OAuthResult{Token: token})
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, callbackPage)
}

func (h *OAuthHandler) authorize(r *http.Request) (*oauth2.Token, *callbackError) {
	q := r.URL.Query()
	if q.Get("state") != h.state {
		return nil, &callbackError{
			status: http.StatusBadRequest,
			page:   "Invalid state parameter",
			err:    fmt.Errorf("%w: invalid state parameter", shared.ErrAuthFailed),
		}
	}

	code := q.Get("code")
	if code == "" {
		reason := q.Get("error")
		if d := q.Get("error_description"); d != "" {
			reason += " - " + d
		}
		if reason == "" {
			reason = "no authorization code"
		}
		return nil, &callbackError{
			status: http.StatusBadRequest,
			page:   "Authorization failed",
			err:    fmt.Errorf("%w: %s", shared.ErrAuthFailed, reason),
		}
	}

	token, err := h.exchanger.Exchange(r.Context(), code)
	if err != nil {
		return nil, &callbackError{
			status: http.StatusInternalServerError,
			page:   "Token exchange failed",
			err:    fmt.Errorf("%w: token exchange failed: %w", shared.ErrAuthFailed, err),
		}
	}
	return token, nil
}

// Send delivers result if nothing has been delivered yet.
func (h *OAuthHandler) Send(result OAuthResult) {
	h.once.Do(func() {
		h.results <- result
		close(h.results)
	})
}

// Result yields exactly one [OAuthResult].
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.results
}

const callbackPage = `<!DOCTYPE html>
<html>
<head>
    <title>Spotify Connected</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #111827; }
        .container { text-align: center; background: #1f2937; padding: 2rem; border-radius: 8px; }
        h1 { color: #c084fc; margin: 0 0 1rem 0; }
        p { color: #9ca3af; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>Maestro is connected to Spotify</h1>
        <p>You can close this window and return to the terminal.</p>
    </div>
</body>
</html>
`
