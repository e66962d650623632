package gmail

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/hupe1980/mailmesh/logging"
)

// CallbackPath is the loopback redirect path registered with the router.
const CallbackPath = "/callback"

var (
	// ErrStateMismatch is returned when the callback state does not match.
	ErrStateMismatch = errors.New("oauth state mismatch")
	// ErrAuthDenied is returned when the consent screen reports an error.
	ErrAuthDenied = errors.New("oauth authorization denied")
)

// AuthOptions configures Authorize.
type AuthOptions struct {
	// ListenAddr is the loopback address of the redirect server. Port 0
	// picks a free port.
	ListenAddr string
	// Timeout bounds the wait for the browser callback.
	Timeout time.Duration
	// OpenURL presents the consent URL to the user.
	OpenURL func(url string) error
	Logger  logging.Logger
}

type callbackResult struct {
	code string
	err  error
}

// Authorize runs the installed-app flow and saves the resulting token to
// tokenFile.
func Authorize(ctx context.Context, cfg *oauth2.Config, tokenFile string, optFns ...func(o *AuthOptions)) (*oauth2.Token, error) {
	opts := AuthOptions{
		ListenAddr: "127.0.0.1:0",
		Timeout:    5 * time.Minute,
		OpenURL:    func(string) error { return nil },
		Logger:     logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	ln, err := net.Listen("tcp", opts.ListenAddr)
	if err != nil {
		return nil, fmt.Errorf("listen for oauth callback: %w", err)
	}

	conf := *cfg
	conf.RedirectURL = "http://" + ln.Addr().String() + CallbackPath

	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()
	results := make(chan callbackResult, 1)

	srv := &http.Server{
		Handler:           newCallbackRouter(state, results),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			opts.Logger.Error("gmail.auth.server_failed", "error", err)
		}
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	authURL := conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.S256ChallengeOption(verifier))
	opts.Logger.Info("gmail.auth.start", "redirect", conf.RedirectURL)

	if err := opts.OpenURL(authURL); err != nil {
		return nil, fmt.Errorf("open consent url: %w", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	var res callbackResult
	select {
	case <-waitCtx.Done():
		return nil, fmt.Errorf("wait for oauth callback: %w", waitCtx.Err())
	case res = <-results:
	}

	if res.err != nil {
		return nil, res.err
	}

	tok, err := conf.Exchange(ctx, res.code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	if err := SaveToken(tokenFile, tok); err != nil {
		return nil, err
	}

	opts.Logger.Info("gmail.auth.success", "token_file", tokenFile)

	return tok, nil
}

// newCallbackRouter serves the redirect endpoint. Only the first callback is
// delivered to results.
func newCallbackRouter(state string, results chan<- callbackResult) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get(CallbackPath, func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()

		var res callbackResult
		switch {
		case q.Get("state") != state:
			res.err = ErrStateMismatch
		case q.Get("error") != "":
			res.err = fmt.Errorf("%w: %s", ErrAuthDenied, q.Get("error"))
		case q.Get("code") == "":
			res.err = fmt.Errorf("%w: callback without code", ErrAuthDenied)
		default:
			res.code = q.Get("code")
		}

		select {
		case results <- res:
		default:
		}

		if res.err != nil {
			http.Error(w, html.EscapeString(res.err.Error()), http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<p>mailmesh is authorized. You can close this window.</p>"))
	})

	return r
}
