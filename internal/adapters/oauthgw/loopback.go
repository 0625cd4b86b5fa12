package oauthgw

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"
)

// loopbackPage is served to the browser once the redirect lands.
const loopbackPage = `<!DOCTYPE html>
<html><body>
<p>Sign-in complete. You may close this window.</p>
</body></html>`

// NewLoopbackGrabber returns a CodeGrabber that listens on the host and
// path of redirectURL, logs the provider URL for the user to open, and
// waits for the provider to redirect back with code and state.
//
// The listener is started per sign-in and torn down when the redirect
// arrives or the context is done.
func NewLoopbackGrabber(redirectURL string, logger *slog.Logger) (CodeGrabber, error) {
	u, err := url.Parse(redirectURL)
	if err != nil {
		return nil, fmt.Errorf("parse redirect URL: %w", err)
	}
	if u.Host == "" {
		return nil, errors.New("redirect URL must include a host")
	}
	if logger == nil {
		logger = slog.Default()
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	host := u.Host

	return func(ctx context.Context, authURL string) (string, string, error) {
		listener, err := net.Listen("tcp", host)
		if err != nil {
			return "", "", fmt.Errorf("listen on %s: %w", host, err)
		}

		type redirect struct {
			code  string
			state string
		}
		results := make(chan redirect, 1)

		mux := http.NewServeMux()
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			fmt.Fprint(w, loopbackPage)
			select {
			case results <- redirect{code: q.Get("code"), state: q.Get("state")}:
			default:
			}
		})

		server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
		go func() {
			// ErrServerClosed is the normal shutdown path.
			if serveErr := server.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
				logger.Error("loopback listener failed", "error", serveErr)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}()

		logger.Info("open this URL in your browser to sign in", slog.String("url", authURL))

		select {
		case r := <-results:
			if r.code == "" {
				return "", "", errors.New("redirect arrived without a code")
			}
			return r.code, r.state, nil
		case <-ctx.Done():
			return "", "", ctx.Err()
		}
	}, nil
}
