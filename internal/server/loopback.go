package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playsync/internal/shared"
	"golang.org/x/oauth2"
)

// DefaultAuthTimeout bounds how long a loopback waits for the consent callback.
const DefaultAuthTimeout = 2 * time.Minute

// Loopback is a temporary local server receiving one OAuth2 callback.
type Loopback struct {
	config  *oauth2.Config
	handler *OAuthHandler
	server  *http.Server
	errs    chan error
	logger  *log.Logger
}

// StartLoopback listens on addr and serves the callback for state.
//
// conf is copied and its RedirectURL points at the bound address, so port 0 picks a free port.
func StartLoopback(addr string, conf *oauth2.Config, state string, logger *log.Logger) (*Loopback, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	c := *conf
	c.RedirectURL = "http://" + ln.Addr().String() + CallbackPath

	handler := NewOAuthHandler(&c, state)
	router := NewBasicRouter()
	router.Use(RequestLogger(logger))
	router.Handler(handler)

	l := &Loopback{
		config:  &c,
		handler: handler,
		server:  &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second},
		errs:    make(chan error, 1),
		logger:  logger,
	}

	go func() {
		logger.Debug("starting OAuth server", "addr", ln.Addr().String())
		if err := l.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.errs <- err
		}
	}()

	return l, nil
}

// AuthURL returns the consent URL, requesting a refresh token.
func (l *Loopback) AuthURL() string {
	return l.config.AuthCodeURL(l.handler.state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// RedirectURL returns the callback URL registered with the provider.
func (l *Loopback) RedirectURL() string {
	return l.config.RedirectURL
}

// Wait blocks until the callback completes, the timeout elapses or ctx is done, then shuts the server down.
func (l *Loopback) Wait(ctx context.Context, timeout time.Duration) (*oauth2.Token, error) {
	defer l.Close()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var result OAuthResult
	select {
	case result = <-l.handler.Result():
	case err := <-l.errs:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timer.C:
		return nil, fmt.Errorf("%w: authorization timed out after %s", shared.ErrTimeout, timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if result.Error() != nil {
		return nil, result.Error()
	}
	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}
	return result.Token, nil
}

// Close shuts the server down.
func (l *Loopback) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := l.server.Shutdown(ctx); err != nil {
		l.logger.Warn("error shutting down server", "error", err)
		return err
	}
	return nil
}
