// Package proxy puts the request pipeline in front of an upstream HTTP
// service.
package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tkingovr/reqguard/internal/filter"
)

// Proxy is a reverse proxy that only forwards requests the pipeline accepts.
type Proxy struct {
	target       *url.URL
	reverseProxy *httputil.ReverseProxy
	guard        *Guard
	router       chi.Router
	logger       *slog.Logger
}

// NewProxy creates a guarded reverse proxy targeting the given URL.
func NewProxy(target *url.URL, guard *Guard, logger *slog.Logger) (*Proxy, error) {
	if target == nil || target.Host == "" {
		return nil, errors.New("proxy target is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	p := &Proxy{
		target: target,
		guard:  guard,
		logger: logger,
	}

	rp := httputil.NewSingleHostReverseProxy(target)
	rp.ModifyResponse = p.modifyResponse
	rp.ErrorHandler = p.errorHandler
	p.reverseProxy = rp

	r := chi.NewRouter()
	r.Use(guard.Middleware)
	r.Get("/healthz", p.handleHealth)
	r.Handle("/*", rp)
	p.router = r

	return p, nil
}

// ServeHTTP handles incoming HTTP requests.
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.router.ServeHTTP(w, r)
}

// modifyResponse keeps the pipeline's headers authoritative: upstream
// copies of them are dropped, as is X-Powered-By.
func (p *Proxy) modifyResponse(resp *http.Response) error {
	resp.Header.Del("X-Powered-By")
	fc, ok := filter.FromContext(resp.Request.Context())
	if !ok {
		return nil
	}
	for k := range fc.Header {
		resp.Header.Del(k)
	}
	return nil
}

func (p *Proxy) errorHandler(w http.ResponseWriter, r *http.Request, err error) {
	p.logger.Error("proxy error", "error", err, "url", r.URL.String())
	RenderFailure(w, badGateway(), nil)
}

func (p *Proxy) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// ListenAndServe starts the proxy and shuts it down when ctx is done.
func (p *Proxy) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           p,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	p.logger.Info("starting reqguard proxy",
		"listen", addr,
		"target", p.target.String(),
	)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down proxy: %w", err)
	}
	return nil
}
