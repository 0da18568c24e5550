package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/rollcall/pkg/jwtx"
)

// KeyRefresher keeps a KeySet in sync with the auth service's JWKS endpoint
// so key rotations there are picked up without a restart.
type KeyRefresher struct {
	Keys     *jwtx.KeySet
	URL      string
	Interval time.Duration
	Client   *http.Client
	Logger   *slog.Logger

	stopCh chan struct{}
	doneCh chan struct{}
}

// InitVerifierKeys loads the verification keys named by cfg. A JWKS file is
// loaded once and must be usable. A JWKS URL that cannot be reached at
// startup is not fatal: the service comes up unready and the returned
// refresher keeps trying.
func InitVerifierKeys(ctx context.Context, cfg Config, logger *slog.Logger) (*jwtx.KeySet, *KeyRefresher, error) {
	keys := jwtx.NewKeySet()

	if cfg.JWKSFile != "" {
		jwks, err := jwtx.LoadJWKSFile(cfg.JWKSFile)
		if err != nil {
			return nil, nil, err
		}
		if err := keys.ResetFromJWKS(jwks); err != nil {
			return nil, nil, fmt.Errorf("load %s: %w", cfg.JWKSFile, err)
		}
		logger.Info("verification keys loaded from file", "path", cfg.JWKSFile, "num_keys", keys.Len())
	}

	if cfg.JWKSURL == "" {
		return keys, nil, nil
	}

	r := &KeyRefresher{
		Keys:     keys,
		URL:      cfg.JWKSURL,
		Interval: cfg.JWKSRefresh,
		Client:   &http.Client{Timeout: 10 * time.Second},
		Logger:   logger,
	}
	if err := r.Refresh(ctx); err != nil {
		logger.Warn("initial jwks fetch failed, service is not ready until it succeeds",
			"url", cfg.JWKSURL, "error", err)
	}
	return keys, r, nil
}

// Refresh fetches the JWKS once and swaps it in.
func (r *KeyRefresher) Refresh(ctx context.Context) error {
	jwks, err := jwtx.FetchJWKS(ctx, r.Client, r.URL)
	if err != nil {
		return err
	}
	if err := r.Keys.ResetFromJWKS(jwks); err != nil {
		return err
	}
	r.Logger.Debug("jwks refreshed", "num_keys", r.Keys.Len())
	return nil
}

// Start begins periodic refreshes. Call Stop to shut it down.
func (r *KeyRefresher) Start() {
	if r.Interval <= 0 {
		r.Interval = 5 * time.Minute
	}
	r.stopCh = make(chan struct{})
	r.doneCh = make(chan struct{})

	go r.run()
	r.Logger.Info("jwks refresher started", "url", r.URL, "interval", r.Interval)
}

// Stop blocks until the refresher has exited.
func (r *KeyRefresher) Stop() {
	close(r.stopCh)
	<-r.doneCh
}

func (r *KeyRefresher) run() {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), r.Client.Timeout)
			if err := r.Refresh(ctx); err != nil {
				r.Logger.Warn("jwks refresh failed, keeping current keys", "error", err)
			}
			cancel()
		case <-r.stopCh:
			return
		}
	}
}
