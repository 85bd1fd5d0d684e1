package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/accounts/pkg/jwtx"
	"github.com/aussiebroadwan/accounts/pkg/slogx"
)

const defaultJWKSRefresh = 10 * time.Minute

// KeyRefresher periodically reloads the token verification keys from the
// issuer's JWKS endpoint. A failed refresh keeps the previous key set.
type KeyRefresher struct {
	Keys     *jwtx.KeySet
	URL      string
	Client   *http.Client
	Logger   *slog.Logger
	Interval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewKeyRefresher creates a refresher. If interval is 0 or negative, defaults
// to 10 minutes.
func NewKeyRefresher(keys *jwtx.KeySet, url string, logger *slog.Logger, interval time.Duration) *KeyRefresher {
	if interval <= 0 {
		interval = defaultJWKSRefresh
	}

	return &KeyRefresher{
		Keys:     keys,
		URL:      url,
		Client:   &http.Client{Timeout: 5 * time.Second},
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Refresh loads the key set once.
func (r *KeyRefresher) Refresh(ctx context.Context) error {
	if err := r.Keys.Refresh(ctx, r.Client, r.URL); err != nil {
		r.Logger.Error("failed to refresh verification keys", slog.String("url", r.URL), slogx.Err(err))
		return err
	}
	r.Logger.Debug("verification keys refreshed", slog.String("url", r.URL))
	return nil
}

// Start runs the refresh loop in the background. Call Stop to end it.
func (r *KeyRefresher) Start() {
	go r.run()
	r.Logger.Info("key refresher started", "interval", r.Interval)
}

// Stop blocks until the loop has exited.
func (r *KeyRefresher) Stop() {
	close(r.stopCh)
	<-r.doneCh
	r.Logger.Info("key refresher stopped")
}

func (r *KeyRefresher) run() {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), r.Client.Timeout)
			_ = r.Refresh(ctx)
			cancel()
		case <-r.stopCh:
			return
		}
	}
}
