package pinger

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"chess_sync/internal/bootstrap"
)

const pingInterval = 14 * time.Minute

// Pinger пингует сам себя, чтобы бесплатный хостинг не усыплял процесс.
type Pinger struct {
	cfg    bootstrap.Config
	log    *zap.SugaredLogger
	client *http.Client
}

func NewPinger(cfg bootstrap.Config, log *zap.SugaredLogger) *Pinger {
	return &Pinger{
		cfg:    cfg,
		log:    log,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Run блокируется до отмены контекста. Если SELF_PING_URL не задан,
// выходит сразу.
func (p *Pinger) Run(ctx context.Context) {
	if p.cfg.SelfPingUrl == "" {
		return
	}

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.ping(ctx)
		}
	}
}

func (p *Pinger) ping(ctx context.Context) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.SelfPingUrl, nil)
	if err != nil {
		p.log.Errorf("self ping request error: %v", err)
		return
	}

	resp, err := p.client.Do(req)
	if err != nil {
		p.log.Errorf("self ping failed: %v", err)
		return
	}
	resp.Body.Close()

	p.log.Debugf("self ping: %s", resp.Status)
}
