package autoreply

import (
	"context"
	"time"

	"github.com/anonto42/page-comments/backend/pkg/logging"
)

// Poller runs Sync for one page on a fixed interval
type Poller struct {
	syncer   *Syncer
	pageID   string
	interval time.Duration
	logger   logging.Logger
}

func NewPoller(syncer *Syncer, pageID string, interval time.Duration, logger logging.Logger) *Poller {
	return &Poller{syncer: syncer, pageID: pageID, interval: interval, logger: logger}
}

// Run syncs once immediately and then on every tick until ctx is done
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.WithFields(logging.Fields{
		"page_id":  p.pageID,
		"interval": p.interval.String(),
	}).Info("Comment poller started")

	p.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Comment poller stopped")
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	if _, err := p.syncer.Sync(ctx, p.pageID); err != nil && ctx.Err() == nil {
		p.logger.WithField("page_id", p.pageID).WithError(err).Error("Comment poll failed")
	}
}
