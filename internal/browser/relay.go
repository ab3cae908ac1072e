package browser

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultSettleDelay is how long the relay waits between raising a window and
// activating the tab, giving the window manager time to finish the raise
const DefaultSettleDelay = 100 * time.Millisecond

// Relay brings tabs to the front without blocking its caller. Each Focus runs
// in its own goroutine; failures are logged and never reported back.
type Relay struct {
	ctl    Controller
	settle time.Duration
	log    logrus.FieldLogger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRelay creates a relay over ctl
func NewRelay(ctl Controller, settle time.Duration, logger logrus.FieldLogger) *Relay {
	if settle < 0 {
		settle = 0
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Relay{
		ctl:    ctl,
		settle: settle,
		log:    logger.WithField("component", "relay"),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Focus raises the window owning tabID, waits for it to settle, then marks
// the tab active. It returns immediately.
func (r *Relay) Focus(tabID string) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		log := r.log.WithField("tab_id", tabID)

		if err := r.ctl.RaiseWindow(r.ctx, tabID); err != nil {
			log.WithError(err).Warn("failed to raise window")
			return
		}

		select {
		case <-time.After(r.settle):
		case <-r.ctx.Done():
			return
		}

		if err := r.ctl.FocusTab(r.ctx, tabID); err != nil {
			log.WithError(err).Warn("failed to focus tab")
			return
		}
		log.Debug("tab focused")
	}()
}

// Wait blocks until every pending Focus has finished
func (r *Relay) Wait() {
	r.wg.Wait()
}

// Close abandons pending focus requests and waits for their goroutines
func (r *Relay) Close() {
	r.cancel()
	r.wg.Wait()
}
