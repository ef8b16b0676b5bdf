package metrics

import (
	"time"

	"github.com/scribehq/scribe/pkg/log"
	"github.com/scribehq/scribe/pkg/storage"
)

// Collector periodically derives store-level gauges (session counts)
// from the event store. Counters are incremented inline on the write
// path; only state that must be read back lives here.
type Collector struct {
	store  storage.Store
	stopCh chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(store storage.Store) *Collector {
	return &Collector{
		store:  store,
		stopCh: make(chan struct{}),
	}
}

// Start begins collecting metrics
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		// Collect immediately on start
		c.collect()

		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	sessions, err := c.store.ListSessions()
	if err != nil {
		logger := log.WithComponent("metrics")
		logger.Warn().Err(err).Msg("failed to list sessions")
		return
	}

	active := 0
	for _, session := range sessions {
		if !session.Ended() {
			active++
		}
	}

	SessionsTotal.Set(float64(len(sessions)))
	SessionsActive.Set(float64(active))
}
