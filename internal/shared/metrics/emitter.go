package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"targetsync/internal/shared/logger"
)

// Emitter periodically logs a snapshot of the registered sync metrics.
// It runs independently of the sync loop and shares no state with it
// beyond the metric values themselves.
type Emitter struct {
	gatherer prometheus.Gatherer
	interval time.Duration
	logger   logger.Interface
	stopCh   chan struct{}
}

// NewEmitter creates an emitter over the default registry.
func NewEmitter(interval time.Duration, log logger.Interface) *Emitter {
	return &Emitter{
		gatherer: prometheus.DefaultGatherer,
		interval: interval,
		logger:   log,
		stopCh:   make(chan struct{}),
	}
}

// Start begins emitting snapshots until Stop is called.
func (e *Emitter) Start() {
	ticker := time.NewTicker(e.interval)
	go func() {
		for {
			select {
			case <-ticker.C:
				e.emit()
			case <-e.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the emitter.
func (e *Emitter) Stop() {
	close(e.stopCh)
}

func (e *Emitter) emit() {
	families, err := e.gatherer.Gather()
	if err != nil {
		e.logger.Errorw("failed to gather metrics", "error", err)
		return
	}

	fields := make([]interface{}, 0, 2*len(families))
	for _, mf := range families {
		if len(mf.GetMetric()) != 1 {
			continue
		}
		m := mf.GetMetric()[0]
		switch {
		case m.GetCounter() != nil:
			fields = append(fields, mf.GetName(), m.GetCounter().GetValue())
		case m.GetGauge() != nil:
			fields = append(fields, mf.GetName(), m.GetGauge().GetValue())
		}
	}
	e.logger.Infow("metrics snapshot", fields...)
}
