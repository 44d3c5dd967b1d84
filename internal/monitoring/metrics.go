package monitoring

import "sync/atomic"

// Metrics collects operational counters for the ledger. Counters are updated
// atomically; emission to an external sink is out of scope, the current
// values are exposed on the /metrics endpoint.
type Metrics struct {
	accountsCreated    atomic.Int64
	transfersCompleted atomic.Int64
	transfersFailed    atomic.Int64

	eventsPublished atomic.Int64
	publishFailed   atomic.Int64
	publishDropped  atomic.Int64

	eventsProcessed atomic.Int64
	eventsDuplicate atomic.Int64
	eventsDropped   atomic.Int64

	breakerRejections atomic.Int64
}

func New() *Metrics {
	return &Metrics{}
}

func (m *Metrics) IncAccountsCreated()    { m.accountsCreated.Add(1) }
func (m *Metrics) IncTransfersCompleted() { m.transfersCompleted.Add(1) }
func (m *Metrics) IncTransfersFailed()    { m.transfersFailed.Add(1) }

func (m *Metrics) IncEventsPublished() { m.eventsPublished.Add(1) }
func (m *Metrics) IncPublishFailed()   { m.publishFailed.Add(1) }
func (m *Metrics) IncPublishDropped()  { m.publishDropped.Add(1) }

func (m *Metrics) IncEventsProcessed() { m.eventsProcessed.Add(1) }
func (m *Metrics) IncEventsDuplicate() { m.eventsDuplicate.Add(1) }

// IncEventsDropped records a projection whose retries were exhausted. The
// affected read view stays stale until corrected out of band.
func (m *Metrics) IncEventsDropped() { m.eventsDropped.Add(1) }

func (m *Metrics) IncBreakerRejections() { m.breakerRejections.Add(1) }

// EventsDropped returns the number of events dropped after retry exhaustion.
func (m *Metrics) EventsDropped() int64 { return m.eventsDropped.Load() }

// Snapshot returns the current counter values keyed by metric name.
func (m *Metrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"accounts_created":    m.accountsCreated.Load(),
		"transfers_completed": m.transfersCompleted.Load(),
		"transfers_failed":    m.transfersFailed.Load(),
		"events_published":    m.eventsPublished.Load(),
		"publish_failed":      m.publishFailed.Load(),
		"publish_dropped":     m.publishDropped.Load(),
		"events_processed":    m.eventsProcessed.Load(),
		"events_duplicate":    m.eventsDuplicate.Load(),
		"events_dropped":      m.eventsDropped.Load(),
		"breaker_rejections":  m.breakerRejections.Load(),
	}
}
