package metrics

import "github.com/prometheus/client_golang/prometheus"

// IngestMetrics counts the outcomes of the public collection endpoints.
type IngestMetrics struct {
	eventsRecorded    prometheus.Counter
	batchesRejected   prometheus.Counter
	batchesSuppressed prometheus.Counter
	pageViews         prometheus.Counter
}

// NewIngestMetrics registers the ingest counters on the provided registerer.
func NewIngestMetrics(reg prometheus.Registerer) *IngestMetrics {
	if reg == nil {
		return &IngestMetrics{}
	}
	m := &IngestMetrics{
		eventsRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ingest_events_recorded_total",
			Help: "Analytics events accepted and written.",
		}),
		batchesRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ingest_batches_rejected_total",
			Help: "Event batches rejected by validation.",
		}),
		batchesSuppressed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ingest_batches_suppressed_total",
			Help: "Event batches dropped because of DNT/GPC headers.",
		}),
		pageViews: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ingest_page_views_total",
			Help: "Page views recorded.",
		}),
	}
	reg.MustRegister(m.eventsRecorded, m.batchesRejected, m.batchesSuppressed, m.pageViews)
	return m
}

// AddEventsRecorded adds n accepted events.
func (m *IngestMetrics) AddEventsRecorded(n int) {
	if m == nil || m.eventsRecorded == nil {
		return
	}
	m.eventsRecorded.Add(float64(n))
}

// IncBatchRejected counts a rejected batch.
func (m *IngestMetrics) IncBatchRejected() {
	if m == nil || m.batchesRejected == nil {
		return
	}
	m.batchesRejected.Inc()
}

// IncBatchSuppressed counts a privacy-suppressed batch.
func (m *IngestMetrics) IncBatchSuppressed() {
	if m == nil || m.batchesSuppressed == nil {
		return
	}
	m.batchesSuppressed.Inc()
}

// IncPageView counts a recorded page view.
func (m *IngestMetrics) IncPageView() {
	if m == nil || m.pageViews == nil {
		return
	}
	m.pageViews.Inc()
}
