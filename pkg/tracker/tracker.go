// Package tracker is the embeddable analytics client used by frontends that
// render catalog pages server-side. It queues events in memory and ships them
// to the collection API in batches, flushing on an interval, when the batch
// cap is reached, and on Close. All collection is disabled when the visitor
// carries a privacy opt-out signal.
package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

const (
	defaultFlushInterval = 5 * time.Second
	defaultMaxBatchSize  = 20
	defaultSendTimeout   = 5 * time.Second
)

// Event is a single interaction captured against a listing.
type Event struct {
	Name            string `json:"event_name"`
	ListingID       string `json:"listing_id"`
	Surface         string `json:"surface,omitempty"`
	Position        *int   `json:"position,omitempty"`
	DestinationType string `json:"destination_type,omitempty"`
	SearchQuery     string `json:"search_query,omitempty"`
	Referrer        string `json:"referrer,omitempty"`
}

type batchPayload struct {
	SessionID      string  `json:"session_id"`
	DeviceCategory string  `json:"device_category,omitempty"`
	Events         []Event `json:"events"`
}

// Options configures a Tracker.
type Options struct {
	// Endpoint is the absolute URL of the batch collection endpoint.
	Endpoint string
	// SessionID identifies the browsing session events are attributed to.
	SessionID string
	// DeviceCategory is forwarded verbatim with every batch (optional).
	DeviceCategory string
	// Signals carries the visitor's privacy opt-out state. When opted out the
	// Tracker accepts calls but records and transmits nothing.
	Signals Signals

	HTTPClient    *http.Client
	FlushInterval time.Duration
	MaxBatchSize  int
}

// Tracker buffers events and flushes them in batches. Safe for concurrent use.
type Tracker struct {
	endpoint       string
	sessionID      string
	deviceCategory string
	client         *http.Client
	maxBatch       int
	disabled       bool

	mu    sync.Mutex
	queue []Event
	seen  map[string]struct{} // impression dedup, keyed listingID|surface

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// New builds a Tracker. A Tracker built from opted-out Signals is a no-op:
// every method succeeds without recording anything.
func New(opts Options) (*Tracker, error) {
	if opts.Signals.OptedOut() {
		return &Tracker{disabled: true}, nil
	}
	if opts.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if opts.SessionID == "" {
		return nil, fmt.Errorf("sessionID is required")
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultSendTimeout}
	}
	interval := opts.FlushInterval
	if interval <= 0 {
		interval = defaultFlushInterval
	}
	maxBatch := opts.MaxBatchSize
	if maxBatch <= 0 {
		maxBatch = defaultMaxBatchSize
	}

	t := &Tracker{
		endpoint:       opts.Endpoint,
		sessionID:      opts.SessionID,
		deviceCategory: opts.DeviceCategory,
		client:         client,
		maxBatch:       maxBatch,
		seen:           map[string]struct{}{},
		stop:           make(chan struct{}),
		done:           make(chan struct{}),
	}

	go t.loop(interval)
	return t, nil
}

// Track queues an event. When the queue reaches the batch cap it is drained
// and shipped in the background so no batch ever exceeds the cap.
func (t *Tracker) Track(e Event) {
	if t.disabled {
		return
	}

	t.mu.Lock()
	t.queue = append(t.queue, e)
	var batch []Event
	if len(t.queue) >= t.maxBatch {
		batch = t.drainLocked()
	}
	t.mu.Unlock()

	if batch != nil {
		go t.send(context.Background(), batch) //nolint:errcheck
	}
}

// TrackImpression records an impression at most once per (listing, surface)
// pair for the lifetime of the Tracker. Repeat renders of the same card on
// the same surface are ignored.
func (t *Tracker) TrackImpression(listingID, surface string, position int) {
	if t.disabled {
		return
	}

	key := listingID + "|" + surface

	t.mu.Lock()
	if _, dup := t.seen[key]; dup {
		t.mu.Unlock()
		return
	}
	t.seen[key] = struct{}{}
	t.mu.Unlock()

	pos := position
	t.Track(Event{
		Name:      "impression",
		ListingID: listingID,
		Surface:   surface,
		Position:  &pos,
	})
}

// Flush drains the queue and ships the drained events synchronously. Events
// are removed from the queue before the request is made; a failed send does
// not requeue them.
func (t *Tracker) Flush(ctx context.Context) error {
	if t.disabled {
		return nil
	}

	t.mu.Lock()
	batch := t.drainLocked()
	t.mu.Unlock()

	return t.send(ctx, batch)
}

// Close stops the background flusher and performs a final Flush.
func (t *Tracker) Close(ctx context.Context) error {
	if t.disabled {
		return nil
	}

	t.stopOnce.Do(func() {
		close(t.stop)
	})
	<-t.done

	return t.Flush(ctx)
}

func (t *Tracker) loop(interval time.Duration) {
	defer close(t.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = t.Flush(context.Background())
		case <-t.stop:
			return
		}
	}
}

// drainLocked empties the queue and returns the drained events. Caller holds mu.
func (t *Tracker) drainLocked() []Event {
	if len(t.queue) == 0 {
		return nil
	}
	batch := t.queue
	t.queue = nil
	return batch
}

func (t *Tracker) send(ctx context.Context, batch []Event) error {
	if len(batch) == 0 {
		return nil
	}

	body, err := json.Marshal(batchPayload{
		SessionID:      t.sessionID,
		DeviceCategory: t.deviceCategory,
		Events:         batch,
	})
	if err != nil {
		return fmt.Errorf("marshaling batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending batch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("batch endpoint returned %d", resp.StatusCode)
	}
	return nil
}
