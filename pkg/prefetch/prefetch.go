// Package prefetch implements the background worker that eagerly
// resolves full vault entries into the shared secret cache as the user
// navigates, so a subsequent copy action usually finds a warm cache.
package prefetch

import (
	"context"
	"time"

	"github.com/leddt/bwtui/pkg/memcache"
	"github.com/leddt/bwtui/pkg/vaultentry"
)

// Fetcher is the subset of the host-CLI adapter the prefetcher needs.
type Fetcher interface {
	Get(ctx context.Context, id string) (*vaultentry.Entry, error)
}

// Logger receives best-effort failure notices; a failed fetch is never
// propagated to the UI, only logged.
type Logger interface {
	Warn(id string, err error)
}

// NopLogger discards every message.
type NopLogger struct{}

func (NopLogger) Warn(string, error) {}

// Worker consumes ids from a buffered channel (256 slots) and resolves
// each one into cache, unless it is already present and unexpired. The
// channel is bounded: once 256 ids are waiting, Enqueue blocks.
type Worker struct {
	fetcher Fetcher
	cache   *memcache.SecretCache
	log     Logger
	timeout  time.Duration
	requests chan string
}

// New returns a Worker. Call Run in its own goroutine, then Enqueue ids
// from any goroutine; closing the Worker via Stop cleanly drains it.
func New(fetcher Fetcher, cache *memcache.SecretCache, log Logger) *Worker {
	if log == nil {
		log = NopLogger{}
	}
	return &Worker{
		fetcher:  fetcher,
		cache:    cache,
		log:      log,
		timeout:  10 * time.Second,
		requests: make(chan string, 256),
	}
}

// Enqueue requests id be resolved. Enqueuing is O(1) and returns at
// once while the buffer has room; it blocks while all 256 slots are
// full. Rapid navigation producing many duplicate requests is
// acceptable because Run's first step on each request is the cache
// check. Callers MUST NOT call Enqueue after Stop: a send on the
// closed channel panics.
func (w *Worker) Enqueue(id string) {
	w.requests <- id
}

// Run processes requests until the request channel is closed via Stop.
// It is cooperative: each iteration yields the goroutine between
// fetches via the channel receive itself.
func (w *Worker) Run(ctx context.Context) {
	for {
		select {
		case id, ok := <-w.requests:
			if !ok {
				return
			}
			w.resolve(ctx, id)
		case <-ctx.Done():
			return
		}
	}
}

func (w *Worker) resolve(ctx context.Context, id string) {
	if w.cache.Has(id) {
		return
	}

	fetchCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	entry, err := w.fetcher.Get(fetchCtx, id)
	if err != nil {
		w.log.Warn(id, err)
		return
	}
	w.cache.Insert(id, entry)
}

// Stop closes the request channel, letting Run drain and return.
func (w *Worker) Stop() {
	close(w.requests)
}
