package fetch

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// Options configures a fetch cycle.
type Options struct {
	// Skip suppresses the request and leaves the current state untouched.
	Skip bool
}

// State is what a view renders. Data is nil whenever Err is set. Data is
// shared between snapshots and must be treated as read-only.
type State[T any] struct {
	Data      *T
	IsLoading bool
	Err       error
}

// Resource keeps the result of the latest fetch cycle for one path.
//
// Every cycle is tagged with a generation number at issue time. A response
// is applied only while its generation is current, so an older request that
// finishes after a newer one is dropped instead of overwriting it.
type Resource[T any] struct {
	client   *Client
	onChange func(State[T])
	log      *logrus.Entry

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// notifyMu orders listener calls and lets Close wait out a running one.
	notifyMu sync.Mutex

	mu        sync.Mutex
	state     State[T]
	gen       uint64
	path      string
	opts      Options
	activated bool
	closed    bool
}

// NewResource creates an idle resource. onChange, when non-nil, is called
// with the latest state after every change; it must not call Close.
func NewResource[T any](client *Client, onChange func(State[T])) *Resource[T] {
	ctx, cancel := context.WithCancel(context.Background())
	return &Resource[T]{
		client:   client,
		onChange: onChange,
		log:      logrus.WithField("component", "fetch"),
		ctx:      ctx,
		cancel:   cancel,
		// nothing has loaded yet
		state: State[T]{IsLoading: true},
	}
}

// Activate starts a fetch cycle on the first call and whenever path or
// opts differ from the previous call. It never blocks on the network.
func (r *Resource[T]) Activate(path string, opts Options) {
	r.mu.Lock()
	if r.closed || (r.activated && r.path == path && r.opts == opts) {
		r.mu.Unlock()
		return
	}
	r.activated = true
	r.path = path
	r.opts = opts
	if opts.Skip {
		r.mu.Unlock()
		return
	}
	r.startLocked()
}

// Refetch re-issues the current cycle. It is a no-op before Activate,
// after Close, or while skipping.
func (r *Resource[T]) Refetch() {
	r.mu.Lock()
	if r.closed || !r.activated || r.opts.Skip {
		r.mu.Unlock()
		return
	}
	r.startLocked()
}

// startLocked must be called with r.mu held; it releases it.
func (r *Resource[T]) startLocked() {
	r.gen++
	gen, path := r.gen, r.path
	r.state.IsLoading = true
	r.wg.Add(1)
	r.mu.Unlock()

	r.emit()
	go r.run(gen, path)
}

func (r *Resource[T]) run(gen uint64, path string) {
	defer r.wg.Done()

	data, err := Get[T](r.ctx, r.client, path)

	r.mu.Lock()
	if r.closed || gen != r.gen {
		r.mu.Unlock()
		r.log.WithFields(logrus.Fields{
			"path":       path,
			"generation": gen,
		}).Debug("Discarding stale fetch result")
		return
	}
	if err != nil {
		r.state = State[T]{Err: err}
	} else {
		r.state = State[T]{Data: data}
	}
	r.mu.Unlock()

	if err != nil {
		r.log.WithField("path", path).WithError(err).Warn("Fetch failed")
	}
	r.emit()
}

// emit hands the current state to the listener.
func (r *Resource[T]) emit() {
	if r.onChange == nil {
		return
	}
	r.notifyMu.Lock()
	defer r.notifyMu.Unlock()

	r.mu.Lock()
	s, closed := r.state, r.closed
	r.mu.Unlock()
	if closed {
		return
	}
	r.onChange(s)
}

// State returns a snapshot of the current state.
func (r *Resource[T]) State() State[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Path returns the path of the latest activation.
func (r *Resource[T]) Path() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.path
}

// Wait blocks until every issued cycle has finished.
func (r *Resource[T]) Wait() {
	r.wg.Wait()
}

// Close ends interest in the resource. In-flight requests are canceled and
// no state change is observable afterwards.
func (r *Resource[T]) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.mu.Unlock()

	r.cancel()

	// wait out a listener call that raced with Close
	r.notifyMu.Lock()
	r.notifyMu.Unlock()
}
