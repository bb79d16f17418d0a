package tui

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"flowdash/internal/config"
)

// relay forwards listener callbacks to the running program. Messages are
// queued and delivered in order by a single goroutine, so listeners never
// block on the event loop, including when they fire from inside Update.
type relay struct {
	mu      sync.Mutex
	send    func(tea.Msg)
	queue   []tea.Msg
	sending bool

	wake     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func newRelay() *relay {
	r := &relay{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go r.loop()
	return r
}

// set installs the delivery func. Messages forwarded before a func is set
// are held until one is.
func (r *relay) set(send func(tea.Msg)) {
	r.mu.Lock()
	r.send = send
	r.mu.Unlock()
	r.signal()
}

func (r *relay) forward(msg tea.Msg) {
	r.mu.Lock()
	r.queue = append(r.queue, msg)
	r.mu.Unlock()
	r.signal()
}

func (r *relay) signal() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

func (r *relay) loop() {
	for {
		select {
		case <-r.done:
			return
		case <-r.wake:
		}
		r.drain()
	}
}

func (r *relay) drain() {
	for {
		r.mu.Lock()
		if r.send == nil || len(r.queue) == 0 {
			r.mu.Unlock()
			return
		}
		msg := r.queue[0]
		r.queue[0] = nil
		r.queue = r.queue[1:]
		send := r.send
		r.sending = true
		r.mu.Unlock()

		send(msg)

		r.mu.Lock()
		r.sending = false
		r.mu.Unlock()
	}
}

// idle reports whether every forwarded message has been delivered.
func (r *relay) idle() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queue) == 0 && !r.sending
}

func (r *relay) stop() {
	r.stopOnce.Do(func() { close(r.done) })
}

// app is a program wired to its sources.
type app struct {
	program *tea.Program
	src     *Sources
	relay   *relay
}

// newApp builds the program. Sources are activated by the model's
// Init, once the event loop is running.
func newApp(cfg *config.Config, opts ...tea.ProgramOption) *app {
	r := newRelay()
	src := newSources(cfg, r)
	p := tea.NewProgram(NewModel(src), opts...)
	r.set(p.Send)
	return &app{program: p, src: src, relay: r}
}

// run blocks until the program exits and then releases the sources.
func (a *app) run() (tea.Model, error) {
	final, err := a.program.Run()
	a.src.close()
	a.relay.stop()
	return final, err
}

// logPath is where log output goes while the dashboard owns the terminal.
func logPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "flowdash", "tui.log")
}

// redirectLogs points logrus at path, or discards output if path cannot be
// opened. The returned func restores the previous output.
func redirectLogs(path string) func() {
	logger := logrus.StandardLogger()
	prev := logger.Out

	var out io.Writer = io.Discard
	var file *os.File
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err == nil {
			if f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
				file = f
				out = f
			}
		}
	}
	logger.SetOutput(out)

	return func() {
		logger.SetOutput(prev)
		if file != nil {
			file.Close()
		}
	}
}

// Run starts the dashboard against the configured backend and blocks
// until the user quits.
func Run(cfg *config.Config) error {
	restore := redirectLogs(logPath())
	defer restore()

	_, err := newApp(cfg, tea.WithAltScreen()).run()
	return err
}
