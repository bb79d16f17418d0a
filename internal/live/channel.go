package live

import (
	"context"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"flowdash/internal/model"
)

const writeWait = 10 * time.Second

// CloseReason tells why the channel is not connected.
type CloseReason string

const (
	ReasonNone   CloseReason = "none"   // never connected, or currently connected
	ReasonNormal CloseReason = "normal" // server closed with normal/going-away
	ReasonRemote CloseReason = "remote" // server closed with another code
	ReasonError  CloseReason = "error"  // dial or transport failure
	ReasonLocal  CloseReason = "local"  // closed by Close or re-activation
)

// ReconnectPolicy bounds automatic reconnection. MaxAttempts 0 disables it.
type ReconnectPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// Options configures a Channel.
type Options struct {
	// URL is the full push endpoint, e.g. ws://localhost:8000/ws.
	URL       string
	Header    http.Header
	Dialer    *websocket.Dialer
	Reconnect ReconnectPolicy
	// OnChange is called with the latest snapshot after connectivity or
	// message changes. It must not call Close.
	OnChange func(Snapshot)
}

// Snapshot is the observable state of a Channel.
type Snapshot struct {
	Connected   bool
	LastMessage *model.Envelope
	Reason      CloseReason
	Err         error
}

// Channel holds one push connection for the lifetime of the caller's
// interest in a set of channels. It keeps only the latest message.
type Channel struct {
	opts Options
	log  *logrus.Entry
	wg   sync.WaitGroup

	notifyMu sync.Mutex

	mu        sync.Mutex
	sess      *session
	connected bool
	last      *model.Envelope
	reason    CloseReason
	lastErr   error
	closed    bool
}

// session is the scoped connection handle of one activation. Teardown
// cancels ctx and closes conn; a session is never reused.
type session struct {
	id       uuid.UUID
	channels []string
	ctx      context.Context
	cancel   context.CancelFunc

	writeMu sync.Mutex
	conn    *websocket.Conn // guarded by Channel.mu
}

// New creates an inactive channel. Call Activate to connect.
func New(opts Options) *Channel {
	if opts.Dialer == nil {
		d := *websocket.DefaultDialer
		opts.Dialer = &d
	}
	return &Channel{
		opts:   opts,
		log:    logrus.WithField("component", "live"),
		reason: ReasonNone,
	}
}

// Activate opens a connection and subscribes to channels in order. Calling
// it again with a different list tears the old connection down and runs the
// whole open-subscribe sequence again; an identical list is a no-op.
func (c *Channel) Activate(channels []string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	old := c.sess
	if old != nil && slices.Equal(old.channels, channels) {
		c.mu.Unlock()
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &session{
		id:       uuid.New(),
		channels: slices.Clone(channels),
		ctx:      ctx,
		cancel:   cancel,
	}
	c.sess = s
	wasConnected := c.connected
	c.connected = false
	if old != nil {
		c.reason = ReasonLocal
		c.lastErr = nil
	}
	c.wg.Add(1)
	c.mu.Unlock()

	if old != nil {
		c.teardown(old)
	}
	if wasConnected {
		c.emit()
	}
	go c.run(s)
}

// Subscribe sends a subscribe frame if connected. It reports whether the
// frame was written; intents are not queued while disconnected.
func (c *Channel) Subscribe(channel string) bool {
	return c.control(model.ActionSubscribe, channel)
}

// Unsubscribe sends an unsubscribe frame if connected.
func (c *Channel) Unsubscribe(channel string) bool {
	return c.control(model.ActionUnsubscribe, channel)
}

func (c *Channel) control(action model.ControlAction, channel string) bool {
	c.mu.Lock()
	s := c.sess
	c.mu.Unlock()
	if s == nil {
		return false
	}
	return c.send(s, model.ControlFrame{Action: action, Channel: channel})
}

// IsConnected reports whether the connection is open.
func (c *Channel) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// LastMessage returns the most recently received envelope, or nil.
func (c *Channel) LastMessage() *model.Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Snapshot returns the full observable state.
func (c *Channel) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Channel) snapshotLocked() Snapshot {
	return Snapshot{
		Connected:   c.connected,
		LastMessage: c.last,
		Reason:      c.reason,
		Err:         c.lastErr,
	}
}

// Channels returns the channel list of the current activation.
func (c *Channel) Channels() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil {
		return nil
	}
	return slices.Clone(c.sess.channels)
}

// Wait blocks until no connection loop is running: after Close, or once
// the current activation has ended without reconnecting. It must not be
// called concurrently with Activate.
func (c *Channel) Wait() {
	c.wg.Wait()
}

// Close tears the connection down unconditionally and waits for the reader
// to exit. Nothing changes after Close returns.
func (c *Channel) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	s := c.sess
	if c.connected || s != nil {
		c.reason = ReasonLocal
	}
	c.connected = false
	c.mu.Unlock()

	if s != nil {
		c.teardown(s)
	}
	c.wg.Wait()

	c.notifyMu.Lock()
	c.notifyMu.Unlock()
}

func (c *Channel) teardown(s *session) {
	s.cancel()

	c.mu.Lock()
	conn := s.conn
	s.conn = nil
	c.mu.Unlock()

	if conn != nil {
		// WriteControl may run concurrently with WriteJSON.
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		conn.Close()
	}
	c.log.WithField("session", s.id).Debug("Connection torn down")
}

// current reports whether s is still the live activation.
func (c *Channel) currentLocked(s *session) bool {
	return !c.closed && c.sess == s && s.ctx.Err() == nil
}

func (c *Channel) run(s *session) {
	defer c.wg.Done()

	b := c.newBackOff()
	for {
		established := c.serve(s)
		if s.ctx.Err() != nil || b == nil {
			return
		}
		if established {
			b.Reset()
		}

		wait := b.NextBackOff()
		if wait == backoff.Stop {
			c.log.WithField("session", s.id).Warn("Giving up reconnecting")
			return
		}
		c.log.WithFields(logrus.Fields{
			"session": s.id,
			"wait":    wait,
		}).Info("Reconnecting")

		select {
		case <-s.ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

func (c *Channel) newBackOff() backoff.BackOff {
	p := c.opts.Reconnect
	if p.MaxAttempts <= 0 {
		return nil
	}
	exp := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		exp.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		exp.MaxInterval = p.MaxInterval
	}
	exp.MaxElapsedTime = 0
	b := backoff.WithMaxRetries(exp, uint64(p.MaxAttempts))
	b.Reset()
	return b
}

// serve dials, subscribes and reads until the connection ends. It reports
// whether the connection was established.
func (c *Channel) serve(s *session) bool {
	log := c.log.WithField("session", s.id)

	conn, resp, err := c.opts.Dialer.DialContext(s.ctx, c.opts.URL, c.opts.Header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		if s.ctx.Err() == nil {
			log.WithError(err).Warn("Dial failed")
			c.markDown(s, ReasonError, errors.Wrapf(err, "dial %s", c.opts.URL))
		}
		return false
	}

	c.mu.Lock()
	if !c.currentLocked(s) {
		c.mu.Unlock()
		conn.Close()
		return false
	}
	s.conn = conn
	c.connected = true
	c.reason = ReasonNone
	c.lastErr = nil
	c.mu.Unlock()

	log.WithField("channels", s.channels).Info("Connected")
	for _, ch := range s.channels {
		c.send(s, model.ControlFrame{Action: model.ActionSubscribe, Channel: ch})
	}
	c.emit()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if s.ctx.Err() == nil {
				reason := classify(err)
				if reason == ReasonError {
					log.WithError(err).Warn("Connection lost")
				} else {
					log.WithError(err).Info("Connection closed by server")
				}
				c.markDown(s, reason, err)
			}
			conn.Close()
			return true
		}

		env, err := model.ParseEnvelope(raw)
		if err != nil {
			log.WithError(err).Warn("Discarding malformed frame")
			continue
		}

		c.mu.Lock()
		if !c.currentLocked(s) {
			c.mu.Unlock()
			return true
		}
		c.last = env
		c.mu.Unlock()
		c.emit()
	}
}

// send writes one control frame if s is the connected activation.
func (c *Channel) send(s *session, frame model.ControlFrame) bool {
	c.mu.Lock()
	conn := s.conn
	ok := c.currentLocked(s) && c.connected && conn != nil
	c.mu.Unlock()
	if !ok {
		return false
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(frame); err != nil {
		c.log.WithFields(logrus.Fields{
			"session": s.id,
			"action":  frame.Action,
			"channel": frame.Channel,
		}).WithError(err).Warn("Failed to send control frame")
		return false
	}
	return true
}

func (c *Channel) markDown(s *session, reason CloseReason, err error) {
	c.mu.Lock()
	if !c.currentLocked(s) {
		c.mu.Unlock()
		return
	}
	c.connected = false
	c.reason = reason
	c.lastErr = err
	s.conn = nil
	c.mu.Unlock()
	c.emit()
}

func (c *Channel) emit() {
	if c.opts.OnChange == nil {
		return
	}
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.mu.Lock()
	snap, closed := c.snapshotLocked(), c.closed
	c.mu.Unlock()
	if closed {
		return
	}
	c.opts.OnChange(snap)
}

func classify(err error) CloseReason {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		if ce.Code == websocket.CloseNormalClosure || ce.Code == websocket.CloseGoingAway {
			return ReasonNormal
		}
		return ReasonRemote
	}
	return ReasonError
}
