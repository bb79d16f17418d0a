package commands

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"flowdash/internal/config"
	"flowdash/internal/live"
	"flowdash/internal/model"
	"flowdash/internal/output"
)

// RunWatch streams live events until ctx is done, the connection ends for
// good, or limit events were printed (limit <= 0 means no limit).
func RunWatch(ctx context.Context, cfg *config.Config, channels []string, limit int) error {
	if len(channels) == 0 {
		channels = cfg.Live.Channels
	}
	log := logrus.WithField("component", "watch")

	snaps := make(chan live.Snapshot, 64)
	stop := make(chan struct{})
	ch := live.New(live.Options{
		URL: cfg.WSEndpoint(),
		Reconnect: live.ReconnectPolicy{
			MaxAttempts:     cfg.Live.Reconnect.MaxAttempts,
			InitialInterval: cfg.Live.Reconnect.InitialInterval,
			MaxInterval:     cfg.Live.Reconnect.MaxInterval,
		},
		OnChange: func(s live.Snapshot) {
			select {
			case snaps <- s:
			case <-stop:
			}
		},
	})
	defer ch.Close()
	defer close(stop)

	ch.Activate(channels)
	ended := make(chan struct{})
	go func() {
		ch.Wait()
		close(ended)
	}()

	var last *model.Envelope
	connected := false
	printed := 0

	handle := func(s live.Snapshot) bool {
		if s.Connected != connected {
			connected = s.Connected
			if connected {
				log.WithField("channels", channels).Info("Watching")
			} else {
				log.WithField("reason", s.Reason).Info("Disconnected")
			}
		}
		if env := s.LastMessage; env != nil && env != last {
			last = env
			printEnvelope(env)
			printed++
		}
		return limit > 0 && printed >= limit
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case s := <-snaps:
			if handle(s) {
				return nil
			}
		case <-ended:
			// The loop has exited; deliver what it emitted before that.
			for {
				select {
				case s := <-snaps:
					if handle(s) {
						return nil
					}
				default:
					return watchEndError(ch.Snapshot())
				}
			}
		}
	}
}

// watchEndError maps the final close reason to the command's result.
func watchEndError(s live.Snapshot) error {
	switch s.Reason {
	case live.ReasonError:
		return errors.Wrap(s.Err, "live connection failed")
	case live.ReasonRemote:
		return errors.Wrap(s.Err, "live connection closed by server")
	}
	return nil
}

func printEnvelope(env *model.Envelope) {
	output.Stream(env, func() {
		id := env.EntityID()
		if id == "" {
			id = "-"
		}
		ts := env.Timestamp
		if ts == "" {
			ts = "-"
		}
		output.Printf("%-25s %-22s %s\n", ts, env.Type, id)
	})
}
