package session

import (
	"context"
	"log/slog"
)

// Syncer refetches every collection whenever a session is established.
// It reacts to events only; there is no periodic refresh.
type Syncer struct {
	c      *Controller
	logger *slog.Logger
	ready  chan struct{}
}

// NewSyncer creates a Syncer for c.
func NewSyncer(c *Controller) *Syncer {
	return &Syncer{c: c, logger: c.logger, ready: make(chan struct{})}
}

// Ready is closed once Run is listening for events.
func (s *Syncer) Ready() <-chan struct{} { return s.ready }

// Run listens until ctx is cancelled. A session already held when Run starts,
// such as one restored from the token store, triggers one refresh right away.
// Events queued while a refresh is pending are coalesced into that refresh.
func (s *Syncer) Run(ctx context.Context) {
	events, cancel := s.c.bus.Subscribe(16, SessionEstablished)
	defer cancel()
	close(s.ready)
	s.loop(ctx, events)
}

func (s *Syncer) loop(ctx context.Context, events <-chan Event) {
	if s.c.Authenticated() {
		drain(events)
		s.refresh(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-events:
			if !ok {
				return
			}
			drain(events)
			s.refresh(ctx)
		}
	}
}

// drain discards events already queued; the refresh about to run covers them.
func drain(events <-chan Event) {
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

func (s *Syncer) refresh(ctx context.Context) {
	report, err := s.c.RefreshAll(ctx)
	if err != nil {
		// The session ended before the queued refresh ran.
		s.logger.Debug("skipping refresh", "error", err)
		return
	}
	if failed := report.Failed(); len(failed) > 0 {
		s.logger.Debug("refresh finished with failures", "failed", failed)
	}
}
