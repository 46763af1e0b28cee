// Package orchestrator runs a device's top-level loop: it establishes the
// link, creates a session for it, ticks the device's state machine, and tears
// the session down when the link drops.
package orchestrator

import (
	"context"
	"errors"
	"sync"
	"time"

	"scrappy/internal/link"
	"scrappy/internal/logger"
	"scrappy/internal/types"
)

const DefaultTickInterval = 10 * time.Millisecond

// Session describes the current link session.
type Session struct {
	Role      types.Role
	LinkState types.LinkState
	Phase     string
	Started   time.Time
}

type Loop struct {
	role      types.Role
	transport link.Transport
	device    Device
	status    StatusIndicator
	logger    *logger.Logger
	interval  time.Duration
	clock     func() time.Time

	mu      sync.Mutex
	session *Session
}

// NewLoop creates a loop ticking device every interval. clock defaults to
// time.Now.
func NewLoop(role types.Role, transport link.Transport, device Device, status StatusIndicator, l *logger.Logger, interval time.Duration, clock func() time.Time) *Loop {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	if clock == nil {
		clock = time.Now
	}
	return &Loop{
		role:      role,
		transport: transport,
		device:    device,
		status:    status,
		logger:    l.WithTag("loop"),
		interval:  interval,
		clock:     clock,
	}
}

// Session returns a copy of the active session.
func (o *Loop) Session() (Session, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session == nil {
		return Session{}, false
	}
	s := *o.session
	s.Phase = o.device.Phase()
	return s, true
}

// Run connects, serves and reconnects until ctx is done.
func (o *Loop) Run(ctx context.Context) error {
	for {
		o.showStatus(false)
		o.logger.Infof("Waiting for link...")

		if err := o.transport.Connect(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		o.begin()
		err := o.serve(ctx)
		o.end()

		if ctx.Err() != nil {
			return nil
		}
		if err != nil && !errors.Is(err, link.ErrLinkLost) {
			return err
		}
		o.logger.Infof("Link lost, restarting session")
	}
}

func (o *Loop) serve(ctx context.Context) error {
	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		if err := o.device.Step(o.clock()); err != nil {
			return err
		}
	}
}

func (o *Loop) begin() {
	now := o.clock()
	o.mu.Lock()
	o.session = &Session{Role: o.role, LinkState: types.LinkConnected, Started: now}
	o.mu.Unlock()

	o.showStatus(true)
	o.logger.Infof("Connected, %s session started", o.role)
	o.device.LinkUp(now)
}

func (o *Loop) end() {
	o.device.LinkLost(o.clock())

	o.mu.Lock()
	o.session = nil
	o.mu.Unlock()

	if err := o.transport.Close(); err != nil {
		o.logger.Warnf("Failed to close link: %v", err)
	}
	o.showStatus(false)
}

func (o *Loop) showStatus(connected bool) {
	if o.status == nil {
		return
	}
	var err error
	if connected {
		err = o.status.ShowConnected()
	} else {
		err = o.status.ShowDisconnected()
	}
	if err != nil {
		o.logger.Warnf("Failed to update status indicator: %v", err)
	}
}
