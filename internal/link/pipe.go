package link

import (
	"context"
	"sync"

	"scrappy/internal/protocol"
)

type pipeState struct {
	mu        sync.Mutex
	connected bool
	inbox     [2]protocol.LineBuffer
}

// PipeEnd is one side of an in-process link. Both ends share a single
// connection flag.
type PipeEnd struct {
	state *pipeState
	side  int
}

// NewPipe returns two connected-on-demand ends. Neither end is connected
// until Connect is called on one of them.
func NewPipe() (*PipeEnd, *PipeEnd) {
	st := &pipeState{}
	return &PipeEnd{state: st, side: 0}, &PipeEnd{state: st, side: 1}
}

func (p *PipeEnd) Connect(ctx context.Context) error {
	st := p.state
	st.mu.Lock()
	st.connected = true
	st.mu.Unlock()
	return ctx.Err()
}

// Disconnect drops the link for both ends and discards anything in flight.
func (p *PipeEnd) Disconnect() {
	st := p.state
	st.mu.Lock()
	defer st.mu.Unlock()
	st.connected = false
	st.inbox[0].Reset()
	st.inbox[1].Reset()
}

func (p *PipeEnd) Close() error {
	p.Disconnect()
	return nil
}

func (p *PipeEnd) Connected() bool {
	p.state.mu.Lock()
	defer p.state.mu.Unlock()
	return p.state.connected
}

func (p *PipeEnd) ReadLine() (string, bool, error) {
	st := p.state
	st.mu.Lock()
	defer st.mu.Unlock()
	if line, ok := st.inbox[p.side].Next(); ok {
		return line, true, nil
	}
	if !st.connected {
		return "", false, ErrLinkLost
	}
	return "", false, nil
}

func (p *PipeEnd) Write(b []byte) error {
	st := p.state
	st.mu.Lock()
	defer st.mu.Unlock()
	if !st.connected {
		return ErrLinkLost
	}
	st.inbox[1-p.side].Write(b)
	return nil
}
