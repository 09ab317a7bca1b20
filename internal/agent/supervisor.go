package agent

import (
	"context"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"
)

// Loop is anything Supervisor can run to completion under a shared
// context — ControlLoop and HeartbeatLoop both satisfy it.
type Loop interface {
	Run(ctx context.Context) error
}

// Supervisor runs the agent's independent periodic loops concurrently
// and tears them all down together: cancelling ctx (on shutdown signal)
// stops every loop's ticking, while ControlLoop's own Run still drains
// its in-flight handlers before returning.
type Supervisor struct {
	loops []Loop
	log   logr.Logger
}

// NewSupervisor builds a Supervisor over the given loops.
func NewSupervisor(log logr.Logger, loops ...Loop) *Supervisor {
	return &Supervisor{loops: loops, log: log}
}

// Run blocks until ctx is cancelled and every loop has returned. The
// first loop to return a non-nil error cancels the group, mirroring
// errgroup.Group's standard fan-out/fan-in shape.
func (s *Supervisor) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, loop := range s.loops {
		loop := loop
		g.Go(func() error {
			return loop.Run(gctx)
		})
	}
	return g.Wait()
}
