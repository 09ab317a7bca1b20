// Package agent wires the periodic poll/heartbeat loops and their
// graceful shutdown on top of internal/command's Dispatcher and
// LiveSet, implementing spec §§4.6–4.7 and the concurrency model in §5.
package agent

import (
	"context"
	"sync"
	"time"

	"github.com/go-logr/logr"

	"github.com/deploypilot/node-agent/internal/command"
	"github.com/deploypilot/node-agent/internal/controlplane"
)

// CommandSource is the subset of controlplane.Client the poll loop
// needs, so tests can substitute a fake.
type CommandSource interface {
	PendingCommands(ctx context.Context) ([]controlplane.Command, error)
}

// ControlLoop polls the control plane on a fixed interval and admits
// eligible commands up to the live-set's concurrency ceiling, spawning
// each handler execution independently.
type ControlLoop struct {
	client     CommandSource
	dispatcher *command.Dispatcher
	liveSet    *command.LiveSet
	interval   time.Duration
	log        logr.Logger

	wg sync.WaitGroup
}

// NewControlLoop builds a ControlLoop.
func NewControlLoop(client CommandSource, dispatcher *command.Dispatcher, liveSet *command.LiveSet, interval time.Duration, log logr.Logger) *ControlLoop {
	return &ControlLoop{client: client, dispatcher: dispatcher, liveSet: liveSet, interval: interval, log: log}
}

// Run ticks immediately, then every interval, until ctx is cancelled. On
// cancellation it stops polling but blocks until every admitted handler
// it spawned has completed, per spec §5's drain-on-shutdown contract.
func (l *ControlLoop) Run(ctx context.Context) error {
	l.tick(ctx)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.wg.Wait()
			return nil
		case <-ticker.C:
			l.tick(ctx)
		}
	}
}

func (l *ControlLoop) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	commands, err := l.client.PendingCommands(ctx)
	if err != nil {
		l.log.V(1).Info("poll failed", "error", err.Error())
		return
	}

	for _, cmd := range commands {
		if cmd.Status != controlplane.StatusPending {
			continue
		}
		if l.liveSet.Contains(cmd.ID) {
			continue
		}
		if l.liveSet.AtCeiling() {
			break
		}
		if !l.liveSet.TryAdmit(cmd.ID) {
			continue
		}
		l.dispatch(cmd)
	}
}

// dispatch runs cmd's handler on its own goroutine, tracked by wg so
// Run's shutdown path can drain it, using a context detached from the
// poll loop's lifetime — a command admitted before shutdown runs to
// completion rather than being cancelled mid-flight.
func (l *ControlLoop) dispatch(cmd controlplane.Command) {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		defer l.liveSet.Release(cmd.ID)
		l.dispatcher.Dispatch(context.Background(), cmd)
	}()
}
