// Package logrelay implements the agent's fire-and-forget status/log
// push to the control plane. Delivery is best-effort: a bounded channel
// plus a single worker goroutine, dropping new entries when the queue is
// full rather than blocking the caller (per spec §9's "route
// fire-and-forget sends through a bounded work queue" resolution of the
// "dangling unawaited futures" design note).
package logrelay

import (
	"context"
	"time"

	"github.com/go-logr/logr"

	"github.com/deploypilot/node-agent/internal/controlplane"
)

const (
	queueCapacity  = 256
	requestTimeout = 5 * time.Second
)

// client is the subset of controlplane.Client the relay needs, so tests
// can substitute a fake.
type client interface {
	RelayLog(ctx context.Context, deploymentID string, msg controlplane.LogMessage) error
	UpdateDeploymentStatus(ctx context.Context, deploymentID string, update controlplane.StatusUpdate) error
}

type entry struct {
	deploymentID string
	logMsg       *controlplane.LogMessage
	statusMsg    *controlplane.StatusUpdate
}

// Relay queues log lines and status updates and delivers them on a
// single background worker. Ordering across entries is not guaranteed
// and none is promised by the contract; consumers treat the stream as
// lossy.
type Relay struct {
	client client
	log    logr.Logger
	queue  chan entry
	done   chan struct{}
}

// New starts a Relay's worker goroutine, bound to ctx's lifetime.
func New(ctx context.Context, cp client, log logr.Logger) *Relay {
	r := &Relay{
		client: cp,
		log:    log,
		queue:  make(chan entry, queueCapacity),
		done:   make(chan struct{}),
	}
	go r.run(ctx)
	return r
}

// SendLog enqueues one log line for deploymentId. Dropped silently if
// the queue is full.
func (r *Relay) SendLog(deploymentID, message, level, step string) {
	r.enqueue(entry{
		deploymentID: deploymentID,
		logMsg: &controlplane.LogMessage{
			Message:   message,
			Level:     level,
			Step:      step,
			Timestamp: nowRFC3339(),
		},
	})
}

// UpdateStatus enqueues a deployment status transition. Dropped silently
// if the queue is full.
func (r *Relay) UpdateStatus(deploymentID, status, message string) {
	r.enqueue(entry{
		deploymentID: deploymentID,
		statusMsg:    &controlplane.StatusUpdate{Status: status, Message: message},
	})
}

func (r *Relay) enqueue(e entry) {
	select {
	case r.queue <- e:
	default:
		r.log.V(1).Info("log relay queue full, dropping entry", "deploymentId", e.deploymentID)
	}
}

// Wait blocks until the worker has drained and exited, for graceful
// shutdown. Call after ctx is cancelled.
func (r *Relay) Wait() {
	<-r.done
}

func (r *Relay) run(ctx context.Context) {
	defer close(r.done)
	for {
		select {
		case <-ctx.Done():
			r.drain()
			return
		case e := <-r.queue:
			r.deliver(e)
		}
	}
}

// drain flushes whatever is already queued before exiting, without
// accepting new entries (the queue channel is closed to new sends by the
// caller ceasing to enqueue once the context it passed to New is done).
func (r *Relay) drain() {
	for {
		select {
		case e := <-r.queue:
			r.deliver(e)
		default:
			return
		}
	}
}

func (r *Relay) deliver(e entry) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	if e.logMsg != nil {
		if err := r.client.RelayLog(ctx, e.deploymentID, *e.logMsg); err != nil {
			r.log.V(2).Info("log relay delivery failed", "deploymentId", e.deploymentID, "error", err.Error())
		}
	}
	if e.statusMsg != nil {
		if err := r.client.UpdateDeploymentStatus(ctx, e.deploymentID, *e.statusMsg); err != nil {
			r.log.V(2).Info("status relay delivery failed", "deploymentId", e.deploymentID, "error", err.Error())
		}
	}
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
