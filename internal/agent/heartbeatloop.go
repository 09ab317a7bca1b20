package agent

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"

	"github.com/deploypilot/node-agent/internal/command"
	"github.com/deploypilot/node-agent/internal/controlplane"
	"github.com/deploypilot/node-agent/internal/resources"
)

// HeartbeatSender is the subset of controlplane.Client the heartbeat
// loop needs.
type HeartbeatSender interface {
	Heartbeat(ctx context.Context, snapshot controlplane.HeartbeatSnapshot) error
}

// HeartbeatLoop sends a periodic liveness + status + resource snapshot
// to the control plane, per spec §4.7. Delivery failures are swallowed.
type HeartbeatLoop struct {
	client    HeartbeatSender
	collector *resources.Collector
	liveSet   *command.LiveSet
	interval  time.Duration
	log       logr.Logger

	lastError atomic.Value // string
}

// NewHeartbeatLoop builds a HeartbeatLoop.
func NewHeartbeatLoop(client HeartbeatSender, collector *resources.Collector, liveSet *command.LiveSet, interval time.Duration, log logr.Logger) *HeartbeatLoop {
	h := &HeartbeatLoop{client: client, collector: collector, liveSet: liveSet, interval: interval, log: log}
	h.lastError.Store("")
	return h
}

// SetLastError records the most recent unrecoverable condition so the
// next heartbeat reports status=error. An empty message clears it.
func (h *HeartbeatLoop) SetLastError(message string) {
	h.lastError.Store(message)
}

// Run ticks immediately, then every interval, until ctx is cancelled.
func (h *HeartbeatLoop) Run(ctx context.Context) error {
	h.tick(ctx)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			h.tick(ctx)
		}
	}
}

func (h *HeartbeatLoop) tick(ctx context.Context) {
	snap := h.collector.Collect(ctx)
	errMsg, _ := h.lastError.Load().(string)

	status := "online"
	switch {
	case errMsg != "":
		status = "error"
	case h.liveSet.AtCeiling():
		status = "busy"
	}

	heartbeat := controlplane.HeartbeatSnapshot{
		Status:       status,
		Resources:    snap.Resources,
		RunningPods:  snap.RunningPods,
		ErrorMessage: errMsg,
	}
	if err := h.client.Heartbeat(ctx, heartbeat); err != nil {
		h.log.V(1).Info("heartbeat delivery failed", "error", err.Error())
	}
}
