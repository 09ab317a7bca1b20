package agent

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/deploypilot/node-agent/internal/command"
	"github.com/deploypilot/node-agent/internal/controlplane"
	"github.com/deploypilot/node-agent/internal/logging"
	"github.com/deploypilot/node-agent/internal/resources"
	"github.com/deploypilot/node-agent/internal/shellrunner"
)

type fakeHeartbeatSender struct {
	mu   sync.Mutex
	sent []controlplane.HeartbeatSnapshot
}

func (f *fakeHeartbeatSender) Heartbeat(ctx context.Context, snapshot controlplane.HeartbeatSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, snapshot)
	return nil
}

func (f *fakeHeartbeatSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func (f *fakeHeartbeatSender) last() controlplane.HeartbeatSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[len(f.sent)-1]
}

func TestHeartbeatLoopTicksImmediatelyAndReportsOnline(t *testing.T) {
	sender := &fakeHeartbeatSender{}
	collector := resources.New(shellrunner.New(logging.Discard()), logging.Discard())
	liveSet := command.NewLiveSet(3)
	h := NewHeartbeatLoop(sender, collector, liveSet, time.Hour, logging.Discard())

	h.tick(context.Background())

	if sender.count() != 1 {
		t.Fatalf("expected 1 heartbeat, got %d", sender.count())
	}
	if sender.last().Status != "online" {
		t.Errorf("Status = %q, want online", sender.last().Status)
	}
}

func TestHeartbeatLoopReportsBusyAtCeiling(t *testing.T) {
	sender := &fakeHeartbeatSender{}
	collector := resources.New(shellrunner.New(logging.Discard()), logging.Discard())
	liveSet := command.NewLiveSet(1)
	liveSet.TryAdmit("cmd-1")
	h := NewHeartbeatLoop(sender, collector, liveSet, time.Hour, logging.Discard())

	h.tick(context.Background())

	if sender.last().Status != "busy" {
		t.Errorf("Status = %q, want busy", sender.last().Status)
	}
}

func TestHeartbeatLoopReportsErrorOverBusy(t *testing.T) {
	sender := &fakeHeartbeatSender{}
	collector := resources.New(shellrunner.New(logging.Discard()), logging.Discard())
	liveSet := command.NewLiveSet(1)
	liveSet.TryAdmit("cmd-1")
	h := NewHeartbeatLoop(sender, collector, liveSet, time.Hour, logging.Discard())
	h.SetLastError("build engine unreachable")

	h.tick(context.Background())

	last := sender.last()
	if last.Status != "error" {
		t.Errorf("Status = %q, want error", last.Status)
	}
	if last.ErrorMessage != "build engine unreachable" {
		t.Errorf("ErrorMessage = %q", last.ErrorMessage)
	}
}

func TestHeartbeatLoopClearingErrorReturnsToOnline(t *testing.T) {
	sender := &fakeHeartbeatSender{}
	collector := resources.New(shellrunner.New(logging.Discard()), logging.Discard())
	liveSet := command.NewLiveSet(3)
	h := NewHeartbeatLoop(sender, collector, liveSet, time.Hour, logging.Discard())
	h.SetLastError("transient")
	h.SetLastError("")

	h.tick(context.Background())

	if sender.last().Status != "online" {
		t.Errorf("Status = %q, want online", sender.last().Status)
	}
}
