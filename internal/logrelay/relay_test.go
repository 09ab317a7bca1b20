package logrelay

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/deploypilot/node-agent/internal/controlplane"
	"github.com/deploypilot/node-agent/internal/logging"
)

type fakeClient struct {
	mu     sync.Mutex
	logs   []controlplane.LogMessage
	status []controlplane.StatusUpdate
}

func (f *fakeClient) RelayLog(_ context.Context, _ string, msg controlplane.LogMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs = append(f.logs, msg)
	return nil
}

func (f *fakeClient) UpdateDeploymentStatus(_ context.Context, _ string, update controlplane.StatusUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = append(f.status, update)
	return nil
}

func (f *fakeClient) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.logs), len(f.status)
}

func TestRelayDeliversLogsAndStatus(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fc := &fakeClient{}
	r := New(ctx, fc, logging.Discard())
	r.SendLog("dep1", "building", "info", "build")
	r.UpdateStatus("dep1", "ready", "")

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		logs, statuses := fc.counts()
		if logs == 1 && statuses == 1 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("expected both a log and a status delivery within timeout")
}

func TestRelayDropsWhenQueueFull(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fc := &fakeClient{}
	r := New(ctx, fc, logging.Discard())
	for i := 0; i < queueCapacity*2; i++ {
		r.SendLog("dep1", "line", "info", "build")
	}
	// Should not block or panic; some entries may be dropped.
}
