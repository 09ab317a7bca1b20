package agent

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/deploypilot/node-agent/internal/command"
	"github.com/deploypilot/node-agent/internal/controlplane"
	"github.com/deploypilot/node-agent/internal/logging"
)

type fakeCommandSource struct {
	mu       sync.Mutex
	commands []controlplane.Command
}

func (f *fakeCommandSource) PendingCommands(ctx context.Context) ([]controlplane.Command, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]controlplane.Command, len(f.commands))
	copy(out, f.commands)
	return out, nil
}

type fakeResultSender struct {
	mu      sync.Mutex
	acked   []string
	running []string
	results map[string]controlplane.CommandResult
}

func newFakeResultSender() *fakeResultSender {
	return &fakeResultSender{results: make(map[string]controlplane.CommandResult)}
}

func (f *fakeResultSender) AckCommand(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acked = append(f.acked, id)
	return nil
}

func (f *fakeResultSender) RunningCommand(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.running = append(f.running, id)
	return nil
}

func (f *fakeResultSender) ResultCommand(ctx context.Context, id string, result controlplane.CommandResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[id] = result
	return nil
}

func (f *fakeResultSender) resultCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.results)
}

func pendingCommand(id string) controlplane.Command {
	return controlplane.Command{ID: id, Kind: "NOOP", Status: controlplane.StatusPending, Payload: json.RawMessage(`{}`)}
}

func TestControlLoopDispatchesPendingCommands(t *testing.T) {
	source := &fakeCommandSource{commands: []controlplane.Command{pendingCommand("cmd-1")}}
	sender := newFakeResultSender()
	registry := command.NewRegistry()
	var handled sync.WaitGroup
	handled.Add(1)
	registry.Register("NOOP", func(ctx context.Context, cmd controlplane.Command) controlplane.CommandResult {
		defer handled.Done()
		return controlplane.CommandResult{Success: true}
	})
	dispatcher := command.NewDispatcher(registry, sender, logging.Discard())
	liveSet := command.NewLiveSet(3)
	loop := NewControlLoop(source, dispatcher, liveSet, time.Hour, logging.Discard())

	loop.tick(context.Background())
	handled.Wait()
	loop.wg.Wait()

	if sender.resultCount() != 1 {
		t.Fatalf("expected 1 result, got %d", sender.resultCount())
	}
}

func TestControlLoopSkipsAlreadyInFlightCommand(t *testing.T) {
	source := &fakeCommandSource{commands: []controlplane.Command{pendingCommand("cmd-1")}}
	sender := newFakeResultSender()
	registry := command.NewRegistry()
	dispatcher := command.NewDispatcher(registry, sender, logging.Discard())
	liveSet := command.NewLiveSet(3)
	liveSet.TryAdmit("cmd-1")
	loop := NewControlLoop(source, dispatcher, liveSet, time.Hour, logging.Discard())

	loop.tick(context.Background())
	loop.wg.Wait()

	if sender.resultCount() != 0 {
		t.Fatalf("expected already-admitted command to be skipped, got %d results", sender.resultCount())
	}
}

func TestControlLoopStopsAdmittingAtCeiling(t *testing.T) {
	commands := []controlplane.Command{pendingCommand("already-running"), pendingCommand("new-cmd")}
	source := &fakeCommandSource{commands: commands}
	sender := newFakeResultSender()
	registry := command.NewRegistry()
	registry.Register("NOOP", func(ctx context.Context, cmd controlplane.Command) controlplane.CommandResult {
		return controlplane.CommandResult{Success: true}
	})
	dispatcher := command.NewDispatcher(registry, sender, logging.Discard())
	liveSet := command.NewLiveSet(1)
	liveSet.TryAdmit("already-running")
	loop := NewControlLoop(source, dispatcher, liveSet, time.Hour, logging.Discard())

	loop.tick(context.Background())
	loop.wg.Wait()

	if sender.resultCount() != 0 {
		t.Fatalf("expected ceiling to block admission of new-cmd, got %d results", sender.resultCount())
	}
}

func TestControlLoopRunDrainsInFlightHandlersOnShutdown(t *testing.T) {
	source := &fakeCommandSource{commands: []controlplane.Command{pendingCommand("slow-cmd")}}
	sender := newFakeResultSender()
	registry := command.NewRegistry()
	started := make(chan struct{})
	registry.Register("NOOP", func(ctx context.Context, cmd controlplane.Command) controlplane.CommandResult {
		close(started)
		time.Sleep(50 * time.Millisecond)
		return controlplane.CommandResult{Success: true}
	})
	dispatcher := command.NewDispatcher(registry, sender, logging.Discard())
	liveSet := command.NewLiveSet(3)
	loop := NewControlLoop(source, dispatcher, liveSet, time.Hour, logging.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	<-started
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after draining in-flight handlers")
	}

	if sender.resultCount() != 1 {
		t.Errorf("expected the in-flight handler to complete and report its result, got %d", sender.resultCount())
	}
}
