package command

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/deploypilot/node-agent/internal/agenterrors"
	"github.com/deploypilot/node-agent/internal/controlplane"
	"github.com/deploypilot/node-agent/internal/logging"
)

// Handler executes one command kind and returns its terminal result. A
// handler must never panic on bad input — the dispatcher recovers, but a
// handler that validates its own payload produces a clearer error.
type Handler func(ctx context.Context, cmd controlplane.Command) controlplane.CommandResult

// Registry maps a CommandKind to the Handler that executes it. It holds
// no lock: every handler is registered at startup, before any concurrent
// dispatch reads the map.
type Registry struct {
	handlers map[controlplane.CommandKind]Handler
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[controlplane.CommandKind]Handler)}
}

// Register associates kind with handler.
func (r *Registry) Register(kind controlplane.CommandKind, handler Handler) {
	r.handlers[kind] = handler
}

func (r *Registry) get(kind controlplane.CommandKind) (Handler, bool) {
	h, ok := r.handlers[kind]
	return h, ok
}

// ResultSender delivers a command's final result to the control plane.
type ResultSender interface {
	AckCommand(ctx context.Context, id string) error
	RunningCommand(ctx context.Context, id string) error
	ResultCommand(ctx context.Context, id string, result controlplane.CommandResult) error
}

// Dispatcher runs the per-command lifecycle: ack, running, route,
// result. It owns no concurrency policy of its own — ControlLoop decides
// what's eligible to dispatch via the LiveSet.
type Dispatcher struct {
	registry *Registry
	client   ResultSender
	log      logr.Logger
}

// NewDispatcher builds a Dispatcher.
func NewDispatcher(registry *Registry, client ResultSender, log logr.Logger) *Dispatcher {
	return &Dispatcher{registry: registry, client: client, log: log}
}

// Dispatch runs cmd's full lifecycle: ack → running → route to handler →
// result. Any panic or error from the handler is converted into a
// failed CommandResult rather than propagated. Failure to send the
// final result is logged and swallowed, matching spec §4.5.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd controlplane.Command) {
	log := d.log.WithValues(logging.CommandFields(cmd.ID, string(cmd.Kind)).Args()...)

	if err := d.client.AckCommand(ctx, cmd.ID); err != nil {
		log.V(1).Info("ack failed, proceeding anyway", "error", err.Error())
	}
	if err := d.client.RunningCommand(ctx, cmd.ID); err != nil {
		log.V(1).Info("running transition failed, proceeding anyway", "error", err.Error())
	}

	result := d.execute(ctx, cmd, log)

	if err := d.client.ResultCommand(ctx, cmd.ID, result); err != nil {
		log.Error(err, "failed to deliver command result; control plane will re-offer after its deadline")
	}
}

func (d *Dispatcher) execute(ctx context.Context, cmd controlplane.Command, log logr.Logger) (result controlplane.CommandResult) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error(fmt.Errorf("%v", rec), "handler panicked")
			result = controlplane.CommandResult{Success: false, Error: fmt.Sprintf("handler panicked: %v", rec)}
		}
	}()

	handler, ok := d.registry.get(cmd.Kind)
	if !ok {
		err := agenterrors.Classify(agenterrors.UnknownKind, fmt.Errorf("unrecognised command kind %q", cmd.Kind))
		return controlplane.CommandResult{Success: false, Error: err.Error()}
	}
	return handler(ctx, cmd)
}
