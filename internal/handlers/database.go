package handlers

import (
	"context"
	"time"

	"github.com/deploypilot/node-agent/internal/agenterrors"
	"github.com/deploypilot/node-agent/internal/controlplane"
	"github.com/deploypilot/node-agent/internal/manifest"
)

const readinessWaitTimeout = 2 * time.Minute

// CreateDatabase renders and applies a database's Secret, PVC, headless
// Service and StatefulSet, then waits for the StatefulSet to report
// ready.
func (h *Handlers) CreateDatabase(ctx context.Context, cmd controlplane.Command) controlplane.CommandResult {
	var p databasePayload
	if err := unmarshalPayload(cmd.Payload, &p); err != nil {
		return failResult(err)
	}
	spec := dbSpecFrom(p)

	renderers := []func(manifest.DatabaseSpec) (string, error){
		manifest.RenderDatabaseSecret,
		manifest.RenderDatabasePVC,
		manifest.RenderDatabaseService,
		manifest.RenderDatabaseStatefulSet,
	}
	var logs string
	for _, render := range renderers {
		rendered, err := render(spec)
		if err != nil {
			return failResult(agenterrors.Classify(agenterrors.ExternalToolFailure, agenterrors.FailedTo("render database manifest", err)))
		}
		res := h.driver.ApplyManifest(ctx, rendered)
		logs += res.Stdout + res.Stderr
		if !res.Success {
			return controlplane.CommandResult{Success: false, Error: res.Error, Logs: logs}
		}
	}

	wait := h.driver.WaitStatefulSetReady(ctx, spec.Namespace, spec.Name, readinessWaitTimeout)
	logs += wait.Stdout + wait.Stderr
	if !wait.Success {
		return controlplane.CommandResult{Success: false, Error: wait.Error, Logs: logs}
	}
	return controlplane.CommandResult{Success: true, Logs: logs}
}

// DeleteDatabase removes a database's StatefulSet, Service, PVC and
// Secret, idempotently.
func (h *Handlers) DeleteDatabase(ctx context.Context, cmd controlplane.Command) controlplane.CommandResult {
	var p databasePayload
	if err := unmarshalPayload(cmd.Payload, &p); err != nil {
		return failResult(err)
	}
	spec := dbSpecFrom(p)
	return fromShellResult(h.driver.DeleteStatefulSet(ctx, spec.Namespace, spec.Name))
}

// UpdateDatabasePassword rewrites the database's credentials Secret and
// rolls its StatefulSet so running pods pick up the new value.
func (h *Handlers) UpdateDatabasePassword(ctx context.Context, cmd controlplane.Command) controlplane.CommandResult {
	var p databasePayload
	if err := unmarshalPayload(cmd.Payload, &p); err != nil {
		return failResult(err)
	}
	spec := dbSpecFrom(p)

	rendered, err := manifest.RenderDatabaseSecret(spec)
	if err != nil {
		return failResult(agenterrors.Classify(agenterrors.ExternalToolFailure, agenterrors.FailedTo("render database secret", err)))
	}
	res := h.driver.ApplyManifest(ctx, rendered)
	if !res.Success {
		return controlplane.CommandResult{Success: false, Error: res.Error, Logs: res.Stdout + res.Stderr}
	}
	restart := h.driver.RestartStatefulSet(ctx, spec.Namespace, spec.Name)
	return fromShellResult(restart)
}

// EnableDatabaseExternalAccess patches the database's Service to
// NodePort, exposed at the payload's requested ExternalPort.
func (h *Handlers) EnableDatabaseExternalAccess(ctx context.Context, cmd controlplane.Command) controlplane.CommandResult {
	var p databasePayload
	if err := unmarshalPayload(cmd.Payload, &p); err != nil {
		return failResult(err)
	}
	spec := dbSpecFrom(p)
	port := manifest.DefaultPort(spec.Kind)
	return fromShellResult(h.driver.EnableExternalAccess(ctx, spec.Namespace, spec.Name, port, p.ExternalPort))
}

// DisableDatabaseExternalAccess reverts the database's Service to
// ClusterIP.
func (h *Handlers) DisableDatabaseExternalAccess(ctx context.Context, cmd controlplane.Command) controlplane.CommandResult {
	var p databasePayload
	if err := unmarshalPayload(cmd.Payload, &p); err != nil {
		return failResult(err)
	}
	spec := dbSpecFrom(p)
	port := manifest.DefaultPort(spec.Kind)
	return fromShellResult(h.driver.DisableExternalAccess(ctx, spec.Namespace, spec.Name, port))
}
