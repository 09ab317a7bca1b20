package handlers

import (
	"context"

	"github.com/deploypilot/node-agent/internal/controlplane"
)

// Stop scales an app's Deployment to zero replicas.
func (h *Handlers) Stop(ctx context.Context, cmd controlplane.Command) controlplane.CommandResult {
	var p appRefPayload
	if err := unmarshalPayload(cmd.Payload, &p); err != nil {
		return failResult(err)
	}
	return fromShellResult(h.driver.Stop(ctx, namespaceFor(p.UserID), p.AppName))
}

// Restart performs a rollout restart of an app's Deployment.
func (h *Handlers) Restart(ctx context.Context, cmd controlplane.Command) controlplane.CommandResult {
	var p appRefPayload
	if err := unmarshalPayload(cmd.Payload, &p); err != nil {
		return failResult(err)
	}
	return fromShellResult(h.driver.Restart(ctx, namespaceFor(p.UserID), p.AppName))
}

// Delete removes an app's Deployment, Service and Ingress, idempotently.
func (h *Handlers) Delete(ctx context.Context, cmd controlplane.Command) controlplane.CommandResult {
	var p appRefPayload
	if err := unmarshalPayload(cmd.Payload, &p); err != nil {
		return failResult(err)
	}
	return fromShellResult(h.driver.DeleteDeployment(ctx, namespaceFor(p.UserID), p.AppName))
}

// CreateNamespace ensures the per-user namespace exists, optionally
// provisioning a registry pull secret when a token is supplied.
func (h *Handlers) CreateNamespace(ctx context.Context, cmd controlplane.Command) controlplane.CommandResult {
	var p appRefPayload
	if err := unmarshalPayload(cmd.Payload, &p); err != nil {
		return failResult(err)
	}
	return fromShellResult(h.driver.EnsureNamespace(ctx, p.UserID, p.Token))
}

// UpdateEnv patches an app's Deployment env vars. An empty map is a
// no-op success, per spec §4.2.
func (h *Handlers) UpdateEnv(ctx context.Context, cmd controlplane.Command) controlplane.CommandResult {
	var p appRefPayload
	if err := unmarshalPayload(cmd.Payload, &p); err != nil {
		return failResult(err)
	}
	return fromShellResult(h.driver.SetEnvVars(ctx, namespaceFor(p.UserID), p.AppName, p.EnvVars))
}
