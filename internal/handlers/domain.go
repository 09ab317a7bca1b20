package handlers

import (
	"context"

	"github.com/deploypilot/node-agent/internal/agenterrors"
	"github.com/deploypilot/node-agent/internal/controlplane"
	"github.com/deploypilot/node-agent/internal/k8sdriver"
	"github.com/deploypilot/node-agent/internal/manifest"
)

// AddCustomDomain renders and applies an HTTPS Ingress routing domain to
// the app's existing Service.
func (h *Handlers) AddCustomDomain(ctx context.Context, cmd controlplane.Command) controlplane.CommandResult {
	var p domainPayload
	if err := unmarshalPayload(cmd.Payload, &p); err != nil {
		return failResult(err)
	}
	ns := namespaceFor(p.UserID)
	if err := k8sdriver.ValidateName("namespace", ns); err != nil {
		return failResult(err)
	}
	if err := k8sdriver.ValidateName("appName", p.AppName); err != nil {
		return failResult(err)
	}

	rendered, err := manifest.RenderIngress(manifest.AppSpec{
		Namespace: ns,
		Name:      p.AppName,
		Port:      p.Port,
		Domain:    p.Domain,
	})
	if err != nil {
		return failResult(agenterrors.Classify(agenterrors.ExternalToolFailure, agenterrors.FailedTo("render ingress", err)))
	}
	return fromShellResult(h.driver.ApplyManifest(ctx, rendered))
}

// RemoveCustomDomain deletes the app's Ingress, tolerating its absence.
func (h *Handlers) RemoveCustomDomain(ctx context.Context, cmd controlplane.Command) controlplane.CommandResult {
	var p domainPayload
	if err := unmarshalPayload(cmd.Payload, &p); err != nil {
		return failResult(err)
	}
	ns := namespaceFor(p.UserID)
	if err := k8sdriver.ValidateName("namespace", ns); err != nil {
		return failResult(err)
	}
	if err := k8sdriver.ValidateName("appName", p.AppName); err != nil {
		return failResult(err)
	}
	return fromShellResult(h.driver.ExecuteCommand(ctx, "delete", "ingress", p.AppName, "-n", ns, "--ignore-not-found"))
}
