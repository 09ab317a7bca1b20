package handlers

import (
	"context"

	"github.com/deploypilot/node-agent/internal/build"
	"github.com/deploypilot/node-agent/internal/controlplane"
)

// Deploy runs the full build pipeline for the command's repository and,
// on a successful image build, hands the image to the driver's DeployApp
// (the site-local deploy helper script).
func (h *Handlers) Deploy(ctx context.Context, cmd controlplane.Command) controlplane.CommandResult {
	var p deployPayload
	if err := unmarshalPayload(cmd.Payload, &p); err != nil {
		return failResult(err)
	}

	artifact := h.build.Build(ctx, build.Spec{
		AppName:      p.AppName,
		DeploymentID: p.DeploymentID,
		GitRepoURL:   p.GitRepoURL,
		GitBranch:    p.GitBranch,
		GitToken:     p.GitToken,
		Framework:    p.Framework,
		BuildCommand: p.BuildCommand,
		StartCommand: p.StartCommand,
		OutputDirectory: p.OutputDir,
		Port:         p.Port,
		EnvVars:      p.EnvVars,
	})
	if !artifact.Success {
		return controlplane.CommandResult{Success: false, Error: artifact.Error, Logs: artifact.Logs}
	}

	ns := namespaceFor(p.UserID)
	res := h.driver.DeployApp(ctx, ns, p.AppName, artifact.ImageName, artifact.ExposedPort, p.Domain)
	if !res.Success {
		h.status.UpdateStatus(p.DeploymentID, "failed", res.Error)
		return controlplane.CommandResult{Success: false, Error: res.Error, Logs: artifact.Logs + "\n" + res.Stdout + res.Stderr}
	}
	if len(p.EnvVars) > 0 {
		if envRes := h.driver.SetEnvVars(ctx, ns, p.AppName, p.EnvVars); !envRes.Success {
			h.status.UpdateStatus(p.DeploymentID, "failed", envRes.Error)
			return controlplane.CommandResult{Success: false, Error: envRes.Error, Logs: artifact.Logs}
		}
	}
	h.status.UpdateStatus(p.DeploymentID, "ready", "")
	return controlplane.CommandResult{Success: true, Logs: artifact.Logs}
}
