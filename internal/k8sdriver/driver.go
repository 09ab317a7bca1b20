// Package k8sdriver wraps kubectl and the site-local deploypilot-*
// helper scripts with a small set of verbs. It never talks to the API
// server directly — every operation is a child-process invocation,
// exactly as spec §4.2 describes, mirroring the teacher's
// cli/core/kubectl.go thin-verb pattern without its per-call --context
// injection.
package k8sdriver

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"

	"github.com/deploypilot/node-agent/internal/logging"
	"github.com/deploypilot/node-agent/internal/shellrunner"
)

const (
	defaultTimeout  = 30 * time.Second
	applyTimeout    = 60 * time.Second
	logStreamTimeout = 10 * time.Minute
)

// Driver issues kubectl verbs against a single cluster.
type Driver struct {
	shell *shellrunner.Runner
	log   logr.Logger
}

// New builds a Driver bound to the current kubeconfig context (the node
// agent manages exactly one cluster, so unlike the teacher's multi-Kind
// CLI there is no --context to inject per call).
func New(shell *shellrunner.Runner, log logr.Logger) *Driver {
	return &Driver{shell: shell, log: log}
}

func (d *Driver) kubectl(ctx context.Context, timeout time.Duration, args ...string) shellrunner.Result {
	d.log.V(1).Info("kubectl", logging.KubernetesFields("exec", "", "", "").Custom("args", args).Args()...)
	return d.shell.Run(ctx, "kubectl", args, timeout)
}

// EnsureNamespace creates a namespace for userId (idempotent — apply, not
// create) and, when a registry pull token is supplied, ensures the
// image-pull secret exists in it via the deploypilot-create-namespace
// helper script.
func (d *Driver) EnsureNamespace(ctx context.Context, userID, token string) shellrunner.Result {
	if err := ValidateName("userId", userID); err != nil {
		return failResult(err)
	}
	ns := namespaceFor(userID)
	args := []string{"create", "namespace", ns, "--dry-run=client", "-o", "yaml"}
	res := d.kubectl(ctx, defaultTimeout, args...)
	if !res.Success {
		return res
	}
	applied := d.applyStdin(ctx, res.Stdout)
	if !applied.Success || token == "" {
		return applied
	}
	return d.shell.Run(ctx, "deploypilot-create-namespace", []string{ns, token}, applyTimeout)
}

// DeployApp runs the deploypilot-deploy-app helper script with namespace,
// app and image, followed by port when it is positive and domain when it
// is non-empty. It renders no manifest itself.
func (d *Driver) DeployApp(ctx context.Context, namespace, app, image string, port int, domain string) shellrunner.Result {
	if err := ValidateName("namespace", namespace); err != nil {
		return failResult(err)
	}
	if err := ValidateName("appName", app); err != nil {
		return failResult(err)
	}
	args := []string{"deploypilot-deploy-app", namespace, app, image}
	if port > 0 {
		args = append(args, fmt.Sprintf("%d", port))
	}
	if domain != "" {
		args = append(args, domain)
	}
	return d.shell.Run(ctx, args[0], args[1:], applyTimeout)
}

// DeleteApp removes an app's Deployment+Service+Ingress via the
// site-local helper script. Idempotent — re-running against an
// already-removed app is a success.
func (d *Driver) DeleteApp(ctx context.Context, namespace, app string) shellrunner.Result {
	if err := ValidateName("namespace", namespace); err != nil {
		return failResult(err)
	}
	if err := ValidateName("appName", app); err != nil {
		return failResult(err)
	}
	return d.shell.Run(ctx, "deploypilot-delete-app", []string{namespace, app}, applyTimeout)
}

// Restart performs a rollout restart of app's Deployment.
func (d *Driver) Restart(ctx context.Context, namespace, app string) shellrunner.Result {
	if err := ValidateName("namespace", namespace); err != nil {
		return failResult(err)
	}
	if err := ValidateName("appName", app); err != nil {
		return failResult(err)
	}
	return d.kubectl(ctx, applyTimeout, "rollout", "restart", "deployment/"+app, "-n", namespace)
}

// Stop scales app's Deployment to zero replicas.
func (d *Driver) Stop(ctx context.Context, namespace, app string) shellrunner.Result {
	if err := ValidateName("namespace", namespace); err != nil {
		return failResult(err)
	}
	if err := ValidateName("appName", app); err != nil {
		return failResult(err)
	}
	return d.kubectl(ctx, defaultTimeout, "scale", "deployment/"+app, "-n", namespace, "--replicas=0")
}

// SetEnvVars patches app's Deployment env vars. An empty map is a no-op
// success without invoking kubectl at all, per spec §4.2.
func (d *Driver) SetEnvVars(ctx context.Context, namespace, app string, vars map[string]string) shellrunner.Result {
	if len(vars) == 0 {
		return shellrunner.Result{Success: true}
	}
	if err := ValidateName("namespace", namespace); err != nil {
		return failResult(err)
	}
	if err := ValidateName("appName", app); err != nil {
		return failResult(err)
	}
	args := []string{"set", "env", "deployment/" + app, "-n", namespace}
	for k, v := range vars {
		args = append(args, fmt.Sprintf("%s=%s", k, v))
	}
	return d.kubectl(ctx, applyTimeout, args...)
}

// DeleteDeployment removes the Deployment, Service and Ingress for app,
// each with --ignore-not-found so the composite operation is idempotent.
// Failure is reported only if any sub-step actually failed.
func (d *Driver) DeleteDeployment(ctx context.Context, namespace, app string) shellrunner.Result {
	if err := ValidateName("namespace", namespace); err != nil {
		return failResult(err)
	}
	if err := ValidateName("appName", app); err != nil {
		return failResult(err)
	}

	kinds := []string{"deployment", "service", "ingress"}
	var stdout, stderr string
	for _, kind := range kinds {
		res := d.kubectl(ctx, applyTimeout, "delete", kind, app, "-n", namespace, "--ignore-not-found")
		stdout += res.Stdout + "\n"
		if !res.Success {
			stderr += res.Stderr + "\n"
			return shellrunner.Result{Success: false, Stdout: stdout, Stderr: stderr, Error: fmt.Sprintf("failed to delete %s: %s", kind, res.Error)}
		}
	}
	return shellrunner.Result{Success: true, Stdout: stdout}
}

// ApplyManifest applies a rendered manifest document via stdin.
func (d *Driver) ApplyManifest(ctx context.Context, manifest string) shellrunner.Result {
	return d.applyStdin(ctx, manifest)
}

func (d *Driver) applyStdin(ctx context.Context, manifest string) shellrunner.Result {
	return d.shell.RunStdin(ctx, "kubectl", []string{"apply", "-f", "-"}, manifest, applyTimeout)
}

// WaitStatefulSetReady blocks until name's StatefulSet reports
// readyReplicas == its desired replica count, or timeout elapses.
func (d *Driver) WaitStatefulSetReady(ctx context.Context, namespace, name string, timeout time.Duration) shellrunner.Result {
	if err := ValidateName("namespace", namespace); err != nil {
		return failResult(err)
	}
	if err := ValidateName("name", name); err != nil {
		return failResult(err)
	}
	seconds := int(timeout.Seconds())
	return d.kubectl(ctx, timeout+5*time.Second, "rollout", "status", "statefulset/"+name, "-n", namespace, fmt.Sprintf("--timeout=%ds", seconds))
}

// DeleteStatefulSet removes the StatefulSet, headless Service, PVC and
// credentials Secret backing a database, each with --ignore-not-found so
// the composite operation is idempotent. Mirrors DeleteDeployment's
// report-first-failure shape.
func (d *Driver) DeleteStatefulSet(ctx context.Context, namespace, name string) shellrunner.Result {
	if err := ValidateName("namespace", namespace); err != nil {
		return failResult(err)
	}
	if err := ValidateName("name", name); err != nil {
		return failResult(err)
	}

	resources := []struct{ kind, name string }{
		{"statefulset", name},
		{"service", name},
		{"persistentvolumeclaim", name + "-data"},
		{"secret", name + "-credentials"},
	}
	var stdout, stderr string
	for _, r := range resources {
		res := d.kubectl(ctx, applyTimeout, "delete", r.kind, r.name, "-n", namespace, "--ignore-not-found")
		stdout += res.Stdout + "\n"
		if !res.Success {
			stderr += res.Stderr + "\n"
			return shellrunner.Result{Success: false, Stdout: stdout, Stderr: stderr, Error: fmt.Sprintf("failed to delete %s: %s", r.kind, res.Error)}
		}
	}
	return shellrunner.Result{Success: true, Stdout: stdout}
}

// RestartStatefulSet performs a rollout restart, used after rotating a
// database's credentials secret so pods pick up the new value.
func (d *Driver) RestartStatefulSet(ctx context.Context, namespace, name string) shellrunner.Result {
	if err := ValidateName("namespace", namespace); err != nil {
		return failResult(err)
	}
	if err := ValidateName("name", name); err != nil {
		return failResult(err)
	}
	return d.kubectl(ctx, applyTimeout, "rollout", "restart", "statefulset/"+name, "-n", namespace)
}

// EnableExternalAccess patches a database's Service to NodePort, binding
// nodePort so the control plane can route external traffic to it.
func (d *Driver) EnableExternalAccess(ctx context.Context, namespace, name string, port, nodePort int) shellrunner.Result {
	if err := ValidateName("namespace", namespace); err != nil {
		return failResult(err)
	}
	if err := ValidateName("name", name); err != nil {
		return failResult(err)
	}
	patch := fmt.Sprintf(`{"spec":{"type":"NodePort","ports":[{"port":%d,"targetPort":%d,"nodePort":%d}]}}`, port, port, nodePort)
	return d.kubectl(ctx, defaultTimeout, "patch", "service", name, "-n", namespace, "--type=merge", "-p", patch)
}

// DisableExternalAccess reverts a database's Service back to ClusterIP.
func (d *Driver) DisableExternalAccess(ctx context.Context, namespace, name string, port int) shellrunner.Result {
	if err := ValidateName("namespace", namespace); err != nil {
		return failResult(err)
	}
	if err := ValidateName("name", name); err != nil {
		return failResult(err)
	}
	patch := fmt.Sprintf(`{"spec":{"type":"ClusterIP","ports":[{"port":%d,"targetPort":%d,"nodePort":null}]}}`, port, port)
	return d.kubectl(ctx, defaultTimeout, "patch", "service", name, "-n", namespace, "--type=merge", "-p", patch)
}

// StreamLogs follows app's Deployment logs in namespace, invoking onLine
// per line until the process exits or ctx is cancelled. The local HTTP
// log-stream endpoint is thin framing over this, per spec §1.
func (d *Driver) StreamLogs(ctx context.Context, namespace, app, tail string, onLine shellrunner.OnLine) (int, error) {
	if err := ValidateName("namespace", namespace); err != nil {
		return -1, err
	}
	if err := ValidateName("appName", app); err != nil {
		return -1, err
	}
	args := []string{"logs", "-f", "deployment/" + app, "-n", namespace, "--tail=" + tail}
	return d.shell.Spawn(ctx, "kubectl", args, logStreamTimeout, onLine)
}

// ExecuteCommand passes args straight through to kubectl, for handlers
// that need a verb this driver doesn't wrap directly (e.g. `get`/`describe`
// for diagnostics).
func (d *Driver) ExecuteCommand(ctx context.Context, args ...string) shellrunner.Result {
	return d.kubectl(ctx, defaultTimeout, args...)
}

func namespaceFor(userID string) string {
	return "deploypilot-" + userID
}

func failResult(err error) shellrunner.Result {
	return shellrunner.Result{Success: false, Error: err.Error()}
}
