package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/go-containerregistry/pkg/name"
	"github.com/google/go-containerregistry/pkg/v1/daemon"

	"github.com/deploypilot/node-agent/internal/agenterrors"
	"github.com/deploypilot/node-agent/internal/logging"
	"github.com/deploypilot/node-agent/internal/shellrunner"
)

const (
	buildTimeout  = 10 * time.Minute
	importTimeout = 5 * time.Minute
	workspaceRoot = "/tmp/deploypilot-builds"
	maxErrorTailLines = 20
)

// StatusReporter receives the handful of lifecycle events a running build
// emits; implemented by internal/logrelay so the engine never depends on
// the control-plane client directly.
type StatusReporter interface {
	SendLog(deploymentID, message, level, step string)
	UpdateStatus(deploymentID, status, message string)
}

// Engine runs the full clone → detect → recipe → build → import →
// resolve-port pipeline described in the build pipeline's component
// contract.
type Engine struct {
	shell  *shellrunner.Runner
	status StatusReporter
	log    logr.Logger
}

// New builds an Engine.
func New(shell *shellrunner.Runner, status StatusReporter, log logr.Logger) *Engine {
	return &Engine{shell: shell, status: status, log: log}
}

// Build runs the pipeline for spec and returns the resulting Artifact.
// The build workspace is removed on every exit path.
func (e *Engine) Build(ctx context.Context, spec Spec) Artifact {
	log := e.log.WithValues(logging.BuildFields(spec.AppName, spec.DeploymentID, "pipeline").Args()...)
	dir := filepath.Join(workspaceRoot, spec.AppName)

	e.report(spec.DeploymentID, "building", "")
	if err := prepareWorkspace(dir); err != nil {
		return e.fail(spec, log, agenterrors.Classify(agenterrors.ExternalToolFailure, agenterrors.FailedTo("prepare build workspace", err)))
	}
	defer e.cleanup(dir, log)

	cloneRes := clone(ctx, e.shell, spec, dir)
	e.relayLines(spec.DeploymentID, "clone", cloneRes.Stdout)
	if !cloneRes.Success {
		return e.fail(spec, log, fmt.Errorf("%s", maskTokens(cloneRes.Error)))
	}

	d := detect(dir, spec)
	recipe := synthesizeRecipe(spec, d)
	if recipe != "" {
		if err := os.WriteFile(filepath.Join(dir, "Dockerfile"), []byte(recipe), 0o644); err != nil {
			return e.fail(spec, log, agenterrors.Classify(agenterrors.ExternalToolFailure, agenterrors.FailedTo("write recipe", err)))
		}
	} else if !fileExists(filepath.Join(dir, "Dockerfile")) {
		return e.fail(spec, log, agenterrors.Classify(agenterrors.ExternalToolFailure, agenterrors.FailedTo("locate Dockerfile", nil)))
	}

	imageName := fmt.Sprintf("%s:%s", spec.AppName, spec.DeploymentID)
	var tailMu sync.Mutex
	var tail []string
	code, err := e.shell.Spawn(ctx, "docker", []string{"build", "-t", imageName, dir}, buildTimeout, func(line string) {
		masked := maskTokens(line)
		// Spawn streams stdout and stderr on separate goroutines and calls
		// this callback concurrently from both; serialize the tail append
		// and the relay call.
		tailMu.Lock()
		defer tailMu.Unlock()
		e.status.SendLog(spec.DeploymentID, masked, "info", "build")
		tail = appendTail(tail, masked)
	})
	if err != nil || code != 0 {
		e.status.SendLog(spec.DeploymentID, strings.Join(tail, "\n"), "error", "build")
		return e.fail(spec, log, agenterrors.Classify(agenterrors.ExternalToolFailure, fmt.Errorf("image build failed (exit %d): %v", code, err)))
	}

	importCmd := fmt.Sprintf("docker save %s | k3s ctr images import -", shellrunner.SingleQuote(imageName))
	importRes := e.shell.RunShell(ctx, importCmd, importTimeout)
	if !importRes.Success {
		return e.fail(spec, log, agenterrors.Classify(agenterrors.ExternalToolFailure, agenterrors.FailedTo("import image into cluster runtime", fmt.Errorf("%s", importRes.Error))))
	}

	fqImageName := fmt.Sprintf("docker.io/library/%s", imageName)
	port := e.resolveExposedPort(imageName, spec.Port)

	e.report(spec.DeploymentID, "deploying", "")
	return Artifact{
		Success:     true,
		ImageName:   fqImageName,
		ExposedPort: port,
		Logs:        strings.Join(tail, "\n"),
	}
}

// resolveExposedPort inspects the locally built image's metadata for its
// first exposed TCP port, falling back to fallback when none is found or
// the daemon can't be reached.
func (e *Engine) resolveExposedPort(imageName string, fallback int) int {
	ref, err := name.ParseReference(imageName)
	if err != nil {
		return fallback
	}
	img, err := daemon.Image(ref)
	if err != nil {
		return fallback
	}
	cfg, err := img.ConfigFile()
	if err != nil {
		return fallback
	}
	for portProto := range cfg.Config.ExposedPorts {
		parts := strings.SplitN(portProto, "/", 2)
		if len(parts) == 2 && parts[1] == "tcp" {
			var p int
			if _, err := fmt.Sscanf(parts[0], "%d", &p); err == nil {
				return p
			}
		}
	}
	return fallback
}

func (e *Engine) fail(spec Spec, log logr.Logger, err error) Artifact {
	log.Error(err, "build pipeline failed")
	e.report(spec.DeploymentID, "failed", err.Error())
	return Artifact{Success: false, Error: err.Error()}
}

func (e *Engine) report(deploymentID, status, message string) {
	e.status.UpdateStatus(deploymentID, status, message)
}

func (e *Engine) relayLines(deploymentID, step, output string) {
	for _, line := range strings.Split(output, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		e.status.SendLog(deploymentID, maskTokens(line), "info", step)
	}
}

func (e *Engine) cleanup(dir string, log logr.Logger) {
	if err := os.RemoveAll(dir); err != nil {
		log.V(1).Info("workspace cleanup failed", "error", err.Error(), "class", agenterrors.CleanupBestEffort)
	}
}

func prepareWorkspace(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
		return err
	}
	return os.Mkdir(dir, 0o755)
}

func appendTail(tail []string, line string) []string {
	tail = append(tail, line)
	if len(tail) > maxErrorTailLines {
		tail = tail[len(tail)-maxErrorTailLines:]
	}
	return tail
}
