package handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/deploypilot/node-agent/internal/agenterrors"
	"github.com/deploypilot/node-agent/internal/build"
	"github.com/deploypilot/node-agent/internal/command"
	"github.com/deploypilot/node-agent/internal/controlplane"
	"github.com/deploypilot/node-agent/internal/k8sdriver"
	"github.com/deploypilot/node-agent/internal/shellrunner"
)

// BackupCoordinator is the subset of controlplane.Client the backup
// handlers need: upload-URL issuance and lifecycle status callbacks.
type BackupCoordinator interface {
	BackupUploadURL(ctx context.Context, backupID string) (string, error)
	UpdateBackupStatus(ctx context.Context, backupID string, update controlplane.BackupStatusUpdate) error
}

// Handlers composes the drivers every command kind needs and exposes one
// method per CommandKind, each matching command.Handler's signature.
type Handlers struct {
	driver  *k8sdriver.Driver
	build   *build.Engine
	shell   *shellrunner.Runner
	backups BackupCoordinator
	status  build.StatusReporter
	log     logr.Logger
}

// New builds a Handlers composing the given drivers. status is the same
// LogRelay the build engine reports through; Deploy uses it to stream the
// terminal ready/failed status once the build pipeline hands off.
func New(driver *k8sdriver.Driver, buildEngine *build.Engine, shell *shellrunner.Runner, backups BackupCoordinator, status build.StatusReporter, log logr.Logger) *Handlers {
	return &Handlers{driver: driver, build: buildEngine, shell: shell, backups: backups, status: status, log: log}
}

// RegisterAll wires every command kind this package implements into
// registry.
func (h *Handlers) RegisterAll(registry *command.Registry) {
	registry.Register(controlplane.KindDeploy, h.Deploy)
	registry.Register(controlplane.KindStop, h.Stop)
	registry.Register(controlplane.KindRestart, h.Restart)
	registry.Register(controlplane.KindDelete, h.Delete)
	registry.Register(controlplane.KindCreateNamespace, h.CreateNamespace)
	registry.Register(controlplane.KindUpdateEnv, h.UpdateEnv)
	registry.Register(controlplane.KindAddCustomDomain, h.AddCustomDomain)
	registry.Register(controlplane.KindRemoveCustomDomain, h.RemoveCustomDomain)
	registry.Register(controlplane.KindCreateDatabase, h.CreateDatabase)
	registry.Register(controlplane.KindDeleteDatabase, h.DeleteDatabase)
	registry.Register(controlplane.KindUpdateDatabasePassword, h.UpdateDatabasePassword)
	registry.Register(controlplane.KindEnableDatabaseExternalAccess, h.EnableDatabaseExternalAccess)
	registry.Register(controlplane.KindDisableDatabaseExternalAccess, h.DisableDatabaseExternalAccess)
	registry.Register(controlplane.KindCreateBackup, h.CreateBackup)
	registry.Register(controlplane.KindRestoreBackup, h.RestoreBackup)
}

// unmarshalPayload decodes cmd's raw payload into dst, returning an error
// the caller should turn into a failed result and return immediately.
func unmarshalPayload(payload []byte, dst interface{}) error {
	if len(payload) == 0 {
		return fmt.Errorf("empty payload")
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		return agenterrors.Classify(agenterrors.InputValidation, agenterrors.ParseError("command payload", "json", err))
	}
	return nil
}

// fromShellResult converts a shellrunner.Result into a CommandResult,
// the common shape every handler's terminal leaf produces.
func fromShellResult(res shellrunner.Result) controlplane.CommandResult {
	if !res.Success {
		return controlplane.CommandResult{Success: false, Error: res.Error, Logs: res.Stdout + res.Stderr}
	}
	return controlplane.CommandResult{Success: true, Logs: res.Stdout}
}

// failResult builds a failed CommandResult from an error, classifying
// unclassified errors as ExternalToolFailure so the taxonomy is never
// silently dropped.
func failResult(err error) controlplane.CommandResult {
	if _, ok := agenterrors.ClassOf(err); !ok {
		err = agenterrors.Classify(agenterrors.ExternalToolFailure, err)
	}
	return controlplane.CommandResult{Success: false, Error: err.Error()}
}
