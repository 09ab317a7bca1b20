package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/deploypilot/node-agent/internal/agenterrors"
	"github.com/deploypilot/node-agent/internal/controlplane"
	"github.com/deploypilot/node-agent/internal/httpclient"
	"github.com/deploypilot/node-agent/internal/manifest"
	"github.com/deploypilot/node-agent/internal/shellrunner"
)

const (
	dbOperationTimeout = 10 * time.Minute
	objectCopyTimeout  = 5 * time.Minute
	backupWorkspace    = "/tmp"
)

// CreateBackup dumps a database to a local file, uploads it to the
// pre-signed object-store URL the control plane issues, and reports the
// backup's terminal status.
func (h *Handlers) CreateBackup(ctx context.Context, cmd controlplane.Command) controlplane.CommandResult {
	var p backupPayload
	if err := unmarshalPayload(cmd.Payload, &p); err != nil {
		return failResult(err)
	}
	path := fmt.Sprintf("%s/backup-%s", backupWorkspace, p.BackupID)
	defer os.Remove(path)

	dumpRes := h.dump(ctx, p, path)
	if !dumpRes.Success {
		h.failBackup(ctx, p.BackupID, dumpRes.Error)
		return controlplane.CommandResult{Success: false, Error: dumpRes.Error, Logs: dumpRes.Stdout + dumpRes.Stderr}
	}

	uploadURL, err := h.backups.BackupUploadURL(ctx, p.BackupID)
	if err != nil {
		h.failBackup(ctx, p.BackupID, err.Error())
		return failResult(agenterrors.Classify(agenterrors.TransientNetwork, err))
	}
	if err := h.putObject(ctx, uploadURL, path); err != nil {
		h.failBackup(ctx, p.BackupID, err.Error())
		return failResult(agenterrors.Classify(agenterrors.TransientNetwork, err))
	}

	_ = h.backups.UpdateBackupStatus(ctx, p.BackupID, controlplane.BackupStatusUpdate{Status: "completed"})
	return controlplane.CommandResult{Success: true, Logs: dumpRes.Stdout}
}

// RestoreBackup downloads a previously created backup from the object
// store and restores it into the live database.
func (h *Handlers) RestoreBackup(ctx context.Context, cmd controlplane.Command) controlplane.CommandResult {
	var p backupPayload
	if err := unmarshalPayload(cmd.Payload, &p); err != nil {
		return failResult(err)
	}
	path := fmt.Sprintf("%s/restore-%s", backupWorkspace, p.BackupID)
	defer os.Remove(path)

	downloadURL, err := h.backups.BackupUploadURL(ctx, p.BackupID)
	if err != nil {
		h.failBackup(ctx, p.BackupID, err.Error())
		return failResult(agenterrors.Classify(agenterrors.TransientNetwork, err))
	}
	if err := h.getObject(ctx, downloadURL, path); err != nil {
		h.failBackup(ctx, p.BackupID, err.Error())
		return failResult(agenterrors.Classify(agenterrors.TransientNetwork, err))
	}

	restoreRes := h.restore(ctx, p, path)
	if !restoreRes.Success {
		h.failBackup(ctx, p.BackupID, restoreRes.Error)
		return controlplane.CommandResult{Success: false, Error: restoreRes.Error, Logs: restoreRes.Stdout + restoreRes.Stderr}
	}

	_ = h.backups.UpdateBackupStatus(ctx, p.BackupID, controlplane.BackupStatusUpdate{Status: "completed"})
	return controlplane.CommandResult{Success: true, Logs: restoreRes.Stdout}
}

func (h *Handlers) failBackup(ctx context.Context, backupID, message string) {
	_ = h.backups.UpdateBackupStatus(ctx, backupID, controlplane.BackupStatusUpdate{Status: "failed", Message: message})
}

// putObject streams path's contents to a pre-signed upload URL.
func (h *Handlers) putObject(ctx context.Context, url, path string) error {
	ctx, cancel := context.WithTimeout(ctx, objectCopyTimeout)
	defer cancel()

	f, err := os.Open(path)
	if err != nil {
		return agenterrors.FailedTo("open backup file for upload", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return agenterrors.FailedTo("stat backup file", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, f)
	if err != nil {
		return agenterrors.FailedTo("build upload request", err)
	}
	req.ContentLength = info.Size()

	client := httpclient.NewClient(httpclient.ObjectStoreClientConfig(objectCopyTimeout))
	resp, err := client.Do(req)
	if err != nil {
		return agenterrors.NetworkError("upload backup", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("object store returned HTTP %d on upload", resp.StatusCode)
	}
	return nil
}

// getObject downloads a pre-signed URL's contents to path.
func (h *Handlers) getObject(ctx context.Context, url, path string) error {
	ctx, cancel := context.WithTimeout(ctx, objectCopyTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return agenterrors.FailedTo("build download request", err)
	}
	client := httpclient.NewClient(httpclient.ObjectStoreClientConfig(objectCopyTimeout))
	resp, err := client.Do(req)
	if err != nil {
		return agenterrors.NetworkError("download backup", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("object store returned HTTP %d on download", resp.StatusCode)
	}

	f, err := os.Create(path)
	if err != nil {
		return agenterrors.FailedTo("create restore file", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		return agenterrors.FailedTo("write restore file", err)
	}
	return nil
}

func clusterDNS(namespace, name string) string {
	return fmt.Sprintf("%s.%s.svc.cluster.local", name, namespace)
}

func (h *Handlers) dump(ctx context.Context, p backupPayload, path string) shellrunner.Result {
	ns := namespaceFor(p.UserID)
	dbHost := clusterDNS(ns, p.DatabaseName)
	switch p.Type {
	case manifest.Postgres:
		return h.shell.RunEnv(ctx, "pg_dump",
			[]string{"-h", dbHost, "-p", "5432", "-U", p.User, "-d", p.DatabaseName, "-F", "c", "-f", path},
			map[string]string{"PGPASSWORD": p.Password}, dbOperationTimeout)
	case manifest.MongoDB:
		uri := fmt.Sprintf("mongodb://%s:%s@%s:27017/%s", p.User, p.Password, dbHost, p.DatabaseName)
		return h.shell.Run(ctx, "mongodump", []string{"--uri", uri, "--archive=" + path, "--gzip"}, dbOperationTimeout)
	case manifest.Redis:
		return h.shell.RunEnv(ctx, "redis-cli", []string{"-h", dbHost, "-p", "6379", "--rdb", path}, map[string]string{"REDISCLI_AUTH": p.Password}, dbOperationTimeout)
	default:
		return shellrunner.Result{Success: false, Error: fmt.Sprintf("unsupported database type %q for backup", p.Type)}
	}
}

func (h *Handlers) restore(ctx context.Context, p backupPayload, path string) shellrunner.Result {
	ns := namespaceFor(p.UserID)
	dbHost := clusterDNS(ns, p.DatabaseName)
	switch p.Type {
	case manifest.Postgres:
		return h.shell.RunEnv(ctx, "pg_restore",
			[]string{"-h", dbHost, "-p", "5432", "-U", p.User, "-d", p.DatabaseName, "--clean", "--if-exists", path},
			map[string]string{"PGPASSWORD": p.Password}, dbOperationTimeout)
	case manifest.MongoDB:
		uri := fmt.Sprintf("mongodb://%s:%s@%s:27017/%s", p.User, p.Password, dbHost, p.DatabaseName)
		return h.shell.Run(ctx, "mongorestore", []string{"--uri", uri, "--archive=" + path, "--gzip", "--drop"}, dbOperationTimeout)
	case manifest.Redis:
		return shellrunner.Result{Success: false, Error: "redis restore requires a pod-level RDB swap, not supported via host copy"}
	default:
		return shellrunner.Result{Success: false, Error: fmt.Sprintf("unsupported database type %q for restore", p.Type)}
	}
}
