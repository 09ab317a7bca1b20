// Package controlplane is the typed REST client the agent uses to talk
// to the remote deployment control plane: registration, heartbeats,
// command polling and lifecycle callbacks, the deployment log/status
// relay, and backup upload coordination.
package controlplane

import "encoding/json"

// CommandStatus mirrors the control plane's view of a Command.
type CommandStatus string

const (
	StatusPending   CommandStatus = "pending"
	StatusAcked     CommandStatus = "acked"
	StatusRunning   CommandStatus = "running"
	StatusCompleted CommandStatus = "completed"
	StatusFailed    CommandStatus = "failed"
)

// CommandKind enumerates every unit of work the control plane can issue.
type CommandKind string

const (
	KindDeploy                      CommandKind = "DEPLOY"
	KindStop                        CommandKind = "STOP"
	KindRestart                     CommandKind = "RESTART"
	KindDelete                      CommandKind = "DELETE"
	KindCreateNamespace              CommandKind = "CREATE_NAMESPACE"
	KindUpdateEnv                   CommandKind = "UPDATE_ENV"
	KindAddCustomDomain              CommandKind = "ADD_CUSTOM_DOMAIN"
	KindRemoveCustomDomain           CommandKind = "REMOVE_CUSTOM_DOMAIN"
	KindCreateDatabase               CommandKind = "CREATE_DATABASE"
	KindDeleteDatabase               CommandKind = "DELETE_DATABASE"
	KindUpdateDatabasePassword       CommandKind = "UPDATE_DATABASE_PASSWORD"
	KindEnableDatabaseExternalAccess CommandKind = "ENABLE_DATABASE_EXTERNAL_ACCESS"
	KindDisableDatabaseExternalAccess CommandKind = "DISABLE_DATABASE_EXTERNAL_ACCESS"
	KindCreateBackup                 CommandKind = "CREATE_BACKUP"
	KindRestoreBackup                CommandKind = "RESTORE_BACKUP"
)

// Command is a unit of work received from the control plane. Payload is
// left as a raw message; each handler unmarshals the shape it expects.
type Command struct {
	ID        string          `json:"id"`
	Kind      CommandKind     `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
	Status    CommandStatus   `json:"status"`
	CreatedAt string          `json:"createdAt"`
}

// CommandResult is the outcome sent back for a completed or failed
// Command.
type CommandResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Logs    string `json:"logs,omitempty"`
}

// AgentIdentity is assigned at registration and held for the process
// lifetime.
type AgentIdentity struct {
	ID     string                 `json:"id"`
	Name   string                 `json:"name"`
	Status string                 `json:"status"`
	Config map[string]interface{} `json:"config"`
}

// HostResources describes the node's capacity, sent at registration.
type HostResources struct {
	CPUCores int `json:"cpuCores"`
	RAMMb    int `json:"ramMb"`
	DiskGb   int `json:"diskGb"`
}

// RegisterRequest is the body of POST /register.
type RegisterRequest struct {
	Hostname   string        `json:"hostname"`
	KubeVersion string       `json:"kubeVersion"`
	Resources  HostResources `json:"resources"`
}

// HeartbeatSnapshot is the body of POST /heartbeat.
type HeartbeatSnapshot struct {
	Status       string            `json:"status"`
	Resources    ResourceSnapshot  `json:"resources"`
	RunningPods  []string          `json:"runningPods"`
	ErrorMessage string            `json:"errorMessage,omitempty"`
}

// ResourceSnapshot is the host+cluster resource usage reported in every
// heartbeat.
type ResourceSnapshot struct {
	CPUPercent    float64 `json:"cpuPercent"`
	MemoryPercent float64 `json:"memoryPercent"`
	DiskPercent   float64 `json:"diskPercent"`
	PodCount      int     `json:"podCount"`
}

// LogMessage is the body of a deployment log-stream relay call.
type LogMessage struct {
	Message   string `json:"message"`
	Level     string `json:"level"`
	Timestamp string `json:"timestamp"`
	Step      string `json:"step"`
}

// StatusUpdate is the body of a deployment status callback.
type StatusUpdate struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// BackupStatusUpdate is the body of PATCH /backups/{id}/status.
type BackupStatusUpdate struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}
