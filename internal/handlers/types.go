// Package handlers implements one handler per command kind: thin
// compositions of KubernetesDriver, ManifestTemplates, and BuildEngine
// that convert a Command's payload into a CommandResult. The dispatch
// contract and common result shape live in internal/command; this
// package only supplies what each kind actually does.
package handlers

import (
	"github.com/deploypilot/node-agent/internal/build"
	"github.com/deploypilot/node-agent/internal/manifest"
)

// deployPayload is the DEPLOY command's payload.
type deployPayload struct {
	UserID       string            `json:"userId"`
	AppName      string            `json:"appName"`
	DeploymentID string            `json:"deploymentId"`
	GitRepoURL   string            `json:"gitRepoUrl"`
	GitBranch    string            `json:"gitBranch"`
	GitToken     string            `json:"gitToken"`
	Framework    build.Framework   `json:"framework"`
	BuildCommand string            `json:"buildCommand"`
	StartCommand string            `json:"startCommand"`
	OutputDir    string            `json:"outputDirectory"`
	Port         int               `json:"port"`
	Domain       string            `json:"domain"`
	EnvVars      map[string]string `json:"envVars"`
}

// appRefPayload is the common shape for STOP/RESTART/DELETE/
// CREATE_NAMESPACE/UPDATE_ENV.
type appRefPayload struct {
	UserID  string            `json:"userId"`
	AppName string            `json:"appName"`
	Token   string            `json:"token"`
	EnvVars map[string]string `json:"envVars"`
}

// domainPayload is ADD_CUSTOM_DOMAIN/REMOVE_CUSTOM_DOMAIN's payload.
type domainPayload struct {
	UserID  string `json:"userId"`
	AppName string `json:"appName"`
	Domain  string `json:"domain"`
	Port    int    `json:"port"`
}

// databasePayload is CREATE_DATABASE/DELETE_DATABASE/
// UPDATE_DATABASE_PASSWORD/ENABLE_DATABASE_EXTERNAL_ACCESS/
// DISABLE_DATABASE_EXTERNAL_ACCESS's payload.
type databasePayload struct {
	UserID       string               `json:"userId"`
	Name         string               `json:"name"`
	Type         manifest.DatabaseKind `json:"type"`
	Version      string               `json:"version"`
	StorageSize  string               `json:"storageSize"`
	MemoryLimit  string               `json:"memoryLimit"`
	User         string               `json:"user"`
	Password     string               `json:"password"`
	DatabaseName string               `json:"databaseName"`
	ExternalPort int                  `json:"externalPort"`
}

// backupPayload is CREATE_BACKUP/RESTORE_BACKUP's payload.
type backupPayload struct {
	UserID       string                `json:"userId"`
	BackupID     string                `json:"backupId"`
	DatabaseName string                `json:"databaseName"`
	Type         manifest.DatabaseKind `json:"type"`
	User         string                `json:"user"`
	Password     string                `json:"password"`
}

func namespaceFor(userID string) string {
	return "deploypilot-" + userID
}

func dbSpecFrom(p databasePayload) manifest.DatabaseSpec {
	return manifest.DatabaseSpec{
		Namespace:    namespaceFor(p.UserID),
		Name:         p.Name,
		Kind:         p.Type,
		Version:      p.Version,
		StorageSize:  p.StorageSize,
		MemoryLimit:  p.MemoryLimit,
		User:         p.User,
		Password:     p.Password,
		DatabaseName: p.DatabaseName,
		ExternalPort: p.ExternalPort,
	}
}
