package controlplane

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/deploypilot/node-agent/internal/logging"
)

func TestAckCommandSendsServerToken(t *testing.T) {
	var gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Server-Token")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "c1", "status": "acked"})
	}))
	defer srv.Close()

	c := New(srv.URL, "secret-token", logging.Discard())
	if err := c.AckCommand(context.Background(), "c1"); err != nil {
		t.Fatalf("AckCommand error: %v", err)
	}
	if gotToken != "secret-token" {
		t.Errorf("X-Server-Token = %q, want %q", gotToken, "secret-token")
	}
}

func TestPendingCommandsParsesArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]Command{{ID: "c1", Kind: KindDeploy, Status: StatusPending}})
	}))
	defer srv.Close()

	c := New(srv.URL, "tok", logging.Discard())
	cmds, err := c.PendingCommands(context.Background())
	if err != nil {
		t.Fatalf("PendingCommands error: %v", err)
	}
	if len(cmds) != 1 || cmds[0].ID != "c1" {
		t.Errorf("PendingCommands = %+v", cmds)
	}
}

func TestResultCommandNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer srv.Close()

	c := New(srv.URL, "tok", logging.Discard())
	err := c.ResultCommand(context.Background(), "c1", CommandResult{Success: true})
	if err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}

func TestRelayLogHitsBackendRootNotAgentsBase(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL, "tok", logging.Discard())
	if err := c.RelayLog(context.Background(), "dep-1", LogMessage{Message: "hello"}); err != nil {
		t.Fatalf("RelayLog error: %v", err)
	}
	if want := "/api/deployments/dep-1/logs"; gotPath != want {
		t.Errorf("path = %q, want %q", gotPath, want)
	}
}

func TestUpdateDeploymentStatusHitsBackendRootNotAgentsBase(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL, "tok", logging.Discard())
	if err := c.UpdateDeploymentStatus(context.Background(), "dep-1", StatusUpdate{Status: "ready"}); err != nil {
		t.Fatalf("UpdateDeploymentStatus error: %v", err)
	}
	if want := "/api/deployments/dep-1/status"; gotPath != want {
		t.Errorf("path = %q, want %q", gotPath, want)
	}
}

func TestRegisterRetriesUntilSuccess(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(AgentIdentity{ID: "agent-1", Name: "node-1", Status: "online"})
	}))
	defer srv.Close()

	c := New(srv.URL, "tok", logging.Discard())
	identity, err := c.Register(context.Background(), RegisterRequest{Hostname: "node-1"})
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if identity.ID != "agent-1" {
		t.Errorf("identity = %+v", identity)
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
}
