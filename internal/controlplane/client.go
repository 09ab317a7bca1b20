package controlplane

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-logr/logr"

	"github.com/deploypilot/node-agent/internal/agenterrors"
	"github.com/deploypilot/node-agent/internal/httpclient"
	"github.com/deploypilot/node-agent/internal/logging"
)

const (
	registerInitialBackoff = 1 * time.Second
	registerBackoffFactor  = 2
	registerMaxBackoff     = 60 * time.Second
	registerMaxAttempts    = 10
)

// Client is the REST surface to the control plane: registration,
// heartbeat, command polling and lifecycle callbacks, the deployment
// log/status relay, and backup upload coordination.
type Client struct {
	httpClient *http.Client
	// agentsBase is backendURL+"/api/agents" — register/heartbeat/commands
	// are relative to it.
	agentsBase string
	// rootURL is backendURL itself — the deployment log/status relay is
	// rooted here, not under agentsBase, per spec §6.
	rootURL     string
	serverToken string
	log         logr.Logger
}

// New builds a Client. backendURL is the bare BACKEND_URL; agent-relative
// endpoints are issued under backendURL+"/api/agents", while the
// deployment log/status relay is issued directly under backendURL.
func New(backendURL, serverToken string, log logr.Logger) *Client {
	return &Client{
		httpClient:  httpclient.NewDefaultClient(),
		agentsBase:  backendURL + "/api/agents",
		rootURL:     backendURL,
		serverToken: serverToken,
		log:         log,
	}
}

// Register registers this agent with the control plane, retrying with
// exponential backoff (1s initial, factor 2, capped at 60s, 10 attempts).
// On exhaustion it returns the last error; the caller continues in a
// degraded state and may retry registration later.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (AgentIdentity, error) {
	backoff := registerInitialBackoff
	var lastErr error
	for attempt := 1; attempt <= registerMaxAttempts; attempt++ {
		var identity AgentIdentity
		err := c.do(ctx, http.MethodPost, "/register", req, &identity)
		if err == nil {
			return identity, nil
		}
		lastErr = err
		c.log.V(1).Info("registration attempt failed", "attempt", attempt, "error", err.Error())
		if attempt == registerMaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return AgentIdentity{}, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= registerBackoffFactor
		if backoff > registerMaxBackoff {
			backoff = registerMaxBackoff
		}
	}
	return AgentIdentity{}, agenterrors.Classify(agenterrors.TransientNetwork, agenterrors.NetworkError("register", c.agentsBase+"/register", lastErr))
}

// Heartbeat sends a HeartbeatSnapshot. Failures are the caller's to log
// and swallow per the heartbeat loop's best-effort contract.
func (c *Client) Heartbeat(ctx context.Context, snapshot HeartbeatSnapshot) error {
	var resp struct {
		Received bool `json:"received"`
	}
	return c.do(ctx, http.MethodPost, "/heartbeat", snapshot, &resp)
}

// PendingCommands fetches the current batch of pending commands.
func (c *Client) PendingCommands(ctx context.Context) ([]Command, error) {
	var commands []Command
	if err := c.do(ctx, http.MethodGet, "/commands", nil, &commands); err != nil {
		return nil, agenterrors.Classify(agenterrors.TransientNetwork, err)
	}
	return commands, nil
}

// AckCommand marks a command acked.
func (c *Client) AckCommand(ctx context.Context, id string) error {
	var resp struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/commands/%s/ack", id), nil, &resp)
}

// RunningCommand marks a command running.
func (c *Client) RunningCommand(ctx context.Context, id string) error {
	var resp struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/commands/%s/running", id), nil, &resp)
}

// ResultCommand sends a command's terminal result.
func (c *Client) ResultCommand(ctx context.Context, id string, result CommandResult) error {
	var resp struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/commands/%s/result", id), result, &resp)
}

// RelayLog posts one deployment log line. Best-effort: callers should
// swallow the error per the LogRelay contract. Rooted at backendURL
// directly — this endpoint is not under the /api/agents base.
func (c *Client) RelayLog(ctx context.Context, deploymentID string, msg LogMessage) error {
	return c.doAt(ctx, c.rootURL, http.MethodPost, fmt.Sprintf("/api/deployments/%s/logs", deploymentID), msg, nil)
}

// UpdateDeploymentStatus posts a deployment's terminal or intermediate
// status. Rooted at backendURL directly, like RelayLog.
func (c *Client) UpdateDeploymentStatus(ctx context.Context, deploymentID string, update StatusUpdate) error {
	return c.doAt(ctx, c.rootURL, http.MethodPatch, fmt.Sprintf("/api/deployments/%s/status", deploymentID), update, nil)
}

// BackupUploadURL fetches a pre-signed object-store URL for backupID.
func (c *Client) BackupUploadURL(ctx context.Context, backupID string) (string, error) {
	var resp struct {
		UploadURL string `json:"uploadUrl"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/backups/%s/upload-url", backupID), nil, &resp); err != nil {
		return "", agenterrors.Classify(agenterrors.TransientNetwork, err)
	}
	return resp.UploadURL, nil
}

// UpdateBackupStatus reports a backup's lifecycle status.
func (c *Client) UpdateBackupStatus(ctx context.Context, backupID string, update BackupStatusUpdate) error {
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/backups/%s/status", backupID), update, nil)
}

// do issues a request relative to agentsBase — the base every method except
// the deployment relay uses.
func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	return c.doAt(ctx, c.agentsBase, method, path, body, out)
}

// doAt issues a request against base+path. Split out from do so the
// deployment log/status relay can target rootURL instead of agentsBase.
func (c *Client) doAt(ctx context.Context, base, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return agenterrors.ParseError("request body", "json", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, base+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-Server-Token", c.serverToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return agenterrors.NetworkError(method+" "+path, base, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	c.log.V(2).Info("control plane call", logging.HTTPFields(method, base+path, resp.StatusCode).Args()...)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("control plane returned HTTP %d: %s", resp.StatusCode, string(respBody))
	}
	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return agenterrors.ParseError("response body", "json", err)
	}
	return nil
}
