package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/deploypilot/node-agent/internal/agent"
	"github.com/deploypilot/node-agent/internal/build"
	"github.com/deploypilot/node-agent/internal/command"
	"github.com/deploypilot/node-agent/internal/config"
	"github.com/deploypilot/node-agent/internal/controlplane"
	"github.com/deploypilot/node-agent/internal/handlers"
	"github.com/deploypilot/node-agent/internal/httpapi"
	"github.com/deploypilot/node-agent/internal/k8sdriver"
	"github.com/deploypilot/node-agent/internal/logging"
	"github.com/deploypilot/node-agent/internal/logrelay"
	"github.com/deploypilot/node-agent/internal/resources"
	"github.com/deploypilot/node-agent/internal/shellrunner"
)

const (
	shutdownGrace     = 10 * time.Second
	kubeVersionProbe  = 5 * time.Second
)

func runAgent(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	log := logging.New(cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shell := shellrunner.New(log.WithName("shell"))
	driver := k8sdriver.New(shell, log.WithName("k8s"))
	cpClient := controlplane.New(cfg.BackendURL, cfg.ServerToken, log.WithName("controlplane"))
	// The relay outlives the signal context so handlers still draining at
	// shutdown can report; it is stopped after both loops have returned.
	relayCtx, stopRelay := context.WithCancel(context.Background())
	relay := logrelay.New(relayCtx, cpClient, log.WithName("logrelay"))
	buildEngine := build.New(shell, relay, log.WithName("build"))
	collector := resources.New(shell, log.WithName("resources"))

	liveSet := command.NewLiveSet(cfg.MaxConcurrentCommands)
	registry := command.NewRegistry()
	dispatcher := command.NewDispatcher(registry, cpClient, log.WithName("dispatcher"))

	h := handlers.New(driver, buildEngine, shell, cpClient, relay, log.WithName("handlers"))
	h.RegisterAll(registry)

	identity := agent.NewIdentity()
	registerAgent(ctx, cpClient, shell, collector, identity, log.WithName("register"))

	controlLoop := agent.NewControlLoop(cpClient, dispatcher, liveSet, cfg.PollInterval, log.WithName("controlloop"))
	heartbeatLoop := agent.NewHeartbeatLoop(cpClient, collector, liveSet, cfg.HeartbeatInterval, log.WithName("heartbeat"))
	supervisor := agent.NewSupervisor(log, controlLoop, heartbeatLoop)

	api := httpapi.New(identity, driver, log.WithName("httpapi"))
	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      api.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // log streaming endpoints are long-lived
	}

	errCh := make(chan error, 2)
	go func() {
		errCh <- supervisor.Run(ctx)
	}()
	go func() {
		log.Info("http server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
			return
		}
		errCh <- nil
	}()

	<-ctx.Done()
	log.Info("shutdown signal received, draining in-flight commands")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error(err, "http server shutdown")
	}

	for i := 0; i < 2; i++ {
		if err := <-errCh; err != nil {
			log.Error(err, "component exited with error")
		}
	}
	stopRelay()
	relay.Wait()

	log.Info("agent shut down cleanly")
	return nil
}

// registerAgent registers with the control plane, retrying internally
// per spec §6; a failed registration leaves the process in a degraded
// state rather than exiting. Registration is attempted only here, at
// startup: after a failure the identity stays unregistered for the rest
// of the process lifetime, and no later operation registers again.
func registerAgent(ctx context.Context, client *controlplane.Client, shell *shellrunner.Runner, collector *resources.Collector, identity *agent.Identity, log logr.Logger) {
	hostname, _ := os.Hostname()
	caps := collector.HostCapacity(ctx)

	identity2, err := client.Register(ctx, controlplane.RegisterRequest{
		Hostname:    hostname,
		KubeVersion: kubeVersion(ctx, shell),
		Resources:   caps,
	})
	if err != nil {
		log.Info("registration did not complete; continuing in a degraded state", "error", err.Error())
		return
	}
	identity.SetRegistered(identity2.ID)
	log.Info("registered with control plane", "agentId", identity2.ID, "name", identity2.Name)
}

// kubeVersion shells out to kubectl for the cluster's server version,
// returning "" when the probe fails rather than blocking registration
// on it.
func kubeVersion(ctx context.Context, shell *shellrunner.Runner) string {
	res := shell.Run(ctx, "kubectl", []string{"version", "--client=false", "-o", "json"}, kubeVersionProbe)
	if !res.Success {
		return ""
	}
	var report struct {
		ServerVersion struct {
			GitVersion string `json:"gitVersion"`
		} `json:"serverVersion"`
	}
	if err := json.Unmarshal([]byte(res.Stdout), &report); err != nil {
		return ""
	}
	return report.ServerVersion.GitVersion
}
