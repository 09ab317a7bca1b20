package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "deploypilot-agent",
	Short: "deploypilot-agent — node-resident command execution engine",
	Long: `deploypilot-agent polls the DeployPilot control plane for work,
builds and deploys applications onto the local Docker + K3s host, and
reports status and logs back as each command runs.

Configuration is entirely environment-driven (SERVER_TOKEN, BACKEND_URL,
POLL_INTERVAL_MS, HEARTBEAT_INTERVAL_MS, LOG_LEVEL,
MAX_CONCURRENT_COMMANDS, PORT) — there are no command-line flags beyond
this help text.`,
	RunE:         runAgent,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		return fmt.Errorf("agent error: %w", err)
	}
	return nil
}
