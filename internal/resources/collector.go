// Package resources collects the host+cluster resource snapshot the
// heartbeat loop reports: CPU/memory/disk utilization from the node
// itself, and running pod names from the cluster, per spec §6's "Resource
// probes use df -BG / and free -m."
package resources

import (
	"bufio"
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/go-logr/logr"

	"github.com/deploypilot/node-agent/internal/controlplane"
	"github.com/deploypilot/node-agent/internal/shellrunner"
)

const collectTimeout = 10 * time.Second

// Collector gathers a ResourceSnapshot plus running pod names for the
// heartbeat loop.
type Collector struct {
	shell *shellrunner.Runner
	log   logr.Logger
}

// New builds a Collector.
func New(shell *shellrunner.Runner, log logr.Logger) *Collector {
	return &Collector{shell: shell, log: log}
}

// Snapshot is one reading of host disk/memory usage plus cluster pod
// state.
type Snapshot struct {
	Resources   controlplane.ResourceSnapshot
	RunningPods []string
}

// Collect gathers the current host and cluster resource usage. Probe
// failures degrade to zero-valued fields rather than propagating — a
// heartbeat with partial data is preferable to none at all.
func (c *Collector) Collect(ctx context.Context) Snapshot {
	ctx, cancel := context.WithTimeout(ctx, collectTimeout)
	defer cancel()

	diskPct := c.diskPercent(ctx)
	memPct := c.memoryPercent(ctx)
	pods := c.runningPods(ctx)

	return Snapshot{
		Resources: controlplane.ResourceSnapshot{
			CPUPercent:    c.cpuPercent(ctx),
			MemoryPercent: memPct,
			DiskPercent:   diskPct,
			PodCount:      len(pods),
		},
		RunningPods: pods,
	}
}

// HostCapacity reads the node's total CPU/memory/disk capacity, sent
// once at registration.
func (c *Collector) HostCapacity(ctx context.Context) controlplane.HostResources {
	ctx, cancel := context.WithTimeout(ctx, collectTimeout)
	defer cancel()

	var caps controlplane.HostResources

	if res := c.shell.Run(ctx, "nproc", nil, collectTimeout); res.Success {
		if v, err := strconv.Atoi(strings.TrimSpace(res.Stdout)); err == nil {
			caps.CPUCores = v
		}
	}
	if res := c.shell.Run(ctx, "free", []string{"-m"}, collectTimeout); res.Success {
		scanner := bufio.NewScanner(strings.NewReader(res.Stdout))
		for scanner.Scan() {
			fields := strings.Fields(scanner.Text())
			if len(fields) >= 2 && fields[0] == "Mem:" {
				if v, err := strconv.Atoi(fields[1]); err == nil {
					caps.RAMMb = v
				}
				break
			}
		}
	}
	if res := c.shell.Run(ctx, "df", []string{"-BG", "/"}, collectTimeout); res.Success {
		lines := strings.Split(res.Stdout, "\n")
		if len(lines) >= 2 {
			fields := strings.Fields(lines[len(lines)-1])
			if len(fields) >= 2 {
				if v, err := strconv.Atoi(strings.TrimSuffix(fields[1], "G")); err == nil {
					caps.DiskGb = v
				}
			}
		}
	}
	return caps
}

// diskPercent parses `df -BG /`'s use% column for the root filesystem.
func (c *Collector) diskPercent(ctx context.Context) float64 {
	res := c.shell.Run(ctx, "df", []string{"-BG", "/"}, collectTimeout)
	if !res.Success {
		c.log.V(1).Info("disk probe failed", "error", res.Error)
		return 0
	}
	lines := strings.Split(res.Stdout, "\n")
	if len(lines) < 2 {
		return 0
	}
	fields := strings.Fields(lines[len(lines)-1])
	for _, f := range fields {
		if strings.HasSuffix(f, "%") {
			v, err := strconv.ParseFloat(strings.TrimSuffix(f, "%"), 64)
			if err == nil {
				return v
			}
		}
	}
	return 0
}

// memoryPercent parses `free -m`'s used/total for the Mem: row.
func (c *Collector) memoryPercent(ctx context.Context) float64 {
	res := c.shell.Run(ctx, "free", []string{"-m"}, collectTimeout)
	if !res.Success {
		c.log.V(1).Info("memory probe failed", "error", res.Error)
		return 0
	}
	scanner := bufio.NewScanner(strings.NewReader(res.Stdout))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 || fields[0] != "Mem:" {
			continue
		}
		total, err1 := strconv.ParseFloat(fields[1], 64)
		used, err2 := strconv.ParseFloat(fields[2], 64)
		if err1 != nil || err2 != nil || total == 0 {
			return 0
		}
		return used / total * 100
	}
	return 0
}

// cpuPercent samples /proc/stat-derived load via `uptime`'s one-minute
// load average against nproc, a cheap approximation that avoids the
// two-sample delay a true instantaneous CPU reading would need.
func (c *Collector) cpuPercent(ctx context.Context) float64 {
	loadRes := c.shell.Run(ctx, "uptime", nil, collectTimeout)
	nprocRes := c.shell.Run(ctx, "nproc", nil, collectTimeout)
	if !loadRes.Success || !nprocRes.Success {
		return 0
	}
	cores, err := strconv.ParseFloat(strings.TrimSpace(nprocRes.Stdout), 64)
	if err != nil || cores == 0 {
		return 0
	}
	idx := strings.LastIndex(loadRes.Stdout, "load average:")
	if idx == -1 {
		return 0
	}
	parts := strings.Split(loadRes.Stdout[idx+len("load average:"):], ",")
	if len(parts) == 0 {
		return 0
	}
	load, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0
	}
	pct := load / cores * 100
	if pct > 100 {
		pct = 100
	}
	return pct
}

// runningPods lists the names of pods in the Running phase across all
// namespaces via kubectl.
func (c *Collector) runningPods(ctx context.Context) []string {
	res := c.shell.Run(ctx, "kubectl", []string{"get", "pods", "-A", "--field-selector=status.phase=Running", "-o", "jsonpath={range .items[*]}{.metadata.name}{\"\\n\"}{end}"}, collectTimeout)
	if !res.Success {
		c.log.V(1).Info("pod listing failed", "error", res.Error)
		return nil
	}
	var pods []string
	for _, line := range strings.Split(res.Stdout, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			pods = append(pods, line)
		}
	}
	return pods
}
