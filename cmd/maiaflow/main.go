// Package main implements the maiaflow command: it loads a topology document,
// builds the nodes it names, wires them and runs them until every node has
// finished or the process is signalled.
package main

import (
	"context"
	stderrors "errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/waikato/maiaflow/config"
	"github.com/waikato/maiaflow/errors"
	"github.com/waikato/maiaflow/learner"
	"github.com/waikato/maiaflow/metric"
	"github.com/waikato/maiaflow/node"
	"github.com/waikato/maiaflow/noderegistry"
	"github.com/waikato/maiaflow/topology"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "maiaflow"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()

	if err != nil && !stderrors.Is(err, flag.ErrHelp) {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cliCfg, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	if err := validateFlags(cliCfg); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		_, _ = fmt.Fprintf(stdout, "%s version %s\n", appName, Version)
		return nil
	}

	learners := learner.DefaultRegistry()
	registry, err := noderegistry.NewRegistry(learners)
	if err != nil {
		return fmt.Errorf("register nodes: %w", err)
	}

	if cliCfg.ListNodes {
		listNodes(stdout, registry, learners)
		return nil
	}

	logger := setupLogger(stderr, cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)
	logger.Info("Starting maiaflow",
		"version", Version,
		"build_time", BuildTime,
		"config_path", cliCfg.ConfigPath)

	metricsRegistry := metric.NewMetricsRegistry()

	cfg, err := loadConfig(cliCfg.ConfigPath)
	metricsRegistry.CoreMetrics().RecordConfigLoad(err == nil)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	deps := node.Dependencies{
		Logger:          logger,
		MetricsRegistry: metricsRegistry,
	}
	topo, err := topology.Build(cfg, registry, deps)
	if err != nil {
		return fmt.Errorf("build topology: %w", err)
	}
	reportAnalysis(logger, topo.Analyze())

	if cliCfg.Validate {
		logger.Info("Topology is valid", "name", topo.Name(), "nodes", len(topo.Nodes()))
		return nil
	}

	if cliCfg.MetricsPort > 0 {
		server := metric.NewServer(cliCfg.MetricsPort, "/metrics", metricsRegistry, healthOf(topo))
		go func() {
			if err := server.Start(); err != nil {
				logger.Error("Metrics server failed", "error", err)
			}
		}()
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Stop(stopCtx)
		}()
		logger.Info("Metrics server listening", "port", cliCfg.MetricsPort)
	}

	return runTopology(ctx, logger, topo, cliCfg.ShutdownTimeout)
}

// runTopology runs topo until it finishes or ctx is cancelled, then waits at
// most shutdownTimeout for the nodes to exit.
func runTopology(ctx context.Context, logger *slog.Logger, topo *topology.Topology, shutdownTimeout time.Duration) error {
	done := make(chan error, 1)
	go func() { done <- topo.Run(ctx) }()

	select {
	case err := <-done:
		return shutdownResult(ctx, logger, err)
	case <-ctx.Done():
	}

	logger.Info("Received shutdown signal")
	timer := time.NewTimer(shutdownTimeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return shutdownResult(ctx, logger, err)
	case <-timer.C:
		return fmt.Errorf("graceful shutdown failed: nodes still running after %s", shutdownTimeout)
	}
}

// shutdownResult drops the transient error a cancelled run returns.
func shutdownResult(ctx context.Context, logger *slog.Logger, err error) error {
	if err != nil && (ctx.Err() == nil || !errors.IsTransient(err)) {
		return err
	}
	if ctx.Err() != nil {
		logger.Info("maiaflow shutdown complete")
	}
	return nil
}

// healthOf reports unhealthy once any node has failed.
func healthOf(topo *topology.Topology) metric.HealthFunc {
	return func() error {
		for _, n := range topo.Nodes() {
			if n.State() == node.StateFailed {
				return fmt.Errorf("node %s failed", n.Name())
			}
		}
		return nil
	}
}

func reportAnalysis(logger *slog.Logger, result *topology.AnalysisResult) {
	for _, o := range result.OrphanedPorts {
		logger.Debug("Unconnected port", "node", o.Node, "port", o.Port, "direction", o.Direction, "issue", o.Issue)
	}
	for _, d := range result.DisconnectedNodes {
		logger.Warn("Node has no connections", "node", d.Node)
	}
	logger.Info("Topology analysed",
		"status", result.ValidationStatus,
		"edges", len(result.Edges),
		"components", len(result.ConnectedComponents))
}

func listNodes(w io.Writer, registry *node.Registry, learners *learner.Registry) {
	_, _ = fmt.Fprintln(w, "Nodes:")
	for _, reg := range registry.Registrations() {
		_, _ = fmt.Fprintf(w, "  %-14s %s (v%s)\n", reg.Name, reg.Description, reg.Version)
	}
	_, _ = fmt.Fprintln(w, "Learners:")
	for _, name := range learners.Names() {
		_, _ = fmt.Fprintf(w, "  %s\n", name)
	}
}

// loadConfig loads and validates a topology document
func loadConfig(path string) (*config.Config, error) {
	loader := config.NewLoader()
	loader.EnableValidation(true)
	return loader.LoadFile(path)
}
