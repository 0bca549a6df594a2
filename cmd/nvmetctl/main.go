// Package main implements nvmetctl, a declarative configuration
// manager for the Linux kernel's NVMe-over-Fabrics target.
//
// Installation:
//
//	go build -o nvmetctl ./cmd/nvmetctl
//	mv nvmetctl /usr/local/bin/
//
// Usage:
//
//	nvmetctl port list                       # List configured ports
//	nvmetctl subsystem list                  # List configured subsystems
//	nvmetctl state save current.yaml         # Snapshot live state to a file
//	nvmetctl diff desired.yaml               # Show pending changes
//	nvmetctl state restore desired.yaml      # Reconcile live state to match a file
package main

import (
	"flag"
	"os"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

// Build information (set via ldflags).
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		root        string
		outputFmt   string
		metricsAddr string
	)

	klogFlags := flag.NewFlagSet("klog", flag.ContinueOnError)
	klog.InitFlags(klogFlags)

	rootCmd := &cobra.Command{
		Use:   "nvmetctl",
		Short: "Reconcile the Linux kernel NVMe-oF target against a declarative configuration",
		Long: `nvmetctl manages the Linux kernel's NVMe-over-Fabrics target by reconciling a
desired configuration of ports, subsystems, allowed hosts, and namespaces
against the live configuration exposed under /sys/kernel/config/nvmet/.

The nvmet configfs root can be overridden with --root or the NVMETCTL_ROOT
environment variable; this is primarily useful for testing against a
scratch directory.`,
		Version: version + " (" + commit + ")",
	}
	rootCmd.PersistentFlags().AddGoFlagSet(klogFlags)

	defaultRoot := os.Getenv("NVMETCTL_ROOT")
	rootCmd.PersistentFlags().StringVar(&root, "root", defaultRoot, "nvmet configfs root (defaults to /sys/kernel/config/nvmet/, or $NVMETCTL_ROOT)")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "table", "Output format: table, yaml, json")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "If set, serve Prometheus metrics for this invocation on this address before exiting")

	rootCmd.AddCommand(newPortCmd(&root, &outputFmt))
	rootCmd.AddCommand(newSubsystemCmd(&root, &outputFmt))
	rootCmd.AddCommand(newNamespaceCmd(&root, &outputFmt))
	rootCmd.AddCommand(newStateCmd(&root, &outputFmt))
	rootCmd.AddCommand(newDiffCmd(&root, &outputFmt))

	wrapWithMetrics(rootCmd, &metricsAddr)

	return rootCmd
}
