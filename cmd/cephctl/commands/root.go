// Package commands holds cephctl's cobra command tree, grounded on the
// teacher's cmd/dittofs/commands/root.go: a package-level root command,
// a persistent --config flag, an init() that wires subcommands, and
// Execute/GetRootCmd entry points main.go calls into.
package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/cephmsgr/internal/logger"
	"github.com/marmos91/cephmsgr/pkg/config"
)

var (
	// Version is set by the build (ldflags), "dev" otherwise.
	Version = "dev"

	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "cephctl",
	Short: "cephctl - a msgr2/CephX client for Ceph clusters",
	Long: `cephctl dials a Ceph monitor (or OSD) over msgr2, negotiates a frame
format, authenticates with CephX, and exchanges application messages --
without linking against librados.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the command tree; main.go's sole responsibility is
// calling this and translating its error into an exit code.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd exposes the root command for tests.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

// loadConfig loads cephctl's configuration from the --config flag (or
// the default XDG location) and initializes the logger from it. Each
// subcommand that needs a live connection calls this itself, rather
// than every command (including "version") paying for a config file
// that might not exist yet.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return nil, err
	}
	return cfg, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/cephctl/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(handshakeCmd)
	rootCmd.AddCommand(monmapCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(serveAdminCmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the cephctl version",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := cmd.Println(Version)
		return err
	},
}

// Exit prints format to stderr and exits 1, matching the teacher's
// commands.Exit helper.
func Exit(format string, args ...any) {
	rootCmd.PrintErrf(format+"\n", args...)
	os.Exit(1)
}
