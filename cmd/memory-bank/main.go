// memory-bank: an MCP server that keeps a project's Memory Bank current.
//
// The server exposes tools to scaffold and update a directory of markdown
// documents, route new information to the right document, detect
// duplicated content and profile how consistently an agent maintains the
// bank during a session.
//
// Usage:
//
//	memory-bank serve          # Start MCP server (stdio transport)
//	memory-bank init           # Create the memory-bank structure
//	memory-bank route <text>   # Show where a piece of text belongs
//	memory-bank check <file>   # Find documents similar to a file
//	memory-bank report         # List recent session reports
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/memory-bank/internal/config"
	mbserver "github.com/HendryAvila/memory-bank/internal/server"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Every subcommand loads the
// configuration from the persistent --config flag.
func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "memory-bank",
		Short:         "Memory Bank MCP server",
		Version:       mbserver.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "",
		"config file (default ~/.config/memory-bank/config.yaml)")

	load := func() (*config.Config, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		return cfg, nil
	}

	root.AddCommand(
		newServeCmd(load),
		newVersionCmd(),
		newInitCmd(load),
		newRouteCmd(load),
		newCheckCmd(load),
		newReportCmd(load),
	)
	return root
}

// configLoader resolves the configuration for a subcommand.
type configLoader func() (*config.Config, error)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "memory-bank v%s\n", mbserver.Version)
		},
	}
}
