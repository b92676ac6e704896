// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeranaias/chatspaces/internal/ui/app"
)

// Version information, set by main from build flags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// runTUI starts the full-screen program. Replaced in tests.
var runTUI = app.Run

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "chatspaces",
		Short: "Gemini Chat Spaces - terminal chatrooms with a simulated AI",
		Long: `chatspaces is a terminal chat client with phone/OTP login, a chatroom
dashboard and per-room conversations answered by a simulated assistant.

Run without arguments to open the full-screen interface.

Examples:
  chatspaces                       Open the interface
  chatspaces rooms create "Team"   Create a chatroom
  chatspaces rooms list team       List chatrooms matching "team"
  chatspaces chat 3f2a             Line-mode chat in a chatroom
  chatspaces --ephemeral           Run without touching the data directory`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInterface(cmd.Context(), g, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	root.SetVersionTemplate("chatspaces {{.Version}}\n")

	pf := root.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "config file (default ~/.chatspaces/config.toml)")
	pf.StringVar(&g.dataDir, "data-dir", "", "data directory override")
	pf.BoolVar(&g.ephemeral, "ephemeral", false, "keep all data in memory for this run")
	pf.StringVar(&g.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		newRoomsCommand(g),
		newChatCommand(g),
		newConfigCommand(g),
		newVersionCommand(),
	)
	return root
}

func runInterface(ctx context.Context, g *globalFlags, stdout, stderr io.Writer) error {
	if !IsTerminal(stdout) {
		return ErrNotTerminal
	}
	e, err := openEnv(ctx, g, logToFile, stderr)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	svc, err := e.services(ctx)
	if err != nil {
		return err
	}
	e.logger.Info().Str("version", Version).Msg("interface starting")
	if err := runTUI(ctx, svc); err != nil {
		return &CommandError{Command: "chatspaces", Reason: "interface stopped", Err: err}
	}
	return nil
}

// Execute runs the command line and returns the exit code. Errors print as
// "Error: ..." on stderr.
func Execute(ctx context.Context, args []string) int {
	root := NewRootCommand()
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return ExitCode(err)
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "chatspaces %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
		},
	}
}
