// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/chatspaces/internal/logging"
	"github.com/jeranaias/chatspaces/internal/model"
	"github.com/jeranaias/chatspaces/internal/util"
)

// shortIDLen is how much of a chatroom id the list prints.
const shortIDLen = 8

func newRoomsCommand(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rooms",
		Aliases: []string{"room"},
		Short:   "List, create and delete chatrooms",
	}

	var asJSON bool
	list := &cobra.Command{
		Use:   "list [filter]",
		Short: "List chatrooms, optionally filtered by title",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), g, logToStderr, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.Close()

			filter := ""
			if len(args) == 1 {
				filter = args[0]
			}
			rooms := e.registry.List(filter)
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), rooms)
			}
			printRooms(cmd.OutOrStdout(), rooms, TerminalWidth(cmd.OutOrStdout()))
			return nil
		},
	}
	list.Flags().BoolVar(&asJSON, "json", false, "print JSON")

	create := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a chatroom",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), g, logToStderr, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.Close()

			ctx := logging.WithLogger(cmd.Context(), e.logger)
			room, err := e.registry.Create(ctx, strings.Join(args, " "))
			if errors.Is(err, model.ErrEmptyTitle) {
				return err
			}
			if err != nil && !model.IsPersistence(err) {
				return &CommandError{Command: "rooms create", Reason: "could not create chatroom", Err: err}
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s Chatroom created successfully! %s\n", SuccessStyle.Render("[OK]"), LabelStyle.Render(room.ID))
			if err != nil {
				fmt.Fprintf(out, "%s %v\n", WarningStyle.Render("[!]"), err)
			}
			return nil
		},
	}

	del := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a chatroom and its history",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), g, logToStderr, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.Close()

			id, err := e.findRoom(args[0])
			if err != nil {
				return err
			}
			room, _ := e.registry.Get(id)
			ctx := logging.WithLogger(cmd.Context(), e.logger)
			if err := e.registry.Delete(ctx, id); err != nil && !model.IsPersistence(err) {
				return &CommandError{Command: "rooms delete", Reason: "could not delete chatroom", Err: err}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Chatroom deleted! %s\n", SuccessStyle.Render("[OK]"), LabelStyle.Render(room.Title))
			return nil
		},
	}

	cmd.AddCommand(list, create, del)
	return cmd
}

// printRooms writes one line per chatroom, titles truncated to the width.
func printRooms(w io.Writer, rooms []model.Chatroom, width int) {
	if len(rooms) == 0 {
		fmt.Fprintln(w, InfoStyle.Render("No chatrooms found. Create one to get started!"))
		return
	}
	titleWidth := width - shortIDLen - 22
	if titleWidth < 12 {
		titleWidth = 12
	}
	for _, room := range rooms {
		id := room.ID
		if len(id) > shortIDLen {
			id = id[:shortIDLen]
		}
		title := util.PadWidth(util.TruncateWidth(room.Title, titleWidth), titleWidth)
		fmt.Fprintf(w, "%s  %s  %s\n",
			LabelStyle.Render(id),
			title,
			LabelStyle.Render(room.CreatedAt.Local().Format("2006-01-02 15:04")))
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
