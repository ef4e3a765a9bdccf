package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newPrefsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "View and edit per-user privacy preferences",
	}
	cmd.AddCommand(newPrefsShowCmd(), newPrefsSetCmd(), newPrefsFlagsCmd())
	return cmd
}

func newPrefsShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <user-id>",
		Short: "Show a user's effective preference set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := getCLIContext(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()

			set, err := cliCtx.Client.Preferences().Get(ctx, args[0])
			if err != nil {
				return err
			}

			if cliCtx.OutputFormat == "json" {
				return printJSON(cmd, set)
			}

			names := make([]string, 0, len(set.Flags))
			for name := range set.Flags {
				names = append(names, name)
			}
			sort.Strings(names)

			rows := make([][]string, 0, len(names))
			for _, name := range names {
				rows = append(rows, []string{name, strconv.FormatBool(set.Flags[name])})
			}
			fmt.Fprint(cmd.OutOrStdout(), formatTable([]string{"FLAG", "ALLOWED"}, rows))
			return nil
		},
	}
	return cmd
}

func newPrefsSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <user-id> <flag>=<true|false> ...",
		Short: "Set one or more preference flags for a user",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := getCLIContext(cmd)
			if err != nil {
				return err
			}

			flags := make(map[string]bool, len(args)-1)
			for _, raw := range args[1:] {
				name, value, ok := strings.Cut(raw, "=")
				if !ok {
					return fmt.Errorf("invalid flag assignment %q, expected name=true|false", raw)
				}
				b, err := strconv.ParseBool(value)
				if err != nil {
					return fmt.Errorf("invalid value %q for flag %s", value, name)
				}
				flags[name] = b
			}

			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()

			set, err := cliCtx.Client.Preferences().Update(ctx, args[0], flags)
			if err != nil {
				return err
			}

			if cliCtx.OutputFormat == "json" {
				return printJSON(cmd, set)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %d flag(s) for %s\n", len(flags), set.UserID)
			return nil
		},
	}
	return cmd
}

func newPrefsFlagsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flags",
		Short: "List all registered preference flags with their defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := getCLIContext(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()

			flags, err := cliCtx.Client.Preferences().Flags(ctx)
			if err != nil {
				return err
			}

			if cliCtx.OutputFormat == "json" {
				return printJSON(cmd, flags)
			}

			rows := make([][]string, 0, len(flags))
			for _, f := range flags {
				rows = append(rows, []string{f.Name, f.Category, strconv.FormatBool(f.Default)})
			}
			fmt.Fprint(cmd.OutOrStdout(), formatTable([]string{"FLAG", "CATEGORY", "DEFAULT"}, rows))
			return nil
		},
	}
	return cmd
}
