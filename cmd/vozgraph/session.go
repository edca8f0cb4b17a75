package main

import (
	"errors"
	"fmt"

	"github.com/aretw0/vozgraph"
	"github.com/aretw0/vozgraph/internal/cli"
	"github.com/aretw0/vozgraph/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage persisted sessions",
	Long:  `Manage the sessions kept in the configured store.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer eng.Close()

		sessions, err := eng.Sessions(cmd.Context())
		if err != nil {
			return fmt.Errorf("listing sessions: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(sessions) == 0 {
			fmt.Fprintln(out, "No sessions found.")
			return nil
		}
		fmt.Fprintln(out, "Sessions:")
		for _, s := range sessions {
			fmt.Fprintln(out, "- "+s)
		}
		return nil
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Show the history of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		if err := checkFormat(format, formatMarkdown, formatJSON); err != nil {
			return err
		}
		eng, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer eng.Close()

		s, err := eng.Session(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("loading session '%s': %w", args[0], err)
		}
		if format == formatJSON {
			return printJSON(cmd.OutOrStdout(), s)
		}
		return printMarkdown(cmd.OutOrStdout(), tui.HistoryReport(s))
	},
}

var sessionImportCmd = &cobra.Command{
	Use:   "import <session-id> <history-file>",
	Short: "Append the commands of a history file to a session",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, logger, err := loadRuntime(cmd)
		if err != nil {
			return err
		}
		file, err := loadHistory(args[1], logger)
		if err != nil {
			return err
		}

		eng, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer eng.Close()

		s, err := eng.Import(cmd.Context(), args[0], file.Entries)
		if err != nil {
			return fmt.Errorf("importing into '%s': %w", args[0], err)
		}
		if file.Game != nil {
			if err := eng.UpdateGame(cmd.Context(), args[0], *file.Game); err != nil {
				return fmt.Errorf("importing game context: %w", err)
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d commands into '%s' (%d kept)\n", len(file.Entries), s.ID, len(s.History))
		return nil
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <session-id>...",
	Short: "Remove one or more sessions",
	Args: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		if all == (len(args) > 0) {
			return errors.New("give session ids or --all, not both")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer eng.Close()

		if all, _ := cmd.Flags().GetBool("all"); all {
			if args, err = eng.Sessions(cmd.Context()); err != nil {
				return fmt.Errorf("listing sessions: %w", err)
			}
		}

		var errs []error
		for _, sessionID := range args {
			if err := eng.Delete(cmd.Context(), sessionID); err != nil {
				errs = append(errs, fmt.Errorf("removing '%s': %w", sessionID, err))
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed session '%s'\n", sessionID)
		}
		return errors.Join(errs...)
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionImportCmd)
	sessionCmd.AddCommand(sessionRmCmd)

	sessionInspectCmd.Flags().StringP("format", "f", formatMarkdown, "Output format: md or json")
	sessionRmCmd.Flags().Bool("all", false, "Remove every session in the store")
}

func openEngine(cmd *cobra.Command) (*vozgraph.Engine, error) {
	cfg, logger, err := loadRuntime(cmd)
	if err != nil {
		return nil, err
	}
	return cli.NewEngine(cfg, logger, nil)
}
