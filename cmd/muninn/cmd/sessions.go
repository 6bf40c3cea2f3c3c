package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ssargent/muninn/pkg/config"
	"github.com/ssargent/muninn/pkg/history"
)

var sessionsFormat string

// sessionsCmd represents the sessions command
var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect recorded parse sessions",
	Long: `Inspect the history of recorded parse sessions. Sessions are listed
in the order they were started.

Example:
  muninn sessions list
  muninn sessions show 2eKXAr4uVyoCtGuJsevXZ6kVUyp
  muninn sessions delete 2eKXAr4uVyoCtGuJsevXZ6kVUyp`,
}

// sessionsListCmd represents the sessions list command
var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded parse sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openSessionStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		sessions, err := store.List()
		if err != nil {
			return err
		}

		if sessionsFormat == "json" {
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(sessions)
		}

		if len(sessions) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No sessions recorded")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		defer w.Flush()

		fmt.Fprintln(w, "ID\tSTARTED\tSTATUS\tLINES\tRECORDS\tPATH")
		for _, session := range sessions {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
				session.ID,
				session.StartedAt.Format("2006-01-02 15:04"),
				session.Status,
				session.LinesRead,
				session.RecordsEmitted,
				session.Path)
		}

		return nil
	},
}

// sessionsShowCmd represents the sessions show command
var sessionsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one parse session in full",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openSessionStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		session, err := store.Get(args[0])
		if err != nil {
			return err
		}

		if sessionsFormat == "json" {
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(session)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		defer w.Flush()

		fmt.Fprintf(w, "ID:\t%s\n", session.ID)
		fmt.Fprintf(w, "Path:\t%s\n", session.Path)
		if session.Pattern != "" {
			fmt.Fprintf(w, "Pattern:\t%s\n", session.Pattern)
		}
		fmt.Fprintf(w, "Status:\t%s\n", session.Status)
		fmt.Fprintf(w, "Started:\t%s\n", session.StartedAt.Format(time.RFC3339))
		fmt.Fprintf(w, "Finished:\t%s\n", session.FinishedAt.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:\t%s\n", session.FinishedAt.Sub(session.StartedAt).Round(time.Millisecond))
		fmt.Fprintf(w, "Lines read:\t%d\n", session.LinesRead)
		fmt.Fprintf(w, "Records:\t%d\n", session.RecordsEmitted)
		fmt.Fprintf(w, "Info:\t%d\n", session.InfoCount)
		fmt.Fprintf(w, "Warning:\t%d\n", session.WarningCount)
		fmt.Fprintf(w, "Error:\t%d\n", session.ErrorCount)
		if session.Error != "" {
			fmt.Fprintf(w, "Failure:\t%s\n", session.Error)
		}

		return nil
	},
}

// sessionsDeleteCmd represents the sessions delete command
var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete one parse session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openSessionStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Delete(args[0]); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Deleted session %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)

	sessionsCmd.PersistentFlags().StringVar(&sessionsFormat, "format", "table", "Output format: table or json")
}

// openSessionStore opens the history store configured for this process
func openSessionStore(cmd *cobra.Command) (*history.Store, error) {
	cfg, ok := cmd.Context().Value("config").(*config.Config)
	if !ok {
		return nil, fmt.Errorf("config not found in context")
	}

	return history.Open(cfg.History.Path)
}
