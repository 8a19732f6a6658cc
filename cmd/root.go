package cmd

import (
	"github.com/spf13/cobra"

	"github.com/xiaoyuezhuu/ds-interview-generative-pad/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "dspad",
	Short: "AI-generated data science interview practice pad",
	Long:  "dspad generates SQL and Python interview challenges with an AI model and evaluates answers against reference solutions in a live execution environment.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides DSPAD_DB env var)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then DSPAD_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}
