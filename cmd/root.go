package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/tutorchat/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "tutorchat",
	Short: "AI tutor chat for the terminal",
	Long:  "tutorchat is a terminal client for an AI tutor: pick a topic, chat, take quizzes and keep a progress score.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runClient(cmd)
	},
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	addGlobalFlags(rootCmd)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(updateCmd)
}

func addGlobalFlags(c *cobra.Command) {
	f := c.PersistentFlags()
	f.String("server", "", "Backend URL (overrides TUTORCHAT_SERVER)")
	f.String("db", "", "Path to SQLite database file used by serve and llm (overrides TUTORCHAT_DB)")
	f.String("log", "", "Client log file (default $XDG_STATE_HOME/tutorchat/tutorchat.log)")
	f.BoolP("verbose", "v", false, "Log request details")
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then TUTORCHAT_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}

// openStore opens the database selected by resolveDBPath.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}
