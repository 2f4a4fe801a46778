package cmd

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/abhisek/tutorchat/internal/api"
	"github.com/abhisek/tutorchat/internal/app"
	"github.com/abhisek/tutorchat/internal/bank"
	"github.com/abhisek/tutorchat/internal/chat"
	"github.com/abhisek/tutorchat/internal/quiz"
)

// runClient builds the chat manager and launches the TUI.
func runClient(cmd *cobra.Command) error {
	logger, closeLog, err := openLog(cmd)
	if err != nil {
		return err
	}
	defer closeLog()

	mgr, err := newManager(cmd, logger)
	if err != nil {
		return err
	}
	logger.Printf("tutorchat %s starting", version)
	return app.Run(mgr, logger)
}

// newManager wires the API client, datasets and quiz engine into a chat
// manager.
func newManager(cmd *cobra.Command, logger *log.Logger) (*chat.Manager, error) {
	cfg, err := clientConfig(cmd)
	if err != nil {
		return nil, err
	}
	client, err := api.New(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}

	embedded, err := bank.NewEmbeddedSource()
	if err != nil {
		return nil, fmt.Errorf("load built-in datasets: %w", err)
	}
	data := &bank.FallbackSource{
		Primary:   bank.NewHTTPSource(client),
		Secondary: embedded,
		Logger:    logger,
	}

	engine := quiz.NewEngine(data, client)
	return chat.NewManager(client, engine, data, logger), nil
}

// clientConfig resolves the client settings: flag, then environment, then
// defaults.
func clientConfig(cmd *cobra.Command) (api.Config, error) {
	cfg := api.ConfigFromEnv()
	if s, _ := cmd.Flags().GetString("server"); s != "" {
		cfg.BaseURL = s
	}
	cfg.Verbose, _ = cmd.Flags().GetBool("verbose")
	if cfg.SessionFile == "" {
		p, err := api.DefaultSessionPath()
		if err != nil {
			return cfg, fmt.Errorf("resolve session path: %w", err)
		}
		cfg.SessionFile = p
	}
	return cfg, cfg.Validate()
}

// openLog opens the client log file. The TUI owns the terminal, so logs
// never go to stderr while it runs.
func openLog(cmd *cobra.Command) (*log.Logger, func() error, error) {
	path, _ := cmd.Flags().GetString("log")
	if path == "" {
		p, err := defaultLogPath()
		if err != nil {
			return nil, nil, err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	flags := log.LstdFlags
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		flags |= log.Lmicroseconds
	}
	return log.New(f, "", flags), f.Close, nil
}

// defaultLogPath returns $XDG_STATE_HOME/tutorchat/tutorchat.log.
func defaultLogPath() (string, error) {
	dir := os.Getenv("XDG_STATE_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dir = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(dir, "tutorchat", "tutorchat.log"), nil
}
